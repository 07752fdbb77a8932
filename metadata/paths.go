// Copyright The in-toto Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metadata

import (
	"fmt"
	"strings"

	intoto "github.com/alanssitis/in-toto-go"
	"github.com/alanssitis/in-toto-go/crypto"
)

// safePath checks that path is safe to use as a sequence of relative path
// components: non-empty, not absolute, and no "/"-delimited component is
// exactly "..". Components merely containing dots ("..foo", "bar..") are
// allowed. The string is not normalized; callers store it verbatim.
func safePath(path string) error {
	if path == "" {
		return intoto.EncodingError{Msg: "empty path"}
	}
	if strings.HasPrefix(path, "/") {
		return intoto.EncodingError{Msg: fmt.Sprintf("absolute paths are not allowed: %q", path)}
	}
	for _, component := range strings.Split(path, "/") {
		if component == ".." {
			return intoto.EncodingError{Msg: fmt.Sprintf("parent directory components are not allowed: %q", path)}
		}
	}
	return nil
}

// MetadataPath addresses a metadata document relative to a metadata
// directory. It must not carry the file extension; the extension is
// appended by the library according to the data interchange format in
// use.
//
//	NewMetadataPath("root")      // right
//	NewMetadataPath("root.json") // wrong
//
// MetadataPath values are immutable; equality and ordering follow the
// wrapped string.
type MetadataPath struct {
	path string
}

// NewMetadataPath creates a MetadataPath after validating path with the
// same rules as TargetPath.
func NewMetadataPath(path string) (MetadataPath, error) {
	if err := safePath(path); err != nil {
		return MetadataPath{}, err
	}
	return MetadataPath{path: path}, nil
}

// String implements fmt.Stringer.
func (p MetadataPath) String() string {
	return p.path
}

// MarshalText implements encoding.TextMarshaler.
func (p MetadataPath) MarshalText() ([]byte, error) {
	return []byte(p.path), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, re-validating the
// decoded path.
func (p *MetadataPath) UnmarshalText(text []byte) error {
	parsed, err := NewMetadataPath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TargetPath addresses a target file relative to a targets directory.
// TargetPath values are immutable; equality and ordering follow the
// wrapped string.
type TargetPath struct {
	path string
}

// NewTargetPath creates a TargetPath, rejecting absolute paths and paths
// with a parent directory component.
func NewTargetPath(path string) (TargetPath, error) {
	if err := safePath(path); err != nil {
		return TargetPath{}, err
	}
	return TargetPath{path: path}, nil
}

// Value returns the string value of the path.
func (p TargetPath) Value() string {
	return p.path
}

// String implements fmt.Stringer.
func (p TargetPath) String() string {
	return p.path
}

// Components splits the path into components that can be joined to create
// URL paths, Unix paths, or Windows paths.
func (p TargetPath) Components() []string {
	return strings.Split(p.path, "/")
}

// WithHashPrefix derives the sibling path whose file name carries a hash
// prefix, addressing the target by content without altering the directory
// structure: "foo/bar" becomes "foo/<hash>.bar".
func (p TargetPath) WithHashPrefix(hash crypto.HashValue) (TargetPath, error) {
	components := p.Components()

	// The path was validated as non-empty, so there is always a last
	// component.
	fileName := components[len(components)-1]
	components[len(components)-1] = fmt.Sprintf("%s.%s", hash, fileName)

	return NewTargetPath(strings.Join(components, "/"))
}

// MarshalText implements encoding.TextMarshaler.
func (p TargetPath) MarshalText() ([]byte, error) {
	return []byte(p.path), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, re-validating the
// decoded path.
func (p *TargetPath) UnmarshalText(text []byte) error {
	parsed, err := NewTargetPath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
