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

// Package link provides the link attestation document: the record of one
// supply chain step, listing the artifacts it consumed (materials) and
// produced (products). A link is plain data; it gains meaning only once
// wrapped and verified as signed metadata.
package link

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/opencontainers/go-digest"

	intoto "github.com/alanssitis/in-toto-go"
	"github.com/alanssitis/in-toto-go/metadata"
)

// LinkType tags link documents on the wire.
const LinkType = "link"

// TargetDescription describes one artifact as a mapping from hash
// algorithm name to the lowercase hex digest of the artifact under that
// algorithm.
type TargetDescription map[string]string

// NewTargetDescription describes content under the canonical digest
// algorithm.
func NewTargetDescription(content []byte) TargetDescription {
	d := digest.Canonical.FromBytes(content)
	return TargetDescription{string(d.Algorithm()): d.Encoded()}
}

// RecordArtifact hashes the file at path with the canonical digest
// algorithm and returns its validated target path and description.
func RecordArtifact(path string) (metadata.TargetPath, TargetDescription, error) {
	targetPath, err := metadata.NewTargetPath(path)
	if err != nil {
		return metadata.TargetPath{}, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return metadata.TargetPath{}, nil, err
	}
	defer file.Close()
	d, err := digest.Canonical.FromReader(file)
	if err != nil {
		return metadata.TargetPath{}, nil, err
	}
	return targetPath, TargetDescription{string(d.Algorithm()): d.Encoded()}, nil
}

// RecordArtifacts hashes every named file, keyed by validated target
// path.
func RecordArtifacts(paths []string) (map[metadata.TargetPath]TargetDescription, error) {
	artifacts := make(map[metadata.TargetPath]TargetDescription, len(paths))
	for _, path := range paths {
		targetPath, description, err := RecordArtifact(path)
		if err != nil {
			return nil, err
		}
		artifacts[targetPath] = description
	}
	return artifacts, nil
}

// LinkMetadata is the link document of one supply chain step. It
// implements metadata.Metadata and carries no verification logic of its
// own. Immutable once constructed.
type LinkMetadata struct {
	name       string
	materials  map[metadata.TargetPath]TargetDescription
	products   map[metadata.TargetPath]TargetDescription
	env        map[string]string
	byproducts map[string]string
}

// NewLinkMetadata creates a LinkMetadata for the step called name. Nil
// maps are stored as empty ones so the wire form is stable.
func NewLinkMetadata(
	name string,
	materials map[metadata.TargetPath]TargetDescription,
	products map[metadata.TargetPath]TargetDescription,
	env map[string]string,
	byproducts map[string]string,
) (*LinkMetadata, error) {
	if name == "" {
		return nil, intoto.IllegalArgumentError{Msg: "link metadata requires a step name"}
	}
	if materials == nil {
		materials = map[metadata.TargetPath]TargetDescription{}
	}
	if products == nil {
		products = map[metadata.TargetPath]TargetDescription{}
	}
	if env == nil {
		env = map[string]string{}
	}
	if byproducts == nil {
		byproducts = map[string]string{}
	}
	return &LinkMetadata{
		name:       name,
		materials:  materials,
		products:   products,
		env:        env,
		byproducts: byproducts,
	}, nil
}

// Version implements metadata.Metadata. Link documents predate versioned
// schemas and always report 0.
func (l LinkMetadata) Version() uint32 {
	return 0
}

// Name returns the name of the step this link describes.
func (l LinkMetadata) Name() string {
	return l.name
}

// Materials returns the artifacts the step consumed.
func (l LinkMetadata) Materials() map[metadata.TargetPath]TargetDescription {
	return l.materials
}

// Products returns the artifacts the step produced.
func (l LinkMetadata) Products() map[metadata.TargetPath]TargetDescription {
	return l.products
}

// Env returns the environment the step ran in.
func (l LinkMetadata) Env() map[string]string {
	return l.env
}

// Byproducts returns the step's byproducts, e.g. captured stdout.
func (l LinkMetadata) Byproducts() map[string]string {
	return l.byproducts
}

// Link is the wire shape of a link document.
type Link struct {
	Type       string                                    `json:"_type"`
	Name       string                                    `json:"name"`
	Materials  map[metadata.TargetPath]TargetDescription `json:"materials"`
	Products   map[metadata.TargetPath]TargetDescription `json:"products"`
	Env        map[string]string                         `json:"env"`
	Byproducts map[string]string                         `json:"byproducts"`
}

// NewLink converts a LinkMetadata into its wire shape.
func NewLink(meta *LinkMetadata) Link {
	return Link{
		Type:       LinkType,
		Name:       meta.name,
		Materials:  meta.materials,
		Products:   meta.products,
		Env:        meta.env,
		Byproducts: meta.byproducts,
	}
}

// ToMetadata converts the wire shape back into a LinkMetadata, rejecting
// documents not tagged as links.
func (l Link) ToMetadata() (*LinkMetadata, error) {
	if l.Type != LinkType {
		return nil, intoto.EncodingError{Msg: fmt.Sprintf("attempted to decode link metadata labeled as %q", l.Type)}
	}
	return NewLinkMetadata(l.Name, l.Materials, l.Products, l.Env, l.Byproducts)
}

// MarshalJSON implements json.Marshaler via the wire shape.
func (l LinkMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewLink(&l))
}

// UnmarshalJSON implements json.Unmarshaler via the wire shape,
// enforcing the "_type" tag.
func (l *LinkMetadata) UnmarshalJSON(data []byte) error {
	var wire Link
	if err := json.Unmarshal(data, &wire); err != nil {
		var encodingErr intoto.EncodingError
		if errors.As(err, &encodingErr) {
			return encodingErr
		}
		return intoto.EncodingError{Msg: "invalid link document: " + err.Error()}
	}
	meta, err := wire.ToMetadata()
	if err != nil {
		return err
	}
	*l = *meta
	return nil
}
