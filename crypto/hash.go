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

package crypto

import (
	"encoding/hex"

	"github.com/opencontainers/go-digest"

	intoto "github.com/alanssitis/in-toto-go"
)

// HashValue is the raw output of a cryptographic hash function.
type HashValue []byte

// NewHashValue computes the HashValue of content using the canonical
// digest algorithm.
func NewHashValue(content []byte) HashValue {
	return mustHashValue(digest.Canonical.FromBytes(content))
}

// NewHashValueFromDigest converts a validated digest into a HashValue.
func NewHashValueFromDigest(d digest.Digest) (HashValue, error) {
	if err := d.Validate(); err != nil {
		return nil, intoto.EncodingError{Msg: "invalid digest: " + err.Error()}
	}
	raw, err := hex.DecodeString(d.Encoded())
	if err != nil {
		return nil, intoto.EncodingError{Msg: "digest is not hex encoded: " + err.Error()}
	}
	return HashValue(raw), nil
}

func mustHashValue(d digest.Digest) HashValue {
	h, err := NewHashValueFromDigest(d)
	if err != nil {
		// digest.Canonical.FromBytes always yields a valid hex digest.
		panic(err)
	}
	return h
}

// String returns the lowercase hex encoding of the hash, short enough and
// free of separators so it can serve as a filename prefix.
func (h HashValue) String() string {
	return hex.EncodeToString(h)
}
