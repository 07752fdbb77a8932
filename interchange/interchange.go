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

// Package interchange defines the serialization contract metadata
// containers are generic over, and provides its JSON implementations.
package interchange

import "bytes"

// RawData is a serialized document fragment in a codec's native format.
// It is carried through envelope (un)marshaling verbatim, so a parsed
// document keeps the exact bytes of its "signed" portion.
type RawData []byte

// MarshalJSON implements json.Marshaler by emitting the fragment as-is.
func (r RawData) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON implements json.Unmarshaler by capturing the raw bytes of
// the fragment without reparsing them.
func (r *RawData) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Equal reports whether two fragments are byte-for-byte identical. This
// is deliberately stricter than canonical equality: two fragments that
// canonicalize identically but differ in formatting are not Equal.
func (r RawData) Equal(other RawData) bool {
	return bytes.Equal(r, other)
}

// DataInterchange is the codec capability a metadata container is
// parameterized over. Implementations must be stateless value types, so a
// zero value of the implementing type is a usable codec.
//
// Canonicalize must be deterministic: logically equal fragments must
// canonicalize to identical byte sequences regardless of incidental
// formatting (whitespace, key order) present in externally obtained
// input.
type DataInterchange interface {
	// Extension returns the file extension for this format, without the
	// leading dot.
	Extension() string

	// Serialize encodes a document into this codec's raw format.
	Serialize(v any) (RawData, error)

	// Deserialize decodes a raw fragment into v.
	Deserialize(raw RawData, v any) error

	// Canonicalize produces the deterministic byte form of a raw
	// fragment. Signatures are always computed over these bytes.
	Canonicalize(raw RawData) ([]byte, error)
}
