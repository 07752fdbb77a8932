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
	"encoding/json"

	intoto "github.com/alanssitis/in-toto-go"
)

// Signature pairs the identifier of the key that produced it with the
// opaque signature bytes. Two signatures from the same key are considered
// interchangeable for threshold counting, so collections deduplicate by
// KeyID.
type Signature struct {
	keyID KeyID
	value []byte
}

// NewSignature creates a Signature from a key identifier and raw
// signature bytes.
func NewSignature(keyID KeyID, value []byte) Signature {
	return Signature{keyID: keyID, value: append([]byte(nil), value...)}
}

// KeyID returns the identifier of the key that produced this signature.
func (s Signature) KeyID() KeyID {
	return s.keyID
}

// Value returns the raw signature bytes.
func (s Signature) Value() []byte {
	return append([]byte(nil), s.value...)
}

// signatureWire is the persisted shape of a signature. The signature
// bytes travel hex encoded in the "sig" field.
type signatureWire struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// MarshalJSON implements json.Marshaler.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureWire{
		KeyID: string(s.keyID),
		Sig:   hex.EncodeToString(s.value),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var wire signatureWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return intoto.EncodingError{Msg: "invalid signature object: " + err.Error()}
	}
	if wire.KeyID == "" {
		return intoto.EncodingError{Msg: "signature object is missing the keyid field"}
	}
	value, err := hex.DecodeString(wire.Sig)
	if err != nil {
		return intoto.EncodingError{Msg: "signature bytes are not valid hex: " + err.Error()}
	}
	s.keyID = KeyID(wire.KeyID)
	s.value = value
	return nil
}
