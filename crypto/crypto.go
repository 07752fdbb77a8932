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

// Package crypto supplies the cryptographic types the metadata container
// is built on: key identifiers, public and private keys, signatures and
// hash values. Signing and verification are always performed over the
// canonical byte form of a document produced by a
// interchange.DataInterchange.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/secure-systems-lab/go-securesystemslib/cjson"

	intoto "github.com/alanssitis/in-toto-go"
)

// SignatureScheme identifies how a signature was produced.
type SignatureScheme string

const (
	// SchemeEd25519 is Ed25519 over the full message.
	SchemeEd25519 SignatureScheme = "ed25519"

	// SchemeEcdsaP256 is ECDSA on NIST P-256 over the SHA-256 digest of
	// the message, with an ASN.1 DER encoded signature.
	SchemeEcdsaP256 SignatureScheme = "ecdsa-sha2-nistp256"
)

// Key type identifiers used in the public key wire representation.
const (
	KeyTypeEd25519 = "ed25519"
	KeyTypeEcdsa   = "ecdsa"
)

// KeyID is a stable identifier for a key: the lowercase hex encoded
// SHA-256 of the canonical JSON form of the public key wire
// representation. KeyIDs order and compare as plain strings and are
// usable as map keys.
type KeyID string

func (k KeyID) String() string {
	return string(k)
}

// keyValue is the "keyval" object of the public key wire representation.
type keyValue struct {
	Public string `json:"public"`
}

// keyWire is the public key representation the KeyID is computed over.
type keyWire struct {
	KeyType string   `json:"keytype"`
	Scheme  string   `json:"scheme"`
	KeyVal  keyValue `json:"keyval"`
}

// calculateKeyID derives the KeyID for a public key. Logically equal keys
// always derive the same KeyID because the wire representation is
// canonicalized before hashing.
func calculateKeyID(keyType string, scheme SignatureScheme, public []byte) (KeyID, error) {
	wire := keyWire{
		KeyType: keyType,
		Scheme:  string(scheme),
		KeyVal:  keyValue{Public: hex.EncodeToString(public)},
	}
	canonical, err := cjson.EncodeCanonical(wire)
	if err != nil {
		return "", intoto.EncodingError{Msg: "public key could not be canonicalized: " + err.Error()}
	}
	digest := sha256.Sum256(canonical)
	return KeyID(hex.EncodeToString(digest[:])), nil
}
