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
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	intoto "github.com/alanssitis/in-toto-go"
)

// PublicKey is a verification key together with its derived KeyID.
// PublicKey values are immutable and safe for concurrent use.
type PublicKey struct {
	keyType string
	scheme  SignatureScheme
	value   []byte
	keyID   KeyID
	key     crypto.PublicKey
}

// NewEd25519PublicKey creates a PublicKey from raw Ed25519 public key
// bytes.
func NewEd25519PublicKey(raw []byte) (*PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, intoto.EncodingError{Msg: fmt.Sprintf("invalid ed25519 public key length: %d", len(raw))}
	}
	value := append([]byte(nil), raw...)
	keyID, err := calculateKeyID(KeyTypeEd25519, SchemeEd25519, value)
	if err != nil {
		return nil, err
	}
	return &PublicKey{
		keyType: KeyTypeEd25519,
		scheme:  SchemeEd25519,
		value:   value,
		keyID:   keyID,
		key:     ed25519.PublicKey(value),
	}, nil
}

// NewEcdsaP256PublicKey creates a PublicKey from a PKIX, ASN.1 DER
// encoded ECDSA public key on the NIST P-256 curve.
func NewEcdsaP256PublicKey(raw []byte) (*PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(raw)
	if err != nil {
		return nil, intoto.EncodingError{Msg: "invalid PKIX public key: " + err.Error()}
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, intoto.EncodingError{Msg: fmt.Sprintf("unexpected public key type: %T", parsed)}
	}
	if key.Curve != elliptic.P256() {
		return nil, intoto.EncodingError{Msg: fmt.Sprintf("unsupported ECDSA curve: %s", key.Curve.Params().Name)}
	}
	value := append([]byte(nil), raw...)
	keyID, err := calculateKeyID(KeyTypeEcdsa, SchemeEcdsaP256, value)
	if err != nil {
		return nil, err
	}
	return &PublicKey{
		keyType: KeyTypeEcdsa,
		scheme:  SchemeEcdsaP256,
		value:   value,
		keyID:   keyID,
		key:     key,
	}, nil
}

// KeyID returns the identifier derived from this key.
func (k *PublicKey) KeyID() KeyID {
	return k.keyID
}

// KeyType returns the key type identifier, e.g. "ed25519".
func (k *PublicKey) KeyType() string {
	return k.keyType
}

// Scheme returns the signature scheme this key verifies.
func (k *PublicKey) Scheme() SignatureScheme {
	return k.scheme
}

// Value returns the raw public key material.
func (k *PublicKey) Value() []byte {
	return append([]byte(nil), k.value...)
}

// Verify checks that sig is a valid signature by this key over message.
func (k *PublicKey) Verify(message []byte, sig *Signature) error {
	switch k.scheme {
	case SchemeEd25519:
		key, ok := k.key.(ed25519.PublicKey)
		if !ok {
			return intoto.IllegalArgumentError{Msg: fmt.Sprintf("key material does not match scheme %q", k.scheme)}
		}
		if !ed25519.Verify(key, message, sig.value) {
			return intoto.VerificationFailedError{Msg: "the ed25519 signature did not verify"}
		}
	case SchemeEcdsaP256:
		key, ok := k.key.(*ecdsa.PublicKey)
		if !ok {
			return intoto.IllegalArgumentError{Msg: fmt.Sprintf("key material does not match scheme %q", k.scheme)}
		}
		digest := sha256.Sum256(message)
		if !ecdsa.VerifyASN1(key, digest[:], sig.value) {
			return intoto.VerificationFailedError{Msg: "the ECDSA signature did not verify"}
		}
	default:
		return intoto.IllegalArgumentError{Msg: fmt.Sprintf("unsupported signature scheme: %q", k.scheme)}
	}
	return nil
}

// PrivateKey is a signing key. The zero value is unusable; construct one
// with the Generate or Parse functions.
type PrivateKey struct {
	public *PublicKey
	signer crypto.Signer
}

// GenerateEd25519Key generates a new Ed25519 signing key.
func GenerateEd25519Key() (*PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newEd25519PrivateKey(key)
}

// GenerateEcdsaP256Key generates a new ECDSA signing key on NIST P-256.
func GenerateEcdsaP256Key() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return newEcdsaPrivateKey(key)
}

func newEd25519PrivateKey(key ed25519.PrivateKey) (*PrivateKey, error) {
	public, err := NewEd25519PublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &PrivateKey{public: public, signer: key}, nil
}

func newEcdsaPrivateKey(key *ecdsa.PrivateKey) (*PrivateKey, error) {
	raw, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, intoto.EncodingError{Msg: "ECDSA public key could not be encoded: " + err.Error()}
	}
	public, err := NewEcdsaP256PublicKey(raw)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{public: public, signer: key}, nil
}

// ReadPrivateKeyFile reads a key PEM file as a signing key.
func ReadPrivateKeyFile(path string) (*PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKeyPEM(data)
}

// ParsePrivateKeyPEM parses a PEM as a signing key.
func ParsePrivateKeyPEM(data []byte) (*PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, intoto.EncodingError{Msg: "no PEM data found"}
	}
	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, intoto.EncodingError{Msg: "invalid PKCS #8 private key: " + err.Error()}
		}
		switch key := key.(type) {
		case ed25519.PrivateKey:
			return newEd25519PrivateKey(key)
		case *ecdsa.PrivateKey:
			return newEcdsaPrivateKey(key)
		default:
			return nil, intoto.EncodingError{Msg: fmt.Sprintf("unsupported private key type: %T", key)}
		}
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, intoto.EncodingError{Msg: "invalid EC private key: " + err.Error()}
		}
		return newEcdsaPrivateKey(key)
	}
	return nil, intoto.EncodingError{Msg: fmt.Sprintf("unsupported PEM block type: %s", block.Type)}
}

// Public returns the verification half of this key.
func (k *PrivateKey) Public() *PublicKey {
	return k.public
}

// KeyID returns the identifier of this key.
func (k *PrivateKey) KeyID() KeyID {
	return k.public.keyID
}

// Sign signs message with this key and returns the resulting Signature.
func (k *PrivateKey) Sign(message []byte) (*Signature, error) {
	var sig []byte
	var err error
	switch k.public.scheme {
	case SchemeEd25519:
		sig, err = k.signer.Sign(rand.Reader, message, crypto.Hash(0))
	case SchemeEcdsaP256:
		digest := sha256.Sum256(message)
		sig, err = k.signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	default:
		return nil, intoto.IllegalArgumentError{Msg: fmt.Sprintf("unsupported signature scheme: %q", k.public.scheme)}
	}
	if err != nil {
		return nil, err
	}
	return &Signature{keyID: k.public.keyID, value: sig}, nil
}
