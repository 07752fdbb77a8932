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

// Package metadata is the trust boundary of in-toto-go: a container for
// signed metadata documents and the threshold signature verification that
// decides whether a document is trustworthy.
//
// The container types are generic over two compile-time tags: a
// interchange.DataInterchange codec D and a document schema M. The tags
// carry no runtime data beyond the codec's stateless zero value; they
// record statically which deserializer a byte buffer is expected to
// conform to.
//
// Data flows raw bytes -> RawSignedMetadata.Parse -> SignedMetadata
// (unverified) -> SignedMetadata.Verify -> trusted document. Construction
// flows document -> SignedMetadataBuilder -> Sign -> Build ->
// SignedMetadata -> ToRaw -> bytes. No value is mutated in place after
// construction, so every parsed or built value is safe to share across
// concurrent verifications.
package metadata

import (
	"context"
	"fmt"
	"sort"

	intoto "github.com/alanssitis/in-toto-go"
	"github.com/alanssitis/in-toto-go/crypto"
	"github.com/alanssitis/in-toto-go/interchange"
	"github.com/alanssitis/in-toto-go/internal/container"
	"github.com/alanssitis/in-toto-go/log"
)

// Metadata is implemented by versioned document types eligible for
// signing. Implementations must (de)serialize through the codec they are
// signed under; the value receiver form is required so a zero value of
// the implementing type can be deserialized into.
type Metadata interface {
	// Version returns the version number of the document.
	Version() uint32
}

// RawSignedMetadata is an unparsed, untrusted byte buffer expected to
// hold a signed metadata document of schema M in format D. It performs no
// validation until Parse is called.
type RawSignedMetadata[D interchange.DataInterchange, M Metadata] struct {
	bytes []byte
}

// NewRawSignedMetadata creates a RawSignedMetadata holding a copy of the
// provided bytes. The bytes may come from an untrusted source; nothing is
// trusted until Verify succeeds on the parsed form.
func NewRawSignedMetadata[D interchange.DataInterchange, M Metadata](data []byte) *RawSignedMetadata[D, M] {
	return &RawSignedMetadata[D, M]{bytes: append([]byte(nil), data...)}
}

// Bytes returns the raw bytes of this metadata.
func (r *RawSignedMetadata[D, M]) Bytes() []byte {
	return append([]byte(nil), r.bytes...)
}

// Parse decodes the buffer into a SignedMetadata. It checks only that the
// bytes are well-formed under the expected format; no signature is
// verified.
func (r *RawSignedMetadata[D, M]) Parse() (*SignedMetadata[D, M], error) {
	var codec D
	var wire signedWire
	if err := codec.Deserialize(interchange.RawData(r.bytes), &wire); err != nil {
		return nil, err
	}
	if wire.Signatures == nil {
		return nil, intoto.EncodingError{Msg: "signed metadata is missing the signatures field"}
	}
	if wire.Signed == nil {
		return nil, intoto.EncodingError{Msg: "signed metadata is missing the signed field"}
	}
	return &SignedMetadata[D, M]{
		signatures: wire.Signatures,
		metadata:   wire.Signed,
	}, nil
}

// SignedMetadataBuilder accumulates signatures over one fixed canonical
// payload. The canonical bytes are computed once, at construction, from a
// payload whose parseability was already confirmed; every Sign call signs
// exactly those bytes, so the signed bytes and the logical document
// cannot drift apart between signing calls.
type SignedMetadataBuilder[D interchange.DataInterchange, M Metadata] struct {
	signatures    map[crypto.KeyID]crypto.Signature
	metadata      interchange.RawData
	metadataBytes []byte
}

// NewSignedMetadataBuilder creates a builder from a document by
// serializing it through the codec.
func NewSignedMetadataBuilder[D interchange.DataInterchange, M Metadata](m M) (*SignedMetadataBuilder[D, M], error) {
	var codec D
	raw, err := codec.Serialize(m)
	if err != nil {
		return nil, err
	}
	return NewSignedMetadataBuilderFromRaw[D, M](raw)
}

// NewSignedMetadataBuilderFromRaw creates a builder from manually
// serialized metadata to be signed. It fails with an encoding error if
// raw does not parse as a document of schema M.
func NewSignedMetadataBuilderFromRaw[D interchange.DataInterchange, M Metadata](raw interchange.RawData) (*SignedMetadataBuilder[D, M], error) {
	var codec D

	// Deserialize purely to confirm the payload decodes to the claimed
	// schema. The decoded value is discarded.
	var ensureParses M
	if err := codec.Deserialize(raw, &ensureParses); err != nil {
		return nil, err
	}

	metadataBytes, err := codec.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	return &SignedMetadataBuilder[D, M]{
		signatures:    make(map[crypto.KeyID]crypto.Signature),
		metadata:      raw,
		metadataBytes: metadataBytes,
	}, nil
}

// Sign signs the stored canonical bytes with privateKey, replacing any
// existing signature with the same KeyID, and returns the builder for
// chaining.
//
// Appending several signatures through one builder means several private
// keys live on the same machine, which is rarely what you want. The
// preferred flow is to build and sign a local copy of the metadata and
// combine copies with SignedMetadata.MergeSignatures.
func (b *SignedMetadataBuilder[D, M]) Sign(privateKey *crypto.PrivateKey) (*SignedMetadataBuilder[D, M], error) {
	sig, err := privateKey.Sign(b.metadataBytes)
	if err != nil {
		return nil, err
	}
	b.signatures[sig.KeyID()] = *sig
	return b, nil
}

// Build produces the SignedMetadata holding the accumulated signatures,
// sorted ascending by KeyID for deterministic serialization. The builder
// must not be used afterwards.
func (b *SignedMetadataBuilder[D, M]) Build() *SignedMetadata[D, M] {
	signatures := make([]crypto.Signature, 0, len(b.signatures))
	for _, sig := range b.signatures {
		signatures = append(signatures, sig)
	}
	sort.Slice(signatures, func(i, j int) bool {
		return signatures[i].KeyID() < signatures[j].KeyID()
	})

	return &SignedMetadata[D, M]{
		signatures: signatures,
		metadata:   b.metadata,
	}
}

// signedWire is the persisted shape of signed metadata. The field names
// are a fixed wire contract shared across in-toto and TUF
// implementations.
type signedWire struct {
	Signatures []crypto.Signature  `json:"signatures"`
	Signed     interchange.RawData `json:"signed"`
}

// SignedMetadata is a parsed metadata document with attached, unverified
// signatures. The type guarantees that every signature was computed over
// the canonical bytes of the stored document by some key; whether those
// keys are authorized is established only by Verify.
type SignedMetadata[D interchange.DataInterchange, M Metadata] struct {
	signatures []crypto.Signature
	metadata   interchange.RawData
}

// NewSignedMetadata serializes metadata and signs its canonical bytes
// with privateKey, producing a SignedMetadata carrying that single
// signature.
func NewSignedMetadata[D interchange.DataInterchange, M Metadata](m M, privateKey *crypto.PrivateKey) (*SignedMetadata[D, M], error) {
	builder, err := NewSignedMetadataBuilder[D, M](m)
	if err != nil {
		return nil, err
	}
	builder, err = builder.Sign(privateKey)
	if err != nil {
		return nil, err
	}
	return builder.Build(), nil
}

// Signatures returns the signatures attached to this metadata.
func (s *SignedMetadata[D, M]) Signatures() []crypto.Signature {
	return append([]crypto.Signature(nil), s.signatures...)
}

// AssumeValid parses the document without verifying any signature.
//
// This is an escape hatch for contexts that established trust by other
// means. It is not safe to call on metadata obtained from an untrusted
// source.
func (s *SignedMetadata[D, M]) AssumeValid() (M, error) {
	var codec D
	var m M
	if err := codec.Deserialize(s.metadata, &m); err != nil {
		var zero M
		return zero, err
	}
	return m, nil
}

// MergeSignatures merges the signatures from other into s. It fails with
// an illegal argument error unless both documents hold byte-for-byte
// identical payloads. On collision of a KeyID present in both documents,
// the signature already in s is kept.
//
// Merged signatures are appended after s's existing ones without
// re-sorting, so the ascending KeyID order established by Build is not
// preserved across merges. Verify does not depend on signature order;
// only byte-for-byte reproducibility of ToRaw output is affected.
func (s *SignedMetadata[D, M]) MergeSignatures(other *SignedMetadata[D, M]) error {
	if !s.metadata.Equal(other.metadata) {
		return intoto.IllegalArgumentError{Msg: "attempted to merge unequal metadata"}
	}

	keyIDs := container.NewSet[crypto.KeyID]()
	for _, sig := range s.signatures {
		keyIDs.Add(sig.KeyID())
	}

	for _, sig := range other.signatures {
		if keyIDs.Contains(sig.KeyID()) {
			continue
		}
		s.signatures = append(s.signatures, sig)
	}
	return nil
}

// Verify checks that at least threshold distinct authorized keys have
// validly signed the canonical bytes of this document, and on success
// parses and returns the now-trusted document.
//
// Signatures from keys outside authorizedKeys and signatures that fail
// cryptographic verification are reported as warnings through the
// context logger (see the log package) and skipped; by themselves they
// never fail the call. Only an unmet threshold does. Duplicate
// authorizedKeys entries for one KeyID collapse to the last one supplied,
// and duplicate signature entries for one key contribute at most one unit
// of threshold credit. Scanning stops as soon as the threshold is met, so
// with more than threshold valid signatures not all of them are checked.
//
// The result depends only on the set of distinct, authorized,
// cryptographically valid signatures, never on scan order. Verify does
// not mutate s and may be called concurrently with any other read.
func (s *SignedMetadata[D, M]) Verify(ctx context.Context, threshold uint32, authorizedKeys []*crypto.PublicKey) (M, error) {
	logger := log.GetLogger(ctx)
	var zero M

	if len(s.signatures) == 0 {
		return zero, intoto.VerificationFailedError{Msg: "the metadata was not signed with any authorized keys"}
	}
	if threshold < 1 {
		return zero, intoto.VerificationFailedError{Msg: "threshold must be strictly greater than zero"}
	}

	authorized := make(map[crypto.KeyID]*crypto.PublicKey, len(authorizedKeys))
	for _, key := range authorizedKeys {
		authorized[key.KeyID()] = key
	}

	var codec D
	canonicalBytes, err := codec.Canonicalize(s.metadata)
	if err != nil {
		return zero, err
	}

	// Deduplicate by KeyID so a single key contributes at most one unit
	// of threshold credit regardless of how many signature entries exist
	// for it.
	signatures := make(map[crypto.KeyID]crypto.Signature, len(s.signatures))
	for _, sig := range s.signatures {
		signatures[sig.KeyID()] = sig
	}

	signaturesNeeded := threshold
	for keyID, sig := range signatures {
		publicKey, ok := authorized[keyID]
		if !ok {
			logger.Warnf("key ID %s was not found in the set of authorized keys", keyID)
			continue
		}
		if err := publicKey.Verify(canonicalBytes, &sig); err != nil {
			logger.Warnf("bad signature from key ID %s: %v", keyID, err)
			continue
		}
		logger.Debugf("good signature from key ID %s", keyID)
		signaturesNeeded--
		if signaturesNeeded == 0 {
			break
		}
	}
	if signaturesNeeded > 0 {
		return zero, intoto.VerificationFailedError{
			Msg: fmt.Sprintf("signature threshold not met: %d/%d", threshold-signaturesNeeded, threshold),
		}
	}

	// The canonical payload is now trusted; parsing it re-validates
	// structure only.
	return s.AssumeValid()
}

// ToRaw re-serializes this metadata, canonicalized, into a new
// RawSignedMetadata.
//
// The output is only suitable for metadata this process itself produced.
// Parsing drops unknown fields and does not preserve the whitespace or
// field order of externally obtained input, so these bytes are not
// guaranteed to reproduce, or hash like, the original remote form.
func (s *SignedMetadata[D, M]) ToRaw() (*RawSignedMetadata[D, M], error) {
	var codec D
	raw, err := codec.Serialize(signedWire{
		Signatures: s.signatures,
		Signed:     s.metadata,
	})
	if err != nil {
		return nil, err
	}
	canonical, err := codec.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	return NewRawSignedMetadata[D, M](canonical), nil
}
