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

// Package intoto defines the error taxonomy shared by the in-toto-go
// packages. All failures are reported through these structured errors,
// never through panics, since this library routinely processes
// untrusted bytes.
package intoto

// EncodingError is used when data cannot be decoded or encoded against
// its declared format or schema: a malformed path, malformed raw
// metadata bytes, or a document that fails to parse.
type EncodingError struct {
	Msg string
}

func (e EncodingError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "data could not be encoded or decoded"
}

// IllegalArgumentError is used when an operation was invoked with
// structurally incompatible inputs, e.g. merging signatures of two
// documents that do not agree on the signed content.
type IllegalArgumentError struct {
	Msg string
}

func (e IllegalArgumentError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "illegal argument"
}

// VerificationFailedError is used when it is determined that the
// signatures attached to a metadata document do not satisfy the
// requested signature threshold.
type VerificationFailedError struct {
	Msg string
}

func (e VerificationFailedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "signature verification failed"
}
