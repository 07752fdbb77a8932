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

package interchange

import (
	"encoding/json"
	"errors"

	"github.com/secure-systems-lab/go-securesystemslib/cjson"

	intoto "github.com/alanssitis/in-toto-go"
)

// JSON is the canonical JSON data interchange format. Canonical bytes
// follow the OLPC canonical JSON rules via
// github.com/secure-systems-lab/go-securesystemslib/cjson, matching what
// the wider TUF and in-toto ecosystem signs.
type JSON struct{}

// Extension implements DataInterchange.
func (JSON) Extension() string {
	return "json"
}

// Serialize implements DataInterchange.
func (JSON) Serialize(v any) (RawData, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, intoto.EncodingError{Msg: "document could not be serialized: " + err.Error()}
	}
	return RawData(data), nil
}

// Deserialize implements DataInterchange.
func (JSON) Deserialize(raw RawData, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		var encodingErr intoto.EncodingError
		if errors.As(err, &encodingErr) {
			return encodingErr
		}
		return intoto.EncodingError{Msg: "document could not be deserialized: " + err.Error()}
	}
	return nil
}

// Canonicalize implements DataInterchange.
func (JSON) Canonicalize(raw RawData) ([]byte, error) {
	return canonicalJSON(raw)
}

// PrettyJSON serializes with indentation for human consumption. Its
// canonical bytes are identical to JSON's, so documents written by one
// codec verify under the other.
type PrettyJSON struct{}

// Extension implements DataInterchange.
func (PrettyJSON) Extension() string {
	return "json"
}

// Serialize implements DataInterchange.
func (PrettyJSON) Serialize(v any) (RawData, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, intoto.EncodingError{Msg: "document could not be serialized: " + err.Error()}
	}
	return RawData(data), nil
}

// Deserialize implements DataInterchange.
func (PrettyJSON) Deserialize(raw RawData, v any) error {
	return JSON{}.Deserialize(raw, v)
}

// Canonicalize implements DataInterchange.
func (PrettyJSON) Canonicalize(raw RawData) ([]byte, error) {
	return canonicalJSON(raw)
}

func canonicalJSON(raw RawData) ([]byte, error) {
	// Decode first so malformed input surfaces as an encoding error
	// rather than an opaque canonicalization failure.
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, intoto.EncodingError{Msg: "data is not well-formed JSON: " + err.Error()}
	}
	canonical, err := cjson.EncodeCanonical(v)
	if err != nil {
		return nil, intoto.EncodingError{Msg: "data could not be canonicalized: " + err.Error()}
	}
	return canonical, nil
}
