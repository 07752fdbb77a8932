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

package link

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"

	intoto "github.com/alanssitis/in-toto-go"
	"github.com/alanssitis/in-toto-go/crypto"
	"github.com/alanssitis/in-toto-go/interchange"
	"github.com/alanssitis/in-toto-go/metadata"
)

func mustTargetPath(t *testing.T, path string) metadata.TargetPath {
	t.Helper()
	p, err := metadata.NewTargetPath(path)
	if err != nil {
		t.Fatalf("NewTargetPath(%q) failed: %v", path, err)
	}
	return p
}

func TestLinkMetadataJSONRoundTrip(t *testing.T) {
	meta, err := NewLinkMetadata(
		"build",
		nil,
		map[metadata.TargetPath]TargetDescription{
			mustTargetPath(t, "out.bin"): {"sha256": "abc"},
		},
		map[string]string{"GOOS": "linux"},
		map[string]string{"stdout": "ok"},
	)
	if err != nil {
		t.Fatalf("NewLinkMetadata() failed: %v", err)
	}

	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal link failed: %v", err)
	}
	if !strings.Contains(string(data), `"_type":"link"`) {
		t.Errorf("marshaled link %s is missing the _type tag", data)
	}

	var parsed LinkMetadata
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal link failed: %v", err)
	}
	if !reflect.DeepEqual(parsed, *meta) {
		t.Errorf("round-tripped link = %+v, want %+v", parsed, *meta)
	}
}

func TestLinkMetadataRejectsWrongType(t *testing.T) {
	var parsed LinkMetadata
	err := json.Unmarshal([]byte(`{"_type":"layout","name":"build"}`), &parsed)
	var encodingErr intoto.EncodingError
	if !errors.As(err, &encodingErr) {
		t.Errorf("unmarshal mislabeled document = %v, want EncodingError", err)
	}
}

func TestNewLinkMetadataRequiresName(t *testing.T) {
	_, err := NewLinkMetadata("", nil, nil, nil, nil)
	var illegalErr intoto.IllegalArgumentError
	if !errors.As(err, &illegalErr) {
		t.Errorf("NewLinkMetadata(\"\") = %v, want IllegalArgumentError", err)
	}
}

func TestNewTargetDescription(t *testing.T) {
	content := []byte("artifact content")
	description := NewTargetDescription(content)

	want := digest.Canonical.FromBytes(content)
	if description[string(want.Algorithm())] != want.Encoded() {
		t.Errorf("NewTargetDescription() = %v, want %s:%s", description, want.Algorithm(), want.Encoded())
	}
}

func TestRecordArtifacts(t *testing.T) {
	tempRoot := t.TempDir()
	content := []byte("built binary")
	if err := os.WriteFile(filepath.Join(tempRoot, "out.bin"), content, 0600); err != nil {
		t.Fatalf("write artifact failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(tempRoot); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	defer os.Chdir(wd)

	artifacts, err := RecordArtifacts([]string{"out.bin"})
	if err != nil {
		t.Fatalf("RecordArtifacts() failed: %v", err)
	}
	want := digest.Canonical.FromBytes(content)
	got := artifacts[mustTargetPath(t, "out.bin")]
	if got[string(want.Algorithm())] != want.Encoded() {
		t.Errorf("recorded artifact = %v, want %s:%s", got, want.Algorithm(), want.Encoded())
	}

	// Paths that escape the target directory are rejected.
	if _, err := RecordArtifacts([]string{"../out.bin"}); err == nil {
		t.Error("RecordArtifacts() accepted a parent directory component")
	}
}

// TestSignMergeVerifyFlow walks the full distribution flow: one party
// signs a link document, a second party signs its own copy, the
// signatures are merged, and only then is a 2-key threshold met.
func TestSignMergeVerifyFlow(t *testing.T) {
	doc, err := NewLinkMetadata(
		"build",
		nil,
		map[metadata.TargetPath]TargetDescription{
			mustTargetPath(t, "out.bin"): {"sha256": "abc"},
		},
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("NewLinkMetadata() failed: %v", err)
	}

	k1, err := crypto.GenerateEd25519Key()
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}
	k2, err := crypto.GenerateEd25519Key()
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}
	authorized := []*crypto.PublicKey{k1.Public(), k2.Public()}

	signed, err := metadata.NewSignedMetadata[interchange.JSON, LinkMetadata](*doc, k1)
	if err != nil {
		t.Fatalf("NewSignedMetadata() failed: %v", err)
	}

	// One signature cannot meet a threshold of two.
	_, err = signed.Verify(context.Background(), 2, authorized)
	var verificationErr intoto.VerificationFailedError
	if !errors.As(err, &verificationErr) {
		t.Fatalf("Verify() = %v, want VerificationFailedError", err)
	}
	if !strings.Contains(err.Error(), "1/2") {
		t.Errorf("Verify() error %q does not report 1/2", err)
	}

	// The second party signs its own copy of the same document.
	other, err := metadata.NewSignedMetadata[interchange.JSON, LinkMetadata](*doc, k2)
	if err != nil {
		t.Fatalf("NewSignedMetadata() failed: %v", err)
	}
	if err := signed.MergeSignatures(other); err != nil {
		t.Fatalf("MergeSignatures() failed: %v", err)
	}

	got, err := signed.Verify(context.Background(), 2, authorized)
	if err != nil {
		t.Fatalf("Verify() after merge failed: %v", err)
	}
	if !reflect.DeepEqual(got, *doc) {
		t.Errorf("Verify() returned %+v, want %+v", got, *doc)
	}
}
