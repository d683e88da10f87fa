package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-webform/pkg/definition"
)

// LoadDocument reads a fixture and builds a definition.Document using a file
// source. Testing helpers fail the test on error to keep callers concise.
func LoadDocument(t *testing.T, path string) definition.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T, allowing
// callers to wire fixtures in setup functions.
func LoadDocumentFromPath(path string) (definition.Document, error) {
	if path == "" {
		return definition.Document{}, errors.New("testsupport: document path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return definition.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := definition.NewDocument(definition.SourceFromFile(path), data)
	if err != nil {
		return definition.Document{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc, nil
}

// MustLoadForm decodes a definition fixture.
func MustLoadForm(t *testing.T, path string) *definition.Form {
	t.Helper()

	form, err := definition.DecodeDocument(LoadDocument(t, path))
	if err != nil {
		t.Fatalf("decode form: %v", err)
	}
	return form
}

// MustDecodeForm decodes an inline YAML or JSON definition.
func MustDecodeForm(t *testing.T, src string) *definition.Form {
	t.Helper()

	form, err := definition.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode form: %v", err)
	}
	return form
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// CompareGoldenJSON compacts both payloads and returns a diff string if they
// differ, so golden files may be indented freely.
func CompareGoldenJSON(want, got []byte) (string, error) {
	var wantBuf, gotBuf bytes.Buffer
	if err := json.Compact(&wantBuf, bytes.TrimSpace(want)); err != nil {
		return "", fmt.Errorf("testsupport: compact golden: %w", err)
	}
	if err := json.Compact(&gotBuf, bytes.TrimSpace(got)); err != nil {
		return "", fmt.Errorf("testsupport: compact output: %w", err)
	}
	return cmp.Diff(wantBuf.String(), gotBuf.String()), nil
}

// AssertGoldenJSON compares got against the golden file at path, rewriting
// the golden instead when UPDATE_GOLDENS is set.
func AssertGoldenJSON(t *testing.T, path string, got []byte) {
	t.Helper()

	if WriteMaybeGolden(t, path, got) {
		return
	}
	diff, err := CompareGoldenJSON(MustReadGolden(t, path), got)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if diff != "" {
		t.Fatalf("golden mismatch %s (-want +got):\n%s", path, diff)
	}
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
