// Package testsupport loads the shared schema and answer fixtures used across
// package tests, and manages golden files.
package testsupport

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/schema"
)

// Fixture names shipped with the package.
const (
	RunwayInspection = "runway_inspection.json"
	RunwayAnswers    = "runway_answers.json"
	ApronCheck       = "apron_check.yaml"
)

//go:embed testdata
var fixtures embed.FS

// Fixtures exposes the embedded fixtures rooted at testdata.
func Fixtures() fs.FS {
	sub, err := fs.Sub(fixtures, "testdata")
	if err != nil {
		panic(err)
	}
	return sub
}

// LoadFixture decodes an embedded JSON or YAML fixture.
func LoadFixture(name string) (any, error) {
	if name == "" {
		return nil, errors.New("testsupport: fixture name is required")
	}
	data, err := fs.ReadFile(fixtures, path.Join("testdata", name))
	if err != nil {
		return nil, fmt.Errorf("testsupport: read fixture: %w", err)
	}
	doc, err := schema.NewDocument(schema.SourceFromFS(name), data)
	if err != nil {
		return nil, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc.Decode()
}

// LoadSchema returns a fresh copy of a schema fixture. Tests may mutate it.
func LoadSchema(t *testing.T, name string) map[string]any {
	t.Helper()

	raw, err := LoadFixture(name)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	out, ok := raw.(map[string]any)
	if !ok {
		t.Fatalf("load schema: %s is a %T", name, raw)
	}
	return out
}

// LoadAnswers returns a fresh copy of an answers fixture.
func LoadAnswers(t *testing.T, name string) map[string]any {
	t.Helper()
	return LoadSchema(t, name)
}

// MustLoadForm compiles a schema fixture and fails the test when the schema
// is not valid.
func MustLoadForm(t *testing.T, name string, opts ...form.Option) *form.Form {
	t.Helper()

	f, err := form.Parse(LoadSchema(t, name), opts...)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return f
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
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

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
