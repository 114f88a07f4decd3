package schema_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/schema"
)

func TestDocument_DecodeJSONAndYAML(t *testing.T) {
	want := map[string]any{
		"id":      "survey",
		"version": float64(1),
		"fields":  []any{map[string]any{"id": "name", "type": "string"}},
	}

	jsonDoc := schema.MustNewDocument(schema.SourceFromFile("survey.json"),
		[]byte(`{"id":"survey","version":1,"fields":[{"id":"name","type":"string"}]}`))
	got, err := jsonDoc.Decode()
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}

	yamlDoc := schema.MustNewDocument(schema.SourceFromFS("survey.yaml"), []byte(`
id: survey
version: 1
fields:
  - id: name
    type: string
`))
	if yamlDoc.Format() != schema.FormatYAML {
		t.Fatalf("expected yaml format, got %s", yamlDoc.Format())
	}
	got, err = yamlDoc.Decode()
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	want["version"] = 1
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("yaml mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_YAMLNonStringKeys(t *testing.T) {
	doc := schema.MustNewDocument(schema.SourceFromFile("answers.yml"), []byte("rank:\n  1: 40\n  2: 60\n"))
	got, err := doc.Answers()
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	want := map[string]any{"rank": map[string]any{"1": 40, "2": 60}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_AnswersMustBeObject(t *testing.T) {
	doc := schema.MustNewDocument(schema.SourceFromFile("answers"), []byte(`["a", "b"]`))
	_, err := doc.Answers()
	var formatErr *formerrors.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if got := formatErr.Messages[0].String(); got != "Expected answers to be a 'dictionary', got list instead" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestNewDocument_Validation(t *testing.T) {
	if _, err := schema.NewDocument(nil, []byte("{}")); err == nil {
		t.Fatal("expected error for nil source")
	}
	if _, err := schema.NewDocument(schema.SourceFromFile("x.json"), []byte("  \n")); err == nil {
		t.Fatal("expected error for blank payload")
	}
}

func TestParseSource(t *testing.T) {
	src, err := schema.ParseSource("https://forms.example.org/runway.json")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if src.Kind() != schema.SourceKindURL {
		t.Fatalf("expected url source, got %s", src.Kind())
	}

	src, err = schema.ParseSource("./testdata/../runway.yaml")
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if src.Kind() != schema.SourceKindFile || src.Location() != "runway.yaml" {
		t.Fatalf("unexpected source %s %s", src.Kind(), src.Location())
	}

	if _, err := schema.ParseSource(""); err == nil {
		t.Fatal("expected error for empty location")
	}
}

func TestFormatFromMediaType(t *testing.T) {
	tests := []struct {
		value  string
		want   schema.Format
		wantOK bool
	}{
		{value: "application/json", want: schema.FormatJSON, wantOK: true},
		{value: "application/schema+json; charset=utf-8", want: schema.FormatJSON, wantOK: true},
		{value: "application/yaml", want: schema.FormatYAML, wantOK: true},
		{value: "text/x-yaml", want: schema.FormatYAML, wantOK: true},
		{value: "text/plain; charset=utf-8"},
		{value: ""},
	}
	for _, tt := range tests {
		got, ok := schema.FormatFromMediaType(tt.value)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("FormatFromMediaType(%q) = %q, %v; want %q, %v", tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNewDocumentWithFormat(t *testing.T) {
	// a declared format beats the location extension
	doc, err := schema.NewDocumentWithFormat(schema.SourceFromURL("https://forms.example.org/survey.yaml"),
		[]byte(`{"id":"survey"}`), schema.FormatJSON)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if doc.Format() != schema.FormatJSON {
		t.Fatalf("expected json, got %s", doc.Format())
	}

	doc, err = schema.NewDocumentWithFormat(schema.SourceFromFile("survey"), []byte("id: survey\n"), "")
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if doc.Format() != schema.FormatYAML {
		t.Fatalf("expected detected yaml, got %s", doc.Format())
	}

	if _, err := schema.NewDocumentWithFormat(schema.SourceFromFile("survey.toml"), []byte("id = 1"), "toml"); err == nil {
		t.Fatal("expected error for an unknown format")
	}
}
