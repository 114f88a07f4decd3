package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
)

// Format is the encoding of a document payload.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromExtension maps the .json, .yaml and .yml extensions of name to
// their Format.
func FormatFromExtension(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// FormatFromMediaType maps a Content-Type value to a Format. Structured
// syntax suffixes such as application/schema+json are recognised.
func FormatFromMediaType(value string) (Format, bool) {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return "", false
	}
	switch {
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return FormatJSON, true
	case mediaType == "application/yaml", mediaType == "application/x-yaml",
		mediaType == "text/yaml", mediaType == "text/x-yaml", strings.HasSuffix(mediaType, "+yaml"):
		return FormatYAML, true
	}
	return "", false
}

// Document wraps a raw schema or answers payload and its origin.
type Document struct {
	source Source
	raw    []byte
	format Format
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// NewDocumentWithFormat is NewDocument for payloads whose transport declared
// their encoding. An empty format falls back to detection.
func NewDocumentWithFormat(src Source, raw []byte, format Format) (Document, error) {
	doc, err := NewDocument(src, raw)
	if err != nil {
		return Document{}, err
	}
	switch format {
	case "", FormatJSON, FormatYAML:
		doc.format = format
	default:
		return Document{}, fmt.Errorf("schema: unknown format %q", format)
	}
	return doc, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Format reports how the payload is encoded. A declared format wins, then
// the location extension; otherwise payloads starting with '{' or '[' are
// JSON and the rest YAML.
func (d Document) Format() Format {
	if d.format != "" {
		return d.format
	}
	if format, ok := FormatFromExtension(d.Location()); ok {
		return format
	}
	trimmed := bytes.TrimSpace(d.raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses the payload into generic values: maps are map[string]any,
// sequences []any.
func (d Document) Decode() (any, error) {
	var out any
	switch d.Format() {
	case FormatJSON:
		if err := json.Unmarshal(d.raw, &out); err != nil {
			return nil, fmt.Errorf("schema: decode json %s: %w", d.Location(), err)
		}
		return out, nil
	default:
		if err := yaml.Unmarshal(d.raw, &out); err != nil {
			return nil, fmt.Errorf("schema: decode yaml %s: %w", d.Location(), err)
		}
		return normalize(out), nil
	}
}

// Answers decodes the payload as an answers document. A payload that is not a
// mapping yields a *formerrors.FormatError.
func (d Document) Answers() (map[string]any, error) {
	decoded, err := d.Decode()
	if err != nil {
		return nil, err
	}
	answers, ok := values.Map(decoded)
	if !ok {
		return nil, formerrors.NewFormatError(formerrors.Textf(
			"Expected answers to be a 'dictionary', got %s instead", values.TypeName(decoded)))
	}
	return answers, nil
}

// normalize rewrites the map[any]any values yaml produces for non string keys
// so every mapping is keyed by string.
func normalize(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		for key, value := range typed {
			typed[key] = normalize(value)
		}
		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[values.String(key)] = normalize(value)
		}
		return out
	case []any:
		for i, value := range typed {
			typed[i] = normalize(value)
		}
		return typed
	default:
		return v
	}
}
