// Package openapi describes the answers document of a compiled form as an
// OpenAPI 3 schema. The schema is a structural pre-check: answers it rejects
// are rejected by form.CheckAnswers too, but conditional state, value bounds
// and cross-option rules are left to the form.
package openapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// Extension keys attached to field schemas.
const (
	ExtensionFieldType = "x-pulpoforms-type"
	ExtensionSection   = "x-pulpoforms-section"
	ExtensionPage      = "x-pulpoforms-page"
)

const emailPattern = `^[^@]+@[^@]+$`

// AnswerSchema returns an object schema with one property per field. Fields
// never appear in required because their required flag depends on the
// answers.
func AnswerSchema(f *form.Form) (*openapi3.Schema, error) {
	if f == nil {
		return nil, errors.New("openapi: form is required")
	}
	if err := f.Err(); err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}

	out := openapi3.NewObjectSchema()
	out.Title = f.ID()
	out.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(false)}
	for _, field := range f.Fields() {
		property := FieldSchema(field)
		if section, page, err := f.Locate(field.ID()); err == nil {
			property.Extensions[ExtensionSection] = section.ID
			property.Extensions[ExtensionPage] = page.ID
		}
		out.WithProperty(field.ID(), property)
	}
	return out, nil
}

// FieldSchema describes the answer accepted by one field.
func FieldSchema(field fields.Field) *openapi3.Schema {
	var out *openapi3.Schema
	switch field.Type() {
	case fields.String:
		// string fields accept any value their validators accept
		out = withLengths(openapi3.NewSchema(), field)
	case fields.Email:
		out = withLengths(openapi3.NewStringSchema().WithPattern(emailPattern), field)
	case fields.Boolean:
		out = openapi3.NewBoolSchema()
	case fields.Number, fields.Slider:
		out = numeric()
	case fields.Select:
		out = openapi3.NewSchema().WithEnum(optionKeys(field)...)
	case fields.SelectOther:
		out = openapi3.NewObjectSchema().
			WithProperty("option", openapi3.NewSchema().WithEnum(optionKeys(field)...)).
			WithProperty("answer", openapi3.NewSchema())
	case fields.Multiselect:
		out = withChoices(openapi3.NewArraySchema().WithItems(openapi3.NewSchema().WithEnum(optionKeys(field)...)), field)
	case fields.Rank, fields.RankOther:
		out = rankSchema(field)
	case fields.Inspection:
		out = inspectionSchema(field)
	case fields.Location:
		out = locationSchema(field)
	default:
		out = openapi3.NewSchema()
	}

	out.Title = field.Title()
	out.Description = field.Tooltip()
	if out.Extensions == nil {
		out.Extensions = map[string]any{}
	}
	out.Extensions[ExtensionFieldType] = field.Type()
	return out.WithNullable()
}

// numeric accepts numbers and numeric strings.
func numeric() *openapi3.Schema {
	return openapi3.NewAnyOfSchema(openapi3.NewFloat64Schema(), openapi3.NewStringSchema())
}

func optionKeys(field fields.Field) []any {
	list, ok := field.(fields.OptionField)
	if !ok {
		return nil
	}
	keys := make([]any, 0, len(list.Options()))
	for _, option := range list.Options() {
		keys = append(keys, jsonValue(option.Key))
	}
	return keys
}

func rankSchema(field fields.Field) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(false)}
	list, _ := field.(fields.OptionField)
	if list == nil {
		return out
	}
	for _, option := range list.Options() {
		key := values.String(option.Key)
		property := numeric()
		if field.Type() == fields.RankOther && key == fields.OtherOption {
			property = openapi3.NewObjectSchema().
				WithProperty("value", numeric()).
				WithProperty("new_option", openapi3.NewStringSchema())
		}
		out.WithProperty(key, property.WithNullable())
	}
	return out
}

func inspectionSchema(field fields.Field) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(false)}
	inspection, ok := field.(*fields.InspectionField)
	if !ok {
		return out
	}
	for _, key := range inspection.Checklist() {
		out.WithProperty(key, openapi3.NewBoolSchema())
	}
	out.Required = append([]string(nil), inspection.Checklist()...)
	return out
}

func locationSchema(field fields.Field) *openapi3.Schema {
	out := openapi3.NewObjectSchema().
		WithProperty("type", openapi3.NewStringSchema()).
		WithProperty("coordinates", openapi3.NewArraySchema())
	if location, ok := field.(*fields.LocationField); ok {
		out.Properties["type"].Value.WithEnum(location.Shape())
	}
	out.Required = []string{"type", "coordinates"}
	return out
}

func withLengths(out *openapi3.Schema, field fields.Field) *openapi3.Schema {
	for key, limit := range limits(field) {
		switch key {
		case validators.MinLength:
			out.WithMinLength(limit)
		case validators.MaxLength:
			out.WithMaxLength(limit)
		}
	}
	return out
}

func withChoices(out *openapi3.Schema, field fields.Field) *openapi3.Schema {
	for key, limit := range limits(field) {
		switch key {
		case validators.MinLength, validators.MinChoices:
			out.WithMinItems(limit)
		case validators.MaxLength, validators.MaxChoices:
			out.WithMaxItems(limit)
		}
	}
	return out
}

// limits reads the integer validator limits declared on a field. A negative
// limit can never be violated by a length, so it is left out.
func limits(field fields.Field) map[string]int64 {
	declared, _ := values.List(field.Descriptor()["validators"])
	out := make(map[string]int64, len(declared))
	for _, raw := range declared {
		item, _ := values.Map(raw)
		limit, ok := values.Int(item["value"])
		if !ok || limit < 0 {
			continue
		}
		out[values.String(item["type"])] = int64(limit)
	}
	return out
}

// jsonValue returns v as it reads after a JSON round trip, so enum members
// compare equal to decoded answers.
func jsonValue(v any) any {
	payload, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return v
	}
	return out
}
