package openapi

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-pulpoforms/pkg/form"
)

// Precheck validates answers against the form's answer schema. Empty answers
// (null or "") are skipped, as CheckAnswers treats them as missing. Answers for
// fields that would resolve as hidden are checked like any other.
func Precheck(f *form.Form, answers map[string]any) error {
	schema, err := AnswerSchema(f)
	if err != nil {
		return err
	}
	return Visit(schema, answers)
}

// Visit validates answers against a schema returned by AnswerSchema and
// reports every violation.
func Visit(schema *openapi3.Schema, answers map[string]any) error {
	filtered := make(map[string]any, len(answers))
	for key, value := range answers {
		if value == nil || value == "" {
			continue
		}
		filtered[key] = value
	}

	// VisitJSON expects decoded JSON values
	payload, err := json.Marshal(filtered)
	if err != nil {
		return fmt.Errorf("openapi: encode answers: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("openapi: decode answers: %w", err)
	}

	if err := schema.VisitJSON(decoded, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("openapi: answers do not match schema: %w", err)
	}
	return nil
}
