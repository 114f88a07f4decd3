package fields

import (
	"strings"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

func checkChecklist(descriptor map[string]any) []formerrors.Message {
	list, ok := values.List(descriptor["checklist"])
	if !ok {
		return []formerrors.Message{formerrors.Textf("'checklist' property must be a list")}
	}
	var messages []formerrors.Message
	for _, item := range list {
		entry, ok := values.Map(item)
		if !ok {
			messages = append(messages, formerrors.Textf("Every element of 'checklist' property must be a dictionary"))
			continue
		}
		if _, present := entry["key"]; !present {
			messages = append(messages, formerrors.Textf("Required key 'key' missing in checklist item"))
		}
	}
	return messages
}

// InspectionField answers map every checklist key to a boolean.
type InspectionField struct {
	*Base
	checklist []string
	status    any
}

func newInspection(base *Base, descriptor map[string]any) (Field, error) {
	list, _ := values.List(descriptor["checklist"])
	keys := make([]string, 0, len(list))
	for _, item := range list {
		entry, _ := values.Map(item)
		keys = append(keys, values.String(entry["key"]))
	}
	return &InspectionField{Base: base, checklist: keys, status: descriptor["status_options"]}, nil
}

// Checklist returns the declared item keys in schema order.
func (f *InspectionField) Checklist() []string { return f.checklist }

// StatusOptions returns the raw status_options descriptor.
func (f *InspectionField) StatusOptions() any { return f.status }

// ValidateValue requires each checklist key exactly once with a boolean
// value. Unexpected keys, non boolean values and missing keys are all
// reported together.
func (f *InspectionField) ValidateValue(answer any) error {
	items, ok := values.Map(answer)
	if !ok {
		return formerrors.NewFieldError(formerrors.Textf(
			"Expected an object mapping checklist keys to booleans, got '%s'", values.TypeName(answer)))
	}

	declared := make(map[string]bool, len(f.checklist))
	for _, key := range f.checklist {
		declared[key] = true
	}

	var messages []formerrors.Message
	for _, key := range values.Keys(items) {
		if !declared[key] {
			messages = append(messages, formerrors.Textf("Answer Key '%s' is not a valid option for this form.", key))
			continue
		}
		if _, ok := items[key].(bool); !ok {
			messages = append(messages, formerrors.Textf("'%s': Expected boolean, got '%s'", key, values.TypeName(items[key])))
		}
	}

	var missing []string
	for _, key := range f.checklist {
		if _, ok := items[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		messages = append(messages, formerrors.Textf(
			"The following keys are missing from the answer: %s", strings.Join(missing, ", ")))
	}

	if len(messages) > 0 {
		return formerrors.NewFieldError(messages...)
	}
	return validators.Run(f.validators, answer)
}
