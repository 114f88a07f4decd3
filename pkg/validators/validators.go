// Package validators implements the value-level constraints a field can carry
// (length, choice count, numeric and per-option bounds).
package validators

import (
	"errors"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/registry"
)

// Owner is the field a validator attaches to.
type Owner interface {
	ID() string
	Type() string
	AllowsValidator(key string) bool
}

// Validator checks a submitted answer. Violations are returned as
// *formerrors.FieldError carrying a structured message.
type Validator interface {
	Key() string
	Validate(answer any) error
}

// Kind describes one registered validator type.
type Kind struct {
	Key  string
	Name string
	// Expects names the JSON type the configured value must have.
	Expects string
	// DefaultValue seeds the descriptor returned by Default.
	DefaultValue any
	// Check reports whether the configured value is well formed. Nil accepts
	// anything.
	Check func(value any) bool
	New   func(value any) Validator
}

// Default returns a descriptor template for schema builders.
func (k Kind) Default() map[string]any {
	return map[string]any{"type": k.Key, "value": k.DefaultValue}
}

var descriptorKeys = []string{"type", "value"}

// Build compiles a validator descriptor for owner. Every structural problem is
// reported in a single *formerrors.ValidationError.
func Build(reg *registry.Registry[Kind], raw any, owner Owner) (Validator, error) {
	descriptor, ok := values.Map(raw)
	if !ok {
		return nil, formerrors.NewValidationError(formerrors.Textf(
			"Validator definition must be a dictionary, got '%s'", values.TypeName(raw)))
	}

	typ := values.String(descriptor["type"])
	kind, err := reg.Get(typ)
	if err != nil {
		return nil, formerrors.NewValidationError(formerrors.Textf("Invalid validator type: '%s'", typ))
	}

	var messages []formerrors.Message
	for _, key := range values.Keys(descriptor) {
		if !containsKey(descriptorKeys, key) {
			messages = append(messages, formerrors.Textf(
				"Key '%s' either doesn't belong in the schema or is duplicated", key))
		}
	}
	for _, key := range descriptorKeys {
		if _, present := descriptor[key]; !present {
			messages = append(messages, formerrors.Textf("Required key '%s' missing from the schema", key))
		}
	}
	if len(messages) > 0 {
		return nil, formerrors.NewValidationError(messages...)
	}

	if owner != nil && !owner.AllowsValidator(kind.Key) {
		return nil, formerrors.NewValidationError(formerrors.Textf(
			"Field '%s' of type '%s' does not accept the '%s' validator type",
			owner.ID(), owner.Type(), kind.Key))
	}

	value := descriptor["value"]
	if kind.Check != nil && !kind.Check(value) {
		return nil, formerrors.NewValidationError(formerrors.Textf(
			"Value for %s validator must be '%s', got '%s'", kind.Name, kind.Expects, values.TypeName(value)))
	}
	return kind.New(value), nil
}

// BuildAll compiles a field's validator list, collecting the messages of every
// failing descriptor.
func BuildAll(reg *registry.Registry[Kind], raw any, owner Owner) ([]Validator, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := values.List(raw)
	if !ok {
		return nil, formerrors.NewValidationError(formerrors.Textf(
			"'validators' property must be a list, got '%s'", values.TypeName(raw)))
	}

	var (
		built    []Validator
		messages []formerrors.Message
	)
	for _, item := range list {
		validator, err := Build(reg, item, owner)
		if err != nil {
			var validationErr *formerrors.ValidationError
			if errors.As(err, &validationErr) {
				messages = append(messages, validationErr.Messages...)
				continue
			}
			return nil, err
		}
		built = append(built, validator)
	}
	if len(messages) > 0 {
		return nil, formerrors.NewValidationError(messages...)
	}
	return built, nil
}

// Run applies validators in order and stops at the first failure.
func Run(list []Validator, answer any) error {
	for _, validator := range list {
		if err := validator.Validate(answer); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the keys registered in reg.
func Names(reg *registry.Registry[Kind]) []string {
	return reg.List()
}

func containsKey(keys []string, key string) bool {
	for _, candidate := range keys {
		if candidate == key {
			return true
		}
	}
	return false
}
