// Package fields implements the typed, answerable units of a form schema.
//
// Each field type is described by a Kind: the schema keys it expects and
// accepts, the condition, validator and widget types it permits, and a
// constructor that hydrates the typed field from its descriptor. Kinds are
// resolved by key through a registry.Registry so hosts can add their own.
package fields

import (
	"errors"
	"slices"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/registry"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// Field is a compiled field descriptor.
type Field interface {
	ID() string
	Type() string
	Title() string
	Required() bool
	Hidden() bool
	Tooltip() string
	// Widget returns the declared widget type, or "" when none was set.
	Widget() string
	// Conditionals returns the raw conditionals list; the form compiles it
	// once every field is known.
	Conditionals() any
	Descriptor() map[string]any
	Validators() []validators.Validator
	AllowsCondition(key string) bool
	AllowsValidator(key string) bool
	AllowsWidget(key string) bool
	// ValidateValue checks a non-empty answer. Failures are returned as
	// *formerrors.FieldError.
	ValidateValue(answer any) error
}

// Option is one {key, value} entry of a list field.
type Option struct {
	Key   any `json:"key"`
	Value any `json:"value"`
}

// OptionField is implemented by fields whose answers are drawn from a
// declared option list.
type OptionField interface {
	Field
	Options() []Option
}

// Kind describes one registered field type.
type Kind struct {
	Key  string
	Name string
	// Expected keys must all be present; Optional keys may be.
	Expected []string
	Optional []string
	// Allowed condition, validator and widget types.
	Conditions []string
	Validators []string
	Widgets    []string
	// Template is the descriptor returned by Default.
	Template map[string]any
	// Check runs kind specific schema checks once the key set is valid.
	Check func(descriptor map[string]any) []formerrors.Message
	// New hydrates the typed field around its common attributes.
	New func(base *Base, descriptor map[string]any) (Field, error)
}

// Default returns a copy of the kind's descriptor template.
func (k Kind) Default() map[string]any {
	out := make(map[string]any, len(k.Template))
	for key, value := range k.Template {
		if list, ok := value.([]any); ok {
			value = append([]any(nil), list...)
		}
		out[key] = value
	}
	return out
}

var (
	baseExpected = []string{"type", "id", "title", "required"}
	baseOptional = []string{"conditionals", "widget", "validators", "tooltip", "hidden", "default"}
)

// ValidateBase checks a descriptor against the key set shared by every field
// type.
func ValidateBase(descriptor map[string]any) error {
	messages := checkKeys(descriptor, baseExpected, baseOptional)
	if len(messages) > 0 {
		return formerrors.NewFieldError(messages...)
	}
	return nil
}

// ValidateSchema collects every structural problem in descriptor for kind
// and reports them in a single *formerrors.FieldError.
func ValidateSchema(kind Kind, descriptor map[string]any) error {
	messages := checkKeys(descriptor, kind.Expected, kind.Optional)
	if len(messages) == 0 && kind.Check != nil {
		messages = kind.Check(descriptor)
	}
	if len(messages) > 0 {
		return formerrors.NewFieldError(messages...)
	}
	return nil
}

func checkKeys(descriptor map[string]any, expected, optional []string) []formerrors.Message {
	var messages []formerrors.Message
	for _, key := range values.Keys(descriptor) {
		if !slices.Contains(expected, key) && !slices.Contains(optional, key) {
			messages = append(messages, formerrors.Textf(
				"Key '%s' either doesn't belong in the field schema or is duplicated", key))
		}
	}
	for _, key := range expected {
		if _, ok := descriptor[key]; !ok {
			messages = append(messages, formerrors.Textf(
				"Required key '%s' is missing from the field schema", key))
		}
	}
	return messages
}

// Build resolves the descriptor's type in kinds and compiles the field,
// attaching its validators from vkinds.
func Build(kinds *registry.Registry[Kind], vkinds *registry.Registry[validators.Kind], raw any) (Field, error) {
	descriptor, ok := values.Map(raw)
	if !ok {
		return nil, formerrors.NewFieldError(formerrors.Textf(
			"Field definition must be a dictionary, got '%s'", values.TypeName(raw)))
	}
	typ, ok := descriptor["type"]
	if !ok {
		if err := ValidateBase(descriptor); err != nil {
			return nil, err
		}
		return nil, formerrors.NewFieldError(formerrors.Textf("Required key 'type' is missing from the field schema"))
	}
	kind, err := kinds.Get(values.String(typ))
	if err != nil {
		return nil, formerrors.NewFieldError(formerrors.Textf("Invalid field type: '%s'", values.String(typ)))
	}
	return kind.Build(vkinds, descriptor)
}

// Build compiles descriptor as a field of this kind.
func (k Kind) Build(vkinds *registry.Registry[validators.Kind], descriptor map[string]any) (Field, error) {
	if err := ValidateSchema(k, descriptor); err != nil {
		return nil, err
	}

	base := newBase(k, descriptor)
	var messages []formerrors.Message

	list, err := validators.BuildAll(vkinds, descriptor["validators"], base)
	if err != nil {
		var validationErr *formerrors.ValidationError
		if !errors.As(err, &validationErr) {
			return nil, err
		}
		messages = append(messages, validationErr.Messages...)
	}
	base.validators = list

	if raw, ok := descriptor["widget"]; ok {
		widget, widgetMessages := base.checkWidget(raw)
		base.widget = widget
		messages = append(messages, widgetMessages...)
	}
	if len(messages) > 0 {
		return nil, formerrors.NewFieldError(messages...)
	}
	return k.New(base, descriptor)
}

// Names lists the keys registered in reg.
func Names(reg *registry.Registry[Kind]) []string {
	return reg.List()
}

// Base carries the attributes every field type shares. Kind implementations
// embed it.
type Base struct {
	kind         Kind
	id           string
	title        string
	tooltip      string
	required     bool
	hidden       bool
	widget       string
	conditionals any
	descriptor   map[string]any
	validators   []validators.Validator
}

func newBase(kind Kind, descriptor map[string]any) *Base {
	return &Base{
		kind:         kind,
		id:           values.String(descriptor["id"]),
		title:        values.String(descriptor["title"]),
		tooltip:      values.String(descriptor["tooltip"]),
		required:     values.Bool(descriptor["required"]),
		hidden:       values.Bool(descriptor["hidden"]),
		conditionals: descriptor["conditionals"],
		descriptor:   descriptor,
	}
}

func (b *Base) ID() string                         { return b.id }
func (b *Base) Type() string                       { return b.kind.Key }
func (b *Base) Title() string                      { return b.title }
func (b *Base) Tooltip() string                    { return b.tooltip }
func (b *Base) Required() bool                     { return b.required }
func (b *Base) Hidden() bool                       { return b.hidden }
func (b *Base) Widget() string                     { return b.widget }
func (b *Base) Conditionals() any                  { return b.conditionals }
func (b *Base) Validators() []validators.Validator { return b.validators }

// Descriptor returns the schema descriptor the field was built from.
func (b *Base) Descriptor() map[string]any { return b.descriptor }

func (b *Base) AllowsCondition(key string) bool { return slices.Contains(b.kind.Conditions, key) }
func (b *Base) AllowsValidator(key string) bool { return slices.Contains(b.kind.Validators, key) }
func (b *Base) AllowsWidget(key string) bool    { return slices.Contains(b.kind.Widgets, key) }

// ValidateValue runs the attached validators. Kinds override it with their
// own value rules.
func (b *Base) ValidateValue(answer any) error {
	return validators.Run(b.validators, answer)
}

func (b *Base) checkWidget(raw any) (string, []formerrors.Message) {
	widget, ok := values.Map(raw)
	if !ok {
		return "", []formerrors.Message{formerrors.Textf(
			"Invalid 'widget' definition, expected 'dictionary', got '%s'", values.TypeName(raw))}
	}
	typ, ok := widget["type"]
	if !ok {
		return "", []formerrors.Message{formerrors.Textf("Invalid 'widget' definition")}
	}
	name := values.String(typ)
	if !b.AllowsWidget(name) {
		return "", []formerrors.Message{formerrors.Textf(
			"Field '%s' of type '%s' does not accept the '%s' widget type", b.id, b.kind.Key, name)}
	}
	return name, nil
}
