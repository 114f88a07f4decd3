// Package form compiles questionnaire schemas into Forms and checks answer
// documents against them.
//
// A schema has exactly five members: id, version, fields, sections and pages.
// Compiling it builds every field through the field registry, binds fields to
// sections and sections to pages (each exactly once), compiles every
// conditional against the condition registry, and records any problem in a
// Report. A Form with a non-empty report is still inspectable but refuses to
// check answers.
package form

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-pulpoforms/pkg/conditions"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/registry"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// ErrInvalidForm is wrapped by operations that need a structurally valid
// Form.
var ErrInvalidForm = errors.New("form: schema is not valid")

// ErrUnknownField is wrapped when a field id is not defined on the form.
var ErrUnknownField = errors.New("form: unknown field")

// Option customises how a schema is compiled.
type Option func(*Form)

// WithFieldKinds overrides the field type registry.
func WithFieldKinds(reg *registry.Registry[fields.Kind]) Option {
	return func(f *Form) {
		if reg != nil {
			f.fieldKinds = reg
		}
	}
}

// WithConditionKinds overrides the condition type registry.
func WithConditionKinds(reg *registry.Registry[conditions.Kind]) Option {
	return func(f *Form) {
		if reg != nil {
			f.conditionKinds = reg
		}
	}
}

// WithValidatorKinds overrides the validator type registry.
func WithValidatorKinds(reg *registry.Registry[validators.Kind]) Option {
	return func(f *Form) {
		if reg != nil {
			f.validatorKinds = reg
		}
	}
}

// Section groups fields inside a page.
type Section struct {
	ID          string
	Title       string
	Description string
	Hidden      bool

	fields       []fields.Field
	conditionals []conditions.Conditional
}

// Fields returns the section's fields in declaration order.
func (s *Section) Fields() []fields.Field { return s.fields }

// Conditionals returns the compiled section conditionals.
func (s *Section) Conditionals() []conditions.Conditional { return s.conditionals }

// Page groups sections.
type Page struct {
	ID          string
	Title       string
	Description string
	Hidden      bool

	sections     []*Section
	conditionals []conditions.Conditional
}

// Sections returns the page's sections in declaration order.
func (p *Page) Sections() []*Section { return p.sections }

// Conditionals returns the compiled page conditionals.
func (p *Page) Conditionals() []conditions.Conditional { return p.conditionals }

// Form is a compiled schema. It is read-only after New returns and may be
// shared between goroutines; only CheckAnswers mutates, and only its
// argument.
type Form struct {
	fieldKinds     *registry.Registry[fields.Kind]
	conditionKinds *registry.Registry[conditions.Kind]
	validatorKinds *registry.Registry[validators.Kind]

	schema  map[string]any
	id      string
	version int

	fields            map[string]fields.Field
	fieldOrder        []string
	fieldConditionals map[string][]conditions.Conditional

	sections     map[string]*Section
	sectionOrder []string
	pages        map[string]*Page
	pageOrder    []string

	sectionOf map[string]*Section
	pageOf    map[string]*Page

	report Report
}

// New compiles schema. It never fails outright: problems are recorded in the
// Report and IsValid reports whether any were found.
func New(schema any, opts ...Option) *Form {
	f := &Form{
		fieldKinds:        fields.Default(),
		conditionKinds:    conditions.Default(),
		validatorKinds:    validators.Default(),
		fields:            make(map[string]fields.Field),
		fieldConditionals: make(map[string][]conditions.Conditional),
		sections:          make(map[string]*Section),
		pages:             make(map[string]*Page),
		sectionOf:         make(map[string]*Section),
		pageOf:            make(map[string]*Page),
		report:            Report{Errors: []Issue{}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.compile(schema)
	return f
}

// Parse compiles schema and returns an error when the result is not valid.
// The Form is returned either way so callers can inspect the report.
func Parse(schema any, opts ...Option) (*Form, error) {
	f := New(schema, opts...)
	return f, f.Err()
}

// IsValid reports whether the schema compiled without problems.
func (f *Form) IsValid() bool { return f.report.Valid() }

// Report returns the compile report.
func (f *Form) Report() Report { return f.report }

// Err returns a *formerrors.FormatError or *formerrors.SchemaError describing
// the report, or nil for a valid form.
func (f *Form) Err() error { return f.report.Err() }

// ID returns the schema id.
func (f *Form) ID() string { return f.id }

// Version returns the schema version.
func (f *Form) Version() int { return f.version }

// Schema returns the schema document the form was compiled from.
func (f *Form) Schema() map[string]any { return f.schema }

// Fields returns the compiled fields in declaration order.
func (f *Form) Fields() []fields.Field {
	out := make([]fields.Field, 0, len(f.fieldOrder))
	for _, id := range f.fieldOrder {
		out = append(out, f.fields[id])
	}
	return out
}

// Field looks up a compiled field.
func (f *Form) Field(id string) (fields.Field, bool) {
	field, ok := f.fields[id]
	return field, ok
}

// FieldConditionals returns the compiled conditionals declared on a field.
func (f *Form) FieldConditionals(id string) []conditions.Conditional {
	return f.fieldConditionals[id]
}

// Sections returns the sections in declaration order.
func (f *Form) Sections() []*Section {
	out := make([]*Section, 0, len(f.sectionOrder))
	for _, id := range f.sectionOrder {
		if section, ok := f.sections[id]; ok {
			out = append(out, section)
		}
	}
	return out
}

// Pages returns the pages in declaration order.
func (f *Form) Pages() []*Page {
	out := make([]*Page, 0, len(f.pageOrder))
	for _, id := range f.pageOrder {
		if page, ok := f.pages[id]; ok {
			out = append(out, page)
		}
	}
	return out
}

// Locate returns the section and page that own a field.
func (f *Form) Locate(fieldID string) (*Section, *Page, error) {
	if _, ok := f.fields[fieldID]; !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownField, fieldID)
	}
	section, ok := f.sectionOf[fieldID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: field %q is not mapped to a section", ErrInvalidForm, fieldID)
	}
	page, ok := f.pageOf[section.ID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: section %q is not mapped to a page", ErrInvalidForm, section.ID)
	}
	return section, page, nil
}
