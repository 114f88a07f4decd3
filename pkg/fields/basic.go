package fields

import (
	"math"
	"regexp"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

type stringField struct {
	*Base
}

func newString(base *Base, _ map[string]any) (Field, error) {
	return &stringField{Base: base}, nil
}

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+$`)

type emailField struct {
	*Base
}

func newEmail(base *Base, _ map[string]any) (Field, error) {
	return &emailField{Base: base}, nil
}

func (f *emailField) ValidateValue(answer any) error {
	text, ok := answer.(string)
	if !ok || !emailPattern.MatchString(text) {
		return formerrors.NewFieldError(formerrors.Keyed("section1.errors.invalid_email", map[string]any{
			"answer": answer,
		}))
	}
	return validators.Run(f.validators, answer)
}

type booleanField struct {
	*Base
}

func newBoolean(base *Base, _ map[string]any) (Field, error) {
	return &booleanField{Base: base}, nil
}

func (f *booleanField) ValidateValue(answer any) error {
	if _, ok := answer.(bool); !ok {
		return formerrors.NewFieldError(formerrors.Textf(
			"Expected boolean value, got '%s'", values.TypeName(answer)))
	}
	return nil
}

// NumberField accepts numeric answers, optionally restricted to integers.
type NumberField struct {
	*Base
	decimals bool
	prefix   string
	suffix   string
}

func newNumber(base *Base, descriptor map[string]any) (Field, error) {
	return &NumberField{
		Base:     base,
		decimals: values.Bool(descriptor["decimals"]),
		prefix:   values.String(descriptor["prefix"]),
		suffix:   values.String(descriptor["suffix"]),
	}, nil
}

// Decimals reports whether fractional answers are accepted.
func (f *NumberField) Decimals() bool { return f.decimals }

// Affixes returns the display prefix and suffix.
func (f *NumberField) Affixes() (string, string) { return f.prefix, f.suffix }

func (f *NumberField) ValidateValue(answer any) error {
	number, ok := values.Float(answer)
	if !ok {
		return formerrors.NewFieldError(formerrors.Textf("'%s' is not a number", values.String(answer)))
	}
	if !f.decimals && number != math.Trunc(number) {
		return formerrors.NewFieldError(formerrors.Keyed("section1.errors.only_integer", map[string]any{
			"answer": answer,
		}))
	}
	return validators.Run(f.validators, answer)
}

type sliderField struct {
	*Base
}

func newSlider(base *Base, _ map[string]any) (Field, error) {
	return &sliderField{Base: base}, nil
}

func (f *sliderField) ValidateValue(answer any) error {
	if _, ok := values.Float(answer); !ok {
		return formerrors.NewFieldError(formerrors.Textf("'%s' is not a number", values.String(answer)))
	}
	return validators.Run(f.validators, answer)
}

// passthroughField accepts any answer. Date and datetime answers are
// formatted and checked by clients.
type passthroughField struct {
	*Base
}

func newPassthrough(base *Base, _ map[string]any) (Field, error) {
	return &passthroughField{Base: base}, nil
}

func (f *passthroughField) ValidateValue(any) error { return nil }
