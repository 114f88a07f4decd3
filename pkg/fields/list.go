package fields

import (
	"math"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// checkOptions validates the 'values' list shared by list based kinds.
func checkOptions(descriptor map[string]any) []formerrors.Message {
	list, ok := values.List(descriptor["values"])
	if !ok {
		return []formerrors.Message{formerrors.Textf("'values' property must be a list")}
	}

	var messages []formerrors.Message
	seen := make(map[string]bool, len(list))
	for _, item := range list {
		option, ok := values.Map(item)
		if !ok {
			messages = append(messages, formerrors.Textf("Every element of 'values' property must be a dictionary"))
			continue
		}
		for _, key := range values.Keys(option) {
			if key != "key" && key != "value" {
				messages = append(messages, formerrors.Textf("Key '%s' doesn't belong in field values schema", key))
			}
		}
		for _, key := range []string{"key", "value"} {
			if _, present := option[key]; !present {
				messages = append(messages, formerrors.Textf("Required key '%s' missing in field values schema", key))
			}
		}
		if key, present := option["key"]; present {
			name := values.String(key)
			if seen[name] {
				messages = append(messages, formerrors.Textf("Option key '%s' is defined more than once", name))
			}
			seen[name] = true
		}
	}
	return messages
}

func parseOptions(descriptor map[string]any) []Option {
	list, _ := values.List(descriptor["values"])
	out := make([]Option, 0, len(list))
	for _, item := range list {
		option, _ := values.Map(item)
		out = append(out, Option{Key: option["key"], Value: option["value"]})
	}
	return out
}

// listField is embedded by kinds that answer from a declared option list.
type listField struct {
	*Base
	options []Option
}

func (f *listField) Options() []Option { return f.options }

func (f *listField) isOption(answer any) bool {
	for _, option := range f.options {
		if values.Equal(option.Key, answer) {
			return true
		}
	}
	return false
}

func (f *listField) isOptionKey(key string) bool {
	for _, option := range f.options {
		if values.String(option.Key) == key {
			return true
		}
	}
	return false
}

func invalidOption(value any) formerrors.Message {
	return formerrors.Textf("'%s' is not a correct option value", values.String(value))
}

type selectField struct {
	listField
}

func newSelect(base *Base, descriptor map[string]any) (Field, error) {
	return &selectField{listField{Base: base, options: parseOptions(descriptor)}}, nil
}

func (f *selectField) ValidateValue(answer any) error {
	if !f.isOption(answer) {
		return formerrors.NewFieldError(invalidOption(answer))
	}
	return validators.Run(f.validators, answer)
}

// selectOtherField answers are {option, answer}; the OTHER option needs a
// free text answer.
type selectOtherField struct {
	listField
}

func newSelectOther(base *Base, descriptor map[string]any) (Field, error) {
	return &selectOtherField{listField{Base: base, options: parseOptions(descriptor)}}, nil
}

func (f *selectOtherField) ValidateValue(answer any) error {
	value, ok := values.Map(answer)
	if !ok {
		return formerrors.NewFieldError(formerrors.Textf(
			"Expected an object with an 'option' key, got '%s'", values.TypeName(answer)))
	}
	if option, present := value["option"]; present {
		if !f.isOption(option) {
			return formerrors.NewFieldError(invalidOption(option))
		}
		if values.String(option) == OtherOption && !values.Truthy(value["answer"]) {
			return formerrors.NewFieldError(formerrors.Keyed("section1.errors.other_option", nil))
		}
	}
	return validators.Run(f.validators, answer)
}

type multiselectField struct {
	listField
}

func newMultiselect(base *Base, descriptor map[string]any) (Field, error) {
	return &multiselectField{listField{Base: base, options: parseOptions(descriptor)}}, nil
}

func (f *multiselectField) ValidateValue(answer any) error {
	list, ok := values.List(answer)
	if !ok {
		return formerrors.NewFieldError(formerrors.Textf(
			"Expected a list of options, got '%s'", values.TypeName(answer)))
	}
	var messages []formerrors.Message
	for _, item := range list {
		if !f.isOption(item) {
			messages = append(messages, invalidOption(item))
		}
	}
	if len(messages) > 0 {
		return formerrors.NewFieldError(messages...)
	}
	return validators.Run(f.validators, answer)
}

func checkRank(descriptor map[string]any) []formerrors.Message {
	messages := checkOptions(descriptor)
	if _, ok := values.Float(descriptor["sum_total"]); !ok {
		messages = append(messages, formerrors.Textf(
			"'sum_total' property must be a number, got '%s'", values.TypeName(descriptor["sum_total"])))
	}
	return messages
}

// RankField distributes a fixed total across its options. With other set,
// the OTHER option is answered as {value, new_option}.
type RankField struct {
	listField
	other    bool
	decimals bool
	sumTotal float64
}

func newRank(other bool) func(*Base, map[string]any) (Field, error) {
	return func(base *Base, descriptor map[string]any) (Field, error) {
		total, _ := values.Float(descriptor["sum_total"])
		return &RankField{
			listField: listField{Base: base, options: parseOptions(descriptor)},
			other:     other,
			decimals:  values.Bool(descriptor["decimals"]),
			sumTotal:  total,
		}, nil
	}
}

// SumTotal is the exact total every answer must add up to.
func (f *RankField) SumTotal() float64 { return f.sumTotal }

func (f *RankField) ValidateValue(answer any) error {
	ranks, ok := values.Map(answer)
	if !ok {
		return formerrors.NewFieldError(formerrors.Textf(
			"Expected an object mapping options to numbers, got '%s'", values.TypeName(answer)))
	}

	var (
		messages []formerrors.Message
		sum      float64
	)
	for _, option := range values.Keys(ranks) {
		if !f.isOptionKey(option) {
			messages = append(messages, invalidOption(option))
		}

		raw := ranks[option]
		nested := f.other && option == OtherOption
		var other map[string]any
		if nested {
			other, ok = values.Map(raw)
			if !ok {
				messages = append(messages, formerrors.Textf("Answer for option '%s' must be an object", option))
				continue
			}
			raw = other["value"]
		}
		if !values.Truthy(raw) {
			continue
		}

		number, ok := values.Float(raw)
		if !ok {
			messages = append(messages, formerrors.Textf("Answer for option '%s' must be a number", option))
			continue
		}
		if !f.decimals && number != math.Trunc(number) {
			messages = append(messages, formerrors.Keyed("section1.errors.rank_field.only_integer", map[string]any{
				"option": option,
			}))
			if f.other {
				continue
			}
		}
		sum += number

		if nested && !values.Truthy(other["new_option"]) {
			messages = append(messages, formerrors.Keyed("section1.errors.other_option", nil))
		}
	}

	if len(messages) > 0 {
		return formerrors.NewFieldError(messages...)
	}
	if sum != f.sumTotal {
		return formerrors.NewFieldError(formerrors.Keyed("section1.errors.rank_field.add", map[string]any{
			"total": f.descriptor["sum_total"],
		}))
	}
	return validators.Run(f.validators, answer)
}
