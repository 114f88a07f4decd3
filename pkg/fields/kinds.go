package fields

import (
	"sync"

	"github.com/goliatone/go-pulpoforms/pkg/conditions"
	"github.com/goliatone/go-pulpoforms/pkg/registry"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// Registered field type keys.
const (
	String      = "string"
	Email       = "email"
	Boolean     = "boolean"
	Number      = "number"
	Select      = "select"
	SelectOther = "select_other"
	Multiselect = "multiselect"
	Date        = "date"
	Datetime    = "datetime"
	Rank        = "rank"
	RankOther   = "rank_other"
	Slider      = "slider"
	Location    = "location"
	Inspection  = "inspection"
)

// OtherOption is the option key that carries a free text answer in
// select_other and rank_other fields.
const OtherOption = "OTHER"

var (
	defaultOnce sync.Once
	defaultReg  *registry.Registry[Kind]
)

// Default returns the process-wide registry seeded with the built-in kinds.
func Default() *registry.Registry[Kind] {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
	})
	return defaultReg
}

// NewRegistry returns a fresh registry holding the built-in kinds.
func NewRegistry() *registry.Registry[Kind] {
	reg := registry.New[Kind]("field")
	for _, kind := range builtins() {
		reg.MustRegister(kind.Key, kind)
	}
	return reg
}

var (
	textConditions = []string{
		conditions.Empty, conditions.NotEmpty, conditions.Equals, conditions.NotEquals,
		conditions.StartsWith, conditions.NotStartsWith, conditions.EndsWith, conditions.NotEndsWith,
		conditions.Contains, conditions.NotContains,
	}
	textValidators   = []string{validators.MinLength, validators.MaxLength, validators.Contains}
	choiceConditions = []string{conditions.Empty, conditions.NotEmpty, conditions.Equals, conditions.NotEquals}
	numberConditions = append(append([]string(nil), choiceConditions...), conditions.Greater, conditions.GreaterEqual, conditions.LesserEqual, conditions.Lesser)
	dateConditions   = append(append([]string(nil), choiceConditions...), conditions.Before, conditions.After)
	valueValidators  = []string{validators.MinValue, validators.MaxValue}
	rankValidators   = []string{validators.RankMinValue, validators.RankMaxValue}
	listExpected     = withKeys(baseExpected, "values")
	rankExpected     = withKeys(baseExpected, "values", "sum_total")
	rankOptional     = withKeys(baseOptional, "decimals")
)

func withKeys(keys []string, extra ...string) []string {
	return append(append([]string(nil), keys...), extra...)
}

func template(typ string, extra map[string]any) map[string]any {
	out := map[string]any{"id": "", "type": typ, "title": "", "required": false}
	for key, value := range extra {
		out[key] = value
	}
	return out
}

func builtins() []Kind {
	otherValues := []any{map[string]any{"key": OtherOption, "value": "Other"}}
	return []Kind{
		{
			Key: String, Name: "text",
			Expected: baseExpected, Optional: baseOptional,
			Conditions: textConditions, Validators: textValidators, Widgets: []string{"charfield", "textfield"},
			Template: template(String, nil),
			New:      newString,
		},
		{
			Key: Email, Name: "email",
			Expected: baseExpected, Optional: baseOptional,
			Conditions: textConditions, Validators: textValidators, Widgets: []string{"charfield"},
			Template: template(Email, nil),
			New:      newEmail,
		},
		{
			Key: Boolean, Name: "yes/no",
			Expected: baseExpected, Optional: baseOptional,
			Conditions: choiceConditions, Widgets: []string{"radio", "dropdown", "checkbox"},
			Template: template(Boolean, nil),
			New:      newBoolean,
		},
		{
			Key: Number, Name: "number",
			Expected: baseExpected, Optional: withKeys(baseOptional, "decimals", "prefix", "suffix"),
			Conditions: numberConditions, Validators: valueValidators, Widgets: []string{"numberfield"},
			Template: template(Number, nil),
			New:      newNumber,
		},
		{
			Key: Select, Name: "single choice",
			Expected: listExpected, Optional: baseOptional,
			Conditions: choiceConditions, Widgets: []string{"radio", "dropdown"},
			Template: template(Select, map[string]any{"values": []any{}}),
			Check:    checkOptions,
			New:      newSelect,
		},
		{
			Key: SelectOther, Name: "single choice with other",
			Expected: listExpected, Optional: baseOptional,
			Conditions: choiceConditions,
			Template:   template(SelectOther, map[string]any{"values": otherValues}),
			Check:      checkOptions,
			New:        newSelectOther,
		},
		{
			Key: Multiselect, Name: "multiple choice",
			Expected: listExpected, Optional: baseOptional,
			Conditions: append(append([]string(nil), choiceConditions...), conditions.Contains, conditions.NotContains),
			Validators: []string{validators.MinChoices, validators.MaxChoices},
			Widgets:    []string{"checkbox"},
			Template:   template(Multiselect, map[string]any{"values": []any{}}),
			Check:      checkOptions,
			New:        newMultiselect,
		},
		{
			Key: Date, Name: "date",
			Expected: baseExpected, Optional: baseOptional,
			Conditions: dateConditions, Validators: valueValidators, Widgets: []string{"calendar", "datepicker"},
			Template: template(Date, nil),
			New:      newPassthrough,
		},
		{
			Key: Datetime, Name: "date and time",
			Expected: baseExpected, Optional: baseOptional,
			Conditions: dateConditions, Validators: valueValidators,
			Template: template(Datetime, nil),
			New:      newPassthrough,
		},
		{
			Key: Rank, Name: "rank",
			Expected: rankExpected, Optional: rankOptional,
			Conditions: []string{conditions.RankCondition}, Validators: rankValidators,
			Template: template(Rank, map[string]any{"values": []any{}}),
			Check:    checkRank,
			New:      newRank(false),
		},
		{
			Key: RankOther, Name: "rank with other",
			Expected: rankExpected, Optional: rankOptional,
			Conditions: []string{conditions.RankCondition}, Validators: rankValidators,
			Template: template(RankOther, map[string]any{"values": otherValues}),
			Check:    checkRank,
			New:      newRank(true),
		},
		{
			Key: Slider, Name: "slider",
			Expected: withKeys(baseExpected, "max_value", "min_value", "step"), Optional: baseOptional,
			Conditions: numberConditions,
			Template:   template(Slider, nil),
			New:        newSlider,
		},
		{
			Key: Location, Name: "location",
			Expected: withKeys(baseExpected, "shape"), Optional: baseOptional,
			Conditions: []string{conditions.Empty, conditions.NotEmpty},
			Template:   template(Location, map[string]any{"shape": ""}),
			Check:      checkShape,
			New:        newLocation,
		},
		{
			Key: Inspection, Name: "inspection checklist",
			Expected: withKeys(baseExpected, "status_options", "checklist"), Optional: baseOptional,
			Template: template(Inspection, map[string]any{"checklist": []any{}, "status_options": map[string]any{}}),
			Check:    checkChecklist,
			New:      newInspection,
		},
	}
}
