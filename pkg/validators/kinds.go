package validators

import (
	"strings"
	"sync"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/registry"
)

// Registered validator keys.
const (
	MinLength    = "minLength"
	MaxLength    = "maxLength"
	MinChoices   = "minChoices"
	MaxChoices   = "maxChoices"
	Contains     = "contains"
	MinValue     = "minValue"
	MaxValue     = "maxValue"
	RankMinValue = "rankMinValue"
	RankMaxValue = "rankMaxValue"
	MaxSize      = "maxSize"
	FileTypes    = "fileTypes"
)

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

// NewRegistry returns a fresh registry holding the built-in kinds. Callers may
// register additional kinds on it.
func NewRegistry() *registry.Registry[Kind] {
	reg := registry.New[Kind]("validator")
	for _, kind := range builtins() {
		reg.MustRegister(kind.Key, kind)
	}
	return reg
}

func builtins() []Kind {
	return []Kind{
		lengthKind(MinLength, "Min Length", "section1.errors.min_length", "min", false),
		lengthKind(MaxLength, "Max Length", "section1.errors.max_length", "max", true),
		lengthKind(MinChoices, "Min Choices", "section1.errors.min_choices", "min", false),
		lengthKind(MaxChoices, "Max Choices", "section1.errors.max_choices", "max", true),
		{
			Key:          Contains,
			Name:         "Contains",
			Expects:      "string",
			DefaultValue: "",
			Check:        isString,
			New: func(value any) Validator {
				return containsValidator{word: values.String(value)}
			},
		},
		valueKind(MinValue, "Min Value", "section1.errors.min_value", "min", false),
		valueKind(MaxValue, "Max Value", "section1.errors.max_value", "max", true),
		rankKind(RankMinValue, "Rank Min Value", "section1.errors.rank_field.min_value", "min", false),
		rankKind(RankMaxValue, "Rank Max Value", "section1.errors.rank_field.max_value", "max", true),
		{
			Key:          MaxSize,
			Name:         "Max Size",
			Expects:      "integer",
			DefaultValue: "",
			Check:        isInteger,
			New:          func(any) Validator { return passthrough{key: MaxSize} },
		},
		{
			Key:          FileTypes,
			Name:         "File Types",
			Expects:      "list",
			DefaultValue: []any{},
			Check: func(value any) bool {
				_, ok := values.List(value)
				return ok
			},
			New: func(any) Validator { return passthrough{key: FileTypes} },
		},
	}
}

func isInteger(value any) bool {
	_, ok := values.Int(value)
	return ok
}

func isString(value any) bool {
	_, ok := value.(string)
	return ok
}

// bound compares an integer measure of the answer against a limit.
type bound struct {
	key       string
	messageID string
	limitName string
	limit     int
	upper     bool
	measure   func(answer any) (int, bool)
}

func (b bound) Key() string { return b.key }

func (b bound) Validate(answer any) error {
	measured, ok := b.measure(answer)
	if !ok {
		return formerrors.NewFieldError(formerrors.Textf(
			"Validator '%s' cannot be applied to a '%s' value", b.key, values.TypeName(answer)))
	}
	if b.violates(measured) {
		return formerrors.NewFieldError(formerrors.Keyed(b.messageID, map[string]any{
			b.limitName: b.limit,
			"answer":    measured,
		}))
	}
	return nil
}

func (b bound) violates(measured int) bool {
	if b.upper {
		return measured > b.limit
	}
	return measured < b.limit
}

func lengthKind(key, name, messageID, limitName string, upper bool) Kind {
	return Kind{
		Key:          key,
		Name:         name,
		Expects:      "integer",
		DefaultValue: "",
		Check:        isInteger,
		New: func(value any) Validator {
			limit, _ := values.Int(value)
			return bound{key: key, messageID: messageID, limitName: limitName, limit: limit, upper: upper, measure: values.Length}
		},
	}
}

func valueKind(key, name, messageID, limitName string, upper bool) Kind {
	return Kind{
		Key:          key,
		Name:         name,
		Expects:      "integer",
		DefaultValue: "",
		Check:        isInteger,
		New: func(value any) Validator {
			limit, _ := values.Int(value)
			return bound{key: key, messageID: messageID, limitName: limitName, limit: limit, upper: upper, measure: truncated}
		},
	}
}

// truncated reads an answer as a whole number, dropping any fraction.
func truncated(answer any) (int, bool) {
	f, ok := values.Float(answer)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// rankBound applies a bound to every option of a rank answer. Options whose
// value is nested ({value, new_option}) are unwrapped first; empty options are
// skipped.
type rankBound struct {
	bound
}

func (r rankBound) Validate(answer any) error {
	options, ok := values.Map(answer)
	if !ok {
		return formerrors.NewFieldError(formerrors.Textf(
			"Validator '%s' cannot be applied to a '%s' value", r.key, values.TypeName(answer)))
	}
	for _, option := range values.Keys(options) {
		value := options[option]
		if nested, ok := values.Map(value); ok {
			value = nested["value"]
		}
		if value == nil {
			continue
		}
		if err := r.bound.Validate(value); err != nil {
			return err
		}
	}
	return nil
}

func rankKind(key, name, messageID, limitName string, upper bool) Kind {
	return Kind{
		Key:          key,
		Name:         name,
		Expects:      "integer",
		DefaultValue: "",
		Check:        isInteger,
		New: func(value any) Validator {
			limit, _ := values.Int(value)
			return rankBound{bound{key: key, messageID: messageID, limitName: limitName, limit: limit, upper: upper, measure: truncated}}
		},
	}
}

type containsValidator struct {
	word string
}

func (c containsValidator) Key() string { return Contains }

func (c containsValidator) Validate(answer any) error {
	var found bool
	switch typed := answer.(type) {
	case string:
		found = strings.Contains(typed, c.word)
	default:
		if list, ok := values.List(answer); ok {
			found = values.Contains(list, c.word)
		}
	}
	if !found {
		return formerrors.NewFieldError(formerrors.Keyed("section1.errors.contains", map[string]any{
			"word": c.word,
		}))
	}
	return nil
}

// passthrough carries configuration consumed by upload handling outside the
// engine; answers are never rejected by it.
type passthrough struct {
	key string
}

func (p passthrough) Key() string { return p.key }

func (passthrough) Validate(any) error { return nil }
