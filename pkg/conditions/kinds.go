package conditions

import (
	"regexp"
	"strings"
	"sync"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/registry"
)

// Registered condition keys.
const (
	Empty         = "empty"
	NotEmpty      = "notEmpty"
	Equals        = "equals"
	NotEquals     = "notEquals"
	Contains      = "contains"
	NotContains   = "notContains"
	StartsWith    = "startsWith"
	NotStartsWith = "notStartsWith"
	EndsWith      = "endsWith"
	NotEndsWith   = "notEndsWith"
	Greater       = "greater"
	GreaterEqual  = "greaterEqual"
	Lesser        = "lesser"
	LesserEqual   = "lesserEqual"
	Before        = "before"
	After         = "after"
	MaxDistanceTo = "maxDistanceTo"
	MinDistanceTo = "minDistanceTo"
	RankCondition = "rankCondition"
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

// NewRegistry returns a fresh registry holding the built-in kinds.
func NewRegistry() *registry.Registry[Kind] {
	reg := registry.New[Kind]("condition")
	for _, kind := range builtins() {
		reg.MustRegister(kind.Key, kind)
	}
	return reg
}

var (
	fieldOnly  = []string{"type", "field"}
	fieldValue = []string{"type", "field", "value"}
)

func builtins() []Kind {
	return []Kind{
		{Key: Empty, Name: "empty", Keys: fieldOnly, New: simple(func(any) Condition { return emptiness{want: true} })},
		{Key: NotEmpty, Name: "not empty", Keys: fieldOnly, New: simple(func(any) Condition { return emptiness{want: false} })},
		{Key: Equals, Name: "equals", Keys: fieldValue, New: simple(func(v any) Condition { return equals{value: v} })},
		{Key: NotEquals, Name: "not equals", Keys: fieldValue, New: simple(func(v any) Condition { return notEquals{value: v} })},
		{Key: Contains, Name: "contains", Keys: fieldValue, New: simple(func(v any) Condition { return containment{value: v} })},
		{Key: NotContains, Name: "does not contain", Keys: fieldValue, New: simple(func(v any) Condition { return containment{value: v, negate: true} })},
		{Key: StartsWith, Name: "starts with", Keys: fieldValue, New: simple(func(v any) Condition { return anchored(v, true, false) })},
		{Key: NotStartsWith, Name: "does not start with", Keys: fieldValue, New: simple(func(v any) Condition { return anchored(v, true, true) })},
		{Key: EndsWith, Name: "ends with", Keys: fieldValue, New: simple(func(v any) Condition { return anchored(v, false, false) })},
		{Key: NotEndsWith, Name: "does not end with", Keys: fieldValue, New: simple(func(v any) Condition { return anchored(v, false, true) })},
		comparison(Greater, "greater than", func(a, b float64) bool { return a > b }),
		comparison(GreaterEqual, "greater than or equal to", func(a, b float64) bool { return a >= b }),
		comparison(Lesser, "less than", func(a, b float64) bool { return a < b }),
		comparison(LesserEqual, "less than or equal to", func(a, b float64) bool { return a <= b }),
		// Date and distance predicates are evaluated by clients; the engine
		// treats them as always matching.
		{Key: Before, Name: "before", Keys: fieldValue, New: simple(func(any) Condition { return always{} })},
		{Key: After, Name: "after", Keys: fieldValue, New: simple(func(any) Condition { return always{} })},
		{Key: MaxDistanceTo, Name: "max distance to", Keys: fieldValue, New: simple(func(any) Condition { return always{} })},
		{Key: MinDistanceTo, Name: "min distance to", Keys: fieldValue, New: simple(func(any) Condition { return always{} })},
		{Key: RankCondition, Name: "rank options condition", Keys: []string{"type", "field", "clauses"}, New: newRank},
	}
}

func simple(build func(value any) Condition) func(map[string]any, *registry.Registry[Kind]) (Condition, error) {
	return func(descriptor map[string]any, _ *registry.Registry[Kind]) (Condition, error) {
		return build(descriptor["value"]), nil
	}
}

type always struct{}

func (always) Eval(any) bool { return true }

type emptiness struct {
	want bool
}

func (e emptiness) Eval(value any) bool {
	if list, ok := values.List(value); ok {
		return (len(list) == 0) == e.want
	}
	isEmpty := value == nil || value == ""
	return isEmpty == e.want
}

// optionOf unwraps select-with-other style answers.
func optionOf(value any) any {
	m, ok := values.Map(value)
	if !ok {
		return value
	}
	if option, ok := m["option"]; ok {
		return option
	}
	return m["value"]
}

type equals struct {
	value any
}

func (e equals) Eval(value any) bool {
	if list, ok := values.List(value); ok {
		if len(list) > 1 {
			return false
		}
		return values.Contains(list, e.value)
	}
	value = optionOf(value)
	return values.Equal(value, e.value) || values.String(value) == values.String(e.value)
}

type notEquals struct {
	value any
}

func (n notEquals) Eval(value any) bool {
	if value == nil {
		return true
	}
	if list, ok := values.List(value); ok {
		if len(list) > 1 {
			return true
		}
		return !values.Contains(list, n.value)
	}
	return values.String(optionOf(value)) != values.String(n.value)
}

type containment struct {
	value  any
	negate bool
}

func (c containment) Eval(value any) bool {
	if value == nil {
		return c.negate
	}
	return c.holds(value) != c.negate
}

func (c containment) holds(value any) bool {
	needle := values.String(c.value)
	if list, ok := values.List(value); ok {
		for _, item := range list {
			if values.String(item) == needle {
				return true
			}
		}
		return false
	}
	if m, ok := values.Map(value); ok {
		_, found := m[needle]
		return found
	}
	if s, ok := value.(string); ok {
		return strings.Contains(s, needle)
	}
	return false
}

type pattern struct {
	expr   *regexp.Regexp
	negate bool
}

// anchored builds a case-insensitive prefix or suffix match. The configured
// value is used as a regular expression; values that do not compile are
// matched literally.
func anchored(value any, prefix, negate bool) Condition {
	fragment := values.String(value)
	build := func(fragment string) string {
		if prefix {
			return "(?i)^" + fragment + ".*"
		}
		return "(?i)^.*" + fragment + "$"
	}
	expr, err := regexp.Compile(build(fragment))
	if err != nil {
		expr = regexp.MustCompile(build(regexp.QuoteMeta(fragment)))
	}
	return pattern{expr: expr, negate: negate}
}

func (p pattern) Eval(value any) bool {
	if value == nil {
		return p.negate
	}
	return p.expr.MatchString(values.String(value)) != p.negate
}

type numeric struct {
	limit   float64
	compare func(answer, limit float64) bool
}

func (n numeric) Eval(value any) bool {
	if value == nil {
		return false
	}
	answer, ok := values.Float(value)
	if !ok {
		return false
	}
	return n.compare(answer, n.limit)
}

func comparison(key, name string, compare func(answer, limit float64) bool) Kind {
	return Kind{
		Key:  key,
		Name: name,
		Keys: fieldValue,
		New: func(descriptor map[string]any, _ *registry.Registry[Kind]) (Condition, error) {
			limit, ok := values.Int(descriptor["value"])
			if !ok {
				return nil, formerrors.NewConditionError(formerrors.Textf(
					"Value for '%s' condition must be an 'integer', got '%s'", key, values.TypeName(descriptor["value"])))
			}
			return numeric{limit: float64(limit), compare: compare}, nil
		},
	}
}

type rankClause struct {
	option    string
	condition Condition
}

type rank struct {
	clauses []rankClause
}

// Eval ANDs every clause. Each clause reads its option from the rank answer;
// absent options evaluate against nil.
func (r rank) Eval(value any) bool {
	answers, _ := values.Map(value)
	result := true
	for _, clause := range r.clauses {
		var optionValue any
		if answers != nil {
			optionValue = answers[clause.option]
		}
		result = clause.condition.Eval(optionValue) && result
	}
	return result
}

var rankClauseKeys = []string{"option", "operator", "value"}

func newRank(descriptor map[string]any, reg *registry.Registry[Kind]) (Condition, error) {
	list, ok := values.List(descriptor["clauses"])
	if !ok {
		return nil, formerrors.NewConditionError(formerrors.Textf(
			"Key 'clauses' in 'rankCondition' condition must be a list, got '%s'", values.TypeName(descriptor["clauses"])))
	}

	var (
		out      rank
		messages []formerrors.Message
	)
	for _, item := range list {
		clause, ok := values.Map(item)
		if !ok {
			messages = append(messages, formerrors.Textf(
				"Every rank clause must be a dictionary, got '%s'", values.TypeName(item)))
			continue
		}
		missing := false
		for _, key := range rankClauseKeys {
			if _, present := clause[key]; !present {
				messages = append(messages, formerrors.Textf("Required key '%s' missing from rank clause", key))
				missing = true
			}
		}
		if missing {
			continue
		}

		operator := values.String(clause["operator"])
		kind, err := reg.Get(operator)
		if err != nil || operator == RankCondition {
			messages = append(messages, formerrors.Textf("Invalid condition type: '%s'", operator))
			continue
		}
		condition, err := kind.New(map[string]any{"type": operator, "value": clause["value"]}, reg)
		if err != nil {
			messages = append(messages, formerrors.MessagesOf(err)...)
			continue
		}
		out.clauses = append(out.clauses, rankClause{
			option:    values.String(clause["option"]),
			condition: condition,
		})
	}
	if len(messages) > 0 {
		return nil, formerrors.NewConditionError(messages...)
	}
	return out, nil
}
