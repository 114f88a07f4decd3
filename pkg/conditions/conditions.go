// Package conditions implements the predicates conditionals evaluate against
// answers, plus the compile step that turns conditional descriptors into
// reusable evaluators.
package conditions

import (
	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/registry"
)

// Compound conditional types.
const (
	All = "all"
	Any = "any"
)

// Condition is a compiled predicate over a single answer value. A nil value
// stands for a missing answer.
type Condition interface {
	Eval(value any) bool
}

// Kind describes one registered condition type.
type Kind struct {
	Key  string
	Name string
	// Keys lists the descriptor keys the condition requires besides state.
	Keys []string
	New  func(descriptor map[string]any, reg *registry.Registry[Kind]) (Condition, error)
}

// Default returns a descriptor template for schema builders.
func (k Kind) Default() map[string]any {
	out := make(map[string]any, len(k.Keys))
	for _, key := range k.Keys {
		out[key] = ""
	}
	out["type"] = k.Key
	if _, ok := out["clauses"]; ok {
		out["clauses"] = []any{}
	}
	return out
}

// Target is the field a condition depends on.
type Target interface {
	ID() string
	Type() string
	AllowsCondition(key string) bool
}

// Resolver looks up the field a condition references.
type Resolver func(fieldID string) (Target, bool)

// State holds the overrides a conditional applies when it matches. Nil
// members leave the current flag untouched.
type State struct {
	Hidden   *bool
	Required *bool
}

// Clause is one compiled condition inside a conditional.
type Clause struct {
	Type      string
	Field     string
	Condition Condition
}

// Conditional is a compiled simple or compound conditional.
type Conditional struct {
	Type     string
	Compound bool
	State    State
	Clauses  []Clause
}

// Evaluate runs every clause against answers and folds the results. When
// missingIsFalse is set a clause whose field has no answer yields false
// instead of being evaluated against nil.
func (c Conditional) Evaluate(answers map[string]any, missingIsFalse bool) bool {
	results := make([]bool, 0, len(c.Clauses))
	for _, clause := range c.Clauses {
		answer, ok := answers[clause.Field]
		if !ok && missingIsFalse {
			results = append(results, false)
			continue
		}
		results = append(results, clause.Condition.Eval(answer))
	}
	return Result(results, c.Type)
}

// Classify splits a conditional descriptor into its conditions. Compound
// descriptors ("all"/"any") return their conditionList; simple descriptors
// return themselves.
func Classify(raw any) ([]map[string]any, bool, error) {
	descriptor, ok := values.Map(raw)
	if !ok {
		return nil, false, formerrors.NewConditionError(formerrors.Textf(
			"Conditional must be a dictionary, got '%s'", values.TypeName(raw)))
	}
	typ, ok := descriptor["type"]
	if !ok {
		return nil, false, formerrors.NewConditionError(formerrors.Textf("Conditional must have a 'type' property."))
	}
	if !isCompound(values.String(typ)) {
		return []map[string]any{descriptor}, false, nil
	}

	var messages []formerrors.Message
	for _, key := range []string{"state", "conditionList"} {
		if _, present := descriptor[key]; !present {
			messages = append(messages, formerrors.Textf("Missing required key '%s' in compound condition", key))
		}
	}
	if len(messages) > 0 {
		return nil, true, formerrors.NewConditionError(messages...)
	}

	list, ok := values.List(descriptor["conditionList"])
	if !ok {
		return nil, true, formerrors.NewConditionError(formerrors.Textf("'conditionList' property must be a list"))
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		condition, ok := values.Map(item)
		if !ok {
			return nil, true, formerrors.NewConditionError(formerrors.Textf(
				"Every element of 'conditionList' must be a dictionary"))
		}
		out = append(out, condition)
	}
	return out, true, nil
}

// Result folds clause results: "all" is a conjunction (true when empty),
// "any" a disjunction (false when empty), anything else takes the single
// clause result.
func Result(results []bool, typ string) bool {
	switch typ {
	case All:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case Any:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	default:
		if len(results) == 0 {
			return false
		}
		return results[0]
	}
}

// ValidateSchema checks a single condition descriptor against its kind's key
// set. Simple conditions additionally require a state dictionary; clauses of
// compound conditions must not carry one.
func ValidateSchema(kind Kind, descriptor map[string]any, compound bool) []formerrors.Message {
	expected := append([]string(nil), kind.Keys...)
	if !compound {
		expected = append(expected, "state")
	}
	typ := values.String(descriptor["type"])

	var messages []formerrors.Message
	for _, key := range values.Keys(descriptor) {
		if !contains(expected, key) {
			messages = append(messages, formerrors.Textf(
				"Key '%s' either doesn't belong in the '%s' condition schema or is duplicated", key, typ))
		}
	}
	for _, key := range expected {
		if _, present := descriptor[key]; !present {
			messages = append(messages, formerrors.Textf(
				"Required key '%s' missing from '%s' condition schema", key, typ))
		}
	}

	state, hasState := descriptor["state"]
	switch {
	case compound && hasState:
		messages = append(messages, formerrors.Textf(
			"Key 'state' in '%s' condition can't be present in the clauses of compound conditions.", typ))
	case !compound && hasState:
		if _, ok := values.Map(state); !ok {
			messages = append(messages, formerrors.Textf(
				"Key 'state' must be a dictionary, got '%s'.", values.TypeName(state)))
		}
	}
	return messages
}

// Compile validates a conditional descriptor and builds its evaluator. All
// problems found in the descriptor and its clauses are reported together in
// one *formerrors.ConditionError.
func Compile(reg *registry.Registry[Kind], raw any, resolve Resolver) (Conditional, error) {
	clauses, compound, err := Classify(raw)
	if err != nil {
		return Conditional{}, err
	}
	descriptor, _ := values.Map(raw)

	conditional := Conditional{
		Type:     values.String(descriptor["type"]),
		Compound: compound,
	}

	var messages []formerrors.Message
	if compound {
		state, stateMessages := parseState(descriptor["state"])
		conditional.State = state
		messages = append(messages, stateMessages...)
	}

	for _, clause := range clauses {
		typ := values.String(clause["type"])
		kind, err := reg.Get(typ)
		if err != nil {
			messages = append(messages, formerrors.Textf("Invalid condition type: '%s'", typ))
			continue
		}

		if schemaMessages := ValidateSchema(kind, clause, compound); len(schemaMessages) > 0 {
			messages = append(messages, schemaMessages...)
			continue
		}

		fieldID := values.String(clause["field"])
		if resolve != nil {
			target, ok := resolve(fieldID)
			if !ok {
				messages = append(messages, formerrors.Textf(
					"Condition depends on invalid or undefined field '%s'", fieldID))
				continue
			}
			if !target.AllowsCondition(kind.Key) {
				messages = append(messages, formerrors.Textf(
					"Field '%s' of type '%s' does not accept the '%s' condition type",
					target.ID(), target.Type(), kind.Key))
				continue
			}
		}

		condition, err := kind.New(clause, reg)
		if err != nil {
			messages = append(messages, formerrors.MessagesOf(err)...)
			continue
		}
		if !compound {
			state, _ := parseState(clause["state"])
			conditional.State = state
		}
		conditional.Clauses = append(conditional.Clauses, Clause{
			Type:      kind.Key,
			Field:     fieldID,
			Condition: condition,
		})
	}

	if len(messages) > 0 {
		return Conditional{}, formerrors.NewConditionError(messages...)
	}
	return conditional, nil
}

// CompileAll compiles a conditionals list, collecting the messages of every
// failing entry.
func CompileAll(reg *registry.Registry[Kind], raw any, resolve Resolver) ([]Conditional, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := values.List(raw)
	if !ok {
		return nil, formerrors.NewConditionError(formerrors.Textf(
			"'conditionals' property must be a list, got '%s'", values.TypeName(raw)))
	}
	var (
		out      []Conditional
		messages []formerrors.Message
	)
	for _, item := range list {
		conditional, err := Compile(reg, item, resolve)
		if err != nil {
			messages = append(messages, formerrors.MessagesOf(err)...)
			continue
		}
		out = append(out, conditional)
	}
	if len(messages) > 0 {
		return nil, formerrors.NewConditionError(messages...)
	}
	return out, nil
}

// Names lists the keys registered in reg.
func Names(reg *registry.Registry[Kind]) []string {
	return reg.List()
}

func parseState(raw any) (State, []formerrors.Message) {
	state, ok := values.Map(raw)
	if !ok {
		return State{}, []formerrors.Message{formerrors.Textf(
			"Key 'state' must be a dictionary, got '%s'.", values.TypeName(raw))}
	}
	var out State
	if hidden, ok := state["hidden"]; ok {
		flag := values.Bool(hidden)
		out.Hidden = &flag
	}
	if required, ok := state["required"]; ok {
		flag := values.Bool(required)
		out.Required = &flag
	}
	return out, nil
}

func isCompound(typ string) bool {
	return typ == All || typ == Any
}

func contains(list []string, key string) bool {
	for _, candidate := range list {
		if candidate == key {
			return true
		}
	}
	return false
}
