package form

import (
	"fmt"
	"maps"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/conditions"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
)

// RequiredFieldMessage is reported for a visible required field with no answer.
const RequiredFieldMessage = "section1.errors.required_field"

// State resolves whether a field is hidden and required for answers. Field,
// section and page conditionals are applied independently and the field is
// hidden when any of the three levels is. Only field conditionals can change
// the required flag. Within a level, later matching conditionals win.
func (f *Form) State(fieldID string, answers map[string]any) (State, error) {
	if !f.IsValid() {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidForm, f.Err())
	}
	field, ok := f.fields[fieldID]
	if !ok {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownField, fieldID)
	}
	section, page, err := f.Locate(fieldID)
	if err != nil {
		return State{}, err
	}

	fieldHidden, required := field.Hidden(), field.Required()
	for _, conditional := range f.fieldConditionals[fieldID] {
		if !conditional.Evaluate(answers, false) {
			continue
		}
		fieldHidden = override(fieldHidden, conditional.State.Hidden)
		required = override(required, conditional.State.Required)
	}

	sectionHidden := hiddenFor(section.Hidden, section.conditionals, answers)
	pageHidden := hiddenFor(page.Hidden, page.conditionals, answers)

	return State{
		Hidden:   fieldHidden || sectionHidden || pageHidden,
		Required: required,
	}, nil
}

// SectionHidden resolves a section's own visibility for answers, ignoring its
// page.
func (f *Form) SectionHidden(sectionID string, answers map[string]any) (bool, error) {
	section, ok := f.sections[sectionID]
	if !ok {
		return false, fmt.Errorf("%w: unknown section %q", ErrInvalidForm, sectionID)
	}
	return hiddenFor(section.Hidden, section.conditionals, answers), nil
}

// PageHidden resolves a page's visibility for answers.
func (f *Form) PageHidden(pageID string, answers map[string]any) (bool, error) {
	page, ok := f.pages[pageID]
	if !ok {
		return false, fmt.Errorf("%w: unknown page %q", ErrInvalidForm, pageID)
	}
	return hiddenFor(page.Hidden, page.conditionals, answers), nil
}

// hiddenFor applies container conditionals. Clauses that reference a field
// without an answer evaluate to false.
func hiddenFor(hidden bool, list []conditions.Conditional, answers map[string]any) bool {
	for _, conditional := range list {
		if conditional.Evaluate(answers, true) {
			hidden = override(hidden, conditional.State.Hidden)
		}
	}
	return hidden
}

func override(current bool, next *bool) bool {
	if next == nil {
		return current
	}
	return *next
}

// CheckAnswers validates answers against the form.
//
// Fields are resolved in declaration order and answers for fields that
// resolve as hidden are deleted from the map passed in as soon as they are
// found, so conditionals of later fields no longer see them. Use Check to
// keep the caller's map untouched.
//
// Keys that match no field fail the whole call with a *formerrors.FieldError
// before any value is validated. Per field problems are returned in the
// Result, one AnswerIssue per message, in field declaration order.
func (f *Form) CheckAnswers(answers map[string]any) (Result, error) {
	if !f.IsValid() {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidForm, f.Err())
	}

	var unknown []formerrors.Message
	for _, key := range values.Keys(answers) {
		if _, ok := f.fields[key]; !ok {
			unknown = append(unknown, formerrors.Textf("Field '%s' does not match any field on the form.", key))
		}
	}
	if len(unknown) > 0 {
		return Result{}, formerrors.NewFieldError(unknown...)
	}

	// state is resolved in declaration order against the answers left so
	// far: a hidden answer is removed before later fields are resolved
	var issues []AnswerIssue
	for _, id := range f.fieldOrder {
		state, err := f.State(id, answers)
		if err != nil {
			return Result{}, err
		}
		mustAnswer := state.Required && !state.Hidden

		answer, present := answers[id]
		if !present {
			if mustAnswer {
				issues = append(issues, AnswerIssue{ID: id, Message: formerrors.Keyed(RequiredFieldMessage, nil)})
			}
			continue
		}
		if state.Hidden {
			delete(answers, id)
			continue
		}
		if answer == nil || answer == "" {
			if mustAnswer {
				issues = append(issues, AnswerIssue{ID: id, Message: formerrors.Keyed(RequiredFieldMessage, nil)})
			}
			continue
		}
		if err := f.fields[id].ValidateValue(answer); err != nil {
			for _, msg := range formerrors.MessagesOf(err) {
				issues = append(issues, AnswerIssue{ID: id, Message: msg})
			}
		}
	}

	if len(issues) > 0 {
		return Result{Result: ResultAnswerError, Errors: issues}, nil
	}
	return Result{Result: ResultOK, Message: "The answer is valid."}, nil
}

// Check validates a copy of answers and returns the effective answers, with
// hidden fields removed, alongside the result.
func (f *Form) Check(answers map[string]any) (Result, map[string]any, error) {
	effective := maps.Clone(answers)
	if effective == nil {
		effective = map[string]any{}
	}
	result, err := f.CheckAnswers(effective)
	if err != nil {
		return Result{}, nil, err
	}
	return result, effective, nil
}
