package fields_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

func build(t *testing.T, descriptor map[string]any) fields.Field {
	t.Helper()
	field, err := fields.Build(fields.Default(), validators.Default(), descriptor)
	if err != nil {
		t.Fatalf("build %v: %v", descriptor["type"], err)
	}
	return field
}

func buildErr(t *testing.T, descriptor map[string]any) []string {
	t.Helper()
	_, err := fields.Build(fields.Default(), validators.Default(), descriptor)
	var fieldErr *formerrors.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	return texts(fieldErr.Messages)
}

func descriptor(typ string, extra map[string]any) map[string]any {
	out := map[string]any{"type": typ, "id": "q1", "title": "Question", "required": true}
	for key, value := range extra {
		out[key] = value
	}
	return out
}

func texts(messages []formerrors.Message) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, msg.String())
	}
	return out
}

func validate(field fields.Field, answer any) []string {
	err := field.ValidateValue(answer)
	if err == nil {
		return nil
	}
	return texts(formerrors.MessagesOf(err))
}

func TestBuild_SchemaKeyErrorsAreBatched(t *testing.T) {
	got := buildErr(t, map[string]any{"type": "string", "id": "q1", "label": "x", "color": "red"})
	want := []string{
		"Key 'color' either doesn't belong in the field schema or is duplicated",
		"Key 'label' either doesn't belong in the field schema or is duplicated",
		"Required key 'title' is missing from the field schema",
		"Required key 'required' is missing from the field schema",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_UnknownAndMissingType(t *testing.T) {
	if diff := cmp.Diff([]string{"Invalid field type: 'colour'"}, buildErr(t, descriptor("colour", nil))); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	got := buildErr(t, map[string]any{"id": "q1", "title": "x", "required": false})
	if diff := cmp.Diff([]string{"Required key 'type' is missing from the field schema"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_WidgetRules(t *testing.T) {
	tests := []struct {
		name   string
		widget any
		want   []string
	}{
		{"not an object", "textfield", []string{"Invalid 'widget' definition, expected 'dictionary', got 'string'"}},
		{"no type", map[string]any{"rows": 3}, []string{"Invalid 'widget' definition"}},
		{"not allowed", map[string]any{"type": "slider"}, []string{"Field 'q1' of type 'string' does not accept the 'slider' widget type"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildErr(t, descriptor("string", map[string]any{"widget": tt.widget}))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}

	field := build(t, descriptor("string", map[string]any{"widget": map[string]any{"type": "textfield"}}))
	if field.Widget() != "textfield" {
		t.Fatalf("expected textfield widget, got %q", field.Widget())
	}
}

func TestBuild_ValidatorErrorsBecomeFieldErrors(t *testing.T) {
	got := buildErr(t, descriptor("boolean", map[string]any{
		"validators": []any{map[string]any{"type": "minLength", "value": 2}},
	}))
	want := []string{"Field 'q1' of type 'boolean' does not accept the 'minLength' validator type"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestListFieldValues(t *testing.T) {
	got := buildErr(t, descriptor("select", map[string]any{"values": "A,B"}))
	if diff := cmp.Diff([]string{"'values' property must be a list"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}

	got = buildErr(t, descriptor("select", map[string]any{"values": []any{
		"A",
		map[string]any{"key": "B", "label": "b"},
		map[string]any{"key": "C", "value": "c"},
		map[string]any{"key": "C", "value": "c again"},
	}}))
	want := []string{
		"Every element of 'values' property must be a dictionary",
		"Key 'label' doesn't belong in field values schema",
		"Required key 'value' missing in field values schema",
		"Option key 'C' is defined more than once",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func options(keys ...string) []any {
	out := make([]any, 0, len(keys))
	for _, key := range keys {
		out = append(out, map[string]any{"key": key, "value": key + " label"})
	}
	return out
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name   string
		field  map[string]any
		answer any
		want   []string
	}{
		{"string runs validators", descriptor("string", map[string]any{
			"validators": []any{map[string]any{"type": "maxLength", "value": 3}},
		}), "abcd", []string{"section1.errors.max_length (answer=4, max=3)"}},
		{"email ok", descriptor("email", nil), "a@b.io", nil},
		{"email invalid", descriptor("email", nil), "nope", []string{"section1.errors.invalid_email (answer=nope)"}},
		{"boolean ok", descriptor("boolean", nil), false, nil},
		{"boolean wrong type", descriptor("boolean", nil), "yes", []string{"Expected boolean value, got 'string'"}},
		{"number not a number", descriptor("number", nil), "abc", []string{"'abc' is not a number"}},
		{"number integer only", descriptor("number", nil), 2.5, []string{"section1.errors.only_integer (answer=2.5)"}},
		{"number decimals", descriptor("number", map[string]any{"decimals": true}), 2.5, nil},
		{"number validators", descriptor("number", map[string]any{
			"validators": []any{map[string]any{"type": "minValue", "value": 10}},
		}), "7", []string{"section1.errors.min_value (answer=7, min=10)"}},
		{"select ok", descriptor("select", map[string]any{"values": options("A", "B")}), "B", nil},
		{"select invalid", descriptor("select", map[string]any{"values": options("A", "B")}), "C", []string{"'C' is not a correct option value"}},
		{"select other requires answer", descriptor("select_other", map[string]any{"values": options("A", "OTHER")}),
			map[string]any{"option": "OTHER", "answer": ""}, []string{"section1.errors.other_option"}},
		{"select other ok", descriptor("select_other", map[string]any{"values": options("A", "OTHER")}),
			map[string]any{"option": "OTHER", "answer": "mine"}, nil},
		{"select other unknown option", descriptor("select_other", map[string]any{"values": options("A", "OTHER")}),
			map[string]any{"option": "Z"}, []string{"'Z' is not a correct option value"}},
		{"multiselect collects invalid", descriptor("multiselect", map[string]any{"values": options("A", "B")}),
			[]any{"A", "X", "Y"}, []string{"'X' is not a correct option value", "'Y' is not a correct option value"}},
		{"multiselect choices", descriptor("multiselect", map[string]any{
			"values":     options("A", "B"),
			"validators": []any{map[string]any{"type": "maxChoices", "value": 1}},
		}), []any{"A", "B"}, []string{"section1.errors.max_choices (answer=2, max=1)"}},
		{"slider", descriptor("slider", map[string]any{"max_value": 10, "min_value": 0, "step": 1}), "x", []string{"'x' is not a number"}},
		{"date passes through", descriptor("date", nil), "not a date", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := build(t, tt.field)
			if diff := cmp.Diff(tt.want, validate(field, tt.answer)); diff != "" {
				t.Fatalf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAllowedSetsAreConstantPerKind(t *testing.T) {
	str := build(t, descriptor("string", nil))
	email := build(t, descriptor("email", nil))
	if !str.AllowsWidget("textfield") || email.AllowsWidget("textfield") {
		t.Fatalf("string and email widget sets must be independent")
	}
	rank := build(t, descriptor("rank", map[string]any{"values": options("A"), "sum_total": 10}))
	if !rank.AllowsCondition("rankCondition") || rank.AllowsCondition("equals") {
		t.Fatalf("unexpected rank conditions")
	}
}

func TestKindDefaults(t *testing.T) {
	kind := fields.Default().MustGet(fields.SelectOther)
	want := map[string]any{
		"id": "", "type": "select_other", "title": "", "required": false,
		"values": []any{map[string]any{"key": "OTHER", "value": "Other"}},
	}
	if diff := cmp.Diff(want, kind.Default()); diff != "" {
		t.Fatalf("default mismatch (-want +got):\n%s", diff)
	}

	names := fields.Names(fields.Default())
	if len(names) != 14 || names[0] != "boolean" {
		t.Fatalf("unexpected names: %v", names)
	}
}
