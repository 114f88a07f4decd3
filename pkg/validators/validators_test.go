package validators_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

type stubOwner struct {
	allowed map[string]bool
}

func (stubOwner) ID() string                        { return "q1" }
func (stubOwner) Type() string                      { return "string" }
func (o stubOwner) AllowsValidator(key string) bool { return o.allowed[key] }

func allowAll() stubOwner {
	allowed := make(map[string]bool)
	for _, key := range validators.Names(validators.Default()) {
		allowed[key] = true
	}
	return stubOwner{allowed: allowed}
}

func TestBuild_RejectsMalformedDescriptors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{
			name: "not an object",
			raw:  "minLength",
			want: []string{"Validator definition must be a dictionary, got 'string'"},
		},
		{
			name: "unknown type",
			raw:  map[string]any{"type": "regex", "value": ".*"},
			want: []string{"Invalid validator type: 'regex'"},
		},
		{
			name: "extra and missing keys",
			raw:  map[string]any{"type": "minLength", "limit": 2},
			want: []string{
				"Key 'limit' either doesn't belong in the schema or is duplicated",
				"Required key 'value' missing from the schema",
			},
		},
		{
			name: "non integer bound",
			raw:  map[string]any{"type": "maxLength", "value": "ten"},
			want: []string{"Value for Max Length validator must be 'integer', got 'string'"},
		},
		{
			name: "file types requires list",
			raw:  map[string]any{"type": "fileTypes", "value": "pdf"},
			want: []string{"Value for File Types validator must be 'list', got 'string'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validators.Build(validators.Default(), tt.raw, allowAll())
			var validationErr *formerrors.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if diff := cmp.Diff(tt.want, texts(validationErr.Messages)); diff != "" {
				t.Fatalf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_RejectsValidatorNotAllowedByOwner(t *testing.T) {
	owner := stubOwner{allowed: map[string]bool{validators.MinLength: true}}
	_, err := validators.Build(validators.Default(), map[string]any{"type": "minValue", "value": 3}, owner)
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "validation error: Field 'q1' of type 'string' does not accept the 'minValue' validator type"
	if err.Error() != want {
		t.Fatalf("unexpected error: %q", err.Error())
	}
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		answer any
		want   *formerrors.Message
	}{
		{"min length ok", map[string]any{"type": "minLength", "value": 3}, "abc", nil},
		{"min length short", map[string]any{"type": "minLength", "value": "3"}, "ab",
			&formerrors.Message{ID: "section1.errors.min_length", Values: map[string]any{"min": 3, "answer": 2}}},
		{"max length long", map[string]any{"type": "maxLength", "value": 2}, "abc",
			&formerrors.Message{ID: "section1.errors.max_length", Values: map[string]any{"max": 2, "answer": 3}}},
		{"min choices", map[string]any{"type": "minChoices", "value": 2}, []any{"A"},
			&formerrors.Message{ID: "section1.errors.min_choices", Values: map[string]any{"min": 2, "answer": 1}}},
		{"max choices ok", map[string]any{"type": "maxChoices", "value": 2}, []any{"A", "B"}, nil},
		{"min value", map[string]any{"type": "minValue", "value": 10}, float64(9.7),
			&formerrors.Message{ID: "section1.errors.min_value", Values: map[string]any{"min": 10, "answer": 9}}},
		{"max value ok", map[string]any{"type": "maxValue", "value": 10}, "10", nil},
		{"contains", map[string]any{"type": "contains", "value": "foo"}, "a bar",
			&formerrors.Message{ID: "section1.errors.contains", Values: map[string]any{"word": "foo"}}},
		{"contains ok", map[string]any{"type": "contains", "value": "foo"}, "a food", nil},
		{"max size never rejects", map[string]any{"type": "maxSize", "value": 1}, "huge", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator, err := validators.Build(validators.Default(), tt.raw, allowAll())
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			err = validator.Validate(tt.answer)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fieldErr *formerrors.FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got %v", err)
			}
			if diff := cmp.Diff([]formerrors.Message{*tt.want}, fieldErr.Messages); diff != "" {
				t.Fatalf("message mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_RankBoundsUnwrapNestedOther(t *testing.T) {
	validator, err := validators.Build(validators.Default(), map[string]any{"type": "rankMaxValue", "value": 50}, allowAll())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ok := map[string]any{"A": 50, "B": nil, "OTHER": map[string]any{"value": 10, "new_option": "x"}}
	if err := validator.Validate(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tooHigh := map[string]any{"A": 10, "OTHER": map[string]any{"value": float64(70), "new_option": "x"}}
	err = validator.Validate(tooHigh)
	want := []formerrors.Message{{ID: "section1.errors.rank_field.max_value", Values: map[string]any{"max": 50, "answer": 70}}}
	if diff := cmp.Diff(want, formerrors.MessagesOf(err)); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildAll_CollectsEveryDescriptorError(t *testing.T) {
	raw := []any{
		map[string]any{"type": "minLength", "value": 1},
		map[string]any{"type": "nope", "value": 1},
		map[string]any{"type": "maxLength", "value": "x"},
	}
	_, err := validators.BuildAll(validators.Default(), raw, allowAll())
	got := texts(formerrors.MessagesOf(err))
	want := []string{
		"Invalid validator type: 'nope'",
		"Value for Max Length validator must be 'integer', got 'string'",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	list, err := validators.BuildAll(validators.Default(), []any{
		map[string]any{"type": "minLength", "value": 5},
		map[string]any{"type": "contains", "value": "z"},
	}, allowAll())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	messages := formerrors.MessagesOf(validators.Run(list, "abc"))
	if len(messages) != 1 || messages[0].ID != "section1.errors.min_length" {
		t.Fatalf("expected only the first failure, got %#v", messages)
	}
}

func TestKindDefault(t *testing.T) {
	kind := validators.Default().MustGet(validators.FileTypes)
	want := map[string]any{"type": "fileTypes", "value": []any{}}
	if diff := cmp.Diff(want, kind.Default()); diff != "" {
		t.Fatalf("default mismatch (-want +got):\n%s", diff)
	}
}

func texts(messages []formerrors.Message) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, msg.String())
	}
	return out
}
