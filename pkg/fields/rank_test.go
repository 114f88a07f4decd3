package fields_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRank_SumMustMatchTotal(t *testing.T) {
	field := build(t, descriptor("rank", map[string]any{"values": options("A", "B"), "sum_total": 100}))

	if got := validate(field, map[string]any{"A": 60, "B": 40}); got != nil {
		t.Fatalf("expected 60/40 to be valid, got %v", got)
	}

	got := validate(field, map[string]any{"A": 60, "B": 30})
	if diff := cmp.Diff([]string{"section1.errors.rank_field.add (total=100)"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRank_EntryErrors(t *testing.T) {
	field := build(t, descriptor("rank", map[string]any{"values": options("A", "B"), "sum_total": 10}))

	got := validate(field, map[string]any{"A": "x", "B": 2.5, "Z": 0})
	want := []string{
		"Answer for option 'A' must be a number",
		"section1.errors.rank_field.only_integer (option=B)",
		"'Z' is not a correct option value",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRank_DecimalsAndValidators(t *testing.T) {
	field := build(t, descriptor("rank", map[string]any{
		"values":     options("A", "B"),
		"sum_total":  10,
		"decimals":   true,
		"validators": []any{map[string]any{"type": "rankMaxValue", "value": 6}},
	}))
	if got := validate(field, map[string]any{"A": 4.5, "B": 5.5}); got != nil {
		t.Fatalf("expected decimals to be accepted, got %v", got)
	}
	got := validate(field, map[string]any{"A": 7, "B": 3})
	if diff := cmp.Diff([]string{"section1.errors.rank_field.max_value (answer=7, max=6)"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRankOther_NestedOtherOption(t *testing.T) {
	field := build(t, descriptor("rank_other", map[string]any{"values": options("A", "OTHER"), "sum_total": 100}))

	ok := map[string]any{"A": 70, "OTHER": map[string]any{"value": 30, "new_option": "Trains"}}
	if got := validate(field, ok); got != nil {
		t.Fatalf("expected valid answer, got %v", got)
	}

	missingLabel := map[string]any{"A": 70, "OTHER": map[string]any{"value": 30}}
	if diff := cmp.Diff([]string{"section1.errors.other_option"}, validate(field, missingLabel)); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}

	emptyOther := map[string]any{"A": 100, "OTHER": map[string]any{"value": 0}}
	if got := validate(field, emptyOther); got != nil {
		t.Fatalf("expected zero OTHER without label to be valid, got %v", got)
	}
}
