package widgets_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
	"github.com/goliatone/go-pulpoforms/pkg/widgets"
)

func build(t *testing.T, descriptor map[string]any) fields.Field {
	t.Helper()
	field, err := fields.Build(fields.Default(), validators.Default(), descriptor)
	if err != nil {
		t.Fatalf("build field: %v", err)
	}
	return field
}

func field(typ, id string, extra map[string]any) map[string]any {
	out := map[string]any{"id": id, "type": typ, "title": id, "required": false}
	for key, value := range extra {
		out[key] = value
	}
	return out
}

func options(keys ...string) []any {
	out := make([]any, 0, len(keys))
	for _, key := range keys {
		out = append(out, map[string]any{"key": key, "value": key})
	}
	return out
}

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := widgets.NewRegistry()
	f := build(t, field("boolean", "agree", map[string]any{"widget": map[string]any{"type": "checkbox"}}))

	if got, ok := reg.Resolve(f); !ok || got != widgets.WidgetCheckbox {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := widgets.NewRegistry()

	cases := []struct {
		name       string
		descriptor map[string]any
		expect     string
	}{
		{"boolean radio", field("boolean", "b", nil), widgets.WidgetRadio},
		{"short select radio", field("select", "s", map[string]any{"values": options("a", "b")}), widgets.WidgetRadio},
		{"long select dropdown", field("select", "s", map[string]any{"values": options("a", "b", "c", "d", "e", "f")}), widgets.WidgetDropdown},
		{"multiselect checkbox", field("multiselect", "m", map[string]any{"values": options("a", "b", "c", "d", "e", "f")}), widgets.WidgetCheckbox},
		{"string charfield", field("string", "t", nil), widgets.WidgetCharfield},
		{"long string textfield", field("string", "t", map[string]any{
			"validators": []any{map[string]any{"type": "maxLength", "value": 2000}},
		}), widgets.WidgetTextfield},
		{"number", field("number", "n", nil), widgets.WidgetNumberfield},
		{"date", field("date", "d", nil), widgets.WidgetDatepicker},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := reg.Resolve(build(t, tc.descriptor))
			if !ok || got != tc.expect {
				t.Fatalf("expected %q, got %q (ok=%v)", tc.expect, got, ok)
			}
		})
	}
}

func TestResolve_OnlyAllowedWidgets(t *testing.T) {
	reg := widgets.NewRegistry()
	reg.Register("map", 100, func(fields.Field) bool { return true })

	location := build(t, field("location", "where", map[string]any{"shape": "Point"}))
	if got, ok := reg.Resolve(location); ok {
		t.Fatalf("expected no widget for location, got %q", got)
	}
}

func TestResolveAll(t *testing.T) {
	reg := widgets.NewRegistry()
	list := []fields.Field{
		build(t, field("string", "name", nil)),
		build(t, field("rank", "rank", map[string]any{"values": options("a"), "sum_total": 10})),
	}
	want := map[string]string{"name": widgets.WidgetCharfield}
	if diff := cmp.Diff(want, reg.ResolveAll(list)); diff != "" {
		t.Fatalf("widgets mismatch (-want +got):\n%s", diff)
	}
}
