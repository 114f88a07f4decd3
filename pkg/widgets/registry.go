// Package widgets picks the input widget a client should render for a field.
// A widget declared in the schema always wins; otherwise registered matchers
// are tried by priority and only widgets the field type accepts are chosen.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// Built-in widget identifiers.
const (
	WidgetCharfield   = "charfield"
	WidgetTextfield   = "textfield"
	WidgetRadio       = "radio"
	WidgetDropdown    = "dropdown"
	WidgetCheckbox    = "checkbox"
	WidgetNumberfield = "numberfield"
	WidgetCalendar    = "calendar"
	WidgetDatepicker  = "datepicker"
)

// Thresholds used by the built-in matchers.
const (
	DropdownMinOptions = 6
	TextfieldMinLength = 256
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field fields.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields based on explicit declarations or
// registered matchers. Higher priority wins; ties fall back to registration
// order. An empty registry only honours explicit widgets.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget for a field.
func (r *Registry) Resolve(field fields.Field) (string, bool) {
	if field == nil {
		return "", false
	}
	if explicit := field.Widget(); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if field.AllowsWidget(entry.name) && entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// ResolveAll maps field ids to their resolved widgets. Fields without a
// widget are left out.
func (r *Registry) ResolveAll(list []fields.Field) map[string]string {
	out := make(map[string]string, len(list))
	for _, field := range list {
		if widget, ok := r.Resolve(field); ok {
			out[field.ID()] = widget
		}
	}
	return out
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetDropdown, 90, func(field fields.Field) bool {
		list, ok := field.(fields.OptionField)
		return ok && field.Type() != fields.Multiselect && len(list.Options()) >= DropdownMinOptions
	})
	r.Register(WidgetRadio, 80, func(field fields.Field) bool {
		return field.Type() == fields.Boolean || field.Type() == fields.Select
	})
	r.Register(WidgetCheckbox, 70, func(field fields.Field) bool {
		return field.Type() == fields.Multiselect
	})
	r.Register(WidgetTextfield, 60, func(field fields.Field) bool {
		limit, ok := maxLength(field)
		return ok && limit >= TextfieldMinLength
	})
	r.Register(WidgetCharfield, 50, func(field fields.Field) bool {
		return field.Type() == fields.String || field.Type() == fields.Email
	})
	r.Register(WidgetNumberfield, 40, func(field fields.Field) bool {
		return field.Type() == fields.Number
	})
	r.Register(WidgetDatepicker, 30, func(field fields.Field) bool {
		return field.Type() == fields.Date
	})
}

// maxLength reads the declared maxLength validator limit.
func maxLength(field fields.Field) (int, bool) {
	list, _ := values.List(field.Descriptor()["validators"])
	for _, raw := range list {
		descriptor, ok := values.Map(raw)
		if !ok || values.String(descriptor["type"]) != validators.MaxLength {
			continue
		}
		return values.Int(descriptor["value"])
	}
	return 0, false
}
