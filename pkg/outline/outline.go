// Package outline computes the effective page, section and field tree of a
// form for a set of answers: what a client should display, in order, with the
// resolved visibility, required flag and widget of every field. Author
// supplied text is sanitized before it leaves the engine.
package outline

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/widgets"
)

// Field is one field entry of an outline.
type Field struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	Tooltip  string          `json:"tooltip,omitempty"`
	Widget   string          `json:"widget,omitempty"`
	Options  []fields.Option `json:"options,omitempty"`
	Hidden   bool            `json:"hidden"`
	Required bool            `json:"required"`
	Answer   any             `json:"answer,omitempty"`
}

// Section is one section entry of an outline.
type Section struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Hidden      bool    `json:"hidden"`
	Fields      []Field `json:"fields"`
}

// Page is one page entry of an outline.
type Page struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Hidden      bool      `json:"hidden"`
	Sections    []Section `json:"sections"`
}

// Outline is the effective structure of a form.
type Outline struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Pages   []Page `json:"pages"`
}

// Option customises Build.
type Option func(*config)

type config struct {
	widgets     *widgets.Registry
	text        *bluemonday.Policy
	rich        *bluemonday.Policy
	visibleOnly bool
}

// WithWidgets overrides the widget registry used for fields without an
// explicit widget.
func WithWidgets(reg *widgets.Registry) Option {
	return func(c *config) {
		c.widgets = reg
	}
}

// WithPolicies overrides the sanitizers for titles and tooltips (text) and
// descriptions (rich).
func WithPolicies(text, rich *bluemonday.Policy) Option {
	return func(c *config) {
		if text != nil {
			c.text = text
		}
		if rich != nil {
			c.rich = rich
		}
	}
}

// VisibleOnly drops hidden pages, sections and fields from the outline.
func VisibleOnly() Option {
	return func(c *config) {
		c.visibleOnly = true
	}
}

// Build resolves the outline of f for answers. answers may be nil.
func Build(f *form.Form, answers map[string]any, opts ...Option) (Outline, error) {
	if f == nil {
		return Outline{}, form.ErrInvalidForm
	}
	if err := f.Err(); err != nil {
		return Outline{}, err
	}
	cfg := config{
		widgets: widgets.NewRegistry(),
		text:    plainText(),
		rich:    richText(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if answers == nil {
		answers = map[string]any{}
	}

	out := Outline{ID: f.ID(), Version: f.Version(), Pages: []Page{}}
	for _, page := range f.Pages() {
		pageHidden, err := f.PageHidden(page.ID, answers)
		if err != nil {
			return Outline{}, err
		}
		if pageHidden && cfg.visibleOnly {
			continue
		}
		entry := Page{
			ID:          page.ID,
			Title:       sanitize(cfg.text, page.Title),
			Description: sanitize(cfg.rich, page.Description),
			Hidden:      pageHidden,
			Sections:    []Section{},
		}
		for _, section := range page.Sections() {
			sectionEntry, keep, err := cfg.section(f, section, answers)
			if err != nil {
				return Outline{}, err
			}
			if keep {
				sectionEntry.Hidden = sectionEntry.Hidden || pageHidden
				entry.Sections = append(entry.Sections, sectionEntry)
			}
		}
		out.Pages = append(out.Pages, entry)
	}
	return out, nil
}

func (c config) section(f *form.Form, section *form.Section, answers map[string]any) (Section, bool, error) {
	hidden, err := f.SectionHidden(section.ID, answers)
	if err != nil {
		return Section{}, false, err
	}
	if hidden && c.visibleOnly {
		return Section{}, false, nil
	}
	entry := Section{
		ID:          section.ID,
		Title:       sanitize(c.text, section.Title),
		Description: sanitize(c.rich, section.Description),
		Hidden:      hidden,
		Fields:      []Field{},
	}
	for _, field := range section.Fields() {
		state, err := f.State(field.ID(), answers)
		if err != nil {
			return Section{}, false, err
		}
		if state.Hidden && c.visibleOnly {
			continue
		}
		fieldEntry := Field{
			ID:       field.ID(),
			Type:     field.Type(),
			Title:    sanitize(c.text, field.Title()),
			Tooltip:  sanitize(c.text, field.Tooltip()),
			Hidden:   state.Hidden,
			Required: state.Required,
			Answer:   answers[field.ID()],
		}
		if widget, ok := c.widgets.Resolve(field); ok {
			fieldEntry.Widget = widget
		}
		if list, ok := field.(fields.OptionField); ok {
			fieldEntry.Options = sanitizeOptions(c, list.Options())
		}
		entry.Fields = append(entry.Fields, fieldEntry)
	}
	return entry, true, nil
}

func sanitizeOptions(c config, options []fields.Option) []fields.Option {
	out := make([]fields.Option, 0, len(options))
	for _, option := range options {
		if label, ok := option.Value.(string); ok {
			option.Value = sanitize(c.text, label)
		}
		out = append(out, option)
	}
	return out
}
