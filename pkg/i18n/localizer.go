package i18n

import (
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
)

// MissingHandler picks the text used when a message cannot be localized.
type MissingHandler func(locale string, msg formerrors.Message, err error) string

// Option customises a Localizer.
type Option func(*Localizer)

// WithMissingHandler overrides the fallback for untranslated messages.
func WithMissingHandler(handler MissingHandler) Option {
	return func(l *Localizer) {
		if handler != nil {
			l.onMissing = handler
		}
	}
}

// Localizer renders formerrors messages with catalog templates.
type Localizer struct {
	translator Translator
	onMissing  MissingHandler

	set       *pongo2.TemplateSet
	mu        sync.RWMutex
	templates map[string]*pongo2.Template
}

// NewLocalizer wraps translator. A nil translator leaves every message on
// the missing path.
func NewLocalizer(translator Translator, opts ...Option) *Localizer {
	l := &Localizer{
		translator: translator,
		onMissing:  missingDefault,
		set:        pongo2.NewSet("pulpoforms-i18n", pongo2.DefaultLoader),
		templates:  make(map[string]*pongo2.Template),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func missingDefault(_ string, msg formerrors.Message, _ error) string {
	return msg.String()
}

// Message renders msg for locale. Plain messages are returned as is.
func (l *Localizer) Message(locale string, msg formerrors.Message) string {
	if !msg.Structured() {
		return msg.Text
	}
	if l.translator == nil {
		return l.onMissing(locale, msg, ErrMissingTranslation)
	}
	source, err := l.translator.Translate(locale, msg.ID)
	if err != nil {
		return l.onMissing(locale, msg, err)
	}
	out, err := l.render(source, msg.Values)
	if err != nil {
		return l.onMissing(locale, msg, err)
	}
	return out
}

// Issue is an answer problem with its rendered text.
type Issue struct {
	ID      string             `json:"id"`
	Message formerrors.Message `json:"message"`
	Text    string             `json:"text"`
}

// Result localizes every issue of an answer check result.
func (l *Localizer) Result(locale string, result form.Result) []Issue {
	out := make([]Issue, 0, len(result.Errors))
	for _, issue := range result.Errors {
		out = append(out, Issue{
			ID:      issue.ID,
			Message: issue.Message,
			Text:    l.Message(locale, issue.Message),
		})
	}
	return out
}

func (l *Localizer) render(source string, data map[string]any) (string, error) {
	tpl, err := l.template(source)
	if err != nil {
		return "", err
	}
	ctx := pongo2.Context{}
	for key, value := range data {
		ctx[key] = value
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("i18n: execute template: %w", err)
	}
	return out, nil
}

func (l *Localizer) template(source string) (*pongo2.Template, error) {
	l.mu.RLock()
	tpl, ok := l.templates[source]
	l.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	// messages are plain text; html escaping would mangle quotes
	tpl, err := l.set.FromString("{% autoescape off %}" + source + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("i18n: parse template: %w", err)
	}
	l.mu.Lock()
	l.templates[source] = tpl
	l.mu.Unlock()
	return tpl, nil
}
