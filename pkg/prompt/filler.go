// Package prompt fills a form interactively. Questions follow page, section
// and field order; visibility is resolved again after every answer so only
// fields that apply to the answers given so far are asked.
package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/i18n"
	"github.com/goliatone/go-pulpoforms/pkg/outline"
	"github.com/goliatone/go-pulpoforms/pkg/widgets"
)

// SkipLabel is offered on optional choice questions.
const SkipLabel = "(no answer)"

// Option configures a Filler.
type Option func(*Filler)

// WithDriver replaces the survey driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithLocalizer renders validation messages for locale.
func WithLocalizer(localizer *i18n.Localizer, locale string) Option {
	return func(f *Filler) {
		f.localizer = localizer
		f.locale = locale
	}
}

// WithWidgets overrides the widget registry used to pick text areas.
func WithWidgets(reg *widgets.Registry) Option {
	return func(f *Filler) {
		if reg != nil {
			f.widgets = reg
		}
	}
}

// WithMaxAttempts bounds how often one question is repeated after invalid
// input. Zero means no limit.
func WithMaxAttempts(n int) Option {
	return func(f *Filler) {
		f.maxAttempts = n
	}
}

// ErrTooManyAttempts is returned when a question keeps receiving invalid
// input.
var ErrTooManyAttempts = errors.New("prompt: too many invalid answers")

// Filler asks the questions of a form through a Driver.
type Filler struct {
	driver      Driver
	localizer   *i18n.Localizer
	locale      string
	widgets     *widgets.Registry
	maxAttempts int
}

// New returns a Filler using the survey driver unless overridden.
func New(opts ...Option) *Filler {
	f := &Filler{
		driver:  NewSurveyDriver(),
		widgets: widgets.NewRegistry(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill asks every visible field of form and returns the check result with the
// effective answers. Values already present in answers are offered as
// defaults where the question type allows it.
func (f *Filler) Fill(ctx context.Context, target *form.Form, answers map[string]any) (form.Result, map[string]any, error) {
	if target == nil {
		return form.Result{}, nil, form.ErrInvalidForm
	}
	if err := target.Err(); err != nil {
		return form.Result{}, nil, err
	}
	current := make(map[string]any, len(answers))
	for key, value := range answers {
		current[key] = value
	}

	asked := make(map[string]bool)
	for {
		entry, field, ok, err := f.next(target, current, asked)
		if err != nil {
			return form.Result{}, nil, err
		}
		if !ok {
			break
		}
		asked[entry.ID] = true

		answer, answered, err := f.ask(ctx, entry, field, current[entry.ID])
		if err != nil {
			return form.Result{}, nil, err
		}
		if answered {
			current[entry.ID] = answer
		} else {
			delete(current, entry.ID)
		}
	}
	return target.Check(current)
}

// next finds the first visible field, in outline order, that was not asked
// yet.
func (f *Filler) next(target *form.Form, answers map[string]any, asked map[string]bool) (outline.Field, fields.Field, bool, error) {
	tree, err := outline.Build(target, answers, outline.VisibleOnly(), outline.WithWidgets(f.widgets))
	if err != nil {
		return outline.Field{}, nil, false, err
	}
	for _, page := range tree.Pages {
		for _, section := range page.Sections {
			for _, entry := range section.Fields {
				if asked[entry.ID] {
					continue
				}
				field, _ := target.Field(entry.ID)
				return entry, field, true, nil
			}
		}
	}
	return outline.Field{}, nil, false, nil
}

// ask repeats a question until the answer is accepted by the field.
func (f *Filler) ask(ctx context.Context, entry outline.Field, field fields.Field, previous any) (any, bool, error) {
	for attempt := 1; ; attempt++ {
		if f.maxAttempts > 0 && attempt > f.maxAttempts {
			return nil, false, fmt.Errorf("%w: field %q", ErrTooManyAttempts, entry.ID)
		}
		answer, answered, err := f.question(ctx, entry, field, previous)
		if err != nil {
			return nil, false, err
		}
		if !answered {
			if !entry.Required {
				return nil, false, nil
			}
			if err := f.driver.Info(ctx, f.render(formerrors.Keyed(form.RequiredFieldMessage, nil))); err != nil {
				return nil, false, err
			}
			continue
		}
		if err := field.ValidateValue(answer); err != nil {
			for _, msg := range formerrors.MessagesOf(err) {
				if err := f.driver.Info(ctx, f.render(msg)); err != nil {
					return nil, false, err
				}
			}
			continue
		}
		return answer, true, nil
	}
}

func (f *Filler) render(msg formerrors.Message) string {
	if f.localizer == nil {
		return msg.String()
	}
	return f.localizer.Message(f.locale, msg)
}

// question asks once. The boolean result is false when the user left the
// question empty.
func (f *Filler) question(ctx context.Context, entry outline.Field, field fields.Field, previous any) (any, bool, error) {
	switch entry.Type {
	case fields.Boolean:
		answer, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: entry.Title,
			Default: values.Truthy(previous),
			Help:    entry.Tooltip,
		})
		return answer, err == nil, err
	case fields.Number, fields.Slider:
		return f.number(ctx, entry.Title, entry.Tooltip, previous)
	case fields.Select:
		return f.choice(ctx, entry, previous)
	case fields.SelectOther:
		return f.selectOther(ctx, entry, previous)
	case fields.Multiselect:
		return f.multiselect(ctx, entry, previous)
	case fields.Rank, fields.RankOther:
		return f.rank(ctx, entry, field)
	case fields.Inspection:
		return f.inspection(ctx, entry, field)
	case fields.Location:
		return f.location(ctx, entry, previous)
	default:
		return f.text(ctx, entry, previous)
	}
}

func (f *Filler) text(ctx context.Context, entry outline.Field, previous any) (any, bool, error) {
	cfg := InputConfig{Message: entry.Title, Help: entry.Tooltip}
	if previous != nil {
		cfg.Default = values.String(previous)
	}
	ask := f.driver.Input
	if entry.Widget == widgets.WidgetTextfield {
		ask = f.driver.TextArea
	}
	answer, err := ask(ctx, cfg)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(answer) == "" {
		return nil, false, nil
	}
	return answer, true, nil
}

func (f *Filler) number(ctx context.Context, message, help string, previous any) (any, bool, error) {
	cfg := InputConfig{Message: message, Help: help}
	if previous != nil {
		cfg.Default = values.String(previous)
	}
	answer, err := f.driver.Input(ctx, cfg)
	if err != nil {
		return nil, false, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, false, nil
	}
	if number, ok := values.Float(answer); ok {
		return number, true, nil
	}
	// let the field report the problem
	return answer, true, nil
}

func optionLabels(entry outline.Field) []string {
	labels := make([]string, 0, len(entry.Options)+1)
	for _, option := range entry.Options {
		labels = append(labels, values.String(option.Value))
	}
	if !entry.Required {
		labels = append(labels, SkipLabel)
	}
	return labels
}

func optionIndex(entry outline.Field, key any) []int {
	for i, option := range entry.Options {
		if key != nil && values.Equal(option.Key, key) {
			return []int{i}
		}
	}
	return nil
}

// pick asks for one option and returns its key. ok is false when the skip
// entry was chosen.
func (f *Filler) pick(ctx context.Context, entry outline.Field, previous any) (any, bool, error) {
	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:  entry.Title,
		Options:  optionLabels(entry),
		Defaults: optionIndex(entry, previous),
		Help:     entry.Tooltip,
	})
	if err != nil {
		return nil, false, err
	}
	if idx < 0 || idx >= len(entry.Options) {
		return nil, false, nil
	}
	return entry.Options[idx].Key, true, nil
}

func (f *Filler) choice(ctx context.Context, entry outline.Field, previous any) (any, bool, error) {
	return f.pick(ctx, entry, previous)
}

func (f *Filler) selectOther(ctx context.Context, entry outline.Field, previous any) (any, bool, error) {
	before, _ := values.Map(previous)
	key, ok, err := f.pick(ctx, entry, before["option"])
	if err != nil || !ok {
		return nil, false, err
	}
	answer := map[string]any{"option": key}
	if values.String(key) != fields.OtherOption {
		return answer, true, nil
	}
	text, err := f.driver.Input(ctx, InputConfig{
		Message: entry.Title + ": " + fields.OtherOption,
		Default: values.String(before["answer"]),
	})
	if err != nil {
		return nil, false, err
	}
	answer["answer"] = text
	return answer, true, nil
}

func (f *Filler) multiselect(ctx context.Context, entry outline.Field, previous any) (any, bool, error) {
	var defaults []int
	if list, ok := values.List(previous); ok {
		for _, key := range list {
			defaults = append(defaults, optionIndex(entry, key)...)
		}
	}
	labels := make([]string, 0, len(entry.Options))
	for _, option := range entry.Options {
		labels = append(labels, values.String(option.Value))
	}
	picked, err := f.driver.MultiSelect(ctx, SelectConfig{
		Message:  entry.Title,
		Options:  labels,
		Defaults: defaults,
		Help:     entry.Tooltip,
	})
	if err != nil {
		return nil, false, err
	}
	if len(picked) == 0 {
		return nil, false, nil
	}
	keys := make([]any, 0, len(picked))
	for _, idx := range picked {
		if idx >= 0 && idx < len(entry.Options) {
			keys = append(keys, entry.Options[idx].Key)
		}
	}
	return keys, true, nil
}

func (f *Filler) rank(ctx context.Context, entry outline.Field, field fields.Field) (any, bool, error) {
	help := entry.Tooltip
	if rank, ok := field.(*fields.RankField); ok {
		help = strings.TrimSpace(fmt.Sprintf("%s Values must add up to %s.", help, values.String(rank.SumTotal())))
	}
	answer := make(map[string]any, len(entry.Options))
	for _, option := range entry.Options {
		key := values.String(option.Key)
		message := fmt.Sprintf("%s: %s", entry.Title, values.String(option.Value))
		number, ok, err := f.number(ctx, message, help, nil)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		if entry.Type == fields.RankOther && key == fields.OtherOption {
			name, err := f.driver.Input(ctx, InputConfig{Message: message + " (name)"})
			if err != nil {
				return nil, false, err
			}
			answer[key] = map[string]any{"value": number, "new_option": name}
			continue
		}
		answer[key] = number
	}
	if len(answer) == 0 {
		return nil, false, nil
	}
	return answer, true, nil
}

func (f *Filler) inspection(ctx context.Context, entry outline.Field, field fields.Field) (any, bool, error) {
	inspection, ok := field.(*fields.InspectionField)
	if !ok {
		return nil, false, nil
	}
	answer := make(map[string]any, len(inspection.Checklist()))
	for _, key := range inspection.Checklist() {
		passed, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("%s: %s", entry.Title, key),
			Help:    entry.Tooltip,
		})
		if err != nil {
			return nil, false, err
		}
		answer[key] = passed
	}
	return answer, true, nil
}

func (f *Filler) location(ctx context.Context, entry outline.Field, previous any) (any, bool, error) {
	cfg := InputConfig{Message: entry.Title + " (GeoJSON)", Help: entry.Tooltip}
	if previous != nil {
		if payload, err := json.Marshal(previous); err == nil {
			cfg.Default = string(payload)
		}
	}
	raw, err := f.driver.TextArea(ctx, cfg)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, false, nil
	}
	var geometry any
	if err := json.Unmarshal([]byte(raw), &geometry); err != nil {
		return raw, true, nil
	}
	return geometry, true, nil
}
