// Package stats aggregates submitted answers per field. Choice fields count
// how often each option was picked, boolean fields count yes and no answers,
// and number fields spread the observed values over five partitions between
// the smallest and largest answer. Other field types are not aggregated.
package stats

import (
	"errors"
	"math"
	"sync"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/form"
)

// Partitions is the number of ranges number answers are split into.
const Partitions = 5

// OptionCount is the tally of one option.
type OptionCount struct {
	Key   any `json:"key"`
	Value any `json:"value"`
	Count int `json:"count"`
}

// BooleanCount is the tally of a boolean field.
type BooleanCount struct {
	True  int `json:"true"`
	False int `json:"false"`
}

// Partition is one range of number answers. Bounds are inclusive.
type Partition struct {
	Initial float64 `json:"initial"`
	Final   float64 `json:"final"`
	Count   int     `json:"count"`
}

// Field is the aggregate of one field.
type Field struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Count      int           `json:"count"`
	Options    []OptionCount `json:"options,omitempty"`
	Boolean    *BooleanCount `json:"boolean,omitempty"`
	Partitions []Partition   `json:"partitions,omitempty"`
}

// Report is the aggregate of every supported field.
type Report struct {
	FormID      string  `json:"form_id"`
	Version     int     `json:"version"`
	Submissions int     `json:"submissions"`
	Fields      []Field `json:"fields"`
}

type accumulator struct {
	field   fields.Field
	count   int
	options map[string]int
	yes     int
	no      int
	numbers []float64
}

// Collector accumulates submissions for one form. It is safe for concurrent
// use.
type Collector struct {
	mu          sync.Mutex
	form        *form.Form
	order       []*accumulator
	byID        map[string]*accumulator
	submissions int
}

// NewCollector prepares a collector for the supported fields of f.
func NewCollector(f *form.Form) (*Collector, error) {
	if f == nil {
		return nil, errors.New("stats: form is required")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	c := &Collector{form: f, byID: make(map[string]*accumulator)}
	for _, field := range f.Fields() {
		if !Supported(field.Type()) {
			continue
		}
		acc := &accumulator{field: field, options: make(map[string]int)}
		c.order = append(c.order, acc)
		c.byID[field.ID()] = acc
	}
	return c, nil
}

// Supported reports whether answers of a field type are aggregated.
func Supported(fieldType string) bool {
	switch fieldType {
	case fields.Select, fields.SelectOther, fields.Multiselect, fields.Boolean, fields.Number:
		return true
	default:
		return false
	}
}

// Add records one submission. Empty answers and unknown keys are skipped.
func (c *Collector) Add(answers map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submissions++
	for id, answer := range answers {
		acc, ok := c.byID[id]
		if !ok || answer == nil || answer == "" {
			continue
		}
		acc.add(answer)
	}
}

func (a *accumulator) add(answer any) {
	switch a.field.Type() {
	case fields.Boolean:
		if values.Truthy(answer) {
			a.yes++
		} else {
			a.no++
		}
	case fields.Number:
		number, ok := values.Float(answer)
		if !ok {
			return
		}
		a.numbers = append(a.numbers, number)
	case fields.Multiselect:
		list, ok := values.List(answer)
		if !ok {
			return
		}
		for _, key := range list {
			a.options[values.String(key)]++
		}
	case fields.SelectOther:
		if choice, ok := values.Map(answer); ok {
			answer = choice["option"]
		}
		a.options[values.String(answer)]++
	default:
		a.options[values.String(answer)]++
	}
	a.count++
}

// Report returns the aggregate so far.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := Report{
		FormID:      c.form.ID(),
		Version:     c.form.Version(),
		Submissions: c.submissions,
		Fields:      make([]Field, 0, len(c.order)),
	}
	for _, acc := range c.order {
		out.Fields = append(out.Fields, acc.report())
	}
	return out
}

func (a *accumulator) report() Field {
	out := Field{ID: a.field.ID(), Type: a.field.Type(), Count: a.count}
	switch a.field.Type() {
	case fields.Boolean:
		out.Boolean = &BooleanCount{True: a.yes, False: a.no}
	case fields.Number:
		out.Partitions = partition(a.numbers)
	default:
		list, _ := a.field.(fields.OptionField)
		if list == nil {
			return out
		}
		for _, option := range list.Options() {
			out.Options = append(out.Options, OptionCount{
				Key:   option.Key,
				Value: option.Value,
				Count: a.options[values.String(option.Key)],
			})
		}
	}
	return out
}

// partition splits numbers into Partitions ranges of equal integer width. The
// last range ends at the largest value.
func partition(numbers []float64) []Partition {
	if len(numbers) == 0 {
		return nil
	}
	low, high := numbers[0], numbers[0]
	for _, n := range numbers[1:] {
		low = math.Min(low, n)
		high = math.Max(high, n)
	}
	size := math.Floor((high - low + 1) / Partitions)

	out := make([]Partition, 0, Partitions)
	initial := low
	for i := 1; i < Partitions; i++ {
		final := initial + size
		out = append(out, Partition{Initial: initial, Final: final})
		initial = final + 1
	}
	out = append(out, Partition{Initial: initial, Final: high})

	for _, n := range numbers {
		for i := range out {
			if out[i].Initial <= n && n <= out[i].Final {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// Compute aggregates submissions in one call.
func Compute(f *form.Form, submissions []map[string]any) (Report, error) {
	c, err := NewCollector(f)
	if err != nil {
		return Report{}, err
	}
	for _, answers := range submissions {
		c.Add(answers)
	}
	return c.Report(), nil
}
