package prompt_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/prompt"
	"github.com/goliatone/go-pulpoforms/pkg/testsupport"
)

// scriptedDriver replays canned responses and records every question.
type scriptedDriver struct {
	inputs   []string
	confirms []bool
	selects  []int
	multis   [][]int
	err      error

	asked []string
	info  []string
}

func (s *scriptedDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	s.asked = append(s.asked, "input:"+cfg.Message)
	if s.err != nil {
		return "", s.err
	}
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	out := s.inputs[0]
	s.inputs = s.inputs[1:]
	return out, nil
}

func (s *scriptedDriver) TextArea(ctx context.Context, cfg prompt.InputConfig) (string, error) {
	return s.Input(ctx, cfg)
}

func (s *scriptedDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	s.asked = append(s.asked, "confirm:"+cfg.Message)
	if s.err != nil {
		return false, s.err
	}
	if len(s.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	out := s.confirms[0]
	s.confirms = s.confirms[1:]
	return out, nil
}

func (s *scriptedDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	s.asked = append(s.asked, "select:"+cfg.Message+"["+strings.Join(cfg.Options, "|")+"]")
	if len(s.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	out := s.selects[0]
	s.selects = s.selects[1:]
	return out, nil
}

func (s *scriptedDriver) MultiSelect(_ context.Context, cfg prompt.SelectConfig) ([]int, error) {
	s.asked = append(s.asked, "multiselect:"+cfg.Message)
	if len(s.multis) == 0 {
		return nil, errors.New("no multiselect scripted")
	}
	out := s.multis[0]
	s.multis = s.multis[1:]
	return out, nil
}

func (s *scriptedDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

func fill(t *testing.T, driver *scriptedDriver, fixture string, answers map[string]any) (form.Result, map[string]any) {
	t.Helper()
	filler := prompt.New(prompt.WithDriver(driver), prompt.WithMaxAttempts(3))
	result, effective, err := filler.Fill(testsupport.Context(), testsupport.MustLoadForm(t, fixture), answers)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	return result, effective
}

func TestFill_RevealsConditionalField(t *testing.T) {
	driver := &scriptedDriver{confirms: []bool{true}, selects: []int{1}, inputs: []string{""}}
	result, answers := fill(t, driver, testsupport.ApronCheck, nil)

	if !result.OK() {
		t.Fatalf("expected OK, got %+v", result)
	}
	if diff := cmp.Diff(map[string]any{"fod": true, "zone": "B"}, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	want := []string{
		"confirm:Debris found?",
		"select:Zone[North apron|South apron]",
		"input:Remarks",
	}
	if diff := cmp.Diff(want, driver.asked); diff != "" {
		t.Fatalf("questions mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_SkipsHiddenField(t *testing.T) {
	driver := &scriptedDriver{confirms: []bool{false}, inputs: []string{"all clear"}}
	result, answers := fill(t, driver, testsupport.ApronCheck, map[string]any{"zone": "A"})

	if !result.OK() {
		t.Fatalf("expected OK, got %+v", result)
	}
	if diff := cmp.Diff(map[string]any{"fod": false, "remarks": "all clear"}, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	for _, question := range driver.asked {
		if strings.HasPrefix(question, "select:") {
			t.Fatalf("hidden field was asked: %s", question)
		}
	}
}

func TestFill_RepeatsInvalidAnswers(t *testing.T) {
	driver := &scriptedDriver{
		inputs:   []string{"Al", "Alex", "", "0.5", ""},
		selects:  []int{0},
		confirms: []bool{true, true},
	}
	result, answers := fill(t, driver, testsupport.RunwayInspection, nil)

	if !result.OK() {
		t.Fatalf("expected OK, got %+v", result)
	}
	want := map[string]any{
		"inspector": "Alex",
		"condition": "dry",
		"friction":  0.5,
		"checklist": map[string]any{"CH1": true, "CH2": true},
	}
	if diff := cmp.Diff(want, answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	if len(driver.info) != 1 || !strings.Contains(driver.info[0], "min_length") {
		t.Fatalf("info = %v, want one min_length message", driver.info)
	}
}

func TestFill_GivesUpAfterMaxAttempts(t *testing.T) {
	driver := &scriptedDriver{inputs: []string{"", "", ""}}
	filler := prompt.New(prompt.WithDriver(driver), prompt.WithMaxAttempts(3))
	_, _, err := filler.Fill(testsupport.Context(), testsupport.MustLoadForm(t, testsupport.RunwayInspection), nil)
	if !errors.Is(err, prompt.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if len(driver.info) != 3 {
		t.Fatalf("info = %v, want three required messages", driver.info)
	}
}

func TestFill_PropagatesAbort(t *testing.T) {
	driver := &scriptedDriver{err: prompt.ErrAborted}
	filler := prompt.New(prompt.WithDriver(driver))
	_, _, err := filler.Fill(testsupport.Context(), testsupport.MustLoadForm(t, testsupport.ApronCheck), nil)
	if !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestFill_InvalidForm(t *testing.T) {
	filler := prompt.New(prompt.WithDriver(&scriptedDriver{}))
	if _, _, err := filler.Fill(testsupport.Context(), form.New(map[string]any{}), nil); err == nil {
		t.Fatalf("expected error for invalid form")
	}
}
