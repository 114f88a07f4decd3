package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pulpoforms/pkg/outline"
	"github.com/goliatone/go-pulpoforms/pkg/prompt"
	"github.com/goliatone/go-pulpoforms/pkg/stats"
)

var (
	runwaySchema  = filepath.Join("..", "..", "pkg", "testsupport", "testdata", "runway_inspection.json")
	runwayAnswers = filepath.Join("..", "..", "pkg", "testsupport", "testdata", "runway_answers.json")
	apronSchema   = filepath.Join("..", "..", "pkg", "testsupport", "testdata", "apron_check.yaml")
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRun_UnknownCommand(t *testing.T) {
	_, stderr, err := execute(t, "render")
	if err == nil || !strings.Contains(err.Error(), `unknown command "render"`) {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(stderr, "validate") {
		t.Fatalf("usage missing commands:\n%s", stderr)
	}
}

func TestValidate(t *testing.T) {
	stdout, _, err := execute(t, "validate", runwaySchema, apronSchema)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if stdout != "2 schema(s) valid\n" {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestValidate_ReportsSortedIssues(t *testing.T) {
	broken := writeFile(t, "broken.yaml", `
id: broken
version: 1
fields:
  - id: zeta
    type: slider
    required: true
  - id: alpha
    type: teleport
    required: true
sections:
  - id: main
    title: Main
    fields: [zeta, alpha]
pages:
  - id: p
    title: P
    sections: [main]
`)

	_, stderr, err := execute(t, "validate", broken)
	if !errors.Is(err, errIssues) {
		t.Fatalf("expected errIssues, got %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected one line per issue:\n%s", stderr)
	}
	if !strings.HasPrefix(lines[0], broken+": field alpha -> ") {
		t.Fatalf("issues not sorted by location:\n%s", stderr)
	}
}

func TestValidate_UndecodablePayload(t *testing.T) {
	bad := writeFile(t, "bad.json", `{"id": `)
	stdout, _, err := execute(t, "validate", "-json", bad)
	if !errors.Is(err, errIssues) {
		t.Fatalf("expected errIssues, got %v", err)
	}
	var reports map[string]struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal([]byte(stdout), &reports); err != nil {
		t.Fatalf("decode reports: %v\n%s", err, stdout)
	}
	if got := reports[bad].Result; got != "FORMAT ERROR" {
		t.Fatalf("result = %q", got)
	}
}

func TestCheck_Valid(t *testing.T) {
	output := filepath.Join(t.TempDir(), "clean.json")
	stdout, _, err := execute(t, "check", "-schema", runwaySchema, "-answers", runwayAnswers, "-precheck", "-output", output)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if stdout != "OK\n  The answer is valid.\n" {
		t.Fatalf("unexpected output %q", stdout)
	}
	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var cleaned map[string]any
	if err := json.Unmarshal(raw, &cleaned); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cleaned["inspector"] != "Maria" {
		t.Fatalf("unexpected answers %v", cleaned)
	}
}

func TestCheck_LocalizedIssues(t *testing.T) {
	answers := writeFile(t, "answers.json", `{"inspector": "Al", "condition": "dry", "friction": 0.3, "checklist": {"CH1": true, "CH2": true}}`)

	stdout, _, err := execute(t, "check", "-schema", runwaySchema, "-answers", answers, "-locale", "es", "-json")
	if !errors.Is(err, errIssues) {
		t.Fatalf("expected errIssues, got %v", err)
	}
	var out struct {
		Result string `json:"result"`
		Errors []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if out.Result != "ANSWER_ERROR" {
		t.Fatalf("result = %q", out.Result)
	}
	want := []string{"inspector=Use al menos 3 caracteres (2 recibidos)."}
	var got []string
	for _, issue := range out.Errors {
		got = append(got, issue.ID+"="+issue.Text)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_CustomCatalog(t *testing.T) {
	dir := t.TempDir()
	catalog := "section1:\n  errors:\n    min_length: \"Too short, need {{ min }}.\"\n"
	if err := os.WriteFile(filepath.Join(dir, "en.yaml"), []byte(catalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	answers := writeFile(t, "answers.json", `{"inspector": "Al", "condition": "dry", "friction": 0.3, "checklist": {"CH1": true, "CH2": true}}`)

	stdout, _, err := execute(t, "check", "-schema", runwaySchema, "-answers", answers, "-catalog", dir)
	if !errors.Is(err, errIssues) {
		t.Fatalf("expected errIssues, got %v", err)
	}
	if want := "ANSWER_ERROR\n  inspector: Too short, need 3.\n"; stdout != want {
		t.Fatalf("want %q, got %q", want, stdout)
	}
}

func TestCheck_PrecheckRejects(t *testing.T) {
	answers := writeFile(t, "answers.json", `{"condition": "snow"}`)
	_, stderr, err := execute(t, "check", "-schema", runwaySchema, "-answers", answers, "-precheck")
	if !errors.Is(err, errIssues) {
		t.Fatalf("expected errIssues, got %v", err)
	}
	if !strings.Contains(stderr, "answers do not match schema") {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestCheck_RequiresAnswers(t *testing.T) {
	if _, _, err := execute(t, "check", "-schema", runwaySchema); err == nil {
		t.Fatalf("expected error without -answers")
	}
}

func TestOutline_VisibleOnly(t *testing.T) {
	answers := writeFile(t, "answers.yaml", "fod: false\n")
	stdout, _, err := execute(t, "outline", "-schema", apronSchema, "-answers", answers, "-visible")
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	var out outline.Outline
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var ids []string
	for _, page := range out.Pages {
		for _, section := range page.Sections {
			for _, field := range section.Fields {
				ids = append(ids, field.ID)
			}
		}
	}
	if diff := cmp.Diff([]string{"fod", "remarks"}, ids); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestStats_SkipsInvalidSubmissions(t *testing.T) {
	submissions := writeFile(t, "submissions.json", `[
		{"fod": true, "zone": "A"},
		{"fod": true, "zone": "B"},
		{"fod": false},
		{"fod": true}
	]`)
	stdout, stderr, err := execute(t, "stats", "-schema", apronSchema, submissions)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(stderr, "skipping "+submissions+"[3]") {
		t.Fatalf("expected skipped submission, got %q", stderr)
	}
	var report stats.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Submissions != 3 {
		t.Fatalf("submissions = %d, want 3", report.Submissions)
	}
	for _, field := range report.Fields {
		if field.ID == "fod" && (field.Boolean == nil || field.Boolean.True != 2 || field.Boolean.False != 1) {
			t.Fatalf("fod tally = %+v", field.Boolean)
		}
	}
}

func TestOpenAPI_YAML(t *testing.T) {
	stdout, _, err := execute(t, "openapi", "-format", "yaml", "-base", "/v1/forms", runwaySchema, apronSchema)
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	for _, want := range []string{"openapi: 3.0.3", "/v1/forms/runway-inspection/answers:", "/v1/forms/apron-check/answers:", "RunwayInspection:"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestKinds_JSON(t *testing.T) {
	stdout, _, err := execute(t, "kinds", "-format", "json")
	if err != nil {
		t.Fatalf("kinds: %v", err)
	}
	var out kindsOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for list, want := range map[string][]string{
		"inspection": out.Fields,
		"equals":     out.Conditions,
		"minLength":  out.Validators,
	} {
		found := false
		for _, name := range want {
			found = found || name == list
		}
		if !found {
			t.Fatalf("%q not listed in %v", list, want)
		}
	}
}

type stubDriver struct {
	confirms []bool
	selects  []int
	inputs   []string
}

func (d *stubDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", prompt.ErrAborted
	}
	next := d.inputs[0]
	d.inputs = d.inputs[1:]
	return next, nil
}

func (d *stubDriver) TextArea(ctx context.Context, cfg prompt.InputConfig) (string, error) {
	return d.Input(ctx, cfg)
}

func (d *stubDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return false, prompt.ErrAborted
	}
	next := d.confirms[0]
	d.confirms = d.confirms[1:]
	return next, nil
}

func (d *stubDriver) Select(context.Context, prompt.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return 0, prompt.ErrAborted
	}
	next := d.selects[0]
	d.selects = d.selects[1:]
	return next, nil
}

func (d *stubDriver) MultiSelect(context.Context, prompt.SelectConfig) ([]int, error) {
	return nil, prompt.ErrAborted
}

func (d *stubDriver) Info(context.Context, string) error { return nil }

func TestFill(t *testing.T) {
	driver := &stubDriver{confirms: []bool{true}, selects: []int{1}, inputs: []string{"cones moved"}}
	previous := newDriver
	newDriver = func() prompt.Driver { return driver }
	t.Cleanup(func() { newDriver = previous })

	stdout, _, err := execute(t, "fill", "-schema", apronSchema)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	want := map[string]any{"fod": true, "zone": "B", "remarks": "cones moved"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_Aborted(t *testing.T) {
	previous := newDriver
	newDriver = func() prompt.Driver { return &stubDriver{} }
	t.Cleanup(func() { newDriver = previous })

	_, _, err := execute(t, "fill", "-schema", apronSchema)
	if !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}
