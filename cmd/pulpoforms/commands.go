package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/conditions"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/i18n"
	"github.com/goliatone/go-pulpoforms/pkg/openapi"
	"github.com/goliatone/go-pulpoforms/pkg/outline"
	"github.com/goliatone/go-pulpoforms/pkg/prompt"
	"github.com/goliatone/go-pulpoforms/pkg/stats"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// newDriver builds the terminal driver used by fill.
var newDriver = func() prompt.Driver {
	return prompt.NewSurveyDriver()
}

type violation struct {
	file     string
	location string
	message  string
}

func validateCmd(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "validate", "[-json] <schema>...")
	asJSON := fs.Bool("json", false, "print the compile report of every schema as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		fs.Usage()
		return errors.New("validate: at least one schema path is required")
	}

	var (
		violations []violation
		reports    = make(map[string]form.Report, len(paths))
	)
	for _, path := range paths {
		report, err := e.compileReport(path)
		if err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}
		reports[path] = report
		for _, issue := range report.Errors {
			location := "schema"
			if issue.Type != "" {
				location = fmt.Sprintf("%s %s", strings.ToLower(issue.Type), issue.ID)
			}
			violations = append(violations, violation{file: path, location: location, message: issue.Message.String()})
		}
	}

	if *asJSON {
		if err := writeJSON(e.stdout, reports); err != nil {
			return err
		}
	}
	if len(violations) == 0 {
		if !*asJSON {
			fmt.Fprintf(e.stdout, "%d schema(s) valid\n", len(paths))
		}
		return nil
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
	if !*asJSON {
		for _, v := range violations {
			fmt.Fprintf(e.stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		}
	}
	return errIssues
}

// compileReport compiles the schema at path. A payload that cannot be decoded
// is reported as a format error.
func (e *env) compileReport(path string) (form.Report, error) {
	doc, err := readDocument(path)
	if err != nil {
		return form.Report{}, err
	}
	raw, err := doc.Decode()
	if err != nil {
		return form.Report{
			Result: form.StatusFormatError,
			Errors: []form.Issue{{Message: formerrors.Textf("%s", err.Error())}},
		}, nil
	}
	return form.New(raw, e.engine.FormOptions()...).Report(), nil
}

type checkOutput struct {
	Result  string       `json:"result"`
	Message string       `json:"message,omitempty"`
	Errors  []i18n.Issue `json:"errors,omitempty"`
}

func checkCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "check", "-schema <path|url> -answers <path> [flags]")
	schemaPath := fs.String("schema", "", "schema path or URL")
	answersPath := fs.String("answers", "", "answers document (- reads stdin)")
	locale := fs.String("locale", i18n.DefaultLocale, "locale used to render messages")
	catalogDir := fs.String("catalog", "", "directory with <locale>.yaml catalogs merged over the built-in ones")
	precheck := fs.Bool("precheck", false, "validate the answers against the OpenAPI answer schema first")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	output := fs.String("output", "", "write the effective answers to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *answersPath == "" {
		fs.Usage()
		return errors.New("check: -answers is required")
	}

	f, err := e.loadForm(ctx, *schemaPath)
	if err != nil {
		return err
	}
	answers, err := readAnswers(*answersPath)
	if err != nil {
		return err
	}
	l, err := localizer(*catalogDir)
	if err != nil {
		return err
	}

	if *precheck {
		if err := openapi.Precheck(f, answers); err != nil {
			fmt.Fprintf(e.stderr, "%s: %v\n", *answersPath, err)
			return errIssues
		}
	}

	result, cleaned, err := f.Check(answers)
	if err != nil {
		return err
	}
	if err := e.printResult(*asJSON, l, *locale, result); err != nil {
		return err
	}
	if *output != "" && result.OK() {
		if err := writeOutput(e, *output, cleaned); err != nil {
			return err
		}
	}
	if !result.OK() {
		return errIssues
	}
	return nil
}

func (e *env) printResult(asJSON bool, l *i18n.Localizer, locale string, result form.Result) error {
	issues := l.Result(locale, result)
	if asJSON {
		return writeJSON(e.stdout, checkOutput{Result: result.Result, Message: result.Message, Errors: issues})
	}
	fmt.Fprintln(e.stdout, result.Result)
	if result.Message != "" {
		fmt.Fprintf(e.stdout, "  %s\n", result.Message)
	}
	for _, issue := range issues {
		fmt.Fprintf(e.stdout, "  %s: %s\n", issue.ID, issue.Text)
	}
	return nil
}

func fillCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "fill", "-schema <path|url> [flags]")
	schemaPath := fs.String("schema", "", "schema path or URL")
	answersPath := fs.String("answers", "", "answers used as defaults")
	locale := fs.String("locale", i18n.DefaultLocale, "locale used to render messages")
	catalogDir := fs.String("catalog", "", "directory with <locale>.yaml catalogs merged over the built-in ones")
	output := fs.String("output", "", "write the answers to this file instead of stdout")
	attempts := fs.Int("max-attempts", 0, "give up after this many invalid answers to one question (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := e.loadForm(ctx, *schemaPath)
	if err != nil {
		return err
	}
	answers, err := readAnswers(*answersPath)
	if err != nil {
		return err
	}
	l, err := localizer(*catalogDir)
	if err != nil {
		return err
	}

	filler := prompt.New(
		prompt.WithDriver(newDriver()),
		prompt.WithLocalizer(l, *locale),
		prompt.WithMaxAttempts(*attempts),
	)
	result, filled, err := filler.Fill(ctx, f, answers)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	if !result.OK() {
		if err := e.printResult(false, l, *locale, result); err != nil {
			return err
		}
		return errIssues
	}
	return writeOutput(e, *output, filled)
}

func outlineCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "outline", "-schema <path|url> [flags]")
	schemaPath := fs.String("schema", "", "schema path or URL")
	answersPath := fs.String("answers", "", "answers used to resolve visibility")
	visible := fs.Bool("visible", false, "leave hidden pages, sections and fields out")
	format := fs.String("format", "json", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := e.loadForm(ctx, *schemaPath)
	if err != nil {
		return err
	}
	answers, err := readAnswers(*answersPath)
	if err != nil {
		return err
	}
	var opts []outline.Option
	if *visible {
		opts = append(opts, outline.VisibleOnly())
	}
	out, err := outline.Build(f, answers, opts...)
	if err != nil {
		return err
	}
	return writeFormatted(e.stdout, *format, out)
}

func statsCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "stats", "-schema <path|url> [-format json|yaml] <submissions>...")
	schemaPath := fs.String("schema", "", "schema path or URL")
	format := fs.String("format", "json", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("stats: at least one submissions file is required")
	}

	f, err := e.loadForm(ctx, *schemaPath)
	if err != nil {
		return err
	}

	var accepted []map[string]any
	for _, path := range fs.Args() {
		submissions, err := readSubmissions(path)
		if err != nil {
			return err
		}
		for i, answers := range submissions {
			result, cleaned, err := f.Check(answers)
			if err != nil {
				return err
			}
			if !result.OK() {
				fmt.Fprintf(e.stderr, "skipping %s[%d]: %d answer issue(s)\n", path, i, len(result.Errors))
				continue
			}
			accepted = append(accepted, cleaned)
		}
	}

	report, err := stats.Compute(f, accepted)
	if err != nil {
		return err
	}
	return writeFormatted(e.stdout, *format, report)
}

// readSubmissions accepts a single answers mapping or a list of them.
func readSubmissions(path string) ([]map[string]any, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	decoded, err := doc.Decode()
	if err != nil {
		return nil, err
	}
	if single, ok := values.Map(decoded); ok {
		return []map[string]any{single}, nil
	}
	list, ok := values.List(decoded)
	if !ok {
		return nil, fmt.Errorf("submissions %s: expected a mapping or a list, got %s", path, values.TypeName(decoded))
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		answers, ok := values.Map(item)
		if !ok {
			return nil, fmt.Errorf("submissions %s[%d]: expected a mapping, got %s", path, i, values.TypeName(item))
		}
		out = append(out, answers)
	}
	return out, nil
}

func openapiCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "openapi", "[flags] <schema>...")
	title := fs.String("title", "", "info.title of the document")
	version := fs.String("version", "", "info.version of the document")
	base := fs.String("base", "", "prefix of the answers paths")
	format := fs.String("format", "json", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("openapi: at least one schema is required")
	}

	forms := make([]*form.Form, 0, fs.NArg())
	for _, location := range fs.Args() {
		f, err := e.loadForm(ctx, location)
		if err != nil {
			return err
		}
		forms = append(forms, f)
	}

	var opts []openapi.DocumentOption
	if *title != "" {
		opts = append(opts, openapi.WithTitle(*title))
	}
	if *version != "" {
		opts = append(opts, openapi.WithVersion(*version))
	}
	if *base != "" {
		opts = append(opts, openapi.WithBasePath(*base))
	}
	doc, err := openapi.Document(forms, opts...)
	if err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("openapi: generated document is invalid: %w", err)
	}
	return writeFormatted(e.stdout, *format, doc)
}

type kindsOutput struct {
	Fields     []string `json:"fields" yaml:"fields"`
	Conditions []string `json:"conditions" yaml:"conditions"`
	Validators []string `json:"validators" yaml:"validators"`
}

func kindsCmd(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "kinds", "[-format text|json|yaml]")
	format := fs.String("format", "text", "output format: text, json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out := kindsOutput{
		Fields:     fields.Names(e.engine.FieldKinds()),
		Conditions: conditions.Names(e.engine.ConditionKinds()),
		Validators: validators.Names(e.engine.ValidatorKinds()),
	}
	if *format != "text" {
		return writeFormatted(e.stdout, *format, out)
	}
	fmt.Fprintf(e.stdout, "fields:     %s\n", strings.Join(out.Fields, ", "))
	fmt.Fprintf(e.stdout, "conditions: %s\n", strings.Join(out.Conditions, ", "))
	fmt.Fprintf(e.stdout, "validators: %s\n", strings.Join(out.Validators, ", "))
	return nil
}
