package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-pulpoforms"
	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/i18n"
	"github.com/goliatone/go-pulpoforms/pkg/schema"
)

// errIssues signals that the command completed and reported problems.
var errIssues = errors.New("issues reported")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

type env struct {
	stdout io.Writer
	stderr io.Writer
	engine *pulpoforms.Engine
}

var commands = []command{
	{name: "validate", summary: "compile schemas and list every problem", run: validateCmd},
	{name: "check", summary: "check an answers document against a schema", run: checkCmd},
	{name: "fill", summary: "answer a form interactively", run: fillCmd},
	{name: "outline", summary: "print the effective structure of a form", run: outlineCmd},
	{name: "stats", summary: "aggregate the answers of many submissions", run: statsCmd},
	{name: "openapi", summary: "describe answer documents as OpenAPI 3", run: openapiCmd},
	{name: "kinds", summary: "list registered field, condition and validator types", run: kindsCmd},
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("pulpoforms: ")

	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errIssues):
		os.Exit(1)
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		return flag.ErrHelp
	}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		e := &env{
			stdout: stdout,
			stderr: stderr,
			engine: pulpoforms.New(pulpoforms.WithLoader(pulpoforms.NewLoader(schema.WithHTTPFallback(0)))),
		}
		return cmd.run(ctx, e, args[1:])
	}
	usage(stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [flags]\n\nCommands:\n", filepath.Base(os.Args[0]))
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", cmd.name, cmd.summary)
	}
}

func newFlagSet(e *env, name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: pulpoforms %s %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// loadForm compiles the schema at location. Invalid schemas are an error.
func (e *env) loadForm(ctx context.Context, location string) (*form.Form, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("a schema is required (-schema)")
	}
	src, err := schema.ParseSource(location)
	if err != nil {
		return nil, err
	}
	f, err := e.engine.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", location, err)
	}
	return f, nil
}

func readAnswers(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	answers, err := doc.Answers()
	if err != nil {
		return nil, fmt.Errorf("answers %s: %w", path, err)
	}
	return answers, nil
}

func readDocument(path string) (schema.Document, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return schema.NewDocument(schema.SourceFromFile(path), raw)
}

// localizer merges the catalogs found in dir over the built-in one.
func localizer(dir string) (*i18n.Localizer, error) {
	builtin, err := i18n.Default()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return i18n.NewLocalizer(builtin), nil
	}
	extra, err := i18n.LoadFS(os.DirFS(dir), ".", i18n.DefaultLocale)
	if err != nil {
		return nil, err
	}
	catalog := i18n.NewCatalog(i18n.DefaultLocale)
	catalog.Merge(builtin)
	catalog.Merge(extra)
	return i18n.NewLocalizer(catalog), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML re-encodes v through JSON so struct tags and custom marshalers
// shape the YAML output.
func writeYAML(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func writeFormatted(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", "json":
		return writeJSON(w, v)
	case "yaml", "yml":
		return writeYAML(w, v)
	default:
		return fmt.Errorf("unsupported format %q (json, yaml)", format)
	}
}

func writeOutput(e *env, path string, v any) error {
	if path == "" {
		return writeJSON(e.stdout, v)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(file, v); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(e.stderr, "answers written to %s\n", path)
	return nil
}
