package openapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-pulpoforms/pkg/form"
)

// DocumentOptions configures Document.
type DocumentOptions struct {
	Title   string
	Version string
	// BasePath prefixes every answers path. Defaults to "/api/forms".
	BasePath string
}

// DocumentOption mutates DocumentOptions.
type DocumentOption func(*DocumentOptions)

// WithTitle sets info.title.
func WithTitle(title string) DocumentOption {
	return func(opts *DocumentOptions) {
		opts.Title = title
	}
}

// WithVersion sets info.version.
func WithVersion(version string) DocumentOption {
	return func(opts *DocumentOptions) {
		opts.Version = version
	}
}

// WithBasePath sets the prefix of the answers paths.
func WithBasePath(path string) DocumentOption {
	return func(opts *DocumentOptions) {
		opts.BasePath = path
	}
}

// NewDocumentOptions applies options over the defaults.
func NewDocumentOptions(options ...DocumentOption) DocumentOptions {
	cfg := DocumentOptions{
		Title:    "pulpoforms answers",
		Version:  "1.0.0",
		BasePath: "/api/forms",
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")
	return cfg
}

// Document builds an OpenAPI document with one answers endpoint per form. The
// answer schemas live under components.schemas, named after the form id.
func Document(forms []*form.Form, options ...DocumentOption) (*openapi3.T, error) {
	if len(forms) == 0 {
		return nil, errors.New("openapi: at least one form is required")
	}
	cfg := NewDocumentOptions(options...)

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   cfg.Title,
			Version: cfg.Version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}

	for _, f := range forms {
		schema, err := AnswerSchema(f)
		if err != nil {
			return nil, fmt.Errorf("openapi: form %q: %w", f.ID(), err)
		}
		name := ComponentName(f.ID())
		if _, exists := doc.Components.Schemas[name]; exists {
			return nil, fmt.Errorf("openapi: form %q: component %q is defined more than once", f.ID(), name)
		}
		doc.Components.Schemas[name] = openapi3.NewSchemaRef("", schema)

		ref := openapi3.NewSchemaRef("#/components/schemas/"+name, schema)
		doc.Paths.Set(cfg.BasePath+"/"+f.ID()+"/answers", &openapi3.PathItem{
			Post: answersOperation(f, name, ref),
		})
	}
	return doc, nil
}

func answersOperation(f *form.Form, name string, ref *openapi3.SchemaRef) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = "check" + name
	op.Summary = fmt.Sprintf("Check answers for %s (version %d)", f.ID(), f.Version())
	op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref),
	}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("The answer is valid."),
		}),
		openapi3.WithStatus(http.StatusUnprocessableEntity, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("One or more answers were rejected."),
		}),
	)
	return op
}

// ComponentName turns a form id into a component name made of letters and
// digits, for example "runway-inspection" becomes "RunwayInspection".
func ComponentName(id string) string {
	var (
		b     strings.Builder
		upper = true
	)
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Form"
	}
	return b.String()
}
