// Package handlers implements the HTTP endpoints of the form host.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-pulpoforms"
	"github.com/goliatone/go-pulpoforms/internal/library"
	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/conditions"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/i18n"
	"github.com/goliatone/go-pulpoforms/pkg/openapi"
	"github.com/goliatone/go-pulpoforms/pkg/outline"
	"github.com/goliatone/go-pulpoforms/pkg/schema"
	"github.com/goliatone/go-pulpoforms/pkg/stats"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// Library is the view of the schema directory the handlers need.
type Library interface {
	List() []library.Entry
	Entry(id string, version int) (library.Entry, error)
	Form(ctx context.Context, id string, version int) (*form.Form, error)
	Forms(ctx context.Context) ([]*form.Form, error)
}

// Summary is one row of the form listing.
type Summary struct {
	ID      string      `json:"id"`
	Version int         `json:"version"`
	File    string      `json:"file"`
	Valid   bool        `json:"valid"`
	Result  form.Status `json:"result"`
}

// ListFormsHandler lists every schema document with its validity.
func ListFormsHandler(lib Library) echo.HandlerFunc {
	return func(c echo.Context) error {
		entries := lib.List()
		out := make([]Summary, 0, len(entries))
		for _, entry := range entries {
			out = append(out, Summary{
				ID:      entry.ID,
				Version: entry.Version,
				File:    filepath.Base(entry.Path),
				Valid:   entry.Valid,
				Result:  entry.Report.Result,
			})
		}
		return c.JSON(http.StatusOK, out)
	}
}

// GetFormHandler returns the compile report of one schema.
func GetFormHandler(lib Library, idParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(idParam)
		version, err := versionOf(c)
		if err != nil {
			return err
		}
		entry, err := lib.Entry(id, version)
		if err != nil {
			return NotFound(fmt.Sprintf("form %s is not found", id), err)
		}
		return c.JSON(http.StatusOK, entry)
	}
}

// GetSchemaHandler returns the schema document of a valid form.
func GetSchemaHandler(lib Library, idParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := formOf(c, lib, idParam)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, f.Schema())
	}
}

// ValidateSchemaHandler compiles the posted schema and returns its report:
// 200 when valid, 422 otherwise.
func ValidateSchemaHandler(engine *pulpoforms.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		doc, err := readBody(c)
		if err != nil {
			return err
		}
		raw, err := doc.Decode()
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, form.Report{
				Result: form.StatusFormatError,
				Errors: []form.Issue{{Message: formerrors.Textf("%v", err)}},
			})
		}
		report := form.New(raw, engine.FormOptions()...).Report()
		if !report.Valid() {
			return c.JSON(http.StatusUnprocessableEntity, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}

// CheckResponse is the body of an answers check.
type CheckResponse struct {
	Result  string         `json:"result"`
	Message string         `json:"message,omitempty"`
	Locale  string         `json:"locale,omitempty"`
	Errors  []i18n.Issue   `json:"errors,omitempty"`
	Answers map[string]any `json:"answers,omitempty"`
}

// CheckAnswersHandler checks the posted answers: 200 with the effective
// answers when accepted, 422 with localized issues otherwise. The locale comes
// from ?locale=, then Accept-Language, then defaultLocale. ?precheck=true runs
// the OpenAPI answer schema first.
func CheckAnswersHandler(lib Library, localizer *i18n.Localizer, defaultLocale, idParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := formOf(c, lib, idParam)
		if err != nil {
			return err
		}
		answers, err := readAnswers(c)
		if err != nil {
			return err
		}

		if precheck, _ := strconv.ParseBool(c.QueryParam("precheck")); precheck {
			if err := openapi.Precheck(f, answers); err != nil {
				return NewErrorMessage(
					http.StatusUnprocessableEntity, "answers do not match the answer schema",
					WithAdvice(fmt.Sprintf("GET /api/forms/%s/openapi describes the expected document.", f.ID())),
					WithDetail(err.Error()),
					WithError(err),
				)
			}
		}

		result, cleaned, err := f.Check(answers)
		if err != nil {
			return answersError(err)
		}
		if result.OK() {
			return c.JSON(http.StatusOK, CheckResponse{Result: result.Result, Message: result.Message, Answers: cleaned})
		}
		locale := requestLocale(c, defaultLocale)
		return c.JSON(http.StatusUnprocessableEntity, CheckResponse{
			Result: result.Result,
			Locale: locale,
			Errors: localizer.Result(locale, result),
		})
	}
}

// OutlineHandler returns the effective outline of a form. GET resolves it with
// no answers, POST with the posted ones. ?visible=true leaves hidden items out.
func OutlineHandler(lib Library, idParam string, opts ...outline.Option) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := formOf(c, lib, idParam)
		if err != nil {
			return err
		}
		answers := map[string]any{}
		if c.Request().Method == http.MethodPost {
			if answers, err = readAnswers(c); err != nil {
				return err
			}
		}
		options := append([]outline.Option(nil), opts...)
		if visible, _ := strconv.ParseBool(c.QueryParam("visible")); visible {
			options = append(options, outline.VisibleOnly())
		}
		out, err := outline.Build(f, answers, options...)
		if err != nil {
			return answersError(err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

// OpenAPIHandler describes the answers endpoint of one form.
func OpenAPIHandler(lib Library, idParam string, opts ...openapi.DocumentOption) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := formOf(c, lib, idParam)
		if err != nil {
			return err
		}
		doc, err := openapi.Document([]*form.Form{f}, opts...)
		if err != nil {
			return InternalServerError(err)
		}
		return c.JSON(http.StatusOK, doc)
	}
}

// OpenAPIIndexHandler describes the answers endpoints of every valid form.
func OpenAPIIndexHandler(lib Library, opts ...openapi.DocumentOption) echo.HandlerFunc {
	return func(c echo.Context) error {
		forms, err := lib.Forms(c.Request().Context())
		if err != nil {
			return InternalServerError(err)
		}
		if len(forms) == 0 {
			return NotFound("no valid form is loaded", nil)
		}
		doc, err := openapi.Document(forms, opts...)
		if err != nil {
			return InternalServerError(err)
		}
		return c.JSON(http.StatusOK, doc)
	}
}

// StatsResponse is the body of a statistics request.
type StatsResponse struct {
	stats.Report
	Skipped int `json:"skipped"`
}

// StatsHandler aggregates a posted list of submissions. Submissions rejected
// by the form are counted as skipped.
func StatsHandler(lib Library, idParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		f, err := formOf(c, lib, idParam)
		if err != nil {
			return err
		}
		doc, err := readBody(c)
		if err != nil {
			return err
		}
		decoded, err := doc.Decode()
		if err != nil {
			return BadRequest("can not understand the requested document", err)
		}
		list, ok := values.List(decoded)
		if !ok {
			return BadRequest("a list of submissions is expected", nil,
				WithDetail(fmt.Sprintf("got %s", values.TypeName(decoded))))
		}

		var (
			accepted []map[string]any
			skipped  int
		)
		for _, item := range list {
			answers, ok := values.Map(item)
			if !ok {
				skipped++
				continue
			}
			result, cleaned, err := f.Check(answers)
			if err != nil || !result.OK() {
				skipped++
				continue
			}
			accepted = append(accepted, cleaned)
		}
		report, err := stats.Compute(f, accepted)
		if err != nil {
			return InternalServerError(err)
		}
		return c.JSON(http.StatusOK, StatsResponse{Report: report, Skipped: skipped})
	}
}

// Kinds lists the registered type names.
type Kinds struct {
	Fields     []string `json:"fields"`
	Conditions []string `json:"conditions"`
	Validators []string `json:"validators"`
}

// KindsHandler lists the field, condition and validator types of engine.
func KindsHandler(engine *pulpoforms.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, Kinds{
			Fields:     fields.Names(engine.FieldKinds()),
			Conditions: conditions.Names(engine.ConditionKinds()),
			Validators: validators.Names(engine.ValidatorKinds()),
		})
	}
}

func versionOf(c echo.Context) (int, error) {
	raw := c.QueryParam("version")
	if raw == "" {
		return 0, nil
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version < 0 {
		return 0, BadRequest("version should be a positive integer", err)
	}
	return version, nil
}

func formOf(c echo.Context, lib Library, idParam string) (*form.Form, error) {
	id := c.Param(idParam)
	version, err := versionOf(c)
	if err != nil {
		return nil, err
	}
	f, err := lib.Form(c.Request().Context(), id, version)
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, library.ErrNotFound):
		return nil, NotFound(fmt.Sprintf("form %s is not found", id), err)
	case errors.Is(err, form.ErrInvalidForm):
		return nil, Conflict(fmt.Sprintf("form %s is not valid", id), err,
			WithAdvice(fmt.Sprintf("GET /api/forms/%s lists the schema problems.", id)))
	default:
		return nil, InternalServerError(err)
	}
}

// readBody wraps the request body in a Document. YAML content types are
// decoded as YAML; everything else as JSON.
func readBody(c echo.Context) (schema.Document, error) {
	req := c.Request()
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return schema.Document{}, BadRequest("can not read the request body", err)
	}
	name := "request.json"
	if strings.Contains(strings.ToLower(req.Header.Get(echo.HeaderContentType)), "yaml") {
		name = "request.yaml"
	}
	doc, err := schema.NewDocument(schema.SourceFromFS(name), raw)
	if err != nil {
		return schema.Document{}, BadRequest("the request body is empty", err)
	}
	return doc, nil
}

func readAnswers(c echo.Context) (map[string]any, error) {
	doc, err := readBody(c)
	if err != nil {
		return nil, err
	}
	answers, err := doc.Answers()
	if err != nil {
		return nil, answersError(err)
	}
	return answers, nil
}

// answersError maps answer document problems to 400 responses listing every
// message.
func answersError(err error) error {
	messages := formerrors.MessagesOf(err)
	if len(messages) == 0 {
		return BadRequest("can not understand the requested answers", err)
	}
	detail := make([]string, 0, len(messages))
	for _, msg := range messages {
		detail = append(detail, msg.String())
	}
	return BadRequest("can not understand the requested answers", err, WithDetail(detail...))
}

// requestLocale picks ?locale=, then the first Accept-Language tag.
func requestLocale(c echo.Context, fallback string) string {
	if locale := strings.TrimSpace(c.QueryParam("locale")); locale != "" {
		return locale
	}
	header := c.Request().Header.Get("Accept-Language")
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(first, ";")
	if tag = strings.TrimSpace(tag); tag != "" && tag != "*" {
		return tag
	}
	return fallback
}
