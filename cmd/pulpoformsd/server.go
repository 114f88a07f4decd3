package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/goliatone/go-pulpoforms"
	"github.com/goliatone/go-pulpoforms/cmd/pulpoformsd/handlers"
	"github.com/goliatone/go-pulpoforms/internal/echoutil"
	"github.com/goliatone/go-pulpoforms/internal/library"
	"github.com/goliatone/go-pulpoforms/pkg/i18n"
	"github.com/goliatone/go-pulpoforms/pkg/openapi"
)

const (
	apiRoot   = "/api"
	formsRoot = apiRoot + "/forms"
	bodyLimit = "2M"
)

type server struct {
	echo    *echo.Echo
	library *library.Library
}

// newServer scans the schema directory and registers the routes.
func newServer(ctx context.Context, conf Config) (*server, error) {
	e := echo.New()
	e.HideBanner = true
	echoutil.SetLevel(e, conf.LogLevel)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	engine := pulpoforms.New()
	lib := library.New(conf.SchemaDir, engine, library.WithLogger(e.Logger))
	if err := lib.Reload(ctx); err != nil {
		return nil, err
	}

	localizer, err := newLocalizer(conf.CatalogDir, conf.Locale)
	if err != nil {
		return nil, err
	}
	docOpts := []openapi.DocumentOption{
		openapi.WithTitle("pulpoforms"),
		openapi.WithBasePath(formsRoot),
	}

	id := "id"
	e.GET(formsRoot, handlers.ListFormsHandler(lib))
	e.POST(formsRoot+"/validate", handlers.ValidateSchemaHandler(engine))
	e.GET(formsRoot+"/:id", handlers.GetFormHandler(lib, id))
	e.GET(formsRoot+"/:id/schema", handlers.GetSchemaHandler(lib, id))
	e.POST(formsRoot+"/:id/answers", handlers.CheckAnswersHandler(lib, localizer, conf.Locale, id))
	e.GET(formsRoot+"/:id/outline", handlers.OutlineHandler(lib, id))
	e.POST(formsRoot+"/:id/outline", handlers.OutlineHandler(lib, id))
	e.GET(formsRoot+"/:id/openapi", handlers.OpenAPIHandler(lib, id, docOpts...))
	e.POST(formsRoot+"/:id/stats", handlers.StatsHandler(lib, id))
	e.GET(apiRoot+"/openapi", handlers.OpenAPIIndexHandler(lib, docOpts...))
	e.GET(apiRoot+"/kinds", handlers.KindsHandler(engine))

	return &server{echo: e, library: lib}, nil
}

// newLocalizer merges the catalogs of dir over the built-in ones.
func newLocalizer(dir, fallback string) (*i18n.Localizer, error) {
	builtin, err := i18n.Default()
	if err != nil {
		return nil, err
	}
	if fallback == "" {
		fallback = i18n.DefaultLocale
	}
	catalog := i18n.NewCatalog(fallback)
	catalog.Merge(builtin)
	if dir != "" {
		extra, err := i18n.LoadFS(os.DirFS(dir), ".", fallback)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", dir, err)
		}
		catalog.Merge(extra)
	}
	return i18n.NewLocalizer(catalog), nil
}
