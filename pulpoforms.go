// Package pulpoforms is the entry point of the form engine. It wires the
// default field, condition and validator registries, a schema loader and a
// cache of compiled forms behind a small Engine API.
//
//	engine := pulpoforms.New()
//	f, err := engine.Load(ctx, schema.SourceFromFile("inspection.yaml"))
//	if err != nil {
//		return err
//	}
//	result, err := f.CheckAnswers(answers)
package pulpoforms

import (
	"context"
	"fmt"

	"github.com/goliatone/go-pulpoforms/pkg/conditions"
	"github.com/goliatone/go-pulpoforms/pkg/fields"
	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/formcache"
	"github.com/goliatone/go-pulpoforms/pkg/registry"
	"github.com/goliatone/go-pulpoforms/pkg/schema"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// Option customises an Engine.
type Option func(*Engine)

// WithFieldKinds overrides the field type registry.
func WithFieldKinds(reg *registry.Registry[fields.Kind]) Option {
	return func(e *Engine) {
		if reg != nil {
			e.fieldKinds = reg
		}
	}
}

// WithConditionKinds overrides the condition type registry.
func WithConditionKinds(reg *registry.Registry[conditions.Kind]) Option {
	return func(e *Engine) {
		if reg != nil {
			e.conditionKinds = reg
		}
	}
}

// WithValidatorKinds overrides the validator type registry.
func WithValidatorKinds(reg *registry.Registry[validators.Kind]) Option {
	return func(e *Engine) {
		if reg != nil {
			e.validatorKinds = reg
		}
	}
}

// WithLoader injects a custom schema loader.
func WithLoader(loader schema.Loader) Option {
	return func(e *Engine) {
		if loader != nil {
			e.loader = loader
		}
	}
}

// WithCache shares a form cache between engines.
func WithCache(cache *formcache.Cache) Option {
	return func(e *Engine) {
		if cache != nil {
			e.cache = cache
		}
	}
}

// Engine compiles schemas and keeps the valid ones in a cache keyed by id and
// version.
type Engine struct {
	fieldKinds     *registry.Registry[fields.Kind]
	conditionKinds *registry.Registry[conditions.Kind]
	validatorKinds *registry.Registry[validators.Kind]
	loader         schema.Loader
	cache          *formcache.Cache
}

// New constructs an Engine. Missing dependencies are initialised with the
// built-in implementations: default registries, a file/fs loader without HTTP
// and an empty cache.
func New(options ...Option) *Engine {
	e := &Engine{}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.fieldKinds == nil {
		e.fieldKinds = fields.Default()
	}
	if e.conditionKinds == nil {
		e.conditionKinds = conditions.Default()
	}
	if e.validatorKinds == nil {
		e.validatorKinds = validators.Default()
	}
	if e.loader == nil {
		e.loader = NewLoader()
	}
	if e.cache == nil {
		e.cache = formcache.New()
	}
	return e
}

// Cache returns the engine cache.
func (e *Engine) Cache() *formcache.Cache { return e.cache }

// FieldKinds returns the field type registry in use.
func (e *Engine) FieldKinds() *registry.Registry[fields.Kind] { return e.fieldKinds }

// ConditionKinds returns the condition type registry in use.
func (e *Engine) ConditionKinds() *registry.Registry[conditions.Kind] { return e.conditionKinds }

// ValidatorKinds returns the validator type registry in use.
func (e *Engine) ValidatorKinds() *registry.Registry[validators.Kind] { return e.validatorKinds }

// FormOptions returns the form options binding the engine registries.
func (e *Engine) FormOptions() []form.Option {
	return []form.Option{
		form.WithFieldKinds(e.fieldKinds),
		form.WithConditionKinds(e.conditionKinds),
		form.WithValidatorKinds(e.validatorKinds),
	}
}

// Compile builds a Form from a decoded schema. The Form is returned together
// with its error so callers can inspect the report of an invalid schema.
// Valid forms are stored in the cache.
func (e *Engine) Compile(raw any) (*form.Form, error) {
	f, err := form.Parse(raw, e.FormOptions()...)
	if err != nil {
		return f, err
	}
	e.cache.Put(f)
	return f, nil
}

// CompileDocument decodes doc as JSON or YAML and compiles it.
func (e *Engine) CompileDocument(doc schema.Document) (*form.Form, error) {
	raw, err := doc.Decode()
	if err != nil {
		return nil, err
	}
	return e.Compile(raw)
}

// Load fetches a schema document and compiles it.
func (e *Engine) Load(ctx context.Context, src schema.Source) (*form.Form, error) {
	doc, err := e.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return e.CompileDocument(doc)
}

// Form returns a cached form, loading src when the key is not cached yet.
// The document at src must declare the id and version of key.
func (e *Engine) Form(ctx context.Context, key formcache.Key, src schema.Source) (*form.Form, error) {
	return e.cache.Get(ctx, key, func(ctx context.Context) (*form.Form, error) {
		doc, err := e.fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		raw, err := doc.Decode()
		if err != nil {
			return nil, err
		}
		f, err := form.Parse(raw, e.FormOptions()...)
		if err != nil {
			return nil, err
		}
		if f.ID() != key.ID || f.Version() != key.Version {
			return nil, fmt.Errorf("pulpoforms: %s holds %s@%d, want %s", locationOf(src), f.ID(), f.Version(), key)
		}
		return f, nil
	})
}

func (e *Engine) fetch(ctx context.Context, src schema.Source) (schema.Document, error) {
	doc, err := e.loader.Load(ctx, src)
	if err != nil {
		return schema.Document{}, fmt.Errorf("pulpoforms: load %s: %w", locationOf(src), err)
	}
	return doc, nil
}

// Check validates answers against the cached form for key without touching
// the caller's map.
func (e *Engine) Check(key formcache.Key, answers map[string]any) (form.Result, map[string]any, error) {
	f, ok := e.cache.Peek(key)
	if !ok {
		return form.Result{}, nil, fmt.Errorf("pulpoforms: form %s is not loaded", key)
	}
	return f.Check(answers)
}

// Compile builds a Form with the default registries.
func Compile(raw any) (*form.Form, error) {
	return form.Parse(raw)
}

// Load fetches and compiles the schema at location, which may be a file path
// or an http(s) URL.
func Load(ctx context.Context, location string, options ...schema.LoaderOption) (*form.Form, error) {
	src, err := schema.ParseSource(location)
	if err != nil {
		return nil, err
	}
	if src.Kind() == schema.SourceKindURL {
		options = append([]schema.LoaderOption{schema.WithHTTPFallback(0)}, options...)
	}
	return New(WithLoader(NewLoader(options...))).Load(ctx, src)
}

func locationOf(src schema.Source) string {
	if src == nil {
		return "<nil>"
	}
	return src.Location()
}
