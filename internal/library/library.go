// Package library indexes the schema documents of a directory. Valid forms are
// served from the engine cache; invalid ones keep their compile report so a
// host can show why they were rejected.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"

	"github.com/goliatone/go-pulpoforms"
	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/formcache"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/schema"
)

// ErrNotFound is returned for ids or versions the library does not hold.
var ErrNotFound = errors.New("library: form not found")

// Logger is the subset of the gommon logger the library writes to.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Entry describes one schema document.
type Entry struct {
	ID      string      `json:"id"`
	Version int         `json:"version"`
	Path    string      `json:"path"`
	Valid   bool        `json:"valid"`
	Report  form.Report `json:"report"`
}

// Key returns the cache key of the entry.
func (e Entry) Key() formcache.Key {
	return formcache.Key{ID: e.ID, Version: e.Version}
}

// Option customises a Library.
type Option func(*Library)

// WithLogger replaces the default gommon logger.
func WithLogger(logger Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Library is safe for concurrent use.
type Library struct {
	dir    string
	engine *pulpoforms.Engine
	logger Logger

	mu      sync.RWMutex
	entries []Entry
}

// New returns an empty library over dir. Call Reload to scan it.
func New(dir string, engine *pulpoforms.Engine, opts ...Option) *Library {
	if engine == nil {
		engine = pulpoforms.New()
	}
	l := &Library{
		dir:    dir,
		engine: engine,
		logger: log.New("library"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Dir returns the scanned directory.
func (l *Library) Dir() string { return l.dir }

// Engine returns the engine compiling the documents.
func (l *Library) Engine() *pulpoforms.Engine { return l.engine }

// IsSchemaFile reports whether name has a schema document extension.
func IsSchemaFile(name string) bool {
	_, ok := schema.FormatFromExtension(name)
	return ok
}

// Reload purges the engine cache and compiles every schema document of the
// directory again.
func (l *Library) Reload(ctx context.Context) error {
	files, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("library: read %s: %w", l.dir, err)
	}

	l.engine.Cache().Purge()
	var (
		entries []Entry
		seen    = make(map[formcache.Key]string)
	)
	for _, file := range files {
		if file.IsDir() || !IsSchemaFile(file.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := l.compile(ctx, filepath.Join(l.dir, file.Name()))
		if entry.Valid {
			if other, dup := seen[entry.Key()]; dup {
				entry.Valid = false
				entry.Report = form.Report{
					Result: form.StatusSchemaError,
					Errors: []form.Issue{{Message: formerrors.Textf("%s is already defined by %s", entry.Key(), other)}},
				}
				l.engine.Cache().Invalidate(entry.ID)
				l.logger.Warnf("%s: duplicate of %s, ignored", entry.Path, other)
			} else {
				seen[entry.Key()] = entry.Path
			}
		}
		entries = append(entries, entry)
	}

	// a duplicate invalidated every version of its id; put the survivors back
	for _, entry := range entries {
		if !entry.Valid {
			continue
		}
		if _, ok := l.engine.Cache().Peek(entry.Key()); !ok {
			if _, err := l.engine.Form(ctx, entry.Key(), schema.SourceFromFile(entry.Path)); err != nil {
				l.logger.Warnf("%s: reload %s: %v", entry.Path, entry.Key(), err)
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ID != entries[j].ID {
			return entries[i].ID < entries[j].ID
		}
		if entries[i].Version != entries[j].Version {
			return entries[i].Version < entries[j].Version
		}
		return entries[i].Path < entries[j].Path
	})

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()

	valid := 0
	for _, entry := range entries {
		if entry.Valid {
			valid++
		}
	}
	l.logger.Infof("loaded %d schema document(s) from %s, %d valid", len(entries), l.dir, valid)
	return nil
}

func (l *Library) compile(ctx context.Context, path string) Entry {
	entry := Entry{Path: path}
	f, err := l.engine.Load(ctx, schema.SourceFromFile(path))
	if f == nil {
		entry.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		entry.Report = form.Report{
			Result: form.StatusFormatError,
			Errors: []form.Issue{{Message: formerrors.Textf("%v", err)}},
		}
		l.logger.Warnf("%s: %v", path, err)
		return entry
	}

	entry.ID = f.ID()
	entry.Version = f.Version()
	entry.Report = f.Report()
	entry.Valid = err == nil
	if entry.ID == "" {
		entry.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err != nil {
		l.logger.Warnf("%s: %v", path, err)
	}
	return entry
}

// List returns every indexed document sorted by id, version and path.
func (l *Library) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Entry returns the document for id. Version 0 selects the highest valid
// version, or the last invalid document when none is valid.
func (l *Library) Entry(id string, version int) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var (
		found   Entry
		matched bool
	)
	for _, entry := range l.entries {
		if entry.ID != id {
			continue
		}
		switch {
		case version != 0:
			if entry.Version == version && (!matched || entry.Valid) {
				found, matched = entry, true
			}
		case !matched, entry.Valid, !found.Valid:
			found, matched = entry, true
		}
	}
	if !matched {
		if version != 0 {
			return Entry{}, fmt.Errorf("%w: %s@%d", ErrNotFound, id, version)
		}
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return found, nil
}

// Form returns the compiled form for id. Forms evicted from the cache are
// compiled again from their file.
func (l *Library) Form(ctx context.Context, id string, version int) (*form.Form, error) {
	entry, err := l.Entry(id, version)
	if err != nil {
		return nil, err
	}
	if !entry.Valid {
		return nil, fmt.Errorf("%w: %s", form.ErrInvalidForm, entry.Path)
	}
	return l.engine.Form(ctx, entry.Key(), schema.SourceFromFile(entry.Path))
}

// Forms returns the highest valid version of every id.
func (l *Library) Forms(ctx context.Context) ([]*form.Form, error) {
	latest := make(map[string]Entry)
	var order []string
	for _, entry := range l.List() {
		if !entry.Valid {
			continue
		}
		if _, ok := latest[entry.ID]; !ok {
			order = append(order, entry.ID)
		}
		latest[entry.ID] = entry
	}

	out := make([]*form.Form, 0, len(order))
	for _, id := range order {
		entry := latest[id]
		f, err := l.engine.Form(ctx, entry.Key(), schema.SourceFromFile(entry.Path))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
