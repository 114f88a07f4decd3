// Package formcache memoizes compiled forms. Compiling a schema is the only
// expensive step of the engine and the same schema is usually checked against
// many submissions, so hosts keep one Form per schema id and version.
package formcache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-pulpoforms/pkg/form"
)

// Key identifies a compiled form.
type Key struct {
	ID      string
	Version int
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.ID, k.Version)
}

// LoadFunc compiles the form for a key on a cache miss.
type LoadFunc func(ctx context.Context) (*form.Form, error)

// Option customises a Cache.
type Option func(*Cache)

// WithInvalidForms keeps forms whose schema failed to compile. By default they
// are returned but not stored so a corrected schema is picked up on the next
// call.
func WithInvalidForms() Option {
	return func(c *Cache) {
		c.keepInvalid = true
	}
}

type entry struct {
	ready chan struct{}
	form  *form.Form
	err   error
}

// Cache is safe for concurrent use. Concurrent misses for the same key share a
// single load.
type Cache struct {
	mu          sync.Mutex
	items       map[Key]*entry
	keepInvalid bool
}

// New returns an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{items: make(map[Key]*entry)}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached form for key, calling load on a miss. Load errors are
// not cached.
func (c *Cache) Get(ctx context.Context, key Key, load LoadFunc) (*form.Form, error) {
	if load == nil {
		return nil, errors.New("formcache: load function is required")
	}

	c.mu.Lock()
	if e, ok := c.items[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.ready:
			return e.form, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &entry{ready: make(chan struct{})}
	c.items[key] = e
	c.mu.Unlock()

	c.fill(ctx, key, e, load)
	return e.form, e.err
}

// fill runs load for e and releases its waiters. A panicking load is reported
// as an error; failed and unstored entries are dropped.
func (c *Cache) fill(ctx context.Context, key Key, e *entry, load LoadFunc) {
	defer func() {
		if r := recover(); r != nil {
			e.form, e.err = nil, fmt.Errorf("formcache: load for %s panicked: %v", key, r)
		}
		close(e.ready)

		if e.err != nil || (!e.form.IsValid() && !c.keepInvalid) {
			c.mu.Lock()
			if c.items[key] == e {
				delete(c.items, key)
			}
			c.mu.Unlock()
		}
	}()

	e.form, e.err = load(ctx)
	if e.err == nil && e.form == nil {
		e.err = fmt.Errorf("formcache: load for %s returned no form", key)
	}
}

// Peek returns a stored form without loading.
func (c *Cache) Peek(key Key) (*form.Form, bool) {
	c.mu.Lock()
	e, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-e.ready:
		return e.form, e.err == nil && e.form != nil
	default:
		return nil, false
	}
}

// Put stores a compiled form under its own id and version.
func (c *Cache) Put(f *form.Form) Key {
	key := Key{ID: f.ID(), Version: f.Version()}
	e := &entry{ready: make(chan struct{}), form: f}
	close(e.ready)

	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
	return key
}

// Invalidate drops every version stored for id and reports how many entries
// were removed.
func (c *Cache) Invalidate(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if key.ID == id {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[Key]*entry)
}

// Keys lists the stored keys sorted by id then version.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	c.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].Version < keys[j].Version
	})
	return keys
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
