package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateKey is wrapped by Register when the key is already taken.
	ErrDuplicateKey = errors.New("registry: key already registered")
	// ErrUnknownKey is wrapped by Get when nothing is registered under the key.
	ErrUnknownKey = errors.New("registry: key not registered")
)

// Registry stores implementations by string key. Registration normally happens
// once during process start; lookups happen on every schema compile and
// answer evaluation, so reads only take the shared lock.
type Registry[T any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]T
}

// New creates an empty registry. kind labels error messages ("field",
// "condition", "validator").
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    strings.TrimSpace(kind),
		entries: make(map[string]T),
	}
}

// Register adds value under key. Duplicate keys return an error wrapping
// ErrDuplicateKey and leave the existing entry untouched.
func (r *Registry[T]) Register(key string, value T) error {
	if r == nil {
		return errors.New("registry: registry is nil")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("registry: %s key is required", r.label())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%w: %s %q", ErrDuplicateKey, r.label(), key)
	}
	r.entries[key] = value
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry[T]) MustRegister(key string, value T) {
	if err := r.Register(key, value); err != nil {
		panic(err)
	}
}

// Get retrieves the value stored under key.
func (r *Registry[T]) Get(key string) (T, error) {
	var zero T
	if r == nil {
		return zero, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.entries[key]
	if !ok {
		return zero, fmt.Errorf("%w: %s %q", ErrUnknownKey, r.label(), key)
	}
	return value, nil
}

// MustGet panics if the key is missing.
func (r *Registry[T]) MustGet(key string) T {
	value, err := r.Get(key)
	if err != nil {
		panic(err)
	}
	return value
}

// Has reports whether key is registered.
func (r *Registry[T]) Has(key string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[key]
	return ok
}

// List returns the registered keys sorted alphabetically.
func (r *Registry[T]) List() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry[T]) label() string {
	if r.kind == "" {
		return "entry"
	}
	return r.kind
}
