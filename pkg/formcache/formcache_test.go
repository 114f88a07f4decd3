package formcache_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-pulpoforms/pkg/form"
	"github.com/goliatone/go-pulpoforms/pkg/formcache"
)

func schema(id string, version int) map[string]any {
	return map[string]any{
		"id":      id,
		"version": version,
		"fields": []any{
			map[string]any{"id": "name", "type": "string", "title": "Name", "required": true},
		},
		"sections": []any{map[string]any{"id": "s", "title": "S", "fields": []any{"name"}}},
		"pages":    []any{map[string]any{"id": "p", "title": "P", "sections": []any{"s"}}},
	}
}

func loader(calls *atomic.Int32, doc any) formcache.LoadFunc {
	return func(context.Context) (*form.Form, error) {
		calls.Add(1)
		return form.New(doc), nil
	}
}

func TestCache_LoadsOncePerKey(t *testing.T) {
	cache := formcache.New()
	key := formcache.Key{ID: "survey", Version: 1}

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background(), key, loader(&calls, schema("survey", 1))); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single load, got %d", got)
	}
	if _, ok := cache.Peek(key); !ok {
		t.Fatal("expected form to be stored")
	}
}

func TestCache_ErrorsAndInvalidFormsAreNotStored(t *testing.T) {
	cache := formcache.New()
	key := formcache.Key{ID: "broken", Version: 1}

	boom := errors.New("boom")
	if _, err := cache.Get(context.Background(), key, func(context.Context) (*form.Form, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}

	var calls atomic.Int32
	f, err := cache.Get(context.Background(), key, loader(&calls, map[string]any{"id": "broken"}))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.IsValid() {
		t.Fatal("expected invalid form")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", cache.Len())
	}

	keeping := formcache.New(formcache.WithInvalidForms())
	if _, err := keeping.Get(context.Background(), key, loader(&calls, map[string]any{"id": "broken"})); err != nil {
		t.Fatalf("get: %v", err)
	}
	if keeping.Len() != 1 {
		t.Fatalf("expected invalid form to be kept, got %d entries", keeping.Len())
	}
}

func TestCache_Invalidate(t *testing.T) {
	cache := formcache.New()
	cache.Put(form.New(schema("survey", 1)))
	cache.Put(form.New(schema("survey", 2)))
	cache.Put(form.New(schema("audit", 1)))

	want := []formcache.Key{{ID: "audit", Version: 1}, {ID: "survey", Version: 1}, {ID: "survey", Version: 2}}
	if diff := cmp.Diff(want, cache.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	if removed := cache.Invalidate("survey"); removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if diff := cmp.Diff([]formcache.Key{{ID: "audit", Version: 1}}, cache.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	cache.Purge()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after purge, got %d", cache.Len())
	}
}

func TestCache_PanickingLoadReleasesKey(t *testing.T) {
	cache := formcache.New()
	key := formcache.Key{ID: "survey", Version: 1}

	_, err := cache.Get(context.Background(), key, func(context.Context) (*form.Form, error) {
		panic("compile exploded")
	})
	if err == nil || !strings.Contains(err.Error(), "compile exploded") {
		t.Fatalf("expected panic to be reported as an error, got %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected failed entry to be dropped, got %d entries", cache.Len())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var calls atomic.Int32
	f, err := cache.Get(ctx, key, loader(&calls, schema("survey", 1)))
	if err != nil {
		t.Fatalf("get after panic: %v", err)
	}
	if !f.IsValid() || calls.Load() != 1 {
		t.Fatalf("expected a fresh load, valid=%v calls=%d", f.IsValid(), calls.Load())
	}
}
