package pulpoforms_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	pulpoforms "github.com/goliatone/go-pulpoforms"
	"github.com/goliatone/go-pulpoforms/pkg/formcache"
	"github.com/goliatone/go-pulpoforms/pkg/schema"
	"github.com/goliatone/go-pulpoforms/pkg/testsupport"
)

func fixtureEngine() *pulpoforms.Engine {
	return pulpoforms.New(pulpoforms.WithLoader(
		pulpoforms.NewLoader(schema.WithFileSystem(testsupport.Fixtures())),
	))
}

func TestEngine_LoadCachesValidForms(t *testing.T) {
	engine := fixtureEngine()

	f, err := engine.Load(testsupport.Context(), schema.SourceFromFS(testsupport.ApronCheck))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.ID() != "apron-check" {
		t.Fatalf("id = %q", f.ID())
	}
	if diff := cmp.Diff([]formcache.Key{{ID: "apron-check", Version: 1}}, engine.Cache().Keys()); diff != "" {
		t.Fatalf("cache keys mismatch (-want +got):\n%s", diff)
	}

	result, effective, err := engine.Check(formcache.Key{ID: "apron-check", Version: 1}, map[string]any{
		"fod": false, "zone": "A",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.OK() {
		t.Fatalf("expected OK, got %+v", result)
	}
	if diff := cmp.Diff(map[string]any{"fod": false}, effective); diff != "" {
		t.Fatalf("effective answers mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_CompileKeepsInvalidFormsOutOfCache(t *testing.T) {
	engine := pulpoforms.New()
	f, err := engine.Compile(map[string]any{"id": "broken", "version": 1})
	if err == nil {
		t.Fatalf("expected error")
	}
	if f == nil || f.IsValid() {
		t.Fatalf("expected an invalid form with a report")
	}
	if engine.Cache().Len() != 0 {
		t.Fatalf("invalid form was cached")
	}
}

func TestEngine_FormChecksKey(t *testing.T) {
	engine := fixtureEngine()
	ctx := testsupport.Context()
	src := schema.SourceFromFS(testsupport.RunwayInspection)

	f, err := engine.Form(ctx, formcache.Key{ID: "runway-inspection", Version: 3}, src)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	again, err := engine.Form(ctx, formcache.Key{ID: "runway-inspection", Version: 3}, src)
	if err != nil {
		t.Fatalf("form again: %v", err)
	}
	if f != again {
		t.Fatalf("expected the cached form to be reused")
	}

	if _, err := engine.Form(ctx, formcache.Key{ID: "runway-inspection", Version: 9}, src); err == nil {
		t.Fatalf("expected version mismatch error")
	}
}

func TestEngine_CheckUnknownKey(t *testing.T) {
	if _, _, err := pulpoforms.New().Check(formcache.Key{ID: "nope"}, nil); err == nil {
		t.Fatalf("expected error for a form that was never loaded")
	}
}

func TestLoad_File(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("pkg", "testsupport", "testdata", testsupport.RunwayInspection))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	path := filepath.Join(t.TempDir(), "runway.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := pulpoforms.Load(testsupport.Context(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Version() != 3 {
		t.Fatalf("version = %d, want 3", f.Version())
	}
}

func TestCompile(t *testing.T) {
	f, err := pulpoforms.Compile(testsupport.LoadSchema(t, testsupport.ApronCheck))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(f.Fields()) != 3 {
		t.Fatalf("fields = %d, want 3", len(f.Fields()))
	}
}
