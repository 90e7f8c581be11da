package draft

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKey(t *testing.T) {
	t.Parallel()

	if got := Key("health_v1"); got != "draft_health_v1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	answers := map[string]any{
		"country":  "US",
		"age":      "42",
		"coverage": []any{"dental", "vision"},
	}
	if err := store.Save(ctx, "health_v1", answers); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, ok, err := store.Load(ctx, "health_v1")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected draft to exist")
	}
	if diff := cmp.Diff(answers, loaded); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStoreLoadDoesNotAliasSaved(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	answers := map[string]any{"country": "US"}
	if err := store.Save(ctx, "f", answers); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	answers["country"] = "CA"

	loaded, _, err := store.Load(ctx, "f")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded["country"] != "US" {
		t.Fatalf("loaded draft aliases saved map: %v", loaded)
	}
}

func TestMemoryStoreLoadAbsent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, ok, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected absent draft")
	}
}

func TestMemoryStoreResetAll(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, id, map[string]any{"x": id}); err != nil {
			t.Fatalf("Save(%s) returned error: %v", id, err)
		}
	}
	if err := store.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll returned error: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if _, ok, _ := store.Load(ctx, id); ok {
			t.Fatalf("draft %q survived ResetAll", id)
		}
	}
}

func TestMemoryStoreSaveRequiresFormID(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if err := store.Save(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty form id")
	}
}
