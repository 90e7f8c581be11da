package render

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubRenderer struct {
	name string
}

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(context.Context, View, RenderOptions) ([]byte, error) {
	return []byte(s.name), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	if err := registry.Register(stubRenderer{name: "html"}); err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}

	renderer, err := registry.Get("html")
	if err != nil {
		t.Fatalf("expected lookup to succeed, got %v", err)
	}
	if renderer.Name() != "html" {
		t.Fatalf("unexpected renderer: %q", renderer.Name())
	}
	if !registry.Has("html") || registry.Has("missing") {
		t.Fatal("unexpected Has results")
	}
}

func TestRegistry_DuplicateAndInvalidNames(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	if err := registry.Register(stubRenderer{name: "html"}); err != nil {
		t.Fatalf("expected registration to succeed, got %v", err)
	}
	if err := registry.Register(stubRenderer{name: "html"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if err := registry.Register(stubRenderer{}); err == nil {
		t.Fatal("expected empty name to fail")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("expected nil renderer to fail")
	}
}

func TestRegistry_ListIsSorted(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, name := range []string{"text", "html", "json"} {
		if err := registry.Register(stubRenderer{name: name}); err != nil {
			t.Fatalf("failed to register %q: %v", name, err)
		}
	}
	if diff := cmp.Diff([]string{"html", "json", "text"}, registry.List()); diff != "" {
		t.Fatalf("unexpected list (-want +got):\n%s", diff)
	}
}
