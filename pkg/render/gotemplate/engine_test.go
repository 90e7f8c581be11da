package gotemplate

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestNew_RequiresLoader(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without base dir or fs")
	}
}

func TestRenderTemplate_LoadsFromFS(t *testing.T) {
	files := fstest.MapFS{
		"greeting.tpl": &fstest.MapFile{Data: []byte("Hello {{ name }}!")},
	}
	engine, err := New(WithFS(files))
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	out, err := engine.RenderTemplate("greeting", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}
	if out != "Hello Ada!" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderString_EscapesHTML(t *testing.T) {
	engine, err := New(WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	out, err := engine.RenderString("{{ value }}", map[string]any{"value": "<b>bold</b>"})
	if err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}
	if strings.Contains(out, "<b>") {
		t.Fatalf("expected escaped output, got %q", out)
	}
}

func TestRender_DispatchesOnContent(t *testing.T) {
	files := fstest.MapFS{
		"page.tpl": &fstest.MapFile{Data: []byte("from file")},
	}
	engine, err := New(WithFS(files))
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	if out, _ := engine.Render("page", nil); out != "from file" {
		t.Fatalf("unexpected template output: %q", out)
	}
	if out, _ := engine.Render("inline {{ n }}", map[string]any{"n": 1}); out != "inline 1" {
		t.Fatalf("unexpected inline output: %q", out)
	}
}

func TestGlobalContext_AvailableToTemplates(t *testing.T) {
	engine, err := New(
		WithFS(fstest.MapFS{}),
		WithGlobalData(map[string]any{"app": "formportal"}),
	)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	out, err := engine.RenderString("{{ app }}", nil)
	if err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}
	if out != "formportal" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestConvertToContext_StructsViaJSON(t *testing.T) {
	engine, err := New(WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	payload := struct {
		Name string `json:"name"`
	}{Name: "Ada"}

	out, err := engine.RenderString("{{ name }}", payload)
	if err != nil {
		t.Fatalf("expected render to succeed, got %v", err)
	}
	if out != "Ada" {
		t.Fatalf("unexpected output: %q", out)
	}
}
