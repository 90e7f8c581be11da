package render

import (
	"context"
	"embed"
	"fmt"

	"github.com/goliatone/go-formportal/pkg/session"
)

//go:embed templates/form.html.tpl
var formTemplate string

// Templates holds the embedded template sources so callers can construct a
// template engine over them.
//
//go:embed templates
var Templates embed.FS

// HTMLRenderer produces a server-side HTML preview of a form's visible
// projection. It is a read-only rendering of interpreter state, not an
// interactive widget surface.
type HTMLRenderer struct {
	engine TemplateEngine
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTML constructs an HTML renderer on top of a template engine.
func NewHTML(engine TemplateEngine) (*HTMLRenderer, error) {
	if engine == nil {
		return nil, fmt.Errorf("render: template engine is required")
	}
	return &HTMLRenderer{engine: engine}, nil
}

func (r *HTMLRenderer) Name() string { return "html" }

func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

func (r *HTMLRenderer) Render(ctx context.Context, view View, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]any{
		"form": map[string]any{
			"id":    view.FormID,
			"title": view.Title,
		},
		"items": itemsContext(view.Items),
		"theme": themeTemplateContext(buildThemeContext(options.Theme)),
	}

	rendered, err := r.engine.RenderString(formTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("render: html preview: %w", err)
	}
	return []byte(rendered), nil
}

func itemsContext(items []session.RenderItem) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{
			"id":       item.Field.ID,
			"label":    item.Field.Label,
			"kind":     string(item.Field.Kind),
			"required": item.Field.Required,
			"options":  stringsToAny(item.Options),
			"errors":   stringsToAny(item.Errors),
		}
		if len(item.Members) > 0 {
			entry["members"] = itemsContext(item.Members)
		}
		out = append(out, entry)
	}
	return out
}

func themeTemplateContext(ctx themeContext) map[string]any {
	return map[string]any{
		"name":           ctx.Name,
		"variant":        ctx.Variant,
		"tokens":         ctx.Tokens,
		"css_vars_style": ctx.CSSVarsStyle,
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
