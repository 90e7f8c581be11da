package render

import (
	"context"
	"io"

	"github.com/goliatone/go-formportal/pkg/session"
)

// View is the presentation snapshot of an active form: its identity plus the
// visible projection produced by the interpreter.
type View struct {
	FormID string
	Title  string
	Items  []session.RenderItem
}

// Renderer converts a View into a byte representation (HTML, text, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, options RenderOptions) ([]byte, error)
}

// TemplateEngine is the seam template-backed renderers rely on.
type TemplateEngine interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
