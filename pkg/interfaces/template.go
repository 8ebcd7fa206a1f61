package interfaces

import (
	"io"
)

// TemplateRenderer renders named theme templates. When an optional writer is
// supplied the output also streams to it; the rendered markup is returned in
// both cases.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
}
