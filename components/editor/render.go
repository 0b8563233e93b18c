package editor

import (
	"embed"
	"encoding/json"
	"io"

	"github.com/goliatone/go-rwadmin/components/preview"
	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// StepTemplate is the template name used to render step views.
const StepTemplate = "step"

// ViewRenderer renders step views into markup.
type ViewRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// NewTemplateRenderer creates a go-template renderer backed by the embedded templates.
func NewTemplateRenderer() (ViewRenderer, error) {
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}

// TemplateData prepares a view for templates: code values become indented
// JSON text so they can be edited in a textarea.
func TemplateData(session string, view View, result *preview.Result) map[string]any {
	out := view
	out.Fieldsets = make([]Fieldset, len(view.Fieldsets))
	for i, fs := range view.Fieldsets {
		fields := make([]FieldDescriptor, len(fs.Fields))
		for j, desc := range fs.Fields {
			if desc.Kind == KindCode {
				desc.Value = codeText(desc.Value)
			}
			fields[j] = desc
		}
		fs.Fields = fields
		out.Fieldsets[i] = fs
	}
	data := map[string]any{
		"session": session,
		"view":    out,
	}
	if result != nil && result.Kind != preview.KindSkipped {
		data["preview"] = *result
	}
	return data
}

func codeText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
