package editor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-rwadmin/components/preview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates(t *testing.T) {
	catalog := DefaultTemplates()
	opts := catalog.Options()
	require.NotEmpty(t, opts)
	assert.Equal(t, "bar", opts[0].Value)

	cfg := catalog.Config("bar")
	require.Contains(t, cfg, "data")
	cfg["title"] = "mutated"
	assert.Equal(t, "Bar chart", catalog.Config("bar")["title"])
}

func TestDecodeTemplateManifestRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":     ``,
		"version":   "version: \"2\"\ntemplates: []\n",
		"unknown":   "version: \"1\"\nwidgets: []\n",
		"no id":     "version: \"1\"\ntemplates:\n  - label: x\n",
		"duplicate": "version: \"1\"\ntemplates:\n  - id: a\n  - id: a\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTemplateManifest(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	doc := "templates:\n  - id: map_embed\n    config:\n      type: embed\n      url: https://maps.example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	catalog, err := LoadTemplateFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Option{{Label: "Map embed", Value: "map_embed"}}, catalog.Options())
	assert.Equal(t, "https://maps.example.com", catalog.Config("map_embed")["url"])
}

func TestTemplateDataFormatsCodeFields(t *testing.T) {
	view := View{
		Kind: StepWidget,
		Fieldsets: []Fieldset{{
			Name: "advanced",
			Fields: []FieldDescriptor{
				{Name: "name", Kind: KindText, Value: "Tree cover"},
				{Name: "widgetConfig", Kind: KindCode, Value: map[string]any{"type": "embed"}},
				{Name: "legendConfig", Kind: KindCode},
			},
		}},
	}
	res := &preview.Result{Kind: preview.KindFrame, HTML: "<iframe></iframe>"}

	data := TemplateData("s-1", view, res)
	got := data["view"].(View)
	assert.Equal(t, "Tree cover", got.Fieldsets[0].Fields[0].Value)
	assert.Equal(t, "{\n  \"type\": \"embed\"\n}", got.Fieldsets[0].Fields[1].Value)
	assert.Equal(t, "", got.Fieldsets[0].Fields[2].Value)
	assert.Equal(t, *res, data["preview"])
	assert.Equal(t, map[string]any{"type": "embed"}, view.Fieldsets[0].Fields[1].Value, "input view must not change")

	data = TemplateData("s-1", view, &preview.Result{Kind: preview.KindSkipped})
	assert.NotContains(t, data, "preview")
}
