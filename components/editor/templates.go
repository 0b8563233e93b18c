package editor

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

const templateManifestVersion = "1"

//go:embed manifests/widget_templates.yaml
var defaultTemplateManifest embed.FS

// WidgetTemplate is a starter configuration offered in advanced mode.
type WidgetTemplate struct {
	ID     string         `json:"id" yaml:"id"`
	Label  string         `json:"label" yaml:"label"`
	Config map[string]any `json:"config" yaml:"config"`
}

// TemplateManifest is the YAML document listing widget templates.
type TemplateManifest struct {
	Version   string           `json:"version" yaml:"version"`
	Templates []WidgetTemplate `json:"templates" yaml:"templates"`
	Source    string           `json:"-" yaml:"-"`
}

// TemplateCatalog holds widget templates in manifest order.
type TemplateCatalog struct {
	mu        sync.RWMutex
	order     []string
	templates map[string]WidgetTemplate
}

// NewTemplateCatalog builds a catalog from templates.
func NewTemplateCatalog(templates ...WidgetTemplate) (*TemplateCatalog, error) {
	c := &TemplateCatalog{templates: map[string]WidgetTemplate{}}
	for _, tpl := range templates {
		if err := c.Register(tpl); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultTemplates returns the catalog shipped with the module.
func DefaultTemplates() *TemplateCatalog {
	f, err := defaultTemplateManifest.Open("manifests/widget_templates.yaml")
	if err != nil {
		panic(fmt.Sprintf("editor: default templates: %v", err))
	}
	defer f.Close()
	doc, err := DecodeTemplateManifest(f)
	if err != nil {
		panic(fmt.Sprintf("editor: default templates: %v", err))
	}
	catalog, err := NewTemplateCatalog(doc.Templates...)
	if err != nil {
		panic(fmt.Sprintf("editor: default templates: %v", err))
	}
	return catalog
}

// LoadTemplateFile reads a manifest from disk into a catalog.
func LoadTemplateFile(path string) (*TemplateCatalog, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("editor: open templates %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeTemplateManifest(f)
	if err != nil {
		return nil, fmt.Errorf("editor: decode templates %s: %w", path, err)
	}
	doc.Source = path
	return NewTemplateCatalog(doc.Templates...)
}

// DecodeTemplateManifest reads and validates a template manifest.
func DecodeTemplateManifest(r io.Reader) (*TemplateManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc TemplateManifest
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("editor: template manifest is empty")
		}
		return nil, fmt.Errorf("editor: parse template manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = templateManifestVersion
	}
	if doc.Version != templateManifestVersion {
		return nil, fmt.Errorf("editor: unsupported template manifest version %q", doc.Version)
	}
	seen := map[string]bool{}
	for idx, tpl := range doc.Templates {
		if tpl.ID == "" {
			return nil, fmt.Errorf("editor: template at index %d is missing id", idx)
		}
		if seen[tpl.ID] {
			return nil, fmt.Errorf("editor: template manifest duplicates id %s", tpl.ID)
		}
		seen[tpl.ID] = true
	}
	return &doc, nil
}

// Register adds or replaces a template.
func (c *TemplateCatalog) Register(tpl WidgetTemplate) error {
	if tpl.ID == "" {
		return fmt.Errorf("editor: template id is required")
	}
	if tpl.Label == "" {
		tpl.Label = HumanizeName(tpl.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.templates[tpl.ID]; !ok {
		c.order = append(c.order, tpl.ID)
	}
	c.templates[tpl.ID] = tpl
	return nil
}

// Options lists templates as select options.
func (c *TemplateCatalog) Options() []Option {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Option, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Option{Label: c.templates[id].Label, Value: id})
	}
	return out
}

// List returns the templates in order.
func (c *TemplateCatalog) List() []WidgetTemplate {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]WidgetTemplate, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}

// Config returns a deep copy of the template configuration, or an empty
// object when id is unknown.
func (c *TemplateCatalog) Config(id string) map[string]any {
	if c == nil {
		return map[string]any{}
	}
	c.mu.RLock()
	tpl, ok := c.templates[id]
	c.mu.RUnlock()
	if !ok {
		return map[string]any{}
	}
	return deepCopy(tpl.Config)
}

// deepCopy normalizes YAML-decoded values into JSON shapes.
func deepCopy(src map[string]any) map[string]any {
	out := map[string]any{}
	if len(src) == 0 {
		return out
	}
	data, err := json.Marshal(src)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}
