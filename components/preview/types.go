package preview

import "context"

// Kind identifies what a preview attempt produced.
type Kind string

const (
	// KindFrame is an opaque embedded frame (widgetConfig.type == "embed").
	KindFrame Kind = "frame"
	// KindChart is markup produced by the chart grammar renderer.
	KindChart Kind = "chart"
	// KindSkipped means the configuration is not ready to render yet.
	KindSkipped Kind = "skipped"
)

// Request carries a configuration object plus presentation hints.
type Request struct {
	Config          map[string]any
	Theme           string
	OnLoadingChange func(loading bool)
}

// Result is the outcome of a preview attempt.
type Result struct {
	Kind      Kind   `json:"kind"`
	HTML      string `json:"html,omitempty"`
	URL       string `json:"url,omitempty"`
	ChartType string `json:"chart_type,omitempty"`
	Theme     string `json:"theme,omitempty"`
}

// GrammarRenderer turns a parsed chart grammar into markup.
type GrammarRenderer interface {
	RenderGrammar(ctx context.Context, spec ChartSpec, theme string) (string, error)
}

// GrammarRendererFunc adapts a function into a GrammarRenderer.
type GrammarRendererFunc func(ctx context.Context, spec ChartSpec, theme string) (string, error)

// RenderGrammar calls fn.
func (fn GrammarRendererFunc) RenderGrammar(ctx context.Context, spec ChartSpec, theme string) (string, error) {
	return fn(ctx, spec, theme)
}

// Detect reports which preview a configuration object calls for without
// rendering it.
func Detect(cfg map[string]any) Kind {
	if len(cfg) == 0 {
		return KindSkipped
	}
	if IsEmbed(cfg) {
		return KindFrame
	}
	if _, ok := cfg["data"]; ok {
		return KindChart
	}
	return KindSkipped
}

// IsEmbed reports whether the configuration describes an embedded frame.
func IsEmbed(cfg map[string]any) bool {
	kind, _ := cfg["type"].(string)
	return kind == "embed"
}
