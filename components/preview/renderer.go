package preview

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
)

// Renderer produces previews for configuration objects.
type Renderer struct {
	grammar GrammarRenderer
	logger  *slog.Logger
}

// RendererOption customizes a Renderer.
type RendererOption func(*Renderer)

// WithGrammarRenderer swaps the chart grammar renderer.
func WithGrammarRenderer(g GrammarRenderer) RendererOption {
	return func(r *Renderer) {
		if g != nil {
			r.grammar = g
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer builds a renderer backed by go-echarts unless overridden.
func NewRenderer(options ...RendererOption) *Renderer {
	r := &Renderer{
		grammar: NewEChartsRenderer(),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Render attempts one preview. Loading is reported true before the attempt and
// false after it, whatever the outcome. Configurations that are not valid chart
// grammar yield a skipped result and no error.
func (r *Renderer) Render(ctx context.Context, req Request) (Result, error) {
	toggle := req.OnLoadingChange
	if toggle == nil {
		toggle = func(bool) {}
	}
	toggle(true)
	defer toggle(false)

	if err := ctx.Err(); err != nil {
		return Result{Kind: KindSkipped}, err
	}

	switch Detect(req.Config) {
	case KindFrame:
		url := strings.TrimSpace(stringValue(req.Config["url"]))
		return Result{Kind: KindFrame, URL: url, HTML: frameHTML(url)}, nil
	case KindChart:
		spec, err := ParseGrammar(req.Config)
		if err != nil {
			r.logger.DebugContext(ctx, "preview skipped", "reason", err)
			return Result{Kind: KindSkipped}, nil
		}
		markup, err := r.grammar.RenderGrammar(ctx, spec, req.Theme)
		if err != nil {
			if errors.Is(err, ErrIncompleteGrammar) {
				r.logger.DebugContext(ctx, "preview skipped", "reason", err)
				return Result{Kind: KindSkipped}, nil
			}
			return Result{Kind: KindSkipped}, fmt.Errorf("preview: render %s chart: %w", spec.Type, err)
		}
		return Result{Kind: KindChart, HTML: markup, ChartType: spec.Type, Theme: req.Theme}, nil
	default:
		return Result{Kind: KindSkipped}, nil
	}
}

func frameHTML(url string) string {
	return fmt.Sprintf(`<iframe src="%s" width="100%%" height="100%%" frameborder="0"></iframe>`, html.EscapeString(url))
}
