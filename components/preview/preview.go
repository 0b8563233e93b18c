package preview

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultResizeDebounce coalesces bursts of resize notifications.
const DefaultResizeDebounce = 250 * time.Millisecond

// Preview keeps the last configuration shown to one editing session and decides
// when it has to be rendered again.
type Preview struct {
	renderer  *Renderer
	theme     string
	onLoading func(bool)
	onRender  func(Result, error)
	resize    func(func())

	mu     sync.Mutex
	config map[string]any
	last   Result
}

// PreviewOption customizes a Preview.
type PreviewOption func(*Preview)

// WithTheme sets the chart theme used for every render.
func WithTheme(theme string) PreviewOption {
	return func(p *Preview) {
		p.theme = theme
	}
}

// WithLoadingCallback receives loading transitions.
func WithLoadingCallback(fn func(bool)) PreviewOption {
	return func(p *Preview) {
		p.onLoading = fn
	}
}

// WithRenderCallback receives results of renders triggered outside a direct
// call (resize).
func WithRenderCallback(fn func(Result, error)) PreviewOption {
	return func(p *Preview) {
		p.onRender = fn
	}
}

// WithResizeDebounce overrides the resize debounce window.
func WithResizeDebounce(d time.Duration) PreviewOption {
	return func(p *Preview) {
		p.resize = debounce.New(d)
	}
}

// NewPreview builds a preview bound to a renderer. The resize debouncer is
// created once here and reused for the lifetime of the preview.
func NewPreview(renderer *Renderer, options ...PreviewOption) *Preview {
	if renderer == nil {
		renderer = NewRenderer()
	}
	p := &Preview{
		renderer: renderer,
		theme:    DefaultTheme,
		resize:   debounce.New(DefaultResizeDebounce),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Update renders when cfg differs from the last configuration. A nil cfg is
// the same as an empty one. The boolean reports whether a render happened.
func (p *Preview) Update(ctx context.Context, cfg map[string]any) (Result, bool, error) {
	next := cloneMap(cfg)
	p.mu.Lock()
	if p.config != nil && reflect.DeepEqual(p.config, next) {
		last := p.last
		p.mu.Unlock()
		return last, false, nil
	}
	p.config = next
	p.mu.Unlock()
	res, err := p.render(ctx)
	return res, true, err
}

// Refresh re-renders the last configuration regardless of changes.
func (p *Preview) Refresh(ctx context.Context) (Result, error) {
	return p.render(ctx)
}

// Resize schedules a debounced refresh; its result goes to the render callback.
func (p *Preview) Resize() {
	p.resize(func() {
		res, err := p.Refresh(context.Background())
		if p.onRender != nil {
			p.onRender(res, err)
		}
	})
}

// Last returns the most recent result.
func (p *Preview) Last() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Preview) render(ctx context.Context) (Result, error) {
	p.mu.Lock()
	cfg := p.config
	p.mu.Unlock()
	res, err := p.renderer.Render(ctx, Request{
		Config:          cfg,
		Theme:           p.theme,
		OnLoadingChange: p.onLoading,
	})
	if err != nil {
		return res, err
	}
	p.mu.Lock()
	p.last = res
	p.mu.Unlock()
	return res, nil
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
