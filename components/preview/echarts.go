package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	defaultChartHeight = "360px"
	defaultChartWidth  = "100%"
)

// DefaultTheme is used when neither the request nor the renderer picks one.
const DefaultTheme = types.ThemeWesteros

// EChartsRenderer renders chart grammar into go-echarts markup.
type EChartsRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// EChartsOption customizes renderer behavior.
type EChartsOption func(*EChartsRenderer)

// WithChartCache injects a render cache. Pass nil to disable caching.
func WithChartCache(cache RenderCache) EChartsOption {
	return func(r *EChartsRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the fallback theme.
func WithChartTheme(theme string) EChartsOption {
	return func(r *EChartsRenderer) {
		r.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsOption {
	return func(r *EChartsRenderer) {
		r.assetsHost = host
	}
}

// NewEChartsRenderer builds a grammar renderer with a five minute chart cache.
func NewEChartsRenderer(options ...EChartsOption) *EChartsRenderer {
	r := &EChartsRenderer{
		cache: NewChartCache(5 * time.Minute),
		theme: DefaultTheme,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// RenderGrammar implements GrammarRenderer.
func (r *EChartsRenderer) RenderGrammar(ctx context.Context, spec ChartSpec, theme string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(theme) == "" {
		theme = r.theme
	}
	renderFn := func() (string, error) {
		return r.render(spec, theme)
	}
	if r.cache == nil {
		return renderFn()
	}
	return r.cache.GetOrRender(KeyFor(spec, theme), renderFn)
}

func (r *EChartsRenderer) render(spec ChartSpec, theme string) (string, error) {
	switch spec.Type {
	case "bar":
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalOptions(spec, theme)...)
		bar.SetXAxis(spec.Labels)
		for _, s := range spec.Series {
			bar.AddSeries(s.Name, toBarData(s.Points))
		}
		return renderChart(bar)
	case "line":
		line := charts.NewLine()
		line.SetGlobalOptions(r.globalOptions(spec, theme)...)
		line.SetXAxis(spec.Labels)
		for _, s := range spec.Series {
			line.AddSeries(s.Name, toLineData(s.Points))
		}
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		return renderChart(line)
	case "pie":
		pie := charts.NewPie()
		pie.SetGlobalOptions(r.globalOptions(spec, theme)...)
		for _, s := range spec.Series {
			pie.AddSeries(s.Name, toPieData(s.Points))
		}
		return renderChart(pie)
	case "scatter":
		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(r.globalOptions(spec, theme)...)
		for _, s := range spec.Series {
			scatter.AddSeries(s.Name, toScatterData(s.Points))
		}
		return renderChart(scatter)
	default:
		return "", fmt.Errorf("%w: unsupported chart type %q", ErrIncompleteGrammar, spec.Type)
	}
}

func (r *EChartsRenderer) globalOptions(spec ChartSpec, theme string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  theme,
		Width:  defaultChartWidth,
		Height: defaultChartHeight,
	}
	if spec.Width > 0 {
		initOpts.Width = fmt.Sprintf("%dpx", spec.Width)
	}
	if spec.Height > 0 {
		initOpts.Height = fmt.Sprintf("%dpx", spec.Height)
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: spec.Title, Subtitle: spec.Subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(spec.Series) > 1)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toBarData(points []ChartPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, point := range points {
		data[i] = opts.BarData{Name: point.Label, Value: point.Value}
	}
	return data
}

func toLineData(points []ChartPoint) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, point := range points {
		data[i] = opts.LineData{Name: point.Label, Value: point.Value}
	}
	return data
}

func toPieData(points []ChartPoint) []opts.PieData {
	data := make([]opts.PieData, len(points))
	for i, point := range points {
		name := point.Label
		if name == "" {
			name = fmt.Sprintf("Slice %d", i+1)
		}
		data[i] = opts.PieData{Name: name, Value: point.Value}
	}
	return data
}

func toScatterData(points []ChartPoint) []opts.ScatterData {
	data := make([]opts.ScatterData, len(points))
	for i, point := range points {
		value := []float64{float64(i + 1), point.Value}
		if len(point.Pair) >= 2 {
			value = point.Pair[:2]
		}
		data[i] = opts.ScatterData{Name: point.Label, Value: value}
	}
	return data
}
