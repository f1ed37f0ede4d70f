package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// ChartKind names the go-echarts chart a widget renders.
type ChartKind string

const (
	ChartBar    ChartKind = "bar"
	ChartLine   ChartKind = "line"
	ChartPie    ChartKind = "pie"
	ChartFunnel ChartKind = "funnel"
	ChartGauge  ChartKind = "gauge"
)

const (
	chartHeight   = "360px"
	chartCacheTTL = 5 * time.Minute
)

// envEChartsCDN overrides the host the ECharts scripts load from.
const envEChartsCDN = "MARKETINSIGHT_ECHARTS_CDN"

var errNoSeries = errors.New("dashboard: chart series is required")

// Chart describes a chart independently of how it is drawn.
type Chart struct {
	Kind       ChartKind     `json:"kind"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle,omitempty"`
	Theme      string        `json:"theme,omitempty"`
	Horizontal bool          `json:"horizontal,omitempty"`
	Axis       []string      `json:"axis,omitempty"`
	Series     []ChartSeries `json:"series"`
}

// ChartSeries is one legend entry. Labels name individual values for pie,
// funnel and gauge charts; the axis is used when they are missing.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Labels []string  `json:"labels,omitempty"`
}

// ChartRenderer turns charts into embeddable HTML.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// ChartOption customizes a ChartRenderer.
type ChartOption func(*ChartRenderer)

// WithChartCache replaces the render cache. A nil cache renders every time.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the theme used when a chart does not name one.
func WithChartTheme(theme string) ChartOption {
	return func(r *ChartRenderer) {
		r.theme = theme
	}
}

// WithChartAssetsHost loads the ECharts scripts from host instead of the default CDN.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// NewChartRenderer builds a renderer with a five minute cache and the Westeros theme.
func NewChartRenderer(options ...ChartOption) *ChartRenderer {
	r := &ChartRenderer{
		cache: NewChartCache(chartCacheTTL),
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Render draws chart and returns the widget data the dashboard template expects.
func (r *ChartRenderer) Render(chart Chart) (WidgetData, error) {
	if len(chart.Series) == 0 {
		return nil, errNoSeries
	}
	if strings.TrimSpace(chart.Theme) == "" {
		chart.Theme = r.theme
	}
	if len(chart.Axis) == 0 {
		chart.Axis = axisFromSeries(chart.Series)
	}

	draw := func() (string, error) { return r.draw(chart) }
	var (
		html string
		err  error
	)
	if r.cache != nil {
		html, err = r.cache.GetOrRender(chartKey(chart), draw)
	} else {
		html, err = draw()
	}
	if err != nil {
		return nil, err
	}

	return WidgetData{
		"chart_html": html,
		"chart_type": string(chart.Kind),
		"title":      chart.Title,
		"subtitle":   chart.Subtitle,
		"theme":      chart.Theme,
	}, nil
}

func (r *ChartRenderer) draw(chart Chart) (string, error) {
	globals := r.globalOptions(chart)
	switch chart.Kind {
	case ChartBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(globals...)
		bar.SetXAxis(chart.Axis)
		for _, s := range chart.Series {
			data := make([]opts.BarData, len(s.Values))
			for i, v := range s.Values {
				data[i] = opts.BarData{Name: labelAt(s, chart.Axis, i), Value: v}
			}
			bar.AddSeries(s.Name, data)
		}
		if chart.Horizontal {
			bar.XYReversal()
		}
		return renderHTML(bar)
	case ChartLine:
		line := charts.NewLine()
		line.SetGlobalOptions(globals...)
		line.SetXAxis(chart.Axis)
		for _, s := range chart.Series {
			data := make([]opts.LineData, len(s.Values))
			for i, v := range s.Values {
				data[i] = opts.LineData{Name: labelAt(s, chart.Axis, i), Value: v}
			}
			line.AddSeries(s.Name, data)
		}
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		return renderHTML(line)
	case ChartPie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(globals...)
		for _, s := range chart.Series {
			data := make([]opts.PieData, len(s.Values))
			for i, v := range s.Values {
				data[i] = opts.PieData{Name: labelAt(s, chart.Axis, i), Value: v}
			}
			pie.AddSeries(s.Name, data)
		}
		return renderHTML(pie)
	case ChartFunnel:
		funnel := charts.NewFunnel()
		funnel.SetGlobalOptions(globals...)
		for _, s := range chart.Series {
			data := make([]opts.FunnelData, len(s.Values))
			for i, v := range s.Values {
				data[i] = opts.FunnelData{Name: labelAt(s, chart.Axis, i), Value: v}
			}
			funnel.AddSeries(s.Name, data)
		}
		return renderHTML(funnel)
	case ChartGauge:
		gauge := charts.NewGauge()
		gauge.SetGlobalOptions(globals...)
		for _, s := range chart.Series {
			if len(s.Values) == 0 {
				continue
			}
			gauge.AddSeries(s.Name, []opts.GaugeData{{Name: labelAt(s, chart.Axis, 0), Value: s.Values[0]}})
		}
		return renderHTML(gauge)
	default:
		return "", fmt.Errorf("dashboard: unsupported chart kind %q", chart.Kind)
	}
}

func (r *ChartRenderer) globalOptions(chart Chart) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  chart.Theme,
		Width:  "100%",
		Height: chartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: chart.Title, Subtitle: chart.Subtitle}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderHTML(chart interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return "", fmt.Errorf("dashboard: render chart: %w", err)
	}
	return buf.String(), nil
}

func labelAt(s ChartSeries, axis []string, i int) string {
	if i < len(s.Labels) && s.Labels[i] != "" {
		return s.Labels[i]
	}
	if i < len(axis) {
		return axis[i]
	}
	return fmt.Sprintf("Item %d", i+1)
}

func axisFromSeries(series []ChartSeries) []string {
	var longest ChartSeries
	for _, s := range series {
		if len(s.Values) > len(longest.Values) {
			longest = s
		}
	}
	axis := make([]string, len(longest.Values))
	for i := range axis {
		axis[i] = labelAt(longest, nil, i)
	}
	return axis
}

// configChartProvider renders charts whose data lives in the widget
// configuration, for manifests that place hand-written series on a view.
type configChartProvider struct {
	kind     ChartKind
	renderer *ChartRenderer
}

func (p configChartProvider) Fetch(_ context.Context, meta WidgetContext) (WidgetData, error) {
	chart, err := chartFromConfig(p.kind, meta.Instance.Configuration)
	if err != nil {
		return nil, err
	}
	return p.renderer.Render(chart)
}

// chartConfig mirrors chartConfigSchema. Series points are numbers or
// {"name", "value"} objects.
type chartConfig struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle"`
	Theme      string   `json:"theme"`
	Horizontal bool     `json:"horizontal"`
	XAxis      []string `json:"x_axis"`
	Series     []struct {
		Name string            `json:"name"`
		Data []json.RawMessage `json:"data"`
	} `json:"series"`
}

type namedPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func chartFromConfig(kind ChartKind, cfg map[string]any) (Chart, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return Chart{}, fmt.Errorf("dashboard: chart configuration: %w", err)
	}
	var parsed chartConfig
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Chart{}, fmt.Errorf("dashboard: chart configuration: %w", err)
	}

	chart := Chart{
		Kind:       kind,
		Title:      parsed.Title,
		Subtitle:   parsed.Subtitle,
		Theme:      parsed.Theme,
		Horizontal: parsed.Horizontal,
		Axis:       parsed.XAxis,
	}
	if chart.Title == "" {
		chart.Title = "Chart"
	}
	for _, s := range parsed.Series {
		series := ChartSeries{Name: s.Name}
		if series.Name == "" {
			series.Name = "Series"
		}
		for _, item := range s.Data {
			var value float64
			if err := json.Unmarshal(item, &value); err == nil {
				series.Values = append(series.Values, value)
				series.Labels = append(series.Labels, "")
				continue
			}
			var point namedPoint
			if err := json.Unmarshal(item, &point); err != nil {
				return Chart{}, fmt.Errorf("dashboard: chart series %q: %w", series.Name, err)
			}
			series.Values = append(series.Values, point.Value)
			series.Labels = append(series.Labels, point.Name)
		}
		if len(series.Values) > 0 {
			chart.Series = append(chart.Series, series)
		}
	}
	if len(chart.Series) == 0 {
		return Chart{}, errNoSeries
	}
	return chart, nil
}

// configChartKinds maps the generic chart widgets to the chart they draw.
var configChartKinds = map[string]ChartKind{
	WidgetBarChart:    ChartBar,
	WidgetLineChart:   ChartLine,
	WidgetPieChart:    ChartPie,
	WidgetFunnelChart: ChartFunnel,
	WidgetGaugeChart:  ChartGauge,
}

// ChartAssetsHost returns configured, or MARKETINSIGHT_ECHARTS_CDN when it is
// blank, with a trailing slash. An empty result keeps the go-echarts CDN.
func ChartAssetsHost(configured string) string {
	host := strings.TrimSpace(configured)
	if host == "" {
		host = strings.TrimSpace(os.Getenv(envEChartsCDN))
	}
	if host == "" || strings.HasSuffix(host, "/") {
		return host
	}
	return host + "/"
}
