package dashboard

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartRendererKinds(t *testing.T) {
	t.Parallel()
	renderer := NewChartRenderer(WithChartCache(nil))
	for _, kind := range []ChartKind{ChartBar, ChartLine, ChartPie, ChartFunnel, ChartGauge} {
		data, err := renderer.Render(Chart{
			Kind:   kind,
			Title:  "Spend",
			Axis:   []string{"Facebook Ads", "Google Search"},
			Series: []ChartSeries{{Name: "Spend", Values: []float64{12500, 18200}}},
		})
		require.NoErrorf(t, err, "kind %s", kind)
		assert.Equal(t, string(kind), data["chart_type"])
		assert.Equal(t, "Spend", data["title"])
		assert.Contains(t, html(data), "echarts")
	}
}

func TestChartRendererRejectsBadCharts(t *testing.T) {
	t.Parallel()
	renderer := NewChartRenderer(WithChartCache(nil))

	_, err := renderer.Render(Chart{Kind: ChartLine, Title: "Empty"})
	assert.ErrorIs(t, err, errNoSeries)

	_, err = renderer.Render(Chart{Kind: "bubble", Series: []ChartSeries{{Name: "s", Values: []float64{1}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported chart kind")
}

func TestChartRendererThemeFallback(t *testing.T) {
	t.Parallel()
	renderer := NewChartRenderer(WithChartTheme("walden"), WithChartCache(nil))
	chart := Chart{Kind: ChartBar, Series: []ChartSeries{{Name: "s", Values: []float64{5, 6}}}}

	data, err := renderer.Render(chart)
	require.NoError(t, err)
	assert.Equal(t, "walden", data["theme"])

	chart.Theme = "wonderland"
	data, err = renderer.Render(chart)
	require.NoError(t, err)
	assert.Equal(t, "wonderland", data["theme"])
}

func TestChartRendererUsesCache(t *testing.T) {
	t.Parallel()
	cache := &countingCache{}
	renderer := NewChartRenderer(WithChartCache(cache))
	chart := Chart{Kind: ChartBar, Title: "Cached", Series: []ChartSeries{{Name: "s", Values: []float64{1, 2}}}}

	for range 2 {
		_, err := renderer.Render(chart)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, cache.renders)
}

func TestChartRendererAssetsHostAndHorizontalBar(t *testing.T) {
	t.Parallel()
	renderer := NewChartRenderer(WithChartCache(nil), WithChartAssetsHost("https://cdn.example.com/echarts/"))
	data, err := renderer.Render(Chart{
		Kind:       ChartBar,
		Title:      "Market Share Distribution",
		Horizontal: true,
		Axis:       []string{"My Brand", "Competitor A"},
		Series:     []ChartSeries{{Name: "Market Share %", Values: []float64{35, 25}}},
	})
	require.NoError(t, err)
	assert.Contains(t, html(data), "cdn.example.com")
	assert.Contains(t, html(data), "competitor a")
}

func TestAxisFromSeriesUsesLongestSeries(t *testing.T) {
	axis := axisFromSeries([]ChartSeries{
		{Name: "short", Values: []float64{1}},
		{Name: "long", Values: []float64{1, 2, 3}, Labels: []string{"Jan", "", "Mar"}},
	})
	assert.Equal(t, []string{"Jan", "Item 2", "Mar"}, axis)
}

func TestChartFromConfig(t *testing.T) {
	chart, err := chartFromConfig(ChartPie, map[string]any{
		"title": "Budget Split",
		"series": []map[string]any{
			{"name": "Budget", "data": []any{
				map[string]any{"name": "Search", "value": 40},
				map[string]any{"name": "Social", "value": 35.5},
				25,
			}},
			{"name": "Empty", "data": []any{}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ChartPie, chart.Kind)
	assert.Equal(t, "Budget Split", chart.Title)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, []float64{40, 35.5, 25}, chart.Series[0].Values)
	assert.Equal(t, []string{"Search", "Social", ""}, chart.Series[0].Labels)

	chart, err = chartFromConfig(ChartGauge, map[string]any{"series": []any{map[string]any{"data": []float64{98}}}})
	require.NoError(t, err)
	assert.Equal(t, "Chart", chart.Title)
	assert.Equal(t, "Series", chart.Series[0].Name)

	_, err = chartFromConfig(ChartBar, map[string]any{"title": "No data"})
	assert.ErrorIs(t, err, errNoSeries)

	_, err = chartFromConfig(ChartBar, map[string]any{"series": []any{map[string]any{"data": []any{"high"}}}})
	assert.Error(t, err)
}

func TestConfigChartProvider(t *testing.T) {
	provider := configChartProvider{kind: ChartFunnel, renderer: NewChartRenderer(WithChartCache(nil))}
	data, err := provider.Fetch(context.Background(), WidgetContext{
		Instance: WidgetInstance{
			ID:           "pipeline",
			DefinitionID: WidgetFunnelChart,
			Configuration: map[string]any{
				"title":  "Lead Pipeline",
				"x_axis": []string{"Leads", "MQL", "SQL"},
				"series": []any{map[string]any{"name": "Pipeline", "data": []any{900, 310, 120}}},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "funnel", data["chart_type"])
	assert.Contains(t, html(data), "mql")
}

func html(data WidgetData) string {
	val, _ := data["chart_html"].(string)
	return strings.ToLower(val)
}

type countingCache struct {
	renders int
	value   string
}

func (c *countingCache) GetOrRender(_ string, render func() (string, error)) (string, error) {
	if c.value != "" {
		return c.value, nil
	}
	out, err := render()
	if err != nil {
		return "", err
	}
	c.renders++
	c.value = out
	return out, nil
}

func BenchmarkChartRendererBar(b *testing.B) {
	chart := Chart{
		Kind:  ChartBar,
		Title: "Benchmark",
		Axis:  []string{"A", "B", "C", "D", "E"},
		Series: []ChartSeries{
			{Name: "S1", Values: []float64{10, 20, 30, 40, 50}},
			{Name: "S2", Values: []float64{11, 21, 31, 41, 51}},
		},
	}
	for _, tc := range []struct {
		name     string
		renderer *ChartRenderer
	}{
		{"uncached", NewChartRenderer(WithChartCache(nil))},
		{"cached", NewChartRenderer()},
	} {
		b.Run(tc.name, func(b *testing.B) {
			for b.Loop() {
				if _, err := tc.renderer.Render(chart); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
