package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-marketinsight/pkg/insights"
)

type stubPayloadResolver struct {
	payload ViewPayload
	err     error
}

func (s *stubPayloadResolver) ViewPayload(context.Context, ViewerContext) (ViewPayload, error) {
	return s.payload, s.err
}

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerRenderTemplate(t *testing.T) {
	service := &stubPayloadResolver{payload: ViewPayload{
		Shell: DefaultShellState(),
		Title: "overview",
		Widgets: []WidgetInstance{
			{ID: "overview-metrics", DefinitionID: WidgetStatCards, Data: WidgetData{"title": "Metrics"}},
		},
	}}
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Service: service, Renderer: renderer})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, &buf))
	assert.Equal(t, DefaultTemplate, renderer.lastTemplate)
	assert.NotZero(t, buf.Len())
	assert.Equal(t, "overview", renderer.lastPayload["title"])
	shell, ok := renderer.lastPayload["shell"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "All Channels", shell["channel"])
	widgets, ok := renderer.lastPayload["widgets"].([]any)
	require.True(t, ok)
	assert.Len(t, widgets, 1)
}

func TestControllerPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	controller := NewController(ControllerOptions{
		Service:  &stubPayloadResolver{err: boom},
		Renderer: &stubRenderer{},
	})
	err := controller.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, io.Discard)
	assert.ErrorIs(t, err, boom)

	bare := NewController(ControllerOptions{Service: &stubPayloadResolver{}})
	assert.Error(t, bare.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, io.Discard))
}

func TestTemplateRendererRendersDashboard(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	controller := NewController(ControllerOptions{
		Service: &stubPayloadResolver{payload: ViewPayload{
			Shell:      DefaultShellState(),
			Title:      ViewOverview.Title(),
			Subtitle:   DefaultShellState().Subtitle(),
			Navigation: Views(),
			Channels:   Channels(),
			DateRanges: DateRanges(),
		}},
		Renderer: renderer,
	})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, &buf))
	assert.Contains(t, buf.String(), "MarketInsight | overview")
	assert.Contains(t, buf.String(), "SEO Suite")
}

func TestTemplateRendererMarksDegradedPanels(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	controller := NewController(ControllerOptions{
		Service: &stubPayloadResolver{payload: ViewPayload{
			Shell: DefaultShellState(),
			Title: ViewOverview.Title(),
			Panels: map[PanelID]PanelSnapshot{
				PanelInsights: {
					Panel:  PanelInsights,
					Phase:  PhaseReady,
					Active: true,
					Report: insights.Narrative{
						Intent:   insights.IntentInsights,
						Text:     "Could not generate insights at this time.",
						Degraded: true,
						Cause:    insights.KindQuota,
					},
				},
				PanelMarketIntel: {
					Panel:  PanelMarketIntel,
					Phase:  PhaseReady,
					Active: true,
					Report: insights.Report{
						Intent:  insights.IntentMarketIntel,
						Summary: "Short-form video keeps growing.",
						Sources: []insights.Source{{URI: "https://example.com/a", Title: "Trends"}},
					},
				},
			},
		}},
		Renderer: renderer,
	})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, &buf))
	out := buf.String()
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "Could not generate insights at this time.")
	assert.Contains(t, out, "Short-form video keeps growing.")
	assert.Contains(t, out, `href="https://example.com/a"`)
}

func TestChartAssetsHost(t *testing.T) {
	t.Setenv(envEChartsCDN, "")
	assert.Equal(t, "", ChartAssetsHost(""))
	assert.Equal(t, "https://cdn.example.com/echarts/", ChartAssetsHost("https://cdn.example.com/echarts"))

	t.Setenv(envEChartsCDN, "/static/echarts")
	assert.Equal(t, "/static/echarts/", ChartAssetsHost(""))
}
