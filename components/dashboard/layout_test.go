package dashboard

import (
	"testing"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManifestPlacesMarketingWidgets(t *testing.T) {
	doc, err := DefaultManifest()
	require.NoError(t, err)
	assert.Equal(t, "marketinsight-default", doc.Name)

	layout := doc.ViewLayout()
	ids := func(view View) []string {
		var out []string
		for _, w := range layout.Widgets(view) {
			out = append(out, w.ID)
		}
		return out
	}
	assert.Equal(t, []string{"overview-metrics", "overview-channel-spend", "overview-trend", "overview-funnel", "overview-channels"}, ids(ViewOverview))
	assert.Equal(t, []string{"seo-traffic", "seo-keywords"}, ids(ViewSEOSuite))
	assert.Equal(t, []string{"workflow-board"}, ids(ViewWorkflows))
	assert.Empty(t, ids(ViewMarketIntel))
	assert.Empty(t, ids(ViewSettings))
}

func TestDefaultLayoutChecksAgainstMarketingRegistry(t *testing.T) {
	reg := NewRegistry()
	repo := analytics.NewSnapshotRepository(analytics.NewMockClient(analytics.DefaultFixtures()))
	require.NoError(t, reg.RegisterMarketingProviders(repo))

	assert.NoError(t, DefaultLayout().Check(reg, NewJSONSchemaValidator()))
}

func TestLayoutCheckReportsMissingPieces(t *testing.T) {
	reg := NewRegistry()
	layout := Layout{ViewOverview: {{ID: "w1", DefinitionID: "unknown.widget", View: ViewOverview}}}
	err := layout.Check(reg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	layout = Layout{ViewOverview: {{ID: "w1", DefinitionID: WidgetKeywords, View: ViewOverview}}}
	err = layout.Check(reg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no provider")

	repo := analytics.NewSnapshotRepository(analytics.NewMockClient(analytics.DefaultFixtures()))
	require.NoError(t, reg.RegisterMarketingProviders(repo))
	layout = Layout{ViewOverview: {{ID: "w1", DefinitionID: WidgetKeywords, View: ViewOverview, Configuration: map[string]any{"unexpected": true}}}}
	assert.Error(t, layout.Check(reg, NewJSONSchemaValidator()))
}

func TestLayoutWidgetsCopiesConfiguration(t *testing.T) {
	layout := Layout{ViewOverview: {{ID: "w1", Configuration: map[string]any{"title": "A"}}}}
	widgets := layout.Widgets(ViewOverview)
	widgets[0].Configuration["title"] = "B"
	assert.Equal(t, "A", layout[ViewOverview][0].Configuration["title"])
}

func TestLayoutMerge(t *testing.T) {
	base := Layout{
		ViewOverview: {{ID: "a"}},
		ViewSEOSuite: {{ID: "b"}},
	}
	merged := base.Merge(Layout{ViewSEOSuite: {{ID: "c"}}})
	assert.Equal(t, "a", merged[ViewOverview][0].ID)
	assert.Equal(t, "c", merged[ViewSEOSuite][0].ID)
	assert.Equal(t, "b", base[ViewSEOSuite][0].ID)
}
