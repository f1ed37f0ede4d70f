package dashboard

import (
	"github.com/go-echarts/go-echarts/v2/types"
)

var chartThemes = []string{
	types.ThemeWesteros,
	types.ThemeWalden,
	types.ThemeWonderland,
	types.ThemeChalk,
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code:        WidgetStatCards,
		Name:        "Headline Metrics",
		Description: "Ad spend, conversions, ROAS and CPA with period change.",
		Category:    "stats",
		Schema:      presentationSchema(false),
	},
	{
		Code:        WidgetChannelSpend,
		Name:        "Spend vs Conversions by Channel",
		Description: "Bar chart of spend and conversions per ad channel.",
		Category:    "charts",
		Schema:      presentationSchema(true),
	},
	{
		Code:        WidgetPerformanceTrend,
		Name:        "Historical Performance Trend",
		Description: "Monthly spend and conversions.",
		Category:    "charts",
		Schema:      presentationSchema(true),
	},
	{
		Code:        WidgetChannelTable,
		Name:        "Channel Performance Detail",
		Description: "Spend, impressions, CTR and ROAS per channel.",
		Category:    "tables",
		Schema:      presentationSchema(false),
	},
	{
		Code:        WidgetCompetitorShare,
		Name:        "Market Share Distribution",
		Description: "Share of market per tracked brand.",
		Category:    "charts",
		Schema:      presentationSchema(true),
	},
	{
		Code:        WidgetCompetitorEngagement,
		Name:        "Engagement & Sentiment Comparison",
		Description: "Engagement rate and brand sentiment per tracked brand.",
		Category:    "charts",
		Schema:      presentationSchema(true),
	},
	{
		Code:        WidgetCompetitorTable,
		Name:        "Competitor Benchmark",
		Description: "Market share, ad spend, engagement and sentiment per brand.",
		Category:    "tables",
		Schema:      presentationSchema(false),
	},
	{
		Code:        WidgetSEOTraffic,
		Name:        "Organic Traffic Growth",
		Description: "Monthly organic traffic.",
		Category:    "charts",
		Schema:      presentationSchema(true),
	},
	{
		Code:        WidgetKeywords,
		Name:        "Keyword Opportunities",
		Description: "Search terms with volume and difficulty.",
		Category:    "seo",
		Schema:      presentationSchema(false),
	},
	{
		Code:        WidgetKanban,
		Name:        "Team Workflow",
		Description: "Campaign tasks grouped by status.",
		Category:    "workflow",
		Schema:      presentationSchema(false),
	},
	{
		Code:        WidgetScheduledPosts,
		Name:        "Scheduled Posts",
		Description: "Queued social publications.",
		Category:    "social",
		Schema:      presentationSchema(false),
	},
	{
		Code:        WidgetMentions,
		Name:        "Recent Mentions",
		Description: "Inbound social interactions awaiting a reply.",
		Category:    "social",
		Schema:      presentationSchema(false),
	},
	{
		Code:        WidgetChannelHealth,
		Name:        "Channel Health",
		Description: "Engagement health score per social network.",
		Category:    "social",
		Schema:      presentationSchema(false),
	},
	{
		Code:        WidgetConversionFunnel,
		Name:        "Conversion Funnel",
		Description: "Impressions, clicks and conversions for the selected channels.",
		Category:    "charts",
		Schema:      presentationSchema(true),
	},
	{
		Code:        WidgetBarChart,
		Name:        "Bar Chart",
		Description: "Bar chart from static series.",
		Category:    "charts",
		Schema:      chartConfigSchema(true),
	},
	{
		Code:        WidgetLineChart,
		Name:        "Line Chart",
		Description: "Line chart from static series.",
		Category:    "charts",
		Schema:      chartConfigSchema(true),
	},
	{
		Code:        WidgetPieChart,
		Name:        "Pie Chart",
		Description: "Pie chart from static series.",
		Category:    "charts",
		Schema:      chartConfigSchema(false),
	},
	{
		Code:        WidgetFunnelChart,
		Name:        "Funnel Chart",
		Description: "Funnel from static stages.",
		Category:    "charts",
		Schema:      chartConfigSchema(false),
	},
	{
		Code:        WidgetGaugeChart,
		Name:        "Gauge Chart",
		Description: "Single-value gauge.",
		Category:    "charts",
		Schema:      chartConfigSchema(false),
	},
}

// DefaultWidgetDefinitions returns the built-in widget definitions.
func DefaultWidgetDefinitions() []WidgetDefinition {
	return append([]WidgetDefinition(nil), defaultWidgetDefinitions...)
}

// presentationSchema accepts the overrides data-driven widgets honour.
func presentationSchema(chart bool) map[string]any {
	props := map[string]any{
		"title": map[string]any{"type": "string", "minLength": 1},
	}
	if chart {
		props["subtitle"] = map[string]any{"type": "string"}
		props["theme"] = map[string]any{"type": "string", "enum": chartThemes}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func chartSeriesSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"name", "data"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"data": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"oneOf": []map[string]any{
						{"type": "number"},
						{
							"type":     "object",
							"required": []string{"value"},
							"properties": map[string]any{
								"name":  map[string]any{"type": "string"},
								"value": map[string]any{"type": "number"},
							},
						},
					},
				},
			},
		},
	}
}

func chartConfigSchema(includeAxis bool) map[string]any {
	props := map[string]any{
		"title":    map[string]any{"type": "string"},
		"subtitle": map[string]any{"type": "string"},
		"series": map[string]any{
			"type":     "array",
			"items":    chartSeriesSchema(),
			"minItems": 1,
		},
		"theme":      map[string]any{"type": "string", "enum": chartThemes},
		"horizontal": map[string]any{"type": "boolean"},
	}
	if includeAxis {
		props["x_axis"] = map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}
	}
	return map[string]any{
		"type":       "object",
		"required":   []string{"series"},
		"properties": props,
	}
}
