package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

// Widget codes served by the built-in providers.
const (
	WidgetStatCards            = "marketing.widget.stat_cards"
	WidgetChannelSpend         = "marketing.widget.channel_spend"
	WidgetPerformanceTrend     = "marketing.widget.performance_trend"
	WidgetChannelTable         = "marketing.widget.channel_table"
	WidgetCompetitorShare      = "marketing.widget.competitor_share"
	WidgetCompetitorEngagement = "marketing.widget.competitor_engagement"
	WidgetCompetitorTable      = "marketing.widget.competitor_table"
	WidgetSEOTraffic           = "marketing.widget.seo_traffic"
	WidgetKeywords             = "marketing.widget.keywords"
	WidgetKanban               = "marketing.widget.kanban"
	WidgetScheduledPosts       = "marketing.widget.scheduled_posts"
	WidgetMentions             = "marketing.widget.mentions"
	WidgetChannelHealth        = "marketing.widget.channel_health"
	WidgetConversionFunnel     = "marketing.widget.conversion_funnel"

	WidgetBarChart    = "marketing.widget.bar_chart"
	WidgetLineChart   = "marketing.widget.line_chart"
	WidgetPieChart    = "marketing.widget.pie_chart"
	WidgetFunnelChart = "marketing.widget.funnel_chart"
	WidgetGaugeChart  = "marketing.widget.gauge_chart"
)

// OwnBrand is the competitor row that represents the dashboard owner.
const OwnBrand = "My Brand"

// EasyKeywordDifficulty is the keyword difficulty below which a term is flagged as easy.
const EasyKeywordDifficulty = 30

// MarketingProviders builds the providers for every built-in widget. Chart
// widgets share one renderer configured by chartOpts.
func MarketingProviders(repo analytics.SnapshotRepository, chartOpts ...ChartOption) map[string]Provider {
	renderer := NewChartRenderer(chartOpts...)
	providers := map[string]Provider{
		WidgetStatCards:            snapshotProvider(repo, statCards),
		WidgetChannelTable:         snapshotProvider(repo, channelTable),
		WidgetCompetitorTable:      snapshotProvider(repo, competitorTable),
		WidgetKeywords:             fixtureProvider(repo, keywordList),
		WidgetKanban:               fixtureProvider(repo, kanbanBoard),
		WidgetScheduledPosts:       fixtureProvider(repo, scheduledPosts),
		WidgetMentions:             fixtureProvider(repo, mentionList),
		WidgetChannelHealth:        fixtureProvider(repo, channelHealth),
		WidgetChannelSpend:         &seriesChartProvider{repo: repo, renderer: renderer, build: channelSpendChart},
		WidgetPerformanceTrend:     &seriesChartProvider{repo: repo, renderer: renderer, build: performanceTrendChart},
		WidgetCompetitorShare:      &seriesChartProvider{repo: repo, renderer: renderer, build: competitorShareChart},
		WidgetCompetitorEngagement: &seriesChartProvider{repo: repo, renderer: renderer, build: competitorEngagementChart},
		WidgetSEOTraffic:           &seriesChartProvider{repo: repo, renderer: renderer, build: seoTrafficChart},
		WidgetConversionFunnel:     &seriesChartProvider{repo: repo, renderer: renderer, build: conversionFunnelChart},
	}
	for code, kind := range configChartKinds {
		providers[code] = configChartProvider{kind: kind, renderer: renderer}
	}
	return providers
}

func snapshotQuery(shell ShellState) analytics.SnapshotQuery {
	return analytics.SnapshotQuery{Channel: shell.Channel, DateRange: shell.DateRange}
}

func snapshotProvider(repo analytics.SnapshotRepository, build func(analytics.Snapshot) WidgetData) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		snapshot, err := repo.Snapshot(ctx, snapshotQuery(meta.Shell))
		if err != nil {
			return nil, fmt.Errorf("dashboard: load snapshot: %w", err)
		}
		return build(snapshot), nil
	})
}

func fixtureProvider(repo analytics.SnapshotRepository, build func(analytics.Fixtures) WidgetData) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		fixtures, err := repo.Fixtures(ctx)
		if err != nil {
			return nil, fmt.Errorf("dashboard: load fixtures: %w", err)
		}
		return build(fixtures), nil
	})
}

func statCards(snapshot analytics.Snapshot) WidgetData {
	cards := make([]map[string]any, 0, len(snapshot.Metrics))
	for _, metric := range snapshot.Metrics {
		cards = append(cards, map[string]any{
			"label":      metric.Label,
			"value":      FormatMetric(metric),
			"raw":        metric.Value,
			"change":     FormatChange(metric.Change),
			"positive":   metric.Change >= 0,
			"favourable": TrendPositive(metric),
			"trend":      string(metric.Trend),
		})
	}
	return WidgetData{"cards": cards}
}

func channelTable(snapshot analytics.Snapshot) WidgetData {
	rows := make([]map[string]any, 0, len(snapshot.ChannelPerformance))
	for _, row := range snapshot.ChannelPerformance {
		rows = append(rows, map[string]any{
			"channel":     row.Channel,
			"spend":       FormatCurrency(row.Spend),
			"impressions": FormatThousands(row.Impressions),
			"ctr":         FormatCTR(row),
			"roas":        FormatROAS(row.ROAS),
			"strong":      row.ROAS >= StrongROAS,
		})
	}
	return WidgetData{
		"title":   "Channel Performance Detail",
		"columns": []string{"Channel", "Spend", "Impressions", "CTR", "ROAS"},
		"rows":    rows,
	}
}

func competitorTable(snapshot analytics.Snapshot) WidgetData {
	rows := make([]map[string]any, 0, len(snapshot.Competitors))
	for _, c := range snapshot.Competitors {
		rows = append(rows, map[string]any{
			"name":            c.Name,
			"own":             c.Name == OwnBrand,
			"market_share":    FormatPercentage(c.MarketShare),
			"ad_spend":        FormatCurrency(c.AdSpend),
			"engagement_rate": FormatPercentage(c.EngagementRate),
			"sentiment":       c.Sentiment,
			"sentiment_high":  c.Sentiment > 80,
		})
	}
	return WidgetData{
		"columns": []string{"Brand", "Market Share", "Est. Monthly Ad Spend", "Engagement Rate", "Sentiment Score"},
		"rows":    rows,
	}
}

func keywordList(f analytics.Fixtures) WidgetData {
	items := make([]map[string]any, 0, len(f.Keywords))
	for _, kw := range f.Keywords {
		items = append(items, map[string]any{
			"term":       kw.Term,
			"volume":     kw.Volume,
			"difficulty": kw.Difficulty,
			"easy":       kw.Difficulty < EasyKeywordDifficulty,
		})
	}
	return WidgetData{"title": "Keyword Opportunities", "items": items}
}

var kanbanColumns = []analytics.TaskStatus{
	analytics.TaskIdeation,
	analytics.TaskProgress,
	analytics.TaskReview,
	analytics.TaskDone,
}

func kanbanBoard(f analytics.Fixtures) WidgetData {
	campaigns := map[string]struct{}{}
	columns := make([]map[string]any, 0, len(kanbanColumns))
	for _, status := range kanbanColumns {
		tasks := []map[string]any{}
		for _, task := range f.Tasks {
			if task.Status != status {
				continue
			}
			campaigns[task.Campaign] = struct{}{}
			tasks = append(tasks, map[string]any{
				"id":       task.ID,
				"title":    task.Title,
				"priority": task.Priority,
				"assignee": task.Assignee,
				"campaign": task.Campaign,
			})
		}
		columns = append(columns, map[string]any{
			"status": string(status),
			"count":  len(tasks),
			"tasks":  tasks,
		})
	}
	return WidgetData{
		"title":     "Team Workflow",
		"subtitle":  fmt.Sprintf("Managing tasks for %d active campaigns", len(campaigns)),
		"columns":   columns,
		"campaigns": len(campaigns),
	}
}

func scheduledPosts(f analytics.Fixtures) WidgetData {
	items := make([]map[string]any, 0, len(f.Posts))
	for _, post := range f.Posts {
		items = append(items, map[string]any{"channel": post.Channel, "slot": post.Slot, "title": post.Title})
	}
	return WidgetData{"title": "Scheduled Posts", "items": items}
}

func mentionList(f analytics.Fixtures) WidgetData {
	items := make([]map[string]any, 0, len(f.Mentions))
	for _, m := range f.Mentions {
		items = append(items, map[string]any{"user": m.User, "text": m.Text, "platform": m.Platform})
	}
	return WidgetData{"title": "Recent Mentions", "items": items}
}

func channelHealth(f analytics.Fixtures) WidgetData {
	items := make([]map[string]any, 0, len(f.Health))
	for _, score := range f.Health {
		items = append(items, map[string]any{"name": score.Name, "score": score.Score})
	}
	return WidgetData{"title": "Channel Health", "items": items}
}

// seriesChartProvider builds a chart from repository data. Instance
// configuration may override the title, subtitle and theme.
type seriesChartProvider struct {
	repo     analytics.SnapshotRepository
	renderer *ChartRenderer
	build    func(analytics.Fixtures) Chart
}

func (p *seriesChartProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	snapshot, err := p.repo.Snapshot(ctx, snapshotQuery(meta.Shell))
	if err != nil {
		return nil, fmt.Errorf("dashboard: load snapshot: %w", err)
	}
	fixtures, err := p.repo.Fixtures(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load fixtures: %w", err)
	}
	fixtures.Snapshot = snapshot

	chart := p.build(fixtures)
	cfg := meta.Instance.Configuration
	chart.Title = stringValue(cfg["title"], chart.Title)
	chart.Subtitle = stringValue(cfg["subtitle"], chart.Subtitle)
	chart.Theme = stringValue(cfg["theme"], chart.Theme)

	data, err := p.renderer.Render(chart)
	if err != nil {
		return nil, err
	}
	data["source"] = map[string]any{"channel": meta.Shell.Channel, "date_range": meta.Shell.DateRange}
	return data, nil
}

func channelSpendChart(f analytics.Fixtures) Chart {
	rows := f.Snapshot.ChannelPerformance
	chart := Chart{Kind: ChartBar, Title: "Spend vs Conversions by Channel"}
	spend := ChartSeries{Name: "Ad Spend ($)"}
	conversions := ChartSeries{Name: "Conversions"}
	for _, row := range rows {
		chart.Axis = append(chart.Axis, row.Channel)
		spend.Values = append(spend.Values, row.Spend)
		conversions.Values = append(conversions.Values, float64(row.Conversions))
	}
	chart.Series = []ChartSeries{spend, conversions}
	return chart
}

func performanceTrendChart(f analytics.Fixtures) Chart {
	chart := Chart{Kind: ChartLine, Title: "Historical Performance Trend"}
	spend := ChartSeries{Name: "Monthly Spend"}
	conversions := ChartSeries{Name: "Monthly Conversions"}
	for _, point := range f.Snapshot.HistoricalData {
		chart.Axis = append(chart.Axis, point.Date)
		spend.Values = append(spend.Values, point.Spend)
		conversions.Values = append(conversions.Values, float64(point.Conversions))
	}
	chart.Series = []ChartSeries{spend, conversions}
	return chart
}

func competitorShareChart(f analytics.Fixtures) Chart {
	chart := Chart{Kind: ChartBar, Title: "Market Share Distribution", Horizontal: true}
	share := ChartSeries{Name: "Market Share %"}
	for _, c := range f.Snapshot.Competitors {
		chart.Axis = append(chart.Axis, c.Name)
		share.Values = append(share.Values, c.MarketShare)
	}
	chart.Series = []ChartSeries{share}
	return chart
}

func competitorEngagementChart(f analytics.Fixtures) Chart {
	chart := Chart{Kind: ChartBar, Title: "Engagement & Sentiment Comparison"}
	engagement := ChartSeries{Name: "Engagement Rate (x10)"}
	sentiment := ChartSeries{Name: "Brand Sentiment"}
	for _, c := range f.Snapshot.Competitors {
		chart.Axis = append(chart.Axis, c.Name)
		engagement.Values = append(engagement.Values, c.EngagementRate*10)
		sentiment.Values = append(sentiment.Values, c.Sentiment)
	}
	chart.Series = []ChartSeries{engagement, sentiment}
	return chart
}

func seoTrafficChart(f analytics.Fixtures) Chart {
	chart := Chart{Kind: ChartLine, Title: "Organic Traffic Growth"}
	traffic := ChartSeries{Name: "Traffic"}
	for _, point := range f.SEOHistory {
		chart.Axis = append(chart.Axis, point.Month)
		traffic.Values = append(traffic.Values, float64(point.Traffic))
	}
	chart.Series = []ChartSeries{traffic}
	return chart
}

// conversionFunnelChart sums impressions, clicks and conversions over the
// channels in the current filter.
func conversionFunnelChart(f analytics.Fixtures) Chart {
	var impressions, clicks, conversions int64
	for _, row := range f.Snapshot.ChannelPerformance {
		impressions += row.Impressions
		clicks += row.Clicks
		conversions += row.Conversions
	}
	return Chart{
		Kind:  ChartFunnel,
		Title: "Conversion Funnel",
		Axis:  []string{"Impressions", "Clicks", "Conversions"},
		Series: []ChartSeries{{
			Name:   "Funnel",
			Values: []float64{float64(impressions), float64(clicks), float64(conversions)},
		}},
	}
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}
