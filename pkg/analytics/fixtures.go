package analytics

// Fixtures bundles every static dataset the dashboard renders.
type Fixtures struct {
	Snapshot   Snapshot        `json:"snapshot" yaml:"snapshot"`
	SEOHistory []SEOPoint      `json:"seo_history" yaml:"seo_history"`
	Keywords   []Keyword       `json:"keywords" yaml:"keywords"`
	Tasks      []Task          `json:"tasks" yaml:"tasks"`
	Posts      []ScheduledPost `json:"posts" yaml:"posts"`
	Mentions   []Mention       `json:"mentions" yaml:"mentions"`
	Health     []ChannelScore  `json:"health" yaml:"health"`
}

// DefaultSnapshot returns the demo dashboard data.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Metrics: []Metric{
			{Label: "Total Ad Spend", Value: 45280, Change: 12.5, Trend: TrendUp, Format: FormatCurrency},
			{Label: "Total Conversions", Value: 1240, Change: 8.2, Trend: TrendUp, Format: FormatNumber},
			{Label: "Avg. ROAS", Value: 4.2, Change: -2.1, Trend: TrendDown, Format: FormatNumber},
			{Label: "Cost Per Acquisition", Value: 36.5, Change: -5.4, Trend: TrendUp, Format: FormatCurrency},
		},
		ChannelPerformance: []ChannelPerformance{
			{Channel: "Facebook Ads", Spend: 15400, Impressions: 850000, Clicks: 12500, Conversions: 420, ROAS: 3.8},
			{Channel: "Google Search", Spend: 18200, Impressions: 420000, Clicks: 28400, Conversions: 580, ROAS: 5.2},
			{Channel: "Instagram Ads", Spend: 8200, Impressions: 1200000, Clicks: 8400, Conversions: 180, ROAS: 2.9},
			{Channel: "LinkedIn Ads", Spend: 3480, Impressions: 45000, Clicks: 1200, Conversions: 60, ROAS: 4.5},
		},
		Competitors: []Competitor{
			{Name: "My Brand", MarketShare: 24, AdSpend: 45000, EngagementRate: 4.2, Sentiment: 82},
			{Name: "Rival A", MarketShare: 31, AdSpend: 62000, EngagementRate: 3.8, Sentiment: 75},
			{Name: "MarketLeader B", MarketShare: 35, AdSpend: 85000, EngagementRate: 4.5, Sentiment: 88},
			{Name: "Startup C", MarketShare: 10, AdSpend: 12000, EngagementRate: 5.1, Sentiment: 91},
		},
		HistoricalData: []HistoricalPoint{
			{Date: "2024-01-01", Spend: 42000, Conversions: 1100},
			{Date: "2024-02-01", Spend: 38000, Conversions: 950},
			{Date: "2024-03-01", Spend: 45000, Conversions: 1240},
			{Date: "2024-04-01", Spend: 41000, Conversions: 1150},
			{Date: "2024-05-01", Spend: 48000, Conversions: 1320},
			{Date: "2024-06-01", Spend: 52000, Conversions: 1450},
		},
	}
}

// DefaultFixtures returns the full demo dataset used when no fixture file is configured.
func DefaultFixtures() Fixtures {
	return Fixtures{
		Snapshot: DefaultSnapshot(),
		SEOHistory: []SEOPoint{
			{Month: "Jan", Traffic: 4500, Ranking: 12},
			{Month: "Feb", Traffic: 5200, Ranking: 10},
			{Month: "Mar", Traffic: 4800, Ranking: 11},
			{Month: "Apr", Traffic: 6100, Ranking: 8},
			{Month: "May", Traffic: 7500, Ranking: 5},
			{Month: "Jun", Traffic: 8900, Ranking: 3},
		},
		Keywords: []Keyword{
			{Term: "marketing analytics", Volume: "12k", Difficulty: 45},
			{Term: "competitor insights tool", Volume: "2.4k", Difficulty: 21},
			{Term: "ai marketing dashboard", Volume: "8.1k", Difficulty: 68},
			{Term: "saas reporting api", Volume: "1.2k", Difficulty: 12},
		},
		Tasks: []Task{
			{ID: "1", Title: "SEO Keyword Research - Q3", Status: TaskDone, Priority: "high", Assignee: "Jane", Campaign: "SEO"},
			{ID: "2", Title: "Social Media Asset Design", Status: TaskProgress, Priority: "medium", Assignee: "Alex", Campaign: "Brand"},
			{ID: "3", Title: "Weekly Newsletter Copy", Status: TaskIdeation, Priority: "low", Assignee: "Sam", Campaign: "Email"},
			{ID: "4", Title: "Competitor Analysis Report", Status: TaskReview, Priority: "high", Assignee: "Jane", Campaign: "Strategy"},
		},
		Posts: []ScheduledPost{
			{Channel: "Instagram", Slot: "Today, 4:00 PM", Title: "Feature Spotlight: Analytics"},
			{Channel: "LinkedIn", Slot: "Tomorrow, 9:30 AM", Title: "Why SEO matters in 2025"},
		},
		Mentions: []Mention{
			{User: "@alex_m", Text: "Love the new interface!", Platform: "IG"},
			{User: "Sarah Jenkins", Text: "When is the API documentation coming out?", Platform: "LI"},
			{User: "MarketPro", Text: "Just shared your latest blog post.", Platform: "TW"},
		},
		Health: []ChannelScore{
			{Name: "Instagram", Score: 85},
			{Name: "LinkedIn", Score: 92},
			{Name: "Twitter", Score: 45},
		},
	}
}

// Clone deep-copies the fixture set.
func (f Fixtures) Clone() Fixtures {
	return Fixtures{
		Snapshot:   f.Snapshot.Clone(),
		SEOHistory: append([]SEOPoint(nil), f.SEOHistory...),
		Keywords:   append([]Keyword(nil), f.Keywords...),
		Tasks:      append([]Task(nil), f.Tasks...),
		Posts:      append([]ScheduledPost(nil), f.Posts...),
		Mentions:   append([]Mention(nil), f.Mentions...),
		Health:     append([]ChannelScore(nil), f.Health...),
	}
}
