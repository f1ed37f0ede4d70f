package analytics

// MetricFormat controls how a metric value is presented.
type MetricFormat string

const (
	FormatCurrency   MetricFormat = "currency"
	FormatNumber     MetricFormat = "number"
	FormatPercentage MetricFormat = "percentage"
)

// Trend is the direction a metric moved over the selected range.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Metric is a headline KPI shown on the overview stat cards.
type Metric struct {
	Label  string       `json:"label" yaml:"label"`
	Value  float64      `json:"value" yaml:"value"`
	Change float64      `json:"change" yaml:"change"`
	Trend  Trend        `json:"trend" yaml:"trend"`
	Format MetricFormat `json:"format" yaml:"format"`
}

// ChannelPerformance aggregates paid media results for one ad channel.
type ChannelPerformance struct {
	Channel     string  `json:"channel" yaml:"channel"`
	Spend       float64 `json:"spend" yaml:"spend"`
	Impressions int64   `json:"impressions" yaml:"impressions"`
	Clicks      int64   `json:"clicks" yaml:"clicks"`
	Conversions int64   `json:"conversions" yaml:"conversions"`
	ROAS        float64 `json:"roas" yaml:"roas"`
}

// CTR returns the click-through rate as a percentage.
func (c ChannelPerformance) CTR() float64 {
	if c.Impressions == 0 {
		return 0
	}
	return float64(c.Clicks) / float64(c.Impressions) * 100
}

// Competitor captures share-of-market figures for a tracked brand.
type Competitor struct {
	Name           string  `json:"name" yaml:"name"`
	MarketShare    float64 `json:"marketShare" yaml:"market_share"`
	AdSpend        float64 `json:"adSpend" yaml:"ad_spend"`
	EngagementRate float64 `json:"engagementRate" yaml:"engagement_rate"`
	Sentiment      float64 `json:"sentiment" yaml:"sentiment"`
}

// HistoricalPoint is one bucket of the spend/conversion trend.
type HistoricalPoint struct {
	Date        string  `json:"date" yaml:"date"`
	Spend       float64 `json:"spend" yaml:"spend"`
	Conversions int64   `json:"conversions" yaml:"conversions"`
}

// Snapshot is the full dashboard data state handed to panels and AI prompts.
type Snapshot struct {
	Metrics            []Metric             `json:"metrics" yaml:"metrics"`
	ChannelPerformance []ChannelPerformance `json:"channelPerformance" yaml:"channel_performance"`
	Competitors        []Competitor         `json:"competitors" yaml:"competitors"`
	HistoricalData     []HistoricalPoint    `json:"historicalData" yaml:"historical_data"`
}

// Clone returns a deep copy so callers can filter without touching fixtures.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Metrics:            append([]Metric(nil), s.Metrics...),
		ChannelPerformance: append([]ChannelPerformance(nil), s.ChannelPerformance...),
		Competitors:        append([]Competitor(nil), s.Competitors...),
		HistoricalData:     append([]HistoricalPoint(nil), s.HistoricalData...),
	}
}

// SEOPoint is one month of organic traffic and average ranking.
type SEOPoint struct {
	Month   string `json:"month" yaml:"month"`
	Traffic int64  `json:"traffic" yaml:"traffic"`
	Ranking int    `json:"ranking" yaml:"ranking"`
}

// Keyword is a search term opportunity surfaced on the SEO suite.
type Keyword struct {
	Term       string `json:"term" yaml:"term"`
	Volume     string `json:"volume" yaml:"volume"`
	Difficulty int    `json:"difficulty" yaml:"difficulty"`
}

// TaskStatus is a kanban column on the workflow board.
type TaskStatus string

const (
	TaskIdeation TaskStatus = "ideation"
	TaskProgress TaskStatus = "progress"
	TaskReview   TaskStatus = "review"
	TaskDone     TaskStatus = "done"
)

// Task is a marketing work item tracked on the workflow board.
type Task struct {
	ID       string     `json:"id" yaml:"id"`
	Title    string     `json:"title" yaml:"title"`
	Status   TaskStatus `json:"status" yaml:"status"`
	Priority string     `json:"priority" yaml:"priority"`
	Assignee string     `json:"assignee" yaml:"assignee"`
	Campaign string     `json:"campaign" yaml:"campaign"`
}

// ScheduledPost is a queued social publication.
type ScheduledPost struct {
	Channel string `json:"channel" yaml:"channel"`
	Slot    string `json:"slot" yaml:"slot"`
	Title   string `json:"title" yaml:"title"`
}

// Mention is an inbound social interaction awaiting a reply.
type Mention struct {
	User     string `json:"user" yaml:"user"`
	Text     string `json:"text" yaml:"text"`
	Platform string `json:"platform" yaml:"platform"`
}

// ChannelScore is an engagement health score per social network.
type ChannelScore struct {
	Name  string `json:"name" yaml:"name"`
	Score int    `json:"score" yaml:"score"`
}

// SnapshotQuery narrows a snapshot to the shell filters.
type SnapshotQuery struct {
	Channel   string `json:"channel"`
	DateRange string `json:"date_range"`
}
