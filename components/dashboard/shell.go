package dashboard

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

// View identifies a sidebar destination.
type View string

const (
	ViewOverview    View = "overview"
	ViewSEOSuite    View = "seo_suite"
	ViewSocialHub   View = "social_hub"
	ViewWorkflows   View = "workflows"
	ViewCompetitors View = "competitors"
	ViewMarketIntel View = "market_intel"
	ViewAIStrategy  View = "ai_strategy"
	ViewSettings    View = "settings"
)

// ViewInfo is a navigation entry.
type ViewInfo struct {
	ID    View   `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var views = []ViewInfo{
	{ID: ViewOverview, Label: "Overview", Icon: "📊"},
	{ID: ViewSEOSuite, Label: "SEO Suite", Icon: "🔍"},
	{ID: ViewSocialHub, Label: "Social Hub", Icon: "📱"},
	{ID: ViewWorkflows, Label: "Workflows", Icon: "📋"},
	{ID: ViewCompetitors, Label: "Competitors", Icon: "🎯"},
	{ID: ViewMarketIntel, Label: "Market Intel", Icon: "🌐"},
	{ID: ViewAIStrategy, Label: "AI Strategy", Icon: "✨"},
	{ID: ViewSettings, Label: "Settings", Icon: "⚙️"},
}

// Views returns the sidebar entries in display order.
func Views() []ViewInfo {
	return append([]ViewInfo(nil), views...)
}

// Title renders the heading shown above a view, e.g. "market intel".
func (v View) Title() string {
	return strings.Replace(string(v), "_", " ", 1)
}

// Info returns the navigation entry for v.
func (v View) Info() (ViewInfo, bool) {
	for _, info := range views {
		if info.ID == v {
			return info, true
		}
	}
	return ViewInfo{}, false
}

// ParseView accepts view ids in snake, kebab or camel case.
func ParseView(raw string) (View, error) {
	candidate := View(strcase.ToSnake(strings.TrimSpace(raw)))
	if _, ok := candidate.Info(); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownView, raw)
	}
	return candidate, nil
}

// Channels returns the channel filter options.
func Channels() []string {
	return analytics.Channels()
}

var dateRanges = []string{"Last 7 Days", "Last 30 Days", "Last 90 Days", "Year to Date"}

// DateRanges returns the date range filter options.
func DateRanges() []string {
	return append([]string(nil), dateRanges...)
}

const (
	DefaultDateRange = "Last 30 Days"
	// MarketIntelAllChannels replaces the "All Channels" filter in market intelligence prompts.
	MarketIntelAllChannels = "Digital Marketing"
)

// ShellState is the per-viewer navigation and filter state.
type ShellState struct {
	View      View   `json:"view"`
	Channel   string `json:"channel"`
	DateRange string `json:"date_range"`
}

// DefaultShellState is what a new viewer starts with.
func DefaultShellState() ShellState {
	return ShellState{View: ViewOverview, Channel: analytics.AllChannels, DateRange: DefaultDateRange}
}

// Validate checks every field against the known options.
func (s ShellState) Validate() error {
	if _, ok := s.View.Info(); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownView, s.View)
	}
	if !slices.Contains(analytics.Channels(), s.Channel) {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidFilter, s.Channel)
	}
	if !slices.Contains(dateRanges, s.DateRange) {
		return fmt.Errorf("%w: unknown date range %q", ErrInvalidFilter, s.DateRange)
	}
	return nil
}

// Subtitle renders "<channel> • <date range>".
func (s ShellState) Subtitle() string {
	return s.Channel + " • " + s.DateRange
}

// intelChannel maps the shell channel to the market intelligence subject.
func intelChannel(channel string) string {
	if channel == "" || channel == analytics.AllChannels {
		return MarketIntelAllChannels
	}
	return channel
}
