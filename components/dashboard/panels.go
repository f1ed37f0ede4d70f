package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ettle/strcase"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/insights"
)

// Panel ids.
const (
	PanelInsights    PanelID = "insights"
	PanelMarketIntel PanelID = "market_intel"
	PanelSEOAudit    PanelID = "seo_audit"
	PanelSocial      PanelID = "social"
	PanelScan        PanelID = "scan"
)

var panelIDs = []PanelID{PanelInsights, PanelMarketIntel, PanelSEOAudit, PanelSocial, PanelScan}

// PanelIDs lists every panel in a session.
func PanelIDs() []PanelID {
	return append([]PanelID(nil), panelIDs...)
}

// ParsePanelID accepts panel ids in snake, kebab or camel case.
func ParsePanelID(raw string) (PanelID, error) {
	candidate := PanelID(strcase.ToSnake(strings.TrimSpace(raw)))
	for _, id := range panelIDs {
		if id == candidate {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPanel, raw)
}

// Fixed banner text per panel, shown when a failure has no better description.
const (
	InsightsErrorMessage    = "Failed to load AI insights. Check your API key."
	MarketIntelErrorMessage = "Failed to fetch live market data. Please check connection or API key."
	SEOAuditErrorMessage    = "Error auditing domain."
	SocialErrorMessage      = "Failed to generate suggestions."
	ScanErrorMessage        = "Scan failed."
)

// DefaultAuditDomain is the domain pre-filled in the SEO audit form.
const DefaultAuditDomain = "mybrand.com"

// InsightsParams binds the overview insights panel to the shell filters.
type InsightsParams struct {
	Channel   string `json:"channel"`
	DateRange string `json:"date_range"`
}

// IntelParams binds the market intelligence panel.
type IntelParams struct {
	Channel string `json:"channel"`
}

// AuditParams binds the SEO audit panel.
type AuditParams struct {
	Domain string `json:"domain"`
}

// SocialParams binds the social suggestions panel.
type SocialParams struct {
	Topic     string `json:"topic"`
	Platforms string `json:"platforms"`
}

// ScanParams binds the autonomous scan panel.
type ScanParams struct {
	Channel string `json:"channel"`
}

// Gateway is the subset of the AI request gateway the dashboard calls.
type Gateway interface {
	Insights(ctx context.Context, snapshot analytics.Snapshot) insights.Narrative
	MarketIntel(ctx context.Context, channel string) (insights.Report, error)
	SEOAudit(ctx context.Context, domain string) (insights.Report, error)
	SocialSuggestions(ctx context.Context, topic, platforms string) (insights.Narrative, error)
	AgenticReasoning(ctx context.Context, snapshot analytics.Snapshot, goal string) insights.Narrative
	AutonomousScan(ctx context.Context, channel string) insights.Narrative
}

var _ Gateway = (*insights.Gateway)(nil)

func insightsFetcher(gw Gateway, repo analytics.SnapshotRepository) Fetcher[InsightsParams, insights.Narrative] {
	return func(ctx context.Context, p InsightsParams) (insights.Narrative, error) {
		snapshot, err := repo.Snapshot(ctx, analytics.SnapshotQuery{Channel: p.Channel, DateRange: p.DateRange})
		if err != nil {
			return insights.Narrative{}, fmt.Errorf("dashboard: load snapshot: %w", err)
		}
		return gw.Insights(ctx, snapshot), nil
	}
}

func intelFetcher(gw Gateway) Fetcher[IntelParams, insights.Report] {
	return func(ctx context.Context, p IntelParams) (insights.Report, error) {
		return gw.MarketIntel(ctx, p.Channel)
	}
}

func auditFetcher(gw Gateway) Fetcher[AuditParams, insights.Report] {
	return func(ctx context.Context, p AuditParams) (insights.Report, error) {
		return gw.SEOAudit(ctx, p.Domain)
	}
}

func socialFetcher(gw Gateway) Fetcher[SocialParams, insights.Narrative] {
	return func(ctx context.Context, p SocialParams) (insights.Narrative, error) {
		return gw.SocialSuggestions(ctx, p.Topic, p.Platforms)
	}
}

func scanFetcher(gw Gateway) Fetcher[ScanParams, insights.Narrative] {
	return func(ctx context.Context, p ScanParams) (insights.Narrative, error) {
		return gw.AutonomousScan(ctx, p.Channel), nil
	}
}

// panelSet holds the typed panels of one session.
type panelSet struct {
	insights *Panel[InsightsParams, insights.Narrative]
	intel    *Panel[IntelParams, insights.Report]
	audit    *Panel[AuditParams, insights.Report]
	social   *Panel[SocialParams, insights.Narrative]
	scan     *Panel[ScanParams, insights.Narrative]
}

type panelSetOptions struct {
	Viewer    string
	Shell     ShellState
	Gateway   Gateway
	Snapshots analytics.SnapshotRepository
	Timeout   time.Duration
	Hook      RefreshHook
	Telemetry Telemetry
	Logger    zerolog.Logger
}

func newPanelSet(opts panelSetOptions) *panelSet {
	return &panelSet{
		insights: NewPanel(PanelOptions[InsightsParams, insights.Narrative]{
			ID:        PanelInsights,
			Viewer:    opts.Viewer,
			Fetch:     insightsFetcher(opts.Gateway, opts.Snapshots),
			Params:    InsightsParams{Channel: opts.Shell.Channel, DateRange: opts.Shell.DateRange},
			Timeout:   opts.Timeout,
			Message:   InsightsErrorMessage,
			Hook:      opts.Hook,
			Telemetry: opts.Telemetry,
			Logger:    opts.Logger,
		}),
		intel: NewPanel(PanelOptions[IntelParams, insights.Report]{
			ID:        PanelMarketIntel,
			Viewer:    opts.Viewer,
			Fetch:     intelFetcher(opts.Gateway),
			Params:    IntelParams{Channel: intelChannel(opts.Shell.Channel)},
			Timeout:   opts.Timeout,
			Message:   MarketIntelErrorMessage,
			Hook:      opts.Hook,
			Telemetry: opts.Telemetry,
			Logger:    opts.Logger,
		}),
		audit: NewPanel(PanelOptions[AuditParams, insights.Report]{
			ID:        PanelSEOAudit,
			Viewer:    opts.Viewer,
			Fetch:     auditFetcher(opts.Gateway),
			Params:    AuditParams{Domain: DefaultAuditDomain},
			Timeout:   opts.Timeout,
			Message:   SEOAuditErrorMessage,
			Hook:      opts.Hook,
			Telemetry: opts.Telemetry,
			Logger:    opts.Logger,
		}),
		social: NewPanel(PanelOptions[SocialParams, insights.Narrative]{
			ID:        PanelSocial,
			Viewer:    opts.Viewer,
			Fetch:     socialFetcher(opts.Gateway),
			Params:    SocialParams{Platforms: insights.DefaultPlatforms},
			Timeout:   opts.Timeout,
			Message:   SocialErrorMessage,
			Hook:      opts.Hook,
			Telemetry: opts.Telemetry,
			Logger:    opts.Logger,
		}),
		scan: NewPanel(PanelOptions[ScanParams, insights.Narrative]{
			ID:        PanelScan,
			Viewer:    opts.Viewer,
			Fetch:     scanFetcher(opts.Gateway),
			Params:    ScanParams{Channel: intelChannel(opts.Shell.Channel)},
			Timeout:   opts.Timeout,
			Message:   ScanErrorMessage,
			Hook:      opts.Hook,
			Telemetry: opts.Telemetry,
			Logger:    opts.Logger,
		}),
	}
}

// control exposes the untyped lifecycle of a panel.
type panelControl interface {
	ID() PanelID
	Activate()
	Deactivate()
	Refresh()
	Snapshot() PanelSnapshot
	Wait(ctx context.Context) error
	Close()
}

func (s *panelSet) all() []panelControl {
	return []panelControl{s.insights, s.intel, s.audit, s.social, s.scan}
}

func (s *panelSet) get(id PanelID) (panelControl, bool) {
	for _, p := range s.all() {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// viewPanels lists the panels a view activates on entry. The SEO audit and
// social panels only run on explicit request and are not listed.
func (s *panelSet) viewPanels(view View) []panelControl {
	switch view {
	case ViewOverview:
		return []panelControl{s.insights}
	case ViewMarketIntel:
		return []panelControl{s.intel}
	case ViewAIStrategy:
		return []panelControl{s.scan}
	}
	return nil
}

// bind rebinds the filter-driven panels to shell. Inactive panels only store params.
func (s *panelSet) bind(shell ShellState) {
	s.insights.SetParams(InsightsParams{Channel: shell.Channel, DateRange: shell.DateRange})
	s.intel.SetParams(IntelParams{Channel: intelChannel(shell.Channel)})
	s.scan.SetParams(ScanParams{Channel: intelChannel(shell.Channel)})
}

// setParams decodes raw params for id and rebinds the panel. Explicit-run
// panels start a cycle even when the params did not change.
func (s *panelSet) setParams(id PanelID, raw map[string]any) error {
	switch id {
	case PanelSEOAudit:
		domain := strings.TrimSpace(stringValue(raw["domain"], ""))
		if domain == "" {
			return fmt.Errorf("%w: domain is required", ErrInvalidParams)
		}
		if !s.audit.SetParams(AuditParams{Domain: domain}) {
			s.audit.Refresh()
		}
	case PanelSocial:
		topic := strings.TrimSpace(stringValue(raw["topic"], ""))
		if topic == "" {
			return fmt.Errorf("%w: topic is required", ErrInvalidParams)
		}
		platforms := strings.TrimSpace(stringValue(raw["platforms"], insights.DefaultPlatforms))
		if !s.social.SetParams(SocialParams{Topic: topic, Platforms: platforms}) {
			s.social.Refresh()
		}
	case PanelMarketIntel:
		channel := strings.TrimSpace(stringValue(raw["channel"], ""))
		if channel == "" {
			return fmt.Errorf("%w: channel is required", ErrInvalidParams)
		}
		s.intel.SetParams(IntelParams{Channel: channel})
	case PanelScan:
		channel := strings.TrimSpace(stringValue(raw["channel"], ""))
		if channel == "" {
			return fmt.Errorf("%w: channel is required", ErrInvalidParams)
		}
		s.scan.SetParams(ScanParams{Channel: channel})
	case PanelInsights:
		return fmt.Errorf("%w: insights params follow the shell filters", ErrInvalidParams)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPanel, id)
	}
	return nil
}

func (s *panelSet) snapshots() map[PanelID]PanelSnapshot {
	out := make(map[PanelID]PanelSnapshot, len(panelIDs))
	for _, p := range s.all() {
		out[p.ID()] = p.Snapshot()
	}
	return out
}

func (s *panelSet) wait(ctx context.Context) error {
	for _, p := range s.all() {
		if err := p.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *panelSet) close() {
	for _, p := range s.all() {
		p.Close()
	}
}
