package insights

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

// Narrative is the result of a plain-text intent. Degraded marks fallback text
// substituted for a failed provider call.
type Narrative struct {
	Intent   Intent    `json:"intent"`
	Text     string    `json:"text"`
	Degraded bool      `json:"degraded"`
	Cause    ErrorKind `json:"cause,omitempty"`
	Sources  []Source  `json:"sources,omitempty"`
}

// Report is the result of a grounded intent.
type Report struct {
	Intent  Intent   `json:"intent"`
	Summary string   `json:"summary"`
	Sources []Source `json:"sources"`
}

// Options configures a Gateway.
type Options struct {
	Generator      Generator
	FlashModel     string
	ProModel       string
	ThinkingBudget int32
	// Timeout bounds each provider call. Zero leaves the caller's context in charge.
	Timeout time.Duration
	// Limiter paces outbound calls. Calls wait for a token rather than fail.
	Limiter   *rate.Limiter
	Logger    zerolog.Logger
	Telemetry Telemetry
}

// Gateway turns intents into exactly one provider call each and normalizes the outcome.
// It holds no per-call state.
type Gateway struct {
	generator      Generator
	models         atomic.Pointer[modelSet]
	thinkingBudget int32
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         zerolog.Logger
	telemetry      Telemetry
}

// NewGateway builds a Gateway with defaults for models and budget.
func NewGateway(opts Options) (*Gateway, error) {
	if opts.Generator == nil {
		return nil, ErrMissingGenerator
	}
	if opts.FlashModel == "" {
		opts.FlashModel = DefaultFlashModel
	}
	if opts.ProModel == "" {
		opts.ProModel = DefaultProModel
	}
	if opts.ThinkingBudget <= 0 {
		opts.ThinkingBudget = DefaultThinkingBudget
	}
	g := &Gateway{
		generator:      opts.Generator,
		thinkingBudget: opts.ThinkingBudget,
		timeout:        opts.Timeout,
		limiter:        opts.Limiter,
		logger:         opts.Logger.With().Str("component", "insights").Logger(),
		telemetry:      normalizeTelemetry(opts.Telemetry),
	}
	g.models.Store(&modelSet{flash: opts.FlashModel, pro: opts.ProModel})
	return g, nil
}

type modelSet struct {
	flash string
	pro   string
}

// SetModels swaps the models used by later calls. Empty names keep the current model.
func (g *Gateway) SetModels(flash, pro string) {
	next := *g.models.Load()
	if flash != "" {
		next.flash = flash
	}
	if pro != "" {
		next.pro = pro
	}
	g.models.Store(&next)
}

// Models reports the flash and pro models in use.
func (g *Gateway) Models() (flash, pro string) {
	m := g.models.Load()
	return m.flash, m.pro
}

// Insights asks for strategic insights over a snapshot. It never fails.
func (g *Gateway) Insights(ctx context.Context, snapshot analytics.Snapshot) Narrative {
	prompt, err := InsightsPrompt(snapshot)
	if err != nil {
		return g.degrade(ctx, IntentInsights, FallbackInsights, err)
	}
	return g.narrative(ctx, Request{Intent: IntentInsights, Model: g.models.Load().flash, Prompt: prompt}, FallbackInsights)
}

// SocialSuggestions asks for post ideas on a topic. A blank topic is rejected.
func (g *Gateway) SocialSuggestions(ctx context.Context, topic, platforms string) (Narrative, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Narrative{}, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	if strings.TrimSpace(platforms) == "" {
		platforms = DefaultPlatforms
	}
	req := Request{Intent: IntentSocialSuggestions, Model: g.models.Load().flash, Prompt: SocialPrompt(topic, platforms)}
	return g.narrative(ctx, req, FallbackSocial), nil
}

// AgenticReasoning runs a deep reasoning pass toward goal. It never fails.
func (g *Gateway) AgenticReasoning(ctx context.Context, snapshot analytics.Snapshot, goal string) Narrative {
	prompt, err := ReasoningPrompt(snapshot, goal)
	if err != nil {
		return g.degrade(ctx, IntentAgenticReasoning, FallbackReasoning, err)
	}
	req := Request{
		Intent:         IntentAgenticReasoning,
		Model:          g.models.Load().pro,
		Prompt:         prompt,
		ThinkingBudget: g.thinkingBudget,
	}
	return g.narrative(ctx, req, FallbackReasoning)
}

// AutonomousScan looks for one opportunity on a channel using live search.
// Failures degrade to fallback text like the other narrative intents.
func (g *Gateway) AutonomousScan(ctx context.Context, channel string) Narrative {
	req := Request{Intent: IntentAutonomousScan, Model: g.models.Load().flash, Prompt: ScanPrompt(channel), Grounded: true}
	return g.narrative(ctx, req, FallbackScan)
}

// MarketIntel fetches a grounded market report for a channel.
// Provider failures are returned as *ProviderFailure.
func (g *Gateway) MarketIntel(ctx context.Context, channel string) (Report, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return Report{}, fmt.Errorf("%w: channel is required", ErrInvalidInput)
	}
	req := Request{Intent: IntentMarketIntel, Model: g.models.Load().flash, Prompt: MarketIntelPrompt(channel), Grounded: true}
	return g.report(ctx, req, EmptyMarketIntel)
}

// SEOAudit fetches a grounded SEO audit for a domain.
// Provider failures are returned as *ProviderFailure.
func (g *Gateway) SEOAudit(ctx context.Context, domain string) (Report, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return Report{}, fmt.Errorf("%w: domain is required", ErrInvalidInput)
	}
	req := Request{Intent: IntentSEOAudit, Model: g.models.Load().flash, Prompt: SEOAuditPrompt(domain), Grounded: true}
	return g.report(ctx, req, EmptySEOAudit)
}

func (g *Gateway) narrative(ctx context.Context, req Request, fallback string) Narrative {
	resp, err := g.call(ctx, req)
	if err != nil {
		return g.degrade(ctx, req.Intent, fallback, err)
	}
	out := Narrative{Intent: req.Intent, Text: resp.Text}
	if req.Grounded {
		out.Sources = NormalizeSources(resp.Sources)
	}
	return out
}

func (g *Gateway) report(ctx context.Context, req Request, empty string) (Report, error) {
	resp, err := g.call(ctx, req)
	if err != nil {
		return Report{}, err
	}
	summary := resp.Text
	if strings.TrimSpace(summary) == "" {
		summary = empty
	}
	return Report{
		Intent:  req.Intent,
		Summary: summary,
		Sources: NormalizeSources(resp.Sources),
	}, nil
}

func (g *Gateway) degrade(ctx context.Context, intent Intent, fallback string, err error) Narrative {
	failure := newFailure(intent, err)
	g.telemetry.Record(ctx, "insights.intent.degraded", map[string]any{
		"intent": string(intent),
		"kind":   string(failure.Kind),
	})
	return Narrative{Intent: intent, Text: fallback, Degraded: true, Cause: failure.Kind}
}

// call performs the single provider attempt. No retries are made.
func (g *Gateway) call(ctx context.Context, req Request) (Response, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return Response{}, g.fail(ctx, req, err, 0)
		}
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := g.generator.Generate(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return Response{}, g.fail(ctx, req, err, elapsed)
	}
	g.logger.Debug().
		Str("intent", string(req.Intent)).
		Str("model", req.Model).
		Dur("elapsed", elapsed).
		Int("sources", len(resp.Sources)).
		Msg("provider call completed")
	g.telemetry.Record(ctx, "insights.intent.success", map[string]any{
		"intent":      string(req.Intent),
		"model":       req.Model,
		"duration_ms": elapsed.Milliseconds(),
		"empty":       strings.TrimSpace(resp.Text) == "",
	})
	return resp, nil
}

func (g *Gateway) fail(ctx context.Context, req Request, err error, elapsed time.Duration) error {
	failure := newFailure(req.Intent, err)
	g.logger.Error().
		Err(err).
		Str("intent", string(req.Intent)).
		Str("model", req.Model).
		Str("kind", string(failure.Kind)).
		Dur("elapsed", elapsed).
		Msg("provider call failed")
	g.telemetry.Record(ctx, "insights.intent.failure", map[string]any{
		"intent":      string(req.Intent),
		"model":       req.Model,
		"kind":        string(failure.Kind),
		"duration_ms": elapsed.Milliseconds(),
	})
	return failure
}
