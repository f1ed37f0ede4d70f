package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/config"
	"github.com/goliatone/go-marketinsight/pkg/insights"
	"github.com/goliatone/go-marketinsight/pkg/settings"
)

// newGateway builds the AI gateway. Without an API key every call fails
// with insights.ErrMissingAPIKey, so narrative panels degrade instead of
// the process refusing to start.
func newGateway(ctx context.Context, cfg *config.Config, logger zerolog.Logger, telemetry insights.Telemetry) (*insights.Gateway, error) {
	var gen insights.Generator
	client, err := insights.NewGenAIGenerator(ctx, insights.GenAIConfig{
		APIKey:      cfg.Provider.APIKey,
		HTTPTimeout: cfg.Provider.Timeout,
	})
	switch {
	case errors.Is(err, insights.ErrMissingAPIKey):
		logger.Warn().Msg("no provider api key configured, AI panels will degrade")
		gen = insights.GeneratorFunc(func(context.Context, insights.Request) (insights.Response, error) {
			return insights.Response{}, insights.ErrMissingAPIKey
		})
	case err != nil:
		return nil, err
	default:
		gen = client
	}

	var limiter *rate.Limiter
	if cfg.Provider.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Provider.RateLimit), max(cfg.Provider.Burst, 1))
	}
	return insights.NewGateway(insights.Options{
		Generator:      gen,
		FlashModel:     cfg.Provider.FlashModel,
		ProModel:       cfg.Provider.ProModel,
		ThinkingBudget: cfg.Provider.ThinkingBudget,
		Timeout:        cfg.Provider.Timeout,
		Limiter:        limiter,
		Logger:         logger,
		Telemetry:      telemetry,
	})
}

// newAnalyticsClient picks the remote snapshot API or the local fixtures.
func newAnalyticsClient(cfg *config.Config) (analytics.Client, error) {
	if cfg.Fixtures.RemoteURL != "" {
		client, err := analytics.NewHTTPClient(analytics.HTTPConfig{
			BaseURL:    cfg.Fixtures.RemoteURL,
			HTTPClient: &http.Client{Timeout: cfg.Provider.Timeout},
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	data := analytics.DefaultFixtures()
	if cfg.Fixtures.Path != "" {
		doc, err := analytics.ReadFixtures(cfg.Fixtures.Path)
		if err != nil {
			return nil, err
		}
		data = doc.Merge(data)
	}
	return analytics.NewMockClient(data), nil
}

// newSettingsStore opens the configured store. The returned closer is never nil.
func newSettingsStore(ctx context.Context, cfg config.SettingsConfig) (settings.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.DriverMemory:
		return settings.NewMemoryStore(), noop, nil
	case config.DriverFile:
		return settings.NewFileStore(cfg.Path), noop, nil
	case config.DriverSQLite:
		store, err := settings.OpenSQLStore(ctx, cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	}
	return nil, noop, fmt.Errorf("marketinsight: unknown settings driver %q", cfg.Driver)
}

// newRegistry registers the marketing providers plus any manifest definitions
// and returns the layout to serve.
func newRegistry(cfg config.LayoutConfig, repo analytics.SnapshotRepository) (*dashboard.Registry, dashboard.Layout, error) {
	reg := dashboard.NewRegistry()
	var opts []dashboard.ChartOption
	if cfg.ChartTheme != "" {
		opts = append(opts, dashboard.WithChartTheme(cfg.ChartTheme))
	}
	opts = append(opts, dashboard.WithChartAssetsHost(dashboard.ChartAssetsHost(cfg.ChartAssetsHost)))
	if err := reg.RegisterMarketingProviders(repo, opts...); err != nil {
		return nil, nil, err
	}
	layout := dashboard.DefaultLayout()
	if cfg.Manifest != "" {
		doc, err := reg.LoadManifestFile(cfg.Manifest)
		if err != nil {
			return nil, nil, err
		}
		layout = layout.Merge(doc.ViewLayout())
	}
	return reg, layout, nil
}

// newRefreshHook fans events out to live subscribers and the log, plus the
// notifications webhook when one is configured. The returned func stops the
// webhook worker.
func newRefreshHook(cfg config.NotificationsConfig, broadcast *dashboard.BroadcastHook, logger zerolog.Logger) (dashboard.RefreshHook, func(), error) {
	hooks := dashboard.MultiHook{broadcast, dashboard.LogHook{Logger: logger}}
	if cfg.WebhookURL == "" {
		return hooks, func() {}, nil
	}
	notifier, err := dashboard.NewWebhookNotifier(dashboard.WebhookOptions{
		URL:     cfg.WebhookURL,
		Timeout: cfg.Timeout,
		Logger:  logger.With().Str("component", "webhook").Logger(),
	})
	if err != nil {
		return nil, nil, err
	}
	hooks = append(hooks, &dashboard.NotificationsHook{Client: notifier, Channel: cfg.Channel})
	return hooks, notifier.Close, nil
}
