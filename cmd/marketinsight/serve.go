package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	router "github.com/goliatone/go-router"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/components/dashboard/commands"
	"github.com/goliatone/go-marketinsight/components/dashboard/gorouter"
	"github.com/goliatone/go-marketinsight/components/dashboard/httpapi"
	"github.com/goliatone/go-marketinsight/components/dashboard/queries"
	"github.com/goliatone/go-marketinsight/pkg/agent"
	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/config"
	milog "github.com/goliatone/go-marketinsight/pkg/log"
	"github.com/goliatone/go-marketinsight/pkg/settings"
	"github.com/goliatone/go-marketinsight/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	Addr string `help:"Listen address, overrides server.addr."`
}

func (cmd *serveCmd) Run(a *app) error {
	cfg := a.cfg
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	// the global level is the reloadable knob
	zerolog.SetGlobalLevel(milog.ParseLevel(cfg.Log.Level))
	logger := a.logger.Level(zerolog.TraceLevel)

	prom, err := telemetry.NewPrometheus()
	if err != nil {
		return err
	}
	recorder := telemetry.Multi{prom, telemetry.NewLogger(logger)}

	gateway, err := newGateway(a.ctx, cfg, logger, recorder)
	if err != nil {
		return err
	}
	client, err := newAnalyticsClient(cfg)
	if err != nil {
		return err
	}
	repo := analytics.NewSnapshotRepository(client)

	store, closeStore, err := newSettingsStore(a.ctx, cfg.Settings)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, layout, err := newRegistry(cfg.Layout, repo)
	if err != nil {
		return err
	}

	broadcast := dashboard.NewBroadcastHook()
	hook, closeHook, err := newRefreshHook(cfg.Notifications, broadcast, logger)
	if err != nil {
		return err
	}
	defer closeHook()

	service, err := dashboard.NewService(dashboard.Options{
		Gateway:      gateway,
		Snapshots:    repo,
		Settings:     settings.NewManager(settings.ManagerOptions{Store: store, Logger: logger}),
		Providers:    registry,
		Layout:       layout,
		RefreshHook:  hook,
		Telemetry:    recorder,
		Logger:       logger,
		PanelTimeout: cfg.Panel.Timeout,
		Agent: dashboard.AgentOptions{
			Executor:    agent.SimulatedExecutor{Delay: cfg.Agent.ExecDelay},
			Goal:        cfg.Agent.Goal,
			ExecTimeout: cfg.Agent.ExecTimeout,
		},
	})
	if err != nil {
		return err
	}
	defer service.Close()

	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return err
	}
	controller := dashboard.NewController(dashboard.ControllerOptions{Service: service, Renderer: renderer})

	server := router.NewFiberAdapter()
	fiberApp := server.WrappedRouter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: controller,
		API:        newHandlers(service, recorder, logger),
		Broadcast:  broadcast,
		BasePath:   cfg.Server.BasePath,
		Mount: func(path string, h http.Handler) {
			fiberApp.Get(path, adaptor.HTTPHandler(h))
		},
	}); err != nil {
		return err
	}
	fiberApp.Get(cfg.Server.MetricsPath, adaptor.HTTPHandler(prom.Handler()))

	g, ctx := errgroup.WithContext(a.ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Server.Addr).Str("base_path", cfg.Server.BasePath).Msg("dashboard listening")
		return server.Serve(cfg.Server.Addr)
	})
	if a.configPath != "" {
		watcher, err := config.NewWatcher(a.configPath, logger)
		if err != nil {
			return err
		}
		watcher.OnChange(func(_, next *config.Config) {
			zerolog.SetGlobalLevel(milog.ParseLevel(next.Log.Level))
			gateway.SetModels(next.Provider.FlashModel, next.Provider.ProModel)
		})
		g.Go(func() error { return watcher.Run(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newHandlers(service *dashboard.Service, recorder commands.Telemetry, logger zerolog.Logger) *httpapi.Handlers {
	return &httpapi.Handlers{
		SelectView:     commands.NewSelectViewCommand(service, recorder),
		SetFilters:     commands.NewSetFiltersCommand(service, recorder),
		RefreshPanel:   commands.NewRefreshPanelCommand(service, recorder),
		SetPanelParams: commands.NewSetPanelParamsCommand(service, recorder),
		Approve:        commands.NewApproveInterventionCommand(service, recorder),
		Reason:         commands.NewRunReasoningCommand(service, recorder),
		ReplaceConfig:  commands.NewReplaceSettingsCommand(service, recorder),
		EditConfig:     commands.NewEditSettingsCommand(service, recorder),
		TestConnection: commands.NewTestConnectionCommand(service, recorder),
		SaveConfig:     commands.NewSaveSettingsCommand(service, recorder),
		View:           queries.NewViewPayloadQuery(service),
		Panel:          queries.NewPanelStateQuery(service),
		Agent:          queries.NewAgentStateQuery(service),
		Settings:       queries.NewSettingsQuery(service),
		Logger:         logger,
	}
}
