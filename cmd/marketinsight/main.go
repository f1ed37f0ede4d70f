package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-marketinsight/pkg/config"
	milog "github.com/goliatone/go-marketinsight/pkg/log"
)

type cli struct {
	Config   string `type:"path" help:"YAML configuration file." env:"MARKETINSIGHT_CONFIG"`
	LogLevel string `name:"log-level" help:"Override log.level (debug, info, warn, error)."`
	Pretty   bool   `help:"Human readable logs."`

	Serve    serveCmd    `cmd:"" help:"Serve the dashboard over HTTP."`
	Insights insightsCmd `cmd:"" help:"Generate strategic insights for a channel."`
	Intel    intelCmd    `cmd:"" help:"Fetch a grounded market intelligence report."`
	Audit    auditCmd    `cmd:"" help:"Run a grounded SEO audit for a domain."`
	Social   socialCmd   `cmd:"" help:"Suggest social posts for a topic."`
	Scan     scanCmd     `cmd:"" help:"Scan a channel for one opportunity."`
	Agent    agentCmd    `cmd:"" help:"Open the interactive agent hub."`
	Layout   layoutCmd   `cmd:"" help:"Validate a widget layout manifest."`
}

// app carries what every command needs. It is bound into kong's Run calls.
type app struct {
	ctx        context.Context
	configPath string
	cfg        *config.Config
	logger     zerolog.Logger
	out        io.Writer
}

func main() {
	var root cli
	kctx := kong.Parse(&root,
		kong.Name("marketinsight"),
		kong.Description("Marketing analytics dashboard with AI insights and an intervention agent."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, root, os.Stdout)
	kctx.FatalIfErrorf(err)
	kctx.FatalIfErrorf(kctx.Run(a))
}

func newApp(ctx context.Context, root cli, out io.Writer) (*app, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if root.LogLevel != "" {
		cfg.Log.Level = root.LogLevel
	}
	if root.Pretty {
		cfg.Log.Pretty = true
	}
	logger := milog.New(milog.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	return &app{ctx: ctx, configPath: root.Config, cfg: cfg, logger: logger, out: out}, nil
}
