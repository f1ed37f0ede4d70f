package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/insights"
	"github.com/goliatone/go-marketinsight/pkg/telemetry"
	"github.com/goliatone/go-marketinsight/pkg/tui"
)

type insightsCmd struct {
	Channel   string `default:"All Channels" help:"Channel filter."`
	DateRange string `name:"date-range" default:"Last 30 Days" help:"Date range label."`
}

func (cmd *insightsCmd) Run(a *app) error {
	gw, err := newGateway(a.ctx, a.cfg, a.logger, telemetry.NewLogger(a.logger))
	if err != nil {
		return err
	}
	client, err := newAnalyticsClient(a.cfg)
	if err != nil {
		return err
	}
	snapshot, err := analytics.NewSnapshotRepository(client).Snapshot(a.ctx, analytics.SnapshotQuery{
		Channel:   cmd.Channel,
		DateRange: cmd.DateRange,
	})
	if err != nil {
		return err
	}
	return printNarrative(a.out, "Strategic insights", gw.Insights(a.ctx, snapshot))
}

type intelCmd struct {
	Channel string `arg:"" optional:"" default:"Digital Marketing" help:"Channel or market to research."`
}

func (cmd *intelCmd) Run(a *app) error {
	gw, err := newGateway(a.ctx, a.cfg, a.logger, telemetry.NewLogger(a.logger))
	if err != nil {
		return err
	}
	report, err := gw.MarketIntel(a.ctx, cmd.Channel)
	if err != nil {
		return err
	}
	return printReport(a.out, "Market intelligence: "+cmd.Channel, report)
}

type auditCmd struct {
	Domain string `arg:"" help:"Domain to audit."`
}

func (cmd *auditCmd) Run(a *app) error {
	gw, err := newGateway(a.ctx, a.cfg, a.logger, telemetry.NewLogger(a.logger))
	if err != nil {
		return err
	}
	report, err := gw.SEOAudit(a.ctx, cmd.Domain)
	if err != nil {
		return err
	}
	return printReport(a.out, "SEO audit: "+cmd.Domain, report)
}

type socialCmd struct {
	Topic     string `arg:"" help:"Campaign topic."`
	Platforms string `help:"Comma separated platforms. Defaults to every platform."`
}

func (cmd *socialCmd) Run(a *app) error {
	gw, err := newGateway(a.ctx, a.cfg, a.logger, telemetry.NewLogger(a.logger))
	if err != nil {
		return err
	}
	narrative, err := gw.SocialSuggestions(a.ctx, cmd.Topic, cmd.Platforms)
	if err != nil {
		return err
	}
	return printNarrative(a.out, "Social suggestions: "+cmd.Topic, narrative)
}

type scanCmd struct {
	Channel string `arg:"" optional:"" default:"Digital Marketing" help:"Channel to scan."`
}

func (cmd *scanCmd) Run(a *app) error {
	gw, err := newGateway(a.ctx, a.cfg, a.logger, telemetry.NewLogger(a.logger))
	if err != nil {
		return err
	}
	return printNarrative(a.out, "Autonomous scan: "+cmd.Channel, gw.AutonomousScan(a.ctx, cmd.Channel))
}

func printNarrative(out io.Writer, title string, n insights.Narrative) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", title, n.Text)
	if n.Degraded {
		fmt.Fprintf(&b, "\n> Provider unavailable (%s), showing fallback text.\n", n.Cause)
	}
	writeSources(&b, n.Sources)
	_, err := fmt.Fprintln(out, tui.RenderMarkdown(b.String(), 100))
	return err
}

func printReport(out io.Writer, title string, r insights.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", title, r.Summary)
	writeSources(&b, r.Sources)
	_, err := fmt.Fprintln(out, tui.RenderMarkdown(b.String(), 100))
	return err
}

func writeSources(b *strings.Builder, sources []insights.Source) {
	if len(sources) == 0 {
		return
	}
	b.WriteString("\n## Sources\n\n")
	for _, s := range sources {
		fmt.Fprintf(b, "- [%s](%s)\n", s.Title, s.URI)
	}
}
