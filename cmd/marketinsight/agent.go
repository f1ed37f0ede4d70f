package main

import (
	"errors"
	"io"

	"github.com/goliatone/go-marketinsight/pkg/agent"
	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/telemetry"
	"github.com/goliatone/go-marketinsight/pkg/tui"
)

var errSimulatedFailure = errors.New("simulated ad platform rejection")

type agentCmd struct {
	SimulateFailure bool `name:"simulate-failure" help:"Make every intervention fail to exercise the alert path."`
}

func (cmd *agentCmd) Run(a *app) error {
	// the hub owns the terminal, so logs are discarded
	logger := a.logger.Output(io.Discard)
	gw, err := newGateway(a.ctx, a.cfg, logger, telemetry.NewLogger(logger))
	if err != nil {
		return err
	}
	client, err := newAnalyticsClient(a.cfg)
	if err != nil {
		return err
	}
	repo := analytics.NewSnapshotRepository(client)

	executor := agent.SimulatedExecutor{Delay: a.cfg.Agent.ExecDelay}
	if cmd.SimulateFailure {
		executor.FailWith = errSimulatedFailure
	}
	feed := tui.NewChangeFeed(0)
	workflow, err := agent.New(agent.Options{
		Reasoner:    gw,
		Executor:    executor,
		Listener:    feed,
		Logger:      logger,
		Goal:        a.cfg.Agent.Goal,
		ExecTimeout: a.cfg.Agent.ExecTimeout,
	})
	if err != nil {
		return err
	}
	defer workflow.Close()

	return tui.Run(tui.Options{
		Hub:     workflow,
		Changes: feed.C(),
		Snapshot: func() analytics.Snapshot {
			snapshot, err := repo.Snapshot(a.ctx, analytics.SnapshotQuery{Channel: analytics.AllChannels})
			if err != nil {
				return analytics.DefaultSnapshot()
			}
			return snapshot
		},
	})
}
