package agent

import (
	"context"
	"time"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/insights"
)

// Executor applies an approved intervention to the outside world.
type Executor interface {
	Execute(ctx context.Context, item Intervention) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, item Intervention) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, item Intervention) error { return f(ctx, item) }

// DefaultExecutionDelay mirrors the latency of a simulated ad platform call.
const DefaultExecutionDelay = 2 * time.Second

// SimulatedExecutor stands in for ad platform calls. It waits Delay and then
// returns FailWith, which is nil unless a failure is being simulated.
type SimulatedExecutor struct {
	Delay    time.Duration
	FailWith error
}

// Execute implements Executor.
func (s SimulatedExecutor) Execute(ctx context.Context, _ Intervention) error {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return s.FailWith
}

// Reasoner runs the deep reasoning step. *insights.Gateway satisfies it.
type Reasoner interface {
	AgenticReasoning(ctx context.Context, snapshot analytics.Snapshot, goal string) insights.Narrative
}

// ReasonerFunc adapts a function to Reasoner.
type ReasonerFunc func(ctx context.Context, snapshot analytics.Snapshot, goal string) insights.Narrative

// AgenticReasoning implements Reasoner.
func (f ReasonerFunc) AgenticReasoning(ctx context.Context, snapshot analytics.Snapshot, goal string) insights.Narrative {
	return f(ctx, snapshot, goal)
}

var _ Reasoner = (*insights.Gateway)(nil)
