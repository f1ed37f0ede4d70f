package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/insights"
)

var (
	// ErrUnknownIntervention is returned when an id does not match any intervention.
	ErrUnknownIntervention = errors.New("agent: unknown intervention")
	// ErrClosed is returned by operations on a closed workflow.
	ErrClosed = errors.New("agent: workflow closed")
	// ErrMissingReasoner is returned when Options.Reasoner is nil.
	ErrMissingReasoner = errors.New("agent: reasoner is required")
)

// Options configures a Workflow.
type Options struct {
	Reasoner Reasoner
	Executor Executor
	Listener Listener
	Logger   zerolog.Logger
	Clock    func() time.Time
	// Goal is passed to every reasoning call. Defaults to DefaultGoal.
	Goal string
	// ExecTimeout bounds each executor run. Zero means no bound.
	ExecTimeout time.Duration
	// Interventions replaces the seeded proposals when non-nil.
	Interventions []Intervention
}

// Workflow is the intervention state machine behind the agent hub.
// Every transition appends exactly one log entry.
type Workflow struct {
	mu            sync.Mutex
	interventions []Intervention
	logs          []LogEntry
	thinking      bool
	strategy      *insights.Narrative
	closed        bool

	// emitMu keeps listener delivery in log order.
	emitMu sync.Mutex

	reasoner    Reasoner
	executor    Executor
	listener    Listener
	logger      zerolog.Logger
	clock       func() time.Time
	goal        string
	execTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a workflow seeded with the default interventions and boot log.
func New(opts Options) (*Workflow, error) {
	if opts.Reasoner == nil {
		return nil, ErrMissingReasoner
	}
	if opts.Executor == nil {
		opts.Executor = SimulatedExecutor{Delay: DefaultExecutionDelay}
	}
	if opts.Listener == nil {
		opts.Listener = noopListener{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Goal == "" {
		opts.Goal = DefaultGoal
	}
	seed := opts.Interventions
	if seed == nil {
		seed = DefaultInterventions()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Workflow{
		interventions: append([]Intervention(nil), seed...),
		logs:          initialLogs(opts.Clock()),
		reasoner:      opts.Reasoner,
		executor:      opts.Executor,
		listener:      opts.Listener,
		logger:        opts.Logger.With().Str("component", "agent").Logger(),
		clock:         opts.Clock,
		goal:          opts.Goal,
		execTimeout:   opts.ExecTimeout,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Approve moves a pending intervention to executing and dispatches it.
// It reports false without logging when the intervention is not pending.
func (w *Workflow) Approve(id string) (bool, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false, ErrClosed
	}
	idx := w.indexLocked(id)
	if idx < 0 {
		w.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownIntervention, id)
	}
	if w.interventions[idx].Status != StatusPending {
		w.mu.Unlock()
		return false, nil
	}
	w.interventions[idx].Status = StatusExecuting
	item := w.interventions[idx]
	entry := w.appendLocked(LogAction, fmt.Sprintf("Executing intervention %s... API request dispatched.", id))
	w.wg.Add(1)
	w.emitAndUnlock(Change{Kind: ChangeStatus, InterventionID: id, Status: StatusExecuting, Log: entry})

	w.logger.Info().Str("intervention", id).Msg("intervention dispatched")
	go w.execute(item)
	return true, nil
}

func (w *Workflow) execute(item Intervention) {
	defer w.wg.Done()
	ctx := w.ctx
	if w.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.execTimeout)
		defer cancel()
	}
	err := w.executor.Execute(ctx, item)

	w.mu.Lock()
	idx := w.indexLocked(item.ID)
	if idx < 0 || w.interventions[idx].Status != StatusExecuting {
		w.mu.Unlock()
		return
	}
	change := Change{Kind: ChangeStatus, InterventionID: item.ID}
	if err != nil {
		w.interventions[idx].Status = StatusFailed
		change.Status = StatusFailed
		change.Log = w.appendLocked(LogAlert, fmt.Sprintf("Intervention %s failed: %v", item.ID, err))
	} else {
		w.interventions[idx].Status = StatusCompleted
		change.Status = StatusCompleted
		change.Log = w.appendLocked(LogSuccess, fmt.Sprintf("Intervention %s applied successfully.", item.ID))
	}
	w.emitAndUnlock(change)

	if err != nil {
		w.logger.Warn().Err(err).Str("intervention", item.ID).Msg("intervention failed")
		return
	}
	w.logger.Info().Str("intervention", item.ID).Msg("intervention completed")
}

// Reason starts a deep reasoning pass over snapshot. It returns false and
// changes nothing while a previous pass is outstanding or after Close.
func (w *Workflow) Reason(snapshot analytics.Snapshot) bool {
	w.mu.Lock()
	if w.closed || w.thinking {
		w.mu.Unlock()
		return false
	}
	w.thinking = true
	entry := w.appendLocked(LogAnalysis, "Running Deep Reasoning for current marketing goal...")
	w.wg.Add(1)
	w.emitAndUnlock(Change{Kind: ChangeReasoning, Log: entry})

	go w.reason(snapshot.Clone())
	return true
}

func (w *Workflow) reason(snapshot analytics.Snapshot) {
	defer w.wg.Done()
	narrative := w.reasoner.AgenticReasoning(w.ctx, snapshot, w.goal)

	w.mu.Lock()
	w.thinking = false
	w.strategy = &narrative
	var entry LogEntry
	if narrative.Degraded {
		entry = w.appendLocked(LogAlert, fmt.Sprintf("Strategic reasoning degraded: %s", narrative.Cause))
	} else {
		entry = w.appendLocked(LogSuccess, "Strategic roadmap generated.")
	}
	w.emitAndUnlock(Change{Kind: ChangeStrategy, Log: entry})
}

// State returns a copy of the workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := State{
		Goal:          w.goal,
		Interventions: append([]Intervention(nil), w.interventions...),
		Logs:          append([]LogEntry(nil), w.logs...),
		Thinking:      w.thinking,
	}
	if w.strategy != nil {
		strategy := *w.strategy
		state.Strategy = &strategy
	}
	return state
}

// Wait blocks until outstanding executions and reasoning settle or ctx is done.
func (w *Workflow) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels outstanding work and waits for it to settle.
func (w *Workflow) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	w.cancel()
	w.wg.Wait()
	return nil
}

func (w *Workflow) indexLocked(id string) int {
	for i := range w.interventions {
		if w.interventions[i].ID == id {
			return i
		}
	}
	return -1
}

func (w *Workflow) appendLocked(kind LogKind, message string) LogEntry {
	entry := LogEntry{
		ID:        uuid.NewString(),
		Timestamp: w.clock(),
		Kind:      kind,
		Message:   message,
	}
	w.logs = append(w.logs, entry)
	return entry
}

// emitAndUnlock releases mu and delivers change while holding emitMu.
func (w *Workflow) emitAndUnlock(change Change) {
	w.emitMu.Lock()
	w.mu.Unlock()
	defer w.emitMu.Unlock()
	w.listener.Change(change)
}
