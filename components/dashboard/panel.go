package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-marketinsight/pkg/insights"
)

// Phase is the fetch lifecycle of a panel.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// PanelID names one of the AI-backed panels in a session.
type PanelID string

// Fetcher resolves a report for the given params.
type Fetcher[P comparable, R any] func(ctx context.Context, params P) (R, error)

// PanelOptions configures a Panel.
type PanelOptions[P comparable, R any] struct {
	ID     PanelID
	Viewer string
	Fetch  Fetcher[P, R]
	Params P
	// Timeout bounds each fetch. Zero leaves it unbounded.
	Timeout time.Duration
	// Message is shown for failures that carry no better description.
	Message string
	// ErrorMessage overrides how failures become banner text.
	ErrorMessage func(error) string
	Hook         RefreshHook
	Telemetry    Telemetry
	Logger       zerolog.Logger
}

// PanelState is a copy of a panel's visible state. Report is set only when ready.
type PanelState[P comparable, R any] struct {
	Panel        PanelID `json:"panel"`
	Phase        Phase   `json:"phase"`
	Params       P       `json:"params"`
	Report       *R      `json:"report,omitempty"`
	ErrorMessage string  `json:"error,omitempty"`
	Generation   uint64  `json:"generation"`
	Active       bool    `json:"active"`
}

// Panel fetches a report whenever it is activated, refreshed or rebound to new
// params. Only the result of the latest cycle is ever applied.
type Panel[P comparable, R any] struct {
	id           PanelID
	viewer       string
	fetch        Fetcher[P, R]
	timeout      time.Duration
	errorMessage func(error) string
	hook         RefreshHook
	telemetry    Telemetry
	logger       zerolog.Logger

	mu         sync.Mutex
	active     bool
	params     P
	phase      Phase
	report     *R
	errText    string
	generation uint64
	settled    chan struct{}
	closed     bool

	emitMu sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPanel builds an idle, inactive panel.
func NewPanel[P comparable, R any](opts PanelOptions[P, R]) *Panel[P, R] {
	if opts.ErrorMessage == nil {
		opts.ErrorMessage = DefaultErrorMessage(opts.Message)
	}
	if opts.Hook == nil {
		opts.Hook = noopRefreshHook{}
	}
	settled := make(chan struct{})
	close(settled)
	ctx, cancel := context.WithCancel(context.Background())
	return &Panel[P, R]{
		id:           opts.ID,
		viewer:       opts.Viewer,
		fetch:        opts.Fetch,
		timeout:      opts.Timeout,
		errorMessage: opts.ErrorMessage,
		hook:         opts.Hook,
		telemetry:    normalizeTelemetry(opts.Telemetry),
		logger:       opts.Logger.With().Str("panel", string(opts.ID)).Str("viewer", opts.Viewer).Logger(),
		params:       opts.Params,
		phase:        PhaseIdle,
		settled:      settled,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// TimedOutMessage is shown when a fetch exceeds the panel timeout.
const TimedOutMessage = "The request timed out. Refresh to try again."

// DefaultErrorMessage prefers the provider's own description and falls back to fallback.
func DefaultErrorMessage(fallback string) func(error) string {
	return func(err error) string {
		if errors.Is(err, context.DeadlineExceeded) {
			return TimedOutMessage
		}
		var failure *insights.ProviderFailure
		if errors.As(err, &failure) {
			return failure.UserMessage()
		}
		if fallback != "" {
			return fallback
		}
		return err.Error()
	}
}

// ID returns the panel id.
func (p *Panel[P, R]) ID() PanelID { return p.id }

// Activate starts a cycle with the bound params when the panel was inactive.
func (p *Panel[P, R]) Activate() {
	p.mu.Lock()
	if p.closed || p.active {
		p.mu.Unlock()
		return
	}
	p.active = true
	p.startLocked("activate")
}

// Deactivate marks the panel hidden. An in-flight result still applies.
func (p *Panel[P, R]) Deactivate() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

// SetParams rebinds the panel. An active panel refetches when params changed.
// An inactive panel drops its report and any in-flight cycle and waits idle
// for the next activation. It reports whether a cycle started.
func (p *Panel[P, R]) SetParams(params P) bool {
	p.mu.Lock()
	if p.closed || params == p.params {
		p.mu.Unlock()
		return false
	}
	p.params = params
	if p.active {
		p.startLocked("params")
		return true
	}

	prev := p.phase
	p.generation++
	p.phase = PhaseIdle
	p.report = nil
	p.errText = ""
	if prev == PhaseLoading {
		close(p.settled)
	}
	if prev == PhaseIdle {
		p.mu.Unlock()
		return false
	}
	p.emitAndUnlock(PanelEvent{Panel: p.id, Viewer: p.viewer, Phase: PhaseIdle, Generation: p.generation, Reason: "params"})
	return false
}

// Refresh activates the panel and starts a cycle unconditionally.
func (p *Panel[P, R]) Refresh() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.active = true
	p.startLocked("refresh")
}

// State returns a copy of the visible state.
func (p *Panel[P, R]) State() PanelState[P, R] {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := PanelState[P, R]{
		Panel:        p.id,
		Phase:        p.phase,
		Params:       p.params,
		ErrorMessage: p.errText,
		Generation:   p.generation,
		Active:       p.active,
	}
	if p.report != nil {
		report := *p.report
		state.Report = &report
	}
	return state
}

// Snapshot returns the state with params and report as untyped values.
func (p *Panel[P, R]) Snapshot() PanelSnapshot {
	state := p.State()
	snap := PanelSnapshot{
		Panel:        state.Panel,
		Phase:        state.Phase,
		Params:       state.Params,
		ErrorMessage: state.ErrorMessage,
		Generation:   state.Generation,
		Active:       state.Active,
	}
	if state.Report != nil {
		snap.Report = *state.Report
	}
	return snap
}

// Wait blocks until no cycle is loading or ctx is done.
func (p *Panel[P, R]) Wait(ctx context.Context) error {
	p.mu.Lock()
	settled := p.settled
	p.mu.Unlock()
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels in-flight fetches and waits for them to return.
func (p *Panel[P, R]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.active = false
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	if p.phase == PhaseLoading {
		p.phase = PhaseIdle
		close(p.settled)
	}
	p.mu.Unlock()
}

// startLocked begins a cycle. It must be called with mu held and releases it.
func (p *Panel[P, R]) startLocked(reason string) {
	if p.phase != PhaseLoading {
		p.settled = make(chan struct{})
	}
	p.generation++
	gen := p.generation
	params := p.params
	p.phase = PhaseLoading
	p.report = nil
	p.errText = ""
	p.wg.Add(1)
	p.emitAndUnlock(PanelEvent{Panel: p.id, Viewer: p.viewer, Phase: PhaseLoading, Generation: gen, Reason: reason})

	go p.run(gen, params)
}

func (p *Panel[P, R]) run(gen uint64, params P) {
	defer p.wg.Done()
	ctx := p.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()
	report, err := p.fetch(ctx, params)
	elapsed := time.Since(start)

	p.mu.Lock()
	if p.closed || gen != p.generation {
		p.mu.Unlock()
		p.logger.Debug().Uint64("generation", gen).Msg("dropping stale panel result")
		p.telemetry.Record(context.Background(), EventPanelStale, map[string]any{
			"panel":      string(p.id),
			"generation": gen,
		})
		return
	}
	event := PanelEvent{Panel: p.id, Viewer: p.viewer, Generation: gen}
	if err != nil {
		p.phase = PhaseError
		p.errText = p.errorMessage(err)
		event.Phase = PhaseError
		event.Reason = p.errText
	} else {
		p.phase = PhaseReady
		p.report = &report
		event.Phase = PhaseReady
		event.Reason = "resolved"
	}
	close(p.settled)
	p.emitAndUnlock(event)

	if err != nil {
		p.logger.Warn().Err(err).Dur("elapsed", elapsed).Msg("panel fetch failed")
	}
	p.telemetry.Record(context.Background(), EventPanelSettled, map[string]any{
		"panel":       string(p.id),
		"phase":       string(event.Phase),
		"duration_ms": elapsed.Milliseconds(),
	})
}

// emitAndUnlock releases mu and delivers event to the hook in transition order.
func (p *Panel[P, R]) emitAndUnlock(event PanelEvent) {
	p.emitMu.Lock()
	p.mu.Unlock()
	defer p.emitMu.Unlock()
	event.At = time.Now()
	if err := p.hook.PanelUpdated(p.ctx, event); err != nil {
		p.logger.Warn().Err(err).Msg("refresh hook failed")
	}
}

// PanelSnapshot is the untyped view of a panel state used by payloads and transports.
type PanelSnapshot struct {
	Panel        PanelID `json:"panel"`
	Phase        Phase   `json:"phase"`
	Params       any     `json:"params"`
	Report       any     `json:"report,omitempty"`
	ErrorMessage string  `json:"error,omitempty"`
	Generation   uint64  `json:"generation"`
	Active       bool    `json:"active"`
}
