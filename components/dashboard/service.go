package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-marketinsight/pkg/agent"
	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/settings"
)

// ErrMissingGateway is returned by NewService when no AI gateway is configured.
var ErrMissingGateway = errors.New("dashboard: gateway is required")

// AgentOptions configures the intervention workflow created for each session.
type AgentOptions struct {
	Executor    agent.Executor
	Goal        string
	ExecTimeout time.Duration
}

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Gateway         Gateway
	Snapshots       analytics.SnapshotRepository
	Settings        *settings.Manager
	Providers       ProviderRegistry
	Layout          Layout
	PreferenceStore PreferenceStore
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Logger          zerolog.Logger
	// PanelTimeout bounds every panel fetch. Zero leaves fetches unbounded.
	PanelTimeout time.Duration
	Agent        AgentOptions
	Clock        func() time.Time
}

// Service owns one Session per viewer and serves the dashboard operations.
type Service struct {
	opts   Options
	params *ParamsValidator

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) (*Service, error) {
	if opts.Gateway == nil {
		return nil, ErrMissingGateway
	}
	if opts.Snapshots == nil {
		opts.Snapshots = analytics.NewSnapshotRepository(analytics.NewMockClient(analytics.DefaultFixtures()))
	}
	if opts.Settings == nil {
		opts.Settings = settings.NewManager(settings.ManagerOptions{Logger: opts.Logger})
	}
	if opts.Providers == nil {
		reg := NewRegistry()
		if err := reg.RegisterMarketingProviders(opts.Snapshots); err != nil {
			return nil, err
		}
		opts.Providers = reg
	}
	if opts.Layout == nil {
		opts.Layout = DefaultLayout()
	}
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = NewInMemoryPreferenceStore()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.Logger = opts.Logger.With().Str("component", "dashboard").Logger()
	if err := opts.Layout.Check(opts.Providers, opts.ConfigValidator); err != nil {
		return nil, err
	}
	return &Service{
		opts:     opts,
		params:   NewParamsValidator(),
		sessions: map[string]*Session{},
	}, nil
}

// Session returns the viewer's session, creating it on first use. A new
// session restores the stored shell state and mounts the panels of its view.
// Stores are read outside the service lock so one viewer's first request
// never stalls the others.
func (s *Service) Session(ctx context.Context, viewer ViewerContext) (*Session, error) {
	if viewer.UserID == "" {
		return nil, ErrMissingViewer
	}
	if sess, err := s.lookup(viewer.UserID); sess != nil || err != nil {
		return sess, err
	}

	sess, err := s.newSession(ctx, viewer)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = sess.close()
		return nil, ErrClosed
	}
	if existing, ok := s.sessions[viewer.UserID]; ok {
		_ = sess.close()
		return existing, nil
	}
	sess.mu.Lock()
	sess.mountLocked()
	sess.mu.Unlock()
	s.sessions[viewer.UserID] = sess
	return sess, nil
}

func (s *Service) lookup(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.sessions[id], nil
}

// newSession builds an unmounted session. Nothing it creates runs until the
// session is mounted, so a session that loses the insert race is just closed.
func (s *Service) newSession(ctx context.Context, viewer ViewerContext) (*Session, error) {
	shell, err := s.opts.PreferenceStore.ShellState(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load shell state: %w", err)
	}
	if err := shell.Validate(); err != nil {
		s.opts.Logger.Warn().Err(err).Str("viewer", viewer.UserID).Msg("stored shell state invalid, using defaults")
		shell = DefaultShellState()
	}
	sess := &Session{viewer: viewer, shell: shell}
	sess.panels = newPanelSet(panelSetOptions{
		Viewer:    viewer.UserID,
		Shell:     shell,
		Gateway:   s.opts.Gateway,
		Snapshots: s.opts.Snapshots,
		Timeout:   s.opts.PanelTimeout,
		Hook:      s.opts.RefreshHook,
		Telemetry: s.opts.Telemetry,
		Logger:    s.opts.Logger,
	})
	hook := s.opts.RefreshHook
	logger := s.opts.Logger
	workflow, err := agent.New(agent.Options{
		Reasoner:    s.opts.Gateway,
		Executor:    s.opts.Agent.Executor,
		Goal:        s.opts.Agent.Goal,
		ExecTimeout: s.opts.Agent.ExecTimeout,
		Clock:       s.opts.Clock,
		Logger:      s.opts.Logger,
		Listener: agent.ListenerFunc(func(change agent.Change) {
			if err := hook.AgentChanged(context.Background(), AgentEvent{Viewer: viewer.UserID, Change: change}); err != nil {
				logger.Warn().Err(err).Msg("refresh hook failed")
			}
		}),
	})
	if err != nil {
		sess.panels.close()
		return nil, err
	}
	sess.workflow = workflow

	if shell.View == ViewSettings {
		if _, _, err := s.ensureDraft(ctx, sess); err != nil {
			s.opts.Logger.Warn().Err(err).Msg("settings draft unavailable")
		}
	}
	return sess, nil
}

// SelectView switches the viewer to view. Selecting the current view is a no-op.
func (s *Service) SelectView(ctx context.Context, viewer ViewerContext, view View) (ShellState, error) {
	if _, ok := view.Info(); !ok {
		return ShellState{}, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return ShellState{}, err
	}
	sess.mu.Lock()
	if sess.shell.View == view {
		shell := sess.shell
		sess.mu.Unlock()
		return shell, nil
	}
	sess.switchViewLocked(view)
	shell := sess.shell
	sess.mu.Unlock()

	if view == ViewSettings {
		if _, _, err := s.ensureDraft(ctx, sess); err != nil {
			return shell, err
		}
	}
	s.opts.Telemetry.Record(ctx, EventViewSelected, map[string]any{"viewer": viewer.UserID, "view": string(view)})
	return shell, s.saveShell(ctx, viewer, shell)
}

// SetFilters updates the channel and date range. Empty values keep the
// current selection. Filter-driven panels are rebound to the new values.
func (s *Service) SetFilters(ctx context.Context, viewer ViewerContext, channel, dateRange string) (ShellState, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return ShellState{}, err
	}
	sess.mu.Lock()
	next := sess.shell
	if channel != "" {
		next.Channel = channel
	}
	if dateRange != "" {
		next.DateRange = dateRange
	}
	if err := next.Validate(); err != nil {
		sess.mu.Unlock()
		return ShellState{}, err
	}
	changed := next != sess.shell
	sess.shell = next
	sess.panels.bind(next)
	sess.mu.Unlock()

	if !changed {
		return next, nil
	}
	s.opts.Telemetry.Record(ctx, EventFilterChanged, map[string]any{
		"viewer":     viewer.UserID,
		"channel":    next.Channel,
		"date_range": next.DateRange,
	})
	return next, s.saveShell(ctx, viewer, next)
}

// RefreshPanel restarts a panel fetch with its bound params.
func (s *Service) RefreshPanel(ctx context.Context, viewer ViewerContext, id PanelID) error {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return err
	}
	p, ok := sess.panels.get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPanel, id)
	}
	p.Refresh()
	return nil
}

// SetPanelParams validates params against the panel schema and rebinds the
// panel. The SEO audit and social panels run immediately.
func (s *Service) SetPanelParams(ctx context.Context, viewer ViewerContext, id PanelID, params map[string]any) error {
	if err := s.params.Validate(id, params); err != nil {
		return err
	}
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return err
	}
	return sess.panels.setParams(id, params)
}

// PanelState returns one panel's state.
func (s *Service) PanelState(ctx context.Context, viewer ViewerContext, id PanelID) (PanelSnapshot, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return PanelSnapshot{}, err
	}
	snap, ok := sess.Panel(id)
	if !ok {
		return PanelSnapshot{}, fmt.Errorf("%w: %q", ErrUnknownPanel, id)
	}
	return snap, nil
}

// ApproveIntervention approves a pending intervention in the viewer's workflow.
func (s *Service) ApproveIntervention(ctx context.Context, viewer ViewerContext, id string) (bool, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return false, err
	}
	started, err := sess.workflow.Approve(id)
	if err != nil {
		return false, err
	}
	s.opts.Telemetry.Record(ctx, EventAgentApprove, map[string]any{
		"viewer":       viewer.UserID,
		"intervention": id,
		"started":      started,
	})
	return started, nil
}

// RunReasoning starts deep reasoning over the full, unfiltered snapshot.
// It reports false while a previous run is outstanding.
func (s *Service) RunReasoning(ctx context.Context, viewer ViewerContext) (bool, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return false, err
	}
	shell := sess.Shell()
	snapshot, err := s.opts.Snapshots.Snapshot(ctx, analytics.SnapshotQuery{Channel: analytics.AllChannels, DateRange: shell.DateRange})
	if err != nil {
		return false, fmt.Errorf("dashboard: load snapshot: %w", err)
	}
	started := sess.workflow.Reason(snapshot)
	s.opts.Telemetry.Record(ctx, EventAgentReason, map[string]any{"viewer": viewer.UserID, "started": started})
	return started, nil
}

// AgentState returns the viewer's workflow state.
func (s *Service) AgentState(ctx context.Context, viewer ViewerContext) (agent.State, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return agent.State{}, err
	}
	return sess.Agent(), nil
}

// Wait blocks until the viewer's panels and workflow are idle.
func (s *Service) Wait(ctx context.Context, viewer ViewerContext) error {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return err
	}
	return sess.Wait(ctx)
}

// Settings returns the viewer's settings draft, loading it on first use.
func (s *Service) Settings(ctx context.Context, viewer ViewerContext) (settings.Settings, settings.LoadReport, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return settings.Settings{}, settings.LoadReport{}, err
	}
	return s.ensureDraft(ctx, sess)
}

// ReplaceSettings validates next and makes it the viewer's draft. Nothing is persisted.
func (s *Service) ReplaceSettings(ctx context.Context, viewer ViewerContext, next settings.Settings) (settings.Settings, error) {
	if err := settings.Validate(next); err != nil {
		return settings.Settings{}, err
	}
	return s.EditSettings(ctx, viewer, func(settings.Settings) (settings.Settings, error) {
		return next, nil
	})
}

// EditSettings applies edit to the viewer's draft. Nothing is persisted.
func (s *Service) EditSettings(ctx context.Context, viewer ViewerContext, edit func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return settings.Settings{}, err
	}
	if _, _, err := s.ensureDraft(ctx, sess); err != nil {
		return settings.Settings{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	next, err := edit(sess.draft.Clone())
	if err != nil {
		return settings.Settings{}, err
	}
	sess.draft = &next
	return next.Clone(), nil
}

// TestConnection marks a draft connection as connected and synced now.
func (s *Service) TestConnection(ctx context.Context, viewer ViewerContext, id string) (settings.Settings, error) {
	now := s.opts.Clock()
	return s.EditSettings(ctx, viewer, func(cur settings.Settings) (settings.Settings, error) {
		return settings.TestConnection(cur, id, now)
	})
}

// SaveSettings persists the viewer's draft.
func (s *Service) SaveSettings(ctx context.Context, viewer ViewerContext) error {
	draft, _, err := s.Settings(ctx, viewer)
	if err != nil {
		return err
	}
	if err := s.opts.Settings.Save(ctx, draft); err != nil {
		return err
	}
	s.opts.Telemetry.Record(ctx, EventSettingsSaved, map[string]any{
		"viewer":      viewer.UserID,
		"connections": len(draft.Connections),
		"competitors": len(draft.Competitors),
	})
	return nil
}

// ViewPayload is the JSON document describing what a viewer currently sees.
type ViewPayload struct {
	Shell      ShellState                `json:"shell"`
	Title      string                    `json:"title"`
	Subtitle   string                    `json:"subtitle"`
	Navigation []ViewInfo                `json:"navigation"`
	Channels   []string                  `json:"channels"`
	DateRanges []string                  `json:"date_ranges"`
	Widgets    []WidgetInstance          `json:"widgets"`
	Panels     map[PanelID]PanelSnapshot `json:"panels"`
	Agent      *agent.State              `json:"agent,omitempty"`
	Settings   *settings.Settings        `json:"settings,omitempty"`
	LoadReport *settings.LoadReport      `json:"load_report,omitempty"`
}

// ViewPayload resolves the current view with widget data and panel states.
func (s *Service) ViewPayload(ctx context.Context, viewer ViewerContext) (ViewPayload, error) {
	sess, err := s.Session(ctx, viewer)
	if err != nil {
		return ViewPayload{}, err
	}
	shell := sess.Shell()
	payload := ViewPayload{
		Shell:      shell,
		Title:      shell.View.Title(),
		Subtitle:   shell.Subtitle(),
		Navigation: Views(),
		Channels:   Channels(),
		DateRanges: DateRanges(),
		Widgets:    s.attachProviderData(ctx, viewer, shell, s.opts.Layout.Widgets(shell.View)),
		Panels:     sess.Panels(),
	}
	switch shell.View {
	case ViewAIStrategy:
		state := sess.Agent()
		payload.Agent = &state
	case ViewSettings:
		draft, report, err := s.ensureDraft(ctx, sess)
		if err != nil {
			return ViewPayload{}, err
		}
		payload.Settings = &draft
		payload.LoadReport = &report
	}
	return payload, nil
}

// Close stops every session. In-flight panel fetches and interventions are cancelled.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sessions := s.sessions
	s.sessions = map[string]*Session{}
	s.mu.Unlock()

	var errs []error
	for _, sess := range sessions {
		errs = append(errs, sess.close())
	}
	return errors.Join(errs...)
}

func (s *Service) ensureDraft(ctx context.Context, sess *Session) (settings.Settings, settings.LoadReport, error) {
	sess.mu.Lock()
	if sess.draft != nil {
		draft, report := sess.draft.Clone(), sess.report
		sess.mu.Unlock()
		return draft, report, nil
	}
	sess.mu.Unlock()

	loaded, report, err := s.opts.Settings.Load(ctx)
	if err != nil {
		return settings.Settings{}, settings.LoadReport{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.draft == nil {
		sess.draft = &loaded
		sess.report = report
	}
	return sess.draft.Clone(), sess.report, nil
}

func (s *Service) saveShell(ctx context.Context, viewer ViewerContext, shell ShellState) error {
	if err := s.opts.PreferenceStore.SaveShellState(ctx, viewer, shell); err != nil {
		return fmt.Errorf("dashboard: save shell state: %w", err)
	}
	return nil
}

func (s *Service) attachProviderData(ctx context.Context, viewer ViewerContext, shell ShellState, widgets []WidgetInstance) []WidgetInstance {
	for i, inst := range widgets {
		provider, ok := s.opts.Providers.Provider(inst.DefinitionID)
		if !ok || provider == nil {
			widgets[i].Error = "no provider registered"
			continue
		}
		data, err := provider.Fetch(ctx, WidgetContext{
			Instance: inst,
			Viewer:   viewer,
			Shell:    shell,
		})
		if err != nil {
			s.opts.Logger.Warn().Err(err).Str("widget", inst.ID).Msg("widget provider failed")
			s.opts.Telemetry.Record(ctx, EventWidgetError, map[string]any{
				"definition_id": inst.DefinitionID,
				"error":         err.Error(),
			})
			widgets[i].Error = err.Error()
			continue
		}
		widgets[i].Data = data
	}
	return widgets
}
