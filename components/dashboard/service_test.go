package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/goliatone/go-marketinsight/pkg/agent"
	"github.com/goliatone/go-marketinsight/pkg/analytics"
	"github.com/goliatone/go-marketinsight/pkg/insights"
	"github.com/goliatone/go-marketinsight/pkg/settings"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// stubGateway answers every intent immediately and records the arguments.
type stubGateway struct {
	mu        sync.Mutex
	calls     map[string][]string
	snapshots []analytics.Snapshot
	intelErr  error
}

func newStubGateway() *stubGateway {
	return &stubGateway{calls: map[string][]string{}}
}

func (g *stubGateway) record(intent, arg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[intent] = append(g.calls[intent], arg)
}

func (g *stubGateway) callsFor(intent string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls[intent]...)
}

func (g *stubGateway) Insights(_ context.Context, snapshot analytics.Snapshot) insights.Narrative {
	g.record("insights", "")
	return insights.Narrative{Text: "insights text"}
}

func (g *stubGateway) MarketIntel(_ context.Context, channel string) (insights.Report, error) {
	g.record("intel", channel)
	if g.intelErr != nil {
		return insights.Report{}, g.intelErr
	}
	return insights.Report{Summary: "intel for " + channel}, nil
}

func (g *stubGateway) SEOAudit(_ context.Context, domain string) (insights.Report, error) {
	g.record("audit", domain)
	return insights.Report{Summary: "audit for " + domain}, nil
}

func (g *stubGateway) SocialSuggestions(_ context.Context, topic, platforms string) (insights.Narrative, error) {
	g.record("social", topic+"|"+platforms)
	return insights.Narrative{Text: "post ideas"}, nil
}

func (g *stubGateway) AgenticReasoning(_ context.Context, snapshot analytics.Snapshot, goal string) insights.Narrative {
	g.mu.Lock()
	g.snapshots = append(g.snapshots, snapshot)
	g.mu.Unlock()
	g.record("reasoning", goal)
	return insights.Narrative{Text: "strategy"}
}

func (g *stubGateway) AutonomousScan(_ context.Context, channel string) insights.Narrative {
	g.record("scan", channel)
	return insights.Narrative{Text: "scan for " + channel}
}

type testTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (t *testTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	t.mu.Lock()
	t.events = append(t.events, event)
	t.mu.Unlock()
}

func (t *testTelemetry) has(event string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.events {
		if e == event {
			return true
		}
	}
	return false
}

type serviceFixture struct {
	service   *Service
	gateway   *stubGateway
	hook      *recordingHook
	prefs     *InMemoryPreferenceStore
	telemetry *testTelemetry
	store     *settings.MemoryStore
	viewer    ViewerContext
}

func newServiceFixture(t *testing.T, mutate ...func(*Options)) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		gateway:   newStubGateway(),
		hook:      &recordingHook{},
		prefs:     NewInMemoryPreferenceStore(),
		telemetry: &testTelemetry{},
		store:     settings.NewMemoryStore(),
		viewer:    ViewerContext{UserID: "u1"},
	}
	opts := Options{
		Gateway:         f.gateway,
		PreferenceStore: f.prefs,
		RefreshHook:     f.hook,
		Telemetry:       f.telemetry,
		Settings:        settings.NewManager(settings.ManagerOptions{Store: f.store}),
		Agent: AgentOptions{
			Executor: agent.ExecutorFunc(func(context.Context, agent.Intervention) error { return nil }),
		},
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	service, err := NewService(opts)
	require.NoError(t, err)
	f.service = service
	t.Cleanup(func() { _ = service.Close() })
	return f
}

func (f *serviceFixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.service.Wait(ctx, f.viewer))
}

func TestNewServiceRequiresGateway(t *testing.T) {
	_, err := NewService(Options{})
	assert.ErrorIs(t, err, ErrMissingGateway)
}

func TestNewServiceRejectsBrokenLayout(t *testing.T) {
	_, err := NewService(Options{
		Gateway: newStubGateway(),
		Layout:  Layout{ViewOverview: {{ID: "x", DefinitionID: "missing.widget"}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestSessionRequiresViewer(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.Session(context.Background(), ViewerContext{})
	assert.ErrorIs(t, err, ErrMissingViewer)
}

// gatedPreferences blocks shell-state reads for one viewer until released.
type gatedPreferences struct {
	*InMemoryPreferenceStore
	slow    string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPreferences) ShellState(ctx context.Context, viewer ViewerContext) (ShellState, error) {
	if viewer.UserID == g.slow {
		close(g.entered)
		<-g.release
	}
	return g.InMemoryPreferenceStore.ShellState(ctx, viewer)
}

func TestSessionCreationDoesNotBlockOtherViewers(t *testing.T) {
	prefs := &gatedPreferences{
		InMemoryPreferenceStore: NewInMemoryPreferenceStore(),
		slow:                    "slow",
		entered:                 make(chan struct{}),
		release:                 make(chan struct{}),
	}
	f := newServiceFixture(t, func(o *Options) { o.PreferenceStore = prefs })
	ctx := context.Background()

	slowDone := make(chan *Session, 1)
	go func() {
		sess, err := f.service.Session(ctx, ViewerContext{UserID: "slow"})
		assert.NoError(t, err)
		slowDone <- sess
	}()
	<-prefs.entered

	fast := make(chan error, 1)
	go func() {
		_, err := f.service.Session(ctx, f.viewer)
		fast <- err
	}()
	select {
	case err := <-fast:
		require.NoError(t, err)
	case <-time.After(time.Second):
		close(prefs.release)
		t.Fatalf("first request of one viewer blocked another viewer")
	}

	close(prefs.release)
	slow := <-slowDone
	require.NotNil(t, slow)
	again, err := f.service.Session(ctx, ViewerContext{UserID: "slow"})
	require.NoError(t, err)
	assert.Same(t, slow, again)
	f.wait(t)
	require.NoError(t, f.service.Wait(ctx, ViewerContext{UserID: "slow"}))
}

func TestSessionStartsOnOverviewAndLoadsInsights(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	sess, err := f.service.Session(ctx, f.viewer)
	require.NoError(t, err)
	assert.Equal(t, DefaultShellState(), sess.Shell())
	f.wait(t)

	insightsState, err := f.service.PanelState(ctx, f.viewer, PanelInsights)
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, insightsState.Phase)
	assert.True(t, insightsState.Active)
	assert.Equal(t, "insights text", insightsState.Report.(insights.Narrative).Text)

	intelState, err := f.service.PanelState(ctx, f.viewer, PanelMarketIntel)
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, intelState.Phase)
	assert.Len(t, f.gateway.callsFor("insights"), 1)
	assert.Empty(t, f.gateway.callsFor("intel"))

	_, err = f.service.PanelState(ctx, f.viewer, PanelID("weather"))
	assert.ErrorIs(t, err, ErrUnknownPanel)

	again, err := f.service.Session(ctx, f.viewer)
	require.NoError(t, err)
	assert.Same(t, sess, again)
}

func TestSelectViewActivatesViewPanels(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	shell, err := f.service.SelectView(ctx, f.viewer, ViewMarketIntel)
	require.NoError(t, err)
	assert.Equal(t, ViewMarketIntel, shell.View)
	f.wait(t)

	assert.Equal(t, []string{MarketIntelAllChannels}, f.gateway.callsFor("intel"))
	insightsState, err := f.service.PanelState(ctx, f.viewer, PanelInsights)
	require.NoError(t, err)
	assert.False(t, insightsState.Active)

	stored, err := f.prefs.ShellState(ctx, f.viewer)
	require.NoError(t, err)
	assert.Equal(t, ViewMarketIntel, stored.View)
	assert.True(t, f.telemetry.has(EventViewSelected))

	_, err = f.service.SelectView(ctx, f.viewer, ViewMarketIntel)
	require.NoError(t, err)
	f.wait(t)
	assert.Len(t, f.gateway.callsFor("intel"), 1)

	_, err = f.service.SelectView(ctx, f.viewer, View("reports"))
	assert.ErrorIs(t, err, ErrUnknownView)

	_, err = f.service.SelectView(ctx, f.viewer, ViewAIStrategy)
	require.NoError(t, err)
	f.wait(t)
	assert.Equal(t, []string{MarketIntelAllChannels}, f.gateway.callsFor("scan"))
}

func TestSetFiltersClearsHiddenPanelReports(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.SelectView(ctx, f.viewer, ViewMarketIntel)
	require.NoError(t, err)
	f.wait(t)
	_, err = f.service.SelectView(ctx, f.viewer, ViewOverview)
	require.NoError(t, err)
	f.wait(t)

	_, err = f.service.SetFilters(ctx, f.viewer, "Facebook", "")
	require.NoError(t, err)
	f.wait(t)

	intel, err := f.service.PanelState(ctx, f.viewer, PanelMarketIntel)
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, intel.Phase)
	assert.Nil(t, intel.Report)
	assert.Equal(t, IntelParams{Channel: "Facebook"}, intel.Params)
	assert.Equal(t, []string{MarketIntelAllChannels}, f.gateway.callsFor("intel"))
}

func TestSetFiltersRebindsActivePanels(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.SelectView(ctx, f.viewer, ViewMarketIntel)
	require.NoError(t, err)
	f.wait(t)

	shell, err := f.service.SetFilters(ctx, f.viewer, "Facebook", "")
	require.NoError(t, err)
	assert.Equal(t, "Facebook", shell.Channel)
	assert.Equal(t, DefaultDateRange, shell.DateRange)
	f.wait(t)

	assert.Equal(t, []string{MarketIntelAllChannels, "Facebook"}, f.gateway.callsFor("intel"))
	// insights is hidden, so it keeps the params without fetching again
	assert.Len(t, f.gateway.callsFor("insights"), 1)
	insightsState, err := f.service.PanelState(ctx, f.viewer, PanelInsights)
	require.NoError(t, err)
	assert.Equal(t, InsightsParams{Channel: "Facebook", DateRange: DefaultDateRange}, insightsState.Params)
	assert.True(t, f.telemetry.has(EventFilterChanged))

	_, err = f.service.SelectView(ctx, f.viewer, ViewOverview)
	require.NoError(t, err)
	f.wait(t)
	assert.Len(t, f.gateway.callsFor("insights"), 2)

	_, err = f.service.SetFilters(ctx, f.viewer, "MySpace", "")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	_, err = f.service.SetFilters(ctx, f.viewer, "", "Last 5 Years")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestSetPanelParamsRunsAuditAndSocial(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.SelectView(ctx, f.viewer, ViewSEOSuite)
	require.NoError(t, err)
	f.wait(t)
	assert.Empty(t, f.gateway.callsFor("audit"))

	require.NoError(t, f.service.SetPanelParams(ctx, f.viewer, PanelSEOAudit, map[string]any{"domain": "example.com"}))
	f.wait(t)
	require.NoError(t, f.service.SetPanelParams(ctx, f.viewer, PanelSEOAudit, map[string]any{"domain": "example.com"}))
	f.wait(t)
	assert.Equal(t, []string{"example.com", "example.com"}, f.gateway.callsFor("audit"))

	audit, err := f.service.PanelState(ctx, f.viewer, PanelSEOAudit)
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, audit.Phase)
	assert.Equal(t, uint64(2), audit.Generation)
	assert.Equal(t, "audit for example.com", audit.Report.(insights.Report).Summary)

	require.NoError(t, f.service.SetPanelParams(ctx, f.viewer, PanelSocial, map[string]any{"topic": "Spring launch"}))
	f.wait(t)
	assert.Equal(t, []string{"Spring launch|" + insights.DefaultPlatforms}, f.gateway.callsFor("social"))

	err = f.service.SetPanelParams(ctx, f.viewer, PanelSEOAudit, map[string]any{"domain": "https://example.com/path"})
	assert.ErrorIs(t, err, ErrInvalidParams)
	err = f.service.SetPanelParams(ctx, f.viewer, PanelSocial, map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidParams)
	err = f.service.SetPanelParams(ctx, f.viewer, PanelInsights, map[string]any{"channel": "Facebook"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestRefreshPanelAndProviderErrors(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.intelErr = &insights.ProviderFailure{Kind: insights.KindTransport, Err: errors.New("dial tcp")}
	ctx := context.Background()

	require.NoError(t, f.service.RefreshPanel(ctx, f.viewer, PanelMarketIntel))
	f.wait(t)
	intel, err := f.service.PanelState(ctx, f.viewer, PanelMarketIntel)
	require.NoError(t, err)
	assert.Equal(t, PhaseError, intel.Phase)
	assert.NotEmpty(t, intel.ErrorMessage)

	assert.ErrorIs(t, f.service.RefreshPanel(ctx, f.viewer, PanelID("nope")), ErrUnknownPanel)
}

func TestRefreshHookReceivesPanelEvents(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.Session(context.Background(), f.viewer)
	require.NoError(t, err)
	f.wait(t)

	assert.Equal(t, []Phase{PhaseLoading, PhaseReady}, f.hook.phases())
	f.hook.mu.Lock()
	defer f.hook.mu.Unlock()
	for _, e := range f.hook.panels {
		assert.Equal(t, "u1", e.Viewer)
		assert.Equal(t, PanelInsights, e.Panel)
	}
}

func TestAgentApproveAndReason(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.SetFilters(ctx, f.viewer, "Facebook", "")
	require.NoError(t, err)

	started, err := f.service.ApproveIntervention(ctx, f.viewer, "i1")
	require.NoError(t, err)
	assert.True(t, started)
	f.wait(t)

	state, err := f.service.AgentState(ctx, f.viewer)
	require.NoError(t, err)
	item, ok := state.Intervention("i1")
	require.True(t, ok)
	assert.Equal(t, agent.StatusCompleted, item.Status)

	started, err = f.service.ApproveIntervention(ctx, f.viewer, "i1")
	require.NoError(t, err)
	assert.False(t, started)

	started, err = f.service.RunReasoning(ctx, f.viewer)
	require.NoError(t, err)
	assert.True(t, started)
	f.wait(t)

	state, err = f.service.AgentState(ctx, f.viewer)
	require.NoError(t, err)
	require.NotNil(t, state.Strategy)
	assert.Equal(t, "strategy", state.Strategy.Text)
	assert.Equal(t, []string{agent.DefaultGoal}, f.gateway.callsFor("reasoning"))

	f.gateway.mu.Lock()
	snapshot := f.gateway.snapshots[0]
	f.gateway.mu.Unlock()
	assert.Len(t, snapshot.ChannelPerformance, 4)

	f.hook.mu.Lock()
	agentEvents := len(f.hook.agents)
	f.hook.mu.Unlock()
	assert.NotZero(t, agentEvents)
	assert.True(t, f.telemetry.has(EventAgentApprove))
	assert.True(t, f.telemetry.has(EventAgentReason))
}

func TestSettingsDraftEditAndSave(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	draft, report, err := f.service.Settings(ctx, f.viewer)
	require.NoError(t, err)
	require.Len(t, draft.Connections, len(analytics.PlatformChannels()))
	assert.ElementsMatch(t, []string{settings.RecordConnections, settings.RecordCompetitors}, report.Missing)

	id := draft.Connections[0].ID
	updated, err := f.service.TestConnection(ctx, f.viewer, id)
	require.NoError(t, err)
	assert.Equal(t, settings.StatusConnected, updated.Connections[0].Status)
	require.NotNil(t, updated.Connections[0].LastSynced)

	_, err = f.service.TestConnection(ctx, f.viewer, "missing")
	assert.ErrorIs(t, err, settings.ErrNotFound)

	edited, err := f.service.EditSettings(ctx, f.viewer, func(cur settings.Settings) (settings.Settings, error) {
		next, _ := settings.AddCompetitor(cur)
		return next, nil
	})
	require.NoError(t, err)
	require.Len(t, edited.Competitors, 1)

	// nothing is persisted until save
	stored, _, err := settings.NewManager(settings.ManagerOptions{Store: f.store}).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored.Competitors)

	require.NoError(t, f.service.SaveSettings(ctx, f.viewer))
	stored, report, err = settings.NewManager(settings.ManagerOptions{Store: f.store}).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
	assert.Len(t, stored.Competitors, 1)
	assert.Equal(t, settings.StatusConnected, stored.Connections[0].Status)
	assert.True(t, f.telemetry.has(EventSettingsSaved))
}

func TestViewPayload(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	payload, err := f.service.ViewPayload(ctx, f.viewer)
	require.NoError(t, err)
	assert.Equal(t, "overview", payload.Title)
	assert.Equal(t, "All Channels • Last 30 Days", payload.Subtitle)
	assert.Len(t, payload.Navigation, 8)
	assert.Equal(t, analytics.Channels(), payload.Channels)
	require.Len(t, payload.Widgets, 5)
	for _, w := range payload.Widgets {
		assert.Emptyf(t, w.Error, "widget %s", w.ID)
		assert.NotEmptyf(t, w.Data, "widget %s", w.ID)
	}
	assert.Contains(t, payload.Panels, PanelInsights)
	assert.Nil(t, payload.Agent)
	assert.Nil(t, payload.Settings)

	_, err = f.service.SelectView(ctx, f.viewer, ViewAIStrategy)
	require.NoError(t, err)
	payload, err = f.service.ViewPayload(ctx, f.viewer)
	require.NoError(t, err)
	require.NotNil(t, payload.Agent)
	assert.Len(t, payload.Agent.Interventions, 2)
	assert.Empty(t, payload.Widgets)

	_, err = f.service.SelectView(ctx, f.viewer, ViewSettings)
	require.NoError(t, err)
	payload, err = f.service.ViewPayload(ctx, f.viewer)
	require.NoError(t, err)
	require.NotNil(t, payload.Settings)
	require.NotNil(t, payload.LoadReport)
	f.wait(t)
}

func TestViewPayloadReportsProviderErrors(t *testing.T) {
	f := newServiceFixture(t, func(opts *Options) {
		reg := NewRegistry()
		require.NoError(t, reg.RegisterDefinition(WidgetDefinition{Code: "broken.widget", Name: "Broken"}))
		require.NoError(t, reg.RegisterProvider("broken.widget", ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
			return nil, errors.New("boom")
		})))
		opts.Providers = reg
		opts.Layout = Layout{ViewWorkflows: {{ID: "w1", DefinitionID: "broken.widget", View: ViewWorkflows}}}
	})
	ctx := context.Background()
	_, err := f.service.SelectView(ctx, f.viewer, ViewWorkflows)
	require.NoError(t, err)

	payload, err := f.service.ViewPayload(ctx, f.viewer)
	require.NoError(t, err)
	require.Len(t, payload.Widgets, 1)
	assert.Equal(t, "boom", payload.Widgets[0].Error)
	assert.True(t, f.telemetry.has(EventWidgetError))
	f.wait(t)
}

func TestServiceRestoresStoredShell(t *testing.T) {
	prefs := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "u2"}
	require.NoError(t, prefs.SaveShellState(context.Background(), viewer, ShellState{
		View: ViewCompetitors, Channel: "LinkedIn", DateRange: DefaultDateRange,
	}))
	f := newServiceFixture(t, func(opts *Options) { opts.PreferenceStore = prefs })

	sess, err := f.service.Session(context.Background(), viewer)
	require.NoError(t, err)
	assert.Equal(t, ViewCompetitors, sess.Shell().View)
	assert.Equal(t, "LinkedIn", sess.Shell().Channel)
}

func TestServiceClose(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	_, err := f.service.Session(ctx, f.viewer)
	require.NoError(t, err)

	require.NoError(t, f.service.Close())
	require.NoError(t, f.service.Close())
	_, err = f.service.Session(ctx, f.viewer)
	assert.ErrorIs(t, err, ErrClosed)
}
