package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-marketinsight/pkg/insights"
)

type recordingHook struct {
	mu     sync.Mutex
	panels []PanelEvent
	agents []AgentEvent
}

func (h *recordingHook) PanelUpdated(_ context.Context, e PanelEvent) error {
	h.mu.Lock()
	h.panels = append(h.panels, e)
	h.mu.Unlock()
	return nil
}

func (h *recordingHook) AgentChanged(_ context.Context, e AgentEvent) error {
	h.mu.Lock()
	h.agents = append(h.agents, e)
	h.mu.Unlock()
	return nil
}

func (h *recordingHook) phases() []Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Phase, len(h.panels))
	for i, e := range h.panels {
		out[i] = e.Phase
	}
	return out
}

// gatedFetcher blocks each call until its params are released.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan error
	calls []string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: map[string]chan error{}}
}

func (g *gatedFetcher) gate(key string) chan error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[key]
	if !ok {
		ch = make(chan error, 1)
		g.gates[key] = ch
	}
	return ch
}

func (g *gatedFetcher) fetch(ctx context.Context, key string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, key)
	g.mu.Unlock()
	select {
	case err := <-g.gate(key):
		if err != nil {
			return "", err
		}
		return "report:" + key, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedFetcher) release(key string, err error) {
	g.gate(key) <- err
}

func (g *gatedFetcher) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func newTestPanel(t *testing.T, fetch Fetcher[string, string], hook RefreshHook) *Panel[string, string] {
	t.Helper()
	p := NewPanel(PanelOptions[string, string]{
		ID:      "intel",
		Viewer:  "u1",
		Fetch:   fetch,
		Params:  "Google",
		Message: "Failed to fetch live market data. Please check connection or API key.",
		Hook:    hook,
	})
	t.Cleanup(p.Close)
	return p
}

func waitPanel[P comparable, R any](t *testing.T, p *Panel[P, R]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
}

func TestPanelStartsIdle(t *testing.T) {
	p := newTestPanel(t, func(context.Context, string) (string, error) { return "", nil }, nil)
	state := p.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, uint64(0), state.Generation)
	assert.Nil(t, state.Report)
	assert.False(t, state.Active)
}

func TestPanelActivateFetchesOnce(t *testing.T) {
	g := newGatedFetcher()
	hook := &recordingHook{}
	p := newTestPanel(t, g.fetch, hook)

	p.Activate()
	p.Activate()
	assert.Equal(t, PhaseLoading, p.State().Phase)

	g.release("Google", nil)
	waitPanel(t, p)

	state := p.State()
	assert.Equal(t, PhaseReady, state.Phase)
	require.NotNil(t, state.Report)
	assert.Equal(t, "report:Google", *state.Report)
	assert.Equal(t, 1, g.callCount())
	assert.Equal(t, []Phase{PhaseLoading, PhaseReady}, hook.phases())
}

func TestPanelDropsStaleResults(t *testing.T) {
	g := newGatedFetcher()
	p := newTestPanel(t, g.fetch, nil)

	p.Activate()
	require.True(t, p.SetParams("Facebook"))
	assert.Equal(t, uint64(2), p.State().Generation)

	// the newer call resolves first, then the stale one
	g.release("Facebook", nil)
	require.Eventually(t, func() bool { return p.State().Phase == PhaseReady }, time.Second, 5*time.Millisecond)
	g.release("Google", nil)

	p.Close()
	state := p.State()
	assert.Equal(t, PhaseReady, state.Phase)
	assert.Equal(t, "report:Facebook", *state.Report)
	assert.Equal(t, "Facebook", state.Params)
}

func TestPanelStaleResolutionWhileLatestLoading(t *testing.T) {
	g := newGatedFetcher()
	p := newTestPanel(t, g.fetch, nil)

	p.Activate()
	p.SetParams("TikTok")
	g.release("Google", nil)

	// the first cycle settles but the panel must stay loading for TikTok
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, PhaseLoading, p.State().Phase)

	g.release("TikTok", nil)
	waitPanel(t, p)
	assert.Equal(t, "report:TikTok", *p.State().Report)
}

func TestPanelSetParamsSameValueIsNoop(t *testing.T) {
	g := newGatedFetcher()
	p := newTestPanel(t, g.fetch, nil)
	p.Activate()
	assert.False(t, p.SetParams("Google"))
	g.release("Google", nil)
	waitPanel(t, p)
	assert.Equal(t, 1, g.callCount())
}

func TestPanelSetParamsWhileInactiveDoesNotFetch(t *testing.T) {
	g := newGatedFetcher()
	p := newTestPanel(t, g.fetch, nil)
	assert.False(t, p.SetParams("LinkedIn"))
	assert.Equal(t, 0, g.callCount())
	assert.Equal(t, PhaseIdle, p.State().Phase)

	p.Activate()
	g.release("LinkedIn", nil)
	waitPanel(t, p)
	assert.Equal(t, "report:LinkedIn", *p.State().Report)

	p.Deactivate()
	assert.False(t, p.SetParams("TikTok"))
	state := p.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Nil(t, state.Report)
	assert.Equal(t, "TikTok", state.Params)
}

func TestPanelSetParamsWhileInactiveDropsInFlightResult(t *testing.T) {
	g := newGatedFetcher()
	hook := &recordingHook{}
	p := newTestPanel(t, g.fetch, hook)

	p.Activate()
	p.Deactivate()
	assert.False(t, p.SetParams("Facebook"))
	waitPanel(t, p)
	state := p.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, uint64(2), state.Generation)

	g.release("Google", nil)
	p.wg.Wait()

	state = p.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Nil(t, state.Report)
	assert.Equal(t, "Facebook", state.Params)
	assert.Equal(t, []Phase{PhaseLoading, PhaseIdle}, hook.phases())

	p.Activate()
	g.release("Facebook", nil)
	waitPanel(t, p)
	assert.Equal(t, "report:Facebook", *p.State().Report)
}

func TestPanelErrorThenRefreshRecovers(t *testing.T) {
	g := newGatedFetcher()
	p := newTestPanel(t, g.fetch, nil)

	p.Activate()
	g.release("Google", errors.New("connection reset"))
	waitPanel(t, p)
	state := p.State()
	assert.Equal(t, PhaseError, state.Phase)
	assert.Equal(t, "Failed to fetch live market data. Please check connection or API key.", state.ErrorMessage)
	assert.Nil(t, state.Report)

	p.Refresh()
	g.release("Google", nil)
	waitPanel(t, p)
	state = p.State()
	assert.Equal(t, PhaseReady, state.Phase)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, uint64(2), state.Generation)
}

func TestPanelProviderFailureMessage(t *testing.T) {
	failure := &insights.ProviderFailure{Intent: insights.IntentMarketIntel, Kind: insights.KindQuota, Err: errors.New("429")}
	p := newTestPanel(t, func(context.Context, string) (string, error) { return "", failure }, nil)
	p.Activate()
	waitPanel(t, p)
	assert.Equal(t, failure.UserMessage(), p.State().ErrorMessage)
}

func TestPanelTimeout(t *testing.T) {
	p := NewPanel(PanelOptions[string, string]{
		ID:      "slow",
		Timeout: 10 * time.Millisecond,
		Fetch: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})
	defer p.Close()
	p.Activate()
	waitPanel(t, p)
	state := p.State()
	assert.Equal(t, PhaseError, state.Phase)
	assert.Equal(t, TimedOutMessage, state.ErrorMessage)
}

func TestPanelDeactivateStillAppliesInFlightResult(t *testing.T) {
	g := newGatedFetcher()
	p := newTestPanel(t, g.fetch, nil)
	p.Activate()
	p.Deactivate()
	g.release("Google", nil)
	waitPanel(t, p)
	state := p.State()
	assert.Equal(t, PhaseReady, state.Phase)
	assert.False(t, state.Active)

	// rebinding an inactive panel only stores the params
	assert.False(t, p.SetParams("TikTok"))
	assert.Equal(t, 1, g.callCount())
}

func TestPanelRacingFetchesNeverApplyStale(t *testing.T) {
	var mu sync.Mutex
	latest := ""
	p := NewPanel(PanelOptions[string, string]{
		ID: "race",
		Fetch: func(ctx context.Context, params string) (string, error) {
			time.Sleep(time.Duration(len(params)%3) * time.Millisecond)
			return params, nil
		},
	})
	defer p.Close()
	p.Activate()
	for _, channel := range []string{"Facebook", "Instagram", "Google Ads", "LinkedIn", "TikTok", "Facebook Ads"} {
		p.SetParams(channel)
		mu.Lock()
		latest = channel
		mu.Unlock()
	}
	waitPanel(t, p)
	state := p.State()
	require.Equal(t, PhaseReady, state.Phase)
	mu.Lock()
	assert.Equal(t, latest, *state.Report)
	mu.Unlock()
}

func TestPanelCloseCancelsFetch(t *testing.T) {
	g := newGatedFetcher()
	p := NewPanel(PanelOptions[string, string]{ID: "intel", Fetch: g.fetch, Params: "Google"})
	p.Activate()
	p.Close()
	assert.Equal(t, PhaseIdle, p.State().Phase)
	require.NoError(t, p.Wait(context.Background()))

	p.Refresh()
	assert.Equal(t, 1, g.callCount())
}
