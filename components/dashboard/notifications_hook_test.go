package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifierPostsEvents(t *testing.T) {
	var (
		mu       sync.Mutex
		received []webhookMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg webhookMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	notifier, err := NewWebhookNotifier(WebhookOptions{URL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	hook := &NotificationsHook{Client: notifier, Channel: "marketing"}

	ctx := context.Background()
	require.NoError(t, hook.PanelUpdated(ctx, PanelEvent{Panel: PanelMarketIntel, Viewer: "u1", Phase: PhaseReady, Generation: 2}))
	require.NoError(t, hook.PanelUpdated(ctx, PanelEvent{Panel: PanelMarketIntel, Viewer: "u1", Phase: PhaseLoading, Generation: 3}))
	notifier.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "marketing", received[0].Channel)
	assert.Equal(t, EventTypePanel, received[0].Event.Type)
	require.NotNil(t, received[0].Event.Panel)
	assert.Equal(t, uint64(2), received[0].Event.Panel.Generation)

	assert.ErrorIs(t, notifier.PublishDashboardEvent(ctx, "marketing", Event{Type: EventTypeAgent}), ErrNotificationDropped)
}

func TestWebhookNotifierDropsWhenQueueIsFull(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier, err := NewWebhookNotifier(WebhookOptions{URL: srv.URL, Buffer: 1, HTTPClient: srv.Client()})
	require.NoError(t, err)

	dropped := 0
	for range 3 {
		if err := notifier.PublishDashboardEvent(context.Background(), "", Event{Type: EventTypeAgent}); err != nil {
			assert.ErrorIs(t, err, ErrNotificationDropped)
			dropped++
		}
	}
	close(release)
	notifier.Close()
	assert.GreaterOrEqual(t, dropped, 1)
}

func TestNewWebhookNotifierRequiresURL(t *testing.T) {
	_, err := NewWebhookNotifier(WebhookOptions{})
	assert.Error(t, err)
}
