package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotificationDropped is returned when the webhook queue is full or closed.
var ErrNotificationDropped = errors.New("dashboard: notification dropped")

// NotificationsClient publishes dashboard events to an external channel.
type NotificationsClient interface {
	PublishDashboardEvent(ctx context.Context, channel string, event Event) error
}

// NotificationsHook forwards settled panel events and agent changes to a
// notifications client. Loading transitions are not forwarded.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
}

// PanelUpdated implements RefreshHook.
func (h *NotificationsHook) PanelUpdated(ctx context.Context, event PanelEvent) error {
	if h == nil || h.Client == nil || event.Phase == PhaseLoading {
		return nil
	}
	return h.Client.PublishDashboardEvent(ctx, h.Channel, Event{Type: EventTypePanel, Panel: &event})
}

// AgentChanged implements RefreshHook.
func (h *NotificationsHook) AgentChanged(ctx context.Context, event AgentEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	return h.Client.PublishDashboardEvent(ctx, h.Channel, Event{Type: EventTypeAgent, Agent: &event})
}

// WebhookOptions configures a WebhookNotifier.
type WebhookOptions struct {
	URL        string
	Timeout    time.Duration
	Buffer     int
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// WebhookNotifier posts events as JSON from a background worker so that
// publishing never blocks the panel or workflow that emitted the event.
type WebhookNotifier struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan webhookMessage
	done   chan struct{}
}

type webhookMessage struct {
	Channel string    `json:"channel"`
	Event   Event     `json:"event"`
	SentAt  time.Time `json:"sent_at"`
}

// NewWebhookNotifier starts the delivery worker. Close stops it.
func NewWebhookNotifier(opts WebhookOptions) (*WebhookNotifier, error) {
	if opts.URL == "" {
		return nil, errors.New("dashboard: webhook url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	n := &WebhookNotifier{
		url:     opts.URL,
		timeout: opts.Timeout,
		client:  opts.HTTPClient,
		logger:  opts.Logger,
		queue:   make(chan webhookMessage, opts.Buffer),
		done:    make(chan struct{}),
	}
	go n.run()
	return n, nil
}

// PublishDashboardEvent implements NotificationsClient.
func (n *WebhookNotifier) PublishDashboardEvent(_ context.Context, channel string, event Event) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotificationDropped
	}
	select {
	case n.queue <- webhookMessage{Channel: channel, Event: event, SentAt: time.Now().UTC()}:
		return nil
	default:
		return ErrNotificationDropped
	}
}

// Close delivers what is queued and stops the worker.
func (n *WebhookNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *WebhookNotifier) run() {
	defer close(n.done)
	for msg := range n.queue {
		if err := n.post(msg); err != nil {
			n.logger.Warn().Err(err).Str("type", msg.Event.Type).Msg("webhook delivery failed")
		}
	}
}

func (n *WebhookNotifier) post(msg webhookMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("dashboard: encode webhook: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dashboard: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard: webhook request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("dashboard: webhook returned %d", resp.StatusCode)
	}
	return nil
}

// LogHook writes every event to a zerolog logger at debug level.
type LogHook struct {
	Logger zerolog.Logger
}

// PanelUpdated implements RefreshHook.
func (h LogHook) PanelUpdated(_ context.Context, event PanelEvent) error {
	h.Logger.Debug().
		Str("panel", string(event.Panel)).
		Str("viewer", event.Viewer).
		Str("phase", string(event.Phase)).
		Uint64("generation", event.Generation).
		Str("reason", event.Reason).
		Msg("panel updated")
	return nil
}

// AgentChanged implements RefreshHook.
func (h LogHook) AgentChanged(_ context.Context, event AgentEvent) error {
	h.Logger.Debug().
		Str("viewer", event.Viewer).
		Str("kind", string(event.Change.Kind)).
		Str("intervention", event.Change.InterventionID).
		Str("status", string(event.Change.Status)).
		Msg("agent changed")
	return nil
}
