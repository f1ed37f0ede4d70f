package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// subscriberBuffer is how many events a slow subscriber may lag before events are dropped.
const subscriberBuffer = 8

// BroadcastHook fans out panel and agent events to in-process subscribers.
// Delivery never blocks: a full subscriber misses events.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	viewer string
	ch     chan Event
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]subscriber),
	}
}

// PanelUpdated broadcasts a panel transition.
func (h *BroadcastHook) PanelUpdated(_ context.Context, event PanelEvent) error {
	h.publish(Event{Type: EventTypePanel, Panel: &event})
	return nil
}

// AgentChanged broadcasts a workflow change.
func (h *BroadcastHook) AgentChanged(_ context.Context, event AgentEvent) error {
	h.publish(Event{Type: EventTypeAgent, Agent: &event})
	return nil
}

func (h *BroadcastHook) publish(event Event) {
	viewer := event.Viewer()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.viewer != "" && sub.viewer != viewer {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel of events for viewer and a cancel func. An
// empty viewer receives every viewer's events and is meant for in-process
// consumers; the HTTP streams always subscribe with a resolved viewer.
func (h *BroadcastHook) Subscribe(viewer string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = subscriber{viewer: viewer, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamViewer returns the viewer attached to the request context. Streams
// never fall back to the unfiltered subscription.
func streamViewer(r *http.Request) (string, bool) {
	viewer, ok := ViewerFromContext(r.Context())
	if !ok || strings.TrimSpace(viewer.UserID) == "" {
		return "", false
	}
	return viewer.UserID, true
}

// ServeWebSocket upgrades the request and streams the viewer's events as JSON.
// The viewer must be on the request context; see ContextWithViewer.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	viewer, ok := streamViewer(r)
	if !ok {
		http.Error(w, ErrMissingViewer.Error(), http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(viewer)
	defer cancel()

	// The client never sends data; reading only detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE provides a Server-Sent Events endpoint for the viewer's events.
// The viewer must be on the request context.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	viewer, ok := streamViewer(r)
	if !ok {
		http.Error(w, ErrMissingViewer.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe(viewer)
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Write([]byte("event: " + event.Type + "\ndata: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// MultiHook forwards events to several hooks, returning the first error.
type MultiHook []RefreshHook

// PanelUpdated implements RefreshHook.
func (m MultiHook) PanelUpdated(ctx context.Context, event PanelEvent) error {
	var first error
	for _, h := range m {
		if err := h.PanelUpdated(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AgentChanged implements RefreshHook.
func (m MultiHook) AgentChanged(ctx context.Context, event AgentEvent) error {
	var first error
	for _, h := range m {
		if err := h.AgentChanged(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
