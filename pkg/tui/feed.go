package tui

import "github.com/goliatone/go-marketinsight/pkg/agent"

// ChangeFeed is an agent.Listener that buffers changes for the hub.
// Changes that arrive while the buffer is full are dropped; the hub
// re-reads the full workflow state on every change it does receive.
type ChangeFeed struct {
	ch chan agent.Change
}

// NewChangeFeed creates a feed holding up to buffer pending changes.
func NewChangeFeed(buffer int) *ChangeFeed {
	if buffer <= 0 {
		buffer = 32
	}
	return &ChangeFeed{ch: make(chan agent.Change, buffer)}
}

// Change implements agent.Listener.
func (f *ChangeFeed) Change(c agent.Change) {
	select {
	case f.ch <- c:
	default:
	}
}

// C exposes the buffered changes.
func (f *ChangeFeed) C() <-chan agent.Change {
	return f.ch
}

var _ agent.Listener = (*ChangeFeed)(nil)
