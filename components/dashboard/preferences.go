package dashboard

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryPreferenceStore keeps shell state per viewer for the process lifetime.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]ShellState
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]ShellState),
	}
}

// ShellState returns the stored state or the defaults for unknown viewers.
func (s *InMemoryPreferenceStore) ShellState(_ context.Context, viewer ViewerContext) (ShellState, error) {
	if viewer.UserID == "" {
		return DefaultShellState(), nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.data[viewer.UserID]; ok {
		return s.normalize(state), nil
	}
	return DefaultShellState(), nil
}

// SaveShellState persists the state for a viewer.
func (s *InMemoryPreferenceStore) SaveShellState(_ context.Context, viewer ViewerContext, state ShellState) error {
	if viewer.UserID == "" {
		return fmt.Errorf("preference store requires viewer user id")
	}
	state = s.normalize(state)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[viewer.UserID] = state
	return nil
}

// normalize fills unset fields with the defaults.
func (s *InMemoryPreferenceStore) normalize(state ShellState) ShellState {
	def := DefaultShellState()
	if state.View == "" {
		state.View = def.View
	}
	if state.Channel == "" {
		state.Channel = def.Channel
	}
	if state.DateRange == "" {
		state.DateRange = def.DateRange
	}
	return state
}
