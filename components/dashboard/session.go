package dashboard

import (
	"context"
	"slices"
	"sync"

	"github.com/goliatone/go-marketinsight/pkg/agent"
	"github.com/goliatone/go-marketinsight/pkg/settings"
)

// Session is the per-viewer dashboard state: shell filters, the AI panels,
// the intervention workflow and the unsaved settings draft.
type Session struct {
	viewer   ViewerContext
	panels   *panelSet
	workflow *agent.Workflow

	mu     sync.Mutex
	shell  ShellState
	draft  *settings.Settings
	report settings.LoadReport
}

// Viewer returns the viewer the session belongs to.
func (s *Session) Viewer() ViewerContext { return s.viewer }

// Shell returns the current shell state.
func (s *Session) Shell() ShellState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shell
}

// Panel returns the untyped state of one panel.
func (s *Session) Panel(id PanelID) (PanelSnapshot, bool) {
	p, ok := s.panels.get(id)
	if !ok {
		return PanelSnapshot{}, false
	}
	return p.Snapshot(), true
}

// Panels returns every panel state keyed by id.
func (s *Session) Panels() map[PanelID]PanelSnapshot {
	return s.panels.snapshots()
}

// Agent returns a copy of the workflow state.
func (s *Session) Agent() agent.State {
	return s.workflow.State()
}

// Wait blocks until no panel is loading and the workflow has no outstanding work.
func (s *Session) Wait(ctx context.Context) error {
	if err := s.panels.wait(ctx); err != nil {
		return err
	}
	return s.workflow.Wait(ctx)
}

// mountLocked activates the panels the current view shows.
func (s *Session) mountLocked() {
	for _, p := range s.panels.viewPanels(s.shell.View) {
		p.Activate()
	}
}

// switchViewLocked deactivates every panel the next view does not show and
// activates the ones it does.
func (s *Session) switchViewLocked(view View) {
	next := s.panels.viewPanels(view)
	for _, p := range s.panels.all() {
		if !slices.Contains(next, p) {
			p.Deactivate()
		}
	}
	s.shell.View = view
	s.mountLocked()
}

func (s *Session) close() error {
	s.panels.close()
	return s.workflow.Close()
}
