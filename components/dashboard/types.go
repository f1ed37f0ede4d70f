package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-marketinsight/pkg/agent"
)

var (
	ErrUnknownView   = errors.New("dashboard: unknown view")
	ErrUnknownPanel  = errors.New("dashboard: unknown panel")
	ErrInvalidFilter = errors.New("dashboard: invalid filter")
	ErrInvalidParams = errors.New("dashboard: invalid panel params")
	ErrMissingViewer = errors.New("dashboard: viewer id is required")
	ErrClosed        = errors.New("dashboard: service closed")
)

// PreferenceStore persists shell state per viewer.
type PreferenceStore interface {
	ShellState(ctx context.Context, viewer ViewerContext) (ShellState, error)
	SaveShellState(ctx context.Context, viewer ViewerContext, state ShellState) error
}

// ProviderRegistry stores widget definitions and the providers that feed them.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// RefreshHook notifies transports about panel and agent changes. Calls are
// synchronous and in transition order; implementations must not block or call
// back into the panel or workflow that emitted the event.
type RefreshHook interface {
	PanelUpdated(ctx context.Context, event PanelEvent) error
	AgentChanged(ctx context.Context, event AgentEvent) error
}

// WidgetDefinition describes a widget kind a view can show.
type WidgetDefinition struct {
	Code        string         `json:"code" yaml:"code"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	Category    string         `json:"category,omitempty" yaml:"category,omitempty"`
}

// WidgetInstance places a widget definition on a view.
type WidgetInstance struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition"`
	View          View           `json:"view"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Data          WidgetData     `json:"data,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// ViewerContext identifies the browser or client a session belongs to.
type ViewerContext struct {
	UserID string `json:"user_id"`
	Locale string `json:"locale,omitempty"`
}

// PanelEvent reports a panel phase transition.
type PanelEvent struct {
	Panel      PanelID   `json:"panel"`
	Viewer     string    `json:"viewer"`
	Phase      Phase     `json:"phase"`
	Generation uint64    `json:"generation"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}

// AgentEvent wraps an intervention workflow change for a viewer.
type AgentEvent struct {
	Viewer string       `json:"viewer"`
	Change agent.Change `json:"change"`
}

// Event is the envelope pushed to live subscribers.
type Event struct {
	Type  string      `json:"type"`
	Panel *PanelEvent `json:"panel,omitempty"`
	Agent *AgentEvent `json:"agent,omitempty"`
}

// Viewer returns the viewer the event belongs to.
func (e Event) Viewer() string {
	switch {
	case e.Panel != nil:
		return e.Panel.Viewer
	case e.Agent != nil:
		return e.Agent.Viewer
	}
	return ""
}

const (
	EventTypePanel = "panel"
	EventTypeAgent = "agent"
)

type noopRefreshHook struct{}

func (noopRefreshHook) PanelUpdated(context.Context, PanelEvent) error { return nil }
func (noopRefreshHook) AgentChanged(context.Context, AgentEvent) error { return nil }
