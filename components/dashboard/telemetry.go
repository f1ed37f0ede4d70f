package dashboard

import "context"

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Event names recorded by the dashboard.
const (
	EventPanelSettled  = "dashboard.panel.settled"
	EventPanelStale    = "dashboard.panel.stale"
	EventViewSelected  = "dashboard.view.selected"
	EventFilterChanged = "dashboard.filters.changed"
	EventWidgetError   = "dashboard.widget.provider_error"
	EventAgentApprove  = "dashboard.agent.approve"
	EventAgentReason   = "dashboard.agent.reason"
	EventSettingsSaved = "dashboard.settings.saved"
)

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
