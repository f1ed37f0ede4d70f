package commands

import (
	"context"

	"github.com/goliatone/go-marketinsight/components/dashboard"
)

// Telemetry is the recorder commands report to after they succeed.
type Telemetry = dashboard.Telemetry

// Events recorded by commands. Payloads always carry the viewer id.
const (
	EventSelectView      = "dashboard.command.select_view"
	EventSetFilters      = "dashboard.command.set_filters"
	EventRefreshPanel    = "dashboard.command.refresh_panel"
	EventSetParams       = "dashboard.command.set_params"
	EventApprove         = "dashboard.command.approve"
	EventReason          = "dashboard.command.reason"
	EventReplaceSettings = "dashboard.command.replace_settings"
	EventEditSettings    = "dashboard.command.edit_settings"
	EventTestConnection  = "dashboard.command.test_connection"
	EventSaveSettings    = "dashboard.command.save_settings"
)

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
