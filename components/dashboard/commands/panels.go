package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
)

// RefreshPanelInput restarts one AI panel.
type RefreshPanelInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Panel  string                  `json:"panel"`
}

// SetPanelParamsInput rebinds one AI panel, e.g. the SEO audit domain.
type SetPanelParamsInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Panel  string                  `json:"panel"`
	Params map[string]any          `json:"params"`
}

type panelService interface {
	RefreshPanel(ctx context.Context, viewer dashboard.ViewerContext, id dashboard.PanelID) error
	SetPanelParams(ctx context.Context, viewer dashboard.ViewerContext, id dashboard.PanelID, params map[string]any) error
}

// RefreshPanelCommand starts a new fetch cycle for a panel.
type RefreshPanelCommand struct {
	service   panelService
	telemetry Telemetry
}

// NewRefreshPanelCommand creates the command.
func NewRefreshPanelCommand(service panelService, telemetry Telemetry) *RefreshPanelCommand {
	return &RefreshPanelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshPanelInput] = (*RefreshPanelCommand)(nil)

// Execute delegates to the dashboard service.
func (c *RefreshPanelCommand) Execute(ctx context.Context, msg RefreshPanelInput) error {
	if c.service == nil {
		return errors.New("refresh panel command requires service")
	}
	id, err := dashboard.ParsePanelID(msg.Panel)
	if err != nil {
		return err
	}
	if err := c.service.RefreshPanel(ctx, msg.Viewer, id); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventRefreshPanel, map[string]any{
		"viewer": msg.Viewer.UserID,
		"panel":  string(id),
	})
	return nil
}

// SetPanelParamsCommand validates and applies panel params.
type SetPanelParamsCommand struct {
	service   panelService
	telemetry Telemetry
}

// NewSetPanelParamsCommand creates the command.
func NewSetPanelParamsCommand(service panelService, telemetry Telemetry) *SetPanelParamsCommand {
	return &SetPanelParamsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetPanelParamsInput] = (*SetPanelParamsCommand)(nil)

// Execute delegates to the dashboard service.
func (c *SetPanelParamsCommand) Execute(ctx context.Context, msg SetPanelParamsInput) error {
	if c.service == nil {
		return errors.New("set params command requires service")
	}
	id, err := dashboard.ParsePanelID(msg.Panel)
	if err != nil {
		return err
	}
	if err := c.service.SetPanelParams(ctx, msg.Viewer, id, msg.Params); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventSetParams, map[string]any{
		"viewer": msg.Viewer.UserID,
		"panel":  string(id),
	})
	return nil
}
