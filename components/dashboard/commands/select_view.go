package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
)

// SelectViewInput switches a viewer to another sidebar view.
type SelectViewInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	View   string                  `json:"view"`
}

type viewService interface {
	SelectView(ctx context.Context, viewer dashboard.ViewerContext, view dashboard.View) (dashboard.ShellState, error)
}

// SelectViewCommand changes the active view and mounts its panels.
type SelectViewCommand struct {
	service   viewService
	telemetry Telemetry
}

// NewSelectViewCommand creates the command.
func NewSelectViewCommand(service viewService, telemetry Telemetry) *SelectViewCommand {
	return &SelectViewCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectViewInput] = (*SelectViewCommand)(nil)

// Execute parses the view code and delegates to the dashboard service.
func (c *SelectViewCommand) Execute(ctx context.Context, msg SelectViewInput) error {
	if c.service == nil {
		return errors.New("select view command requires service")
	}
	view, err := dashboard.ParseView(msg.View)
	if err != nil {
		return err
	}
	if _, err := c.service.SelectView(ctx, msg.Viewer, view); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventSelectView, map[string]any{
		"viewer": msg.Viewer.UserID,
		"view":   string(view),
	})
	return nil
}
