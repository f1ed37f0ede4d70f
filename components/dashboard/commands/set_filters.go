package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
)

// SetFiltersInput changes the channel and date range. Empty fields keep the current value.
type SetFiltersInput struct {
	Viewer    dashboard.ViewerContext `json:"viewer"`
	Channel   string                  `json:"channel"`
	DateRange string                  `json:"date_range"`
}

type filterService interface {
	SetFilters(ctx context.Context, viewer dashboard.ViewerContext, channel, dateRange string) (dashboard.ShellState, error)
}

// SetFiltersCommand updates the shell filters and rebinds filter-driven panels.
type SetFiltersCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewSetFiltersCommand creates the command.
func NewSetFiltersCommand(service filterService, telemetry Telemetry) *SetFiltersCommand {
	return &SetFiltersCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetFiltersInput] = (*SetFiltersCommand)(nil)

// Execute delegates to the dashboard service.
func (c *SetFiltersCommand) Execute(ctx context.Context, msg SetFiltersInput) error {
	if c.service == nil {
		return errors.New("set filters command requires service")
	}
	shell, err := c.service.SetFilters(ctx, msg.Viewer, msg.Channel, msg.DateRange)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventSetFilters, map[string]any{
		"viewer":     msg.Viewer.UserID,
		"channel":    shell.Channel,
		"date_range": shell.DateRange,
	})
	return nil
}
