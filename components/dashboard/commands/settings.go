package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/pkg/settings"
)

// Settings edit actions accepted by EditSettingsCommand.
const (
	ActionUpdateConnection = "update_connection"
	ActionAddCompetitor    = "add_competitor"
	ActionRemoveCompetitor = "remove_competitor"
	ActionUpdateCompetitor = "update_competitor"
)

// ErrUnknownAction is returned for edit actions the command does not know.
var ErrUnknownAction = errors.New("commands: unknown settings action")

// ReplaceSettingsInput swaps the whole draft, optionally saving it.
type ReplaceSettingsInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	Settings settings.Settings       `json:"settings"`
	Save     bool                    `json:"save"`
}

// EditSettingsInput applies one field edit to the draft.
type EditSettingsInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Action string                  `json:"action"`
	ID     string                  `json:"id"`
	Field  string                  `json:"field"`
	Value  string                  `json:"value"`
}

// TestConnectionInput marks a draft connection as verified.
type TestConnectionInput struct {
	Viewer       dashboard.ViewerContext `json:"viewer"`
	ConnectionID string                  `json:"connection_id"`
}

// SaveSettingsInput persists the viewer's draft.
type SaveSettingsInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
}

type settingsService interface {
	ReplaceSettings(ctx context.Context, viewer dashboard.ViewerContext, next settings.Settings) (settings.Settings, error)
	EditSettings(ctx context.Context, viewer dashboard.ViewerContext, edit func(settings.Settings) (settings.Settings, error)) (settings.Settings, error)
	TestConnection(ctx context.Context, viewer dashboard.ViewerContext, id string) (settings.Settings, error)
	SaveSettings(ctx context.Context, viewer dashboard.ViewerContext) error
}

// ReplaceSettingsCommand validates and replaces the draft.
type ReplaceSettingsCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewReplaceSettingsCommand creates the command.
func NewReplaceSettingsCommand(service settingsService, telemetry Telemetry) *ReplaceSettingsCommand {
	return &ReplaceSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReplaceSettingsInput] = (*ReplaceSettingsCommand)(nil)

// Execute delegates to the dashboard service.
func (c *ReplaceSettingsCommand) Execute(ctx context.Context, msg ReplaceSettingsInput) error {
	if c.service == nil {
		return errors.New("replace settings command requires service")
	}
	if _, err := c.service.ReplaceSettings(ctx, msg.Viewer, msg.Settings); err != nil {
		return err
	}
	if msg.Save {
		if err := c.service.SaveSettings(ctx, msg.Viewer); err != nil {
			return err
		}
	}
	c.telemetry.Record(ctx, EventReplaceSettings, map[string]any{
		"viewer": msg.Viewer.UserID,
		"saved":  msg.Save,
	})
	return nil
}

// EditSettingsCommand applies a single field edit to the draft.
type EditSettingsCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewEditSettingsCommand creates the command.
func NewEditSettingsCommand(service settingsService, telemetry Telemetry) *EditSettingsCommand {
	return &EditSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[EditSettingsInput] = (*EditSettingsCommand)(nil)

// Execute maps the action to a settings edit.
func (c *EditSettingsCommand) Execute(ctx context.Context, msg EditSettingsInput) error {
	if c.service == nil {
		return errors.New("edit settings command requires service")
	}
	edit, err := editFor(msg)
	if err != nil {
		return err
	}
	if _, err := c.service.EditSettings(ctx, msg.Viewer, edit); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventEditSettings, map[string]any{
		"viewer": msg.Viewer.UserID,
		"action": msg.Action,
	})
	return nil
}

func editFor(msg EditSettingsInput) (func(settings.Settings) (settings.Settings, error), error) {
	switch msg.Action {
	case ActionUpdateConnection:
		return func(s settings.Settings) (settings.Settings, error) {
			return settings.UpdateConnection(s, msg.ID, msg.Field, msg.Value)
		}, nil
	case ActionAddCompetitor:
		return func(s settings.Settings) (settings.Settings, error) {
			out, _ := settings.AddCompetitor(s)
			return out, nil
		}, nil
	case ActionRemoveCompetitor:
		return func(s settings.Settings) (settings.Settings, error) {
			return settings.RemoveCompetitor(s, msg.ID)
		}, nil
	case ActionUpdateCompetitor:
		return func(s settings.Settings) (settings.Settings, error) {
			return settings.UpdateCompetitor(s, msg.ID, msg.Field, msg.Value)
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
}

// TestConnectionCommand marks a connection as connected in the draft.
type TestConnectionCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewTestConnectionCommand creates the command.
func NewTestConnectionCommand(service settingsService, telemetry Telemetry) *TestConnectionCommand {
	return &TestConnectionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[TestConnectionInput] = (*TestConnectionCommand)(nil)

// Execute delegates to the dashboard service.
func (c *TestConnectionCommand) Execute(ctx context.Context, msg TestConnectionInput) error {
	if c.service == nil {
		return errors.New("test connection command requires service")
	}
	if _, err := c.service.TestConnection(ctx, msg.Viewer, msg.ConnectionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventTestConnection, map[string]any{
		"viewer":     msg.Viewer.UserID,
		"connection": msg.ConnectionID,
	})
	return nil
}

// SaveSettingsCommand persists the draft.
type SaveSettingsCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewSaveSettingsCommand creates the command.
func NewSaveSettingsCommand(service settingsService, telemetry Telemetry) *SaveSettingsCommand {
	return &SaveSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveSettingsInput] = (*SaveSettingsCommand)(nil)

// Execute delegates to the dashboard service.
func (c *SaveSettingsCommand) Execute(ctx context.Context, msg SaveSettingsInput) error {
	if c.service == nil {
		return errors.New("save settings command requires service")
	}
	if err := c.service.SaveSettings(ctx, msg.Viewer); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventSaveSettings, map[string]any{"viewer": msg.Viewer.UserID})
	return nil
}
