package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
)

// ApproveInterventionInput approves a pending agent intervention.
type ApproveInterventionInput struct {
	Viewer         dashboard.ViewerContext `json:"viewer"`
	InterventionID string                  `json:"intervention_id"`
}

// RunReasoningInput starts a deep reasoning run.
type RunReasoningInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
}

type agentService interface {
	ApproveIntervention(ctx context.Context, viewer dashboard.ViewerContext, id string) (bool, error)
	RunReasoning(ctx context.Context, viewer dashboard.ViewerContext) (bool, error)
}

// ApproveInterventionCommand moves an intervention from pending to executing.
// Approving a non-pending intervention is a no-op.
type ApproveInterventionCommand struct {
	service   agentService
	telemetry Telemetry
}

// NewApproveInterventionCommand creates the command.
func NewApproveInterventionCommand(service agentService, telemetry Telemetry) *ApproveInterventionCommand {
	return &ApproveInterventionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApproveInterventionInput] = (*ApproveInterventionCommand)(nil)

// Execute delegates to the dashboard service.
func (c *ApproveInterventionCommand) Execute(ctx context.Context, msg ApproveInterventionInput) error {
	if c.service == nil {
		return errors.New("approve command requires service")
	}
	id := strings.TrimSpace(msg.InterventionID)
	if id == "" {
		return errors.New("approve command requires intervention id")
	}
	started, err := c.service.ApproveIntervention(ctx, msg.Viewer, id)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventApprove, map[string]any{
		"viewer":       msg.Viewer.UserID,
		"intervention": id,
		"started":      started,
	})
	return nil
}

// RunReasoningCommand asks the agent for a strategy over the current snapshot.
type RunReasoningCommand struct {
	service   agentService
	telemetry Telemetry
}

// NewRunReasoningCommand creates the command.
func NewRunReasoningCommand(service agentService, telemetry Telemetry) *RunReasoningCommand {
	return &RunReasoningCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RunReasoningInput] = (*RunReasoningCommand)(nil)

// Execute delegates to the dashboard service.
func (c *RunReasoningCommand) Execute(ctx context.Context, msg RunReasoningInput) error {
	if c.service == nil {
		return errors.New("reason command requires service")
	}
	started, err := c.service.RunReasoning(ctx, msg.Viewer)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventReason, map[string]any{
		"viewer":  msg.Viewer.UserID,
		"started": started,
	})
	return nil
}
