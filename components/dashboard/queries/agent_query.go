package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/pkg/agent"
)

type agentService interface {
	AgentState(ctx context.Context, viewer dashboard.ViewerContext) (agent.State, error)
}

// AgentStateQuery returns the viewer's intervention workflow state.
type AgentStateQuery struct {
	service agentService
}

// NewAgentStateQuery builds the query.
func NewAgentStateQuery(service agentService) *AgentStateQuery {
	return &AgentStateQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, agent.State] = (*AgentStateQuery)(nil)

// Query snapshots the agent state.
func (q *AgentStateQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (agent.State, error) {
	return q.service.AgentState(ctx, viewer)
}
