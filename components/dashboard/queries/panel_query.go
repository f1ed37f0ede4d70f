package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
)

// PanelStateInput identifies a panel for a viewer.
type PanelStateInput struct {
	Viewer dashboard.ViewerContext
	Panel  string
}

type panelService interface {
	PanelState(ctx context.Context, viewer dashboard.ViewerContext, id dashboard.PanelID) (dashboard.PanelSnapshot, error)
}

// PanelStateQuery snapshots a single panel.
type PanelStateQuery struct {
	service panelService
}

// NewPanelStateQuery builds the query.
func NewPanelStateQuery(service panelService) *PanelStateQuery {
	return &PanelStateQuery{service: service}
}

var _ gocommand.Querier[PanelStateInput, dashboard.PanelSnapshot] = (*PanelStateQuery)(nil)

// Query parses the panel id and snapshots it.
func (q *PanelStateQuery) Query(ctx context.Context, input PanelStateInput) (dashboard.PanelSnapshot, error) {
	id, err := dashboard.ParsePanelID(input.Panel)
	if err != nil {
		return dashboard.PanelSnapshot{}, err
	}
	return q.service.PanelState(ctx, input.Viewer, id)
}
