package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
)

type viewService interface {
	ViewPayload(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.ViewPayload, error)
}

// ViewPayloadQuery resolves everything the active view renders.
type ViewPayloadQuery struct {
	service viewService
}

// NewViewPayloadQuery builds the query.
func NewViewPayloadQuery(service viewService) *ViewPayloadQuery {
	return &ViewPayloadQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.ViewPayload] = (*ViewPayloadQuery)(nil)

// Query resolves the payload for the viewer.
func (q *ViewPayloadQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.ViewPayload, error) {
	return q.service.ViewPayload(ctx, viewer)
}
