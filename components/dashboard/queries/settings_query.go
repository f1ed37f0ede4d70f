package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/pkg/settings"
)

// SettingsView is the draft settings plus how the stored copy loaded.
type SettingsView struct {
	Settings settings.Settings   `json:"settings"`
	Report   settings.LoadReport `json:"load_report"`
}

type settingsService interface {
	Settings(ctx context.Context, viewer dashboard.ViewerContext) (settings.Settings, settings.LoadReport, error)
}

// SettingsQuery returns the viewer's settings draft.
type SettingsQuery struct {
	service settingsService
}

// NewSettingsQuery builds the query.
func NewSettingsQuery(service settingsService) *SettingsQuery {
	return &SettingsQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, SettingsView] = (*SettingsQuery)(nil)

// Query loads the draft, reading the store on first access.
func (q *SettingsQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (SettingsView, error) {
	current, report, err := q.service.Settings(ctx, viewer)
	if err != nil {
		return SettingsView{}, err
	}
	return SettingsView{Settings: current, Report: report}, nil
}
