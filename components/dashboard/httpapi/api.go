package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/components/dashboard/commands"
	"github.com/goliatone/go-marketinsight/components/dashboard/queries"
	"github.com/goliatone/go-marketinsight/pkg/agent"
	"github.com/goliatone/go-marketinsight/pkg/settings"
)

// ViewerHeader carries the viewer id when no upstream middleware set one.
const ViewerHeader = "X-Viewer-ID"

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	SelectView     gocommand.Commander[commands.SelectViewInput]
	SetFilters     gocommand.Commander[commands.SetFiltersInput]
	RefreshPanel   gocommand.Commander[commands.RefreshPanelInput]
	SetPanelParams gocommand.Commander[commands.SetPanelParamsInput]
	Approve        gocommand.Commander[commands.ApproveInterventionInput]
	Reason         gocommand.Commander[commands.RunReasoningInput]
	ReplaceConfig  gocommand.Commander[commands.ReplaceSettingsInput]
	EditConfig     gocommand.Commander[commands.EditSettingsInput]
	TestConnection gocommand.Commander[commands.TestConnectionInput]
	SaveConfig     gocommand.Commander[commands.SaveSettingsInput]

	View     gocommand.Querier[dashboard.ViewerContext, dashboard.ViewPayload]
	Panel    gocommand.Querier[queries.PanelStateInput, dashboard.PanelSnapshot]
	Agent    gocommand.Querier[dashboard.ViewerContext, agent.State]
	Settings gocommand.Querier[dashboard.ViewerContext, queries.SettingsView]

	Logger zerolog.Logger
}

// ViewerFromRequest resolves the viewer from the request context, the
// ViewerHeader or the viewer query parameter, in that order.
func ViewerFromRequest(r *http.Request) (dashboard.ViewerContext, error) {
	if viewer, ok := dashboard.ViewerFromContext(r.Context()); ok {
		return viewer, nil
	}
	id := strings.TrimSpace(r.Header.Get(ViewerHeader))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("viewer"))
	}
	if id == "" {
		return dashboard.ViewerContext{}, dashboard.ErrMissingViewer
	}
	return dashboard.ViewerContext{UserID: id, Locale: r.Header.Get("Accept-Language")}, nil
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dashboard.ErrMissingViewer),
		errors.Is(err, dashboard.ErrInvalidFilter),
		errors.Is(err, dashboard.ErrInvalidParams),
		errors.Is(err, commands.ErrUnknownAction),
		errors.Is(err, settings.ErrInvalid),
		errors.Is(err, settings.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrUnknownView),
		errors.Is(err, dashboard.ErrUnknownPanel),
		errors.Is(err, agent.ErrUnknownIntervention),
		errors.Is(err, settings.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

type viewRequest struct {
	View string `json:"view"`
}

type filtersRequest struct {
	Channel   string `json:"channel"`
	DateRange string `json:"date_range"`
}

type editRequest struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

type replaceRequest struct {
	Settings settings.Settings `json:"settings"`
	Save     bool              `json:"save"`
}

func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	payload, err := h.View.Query(r.Context(), viewer)
	h.respond(w, payload, err)
}

func (h *Handlers) HandleSelectView(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var body viewRequest
	if !h.decode(w, r, &body) {
		return
	}
	err := h.SelectView.Execute(r.Context(), commands.SelectViewInput{Viewer: viewer, View: body.View})
	h.respondEmpty(w, http.StatusOK, err)
}

func (h *Handlers) HandleSetFilters(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var body filtersRequest
	if !h.decode(w, r, &body) {
		return
	}
	err := h.SetFilters.Execute(r.Context(), commands.SetFiltersInput{
		Viewer:    viewer,
		Channel:   body.Channel,
		DateRange: body.DateRange,
	})
	h.respondEmpty(w, http.StatusOK, err)
}

func (h *Handlers) HandlePanel(w http.ResponseWriter, r *http.Request, panel string) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	snap, err := h.Panel.Query(r.Context(), queries.PanelStateInput{Viewer: viewer, Panel: panel})
	h.respond(w, snap, err)
}

func (h *Handlers) HandleRefreshPanel(w http.ResponseWriter, r *http.Request, panel string) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	err := h.RefreshPanel.Execute(r.Context(), commands.RefreshPanelInput{Viewer: viewer, Panel: panel})
	h.respondEmpty(w, http.StatusAccepted, err)
}

func (h *Handlers) HandleSetPanelParams(w http.ResponseWriter, r *http.Request, panel string) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	params := map[string]any{}
	if !h.decode(w, r, &params) {
		return
	}
	err := h.SetPanelParams.Execute(r.Context(), commands.SetPanelParamsInput{Viewer: viewer, Panel: panel, Params: params})
	h.respondEmpty(w, http.StatusAccepted, err)
}

func (h *Handlers) HandleAgent(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	state, err := h.Agent.Query(r.Context(), viewer)
	h.respond(w, state, err)
}

func (h *Handlers) HandleApprove(w http.ResponseWriter, r *http.Request, interventionID string) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	err := h.Approve.Execute(r.Context(), commands.ApproveInterventionInput{Viewer: viewer, InterventionID: interventionID})
	h.respondEmpty(w, http.StatusAccepted, err)
}

func (h *Handlers) HandleReason(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	err := h.Reason.Execute(r.Context(), commands.RunReasoningInput{Viewer: viewer})
	h.respondEmpty(w, http.StatusAccepted, err)
}

func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	view, err := h.Settings.Query(r.Context(), viewer)
	h.respond(w, view, err)
}

func (h *Handlers) HandleReplaceSettings(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var body replaceRequest
	if !h.decode(w, r, &body) {
		return
	}
	err := h.ReplaceConfig.Execute(r.Context(), commands.ReplaceSettingsInput{Viewer: viewer, Settings: body.Settings, Save: body.Save})
	h.respondEmpty(w, http.StatusOK, err)
}

func (h *Handlers) HandleEditSettings(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var body editRequest
	if !h.decode(w, r, &body) {
		return
	}
	err := h.EditConfig.Execute(r.Context(), commands.EditSettingsInput{
		Viewer: viewer,
		Action: body.Action,
		ID:     body.ID,
		Field:  body.Field,
		Value:  body.Value,
	})
	h.respondEmpty(w, http.StatusOK, err)
}

func (h *Handlers) HandleTestConnection(w http.ResponseWriter, r *http.Request, connectionID string) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	err := h.TestConnection.Execute(r.Context(), commands.TestConnectionInput{Viewer: viewer, ConnectionID: connectionID})
	h.respondEmpty(w, http.StatusOK, err)
}

func (h *Handlers) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	err := h.SaveConfig.Execute(r.Context(), commands.SaveSettingsInput{Viewer: viewer})
	h.respondEmpty(w, http.StatusNoContent, err)
}

func (h *Handlers) viewer(w http.ResponseWriter, r *http.Request) (dashboard.ViewerContext, bool) {
	viewer, err := ViewerFromRequest(r)
	if err != nil {
		h.fail(w, err)
		return viewer, false
	}
	return viewer, true
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handlers) respond(w http.ResponseWriter, body any, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error().Err(err).Msg("encode response")
	}
}

func (h *Handlers) respondEmpty(w http.ResponseWriter, status int, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(status)
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error().Err(err).Int("status", status).Msg("dashboard request failed")
	}
	http.Error(w, err.Error(), status)
}
