package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/components/dashboard/commands"
	"github.com/goliatone/go-marketinsight/components/dashboard/queries"
	"github.com/goliatone/go-marketinsight/pkg/agent"
	"github.com/goliatone/go-marketinsight/pkg/settings"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubQuerier[T, R any] struct {
	last   T
	result R
	err    error
}

func (s *stubQuerier[T, R]) Query(ctx context.Context, msg T) (R, error) {
	s.last = msg
	return s.result, s.err
}

func newRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	req.Header.Set(ViewerHeader, "u1")
	return req
}

func TestViewerFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard?viewer=q1", nil)
	viewer, err := ViewerFromRequest(req)
	if err != nil || viewer.UserID != "q1" {
		t.Fatalf("expected query viewer, got %+v %v", viewer, err)
	}

	req.Header.Set(ViewerHeader, "h1")
	viewer, _ = ViewerFromRequest(req)
	if viewer.UserID != "h1" {
		t.Fatalf("expected header to win over query, got %s", viewer.UserID)
	}

	req = req.WithContext(dashboard.ContextWithViewer(req.Context(), dashboard.ViewerContext{UserID: "ctx"}))
	viewer, _ = ViewerFromRequest(req)
	if viewer.UserID != "ctx" {
		t.Fatalf("expected context viewer, got %s", viewer.UserID)
	}

	_, err = ViewerFromRequest(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if !errors.Is(err, dashboard.ErrMissingViewer) {
		t.Fatalf("expected ErrMissingViewer, got %v", err)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		nil:                              http.StatusOK,
		dashboard.ErrInvalidParams:       http.StatusBadRequest,
		settings.ErrUnknownField:         http.StatusBadRequest,
		commands.ErrUnknownAction:        http.StatusBadRequest,
		dashboard.ErrUnknownPanel:        http.StatusNotFound,
		agent.ErrUnknownIntervention:     http.StatusNotFound,
		settings.ErrNotFound:             http.StatusNotFound,
		dashboard.ErrClosed:              http.StatusServiceUnavailable,
		errors.New("upstream timed out"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusFor(err); got != want {
			t.Fatalf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
	wrapped := fmt.Errorf("edit: %w", settings.ErrNotFound)
	if StatusFor(wrapped) != http.StatusNotFound {
		t.Fatalf("expected wrapped errors to map through")
	}
}

func TestHandleSelectView(t *testing.T) {
	selectView := &stubCommander[commands.SelectViewInput]{}
	api := &Handlers{SelectView: selectView}
	rec := httptest.NewRecorder()
	api.HandleSelectView(rec, newRequest(http.MethodPost, "/dashboard/view", `{"view":"market_intel"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if selectView.last.View != "market_intel" || selectView.last.Viewer.UserID != "u1" {
		t.Fatalf("unexpected input %+v", selectView.last)
	}
}

func TestHandleSelectViewMapsErrors(t *testing.T) {
	selectView := &stubCommander[commands.SelectViewInput]{err: dashboard.ErrUnknownView}
	api := &Handlers{SelectView: selectView}
	rec := httptest.NewRecorder()
	api.HandleSelectView(rec, newRequest(http.MethodPost, "/dashboard/view", `{"view":"reports"}`))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleRejectsMissingViewerAndBadJSON(t *testing.T) {
	filters := &stubCommander[commands.SetFiltersInput]{}
	api := &Handlers{SetFilters: filters}

	rec := httptest.NewRecorder()
	api.HandleSetFilters(rec, httptest.NewRequest(http.MethodPost, "/dashboard/filters", bytes.NewBufferString(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without viewer, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.HandleSetFilters(rec, newRequest(http.MethodPost, "/dashboard/filters", `{"channel":`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
	if filters.calls != 0 {
		t.Fatalf("expected command to be skipped")
	}

	rec = httptest.NewRecorder()
	api.HandleSetFilters(rec, newRequest(http.MethodPost, "/dashboard/filters", `{"channel":"Facebook","date_range":"Last 7 days"}`))
	if rec.Code != http.StatusOK || filters.last.DateRange != "Last 7 days" {
		t.Fatalf("unexpected response %d %+v", rec.Code, filters.last)
	}
}

func TestHandlePanels(t *testing.T) {
	refresh := &stubCommander[commands.RefreshPanelInput]{}
	params := &stubCommander[commands.SetPanelParamsInput]{}
	panel := &stubQuerier[queries.PanelStateInput, dashboard.PanelSnapshot]{
		result: dashboard.PanelSnapshot{Panel: dashboard.PanelScan, Phase: dashboard.PhaseReady},
	}
	api := &Handlers{RefreshPanel: refresh, SetPanelParams: params, Panel: panel}

	rec := httptest.NewRecorder()
	api.HandleRefreshPanel(rec, newRequest(http.MethodPost, "/dashboard/panels/scan/refresh", ""), "scan")
	if rec.Code != http.StatusAccepted || refresh.last.Panel != "scan" {
		t.Fatalf("unexpected refresh %d %+v", rec.Code, refresh.last)
	}

	rec = httptest.NewRecorder()
	api.HandleSetPanelParams(rec, newRequest(http.MethodPost, "/dashboard/panels/seo_audit/params", `{"domain":"example.com"}`), "seo_audit")
	if rec.Code != http.StatusAccepted || params.last.Params["domain"] != "example.com" {
		t.Fatalf("unexpected params %d %+v", rec.Code, params.last)
	}

	rec = httptest.NewRecorder()
	api.HandlePanel(rec, newRequest(http.MethodGet, "/dashboard/panels/scan", ""), "scan")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"phase":"ready"`) {
		t.Fatalf("unexpected panel response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAgent(t *testing.T) {
	approve := &stubCommander[commands.ApproveInterventionInput]{}
	reason := &stubCommander[commands.RunReasoningInput]{}
	state := &stubQuerier[dashboard.ViewerContext, agent.State]{result: agent.State{Goal: "Increase ROAS"}}
	api := &Handlers{Approve: approve, Reason: reason, Agent: state}

	rec := httptest.NewRecorder()
	api.HandleApprove(rec, newRequest(http.MethodPost, "/dashboard/agent/interventions/i1/approve", ""), "i1")
	if rec.Code != http.StatusAccepted || approve.last.InterventionID != "i1" {
		t.Fatalf("unexpected approve %d %+v", rec.Code, approve.last)
	}

	rec = httptest.NewRecorder()
	api.HandleReason(rec, newRequest(http.MethodPost, "/dashboard/agent/reason", ""))
	if rec.Code != http.StatusAccepted || reason.calls != 1 {
		t.Fatalf("unexpected reason %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.HandleAgent(rec, newRequest(http.MethodGet, "/dashboard/agent", ""))
	if !strings.Contains(rec.Body.String(), "Increase ROAS") {
		t.Fatalf("expected goal in body, got %s", rec.Body.String())
	}
}

func TestHandleSettings(t *testing.T) {
	edit := &stubCommander[commands.EditSettingsInput]{}
	save := &stubCommander[commands.SaveSettingsInput]{}
	test := &stubCommander[commands.TestConnectionInput]{err: fmt.Errorf("%w: connection c9", settings.ErrNotFound)}
	replace := &stubCommander[commands.ReplaceSettingsInput]{}
	view := &stubQuerier[dashboard.ViewerContext, queries.SettingsView]{}
	api := &Handlers{EditConfig: edit, SaveConfig: save, TestConnection: test, ReplaceConfig: replace, Settings: view}

	rec := httptest.NewRecorder()
	api.HandleEditSettings(rec, newRequest(http.MethodPost, "/dashboard/settings/edits", `{"action":"update_connection","id":"c1","field":"apiKey","value":"k"}`))
	if rec.Code != http.StatusOK || edit.last.Field != "apiKey" {
		t.Fatalf("unexpected edit %d %+v", rec.Code, edit.last)
	}

	rec = httptest.NewRecorder()
	api.HandleTestConnection(rec, newRequest(http.MethodPost, "/dashboard/settings/connections/c9/test", ""), "c9")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.HandleReplaceSettings(rec, newRequest(http.MethodPut, "/dashboard/settings", `{"settings":{"connections":[],"competitors":[]},"save":true}`))
	if rec.Code != http.StatusOK || !replace.last.Save {
		t.Fatalf("unexpected replace %d %+v", rec.Code, replace.last)
	}

	rec = httptest.NewRecorder()
	api.HandleSaveSettings(rec, newRequest(http.MethodPost, "/dashboard/settings/save", ""))
	if rec.Code != http.StatusNoContent || save.calls != 1 {
		t.Fatalf("unexpected save %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	api.HandleSettings(rec, newRequest(http.MethodGet, "/dashboard/settings", ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"settings"`) {
		t.Fatalf("unexpected settings body %s", rec.Body.String())
	}
}

func TestHandleView(t *testing.T) {
	view := &stubQuerier[dashboard.ViewerContext, dashboard.ViewPayload]{err: errors.New("snapshot unavailable")}
	api := &Handlers{View: view}
	rec := httptest.NewRecorder()
	api.HandleView(rec, newRequest(http.MethodGet, "/dashboard/_view", ""))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if view.last.UserID != "u1" {
		t.Fatalf("expected viewer propagation")
	}
}
