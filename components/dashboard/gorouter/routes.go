package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-marketinsight/components/dashboard"
	"github.com/goliatone/go-marketinsight/components/dashboard/commands"
	"github.com/goliatone/go-marketinsight/components/dashboard/httpapi"
	"github.com/goliatone/go-marketinsight/components/dashboard/queries"
)

// RequestContext is the slice of router.Context the dashboard routes use.
type RequestContext interface {
	Context() context.Context
	Param(name string, defaultValue ...string) string
	Query(name string, defaultValue ...string) string
	Header(name string) string
	Body() []byte
	Locals(key any, value ...any) any
	JSON(code int, v any) error
	SetHeader(key, value string) router.Context
	Send(body []byte) error
}

// ViewerResolver converts a request into a dashboard.ViewerContext.
type ViewerResolver func(RequestContext) dashboard.ViewerContext

// StreamResolver resolves the viewer of a raw HTTP request. It must apply the
// same rules as the ViewerResolver so streams and routes agree on identity.
type StreamResolver func(*http.Request) (dashboard.ViewerContext, error)

// Config wires go-router with the dashboard controller, API and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            *httpapi.Handlers
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	StreamResolver StreamResolver
	// Mount attaches a plain net/http handler to the underlying server. The
	// SSE stream needs it because it writes an unbounded response body.
	Mount    func(path string, h http.Handler)
	BasePath string
	Routes   RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML           string
	View           string
	SelectView     string
	Filters        string
	Panel          string
	PanelRefresh   string
	PanelParams    string
	Agent          string
	Approve        string
	Reason         string
	Settings       string
	SettingsEdits  string
	SettingsSave   string
	ConnectionTest string
	WebSocket      string
	Events         string
}

type handler func(RequestContext) error

type route struct {
	method string
	path   string
	handle handler
}

// Register mounts dashboard routes (HTML, JSON, WebSocket, SSE) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	group := cfg.Router.Group(cfg.basePath())
	for _, r := range buildRoutes(cfg) {
		h := r.handle
		wrapped := router.WrapHandler(func(ctx router.Context) error { return h(ctx) })
		switch r.method {
		case http.MethodPost:
			group.Post(r.path, wrapped)
		case http.MethodPut:
			group.Put(r.path, wrapped)
		default:
			group.Get(r.path, wrapped)
		}
	}
	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, cfg.resolver(), cfg.routes().WebSocket)
		cfg.mountEvents()
	}
	return nil
}

func (cfg Config[T]) mountEvents() {
	if cfg.Broadcast == nil || cfg.Mount == nil {
		return
	}
	cfg.Mount(cfg.basePath()+cfg.routes().Events, StreamHandler(cfg.Broadcast.ServeSSE, cfg.streamResolver()))
}

// StreamHandler resolves the viewer before handing the request to serve.
// Anonymous requests are rejected instead of receiving every viewer's events.
func StreamHandler(serve http.HandlerFunc, resolve StreamResolver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, err := resolve(r)
		if err == nil && strings.TrimSpace(viewer.UserID) == "" {
			err = dashboard.ErrMissingViewer
		}
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(httpapi.StatusFor(err))
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		serve(w, r.WithContext(dashboard.ContextWithViewer(r.Context(), viewer)))
	})
}

func buildRoutes[T any](cfg Config[T]) []route {
	routes := cfg.routes()
	resolve := cfg.resolver()

	out := []route{
		{http.MethodGet, routes.HTML, func(ctx RequestContext) error {
			viewer, err := requireViewer(ctx, resolve)
			if err != nil {
				return respondError(ctx, err)
			}
			var buf bytes.Buffer
			if err := cfg.Controller.RenderTemplate(ctx.Context(), viewer, &buf); err != nil {
				return respondError(ctx, err)
			}
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send(buf.Bytes())
		}},
		{http.MethodGet, routes.View, func(ctx RequestContext) error {
			viewer, err := requireViewer(ctx, resolve)
			if err != nil {
				return respondError(ctx, err)
			}
			payload, err := cfg.Controller.Payload(ctx.Context(), viewer)
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, payload)
		}},
	}
	if cfg.API != nil {
		out = append(out, apiRoutes(cfg.API, resolve, routes)...)
	}
	return out
}

func apiRoutes(api *httpapi.Handlers, resolve ViewerResolver, routes RouteConfig) []route {
	var out []route
	if api.SelectView != nil {
		out = append(out, route{http.MethodPost, routes.SelectView, command(resolve, http.StatusOK, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			var body struct {
				View string `json:"view"`
			}
			if err := decode(ctx, &body); err != nil {
				return err
			}
			return api.SelectView.Execute(ctx.Context(), commands.SelectViewInput{Viewer: viewer, View: body.View})
		})})
	}
	if api.SetFilters != nil {
		out = append(out, route{http.MethodPost, routes.Filters, command(resolve, http.StatusOK, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			var body struct {
				Channel   string `json:"channel"`
				DateRange string `json:"date_range"`
			}
			if err := decode(ctx, &body); err != nil {
				return err
			}
			return api.SetFilters.Execute(ctx.Context(), commands.SetFiltersInput{Viewer: viewer, Channel: body.Channel, DateRange: body.DateRange})
		})})
	}
	if api.Panel != nil {
		out = append(out, route{http.MethodGet, routes.Panel, query(resolve, func(ctx RequestContext, viewer dashboard.ViewerContext) (any, error) {
			return api.Panel.Query(ctx.Context(), queries.PanelStateInput{Viewer: viewer, Panel: ctx.Param("panel")})
		})})
	}
	if api.RefreshPanel != nil {
		out = append(out, route{http.MethodPost, routes.PanelRefresh, command(resolve, http.StatusAccepted, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			return api.RefreshPanel.Execute(ctx.Context(), commands.RefreshPanelInput{Viewer: viewer, Panel: ctx.Param("panel")})
		})})
	}
	if api.SetPanelParams != nil {
		out = append(out, route{http.MethodPost, routes.PanelParams, command(resolve, http.StatusAccepted, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			params := map[string]any{}
			if err := decode(ctx, &params); err != nil {
				return err
			}
			return api.SetPanelParams.Execute(ctx.Context(), commands.SetPanelParamsInput{Viewer: viewer, Panel: ctx.Param("panel"), Params: params})
		})})
	}
	if api.Agent != nil {
		out = append(out, route{http.MethodGet, routes.Agent, query(resolve, func(ctx RequestContext, viewer dashboard.ViewerContext) (any, error) {
			return api.Agent.Query(ctx.Context(), viewer)
		})})
	}
	if api.Approve != nil {
		out = append(out, route{http.MethodPost, routes.Approve, command(resolve, http.StatusAccepted, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			return api.Approve.Execute(ctx.Context(), commands.ApproveInterventionInput{Viewer: viewer, InterventionID: ctx.Param("id")})
		})})
	}
	if api.Reason != nil {
		out = append(out, route{http.MethodPost, routes.Reason, command(resolve, http.StatusAccepted, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			return api.Reason.Execute(ctx.Context(), commands.RunReasoningInput{Viewer: viewer})
		})})
	}
	if api.Settings != nil {
		out = append(out, route{http.MethodGet, routes.Settings, query(resolve, func(ctx RequestContext, viewer dashboard.ViewerContext) (any, error) {
			return api.Settings.Query(ctx.Context(), viewer)
		})})
	}
	if api.ReplaceConfig != nil {
		out = append(out, route{http.MethodPut, routes.Settings, command(resolve, http.StatusOK, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			input := commands.ReplaceSettingsInput{Viewer: viewer}
			if err := decode(ctx, &input); err != nil {
				return err
			}
			input.Viewer = viewer
			return api.ReplaceConfig.Execute(ctx.Context(), input)
		})})
	}
	if api.EditConfig != nil {
		out = append(out, route{http.MethodPost, routes.SettingsEdits, command(resolve, http.StatusOK, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			input := commands.EditSettingsInput{}
			if err := decode(ctx, &input); err != nil {
				return err
			}
			input.Viewer = viewer
			return api.EditConfig.Execute(ctx.Context(), input)
		})})
	}
	if api.SaveConfig != nil {
		out = append(out, route{http.MethodPost, routes.SettingsSave, command(resolve, http.StatusOK, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			return api.SaveConfig.Execute(ctx.Context(), commands.SaveSettingsInput{Viewer: viewer})
		})})
	}
	if api.TestConnection != nil {
		out = append(out, route{http.MethodPost, routes.ConnectionTest, command(resolve, http.StatusOK, func(ctx RequestContext, viewer dashboard.ViewerContext) error {
			return api.TestConnection.Execute(ctx.Context(), commands.TestConnectionInput{Viewer: viewer, ConnectionID: ctx.Param("id")})
		})})
	}
	return out
}

var errBadBody = errors.New("gorouter: invalid request body")

func command(resolve ViewerResolver, status int, run func(RequestContext, dashboard.ViewerContext) error) handler {
	return func(ctx RequestContext) error {
		viewer, err := requireViewer(ctx, resolve)
		if err != nil {
			return respondError(ctx, err)
		}
		if err := run(ctx, viewer); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(status, map[string]string{"status": "ok"})
	}
}

func query(resolve ViewerResolver, run func(RequestContext, dashboard.ViewerContext) (any, error)) handler {
	return func(ctx RequestContext) error {
		viewer, err := requireViewer(ctx, resolve)
		if err != nil {
			return respondError(ctx, err)
		}
		result, err := run(ctx, viewer)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, result)
	}
}

func decode(ctx RequestContext, out any) error {
	body := ctx.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Join(errBadBody, err)
	}
	return nil
}

func requireViewer(ctx RequestContext, resolve ViewerResolver) (dashboard.ViewerContext, error) {
	viewer := resolve(ctx)
	if strings.TrimSpace(viewer.UserID) == "" {
		return viewer, dashboard.ErrMissingViewer
	}
	return viewer, nil
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, resolve ViewerResolver, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		viewer, err := websocketViewer(ws, resolve)
		if err != nil {
			_ = ws.WriteJSON(map[string]string{"error": err.Error()})
			_ = ws.Close()
			return err
		}
		events, cancel := hook.Subscribe(viewer.UserID)
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// websocketViewer resolves the viewer of an upgraded connection. A connection
// that cannot be resolved is never subscribed.
func websocketViewer(ws any, resolve ViewerResolver) (dashboard.ViewerContext, error) {
	rc, ok := ws.(RequestContext)
	if !ok {
		return dashboard.ViewerContext{}, dashboard.ErrMissingViewer
	}
	return requireViewer(rc, resolve)
}

func defaultViewerResolver(ctx RequestContext) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := dashboard.ViewerFromContext(ctx.Context()); ok {
		viewer = v
	} else if v, ok := ctx.Locals("user_id").(string); ok && v != "" {
		viewer.UserID = v
	} else if v := strings.TrimSpace(ctx.Header(httpapi.ViewerHeader)); v != "" {
		viewer.UserID = v
	} else {
		viewer.UserID = strings.TrimSpace(ctx.Query("viewer"))
	}
	if viewer.Locale == "" {
		viewer.Locale = inferLocale(ctx)
	}
	return viewer
}

func inferLocale(ctx RequestContext) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		return parseAcceptLanguage(header)
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx RequestContext, err error) error {
	status := httpapi.StatusFor(err)
	if errors.Is(err, errBadBody) {
		status = http.StatusBadRequest
	}
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config[T]) basePath() string {
	if cfg.BasePath == "" {
		return "/marketing"
	}
	return cfg.BasePath
}

func (cfg Config[T]) resolver() ViewerResolver {
	if cfg.ViewerResolver != nil {
		return cfg.ViewerResolver
	}
	return defaultViewerResolver
}

func (cfg Config[T]) streamResolver() StreamResolver {
	if cfg.StreamResolver != nil {
		return cfg.StreamResolver
	}
	return httpapi.ViewerFromRequest
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	defaults := []struct {
		field *string
		value string
	}{
		{&routes.HTML, "/dashboard"},
		{&routes.View, "/dashboard/_view"},
		{&routes.SelectView, "/dashboard/view"},
		{&routes.Filters, "/dashboard/filters"},
		{&routes.Panel, "/dashboard/panels/:panel"},
		{&routes.PanelRefresh, "/dashboard/panels/:panel/refresh"},
		{&routes.PanelParams, "/dashboard/panels/:panel/params"},
		{&routes.Agent, "/dashboard/agent"},
		{&routes.Approve, "/dashboard/agent/interventions/:id/approve"},
		{&routes.Reason, "/dashboard/agent/reason"},
		{&routes.Settings, "/dashboard/settings"},
		{&routes.SettingsEdits, "/dashboard/settings/edits"},
		{&routes.SettingsSave, "/dashboard/settings/save"},
		{&routes.ConnectionTest, "/dashboard/settings/connections/:id/test"},
		{&routes.WebSocket, "/dashboard/ws"},
		{&routes.Events, "/dashboard/events"},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = d.value
		}
	}
	return routes
}
