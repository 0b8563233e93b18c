// Package gorouter mounts the editor and list endpoints on a go-router router.
package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-rwadmin/components/editor"
	"github.com/goliatone/go-rwadmin/components/editor/commands"
	"github.com/goliatone/go-rwadmin/components/editor/httpapi"
	"github.com/goliatone/go-rwadmin/components/editor/queries"
	"github.com/goliatone/go-rwadmin/components/events"
)

// ViewerResolver converts a router.Context into the signed-in admin user.
type ViewerResolver func(router.Context) editor.Viewer

// Config wires go-router with the editor API and event stream.
type Config[T any] struct {
	Router         router.Router[T]
	API            *httpapi.Handlers
	Broadcast      *events.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for editor endpoints.
type RouteConfig struct {
	Sessions     string
	Session      string
	HTML         string
	Changes      string
	Mode         string
	Preview      string
	Validate     string
	Confirmation string
	List         string
	Row          string
	WebSocket    string
	ListFilters  []string
}

// Register mounts editor routes (JSON, HTML, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}
	group := cfg.Router.Group(base)
	registerSessions(group, cfg.API, resolver, routes)
	registerLists(group, cfg.API, routes)
	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, cfg.API, routes.WebSocket)
	}
	return nil
}

func registerSessions[T any](r router.Router[T], api *httpapi.Handlers, resolver ViewerResolver, routes RouteConfig) {
	r.Post(routes.Sessions, router.WrapHandler(func(ctx router.Context) error {
		var payload editor.OpenRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.User = resolver(ctx)
		snap, err := api.OpenSession(ctx.Context(), payload)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, snap)
	}))

	r.Get(routes.Session, router.WrapHandler(func(ctx router.Context) error {
		snap, err := api.Snapshot.Query(ctx.Context(), queries.SessionInput{SessionID: ctx.Param("id")})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Delete(routes.Session, router.WrapHandler(func(ctx router.Context) error {
		if err := api.Close.Execute(ctx.Context(), commands.CloseSessionInput{SessionID: ctx.Param("id")}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusNoContent, map[string]string{"status": "closed"})
	}))

	r.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		markup, err := api.HTML.Query(ctx.Context(), queries.SessionInput{SessionID: ctx.Param("id")})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send([]byte(markup))
	}))

	r.Post(routes.Changes, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ApplyChangeInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.SessionID = ctx.Param("id")
		snap, err := api.ApplyChange(ctx.Context(), payload)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Post(routes.Mode, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SwitchModeInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.SessionID = ctx.Param("id")
		res, err := api.SwitchMode(ctx.Context(), payload)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		if res.Pending {
			return ctx.JSON(http.StatusAccepted, res)
		}
		return ctx.JSON(http.StatusOK, res)
	}))

	r.Post(routes.Confirmation, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ResolveConfirmationInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.PromptID = ctx.Param("id")
		if err := api.Resolve.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "resolved"})
	}))

	r.Get(routes.Preview, router.WrapHandler(func(ctx router.Context) error {
		refresh, _ := strconv.ParseBool(ctx.Query("refresh"))
		res, err := api.Preview.Query(ctx.Context(), queries.PreviewInput{SessionID: ctx.Param("id"), Refresh: refresh})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, res)
	}))

	r.Get(routes.Validate, router.WrapHandler(func(ctx router.Context) error {
		res, err := api.Validate.Query(ctx.Context(), queries.SessionInput{SessionID: ctx.Param("id")})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, res)
	}))
}

func registerLists[T any](r router.Router[T], api *httpapi.Handlers, routes RouteConfig) {
	r.Get(routes.List, router.WrapHandler(func(ctx router.Context) error {
		keys := []string{}
		for _, key := range append([]string{"page", "search"}, filterKeys(routes.ListFilters)...) {
			if ctx.Query(key) != "" {
				keys = append(keys, key)
			}
		}
		input, err := httpapi.ListInputFromQuery(func(k string) string { return ctx.Query(k) }, keys)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		view, err := api.List(ctx.Context(), ctx.Param("namespace"), input)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, view)
	}))

	if api.DeleteRow == nil {
		return
	}
	r.Delete(routes.Row, router.WrapHandler(func(ctx router.Context) error {
		input := commands.DeleteRowInput{Namespace: ctx.Param("namespace"), ID: ctx.Param("id")}
		if input.ID == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("row id is required"))
		}
		if err := api.DeleteRow.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusNoContent, map[string]string{"status": "removed"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *events.BroadcastHook, api *httpapi.Handlers, path string) {
	cfg := router.DefaultWebSocketConfig()
	open := func(ctx context.Context, session string) error {
		if api.Snapshot == nil {
			return nil
		}
		_, err := api.Snapshot.Query(ctx, queries.SessionInput{SessionID: session})
		return err
	}
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		return streamEvents(ws.Context(), hook, open, ws.Query("session"), ws.WriteJSON, ws.Close)
	})
}

// streamEvents relays the events of one open session to a socket.
// Connections naming no session, or a session that is not open, get an error
// frame and are closed.
func streamEvents(ctx context.Context, hook *events.BroadcastHook, open func(context.Context, string) error, session string, write func(any) error, closeConn func() error) error {
	session = strings.TrimSpace(session)
	if session == "" {
		_ = write(map[string]string{"error": events.ErrSessionRequired.Error()})
		return closeConn()
	}
	if err := open(ctx, session); err != nil {
		_ = write(map[string]string{"error": err.Error()})
		return closeConn()
	}
	if err := hook.Relay(ctx, session, func(event events.Event) error {
		return write(event)
	}); err != nil {
		return err
	}
	return closeConn()
}

func filterKeys(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, "filter["+name+"]")
	}
	return out
}

func defaultViewerResolver(ctx router.Context) editor.Viewer {
	var viewer editor.Viewer
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if v, ok := ctx.Locals("role").(string); ok {
		viewer.Role = v
	}
	viewer.Token = strings.TrimSpace(ctx.Header("Authorization"))
	return viewer
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Sessions == "" {
		routes.Sessions = "/editor/sessions"
	}
	if routes.Session == "" {
		routes.Session = "/editor/sessions/:id"
	}
	if routes.HTML == "" {
		routes.HTML = "/editor/sessions/:id/html"
	}
	if routes.Changes == "" {
		routes.Changes = "/editor/sessions/:id/changes"
	}
	if routes.Mode == "" {
		routes.Mode = "/editor/sessions/:id/mode"
	}
	if routes.Preview == "" {
		routes.Preview = "/editor/sessions/:id/preview"
	}
	if routes.Validate == "" {
		routes.Validate = "/editor/sessions/:id/validate"
	}
	if routes.Confirmation == "" {
		routes.Confirmation = "/editor/confirmations/:id"
	}
	if routes.List == "" {
		routes.List = "/lists/:namespace"
	}
	if routes.Row == "" {
		routes.Row = "/lists/:namespace/:id"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/editor/ws"
	}
	if routes.ListFilters == nil {
		routes.ListFilters = []string{"published", "env", "application", "user.role"}
	}
	return routes
}
