// Package httpapi exposes editing sessions and admin lists over HTTP. Every
// endpoint goes through a shared command or query.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rwadmin/components/editor"
	"github.com/goliatone/go-rwadmin/components/editor/commands"
	"github.com/goliatone/go-rwadmin/components/editor/queries"
	"github.com/goliatone/go-rwadmin/components/events"
	"github.com/goliatone/go-rwadmin/components/listing"
	"github.com/goliatone/go-rwadmin/components/preview"
	"github.com/google/uuid"
)

// DefaultConfirmWait is how long a mode request waits for an answer before
// it is reported as pending.
const DefaultConfirmWait = 100 * time.Millisecond

// DefaultPromptTTL bounds how long an unanswered mode prompt stays open.
const DefaultPromptTTL = 5 * time.Minute

// ErrUnknownList is returned for list namespaces with no registered query.
var ErrUnknownList = errors.New("httpapi: unknown list")

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Open      gocommand.Commander[editor.OpenRequest]
	Close     gocommand.Commander[commands.CloseSessionInput]
	Change    gocommand.Commander[commands.ApplyChangeInput]
	Mode      gocommand.Commander[commands.SwitchModeInput]
	Resolve   gocommand.Commander[commands.ResolveConfirmationInput]
	DeleteRow gocommand.Commander[commands.DeleteRowInput]

	Snapshot gocommand.Querier[queries.SessionInput, editor.Snapshot]
	Preview  gocommand.Querier[queries.PreviewInput, preview.Result]
	Validate gocommand.Querier[queries.SessionInput, queries.Validation]
	HTML     gocommand.Querier[queries.SessionInput, string]
	Lists    map[string]gocommand.Querier[queries.ListInput, any]

	// Events streams session events when set.
	Events *events.BroadcastHook

	ConfirmWait time.Duration
	PromptTTL   time.Duration
}

// NewHandlers wires every session endpoint to service.
func NewHandlers(service *editor.Service, telemetry commands.Telemetry) *Handlers {
	return &Handlers{
		Open:     commands.NewOpenSessionCommand(service, telemetry),
		Close:    commands.NewCloseSessionCommand(service, telemetry),
		Change:   commands.NewApplyChangeCommand(service, telemetry),
		Mode:     commands.NewSwitchModeCommand(service, telemetry),
		Resolve:  commands.NewResolveConfirmationCommand(service, telemetry),
		Snapshot: queries.NewSnapshotQuery(service),
		Preview:  queries.NewPreviewQuery(service),
		Validate: queries.NewValidateQuery(service),
		HTML:     queries.NewHTMLQuery(service),
		Lists:    map[string]gocommand.Querier[queries.ListInput, any]{},
	}
}

// ModeResponse reports a mode request. Pending is set when the confirmer had
// not answered within ConfirmWait; the outcome then arrives as an event.
type ModeResponse struct {
	Pending  bool            `json:"pending"`
	Decision editor.Decision `json:"decision,omitempty"`
	Mode     editor.Mode     `json:"mode,omitempty"`
}

// OpenSession opens a session, assigning an id when the request has none.
func (h *Handlers) OpenSession(ctx context.Context, req editor.OpenRequest) (editor.Snapshot, error) {
	if h.Open == nil || h.Snapshot == nil {
		return editor.Snapshot{}, errors.New("httpapi: open is not configured")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = uuid.NewString()
	}
	if err := h.Open.Execute(ctx, req); err != nil {
		return editor.Snapshot{}, err
	}
	return h.Snapshot.Query(ctx, queries.SessionInput{SessionID: req.SessionID})
}

// ApplyChange applies one change and returns the new snapshot.
func (h *Handlers) ApplyChange(ctx context.Context, input commands.ApplyChangeInput) (editor.Snapshot, error) {
	if h.Change == nil || h.Snapshot == nil {
		return editor.Snapshot{}, errors.New("httpapi: change is not configured")
	}
	if err := h.Change.Execute(ctx, input); err != nil {
		return editor.Snapshot{}, err
	}
	return h.Snapshot.Query(ctx, queries.SessionInput{SessionID: input.SessionID})
}

// SwitchMode requests a mode change. The switch keeps running after a
// pending response and is not tied to ctx cancellation; it gives up after
// PromptTTL, which leaves the mode unchanged.
func (h *Handlers) SwitchMode(ctx context.Context, input commands.SwitchModeInput) (ModeResponse, error) {
	if h.Mode == nil {
		return ModeResponse{}, errors.New("httpapi: mode is not configured")
	}
	wait := h.ConfirmWait
	if wait <= 0 {
		wait = DefaultConfirmWait
	}
	ttl := h.PromptTTL
	if ttl <= 0 {
		ttl = DefaultPromptTTL
	}
	var result editor.ModeResult
	input.Result = &result
	done := make(chan error, 1)
	go func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ttl)
		defer cancel()
		done <- h.Mode.Execute(runCtx, input)
	}()
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			return ModeResponse{}, err
		}
		return ModeResponse{Decision: result.Decision, Mode: result.Mode}, nil
	case <-timer.C:
		return ModeResponse{Pending: true}, nil
	case <-ctx.Done():
		return ModeResponse{Pending: true}, nil
	}
}

// List moves the named list and returns its view.
func (h *Handlers) List(ctx context.Context, namespace string, input queries.ListInput) (any, error) {
	q, ok := h.Lists[namespace]
	if !ok || q == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownList, namespace)
	}
	return q.Query(ctx, input)
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, editor.ErrSessionNotFound),
		errors.Is(err, ErrUnknownList),
		errors.Is(err, commands.ErrUnknownTable),
		errors.Is(err, editor.ErrUnknownConfirmation):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrUnknownMode),
		errors.Is(err, editor.ErrUnknownStep),
		errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrNotLayerStep),
		errors.Is(err, commands.ErrMissingInput),
		errors.Is(err, listing.ErrPageOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrFieldDisabled):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ListInputFromQuery reads page, search and filter[key] parameters.
func ListInputFromQuery(get func(string) string, keys []string) (queries.ListInput, error) {
	var input queries.ListInput
	if raw := get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return input, fmt.Errorf("%w: page %q", listing.ErrPageOutOfRange, raw)
		}
		input.Page = page
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, "filter["), "]")
		if name == "" {
			continue
		}
		if input.Filters == nil {
			input.Filters = map[string]string{}
		}
		input.Filters[name] = get(key)
	}
	for _, key := range keys {
		if key == "search" {
			term := get("search")
			input.Search = &term
		}
	}
	return input, nil
}

// HandleOpenSession opens a session from a JSON OpenRequest.
func (h *Handlers) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	var payload editor.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap, err := h.OpenSession(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleSnapshot returns the current session snapshot.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request, sessionID string) {
	snap, err := h.Snapshot.Query(r.Context(), queries.SessionInput{SessionID: sessionID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleHTML renders the session's step markup.
func (h *Handlers) HandleHTML(w http.ResponseWriter, r *http.Request, sessionID string) {
	markup, err := h.HTML.Query(r.Context(), queries.SessionInput{SessionID: sessionID})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

// HandleChange applies a field change.
func (h *Handlers) HandleChange(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload commands.ApplyChangeInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.SessionID = sessionID
	snap, err := h.ApplyChange(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleMode requests a mode switch. It answers 202 while the confirmation
// is still open.
func (h *Handlers) HandleMode(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload commands.SwitchModeInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.SessionID = sessionID
	res, err := h.SwitchMode(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Pending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

// HandleResolve answers a pending confirmation prompt.
func (h *Handlers) HandleResolve(w http.ResponseWriter, r *http.Request, promptID string) {
	var payload commands.ResolveConfirmationInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.PromptID = promptID
	if err := h.Resolve.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePreview renders the session preview. refresh=1 forces a render.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request, sessionID string) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	res, err := h.Preview.Query(r.Context(), queries.PreviewInput{SessionID: sessionID, Refresh: refresh})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleValidate runs every validator of the session.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request, sessionID string) {
	res, err := h.Validate.Query(r.Context(), queries.SessionInput{SessionID: sessionID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleClose discards the session.
func (h *Handlers) HandleClose(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.Close.Execute(r.Context(), commands.CloseSessionInput{SessionID: sessionID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList returns one page of the named list.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request, namespace string) {
	values := r.URL.Query()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	input, err := ListInputFromQuery(values.Get, keys)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.List(r.Context(), namespace, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDeleteRow deletes a row and reloads its list.
func (h *Handlers) HandleDeleteRow(w http.ResponseWriter, r *http.Request, namespace, id string) {
	if err := h.DeleteRow.Execute(r.Context(), commands.DeleteRowInput{Namespace: namespace, ID: id}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEvents streams the events of an open session, as Server-Sent Events
// or over a WebSocket when the request asks for an upgrade.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.Events == nil {
		http.Error(w, "event stream is not configured", http.StatusNotFound)
		return
	}
	if _, err := h.Snapshot.Query(r.Context(), queries.SessionInput{SessionID: sessionID}); err != nil {
		writeError(w, err)
		return
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		h.Events.ServeWebSocket(w, r, sessionID)
		return
	}
	h.Events.ServeSSE(w, r, sessionID)
}

// Mux mounts every handler on a standard library mux.
func (h *Handlers) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", h.HandleOpenSession)
	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSnapshot(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleClose(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /sessions/{id}/html", func(w http.ResponseWriter, r *http.Request) {
		h.HandleHTML(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /sessions/{id}/changes", func(w http.ResponseWriter, r *http.Request) {
		h.HandleChange(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /sessions/{id}/mode", func(w http.ResponseWriter, r *http.Request) {
		h.HandleMode(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /sessions/{id}/preview", func(w http.ResponseWriter, r *http.Request) {
		h.HandlePreview(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /sessions/{id}/validate", func(w http.ResponseWriter, r *http.Request) {
		h.HandleValidate(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /sessions/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		h.HandleEvents(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /confirmations/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleResolve(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /lists/{namespace}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleList(w, r, r.PathValue("namespace"))
	})
	mux.HandleFunc("DELETE /lists/{namespace}/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeleteRow(w, r, r.PathValue("namespace"), r.PathValue("id"))
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}
