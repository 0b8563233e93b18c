package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rwadmin/components/editor"
	"github.com/goliatone/go-rwadmin/components/editor/commands"
	"github.com/goliatone/go-rwadmin/components/editor/queries"
	"github.com/goliatone/go-rwadmin/components/events"
	"github.com/goliatone/go-rwadmin/components/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubViews struct{}

func (stubViews) Render(string, any, ...io.Writer) (string, error) { return "<form>step</form>", nil }

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

func newHandlers(t *testing.T, confirmer editor.Confirmer) (*Handlers, *editor.Service) {
	t.Helper()
	svc := editor.NewService(editor.Options{Views: stubViews{}, Confirmer: confirmer})
	return NewHandlers(svc, nil), svc
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSessionLifecycle(t *testing.T) {
	h, _ := newHandlers(t, nil)
	mux := h.Mux()

	rec := do(t, mux, http.MethodPost, "/sessions", editor.OpenRequest{Kind: editor.StepDataset})
	require.Equal(t, http.StatusCreated, rec.Code)
	snap := decode[editor.Snapshot](t, rec)
	require.NotEmpty(t, snap.ID)

	rec = do(t, mux, http.MethodPost, "/sessions/"+snap.ID+"/changes", commands.ApplyChangeInput{Field: "name", Value: "Soil carbon"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode[editor.Snapshot](t, rec)
	assert.Equal(t, "Soil carbon", snap.Form.String("name"))

	rec = do(t, mux, http.MethodGet, "/sessions/"+snap.ID+"/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	validation := decode[queries.Validation](t, rec)
	assert.False(t, validation.Valid)
	assert.Contains(t, validation.Errors, "provider")

	rec = do(t, mux, http.MethodGet, "/sessions/"+snap.ID+"/html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<form>step</form>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = do(t, mux, http.MethodDelete, "/sessions/"+snap.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, mux, http.MethodGet, "/sessions/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChangeRejectsDisabledField(t *testing.T) {
	h, svc := newHandlers(t, nil)
	snap, err := svc.Open(context.Background(), editor.OpenRequest{Kind: editor.StepWidget, ID: "w-1", Form: editor.FormState{"dataset": "ds-1"}})
	require.NoError(t, err)

	rec := do(t, h.Mux(), http.MethodPost, "/sessions/"+snap.ID+"/changes", commands.ApplyChangeInput{Field: "dataset", Value: "ds-2"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestModeSwitchAnsweredImmediately(t *testing.T) {
	h, svc := newHandlers(t, editor.StaticConfirmer(editor.Accepted))
	h.ConfirmWait = time.Second
	snap, err := svc.Open(context.Background(), editor.OpenRequest{Kind: editor.StepWidget, Form: editor.FormState{"dataset": "ds-1"}})
	require.NoError(t, err)

	rec := do(t, h.Mux(), http.MethodPost, "/sessions/"+snap.ID+"/mode", map[string]string{"mode": "editor"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[ModeResponse](t, rec)
	assert.False(t, res.Pending)
	assert.Equal(t, editor.Accepted, res.Decision)
	assert.Equal(t, editor.ModeEditor, res.Mode)

	rec = do(t, h.Mux(), http.MethodPost, "/sessions/"+snap.ID+"/mode", map[string]string{"mode": "visual"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModeSwitchPendingThenResolved(t *testing.T) {
	confirmer := editor.NewPendingConfirmer(nil)
	h, svc := newHandlers(t, confirmer)
	h.ConfirmWait = 10 * time.Millisecond
	snap, err := svc.Open(context.Background(), editor.OpenRequest{Kind: editor.StepWidget, Form: editor.FormState{"dataset": "ds-1"}})
	require.NoError(t, err)
	mux := h.Mux()

	rec := do(t, mux, http.MethodPost, "/sessions/"+snap.ID+"/mode", map[string]string{"mode": "editor"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decode[ModeResponse](t, rec).Pending)

	require.Eventually(t, func() bool { return len(confirmer.Pending()) == 1 }, time.Second, 5*time.Millisecond)
	prompt := confirmer.Pending()[0]
	assert.Equal(t, editor.SwitchMessage(editor.ModeEditor), prompt.Message)

	rec = do(t, mux, http.MethodPost, "/confirmations/"+prompt.ID, map[string]string{"decision": "accepted"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Eventually(t, func() bool {
		s, err := svc.Snapshot(context.Background(), snap.ID)
		return err == nil && s.Mode == editor.ModeEditor
	}, time.Second, 5*time.Millisecond)

	rec = do(t, mux, http.MethodPost, "/confirmations/"+prompt.ID, map[string]string{"decision": "accepted"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModeSwitchPromptExpires(t *testing.T) {
	confirmer := editor.NewPendingConfirmer(nil)
	h, svc := newHandlers(t, confirmer)
	h.ConfirmWait = 5 * time.Millisecond
	h.PromptTTL = 50 * time.Millisecond
	snap, err := svc.Open(context.Background(), editor.OpenRequest{Kind: editor.StepWidget, Form: editor.FormState{"dataset": "ds-1"}})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		res, err := h.SwitchMode(context.Background(), commands.SwitchModeInput{SessionID: snap.ID, Mode: "editor"})
		require.NoError(t, err)
		assert.True(t, res.Pending)
	}
	require.Eventually(t, func() bool { return len(confirmer.Pending()) == 5 }, time.Second, time.Millisecond)

	require.Eventually(t, func() bool { return len(confirmer.Pending()) == 0 }, time.Second, 5*time.Millisecond)
	current, err := svc.Snapshot(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, editor.ModeAdvanced, current.Mode)
}

func TestSessionEventsAreScopedToTheSession(t *testing.T) {
	hook := events.NewBroadcastHook()
	svc := editor.NewService(editor.Options{Views: stubViews{}, Hook: hook})
	h := NewHandlers(svc, nil)
	h.Events = hook
	server := httptest.NewServer(h.Mux())
	t.Cleanup(server.Close)

	ctx := context.Background()
	mine, err := svc.Open(ctx, editor.OpenRequest{Kind: editor.StepDataset})
	require.NoError(t, err)
	other, err := svc.Open(ctx, editor.OpenRequest{Kind: editor.StepDataset})
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/sessions/missing/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, server.URL+"/sessions/"+mine.ID+"/events", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
			}
			name := fmt.Sprintf("name-%d", i)
			_, _ = svc.Change(ctx, other.ID, editor.FieldInput{Field: "name", Value: name})
			_, _ = svc.Change(ctx, mine.ID, editor.FieldInput{Field: "name", Value: name})
		}
	}()

	scanner := bufio.NewScanner(resp.Body)
	seen := 0
	for seen < 3 && scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt events.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		assert.Equal(t, mine.ID, evt.Session)
		seen++
	}
	assert.Equal(t, 3, seen)
}

func TestListEndpoints(t *testing.T) {
	rows := []string{"a", "b"}
	list := listing.New[string]("paginated-collections", func(_ context.Context, q listing.Query) (listing.Page[string], error) {
		total, pages := len(rows), 1
		return listing.Page[string]{Items: append([]string(nil), rows...), Meta: listing.Meta{TotalItems: &total, TotalPages: &pages}}, nil
	})
	deleteRow := &stubCommander[commands.DeleteRowInput]{}
	h := &Handlers{
		Lists:     map[string]gocommand.Querier[queries.ListInput, any]{"collections": queries.Erase(queries.NewListQuery[string](list))},
		DeleteRow: deleteRow,
	}
	mux := h.Mux()

	rec := do(t, mux, http.MethodGet, "/lists/collections?page=1&filter%5Bpublished%5D=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[listing.View[string]](t, rec)
	assert.Equal(t, []string{"a", "b"}, view.Items)
	assert.Equal(t, "true", list.Query().Filters["published"])

	rec = do(t, mux, http.MethodGet, "/lists/collections?page=7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/lists/areas", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodDelete, "/lists/collections/c-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, commands.DeleteRowInput{Namespace: "collections", ID: "c-1"}, deleteRow.last)
}

func TestListInputFromQuery(t *testing.T) {
	values := map[string]string{"page": "3", "search": "tree", "filter[env]": "production", "filter[]": "x"}
	keys := []string{"page", "search", "filter[env]", "filter[]"}
	input, err := ListInputFromQuery(func(k string) string { return values[k] }, keys)
	require.NoError(t, err)
	assert.Equal(t, 3, input.Page)
	require.NotNil(t, input.Search)
	assert.Equal(t, "tree", *input.Search)
	assert.Equal(t, map[string]string{"env": "production"}, input.Filters)

	_, err = ListInputFromQuery(func(string) string { return "two" }, []string{"page"})
	assert.ErrorIs(t, err, listing.ErrPageOutOfRange)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(nil))
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("x: %w", editor.ErrSessionNotFound)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("%w: delete requires a row id", commands.ErrMissingInput)))
	assert.Equal(t, http.StatusConflict, StatusFor(editor.ErrFieldDisabled))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}
