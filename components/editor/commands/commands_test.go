package commands

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-rwadmin/components/editor"
	"github.com/goliatone/go-rwadmin/components/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopViews struct{}

func (nopViews) Render(string, any, ...io.Writer) (string, error) { return "", nil }

type stubTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func newService(confirmer editor.Confirmer) *editor.Service {
	return editor.NewService(editor.Options{Views: nopViews{}, Confirmer: confirmer})
}

func openWidget(t *testing.T, svc *editor.Service, id string) {
	t.Helper()
	cmd := NewOpenSessionCommand(svc, nil)
	require.NoError(t, cmd.Execute(context.Background(), editor.OpenRequest{
		SessionID: id,
		Kind:      editor.StepWidget,
		Form:      editor.FormState{"dataset": "ds-1"},
	}))
}

func TestOpenSessionCommandRequiresID(t *testing.T) {
	cmd := NewOpenSessionCommand(newService(nil), nil)
	err := cmd.Execute(context.Background(), editor.OpenRequest{Kind: editor.StepWidget})
	assert.ErrorIs(t, err, ErrMissingInput)

	err = NewOpenSessionCommand(nil, nil).Execute(context.Background(), editor.OpenRequest{SessionID: "s"})
	assert.Error(t, err)
}

func TestApplyChangeCommand(t *testing.T) {
	svc := newService(nil)
	telemetry := &stubTelemetry{}
	openWidget(t, svc, "s-1")

	cmd := NewApplyChangeCommand(svc, telemetry)
	require.NoError(t, cmd.Execute(context.Background(), ApplyChangeInput{SessionID: "s-1", Field: "name", Value: "Forest"}))
	require.NoError(t, cmd.Execute(context.Background(), ApplyChangeInput{
		SessionID: "s-1",
		Partial:   editor.FormState{"description": "Loss by year"},
	}))

	snap, err := svc.Snapshot(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Forest", snap.Form.String("name"))
	assert.Equal(t, "Loss by year", snap.Form.String("description"))
	assert.Equal(t, []string{"rwadmin.form.change", "rwadmin.form.change"}, telemetry.events)

	err = cmd.Execute(context.Background(), ApplyChangeInput{SessionID: "s-1"})
	assert.ErrorIs(t, err, ErrMissingInput)
	err = cmd.Execute(context.Background(), ApplyChangeInput{SessionID: "missing", Field: "name", Value: "x"})
	assert.ErrorIs(t, err, editor.ErrSessionNotFound)
}

func TestSwitchModeCommandReportsResult(t *testing.T) {
	svc := newService(editor.StaticConfirmer(editor.Accepted))
	openWidget(t, svc, "s-1")

	var result editor.ModeResult
	cmd := NewSwitchModeCommand(svc, nil)
	require.NoError(t, cmd.Execute(context.Background(), SwitchModeInput{SessionID: "s-1", Mode: "Editor", Result: &result}))
	assert.Equal(t, editor.Accepted, result.Decision)
	assert.Equal(t, editor.ModeEditor, result.Mode)

	err := cmd.Execute(context.Background(), SwitchModeInput{SessionID: "s-1", Mode: "wysiwyg"})
	assert.ErrorIs(t, err, editor.ErrUnknownMode)
}

func TestResolveConfirmationCommand(t *testing.T) {
	confirmer := editor.NewPendingConfirmer(nil)
	svc := newService(confirmer)
	openWidget(t, svc, "s-1")

	done := make(chan editor.ModeResult, 1)
	go func() {
		var result editor.ModeResult
		_ = NewSwitchModeCommand(svc, nil).Execute(context.Background(), SwitchModeInput{SessionID: "s-1", Mode: "editor", Result: &result})
		done <- result
	}()

	require.Eventually(t, func() bool { return len(confirmer.Pending()) == 1 }, time.Second, 5*time.Millisecond)
	prompt := confirmer.Pending()[0]

	cmd := NewResolveConfirmationCommand(svc, nil)
	assert.ErrorIs(t, cmd.Execute(context.Background(), ResolveConfirmationInput{PromptID: prompt.ID, Decision: "maybe"}), editor.ErrUnknownConfirmation)
	require.NoError(t, cmd.Execute(context.Background(), ResolveConfirmationInput{PromptID: prompt.ID, Decision: string(editor.Declined)}))

	result := <-done
	assert.Equal(t, editor.Declined, result.Decision)
	assert.Equal(t, editor.ModeAdvanced, result.Mode)
}

func TestCloseSessionCommand(t *testing.T) {
	svc := newService(nil)
	openWidget(t, svc, "s-1")
	cmd := NewCloseSessionCommand(svc, nil)
	require.NoError(t, cmd.Execute(context.Background(), CloseSessionInput{SessionID: "s-1"}))
	assert.ErrorIs(t, cmd.Execute(context.Background(), CloseSessionInput{SessionID: "s-1"}), editor.ErrSessionNotFound)
}

func TestDeleteRowCommand(t *testing.T) {
	rows := []string{"a", "b", "c"}
	var mu sync.Mutex
	source := func(_ context.Context, q listing.Query) (listing.Page[string], error) {
		mu.Lock()
		defer mu.Unlock()
		return listing.Page[string]{Items: append([]string(nil), rows...)}, nil
	}
	list := listing.New[string]("paginated-collections", source)
	require.NoError(t, list.Load(context.Background()))

	deleted := ""
	del := func(_ context.Context, id string) error {
		mu.Lock()
		defer mu.Unlock()
		deleted = id
		rows = rows[1:]
		return nil
	}
	telemetry := &stubTelemetry{}
	cmd := NewDeleteRowCommand(map[string]Table{"collections": {Rows: list, Delete: del}}, telemetry)

	require.NoError(t, cmd.Execute(context.Background(), DeleteRowInput{Namespace: "collections", ID: "a"}))
	assert.Equal(t, "a", deleted)
	assert.Equal(t, []string{"b", "c"}, list.View().Items)
	assert.Equal(t, []string{"rwadmin.row.delete"}, telemetry.events)

	err := cmd.Execute(context.Background(), DeleteRowInput{Namespace: "layers", ID: "a"})
	assert.ErrorIs(t, err, ErrUnknownTable)

	err = cmd.Execute(context.Background(), DeleteRowInput{Namespace: "collections"})
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.EqualError(t, err, "commands: missing input: delete requires a row id")
}

func TestDeleteRowCommandPropagatesAPIErrors(t *testing.T) {
	source := func(context.Context, listing.Query) (listing.Page[string], error) {
		return listing.Page[string]{}, nil
	}
	list := listing.New[string]("paginated-dashboards", source)
	boom := errors.New("forbidden")
	cmd := NewDeleteRowCommand(map[string]Table{
		"dashboards": {Rows: list, Delete: func(context.Context, string) error { return boom }},
	}, nil)
	err := cmd.Execute(context.Background(), DeleteRowInput{Namespace: "dashboards", ID: "d-1"})
	assert.ErrorIs(t, err, boom)
}
