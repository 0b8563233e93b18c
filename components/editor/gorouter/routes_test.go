package gorouter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-rwadmin/components/editor"
	"github.com/goliatone/go-rwadmin/components/editor/httpapi"
	"github.com/goliatone/go-rwadmin/components/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "router is required")

	err = Register(Config[struct{}]{API: &httpapi.Handlers{}})
	require.Error(t, err)
}

func TestDefaultRouteConfig(t *testing.T) {
	routes := defaultRouteConfig(RouteConfig{Mode: "/custom/:id/mode"})
	assert.Equal(t, "/custom/:id/mode", routes.Mode)
	assert.Equal(t, "/editor/sessions/:id/changes", routes.Changes)
	assert.Equal(t, "/lists/:namespace/:id", routes.Row)
	assert.Contains(t, routes.ListFilters, "published")
}

func TestFilterKeys(t *testing.T) {
	assert.Equal(t, []string{"filter[env]", "filter[user.role]"}, filterKeys([]string{"env", "user.role"}))
}

type socketRecorder struct {
	mu     sync.Mutex
	frames []any
	closed bool
}

func (s *socketRecorder) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, v)
	return nil
}

func (s *socketRecorder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *socketRecorder) events() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Event
	for _, f := range s.frames {
		if evt, ok := f.(events.Event); ok {
			out = append(out, evt)
		}
	}
	return out
}

func openSessions(ids ...string) func(context.Context, string) error {
	return func(_ context.Context, session string) error {
		for _, id := range ids {
			if id == session {
				return nil
			}
		}
		return editor.ErrSessionNotFound
	}
}

func TestStreamEventsRejectsMissingOrUnknownSession(t *testing.T) {
	hook := events.NewBroadcastHook()
	for _, session := range []string{"", "gone"} {
		sock := &socketRecorder{}
		err := streamEvents(context.Background(), hook, openSessions("s1"), session, sock.WriteJSON, sock.Close)
		require.NoError(t, err)
		assert.True(t, sock.closed)
		require.Len(t, sock.frames, 1)
		assert.Contains(t, sock.frames[0], "error")
	}
}

func TestStreamEventsOnlyRelaysItsSession(t *testing.T) {
	hook := events.NewBroadcastHook()
	sock := &socketRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- streamEvents(ctx, hook, openSessions("s1", "s2"), "s1", sock.WriteJSON, sock.Close)
	}()

	require.Eventually(t, func() bool {
		_ = hook.Publish(context.Background(), events.Event{Kind: events.KindConfirm, Session: "s2"})
		_ = hook.Publish(context.Background(), events.Event{Kind: events.KindFormChanged, Session: "s1"})
		return len(sock.events()) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not stop")
	}
	assert.True(t, sock.closed)
	for _, evt := range sock.events() {
		assert.Equal(t, "s1", evt.Session)
		assert.Equal(t, events.KindFormChanged, evt.Kind)
	}
}
