package events

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publishUntil keeps publishing for two sessions until stop is closed, so the
// assertions do not depend on when the stream subscribes.
func publishUntil(hook *BroadcastHook, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = hook.Publish(context.Background(), Event{Kind: KindFormChanged, Session: "other"})
			_ = hook.Publish(context.Background(), Event{Kind: KindConfirm, Session: "s1"})
		}
	}
}

func sessionServer(hook *BroadcastHook, serve func(*BroadcastHook, http.ResponseWriter, *http.Request, string)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serve(hook, w, r, r.URL.Query().Get("session"))
	}))
}

func TestRelayRequiresSession(t *testing.T) {
	hook := NewBroadcastHook()
	err := hook.Relay(context.Background(), " ", func(Event) error { return nil })
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestRelayStopsOnContextAndWriteError(t *testing.T) {
	hook := NewBroadcastHook()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- hook.Relay(ctx, "s1", func(Event) error { return assert.AnError })
	}()
	stop := make(chan struct{})
	go publishUntil(hook, stop)
	defer close(stop)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(time.Second):
		t.Fatal("relay did not return the write error")
	}

	go func() {
		done <- hook.Relay(ctx, "s1", func(Event) error { return nil })
	}()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop on cancel")
	}
}

func TestServeWebSocketStreamsOneSession(t *testing.T) {
	hook := NewBroadcastHook()
	server := sessionServer(hook, (*BroadcastHook).ServeWebSocket)
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?session=s1", nil)
	require.NoError(t, err)
	defer conn.Close()

	stop := make(chan struct{})
	go publishUntil(hook, stop)
	defer close(stop)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := 0; i < 3; i++ {
		var evt Event
		require.NoError(t, conn.ReadJSON(&evt))
		assert.Equal(t, "s1", evt.Session)
		assert.Equal(t, KindConfirm, evt.Kind)
	}
}

func TestServeSSEStreamsOneSession(t *testing.T) {
	hook := NewBroadcastHook()
	server := sessionServer(hook, (*BroadcastHook).ServeSSE)
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?session=s1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	stop := make(chan struct{})
	go publishUntil(hook, stop)
	defer close(stop)

	scanner := bufio.NewScanner(resp.Body)
	var got []Event
	for scanner.Scan() && len(got) < 3 {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		got = append(got, evt)
	}
	require.Len(t, got, 3)
	for _, evt := range got {
		assert.Equal(t, "s1", evt.Session)
	}
}
