package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrSessionRequired is returned when a client stream names no session.
var ErrSessionRequired = errors.New("events: session is required")

// BroadcastHook fans out session events to in-process subscribers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]subscription
	next int
}

type subscription struct {
	session string
	ch      chan Event
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]subscription),
	}
}

// Publish satisfies Hook. Slow subscribers miss events instead of blocking the publisher.
func (h *BroadcastHook) Publish(_ context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.session != "" && event.Session != "" && sub.session != event.Session {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of events and a cancel func. An empty session
// receives events for every session and is meant for in-process consumers;
// client streams go through Relay.
func (h *BroadcastHook) Subscribe(session string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 16)
	h.subs[id] = subscription{session: session, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Relay writes the events of one session until ctx is done, the subscription
// closes or write fails. Events without a session, such as list
// notifications, are relayed to every stream.
func (h *BroadcastHook) Relay(ctx context.Context, session string, write func(Event) error) error {
	session = strings.TrimSpace(session)
	if session == "" {
		return ErrSessionRequired
	}
	stream, cancel := h.Subscribe(session)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-stream:
			if !ok {
				return nil
			}
			if err := write(event); err != nil {
				return err
			}
		}
	}
}

// ServeWebSocket upgrades the request and streams the events of session as
// JSON.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request, session string) {
	if strings.TrimSpace(session) == "" {
		http.Error(w, ErrSessionRequired.Error(), http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_ = h.Relay(r.Context(), session, func(event Event) error {
		return conn.WriteJSON(event)
	})
}

// ServeSSE streams the events of session as Server-Sent Events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request, session string) {
	if strings.TrimSpace(session) == "" {
		http.Error(w, ErrSessionRequired.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	_ = h.Relay(r.Context(), session, func(event Event) error {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}
