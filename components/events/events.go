package events

import (
	"context"
	"log/slog"
	"time"
)

// Event kinds emitted by editing sessions and list fetchers.
const (
	KindLoading      = "preview.loading"
	KindPreview      = "preview.rendered"
	KindFormChanged  = "form.changed"
	KindModeChanged  = "mode.changed"
	KindConfirm      = "confirm.requested"
	KindNotification = "notification"
)

// Event describes something a connected client may want to react to.
type Event struct {
	Kind      string         `json:"kind"`
	Session   string         `json:"session,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	EmittedAt time.Time      `json:"emitted_at"`
}

// Hook receives session events. Implementations must not block.
type Hook interface {
	Publish(ctx context.Context, event Event) error
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx context.Context, event Event) error

// Publish calls fn.
func (fn HookFunc) Publish(ctx context.Context, event Event) error {
	return fn(ctx, event)
}

// Notifier surfaces user-visible notifications (the toast layer of the admin UI).
type Notifier interface {
	Error(ctx context.Context, message string, err error)
}

// NoopHook drops every event.
type NoopHook struct{}

// Publish implements Hook.
func (NoopHook) Publish(context.Context, Event) error { return nil }

// Normalize returns the hook or a noop hook.
func Normalize(h Hook) Hook {
	if h == nil {
		return NoopHook{}
	}
	return h
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Error implements Notifier.
func (n LogNotifier) Error(ctx context.Context, message string, err error) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, message, "error", err)
}

// HookNotifier publishes notifications as events so browsers can show them.
type HookNotifier struct {
	Hook    Hook
	Session string
}

// Error implements Notifier.
func (n HookNotifier) Error(ctx context.Context, message string, err error) {
	payload := map[string]any{"level": "error", "message": message}
	if err != nil {
		payload["error"] = err.Error()
	}
	_ = Normalize(n.Hook).Publish(ctx, Event{
		Kind:      KindNotification,
		Session:   n.Session,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	})
}
