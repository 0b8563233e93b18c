package editor

import "context"

// Telemetry records editor events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// Telemetry event names.
const (
	EventSessionOpened = "editor.session.opened"
	EventFieldChanged  = "editor.field.changed"
	EventModeRequested = "editor.mode.requested"
	EventPreview       = "editor.preview.rendered"
	EventLayerVerified = "editor.layer.verified"
	EventSessionClosed = "editor.session.closed"
)
