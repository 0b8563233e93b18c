package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rwadmin/components/editor"
)

type openService interface {
	Open(ctx context.Context, req editor.OpenRequest) (editor.Snapshot, error)
}

// OpenSessionCommand mounts a step. Callers pick the session id up front so
// they can address the session afterwards.
type OpenSessionCommand struct {
	service   openService
	telemetry Telemetry
}

// NewOpenSessionCommand creates a command instance.
func NewOpenSessionCommand(service openService, telemetry Telemetry) *OpenSessionCommand {
	return &OpenSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[editor.OpenRequest] = (*OpenSessionCommand)(nil)

// Execute opens the session.
func (c *OpenSessionCommand) Execute(ctx context.Context, msg editor.OpenRequest) error {
	if c.service == nil {
		return errors.New("open command requires service")
	}
	if msg.SessionID == "" {
		return fmt.Errorf("%w: open requires a session id", ErrMissingInput)
	}
	if _, err := c.service.Open(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rwadmin.session.open", map[string]any{
		"session": msg.SessionID,
		"kind":    string(msg.Kind),
	})
	return nil
}

// CloseSessionInput identifies the session to discard.
type CloseSessionInput struct {
	SessionID string `json:"session_id"`
}

type closeService interface {
	Close(ctx context.Context, id string) error
}

// CloseSessionCommand discards a session and its draft.
type CloseSessionCommand struct {
	service   closeService
	telemetry Telemetry
}

// NewCloseSessionCommand creates a command instance.
func NewCloseSessionCommand(service closeService, telemetry Telemetry) *CloseSessionCommand {
	return &CloseSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseSessionInput] = (*CloseSessionCommand)(nil)

// Execute closes the session.
func (c *CloseSessionCommand) Execute(ctx context.Context, msg CloseSessionInput) error {
	if c.service == nil {
		return errors.New("close command requires service")
	}
	if err := c.service.Close(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rwadmin.session.close", map[string]any{"session": msg.SessionID})
	return nil
}
