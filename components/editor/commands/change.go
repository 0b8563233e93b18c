package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rwadmin/components/editor"
)

// ApplyChangeInput carries either raw input for one field or a partial state
// merged as is. Field wins when both are set.
type ApplyChangeInput struct {
	SessionID string           `json:"session_id"`
	Field     string           `json:"field,omitempty"`
	Value     any              `json:"value,omitempty"`
	Partial   editor.FormState `json:"partial,omitempty"`
}

type changeService interface {
	Change(ctx context.Context, id string, input editor.FieldInput) (editor.Snapshot, error)
	Apply(ctx context.Context, id string, partial editor.FormState) (editor.Snapshot, error)
}

// ApplyChangeCommand routes a field change into the session's form.
type ApplyChangeCommand struct {
	service   changeService
	telemetry Telemetry
}

// NewApplyChangeCommand creates a command instance.
func NewApplyChangeCommand(service changeService, telemetry Telemetry) *ApplyChangeCommand {
	return &ApplyChangeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyChangeInput] = (*ApplyChangeCommand)(nil)

// Execute applies the change.
func (c *ApplyChangeCommand) Execute(ctx context.Context, msg ApplyChangeInput) error {
	if c.service == nil {
		return errors.New("change command requires service")
	}
	var (
		snap editor.Snapshot
		err  error
	)
	switch {
	case msg.Field != "":
		snap, err = c.service.Change(ctx, msg.SessionID, editor.FieldInput{Field: msg.Field, Value: msg.Value})
	case len(msg.Partial) > 0:
		snap, err = c.service.Apply(ctx, msg.SessionID, msg.Partial)
	default:
		return fmt.Errorf("%w: change requires a field or a partial state", ErrMissingInput)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rwadmin.form.change", map[string]any{
		"session": msg.SessionID,
		"field":   msg.Field,
		"changed": len(snap.Changed),
	})
	return nil
}
