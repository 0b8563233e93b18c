package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rwadmin/components/listing"
)

var (
	// ErrUnknownTable is returned for rows of a namespace with no registered table.
	ErrUnknownTable = errors.New("commands: unknown table")
	// ErrMissingInput is returned when a command message lacks a required value.
	ErrMissingInput = errors.New("commands: missing input")
)

// DeleteRowInput identifies the row to remove.
type DeleteRowInput struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

// Rows is a list that can delete one of its rows and refresh itself.
type Rows interface {
	Delete(ctx context.Context, id string, del listing.Deleter) error
}

// Table pairs a list with the API call that deletes its rows.
type Table struct {
	Rows   Rows
	Delete listing.Deleter
}

// DeleteRowCommand removes a row and reloads the owning list from page 1.
type DeleteRowCommand struct {
	tables    map[string]Table
	telemetry Telemetry
}

// NewDeleteRowCommand creates a command for the given namespaces.
func NewDeleteRowCommand(tables map[string]Table, telemetry Telemetry) *DeleteRowCommand {
	return &DeleteRowCommand{tables: tables, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteRowInput] = (*DeleteRowCommand)(nil)

// Execute deletes the row.
func (c *DeleteRowCommand) Execute(ctx context.Context, msg DeleteRowInput) error {
	table, ok := c.tables[msg.Namespace]
	if !ok || table.Rows == nil || table.Delete == nil {
		return fmt.Errorf("%w: %q", ErrUnknownTable, msg.Namespace)
	}
	if msg.ID == "" {
		return fmt.Errorf("%w: delete requires a row id", ErrMissingInput)
	}
	if err := table.Rows.Delete(ctx, msg.ID, table.Delete); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rwadmin.row.delete", map[string]any{
		"namespace": msg.Namespace,
		"id":        msg.ID,
	})
	return nil
}
