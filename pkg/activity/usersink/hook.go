// Package usersink forwards admin activity into a go-users activity sink.
package usersink

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-rwadmin/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Sink is the subset of the go-users activity sink used here.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook maps activity events onto go-users activity records.
type Hook struct {
	Sink Sink
}

// Notify implements activity.Hook.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if event.Verb == "" {
		return nil
	}
	record := types.ActivityRecord{
		ActorID:    parseID(event.ActorID),
		UserID:     parseID(event.UserID),
		TenantID:   parseID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		OccurredAt: event.OccurredAt,
		Data:       recordData(event),
	}
	if err := h.Sink.Log(ctx, record); err != nil {
		return fmt.Errorf("usersink: log %s: %w", event.Verb, err)
	}
	return nil
}

func recordData(event activity.Event) map[string]any {
	data := make(map[string]any, len(event.Metadata)+2)
	for k, v := range event.Metadata {
		data[k] = v
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = event.Recipients
	}
	return data
}

func parseID(raw string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil
	}
	return id
}
