package usersink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-rwadmin/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records []types.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}

	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	err := hook.Notify(context.Background(), activity.Event{
		Verb:           "widget.mode.switch",
		ActorID:        actorID.String(),
		UserID:         "not-a-uuid",
		TenantID:       tenantID.String(),
		ObjectType:     "widget",
		ObjectID:       "w-42",
		Channel:        "rwadmin",
		DefinitionCode: "widget:editor",
		Recipients:     []string{"admin@example.com"},
		Metadata:       map[string]any{"mode": "editor"},
		OccurredAt:     now,
	})
	require.NoError(t, err)
	require.Len(t, sink.records, 1)

	record := sink.records[0]
	assert.Equal(t, actorID, record.ActorID)
	assert.Equal(t, uuid.Nil, record.UserID)
	assert.Equal(t, tenantID, record.TenantID)
	assert.Equal(t, "widget.mode.switch", record.Verb)
	assert.Equal(t, "widget", record.ObjectType)
	assert.Equal(t, "w-42", record.ObjectID)
	assert.Equal(t, "rwadmin", record.Channel)
	assert.Equal(t, now, record.OccurredAt)
	assert.Equal(t, "widget:editor", record.Data["definition_code"])
	assert.Equal(t, "editor", record.Data["mode"])
	assert.Equal(t, []string{"admin@example.com"}, record.Data["recipients"])
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	require.NoError(t, Hook{Sink: sink}.Notify(context.Background(), activity.Event{ObjectID: "w-1"}))
	assert.Empty(t, sink.records)
}

func TestHookNotifyWrapsSinkError(t *testing.T) {
	boom := errors.New("boom")
	sink := &recordingSink{err: boom}
	err := Hook{Sink: sink}.Notify(context.Background(), activity.Event{Verb: "layer.verify"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
