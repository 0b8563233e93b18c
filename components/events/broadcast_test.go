package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastHookDeliversToSessionSubscribers(t *testing.T) {
	hook := NewBroadcastHook()
	all, cancelAll := hook.Subscribe("")
	defer cancelAll()
	mine, cancelMine := hook.Subscribe("s1")
	defer cancelMine()
	other, cancelOther := hook.Subscribe("s2")
	defer cancelOther()

	require.NoError(t, hook.Publish(context.Background(), Event{Kind: KindLoading, Session: "s1"}))

	select {
	case evt := <-all:
		assert.Equal(t, KindLoading, evt.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected event on wildcard subscriber")
	}
	select {
	case evt := <-mine:
		assert.Equal(t, "s1", evt.Session)
	case <-time.After(time.Second):
		t.Fatal("expected event on session subscriber")
	}
	select {
	case evt := <-other:
		t.Fatalf("unexpected event for other session: %+v", evt)
	default:
	}
}

func TestBroadcastHookCancelClosesChannel(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe("")
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	require.NoError(t, hook.Publish(context.Background(), Event{Kind: KindLoading}))
}

func TestHookNotifierPublishesNotification(t *testing.T) {
	var got []Event
	n := HookNotifier{
		Session: "s1",
		Hook: HookFunc(func(_ context.Context, evt Event) error {
			got = append(got, evt)
			return nil
		}),
	}
	n.Error(context.Background(), "There was an error loading the dashboards", assert.AnError)

	require.Len(t, got, 1)
	assert.Equal(t, KindNotification, got[0].Kind)
	assert.Equal(t, "There was an error loading the dashboards", got[0].Payload["message"])
	assert.Equal(t, assert.AnError.Error(), got[0].Payload["error"])
}
