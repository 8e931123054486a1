package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenCmd_DeliversNextEvent(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	cmd := ListenCmd(ctx, ch)
	b.Publish(SnapshotEvent, "ping")

	ev, ok := cmd().(Event[string])
	require.True(t, ok)
	require.Equal(t, "ping", ev.Payload)
}

func TestListenCmd_NilOnCancelledContext(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	require.Nil(t, ListenCmd(ctx, ch)())
}

func TestListener_ListenYieldsPublishedEvents(t *testing.T) {
	b := NewBroker[int]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(ctx, b)
	b.Publish(SnapshotEvent, 7)

	ev, ok := l.Listen()().(Event[int])
	require.True(t, ok)
	require.Equal(t, 7, ev.Payload)
}
