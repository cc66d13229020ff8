package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversToSubscribedKind(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []Event
	d.Subscribe(KindTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Kind: KindTicketCreated})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
}

func TestDispatcher_IgnoresOtherKinds(t *testing.T) {
	d := NewInMemoryDispatcher()
	called := false
	d.Subscribe(KindTicketCompleted, func(context.Context, Event) error {
		called = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Kind: KindTicketCreated}))
	assert.False(t, called)
}

func TestDispatcher_HandlerErrorsDoNotPropagate(t *testing.T) {
	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(KindTicketCalled, func(context.Context, Event) error {
		return errors.New("boom")
	})
	d.Subscribe(KindTicketCalled, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Kind: KindTicketCalled})
	require.NoError(t, err)
	assert.True(t, reached)
}

func TestDispatcher_MultipleHandlersAllRun(t *testing.T) {
	d := NewInMemoryDispatcher()
	count := 0
	for i := 0; i < 3; i++ {
		d.Subscribe(KindQueueReordered, func(context.Context, Event) error {
			count++
			return nil
		})
	}

	require.NoError(t, d.Publish(context.Background(), Event{Kind: KindQueueReordered}))
	assert.Equal(t, 3, count)
}
