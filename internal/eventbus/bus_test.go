package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	id1, ch1 := bus.Subscribe(4)
	_, ch2 := bus.Subscribe(4)

	bus.PublishNew(EventTaskAssigned, "content-1", map[string]string{"assigned_to": "vol-1"})

	for _, ch := range []<-chan *Event{ch1, ch2} {
		ev := <-ch
		require.NotNil(t, ev)
		assert.Equal(t, EventTaskAssigned, ev.Type)
		assert.Equal(t, "content-1", ev.ResourceID)
		assert.Equal(t, "vol-1", ev.Metadata["assigned_to"])
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.CreatedAt.IsZero())
	}

	bus.Unsubscribe(id1)
	_, ok := <-ch1
	assert.False(t, ok, "channel is closed on unsubscribe")
	bus.Unsubscribe(id1)
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := New()
	_, ch := bus.Subscribe(1)

	bus.PublishNew(EventTaskCreated, "a", nil)
	bus.PublishNew(EventTaskCreated, "b", nil)

	ev := <-ch
	assert.Equal(t, "a", ev.ResourceID)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s", ev.ResourceID)
	default:
	}
}
