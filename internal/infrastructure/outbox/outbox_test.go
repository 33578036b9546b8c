package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
)

type pinged struct{ n int }

func (pinged) EventName() string { return "test.pinged" }

type ignored struct{}

func (ignored) EventName() string { return "test.ignored" }

func Test_Bus_DeliversToEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	var mu sync.Mutex
	var got []int
	for i := 0; i < 2; i++ {
		bus.Subscribe("test.pinged", domoutbox.HandlerFor(func(_ context.Context, e pinged) error {
			mu.Lock()
			got = append(got, e.n)
			mu.Unlock()
			return nil
		}))
	}
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), pinged{n: 7}))
	require.NoError(t, bus.Publish(context.Background(), ignored{}))
	require.NoError(t, bus.Stop(context.Background()))

	assert.Equal(t, []int{7, 7}, got)
}

func Test_Bus_StopDrainsQueuedEvents(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(16))
	var mu sync.Mutex
	var got []int
	bus.Subscribe("test.pinged", domoutbox.HandlerFor(func(_ context.Context, e pinged) error {
		mu.Lock()
		got = append(got, e.n)
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(), pinged{n: i}))
	}
	bus.Start(context.Background())
	require.NoError(t, bus.Stop(context.Background()))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got, "single dispatch loop keeps publish order")
}

func Test_Bus_PublishAfterStopIsRejected(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	require.NoError(t, bus.Stop(context.Background()))

	err := bus.Publish(context.Background(), pinged{})

	assert.ErrorIs(t, err, domoutbox.ErrBusStopped)
	assert.NoError(t, bus.Stop(context.Background()), "stop is idempotent")
}

func Test_Bus_StopWithoutStart(t *testing.T) {
	bus := NewBus(nil)
	delivered := make(chan struct{}, 1)
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		return nil
	})
	require.NoError(t, bus.Publish(context.Background(), pinged{}))

	require.NoError(t, bus.Stop(context.Background()))
	assert.Len(t, delivered, 1)
}

func Test_Bus_HandlerFailuresDoNotStopDispatch(t *testing.T) {
	bus := NewBus(nil)
	var mu sync.Mutex
	calls := 0
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		return errors.New("boom")
	})
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		panic("handler bug")
	})
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	require.NoError(t, bus.Stop(context.Background()))

	assert.Equal(t, 2, calls)
}

func Test_Bus_StopHonoursContext(t *testing.T) {
	bus := NewBus(nil)
	release := make(chan struct{})
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		<-release
		return nil
	})
	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), pinged{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, bus.Stop(context.Background()))
}

func Test_Bus_PublishHonoursContextWhenQueueIsFull(t *testing.T) {
	bus := NewBus(nil, WithQueueSize(1))
	require.NoError(t, bus.Publish(context.Background(), pinged{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, pinged{}), context.Canceled)
}
