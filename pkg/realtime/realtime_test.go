package realtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/realtime"
)

func receive(t *testing.T, sub *realtime.Subscription) realtime.Change {
	t.Helper()
	select {
	case c, ok := <-sub.Changes():
		require.True(t, ok, "subscription closed unexpectedly")
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
	return realtime.Change{}
}

func TestMemoryDeliversPerTable(t *testing.T) {
	feed := realtime.NewMemory()
	defer feed.Close()
	ctx := context.Background()

	products, err := feed.Subscribe(ctx, "products")
	require.NoError(t, err)
	defer products.Close()

	accessories, err := feed.Subscribe(ctx, "accessory_categories")
	require.NoError(t, err)
	defer accessories.Close()

	require.NoError(t, feed.Publish(ctx, realtime.Change{Table: "products", Op: realtime.Insert, ID: "p1", Category: "Women"}))

	got := receive(t, products)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, realtime.Insert, got.Op)

	select {
	case c := <-accessories.Changes():
		t.Fatalf("unexpected change on other table: %+v", c)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	feed := realtime.NewMemory()
	defer feed.Close()

	sub, err := feed.Subscribe(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Subscribers("products"))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, feed.Subscribers("products"))
	_, ok := <-sub.Changes()
	assert.False(t, ok)
	assert.NoError(t, sub.Err())

	// Publishing after the subscriber left must not panic.
	assert.NoError(t, feed.Publish(context.Background(), realtime.Change{Table: "products"}))
}

func TestMemoryCloseFailsSubscribers(t *testing.T) {
	feed := realtime.NewMemory()
	sub, err := feed.Subscribe(context.Background(), "products")
	require.NoError(t, err)

	require.NoError(t, feed.Close())

	_, ok := <-sub.Changes()
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), realtime.ErrClosed)

	_, err = feed.Subscribe(context.Background(), "products")
	assert.ErrorIs(t, err, realtime.ErrClosed)
	assert.ErrorIs(t, feed.Publish(context.Background(), realtime.Change{Table: "products"}), realtime.ErrClosed)
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	feed := realtime.NewMemory()
	defer feed.Close()
	sub, err := feed.Subscribe(context.Background(), "products")
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = feed.Publish(context.Background(), realtime.Change{Table: "products"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on an unread subscription")
	}
}

func TestPublishRacingCloseDoesNotPanic(t *testing.T) {
	feed := realtime.NewMemory()
	defer feed.Close()
	ctx := context.Background()

	for round := 0; round < 500; round++ {
		sub, err := feed.Subscribe(ctx, "products")
		require.NoError(t, err)

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					_ = feed.Publish(ctx, realtime.Change{Table: "products", Op: realtime.Update, ID: "p1"})
				}
			}()
		}
		sub.Close()
		wg.Wait()

		for range sub.Changes() {
		}
		assert.NoError(t, sub.Err())
	}
	assert.Equal(t, 0, feed.Subscribers("products"))
}

func TestChangeTouches(t *testing.T) {
	c := realtime.Change{Category: "Men", OldCategory: "Women"}
	assert.True(t, c.Touches("Men"))
	assert.True(t, c.Touches("Women"))
	assert.False(t, c.Touches("Kids"))
}
