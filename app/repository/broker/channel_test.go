package broker

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"inventory-sync-service/app/domain"
)

const (
	testTopic   = "inventory_updates"
	waitTimeout = 2 * time.Second
	quietPeriod = 50 * time.Millisecond
)

// runChannelSuite exercises the broadcast contract shared by every transport.
func runChannelSuite(t *testing.T, newChannel func(c *qt.C) domain.SyncChannel) {
	t.Run("fan-out", func(t *testing.T) {
		c := qt.New(t)
		ch := newChannel(c)
		ctx := context.Background()
		c.Assert(ch.CreateTopic(ctx, testTopic), qt.IsNil)

		first, err := ch.Subscribe(ctx, testTopic)
		c.Assert(err, qt.IsNil)
		defer first.Unsubscribe(ctx)
		second, err := ch.Subscribe(ctx, testTopic)
		c.Assert(err, qt.IsNil)
		defer second.Unsubscribe(ctx)

		payload := []byte(`{"product_id":42,"stock":7}`)
		c.Assert(ch.Publish(ctx, testTopic, payload), qt.IsNil)

		for _, sub := range []domain.Subscription{first, second} {
			got, ok, err := sub.Receive(ctx, waitTimeout)
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.IsTrue)
			c.Assert(string(got), qt.Equals, string(payload))
		}
	})

	t.Run("timeout yields no message", func(t *testing.T) {
		c := qt.New(t)
		ch := newChannel(c)
		ctx := context.Background()

		sub, err := ch.Subscribe(ctx, testTopic)
		c.Assert(err, qt.IsNil)
		defer sub.Unsubscribe(ctx)

		got, ok, err := sub.Receive(ctx, quietPeriod)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
		c.Assert(got, qt.IsNil)
	})

	t.Run("late subscriber misses earlier publish", func(t *testing.T) {
		c := qt.New(t)
		ch := newChannel(c)
		ctx := context.Background()

		c.Assert(ch.Publish(ctx, testTopic, []byte(`{"product_id":1,"stock":1}`)), qt.IsNil)

		late, err := ch.Subscribe(ctx, testTopic)
		c.Assert(err, qt.IsNil)
		defer late.Unsubscribe(ctx)

		_, ok, err := late.Receive(ctx, quietPeriod)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
	})

	t.Run("receive honours cancellation", func(t *testing.T) {
		c := qt.New(t)
		ch := newChannel(c)

		sub, err := ch.Subscribe(context.Background(), testTopic)
		c.Assert(err, qt.IsNil)
		defer sub.Unsubscribe(context.Background())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, ok, err := sub.Receive(ctx, waitTimeout)
		c.Assert(ok, qt.IsFalse)
		c.Assert(err, qt.ErrorIs, context.Canceled)
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		c := qt.New(t)
		ch := newChannel(c)
		ctx := context.Background()

		sub, err := ch.Subscribe(ctx, testTopic)
		c.Assert(err, qt.IsNil)
		c.Assert(sub.Unsubscribe(ctx), qt.IsNil)
		c.Assert(sub.Unsubscribe(ctx), qt.IsNil)
	})

	t.Run("invalid topic", func(t *testing.T) {
		c := qt.New(t)
		ch := newChannel(c)
		ctx := context.Background()

		c.Assert(ch.CreateTopic(ctx, ""), qt.ErrorMatches, `empty topic name not valid`)
		_, err := ch.Subscribe(ctx, "stock.*")
		c.Assert(err, qt.ErrorMatches, `topic name "stock.\*" not valid`)
	})
}
