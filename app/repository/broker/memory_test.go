package broker

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"inventory-sync-service/app/domain"
)

func TestMemoryChannel(t *testing.T) {
	runChannelSuite(t, func(c *qt.C) domain.SyncChannel {
		ch := NewMemoryChannel(16)
		c.Cleanup(func() { ch.Close() })
		return ch
	})
}

func TestMemoryChannelDropsWhenSubscriberFull(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	ch := NewMemoryChannel(1)

	sub, err := ch.Subscribe(ctx, testTopic)
	c.Assert(err, qt.IsNil)
	defer sub.Unsubscribe(ctx)

	for i := 0; i < 5; i++ {
		c.Assert(ch.Publish(ctx, testTopic, []byte{byte('0' + i)}), qt.IsNil)
	}

	got, ok, err := sub.Receive(ctx, waitTimeout)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.HasLen, 1)
}

func TestMemoryChannelClosed(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	ch := NewMemoryChannel(4)
	c.Assert(ch.Close(), qt.IsNil)

	c.Assert(ch.Publish(ctx, testTopic, []byte("x")), qt.ErrorIs, domain.ErrChannelClosed)
	_, err := ch.Subscribe(ctx, testTopic)
	c.Assert(err, qt.ErrorIs, domain.ErrChannelClosed)
}

func TestMemorySubscriptionReceiveAfterUnsubscribe(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	ch := NewMemoryChannel(4)

	sub, err := ch.Subscribe(ctx, testTopic)
	c.Assert(err, qt.IsNil)
	c.Assert(sub.Unsubscribe(ctx), qt.IsNil)

	_, ok, err := sub.Receive(ctx, waitTimeout)
	c.Assert(ok, qt.IsFalse)
	c.Assert(err, qt.ErrorIs, domain.ErrChannelClosed)
}

func TestMemoryChannelCloseEndsLiveSubscriptions(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	ch := NewMemoryChannel(4)

	sub, err := ch.Subscribe(ctx, testTopic)
	c.Assert(err, qt.IsNil)

	received := make(chan error, 1)
	go func() {
		_, _, err := sub.Receive(ctx, time.Minute)
		received <- err
	}()
	c.Assert(ch.Close(), qt.IsNil)

	select {
	case err := <-received:
		c.Assert(err, qt.ErrorIs, domain.ErrChannelClosed)
	case <-time.After(waitTimeout):
		c.Fatal("Receive kept waiting after Close")
	}
	c.Assert(sub.Unsubscribe(ctx), qt.IsNil)
}
