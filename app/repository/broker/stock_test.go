package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"inventory-sync-service/app/domain"
)

type recordingChannel struct {
	mu        sync.Mutex
	published map[string][][]byte
	err       error
}

func (r *recordingChannel) CreateTopic(context.Context, string) error { return nil }

func (r *recordingChannel) Publish(_ context.Context, topic string, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.published == nil {
		r.published = make(map[string][][]byte)
	}
	r.published[topic] = append(r.published[topic], payload)
	return nil
}

func (r *recordingChannel) Subscribe(context.Context, string) (domain.Subscription, error) {
	return nil, errors.New("not supported")
}

func (r *recordingChannel) Close() error { return nil }

func TestPublishStockChangeWireFormat(t *testing.T) {
	c := qt.New(t)
	ch := &recordingChannel{}
	publisher := NewStockBrokerPublisher(ch, testTopic)

	err := publisher.PublishStockChange(context.Background(), domain.ChangeEvent{ProductID: 42, Stock: 7})
	c.Assert(err, qt.IsNil)
	c.Assert(ch.published[testTopic], qt.HasLen, 1)
	c.Assert(string(ch.published[testTopic][0]), qt.Equals, `{"product_id":42,"stock":7}`)
}

func TestPublishStockChangeTransportError(t *testing.T) {
	c := qt.New(t)
	ch := &recordingChannel{err: errors.New("connection refused")}
	publisher := NewStockBrokerPublisher(ch, testTopic)

	err := publisher.PublishStockChange(context.Background(), domain.ChangeEvent{ProductID: 42, Stock: 7})
	c.Assert(err, qt.ErrorIs, domain.ErrPublish)
	c.Assert(err, qt.ErrorMatches, `.*connection refused`)
}

func TestPublishStockChangeRejectsInvalidEvent(t *testing.T) {
	c := qt.New(t)
	ch := &recordingChannel{}
	publisher := NewStockBrokerPublisher(ch, testTopic)

	err := publisher.PublishStockChange(context.Background(), domain.ChangeEvent{ProductID: 42, Stock: -3})
	c.Assert(err, qt.ErrorIs, domain.ErrMalformedEvent)
	c.Assert(ch.published, qt.HasLen, 0)
}

func TestPublishStockChangeReachesSubscriber(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	ch := NewMemoryChannel(4)
	sub, err := ch.Subscribe(ctx, testTopic)
	c.Assert(err, qt.IsNil)
	defer sub.Unsubscribe(ctx)

	publisher := NewStockBrokerPublisher(ch, testTopic)
	c.Assert(publisher.PublishStockChange(ctx, domain.ChangeEvent{ProductID: 3, Stock: 11}), qt.IsNil)

	payload, ok, err := sub.Receive(ctx, time.Second)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	ev, err := domain.DecodeChangeEvent(payload)
	c.Assert(err, qt.IsNil)
	c.Assert(ev, qt.Equals, domain.ChangeEvent{ProductID: 3, Stock: 11})
}
