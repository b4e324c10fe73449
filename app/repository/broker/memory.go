package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/juju/pubsub/v2"

	"inventory-sync-service/app/domain"
	"inventory-sync-service/pkg/metrics"
)

// MemoryChannel fans payloads out to subscriptions inside one process.
// It backs single-node deployments and tests. A subscription whose buffer
// is full drops the payload.
type MemoryChannel struct {
	hub    *pubsub.SimpleHub
	buffer int

	mu     sync.Mutex
	closed bool
	topics map[string]struct{}
	subs   map[*memorySubscription]struct{}
}

func NewMemoryChannel(buffer int) *MemoryChannel {
	if buffer <= 0 {
		buffer = 1
	}
	return &MemoryChannel{
		hub:    pubsub.NewSimpleHub(nil),
		buffer: buffer,
		topics: make(map[string]struct{}),
		subs:   make(map[*memorySubscription]struct{}),
	}
}

func (c *MemoryChannel) CreateTopic(_ context.Context, name string) error {
	if err := validateTopic(name); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrChannelClosed
	}
	c.topics[name] = struct{}{}
	return nil
}

func (c *MemoryChannel) Publish(_ context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errors.Annotatef(domain.ErrChannelClosed, "publishing to %q", topic)
	}

	data := make([]byte, len(payload))
	copy(data, payload)
	_ = c.hub.Publish(topic, data)
	return nil
}

func (c *MemoryChannel) Subscribe(_ context.Context, topic string) (domain.Subscription, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrChannelClosed
	}

	sub := &memorySubscription{
		topic:    topic,
		messages: make(chan []byte, c.buffer),
		done:     make(chan struct{}),
	}
	unsubscribe := c.hub.Subscribe(topic, sub.deliver)
	sub.unsubscribe = func() {
		unsubscribe()
		c.mu.Lock()
		delete(c.subs, sub)
		c.mu.Unlock()
	}
	c.subs[sub] = struct{}{}
	return sub, nil
}

// Close rejects further use and ends every live subscription, whose
// Receive then reports domain.ErrChannelClosed.
func (c *MemoryChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	subs := make([]*memorySubscription, 0, len(c.subs))
	for sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe(context.Background())
	}
	return nil
}

type memorySubscription struct {
	topic       string
	messages    chan []byte
	done        chan struct{}
	unsubscribe func()
	once        sync.Once
}

func (s *memorySubscription) deliver(_ string, data interface{}) {
	payload, ok := data.([]byte)
	if !ok {
		return
	}
	select {
	case <-s.done:
	case s.messages <- payload:
	default:
		metrics.ChannelOverflowTotal.Inc()
		slog.Warn("[memorySubscription] deliver", "overflow", "subscriber buffer full, dropping payload", "topic", s.topic)
	}
}

func (s *memorySubscription) Receive(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-s.messages:
		return payload, true, nil
	case <-s.done:
		return nil, false, domain.ErrChannelClosed
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (s *memorySubscription) Unsubscribe(context.Context) error {
	s.once.Do(func() {
		s.unsubscribe()
		close(s.done)
	})
	return nil
}
