package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"

	"inventory-sync-service/app/domain"
)

const redisChannelSize = 256

// NewRedisClient only parses url. Connections are dialled on first use, so
// an unreachable server surfaces through CreateTopic and Subscribe.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Annotate(err, "parsing redis url")
	}
	return redis.NewClient(opts), nil
}

// RedisChannel broadcasts over Redis PUBLISH/SUBSCRIBE. Redis keeps no
// history, so subscribers only see messages published after they joined.
type RedisChannel struct {
	client *redis.Client
}

func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client}
}

func (c *RedisChannel) CreateTopic(ctx context.Context, name string) error {
	if err := validateTopic(name); err != nil {
		return err
	}
	// Redis channels exist implicitly; make sure the server is reachable.
	return errors.Annotatef(c.client.Ping(ctx).Err(), "creating topic %q", name)
}

func (c *RedisChannel) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := c.client.Publish(ctx, topic, payload).Err(); err != nil {
		return errors.Annotatef(err, "publishing to %q", topic)
	}
	return nil
}

func (c *RedisChannel) Subscribe(ctx context.Context, topic string) (domain.Subscription, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}

	ps := c.client.Subscribe(ctx, topic)
	// Wait for the subscribe confirmation so that publishes issued after
	// Subscribe returns are guaranteed to reach us.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, errors.Annotatef(err, "subscribing to %q", topic)
	}

	return &redisSubscription{
		topic:    topic,
		pubsub:   ps,
		messages: ps.Channel(redis.WithChannelSize(redisChannelSize)),
	}, nil
}

func (c *RedisChannel) Close() error {
	return c.client.Close()
}

type redisSubscription struct {
	topic    string
	pubsub   *redis.PubSub
	messages <-chan *redis.Message

	once sync.Once
	err  error
}

func (s *redisSubscription) Receive(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-s.messages:
		if !ok {
			return nil, false, domain.ErrChannelClosed
		}
		return []byte(msg.Payload), true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (s *redisSubscription) Unsubscribe(ctx context.Context) error {
	s.once.Do(func() {
		if err := s.pubsub.Unsubscribe(ctx, s.topic); err != nil {
			slog.WarnContext(ctx, "[redisSubscription] Unsubscribe", "unsubscribe", err, "topic", s.topic)
		}
		s.err = errors.Annotatef(s.pubsub.Close(), "closing subscription to %q", s.topic)
	})
	return s.err
}
