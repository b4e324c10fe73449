package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jujuerrors "github.com/juju/errors"
	"github.com/nats-io/nats.go"

	"inventory-sync-service/app/domain"
)

const natsFlushTimeout = 5 * time.Second

func NewNatsConn(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		// A server that is down at startup is retried in the background
		// instead of failing the process.
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, jujuerrors.Annotate(err, "connecting to nats")
	}
	return nc, nil
}

// NatsChannel broadcasts over core NATS subjects. Core NATS delivers each
// message to every subscriber of the subject and stores nothing.
type NatsChannel struct {
	conn *nats.Conn
}

func NewNatsChannel(conn *nats.Conn) *NatsChannel {
	return &NatsChannel{conn: conn}
}

func (c *NatsChannel) CreateTopic(ctx context.Context, name string) error {
	if err := validateTopic(name); err != nil {
		return err
	}
	return jujuerrors.Annotatef(c.flush(ctx), "creating topic %q", name)
}

// Publish returns once the server has acknowledged the flush, so the event
// has left this process before the caller responds.
func (c *NatsChannel) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := c.conn.Publish(topic, payload); err != nil {
		return jujuerrors.Annotatef(err, "publishing to %q", topic)
	}
	return jujuerrors.Annotatef(c.flush(ctx), "flushing publish to %q", topic)
}

func (c *NatsChannel) Subscribe(ctx context.Context, topic string) (domain.Subscription, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}

	sub, err := c.conn.SubscribeSync(topic)
	if err != nil {
		return nil, jujuerrors.Annotatef(err, "subscribing to %q", topic)
	}
	// Make sure the server has registered interest before returning.
	if err := c.flush(ctx); err != nil {
		sub.Unsubscribe()
		return nil, jujuerrors.Annotatef(err, "subscribing to %q", topic)
	}
	return &natsSubscription{sub: sub}, nil
}

func (c *NatsChannel) Close() error {
	// Drain closes the connection itself when it never came up.
	return jujuerrors.Annotate(c.conn.Drain(), "draining nats connection")
}

func (c *NatsChannel) flush(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, natsFlushTimeout)
	defer cancel()
	return c.conn.FlushWithContext(ctx)
}

type natsSubscription struct {
	sub *nats.Subscription

	once sync.Once
	err  error
}

func (s *natsSubscription) Receive(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := s.sub.NextMsgWithContext(waitCtx)
	switch {
	case err == nil:
		return msg.Data, true, nil
	case ctx.Err() != nil:
		return nil, false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
		return nil, false, nil
	case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrBadSubscription):
		return nil, false, fmt.Errorf("%w: %v", domain.ErrChannelClosed, err)
	default:
		return nil, false, jujuerrors.Trace(err)
	}
}

func (s *natsSubscription) Unsubscribe(ctx context.Context) error {
	s.once.Do(func() {
		err := s.sub.Unsubscribe()
		if err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			s.err = jujuerrors.Annotatef(err, "unsubscribing from %q", s.sub.Subject)
		}
	})
	return s.err
}
