// Package worker runs the background listener loop that keeps this
// replica's stock mirror in line with changes made on other replicas.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	jujuerrors "github.com/juju/errors"
	"github.com/juju/retry"
	"gopkg.in/tomb.v2"

	"inventory-sync-service/app/domain"
	"inventory-sync-service/pkg/metrics"
)

const unsubscribeTimeout = 5 * time.Second

type ListenerConfig struct {
	Channel   domain.SyncChannel
	Mirror    domain.StockMirror
	Topic     string
	Transport string
	ReplicaID string

	// Store, when set, is read once after subscribing so the mirror starts
	// from the authoritative values instead of waiting for the next change.
	Store domain.ProductRepository

	Clock             clock.Clock
	PollTimeout       time.Duration
	RetryDelay        time.Duration
	SubscribeAttempts int
}

func (c ListenerConfig) Validate() error {
	if c.Channel == nil {
		return jujuerrors.NotValidf("nil Channel")
	}
	if c.Mirror == nil {
		return jujuerrors.NotValidf("nil Mirror")
	}
	if c.Topic == "" {
		return jujuerrors.NotValidf("empty Topic")
	}
	if c.PollTimeout <= 0 {
		return jujuerrors.NotValidf("non-positive PollTimeout")
	}
	if c.RetryDelay <= 0 {
		return jujuerrors.NotValidf("non-positive RetryDelay")
	}
	if c.SubscribeAttempts < 1 {
		return jujuerrors.NotValidf("SubscribeAttempts %d", c.SubscribeAttempts)
	}
	return nil
}

// StockListener owns one subscription to the stock topic and applies
// every event it receives to the mirror, in arrival order.
type StockListener struct {
	cfg ListenerConfig

	mu       sync.Mutex
	tomb     *tomb.Tomb
	state    domain.ListenerState
	starting bool
	lastErr  error

	received      atomic.Int64
	applied       atomic.Int64
	dropped       atomic.Int64
	receiveErrors atomic.Int64
}

func NewStockListener(cfg ListenerConfig) (*StockListener, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if err := cfg.Validate(); err != nil {
		return nil, jujuerrors.Trace(err)
	}
	return &StockListener{
		cfg:   cfg,
		state: domain.ListenerStateNotStarted,
	}, nil
}

// Start subscribes to the topic and launches the listener loop. The loop
// runs until Stop is called or ctx is cancelled. A failed subscription
// leaves the listener in the failed state and returns an error wrapping
// domain.ErrSubscribe; the rest of the service keeps working without live
// sync.
func (l *StockListener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state != domain.ListenerStateNotStarted {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("listener already %s", state)
	}
	if l.starting {
		l.mu.Unlock()
		return errors.New("listener already starting")
	}
	// Held for good: a listener is started at most once.
	l.starting = true
	l.mu.Unlock()

	sub, err := l.subscribe(ctx)
	if err != nil {
		l.fail(err)
		slog.ErrorContext(ctx, "[StockListener] Start", "subscribe", err, "topic", l.cfg.Topic)
		return fmt.Errorf("%w: %v", domain.ErrSubscribe, err)
	}

	l.setState(domain.ListenerStateSubscribed)
	metrics.ListenerUp.Set(1)
	slog.InfoContext(ctx, "[StockListener] Start", "subscribed", l.cfg.Topic, "replicaID", l.cfg.ReplicaID)

	l.seed(ctx)

	t, loopCtx := tomb.WithContext(ctx)
	l.mu.Lock()
	l.tomb = t
	l.mu.Unlock()
	t.Go(func() error {
		return l.loop(loopCtx, sub)
	})
	return nil
}

// Stop cancels the loop and waits for it to release its subscription.
func (l *StockListener) Stop() error {
	l.mu.Lock()
	t := l.tomb
	l.mu.Unlock()
	if t == nil {
		return nil
	}

	t.Kill(nil)
	err := t.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Wait blocks until the loop has exited.
func (l *StockListener) Wait() error {
	l.mu.Lock()
	t := l.tomb
	l.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.Wait()
}

func (l *StockListener) Status() domain.ListenerStatus {
	l.mu.Lock()
	state := l.state
	lastErr := l.lastErr
	l.mu.Unlock()

	status := domain.ListenerStatus{
		ReplicaID:     l.cfg.ReplicaID,
		Transport:     l.cfg.Transport,
		Topic:         l.cfg.Topic,
		State:         state,
		Received:      l.received.Load(),
		Applied:       l.applied.Load(),
		Dropped:       l.dropped.Load(),
		ReceiveErrors: l.receiveErrors.Load(),
	}
	switch state {
	case domain.ListenerStateSubscribed, domain.ListenerStatePolling, domain.ListenerStateApplying:
	default:
		status.Degraded = true
	}
	if lastErr != nil {
		status.LastError = lastErr.Error()
	}
	return status
}

func (l *StockListener) subscribe(ctx context.Context) (domain.Subscription, error) {
	var sub domain.Subscription
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			if err := l.cfg.Channel.CreateTopic(ctx, l.cfg.Topic); err != nil {
				return err
			}
			s, err := l.cfg.Channel.Subscribe(ctx, l.cfg.Topic)
			if err != nil {
				return err
			}
			sub = s
			return nil
		},
		IsFatalError: func(err error) bool {
			return jujuerrors.IsNotValid(err) || errors.Is(err, context.Canceled)
		},
		NotifyFunc: func(lastErr error, attempt int) {
			slog.WarnContext(ctx, "[StockListener] subscribe", "attempt", attempt, "error", lastErr)
		},
		Attempts: l.cfg.SubscribeAttempts,
		Delay:    l.cfg.RetryDelay,
		Clock:    l.cfg.Clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		return nil, retry.LastError(err)
	}
	return sub, nil
}

func (l *StockListener) seed(ctx context.Context) {
	if l.cfg.Store == nil {
		return
	}
	products, err := l.cfg.Store.List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "[StockListener] seed", "list", err)
		return
	}
	changed := l.cfg.Mirror.Seed(products)
	slog.InfoContext(ctx, "[StockListener] seed", "products", len(products), "changed", changed)
}

func (l *StockListener) loop(ctx context.Context, sub domain.Subscription) error {
	defer l.release(sub)

	for {
		if ctx.Err() != nil {
			return nil
		}

		l.setState(domain.ListenerStatePolling)
		payload, ok, err := sub.Receive(ctx, l.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.receiveErrors.Add(1)
			metrics.ReceiveErrorsTotal.Inc()
			l.recordErr(err)
			slog.WarnContext(ctx, "[StockListener] loop", "receive", err, "retryIn", l.cfg.RetryDelay)

			select {
			case <-ctx.Done():
				return nil
			case <-l.cfg.Clock.After(l.cfg.RetryDelay):
			}
			continue
		}
		if !ok {
			continue
		}

		l.setState(domain.ListenerStateApplying)
		l.apply(ctx, payload)
	}
}

func (l *StockListener) apply(ctx context.Context, payload []byte) {
	l.received.Add(1)
	metrics.EventsReceivedTotal.Inc()

	ev, err := domain.DecodeChangeEvent(payload)
	if err != nil {
		dropped := l.dropped.Add(1)
		metrics.EventsDroppedTotal.Inc()
		slog.WarnContext(ctx, "[StockListener] apply", "decode", err, "payload", string(payload), "dropped", dropped)
		return
	}

	changed := l.cfg.Mirror.Apply(ev)
	l.applied.Add(1)
	metrics.EventsAppliedTotal.Inc()
	slog.DebugContext(ctx, "[StockListener] apply", "productID", ev.ProductID, "stock", ev.Stock, "changed", changed)
}

// release unsubscribes with a fresh context; the loop context is already
// done by the time it runs.
func (l *StockListener) release(sub domain.Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), unsubscribeTimeout)
	defer cancel()

	if err := sub.Unsubscribe(ctx); err != nil {
		slog.WarnContext(ctx, "[StockListener] release", "unsubscribe", err, "topic", l.cfg.Topic)
	}
	metrics.ListenerUp.Set(0)
	l.setState(domain.ListenerStateStopped)
	slog.InfoContext(ctx, "[StockListener] release", "stopped", l.cfg.Topic)
}

func (l *StockListener) setState(state domain.ListenerState) {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
}

func (l *StockListener) fail(err error) {
	l.mu.Lock()
	l.state = domain.ListenerStateFailed
	l.lastErr = err
	l.mu.Unlock()
}

func (l *StockListener) recordErr(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
}
