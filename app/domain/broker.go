package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ChangeEvent announces that, as of this event, ProductID has Stock units.
// It carries the full value, never a delta.
type ChangeEvent struct {
	ProductID int64 `json:"product_id"`
	Stock     int64 `json:"stock"`
}

func (e ChangeEvent) Validate() error {
	if e.ProductID <= 0 {
		return fmt.Errorf("%w: product_id must be positive, got %d", ErrMalformedEvent, e.ProductID)
	}
	if e.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative, got %d", ErrMalformedEvent, e.Stock)
	}
	return nil
}

// DecodeChangeEvent parses a wire payload. Both fields must be present;
// unknown fields are ignored.
func DecodeChangeEvent(payload []byte) (ChangeEvent, error) {
	var wire struct {
		ProductID *int64 `json:"product_id"`
		Stock     *int64 `json:"stock"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return ChangeEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if wire.ProductID == nil || wire.Stock == nil {
		return ChangeEvent{}, fmt.Errorf("%w: missing product_id or stock", ErrMalformedEvent)
	}

	ev := ChangeEvent{ProductID: *wire.ProductID, Stock: *wire.Stock}
	if err := ev.Validate(); err != nil {
		return ChangeEvent{}, err
	}
	return ev, nil
}

type ChangePublisher interface {
	PublishStockChange(ctx context.Context, ev ChangeEvent) error
}

// SyncChannel is a broadcast transport: every live subscription of a topic
// receives every payload published to it after it subscribed.
type SyncChannel interface {
	CreateTopic(ctx context.Context, name string) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Close() error
}

type Subscription interface {
	// Receive waits up to timeout for the next payload. ok is false when
	// nothing arrived in time.
	Receive(ctx context.Context, timeout time.Duration) (payload []byte, ok bool, err error)
	Unsubscribe(ctx context.Context) error
}
