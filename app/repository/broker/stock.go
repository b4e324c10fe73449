package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"inventory-sync-service/app/domain"
	"inventory-sync-service/pkg/metrics"
)

type stockBroker struct {
	channel domain.SyncChannel
	topic   string
}

func NewStockBrokerPublisher(channel domain.SyncChannel, topic string) domain.ChangePublisher {
	return &stockBroker{
		channel: channel,
		topic:   topic,
	}
}

func (s *stockBroker) PublishStockChange(ctx context.Context, ev domain.ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockChange", "validate", err)
		return err
	}

	msg, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockChange", "json.Marshal", err)
		return fmt.Errorf("%w: %v", domain.ErrPublish, err)
	}

	if err = s.channel.Publish(ctx, s.topic, msg); err != nil {
		metrics.PublishErrorsTotal.Inc()
		slog.ErrorContext(ctx, "[stockBroker] PublishStockChange", "Publish", err, "topic", s.topic)
		return fmt.Errorf("%w: %v", domain.ErrPublish, err)
	}

	metrics.EventsPublishedTotal.Inc()
	slog.InfoContext(ctx, "[stockBroker] PublishStockChange", "message", string(msg), "topic", s.topic)
	return nil
}
