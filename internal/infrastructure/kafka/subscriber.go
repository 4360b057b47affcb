package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/xjanova/smschecker-sub001/internal/domain"
)

type DefaultKafkaSubscriber struct {
	brokers []string
	logger  *slog.Logger
}

func NewDefaultKafkaSubscriber(brokers []string, logger *slog.Logger) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{brokers: brokers, logger: logger}
}

// Subscribe streams messages until ctx is cancelled or the reader fails; the
// channel is closed in both cases.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					k.logger.Error("kafka read failed", "topic", topic, "error", err.Error())
				}
				return
			}
			select {
			case out <- domain.Message{Key: m.Key, Value: m.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
