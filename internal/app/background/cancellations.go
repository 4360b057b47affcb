package background

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
)

// CancellationConsumer releases the reservation of every order cancelled on
// the checkout side.
type CancellationConsumer struct {
	subscriber   domain.SubscriberPort
	reservations usecase.ReservationUsecase
	topic        string
	group        string
	logger       *slog.Logger
}

func NewCancellationConsumer(subscriber domain.SubscriberPort, reservations usecase.ReservationUsecase, topic, group string, logger *slog.Logger) *CancellationConsumer {
	return &CancellationConsumer{
		subscriber:   subscriber,
		reservations: reservations,
		topic:        topic,
		group:        group,
		logger:       logger,
	}
}

// Run blocks until ctx is done or the subscription closes.
func (c *CancellationConsumer) Run(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic, c.group)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}
	c.logger.Info("order cancellation consumer started", "topic", c.topic, "group", c.group)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := c.Handle(ctx, msg); err != nil {
				c.logger.Error("failed to handle order cancellation", "key", string(msg.Key), "error", err.Error())
			}
		}
	}
}

func (c *CancellationConsumer) Handle(ctx context.Context, msg domain.Message) error {
	var event domain.OrderCancelledEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode order cancellation: %w", err)
	}
	if event.TransactionID == "" {
		return fmt.Errorf("order cancellation without transaction_id")
	}
	released, err := c.reservations.Release(ctx, event.TransactionID)
	if err != nil {
		return err
	}
	c.logger.Info("order cancelled",
		"transaction_id", event.TransactionID,
		"reason", event.Reason,
		"released", released,
	)
	return nil
}
