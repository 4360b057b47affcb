package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xjanova/smschecker-sub001/internal/domain"
)

type Topics struct {
	Notifications string
	Approvals     string
	Reservations  string
}

// EventPublisher serializes domain events as JSON onto their topics.
type EventPublisher struct {
	port   domain.PublisherPort
	topics Topics
}

func NewEventPublisher(port domain.PublisherPort, topics Topics) *EventPublisher {
	return &EventPublisher{port: port, topics: topics}
}

func (p *EventPublisher) publishJSON(ctx context.Context, topic, key string, event any) error {
	v, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", topic, err)
	}
	return p.port.Publish(ctx, topic, domain.Message{Key: []byte(key), Value: v})
}

func (p *EventPublisher) PublishNotification(ctx context.Context, event domain.NotificationEvent) error {
	return p.publishJSON(ctx, p.topics.Notifications, event.DeviceID, event)
}

func (p *EventPublisher) PublishApproval(ctx context.Context, event domain.ApprovalEvent) error {
	return p.publishJSON(ctx, p.topics.Approvals, event.MatchedTransactionID, event)
}

func (p *EventPublisher) PublishReservation(ctx context.Context, event domain.ReservationEvent) error {
	return p.publishJSON(ctx, p.topics.Reservations, event.TransactionID, event)
}
