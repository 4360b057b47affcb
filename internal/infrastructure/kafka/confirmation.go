package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/domain"
)

type OrderConfirmedEvent struct {
	TransactionID  string    `json:"transaction_id"`
	ApprovalID     string    `json:"approval_id"`
	NotificationID string    `json:"notification_id"`
	DeviceID       string    `json:"device_id"`
	Amount         string    `json:"amount"`
	ApprovedBy     string    `json:"approved_by"`
	ApprovedAt     time.Time `json:"approved_at"`
}

// ConfirmationNotifier hands approved payments to the order side over Kafka.
type ConfirmationNotifier struct {
	port  domain.PublisherPort
	topic string
}

func NewConfirmationNotifier(port domain.PublisherPort, topic string) *ConfirmationNotifier {
	return &ConfirmationNotifier{port: port, topic: topic}
}

func (n *ConfirmationNotifier) ConfirmOrder(ctx context.Context, c domain.OrderConfirmation) error {
	v, err := json.Marshal(OrderConfirmedEvent{
		TransactionID:  c.TransactionID,
		ApprovalID:     c.ApprovalID,
		NotificationID: c.NotificationID,
		DeviceID:       c.DeviceID,
		Amount:         c.Amount.StringFixed(domain.MinorUnitExp),
		ApprovedBy:     c.ApprovedBy,
		ApprovedAt:     c.ApprovedAt,
	})
	if err != nil {
		return err
	}
	return n.port.Publish(ctx, n.topic, domain.Message{Key: []byte(c.TransactionID), Value: v})
}
