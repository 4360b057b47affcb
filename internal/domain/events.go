package domain

import (
	"context"
	"time"
)

type NotificationEvent struct {
	NotificationID       string    `json:"notification_id"`
	DeviceID             string    `json:"device_id"`
	Bank                 string    `json:"bank"`
	Type                 string    `json:"type"`
	Amount               string    `json:"amount"`
	Status               string    `json:"status"`
	MatchedTransactionID string    `json:"matched_transaction_id,omitempty"`
	ApprovalID           string    `json:"approval_id,omitempty"`
	OccurredAt           time.Time `json:"occurred_at"`
}

type ApprovalEvent struct {
	ApprovalID           string    `json:"approval_id"`
	NotificationID       string    `json:"notification_id"`
	MatchedTransactionID string    `json:"matched_transaction_id"`
	DeviceID             string    `json:"device_id"`
	Status               string    `json:"status"`
	Confidence           string    `json:"confidence"`
	ApprovedBy           string    `json:"approved_by,omitempty"`
	RejectionReason      string    `json:"rejection_reason,omitempty"`
	SyncedVersion        int64     `json:"synced_version"`
	OccurredAt           time.Time `json:"occurred_at"`
}

type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	TransactionID string    `json:"transaction_id"`
	BaseAmount    string    `json:"base_amount"`
	UniqueAmount  string    `json:"unique_amount"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// OrderCancelledEvent is consumed from the checkout side when an order dies
// before it is paid.
type OrderCancelledEvent struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason,omitempty"`
}

type EventPublisher interface {
	PublishNotification(ctx context.Context, event NotificationEvent) error
	PublishApproval(ctx context.Context, event ApprovalEvent) error
	PublishReservation(ctx context.Context, event ReservationEvent) error
}
