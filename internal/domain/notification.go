package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusMatched   NotificationStatus = "matched"
	NotificationStatusConfirmed NotificationStatus = "confirmed"
	NotificationStatusRejected  NotificationStatus = "rejected"
	NotificationStatusExpired   NotificationStatus = "expired"
)

// Notification is a parsed bank SMS reported by a device.
type Notification struct {
	ID                   string
	Bank                 string
	Type                 TransactionType
	Amount               decimal.Decimal
	AccountNumber        string
	SenderOrReceiver     string
	ReferenceNumber      string
	SMSTimestamp         time.Time
	DeviceID             string
	Nonce                string
	Status               NotificationStatus
	MatchedTransactionID string
	ApprovalID           string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *Notification) error
	GetNotificationByID(ctx context.Context, notificationID string) (*Notification, error)
	AttachMatch(ctx context.Context, notificationID, transactionID, approvalID string) error
	// AdvanceStatus moves the notification to next only when its current
	// status is one of from. It reports whether a row changed.
	AdvanceStatus(ctx context.Context, notificationID string, next NotificationStatus, from ...NotificationStatus) (bool, error)
	CountPendingByDevice(ctx context.Context, deviceID string) (int64, error)
	// ExpirePendingBefore moves notifications still pending and created
	// before cutoff to expired.
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
