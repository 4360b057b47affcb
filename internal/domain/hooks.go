package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderConfirmation is handed to the order side once per successful approval.
type OrderConfirmation struct {
	TransactionID  string
	ApprovalID     string
	NotificationID string
	DeviceID       string
	Amount         decimal.Decimal
	ApprovedBy     string
	ApprovedAt     time.Time
}

type OrderConfirmationNotifier interface {
	ConfirmOrder(ctx context.Context, confirmation OrderConfirmation) error
}

type OrderDetails struct {
	TransactionID string
	Reference     string
	CustomerName  string
	Amount        decimal.Decimal
	Metadata      map[string]string
}

type OrderDetailsResolver interface {
	ResolveOrder(ctx context.Context, transactionID string) (*OrderDetails, error)
}
