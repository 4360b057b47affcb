package request

import "github.com/shopspring/decimal"

type ReserveRequest struct {
	BaseAmount    decimal.Decimal `json:"base_amount"`
	TransactionID string          `json:"transaction_id"`
	ExpiryMinutes int             `json:"expiry_minutes,omitempty"`
}
