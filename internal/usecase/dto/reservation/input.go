package reservationdto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReserveInput struct {
	BaseAmount    decimal.Decimal
	TransactionID string
	// Expiry overrides the configured hold time when positive.
	Expiry time.Duration
}
