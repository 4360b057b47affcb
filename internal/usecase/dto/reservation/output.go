package reservationdto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationOutput struct {
	ID            string
	TransactionID string
	BaseAmount    decimal.Decimal
	Suffix        int
	UniqueAmount  decimal.Decimal
	Status        string
	ExpiresAt     time.Time
	MatchedAt     *time.Time
	CreatedAt     time.Time
}
