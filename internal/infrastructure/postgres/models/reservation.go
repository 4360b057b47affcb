package models

import "time"

// ReservationModel stores amounts in minor units so matching is integer equality.
// The partial unique indexes only cover rows still in the reserved state.
type ReservationModel struct {
	ID                string     `gorm:"primaryKey;type:uuid"`
	BaseAmountMinor   int64      `gorm:"not null;uniqueIndex:idx_reserved_slot,where:status = 'reserved'"`
	Suffix            int        `gorm:"not null;uniqueIndex:idx_reserved_slot,where:status = 'reserved'"`
	UniqueAmountMinor int64      `gorm:"not null;index:idx_reservations_unique_amount"`
	Status            string     `gorm:"not null;index:idx_reservations_status"`
	TransactionID     string     `gorm:"not null;index:idx_reservations_tx;uniqueIndex:idx_reserved_tx,where:status = 'reserved'"`
	ExpiresAt         time.Time  `gorm:"not null;index:idx_reservations_expires"`
	MatchedAt         *time.Time
	CreatedAt         time.Time `gorm:"index:idx_reservations_created"`
}

func (ReservationModel) TableName() string {
	return "unique_payment_amounts"
}
