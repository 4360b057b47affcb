package models

import "time"

// NonceModel is the replay ledger. The primary key is the nonce alone.
type NonceModel struct {
	Nonce    string    `gorm:"primaryKey;size:64"`
	DeviceID string    `gorm:"index:idx_nonces_device;not null"`
	UsedAt   time.Time `gorm:"index:idx_nonces_used_at;not null"`
}

func (NonceModel) TableName() string {
	return "nonces"
}
