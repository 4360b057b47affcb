package models

import "time"

type NotificationModel struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	Bank                 string `gorm:"size:20;not null"`
	Type                 string `gorm:"not null"`
	AmountMinor          int64  `gorm:"not null"`
	AccountNumber        string `gorm:"size:50"`
	SenderOrReceiver     string `gorm:"size:255"`
	ReferenceNumber      string `gorm:"size:100"`
	SMSTimestamp         time.Time
	DeviceID             string `gorm:"not null;index:idx_notifications_device_status,priority:1"`
	Nonce                string `gorm:"size:64;not null;uniqueIndex:idx_notifications_nonce"`
	Status               string `gorm:"not null;index:idx_notifications_device_status,priority:2"`
	MatchedTransactionID string
	ApprovalID           string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}
