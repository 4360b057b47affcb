package models

import (
	"time"
)

type IngestionLogModel struct {
	ID       string `gorm:"primaryKey;type:uuid"`
	DeviceID string `gorm:"index:idx_ingestion_logs_device"`
	Nonce    string

	// outcome
	Action         string // accepted, matched, rejected, duplicate, failed
	Success        bool
	ErrorMessage   string `gorm:"type:text"`
	NotificationID string
	ApprovalID     string
	Amount         string

	ProcessingTime int64 // milliseconds

	CreatedAt time.Time `gorm:"index:idx_ingestion_logs_created"`
}

func (IngestionLogModel) TableName() string {
	return "ingestion_logs"
}
