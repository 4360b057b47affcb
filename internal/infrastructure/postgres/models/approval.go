package models

import "time"

type ApprovalModel struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	NotificationID       string `gorm:"not null;uniqueIndex:idx_approvals_notification"`
	MatchedTransactionID string `gorm:"not null;index:idx_approvals_tx"`
	DeviceID             string `gorm:"not null;index:idx_approvals_device"`
	Status               string `gorm:"not null;index:idx_approvals_status"`
	Confidence           string `gorm:"not null"`
	ApprovedBy           string
	ApprovedAt           *time.Time
	RejectedAt           *time.Time
	RejectionReason      string `gorm:"type:text"`
	SyncedVersion        int64  `gorm:"not null;default:1"`
	CreatedAt            time.Time
	UpdatedAt            time.Time `gorm:"index:idx_approvals_updated"`
}

func (ApprovalModel) TableName() string {
	return "approvals"
}
