package models

import "time"

type DeviceModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	APIKey       string `gorm:"uniqueIndex:idx_devices_api_key;not null"`
	SecretKey    string `gorm:"not null"`
	Status       string `gorm:"index:idx_devices_status;not null"`
	ApprovalMode string `gorm:"not null"`
	LastActiveAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (DeviceModel) TableName() string {
	return "devices"
}
