package domain

import (
	"context"
	"time"
)

type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "active"
	DeviceStatusInactive DeviceStatus = "inactive"
	DeviceStatusBlocked  DeviceStatus = "blocked"
)

func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceStatusActive, DeviceStatusInactive, DeviceStatusBlocked:
		return true
	}
	return false
}

type ApprovalMode string

const (
	ApprovalModeAuto   ApprovalMode = "auto"
	ApprovalModeManual ApprovalMode = "manual"
	ApprovalModeSmart  ApprovalMode = "smart"
)

func (m ApprovalMode) Valid() bool {
	switch m {
	case ApprovalModeAuto, ApprovalModeManual, ApprovalModeSmart:
		return true
	}
	return false
}

type Device struct {
	DeviceID     string
	DeviceName   string
	APIKey       string
	SecretKey    string
	Status       DeviceStatus
	ApprovalMode ApprovalMode

	LastActiveAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeviceConfig is the policy snapshot handed to a single pipeline run.
type DeviceConfig struct {
	DeviceID     string
	ApprovalMode ApprovalMode
}

func (d *Device) Config() DeviceConfig {
	return DeviceConfig{
		DeviceID:     d.DeviceID,
		ApprovalMode: d.ApprovalMode,
	}
}

type DeviceRepository interface {
	CreateDevice(ctx context.Context, device *Device) error
	GetDeviceByID(ctx context.Context, deviceID string) (*Device, error)
	GetDeviceByAPIKey(ctx context.Context, apiKey string) (*Device, error)
	UpdateDevice(ctx context.Context, deviceID string, params UpdateDeviceParams) error
	UpdateDeviceLiveness(ctx context.Context, deviceID string, at time.Time) error
}

type UpdateDeviceParams struct {
	Name         *string
	Status       *DeviceStatus
	ApprovalMode *ApprovalMode
}
