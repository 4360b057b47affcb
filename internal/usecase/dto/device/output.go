package devicedto

import "time"

// DeviceCredentialsOutput is returned once, at provisioning.
type DeviceCredentialsOutput struct {
	DeviceID     string
	DeviceName   string
	APIKey       string
	SecretKey    string
	Status       string
	ApprovalMode string
}

type DeviceStatusOutput struct {
	DeviceID             string
	DeviceName           string
	Status               string
	ApprovalMode         string
	PendingNotifications int64
	LastActiveAt         *time.Time
}
