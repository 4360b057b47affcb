package response

import "time"

// CredentialsResponse is shown once, when the device is provisioned.
type CredentialsResponse struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	APIKey       string `json:"api_key"`
	SecretKey    string `json:"secret_key"`
	Status       string `json:"status"`
	ApprovalMode string `json:"approval_mode"`
}

type DeviceResponse struct {
	DeviceID     string     `json:"device_id"`
	DeviceName   string     `json:"device_name"`
	Status       string     `json:"status"`
	ApprovalMode string     `json:"approval_mode"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
