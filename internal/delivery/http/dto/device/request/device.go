package request

type CreateDeviceRequest struct {
	DeviceName   string `json:"device_name"`
	ApprovalMode string `json:"approval_mode,omitempty"`
}

type EditDeviceRequest struct {
	DeviceName   *string `json:"device_name,omitempty"`
	Status       *string `json:"status,omitempty"`
	ApprovalMode *string `json:"approval_mode,omitempty"`
}
