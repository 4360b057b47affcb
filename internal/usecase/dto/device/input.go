package devicedto

type CreateDeviceInput struct {
	DeviceName   string
	ApprovalMode string
}

type EditDeviceInput struct {
	DeviceID     string
	DeviceName   *string
	Status       *string
	ApprovalMode *string
}
