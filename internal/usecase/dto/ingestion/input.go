package ingestiondto

import approvaldto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/approval"

// IngestInput carries the raw wire request: headers plus the encrypted data field.
type IngestInput struct {
	APIKey    string
	Signature string
	Nonce     string
	Timestamp string
	DeviceID  string
	Data      string
}

type StatusInput struct {
	APIKey   string
	DeviceID string
}

// DeviceApprovalsInput reads the approval feed scoped to the calling device.
type DeviceApprovalsInput struct {
	APIKey   string
	DeviceID string
	Filter   approvaldto.ListApprovalsInput
}
