package notifier

import "time"

type CallbackPayload struct {
	TransactionID  string    `json:"transaction_id"`
	ApprovalID     string    `json:"approval_id"`
	NotificationID string    `json:"notification_id"`
	DeviceID       string    `json:"device_id"`
	Status         string    `json:"status"`
	Amount         string    `json:"amount"`
	ApprovedBy     string    `json:"approved_by"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}
