package response

import "time"

type NotificationResponse struct {
	NotificationID       string         `json:"notification_id"`
	Status               string         `json:"status"`
	Matched              bool           `json:"matched"`
	MatchedTransactionID string         `json:"matched_transaction_id,omitempty"`
	ApprovalID           string         `json:"approval_id,omitempty"`
	ApprovalStatus       string         `json:"approval_status,omitempty"`
	Order                *OrderResponse `json:"order,omitempty"`
}

type OrderResponse struct {
	Reference    string `json:"reference,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

type DeviceStatusResponse struct {
	DeviceID             string     `json:"device_id"`
	DeviceName           string     `json:"device_name"`
	Status               string     `json:"status"`
	ApprovalMode         string     `json:"approval_mode"`
	PendingNotifications int64      `json:"pending_notifications"`
	LastActiveAt         *time.Time `json:"last_active_at,omitempty"`
}
