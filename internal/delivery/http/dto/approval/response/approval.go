package response

import "time"

type ApprovalResponse struct {
	ID                   string     `json:"id"`
	NotificationID       string     `json:"notification_id"`
	MatchedTransactionID string     `json:"matched_transaction_id"`
	DeviceID             string     `json:"device_id"`
	Status               string     `json:"status"`
	Confidence           string     `json:"confidence"`
	ApprovedBy           string     `json:"approved_by,omitempty"`
	ApprovedAt           *time.Time `json:"approved_at,omitempty"`
	RejectedAt           *time.Time `json:"rejected_at,omitempty"`
	RejectionReason      string     `json:"rejection_reason,omitempty"`
	SyncedVersion        int64      `json:"synced_version"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type ApprovalListResponse struct {
	Approvals []ApprovalResponse `json:"approvals"`
	Count     int                `json:"count"`
}
