package request

// NotificationRequest is the ingestion body; data is the encrypted payload.
type NotificationRequest struct {
	Data string `json:"data"`
}
