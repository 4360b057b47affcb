package ingestiondto

type IngestOutput struct {
	NotificationID       string
	Status               string
	Matched              bool
	MatchedTransactionID string
	ApprovalID           string
	ApprovalStatus       string
	Order                *OrderSummary
}

type OrderSummary struct {
	Reference    string
	CustomerName string
}
