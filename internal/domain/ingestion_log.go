package domain

import (
	"context"
	"time"
)

// Ingestion log actions.
const (
	IngestActionAccepted  = "accepted"
	IngestActionMatched   = "matched"
	IngestActionRejected  = "rejected"
	IngestActionDuplicate = "duplicate"
	IngestActionFailed    = "failed"
)

// IngestionLog records the outcome of one ingestion attempt, accepted or not.
type IngestionLog struct {
	ID             string
	DeviceID       string
	Nonce          string
	Action         string
	Success        bool
	ErrorMessage   string
	NotificationID string
	ApprovalID     string
	Amount         string
	ProcessingTime int64
	CreatedAt      time.Time
}

type IngestionLogFilter struct {
	DeviceID  string
	Success   *bool
	Action    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

type IngestionLogRepository interface {
	SaveIngestionLog(ctx context.Context, log *IngestionLog) error
	GetIngestionLogs(ctx context.Context, filter *IngestionLogFilter) ([]*IngestionLog, error)
}
