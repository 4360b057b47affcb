package logger

import (
	"context"

	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/mappers"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

const defaultIngestionLogLimit = 50

// PGIngestionLogger persists the ingestion audit trail.
type PGIngestionLogger struct {
	db *gorm.DB
}

func NewPGIngestionLogger(db *gorm.DB) *PGIngestionLogger {
	return &PGIngestionLogger{db: db}
}

func (l *PGIngestionLogger) SaveIngestionLog(ctx context.Context, log *domain.IngestionLog) error {
	return l.db.WithContext(ctx).Create(mappers.ToModelIngestionLog(log)).Error
}

func (l *PGIngestionLogger) GetIngestionLogs(ctx context.Context, filter *domain.IngestionLogFilter) ([]*domain.IngestionLog, error) {
	query := l.db.WithContext(ctx).Model(&models.IngestionLogModel{})
	limit := defaultIngestionLogLimit
	offset := 0
	if filter != nil {
		if filter.DeviceID != "" {
			query = query.Where("device_id = ?", filter.DeviceID)
		}
		if filter.Success != nil {
			query = query.Where("success = ?", *filter.Success)
		}
		if filter.Action != "" {
			query = query.Where("action = ?", filter.Action)
		}
		if !filter.StartDate.IsZero() {
			query = query.Where("created_at >= ?", filter.StartDate)
		}
		if !filter.EndDate.IsZero() {
			query = query.Where("created_at <= ?", filter.EndDate)
		}
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		offset = filter.Offset
	}

	var logModels []*models.IngestionLogModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]*domain.IngestionLog, len(logModels))
	for i, m := range logModels {
		logs[i] = mappers.ToDomainIngestionLog(m)
	}
	return logs, nil
}
