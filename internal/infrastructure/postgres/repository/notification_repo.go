package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/mappers"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultNotificationRepository struct {
	DB *gorm.DB
}

func NewDefaultNotificationRepository(db *gorm.DB) *DefaultNotificationRepository {
	return &DefaultNotificationRepository{
		DB: db,
	}
}

func (r *DefaultNotificationRepository) CreateNotification(ctx context.Context, notification *domain.Notification) error {
	model := mappers.ToGORMNotification(notification)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	notification.CreatedAt = model.CreatedAt
	notification.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *DefaultNotificationRepository) GetNotificationByID(ctx context.Context, notificationID string) (*domain.Notification, error) {
	var model models.NotificationModel
	if err := r.DB.WithContext(ctx).Where("id = ?", notificationID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return mappers.ToDomainNotification(&model), nil
}

// AttachMatch records the matched transaction and approval on a pending
// notification and moves it to matched.
func (r *DefaultNotificationRepository) AttachMatch(ctx context.Context, notificationID, transactionID, approvalID string) error {
	result := r.DB.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("id = ? AND status = ?", notificationID, string(domain.NotificationStatusPending)).
		Updates(map[string]interface{}{
			"status":                 string(domain.NotificationStatusMatched),
			"matched_transaction_id": transactionID,
			"approval_id":            approvalID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *DefaultNotificationRepository) AdvanceStatus(ctx context.Context, notificationID string, next domain.NotificationStatus, from ...domain.NotificationStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	result := r.DB.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("id = ? AND status IN ?", notificationID, allowed).
		Update("status", string(next))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *DefaultNotificationRepository) CountPendingByDevice(ctx context.Context, deviceID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("device_id = ? AND status = ?", deviceID, string(domain.NotificationStatusPending)).
		Count(&count).Error
	return count, err
}

func (r *DefaultNotificationRepository) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("status = ? AND created_at < ?", string(domain.NotificationStatusPending), cutoff).
		Update("status", string(domain.NotificationStatusExpired))
	return result.RowsAffected, result.Error
}
