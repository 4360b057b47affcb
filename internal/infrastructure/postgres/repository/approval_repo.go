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

const defaultApprovalPageSize = 100

type DefaultApprovalRepository struct {
	DB *gorm.DB
}

func NewDefaultApprovalRepository(db *gorm.DB) *DefaultApprovalRepository {
	return &DefaultApprovalRepository{
		DB: db,
	}
}

func (r *DefaultApprovalRepository) CreateApproval(ctx context.Context, approval *domain.Approval) error {
	model := mappers.ToGORMApproval(approval)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	approval.CreatedAt = model.CreatedAt
	approval.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *DefaultApprovalRepository) GetApprovalByID(ctx context.Context, approvalID string) (*domain.Approval, error) {
	var model models.ApprovalModel
	if err := r.DB.WithContext(ctx).Where("id = ?", approvalID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApprovalNotFound
		}
		return nil, err
	}
	return mappers.ToDomainApproval(&model), nil
}

// TransitionApproval is a compare-and-set on status. The version bump happens
// in the same statement, so a lost race leaves synced_version untouched.
func (r *DefaultApprovalRepository) TransitionApproval(ctx context.Context, approvalID string, t domain.ApprovalTransition) (bool, error) {
	updates := map[string]interface{}{
		"status":         string(t.To),
		"synced_version": gorm.Expr("synced_version + 1"),
		"updated_at":     t.At,
	}
	switch {
	case t.To.IsApproved():
		updates["approved_by"] = t.By
		updates["approved_at"] = t.At
	case t.To == domain.ApprovalStatusRejected:
		updates["rejected_at"] = t.At
		updates["rejection_reason"] = t.Reason
	case t.Reason != "":
		updates["rejection_reason"] = t.Reason
	}

	result := r.DB.WithContext(ctx).Model(&models.ApprovalModel{}).
		Where("id = ? AND status = ?", approvalID, string(domain.ApprovalStatusPendingReview)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *DefaultApprovalRepository) ListApprovals(ctx context.Context, filter domain.ApprovalFilter) ([]*domain.Approval, error) {
	query := r.DB.WithContext(ctx).Model(&models.ApprovalModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.DeviceID != "" {
		query = query.Where("device_id = ?", filter.DeviceID)
	}
	if !filter.UpdatedSince.IsZero() {
		// Inclusive: rows sharing the cursor timestamp are sent again and
		// deduplicated by synced_version on the client.
		query = query.Where("updated_at >= ?", filter.UpdatedSince)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultApprovalPageSize
	}

	var approvalModels []*models.ApprovalModel
	if err := query.Order("updated_at ASC").Order("id ASC").
		Offset(filter.Offset).Limit(limit).
		Find(&approvalModels).Error; err != nil {
		return nil, err
	}
	return mappers.ToDomainApprovals(approvalModels), nil
}

func (r *DefaultApprovalRepository) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Approval, error) {
	if limit <= 0 {
		limit = defaultApprovalPageSize
	}
	var approvalModels []*models.ApprovalModel
	err := r.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(domain.ApprovalStatusPendingReview), createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&approvalModels).Error
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainApprovals(approvalModels), nil
}
