package mappers

import (
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
)

func ToGORMApproval(a *domain.Approval) *models.ApprovalModel {
	return &models.ApprovalModel{
		ID:                   a.ID,
		NotificationID:       a.NotificationID,
		MatchedTransactionID: a.MatchedTransactionID,
		DeviceID:             a.DeviceID,
		Status:               string(a.Status),
		Confidence:           string(a.Confidence),
		ApprovedBy:           a.ApprovedBy,
		ApprovedAt:           a.ApprovedAt,
		RejectedAt:           a.RejectedAt,
		RejectionReason:      a.RejectionReason,
		SyncedVersion:        a.SyncedVersion,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func ToDomainApproval(model *models.ApprovalModel) *domain.Approval {
	return &domain.Approval{
		ID:                   model.ID,
		NotificationID:       model.NotificationID,
		MatchedTransactionID: model.MatchedTransactionID,
		DeviceID:             model.DeviceID,
		Status:               domain.ApprovalStatus(model.Status),
		Confidence:           domain.Confidence(model.Confidence),
		ApprovedBy:           model.ApprovedBy,
		ApprovedAt:           model.ApprovedAt,
		RejectedAt:           model.RejectedAt,
		RejectionReason:      model.RejectionReason,
		SyncedVersion:        model.SyncedVersion,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

func ToDomainApprovals(list []*models.ApprovalModel) []*domain.Approval {
	out := make([]*domain.Approval, len(list))
	for i, m := range list {
		out[i] = ToDomainApproval(m)
	}
	return out
}
