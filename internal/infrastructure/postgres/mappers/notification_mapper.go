package mappers

import (
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
)

func ToGORMNotification(n *domain.Notification) *models.NotificationModel {
	return &models.NotificationModel{
		ID:                   n.ID,
		Bank:                 n.Bank,
		Type:                 string(n.Type),
		AmountMinor:          domain.ToMinorUnits(n.Amount),
		AccountNumber:        n.AccountNumber,
		SenderOrReceiver:     n.SenderOrReceiver,
		ReferenceNumber:      n.ReferenceNumber,
		SMSTimestamp:         n.SMSTimestamp,
		DeviceID:             n.DeviceID,
		Nonce:                n.Nonce,
		Status:               string(n.Status),
		MatchedTransactionID: n.MatchedTransactionID,
		ApprovalID:           n.ApprovalID,
		CreatedAt:            n.CreatedAt,
		UpdatedAt:            n.UpdatedAt,
	}
}

func ToDomainNotification(model *models.NotificationModel) *domain.Notification {
	return &domain.Notification{
		ID:                   model.ID,
		Bank:                 model.Bank,
		Type:                 domain.TransactionType(model.Type),
		Amount:               domain.FromMinorUnits(model.AmountMinor),
		AccountNumber:        model.AccountNumber,
		SenderOrReceiver:     model.SenderOrReceiver,
		ReferenceNumber:      model.ReferenceNumber,
		SMSTimestamp:         model.SMSTimestamp,
		DeviceID:             model.DeviceID,
		Nonce:                model.Nonce,
		Status:               domain.NotificationStatus(model.Status),
		MatchedTransactionID: model.MatchedTransactionID,
		ApprovalID:           model.ApprovalID,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}
