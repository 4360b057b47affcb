package mappers

import (
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
)

func ToDomainIngestionLog(model *models.IngestionLogModel) *domain.IngestionLog {
	if model == nil {
		return nil
	}
	return &domain.IngestionLog{
		ID:             model.ID,
		DeviceID:       model.DeviceID,
		Nonce:          model.Nonce,
		Action:         model.Action,
		Success:        model.Success,
		ErrorMessage:   model.ErrorMessage,
		NotificationID: model.NotificationID,
		ApprovalID:     model.ApprovalID,
		Amount:         model.Amount,
		ProcessingTime: model.ProcessingTime,
		CreatedAt:      model.CreatedAt,
	}
}

func ToModelIngestionLog(log *domain.IngestionLog) *models.IngestionLogModel {
	if log == nil {
		return nil
	}
	return &models.IngestionLogModel{
		ID:             log.ID,
		DeviceID:       log.DeviceID,
		Nonce:          log.Nonce,
		Action:         log.Action,
		Success:        log.Success,
		ErrorMessage:   log.ErrorMessage,
		NotificationID: log.NotificationID,
		ApprovalID:     log.ApprovalID,
		Amount:         log.Amount,
		ProcessingTime: log.ProcessingTime,
		CreatedAt:      log.CreatedAt,
	}
}
