package mappers

import (
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
)

func ToGORMNonce(record *domain.NonceRecord) *models.NonceModel {
	return &models.NonceModel{
		Nonce:    record.Nonce,
		DeviceID: record.DeviceID,
		UsedAt:   record.UsedAt,
	}
}
