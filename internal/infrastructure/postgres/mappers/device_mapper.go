package mappers

import (
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
)

func ToGORMDevice(device *domain.Device) *models.DeviceModel {
	return &models.DeviceModel{
		ID:           device.DeviceID,
		Name:         device.DeviceName,
		APIKey:       device.APIKey,
		SecretKey:    device.SecretKey,
		Status:       string(device.Status),
		ApprovalMode: string(device.ApprovalMode),
		LastActiveAt: device.LastActiveAt,
		CreatedAt:    device.CreatedAt,
		UpdatedAt:    device.UpdatedAt,
	}
}

func ToDomainDevice(model *models.DeviceModel) *domain.Device {
	return &domain.Device{
		DeviceID:     model.ID,
		DeviceName:   model.Name,
		APIKey:       model.APIKey,
		SecretKey:    model.SecretKey,
		Status:       domain.DeviceStatus(model.Status),
		ApprovalMode: domain.ApprovalMode(model.ApprovalMode),
		LastActiveAt: model.LastActiveAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
