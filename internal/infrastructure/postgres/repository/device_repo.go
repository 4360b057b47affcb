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

type DefaultDeviceRepository struct {
	DB *gorm.DB
}

func NewDefaultDeviceRepository(db *gorm.DB) *DefaultDeviceRepository {
	return &DefaultDeviceRepository{
		DB: db,
	}
}

func (r *DefaultDeviceRepository) CreateDevice(ctx context.Context, device *domain.Device) error {
	deviceModel := mappers.ToGORMDevice(device)
	if err := r.DB.WithContext(ctx).Create(deviceModel).Error; err != nil {
		return err
	}
	device.CreatedAt = deviceModel.CreatedAt
	device.UpdatedAt = deviceModel.UpdatedAt
	return nil
}

func (r *DefaultDeviceRepository) GetDeviceByID(ctx context.Context, deviceID string) (*domain.Device, error) {
	var deviceModel models.DeviceModel
	if err := r.DB.WithContext(ctx).Where("id = ?", deviceID).First(&deviceModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDeviceNotFound
		}
		return nil, err
	}
	return mappers.ToDomainDevice(&deviceModel), nil
}

func (r *DefaultDeviceRepository) GetDeviceByAPIKey(ctx context.Context, apiKey string) (*domain.Device, error) {
	var deviceModel models.DeviceModel
	if err := r.DB.WithContext(ctx).Where("api_key = ?", apiKey).First(&deviceModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDeviceNotFound
		}
		return nil, err
	}
	return mappers.ToDomainDevice(&deviceModel), nil
}

func (r *DefaultDeviceRepository) UpdateDevice(ctx context.Context, deviceID string, params domain.UpdateDeviceParams) error {
	updates := map[string]interface{}{}
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Status != nil {
		updates["status"] = string(*params.Status)
	}
	if params.ApprovalMode != nil {
		updates["approval_mode"] = string(*params.ApprovalMode)
	}
	if len(updates) == 0 {
		_, err := r.GetDeviceByID(ctx, deviceID)
		return err
	}

	result := r.DB.WithContext(ctx).Model(&models.DeviceModel{}).Where("id = ?", deviceID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDeviceNotFound
	}
	return nil
}

func (r *DefaultDeviceRepository) UpdateDeviceLiveness(ctx context.Context, deviceID string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.DeviceModel{}).
		Where("id = ?", deviceID).
		Update("last_active_at", at).Error
}
