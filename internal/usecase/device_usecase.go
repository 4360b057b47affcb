package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaevor/go-nanoid"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	devicedto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/device"
)

const (
	deviceIDLength  = 15
	apiKeyLength    = 32
	secretKeyLength = 48
)

type DeviceUsecase interface {
	CreateDevice(ctx context.Context, input *devicedto.CreateDeviceInput) (*devicedto.DeviceCredentialsOutput, error)
	EditDevice(ctx context.Context, input *devicedto.EditDeviceInput) (*domain.Device, error)
	// Authenticate resolves the device behind apiKey. When requireActive is
	// set, blocked and inactive devices are refused.
	Authenticate(ctx context.Context, apiKey, deviceID string, requireActive bool) (*domain.Device, error)
	GetDeviceStatus(ctx context.Context, device *domain.Device) (*devicedto.DeviceStatusOutput, error)
	UpdateDeviceLiveness(ctx context.Context, deviceID string) error
}

type DefaultDeviceUsecase struct {
	store       domain.Store
	defaultMode domain.ApprovalMode
	clock       Clock
}

func NewDefaultDeviceUsecase(store domain.Store, defaultMode domain.ApprovalMode, clock Clock) *DefaultDeviceUsecase {
	if !defaultMode.Valid() {
		defaultMode = domain.ApprovalModeAuto
	}
	return &DefaultDeviceUsecase{
		store:       store,
		defaultMode: defaultMode,
		clock:       clock,
	}
}

func (uc *DefaultDeviceUsecase) CreateDevice(ctx context.Context, input *devicedto.CreateDeviceInput) (*devicedto.DeviceCredentialsOutput, error) {
	mode := uc.defaultMode
	if input.ApprovalMode != "" {
		mode = domain.ApprovalMode(input.ApprovalMode)
		if !mode.Valid() {
			verr := domain.NewValidationError()
			verr.Add("approval_mode", "must be auto, manual or smart")
			return nil, verr
		}
	}

	idGenerator, err := nanoid.Standard(deviceIDLength)
	if err != nil {
		return nil, err
	}
	keyGenerator, err := nanoid.Standard(apiKeyLength)
	if err != nil {
		return nil, err
	}
	secretGenerator, err := nanoid.Standard(secretKeyLength)
	if err != nil {
		return nil, err
	}

	now := uc.clock.now()
	device := &domain.Device{
		DeviceID:     idGenerator(),
		DeviceName:   input.DeviceName,
		APIKey:       keyGenerator(),
		SecretKey:    secretGenerator(),
		Status:       domain.DeviceStatusActive,
		ApprovalMode: mode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.store.Devices().CreateDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}

	return &devicedto.DeviceCredentialsOutput{
		DeviceID:     device.DeviceID,
		DeviceName:   device.DeviceName,
		APIKey:       device.APIKey,
		SecretKey:    device.SecretKey,
		Status:       string(device.Status),
		ApprovalMode: string(device.ApprovalMode),
	}, nil
}

func (uc *DefaultDeviceUsecase) EditDevice(ctx context.Context, input *devicedto.EditDeviceInput) (*domain.Device, error) {
	params := domain.UpdateDeviceParams{Name: input.DeviceName}
	verr := domain.NewValidationError()
	if input.Status != nil {
		status := domain.DeviceStatus(*input.Status)
		if !status.Valid() {
			verr.Add("status", "must be active, inactive or blocked")
		}
		params.Status = &status
	}
	if input.ApprovalMode != nil {
		mode := domain.ApprovalMode(*input.ApprovalMode)
		if !mode.Valid() {
			verr.Add("approval_mode", "must be auto, manual or smart")
		}
		params.ApprovalMode = &mode
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := uc.store.Devices().UpdateDevice(ctx, input.DeviceID, params); err != nil {
		return nil, err
	}
	return uc.store.Devices().GetDeviceByID(ctx, input.DeviceID)
}

func (uc *DefaultDeviceUsecase) Authenticate(ctx context.Context, apiKey, deviceID string, requireActive bool) (*domain.Device, error) {
	if apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	device, err := uc.store.Devices().GetDeviceByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, domain.ErrDeviceNotFound) {
			return nil, domain.ErrInvalidAPIKey
		}
		return nil, err
	}
	if deviceID != "" && deviceID != device.DeviceID {
		return nil, domain.ErrDeviceMismatch
	}
	if requireActive {
		switch device.Status {
		case domain.DeviceStatusBlocked:
			return nil, domain.ErrDeviceBlocked
		case domain.DeviceStatusInactive:
			return nil, domain.ErrDeviceInactive
		}
	}
	return device, nil
}

func (uc *DefaultDeviceUsecase) GetDeviceStatus(ctx context.Context, device *domain.Device) (*devicedto.DeviceStatusOutput, error) {
	pending, err := uc.store.Notifications().CountPendingByDevice(ctx, device.DeviceID)
	if err != nil {
		return nil, err
	}
	return &devicedto.DeviceStatusOutput{
		DeviceID:             device.DeviceID,
		DeviceName:           device.DeviceName,
		Status:               string(device.Status),
		ApprovalMode:         string(device.ApprovalMode),
		PendingNotifications: pending,
		LastActiveAt:         device.LastActiveAt,
	}, nil
}

func (uc *DefaultDeviceUsecase) UpdateDeviceLiveness(ctx context.Context, deviceID string) error {
	return uc.store.Devices().UpdateDeviceLiveness(ctx, deviceID, uc.clock.now())
}
