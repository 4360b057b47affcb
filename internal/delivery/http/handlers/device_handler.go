package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	deviceRequest "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/device/request"
	deviceResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/device/response"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/response"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
	devicedto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/device"
)

type DeviceHandler struct {
	uc     usecase.DeviceUsecase
	logger *slog.Logger
}

func NewDeviceHandler(uc usecase.DeviceUsecase, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{uc: uc, logger: logger}
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body deviceRequest.CreateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badBody(w)
		return
	}
	creds, err := h.uc.CreateDevice(r.Context(), &devicedto.CreateDeviceInput{
		DeviceName:   body.DeviceName,
		ApprovalMode: body.ApprovalMode,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("device provisioned", "device_id", creds.DeviceID, "approval_mode", creds.ApprovalMode)
	response.JSON(w, http.StatusCreated, "device created", deviceResponse.CredentialsResponse{
		DeviceID:     creds.DeviceID,
		DeviceName:   creds.DeviceName,
		APIKey:       creds.APIKey,
		SecretKey:    creds.SecretKey,
		Status:       creds.Status,
		ApprovalMode: creds.ApprovalMode,
	})
}

func (h *DeviceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var body deviceRequest.EditDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badBody(w)
		return
	}
	device, err := h.uc.EditDevice(r.Context(), &devicedto.EditDeviceInput{
		DeviceID:     chi.URLParam(r, "id"),
		DeviceName:   body.DeviceName,
		Status:       body.Status,
		ApprovalMode: body.ApprovalMode,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, "device updated", deviceResponse.DeviceResponse{
		DeviceID:     device.DeviceID,
		DeviceName:   device.DeviceName,
		Status:       string(device.Status),
		ApprovalMode: string(device.ApprovalMode),
		LastActiveAt: device.LastActiveAt,
		CreatedAt:    device.CreatedAt,
		UpdatedAt:    device.UpdatedAt,
	})
}
