package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ingestionRequest "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/ingestion/request"
	ingestionResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/ingestion/response"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/response"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
	ingestiondto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/ingestion"
)

const (
	HeaderAPIKey    = "X-Api-Key"
	HeaderSignature = "X-Signature"
	HeaderNonce     = "X-Nonce"
	HeaderTimestamp = "X-Timestamp"
	HeaderDeviceID  = "X-Device-Id"

	maxNotificationBody = 64 << 10
)

type NotificationHandler struct {
	uc     usecase.IngestionUsecase
	logger *slog.Logger
}

func NewNotificationHandler(uc usecase.IngestionUsecase, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{uc: uc, logger: logger}
}

func (h *NotificationHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var body ingestionRequest.NotificationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotificationBody)).Decode(&body); err != nil {
		badBody(w)
		return
	}

	out, err := h.uc.Ingest(r.Context(), &ingestiondto.IngestInput{
		APIKey:    r.Header.Get(HeaderAPIKey),
		Signature: r.Header.Get(HeaderSignature),
		Nonce:     r.Header.Get(HeaderNonce),
		Timestamp: r.Header.Get(HeaderTimestamp),
		DeviceID:  r.Header.Get(HeaderDeviceID),
		Data:      body.Data,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := ingestionResponse.NotificationResponse{
		NotificationID:       out.NotificationID,
		Status:               out.Status,
		Matched:              out.Matched,
		MatchedTransactionID: out.MatchedTransactionID,
		ApprovalID:           out.ApprovalID,
		ApprovalStatus:       out.ApprovalStatus,
	}
	if out.Order != nil {
		resp.Order = &ingestionResponse.OrderResponse{
			Reference:    out.Order.Reference,
			CustomerName: out.Order.CustomerName,
		}
	}
	message := "notification received"
	if out.Matched {
		message = "notification matched"
	}
	response.JSON(w, http.StatusOK, message, resp)
}

func (h *NotificationHandler) DeviceStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.uc.Status(r.Context(), &ingestiondto.StatusInput{
		APIKey:   r.Header.Get(HeaderAPIKey),
		DeviceID: r.Header.Get(HeaderDeviceID),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, "ok", ingestionResponse.DeviceStatusResponse{
		DeviceID:             status.DeviceID,
		DeviceName:           status.DeviceName,
		Status:               status.Status,
		ApprovalMode:         status.ApprovalMode,
		PendingNotifications: status.PendingNotifications,
		LastActiveAt:         status.LastActiveAt,
	})
}

func (h *NotificationHandler) DeviceApprovals(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	approvals, err := h.uc.DeviceApprovals(r.Context(), &ingestiondto.DeviceApprovalsInput{
		APIKey:   r.Header.Get(HeaderAPIKey),
		DeviceID: r.Header.Get(HeaderDeviceID),
		Filter:   *filter,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, "ok", toApprovalList(approvals))
}
