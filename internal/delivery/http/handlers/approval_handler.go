package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	approvalRequest "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/approval/request"
	approvalResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/approval/response"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/response"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
	approvaldto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/approval"
)

const defaultReviewer = "admin"

type ApprovalHandler struct {
	uc     usecase.ApprovalUsecase
	logger *slog.Logger
}

func NewApprovalHandler(uc usecase.ApprovalUsecase, logger *slog.Logger) *ApprovalHandler {
	return &ApprovalHandler{uc: uc, logger: logger}
}

func (h *ApprovalHandler) List(w http.ResponseWriter, r *http.Request) {
	input, err := parseListQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	input.DeviceID = r.URL.Query().Get("device_id")

	approvals, err := h.uc.ListApprovals(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, "ok", toApprovalList(approvals))
}

func toApprovalList(approvals []*domain.Approval) approvalResponse.ApprovalListResponse {
	items := make([]approvalResponse.ApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		items = append(items, toApprovalResponse(a))
	}
	return approvalResponse.ApprovalListResponse{Approvals: items, Count: len(items)}
}

// parseListQuery reads the feed filters shared by the admin and device feeds.
func parseListQuery(r *http.Request) (*approvaldto.ListApprovalsInput, error) {
	query := r.URL.Query()
	input := &approvaldto.ListApprovalsInput{Status: query.Get("status")}

	verr := domain.NewValidationError()
	if raw := query.Get("updated_since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			verr.Add("updated_since", "must be an RFC 3339 timestamp")
		}
		input.UpdatedSince = since.UTC()
	}
	input.Limit = queryInt(query.Get("limit"), "limit", verr)
	input.Offset = queryInt(query.Get("offset"), "offset", verr)
	return input, verr.OrNil()
}

func queryInt(raw, field string, verr *domain.ValidationError) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		verr.Add(field, "must be a non-negative integer")
		return 0
	}
	return n
}

func (h *ApprovalHandler) Get(w http.ResponseWriter, r *http.Request) {
	approval, err := h.uc.GetApproval(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, "ok", toApprovalResponse(approval))
}

func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var body approvalRequest.ApproveRequest
	if !decodeOptional(w, r, &body) {
		return
	}
	if body.ApprovedBy == "" {
		body.ApprovedBy = defaultReviewer
	}
	approval, err := h.uc.Approve(r.Context(), chi.URLParam(r, "id"), body.ApprovedBy)
	h.respond(w, approval, err, "approval approved")
}

func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var body approvalRequest.RejectRequest
	if !decodeOptional(w, r, &body) {
		return
	}
	approval, err := h.uc.Reject(r.Context(), chi.URLParam(r, "id"), body.Reason)
	h.respond(w, approval, err, "approval rejected")
}

func (h *ApprovalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body approvalRequest.CancelRequest
	if !decodeOptional(w, r, &body) {
		return
	}
	approval, err := h.uc.Cancel(r.Context(), chi.URLParam(r, "id"), body.Reason)
	h.respond(w, approval, err, "approval cancelled")
}

func (h *ApprovalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	approval, err := h.uc.Delete(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, approval, err, "approval deleted")
}

func (h *ApprovalHandler) respond(w http.ResponseWriter, approval *domain.Approval, err error, message string) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, message, toApprovalResponse(approval))
}

// decodeOptional reads a JSON body that may be absent.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		badBody(w)
		return false
	}
	return true
}

func toApprovalResponse(a *domain.Approval) approvalResponse.ApprovalResponse {
	return approvalResponse.ApprovalResponse{
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
