package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	reservationRequest "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/reservation/request"
	reservationResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/reservation/response"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/response"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
	reservationdto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/reservation"
)

type ReservationHandler struct {
	uc     usecase.ReservationUsecase
	logger *slog.Logger
}

func NewReservationHandler(uc usecase.ReservationUsecase, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{uc: uc, logger: logger}
}

func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var body reservationRequest.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badBody(w)
		return
	}
	out, err := h.uc.Reserve(r.Context(), &reservationdto.ReserveInput{
		BaseAmount:    body.BaseAmount,
		TransactionID: body.TransactionID,
		Expiry:        time.Duration(body.ExpiryMinutes) * time.Minute,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, "amount reserved", toReservationResponse(out))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.uc.GetReservation(r.Context(), chi.URLParam(r, "transaction_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, "ok", toReservationResponse(out))
}

func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transaction_id")
	released, err := h.uc.Release(r.Context(), transactionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	message := "nothing to release"
	if released {
		message = "reservation released"
	}
	response.JSON(w, http.StatusOK, message, map[string]interface{}{
		"transaction_id": transactionID,
		"released":       released,
	})
}

func toReservationResponse(out *reservationdto.ReservationOutput) reservationResponse.ReservationResponse {
	return reservationResponse.ReservationResponse{
		ID:            out.ID,
		TransactionID: out.TransactionID,
		BaseAmount:    out.BaseAmount.StringFixed(domain.MinorUnitExp),
		Suffix:        out.Suffix,
		UniqueAmount:  out.UniqueAmount.StringFixed(domain.MinorUnitExp),
		Status:        out.Status,
		ExpiresAt:     out.ExpiresAt,
		MatchedAt:     out.MatchedAt,
		CreatedAt:     out.CreatedAt,
	}
}
