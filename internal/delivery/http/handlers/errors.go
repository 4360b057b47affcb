package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/xjanova/smschecker-sub001/internal/delivery/http/response"
	"github.com/xjanova/smschecker-sub001/internal/domain"
)

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FieldErrors(w, http.StatusUnprocessableEntity, "validation failed", verr.Fields)
	case errors.Is(err, domain.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrExhaustedSuffix),
		errors.Is(err, domain.ErrReservationConflict),
		errors.Is(err, domain.ErrApprovalNotPending):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrDeviceNotFound),
		errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrNotificationNotFound),
		errors.Is(err, domain.ErrApprovalNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("request failed", "error", err.Error())
		response.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func badBody(w http.ResponseWriter) {
	response.Error(w, http.StatusBadRequest, "invalid request body")
}
