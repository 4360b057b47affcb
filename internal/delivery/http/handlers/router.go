package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	appmiddleware "github.com/xjanova/smschecker-sub001/internal/delivery/http/middleware"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/response"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
)

const healthTimeout = 2 * time.Second

type RouterDeps struct {
	Ingestion    usecase.IngestionUsecase
	Reservations usecase.ReservationUsecase
	Approvals    usecase.ApprovalUsecase
	Devices      usecase.DeviceUsecase
	AdminToken   string
	Metrics      http.Handler
	Health       func(ctx context.Context) error
	Logger       *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	notifications := NewNotificationHandler(deps.Ingestion, deps.Logger)
	reservations := NewReservationHandler(deps.Reservations, deps.Logger)
	approvals := NewApprovalHandler(deps.Approvals, deps.Logger)
	devices := NewDeviceHandler(deps.Devices, deps.Logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(appmiddleware.AccessLog(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				response.Error(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		response.JSON(w, http.StatusOK, "ok", nil)
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/notifications", notifications.Ingest)
		r.Get("/device/status", notifications.DeviceStatus)
		r.Get("/device/approvals", notifications.DeviceApprovals)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.AdminToken(deps.AdminToken))

			r.Post("/reservations", reservations.Reserve)
			r.Get("/reservations/{transaction_id}", reservations.Get)
			r.Delete("/reservations/{transaction_id}", reservations.Release)

			r.Get("/approvals", approvals.List)
			r.Get("/approvals/{id}", approvals.Get)
			r.Post("/approvals/{id}/approve", approvals.Approve)
			r.Post("/approvals/{id}/reject", approvals.Reject)
			r.Post("/approvals/{id}/cancel", approvals.Cancel)
			r.Delete("/approvals/{id}", approvals.Delete)

			r.Post("/devices", devices.Create)
			r.Patch("/devices/{id}", devices.Edit)
		})
	})
	return r
}
