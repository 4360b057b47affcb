package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
)

type Intervals struct {
	ReservationSweep  time.Duration
	NonceSweep        time.Duration
	ApprovalSweep     time.Duration
	NotificationSweep time.Duration
}

type BackgroundTasks struct {
	Store              domain.Store
	ReservationUsecase usecase.ReservationUsecase
	ApprovalUsecase    usecase.ApprovalUsecase
	IngestionUsecase   usecase.IngestionUsecase
	ReplayGuard        *usecase.ReplayGuard
	Intervals          Intervals
	Logger             *slog.Logger
}

func NewBackgroundTasks(
	store domain.Store,
	reservationUC usecase.ReservationUsecase,
	approvalUC usecase.ApprovalUsecase,
	ingestionUC usecase.IngestionUsecase,
	replayGuard *usecase.ReplayGuard,
	intervals Intervals,
	logger *slog.Logger,
) *BackgroundTasks {
	return &BackgroundTasks{
		Store:              store,
		ReservationUsecase: reservationUC,
		ApprovalUsecase:    approvalUC,
		IngestionUsecase:   ingestionUC,
		ReplayGuard:        replayGuard,
		Intervals:          intervals,
		Logger:             logger,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.every(ctx, "reservation sweep", bt.Intervals.ReservationSweep, bt.sweepReservations)
	go bt.every(ctx, "nonce sweep", bt.Intervals.NonceSweep, bt.sweepNonces)
	go bt.every(ctx, "approval expiry", bt.Intervals.ApprovalSweep, bt.expireApprovals)
	go bt.every(ctx, "notification expiry", bt.Intervals.NotificationSweep, bt.expireNotifications)
}

func (bt *BackgroundTasks) every(ctx context.Context, name string, interval time.Duration, run func(ctx context.Context) (int64, error)) {
	if interval <= 0 {
		bt.Logger.Warn("background task disabled", "task", name)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := run(ctx)
			if err != nil {
				bt.Logger.Error("background task failed", "task", name, "error", err.Error())
				continue
			}
			if n > 0 {
				bt.Logger.Info("background task done", "task", name, "rows", n)
			}
		}
	}
}

func (bt *BackgroundTasks) sweepReservations(ctx context.Context) (int64, error) {
	return bt.ReservationUsecase.SweepExpired(ctx)
}

func (bt *BackgroundTasks) sweepNonces(ctx context.Context) (int64, error) {
	return bt.ReplayGuard.Sweep(ctx, bt.Store.Nonces())
}

func (bt *BackgroundTasks) expireApprovals(ctx context.Context) (int64, error) {
	return bt.ApprovalUsecase.ExpireStale(ctx)
}

func (bt *BackgroundTasks) expireNotifications(ctx context.Context) (int64, error) {
	return bt.IngestionUsecase.ExpireStaleNotifications(ctx)
}
