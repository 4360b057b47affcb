package setup

import (
	"github.com/xjanova/smschecker-sub001/internal/client"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/kafka"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/notifier"
	"github.com/xjanova/smschecker-sub001/internal/security"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
)

type UseCases struct {
	DeviceUsecase      usecase.DeviceUsecase
	ReservationUsecase usecase.ReservationUsecase
	ApprovalUsecase    usecase.ApprovalUsecase
	IngestionUsecase   usecase.IngestionUsecase
	ReplayGuard        *usecase.ReplayGuard
}

func InitializeUseCases(deps *Dependencies) *UseCases {
	cfg := deps.Config
	clock := usecase.Clock(usecase.SystemClock)

	var events domain.EventPublisher = usecase.NoopEventPublisher{}
	if cfg.KafkaService.Enabled {
		events = kafka.NewEventPublisher(deps.Publisher, kafka.Topics{
			Notifications: cfg.KafkaService.NotificationTopic,
			Approvals:     cfg.KafkaService.ApprovalTopic,
			Reservations:  cfg.KafkaService.ReservationTopic,
		})
	}

	deviceUsecase := usecase.NewDefaultDeviceUsecase(deps.Store, domain.ApprovalMode(cfg.Matching.ApprovalMode), clock)
	replayGuard := usecase.NewReplayGuard(deps.NonceCache, cfg.Matching.NonceRetention(), clock, deps.Logger)
	reservationUsecase := usecase.NewDefaultReservationUsecase(
		deps.Store,
		cfg.Matching.ReservationExpiry(),
		events,
		deps.Metrics,
		clock,
		deps.Logger,
	)
	approvalUsecase := usecase.NewDefaultApprovalUsecase(
		deps.Store,
		usecase.NewWindowedCohortPolicy(cfg.Matching.AmbiguousWindow(), cfg.Matching.AmbiguousAmountThreshold),
		confirmationNotifier(deps),
		events,
		deps.Metrics,
		cfg.Matching.PendingApprovalTTL(),
		clock,
		deps.Logger,
	)

	var orders domain.OrderDetailsResolver = usecase.NoopOrderDetailsResolver{}
	if cfg.Hooks.OrderDetailsURL != "" {
		orders = client.NewHTTPOrderDetailsResolver(cfg.Hooks.OrderDetailsURL, cfg.Hooks.Timeout)
	}

	ingestionUsecase := usecase.NewDefaultIngestionUsecase(usecase.IngestionDeps{
		Store:        deps.Store,
		Protocol:     security.NewProtocolWithIterations(cfg.Matching.KeyDerivationIterations),
		Devices:      deviceUsecase,
		Replay:       replayGuard,
		Reservations: reservationUsecase,
		Approvals:    approvalUsecase,
		Orders:       orders,
		Publisher:    events,
		AuditLog:     deps.IngestionLog,
		Metrics:      deps.Metrics,
		Tolerance:    cfg.Matching.TimestampTolerance(),
		PendingTTL:   cfg.Matching.PendingNotificationTTL(),
		Clock:        clock,
		Logger:       deps.Logger,
	})

	return &UseCases{
		DeviceUsecase:      deviceUsecase,
		ReservationUsecase: reservationUsecase,
		ApprovalUsecase:    approvalUsecase,
		IngestionUsecase:   ingestionUsecase,
		ReplayGuard:        replayGuard,
	}
}

func confirmationNotifier(deps *Dependencies) domain.OrderConfirmationNotifier {
	hooks := deps.Config.Hooks
	switch hooks.ConfirmationVia {
	case "http":
		return notifier.NewHTTPConfirmationNotifier(hooks.ConfirmationURL, hooks.ConfirmationSecret, hooks.Timeout)
	case "kafka":
		if deps.Config.KafkaService.Enabled {
			return kafka.NewConfirmationNotifier(deps.Publisher, deps.Config.KafkaService.OrderConfirmationTopic)
		}
		deps.Logger.Warn("confirmation via kafka requested but kafka is disabled")
	}
	return usecase.NoopConfirmationNotifier{}
}
