package grpcapi

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// MatchingService is the service name reported by the health endpoint.
const MatchingService = "smschecker.v1.Matching"

// HealthHandler serves grpc.health.v1 and flips to NOT_SERVING while the
// database probe fails.
type HealthHandler struct {
	server   *health.Server
	probe    func(ctx context.Context) error
	interval time.Duration
	logger   *slog.Logger
	serving  bool
}

func NewHealthHandler(probe func(ctx context.Context) error, interval time.Duration, logger *slog.Logger) *HealthHandler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h := &HealthHandler{
		server:   health.NewServer(),
		probe:    probe,
		interval: interval,
		logger:   logger,
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Run probes until ctx is done, then reports NOT_SERVING for good.
func (h *HealthHandler) Run(ctx context.Context) {
	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Check runs the probe once and publishes the result.
func (h *HealthHandler) Check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()

	err := h.probe(probeCtx)
	if err != nil {
		if h.serving {
			h.logger.Error("health probe failed", "error", err.Error())
		}
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	if !h.serving {
		h.logger.Info("health probe recovered")
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

func (h *HealthHandler) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.serving = status == healthpb.HealthCheckResponse_SERVING
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(MatchingService, status)
}
