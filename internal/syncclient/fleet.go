package syncclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/config"
	approvalResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/approval/response"
	ingestionResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/ingestion/response"
	"github.com/xjanova/smschecker-sub001/internal/security"
)

// Fleet fans device operations out over every configured server.
type Fleet struct {
	clients map[string]*ServerClient
	targets []Target
	limit   int
	timeout time.Duration
	retry   RetryPolicy
	logger  *slog.Logger
}

func NewFleet(cfg *config.ClientConfig, httpClient *http.Client, logger *slog.Logger) (*Fleet, error) {
	servers := cfg.EnabledServers()
	if len(servers) == 0 {
		return nil, ErrNoTargets
	}
	if logger == nil {
		logger = slog.Default()
	}
	protocol := security.NewProtocolWithIterations(cfg.Sync.KeyIterations)

	f := &Fleet{
		clients: make(map[string]*ServerClient, len(servers)),
		limit:   cfg.Sync.ConcurrencyLimit,
		timeout: cfg.Sync.OperationTimeout,
		retry: RetryPolicy{
			MaxAttempts:  cfg.Sync.MaxAttempts,
			InitialDelay: cfg.Sync.InitialDelay,
			MaxDelay:     cfg.Sync.MaxDelay,
			Multiplier:   cfg.Sync.BackoffMultiplier,
			Jitter:       0.1,
			IsRetryable:  IsNetworkError,
		},
		logger: logger,
	}
	for _, server := range servers {
		client := NewServerClient(server, protocol, httpClient, logger)
		f.clients[server.ID] = client
		f.targets = append(f.targets, client.Target())
	}
	return f, nil
}

func (f *Fleet) Targets() []Target {
	return f.targets
}

// Push delivers n to every server. Each server gets its own sealed request
// because every server holds a different device secret.
func (f *Fleet) Push(ctx context.Context, n Notification) *ParallelSyncReport[*ingestionResponse.NotificationResponse] {
	report := ExecuteAll(ctx, f.targets, f.limit, f.timeout, func(ctx context.Context, target Target) (*ingestionResponse.NotificationResponse, error) {
		client := f.clients[target.ID]
		sealed, err := client.Seal(n)
		if err != nil {
			return nil, err
		}
		return WithRetry(ctx, f.retry, func(ctx context.Context) (*ingestionResponse.NotificationResponse, error) {
			return client.Send(ctx, sealed)
		})
	})
	f.logReport("push", report.SuccessCount, report.FailureCount, report.TotalDuration)
	for _, failed := range report.Failed() {
		f.logger.Warn("push failed", "server", failed.TargetID, "error", failed.Err)
	}
	return report
}

// Status returns the first server to answer with the device status.
func (f *Fleet) Status(ctx context.Context) (*SyncResult[*ingestionResponse.DeviceStatusResponse], error) {
	return Race(ctx, f.targets, f.timeout, func(ctx context.Context, target Target) (*ingestionResponse.DeviceStatusResponse, error) {
		return WithRetry(ctx, f.retry, func(ctx context.Context) (*ingestionResponse.DeviceStatusResponse, error) {
			return f.clients[target.ID].DeviceStatus(ctx)
		})
	})
}

// Approvals reads the approval feed from whichever server answers first.
func (f *Fleet) Approvals(ctx context.Context, since time.Time) ([]approvalResponse.ApprovalResponse, error) {
	approvals, err := FirstSuccess(ctx, f.targets, f.timeout, func(ctx context.Context, target Target) ([]approvalResponse.ApprovalResponse, error) {
		return WithRetry(ctx, f.retry, func(ctx context.Context) ([]approvalResponse.ApprovalResponse, error) {
			return f.clients[target.ID].Approvals(ctx, since)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch approvals: %w", err)
	}
	return approvals, nil
}

// ApprovalsEverywhere collects every server's feed, for reconciling.
func (f *Fleet) ApprovalsEverywhere(ctx context.Context, since time.Time) *ParallelSyncReport[[]approvalResponse.ApprovalResponse] {
	report := ExecuteAll(ctx, f.targets, f.limit, f.timeout, func(ctx context.Context, target Target) ([]approvalResponse.ApprovalResponse, error) {
		return WithRetry(ctx, f.retry, func(ctx context.Context) ([]approvalResponse.ApprovalResponse, error) {
			return f.clients[target.ID].Approvals(ctx, since)
		})
	})
	f.logReport("approvals", report.SuccessCount, report.FailureCount, report.TotalDuration)
	return report
}

func (f *Fleet) logReport(op string, ok, failed int, took time.Duration) {
	f.logger.Info("sync finished",
		"op", op,
		"success", ok,
		"failed", failed,
		"duration_ms", took.Milliseconds(),
	)
}
