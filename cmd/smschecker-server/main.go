package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/xjanova/smschecker-sub001/internal/app/background"
	"github.com/xjanova/smschecker-sub001/internal/app/setup"
	"github.com/xjanova/smschecker-sub001/internal/config"
	"github.com/xjanova/smschecker-sub001/internal/delivery/grpcapi"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/handlers"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/logger"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/metrics"
	"google.golang.org/grpc"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	appLogger := logger.NewLogger(cfg.LogConfig)

	deps, err := setup.InitializeDependencies(cfg, appLogger)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()
	uc := setup.InitializeUseCases(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sweepers
	tasks := background.NewBackgroundTasks(
		deps.Store,
		uc.ReservationUsecase,
		uc.ApprovalUsecase,
		uc.IngestionUsecase,
		uc.ReplayGuard,
		background.Intervals{
			ReservationSweep:  cfg.Background.ReservationSweepInterval,
			NonceSweep:        cfg.Background.NonceSweepInterval,
			ApprovalSweep:     cfg.Background.ApprovalSweepInterval,
			NotificationSweep: cfg.Background.NotificationSweepInterval,
		},
		appLogger,
	)
	tasks.StartAll(ctx)

	// Order cancellations
	if deps.Subscriber != nil {
		consumer := background.NewCancellationConsumer(
			deps.Subscriber,
			uc.ReservationUsecase,
			cfg.KafkaService.OrderCancellationTopic,
			cfg.KafkaService.ConsumerGroup,
			appLogger,
		)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				appLogger.Error("order cancellation consumer stopped", "error", err.Error())
			}
		}()
	}

	// gRPC health
	grpcServer := grpc.NewServer()
	healthHandler := grpcapi.NewHealthHandler(deps.Ping, 10*time.Second, appLogger)
	healthHandler.Register(grpcServer)
	go healthHandler.Run(ctx)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	go func() {
		appLogger.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server stopped", "error", err.Error())
		}
	}()

	// HTTP API
	httpServer := &http.Server{
		Addr: fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: handlers.NewRouter(handlers.RouterDeps{
			Ingestion:    uc.IngestionUsecase,
			Reservations: uc.ReservationUsecase,
			Approvals:    uc.ApprovalUsecase,
			Devices:      uc.DeviceUsecase,
			AdminToken:   cfg.Admin.Token,
			Metrics:      metrics.Handler(deps.Registry),
			Health:       deps.Ping,
			Logger:       appLogger,
		}),
		ReadHeaderTimeout: cfg.HTTPServer.ReadHeaderTimeout,
	}
	go func() {
		appLogger.Info("HTTP server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server stopped", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", "error", err.Error())
	}
	grpcServer.GracefulStop()
}
