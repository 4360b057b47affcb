package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/xjanova/smschecker-sub001/internal/config"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/kafka"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/logger"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/metrics"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/migrate"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/repository"
	redisinfra "github.com/xjanova/smschecker-sub001/internal/infrastructure/redis"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config       *config.ServerConfig
	Logger       *slog.Logger
	DB           *gorm.DB
	Store        *repository.GormStore
	Registry     *prometheus.Registry
	Metrics      *metrics.MatchingMetrics
	Publisher    domain.PublisherPort
	Subscriber   domain.SubscriberPort
	NonceCache   domain.NonceCache
	IngestionLog domain.IngestionLogRepository

	closers []func() error
}

func InitializeDependencies(cfg *config.ServerConfig, log *slog.Logger) (*Dependencies, error) {
	db := postgres.MustInitDB(cfg)
	if !cfg.ServerDB.AutoMigrate {
		if err := migrate.RunMigrations(db, cfg.ServerDB.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := &Dependencies{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		Store:        repository.NewGormStore(db),
		Registry:     registry,
		Metrics:      metrics.NewMatchingMetrics(registry),
		Publisher:    kafka.DiscardPublisher{},
		IngestionLog: logger.NewPGIngestionLogger(db),
	}

	if cfg.KafkaService.Enabled {
		brokers := cfg.KafkaService.Brokers()
		pub := kafka.NewDefaultKafkaPublisher(brokers)
		deps.Publisher = pub
		deps.Subscriber = kafka.NewDefaultKafkaSubscriber(brokers, log)
		deps.closers = append(deps.closers, pub.Close)
		log.Info("kafka enabled", "brokers", brokers)
	}

	if cfg.RedisCache.Enabled {
		client := redisinfra.NewClient(cfg.RedisCache.Addr, cfg.RedisCache.Password, cfg.RedisCache.DB)
		deps.NonceCache = redisinfra.NewNonceCache(client, "")
		deps.closers = append(deps.closers, client.Close)
		log.Info("redis nonce cache enabled", "addr", cfg.RedisCache.Addr)
	}

	return deps, nil
}

// Ping reports whether the database answers.
func (d *Dependencies) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Warn("failed to close dependency", "error", err.Error())
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
