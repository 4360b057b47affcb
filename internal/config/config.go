package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const ConfigPathEnv = "SMSCHECKER_CONFIG_PATH"

type ServerConfig struct {
	Env          string `yaml:"env" env:"SMSCHECKER_ENV" env-default:"local"`
	GRPCServer   `yaml:"grpc_server"`
	HTTPServer   `yaml:"http_server"`
	ServerDB     `yaml:"server_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	RedisCache   `yaml:"redis"`
	Matching     `yaml:"matching"`
	Hooks        `yaml:"hooks"`
	Admin        `yaml:"admin"`
	Background   `yaml:"background"`
}

type GRPCServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env-default:"50051"`
}

type HTTPServer struct {
	Host              string        `yaml:"host" env-default:"0.0.0.0"`
	Port              string        `yaml:"port" env-default:"8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env-default:"5s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type ServerDB struct {
	Dsn            string `yaml:"dsn" env:"SMSCHECKER_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env-default:"migrations"`
	AutoMigrate    bool   `yaml:"auto_migrate" env-default:"false"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type KafkaService struct {
	Enabled                bool   `yaml:"enabled" env-default:"false"`
	Host                   string `yaml:"host"`
	Port                   string `yaml:"port"`
	NotificationTopic      string `yaml:"notification_topic" env-default:"sms-notification-events"`
	ApprovalTopic          string `yaml:"approval_topic" env-default:"sms-approval-events"`
	ReservationTopic       string `yaml:"reservation_topic" env-default:"sms-reservation-events"`
	OrderCancellationTopic string `yaml:"order_cancellation_topic" env-default:"order-cancellations"`
	OrderConfirmationTopic string `yaml:"order_confirmation_topic" env-default:"order-confirmations"`
	ConsumerGroup          string `yaml:"consumer_group" env-default:"smschecker"`
}

func (k KafkaService) Brokers() []string {
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

type RedisCache struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Addr     string `yaml:"addr" env:"SMSCHECKER_REDIS_ADDR"`
	Password string `yaml:"password" env:"SMSCHECKER_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

type Matching struct {
	TimestampToleranceSeconds   int    `yaml:"timestamp_tolerance_seconds" env-default:"300"`
	UniqueAmountExpiryMinutes   int    `yaml:"unique_amount_expiry_minutes" env-default:"30"`
	MaxSuffixesPerBaseAmount    int    `yaml:"max_suffixes_per_base_amount" env-default:"99"`
	AmbiguousWindowMinutes      int    `yaml:"ambiguous_window_minutes" env-default:"10"`
	AmbiguousAmountThreshold    int    `yaml:"ambiguous_amount_threshold" env-default:"2"`
	ApprovalMode                string `yaml:"approval_mode" env-default:"auto"`
	NonceRetentionHours         int    `yaml:"nonce_retention_hours" env-default:"24"`
	PendingApprovalTTLHours     int    `yaml:"pending_approval_ttl_hours" env-default:"24"`
	PendingNotificationTTLHours int    `yaml:"pending_notification_ttl_hours" env-default:"24"`
	KeyDerivationIterations     int    `yaml:"key_derivation_iterations" env-default:"100000"`
}

func (m Matching) TimestampTolerance() time.Duration {
	return time.Duration(m.TimestampToleranceSeconds) * time.Second
}

func (m Matching) ReservationExpiry() time.Duration {
	return time.Duration(m.UniqueAmountExpiryMinutes) * time.Minute
}

func (m Matching) AmbiguousWindow() time.Duration {
	return time.Duration(m.AmbiguousWindowMinutes) * time.Minute
}

func (m Matching) NonceRetention() time.Duration {
	return time.Duration(m.NonceRetentionHours) * time.Hour
}

func (m Matching) PendingApprovalTTL() time.Duration {
	return time.Duration(m.PendingApprovalTTLHours) * time.Hour
}

func (m Matching) PendingNotificationTTL() time.Duration {
	return time.Duration(m.PendingNotificationTTLHours) * time.Hour
}

type Hooks struct {
	// ConfirmationVia selects the order confirmation channel: http, kafka or none.
	ConfirmationVia    string        `yaml:"confirmation_via" env-default:"none"`
	ConfirmationURL    string        `yaml:"confirmation_url"`
	ConfirmationSecret string        `yaml:"confirmation_secret" env:"SMSCHECKER_CONFIRMATION_SECRET"`
	OrderDetailsURL    string        `yaml:"order_details_url"`
	Timeout            time.Duration `yaml:"timeout" env-default:"10s"`
}

type Admin struct {
	Token string `yaml:"token" env:"SMSCHECKER_ADMIN_TOKEN"`
}

type Background struct {
	ReservationSweepInterval  time.Duration `yaml:"reservation_sweep_interval" env-default:"30s"`
	NonceSweepInterval        time.Duration `yaml:"nonce_sweep_interval" env-default:"10m"`
	ApprovalSweepInterval     time.Duration `yaml:"approval_sweep_interval" env-default:"1m"`
	NotificationSweepInterval time.Duration `yaml:"notification_sweep_interval" env-default:"5m"`
}

func (c *ServerConfig) Validate() error {
	if c.Matching.MaxSuffixesPerBaseAmount != 99 {
		return fmt.Errorf("matching.max_suffixes_per_base_amount is fixed at 99, got %d", c.Matching.MaxSuffixesPerBaseAmount)
	}
	if c.Matching.TimestampToleranceSeconds <= 0 {
		return fmt.Errorf("matching.timestamp_tolerance_seconds must be positive")
	}
	if c.Matching.UniqueAmountExpiryMinutes <= 0 {
		return fmt.Errorf("matching.unique_amount_expiry_minutes must be positive")
	}
	if c.Matching.PendingNotificationTTLHours <= 0 {
		return fmt.Errorf("matching.pending_notification_ttl_hours must be positive")
	}
	if c.Matching.AmbiguousAmountThreshold <= 0 {
		return fmt.Errorf("matching.ambiguous_amount_threshold must be positive")
	}
	switch c.Matching.ApprovalMode {
	case "auto", "manual", "smart":
	default:
		return fmt.Errorf("matching.approval_mode must be auto, manual or smart, got %q", c.Matching.ApprovalMode)
	}
	switch c.Hooks.ConfirmationVia {
	case "none", "kafka":
	case "http":
		if c.Hooks.ConfirmationURL == "" {
			return fmt.Errorf("hooks.confirmation_url is required when confirmation_via is http")
		}
	default:
		return fmt.Errorf("hooks.confirmation_via must be http, kafka or none, got %q", c.Hooks.ConfirmationVia)
	}
	return nil
}

func Load(configPath string) (*ServerConfig, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg ServerConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *ServerConfig {

	// Processing env config variable and file
	configPath := os.Getenv(ConfigPathEnv)

	if configPath == "" {
		log.Fatalf("%s was not found\n", ConfigPathEnv)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	return cfg
}
