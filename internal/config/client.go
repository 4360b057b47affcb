package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ClientConfig is the sync client's view of the servers it pushes to.
type ClientConfig struct {
	Servers []ServerTarget `yaml:"servers"`
	Sync    SyncSettings   `yaml:"sync"`
}

type ServerTarget struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	DeviceID  string `yaml:"device_id"`
	Disabled  bool   `yaml:"disabled"`
}

type SyncSettings struct {
	ConcurrencyLimit  int           `yaml:"concurrency_limit" env:"SMSCHECKER_SYNC_CONCURRENCY" env-default:"4"`
	OperationTimeout  time.Duration `yaml:"operation_timeout" env-default:"15s"`
	MaxAttempts       int           `yaml:"max_attempts" env-default:"3"`
	InitialDelay      time.Duration `yaml:"initial_delay" env-default:"500ms"`
	MaxDelay          time.Duration `yaml:"max_delay" env-default:"5s"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" env-default:"2"`
	KeyIterations     int           `yaml:"key_derivation_iterations" env-default:"100000"`
}

func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read client config: %w", err)
	}
	seen := make(map[string]struct{}, len(cfg.Servers))
	for i, s := range cfg.Servers {
		if s.ID == "" || s.URL == "" {
			return nil, fmt.Errorf("server #%d: id and url are required", i+1)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("server %q listed twice", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Name == "" {
			cfg.Servers[i].Name = s.ID
		}
	}
	return &cfg, nil
}

// EnabledServers drops targets marked disabled.
func (c *ClientConfig) EnabledServers() []ServerTarget {
	out := make([]ServerTarget, 0, len(c.Servers))
	for _, s := range c.Servers {
		if !s.Disabled {
			out = append(out, s)
		}
	}
	return out
}
