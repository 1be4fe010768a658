// Package config provides configuration management for the PuntGuard service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/puntguard/internal/models"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields; a missing config file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If the file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if len(cfg.Staking.Plans) == 0 {
		for _, plan := range models.DefaultPlans() {
			cfg.Staking.Plans = append(cfg.Staking.Plans, plan)
		}
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PUNTGUARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "puntguard")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("racing.timeout_seconds", 30)
	v.SetDefault("racing.retry_attempts", 5)
	v.SetDefault("racing.rate_limit_per_second", 10.0)
	v.SetDefault("racing.cache_ttl_seconds", 60)

	v.SetDefault("bankroll.initial_balance", 1000.0)
	v.SetDefault("bankroll.risk.max_bet_fraction", 0.10)
	v.SetDefault("bankroll.risk.max_exposure_fraction", 0.30)
	v.SetDefault("bankroll.risk.daily_loss_limit_fraction", 0.20)
	v.SetDefault("bankroll.risk.min_bank_fraction", 0.50)

	v.SetDefault("staking.default_plan", "value")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout_seconds", 10)
	v.SetDefault("api.write_timeout_seconds", 10)
	v.SetDefault("api.health_port", 8081)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("scheduler.settlement_poll_seconds", 60)
	v.SetDefault("scheduler.snapshot_cron", "0 * * * *")
}
