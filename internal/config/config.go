// Package config provides configuration management for the PuntGuard service.
package config

import (
	"fmt"

	"github.com/yourusername/puntguard/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Racing    RacingConfig    `mapstructure:"racing" validate:"required"`
	Bankroll  BankrollConfig  `mapstructure:"bankroll" validate:"required"`
	Staking   StakingConfig   `mapstructure:"staking" validate:"required"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// RacingConfig represents the racing data API configuration
type RacingConfig struct {
	BaseURL            string  `mapstructure:"base_url" validate:"required,url"`
	StreamURL          string  `mapstructure:"stream_url"`
	APIKey             string  `mapstructure:"api_key" validate:"required"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts      int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	CacheTTLSeconds    int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	StreamEnabled      bool    `mapstructure:"stream_enabled"`
}

// BankrollConfig represents the account bankroll configuration
type BankrollConfig struct {
	InitialBalance float64           `mapstructure:"initial_balance" validate:"required,gt=0"`
	Risk           models.RiskLimits `mapstructure:"risk" validate:"required"`
}

// StakingConfig represents staking plan configuration
type StakingConfig struct {
	DefaultPlan string               `mapstructure:"default_plan" validate:"required"`
	Plans       []models.StakingPlan `mapstructure:"plans" validate:"required,min=1,dive"`
}

// APIConfig represents the HTTP API configuration
type APIConfig struct {
	Port                int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	HealthPort          int `mapstructure:"health_port" validate:"required,min=1,max=65535"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig represents scheduled job configuration
type SchedulerConfig struct {
	SettlementPollSeconds int    `mapstructure:"settlement_poll_seconds" validate:"required,gt=0"`
	SnapshotCron          string `mapstructure:"snapshot_cron" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Plan returns the staking plan with the given name, defaulting method
// parameters from the built-in plans when left unset.
func (c *Config) Plan(name string) (models.StakingPlan, error) {
	for _, plan := range c.Staking.Plans {
		if plan.Name == name {
			if plan.Risk == (models.RiskLimits{}) {
				plan.Risk = c.Bankroll.Risk
			}
			return plan, nil
		}
	}
	return models.StakingPlan{}, fmt.Errorf("unknown staking plan %q", name)
}

// DefaultPlan returns the configured default staking plan
func (c *Config) DefaultPlan() (models.StakingPlan, error) {
	return c.Plan(c.Staking.DefaultPlan)
}
