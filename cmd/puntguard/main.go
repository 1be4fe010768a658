// Package main provides the entry point for the PuntGuard staking service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/puntguard/internal/api"
	"github.com/yourusername/puntguard/internal/config"
	"github.com/yourusername/puntguard/internal/database"
	"github.com/yourusername/puntguard/internal/health"
	"github.com/yourusername/puntguard/internal/ledger"
	"github.com/yourusername/puntguard/internal/logger"
	"github.com/yourusername/puntguard/internal/metrics"
	"github.com/yourusername/puntguard/internal/models"
	"github.com/yourusername/puntguard/internal/racing"
	"github.com/yourusername/puntguard/internal/repository"
	"github.com/yourusername/puntguard/internal/scheduler"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// .env is optional; real deployments inject environment directly
	_ = godotenv.Load()

	configPath := os.Getenv("PUNTGUARD_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     version,
	}).Info("PuntGuard staking service starting")

	metrics.InitRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection and ensure schema
	db, err := database.Initialize(ctx, database.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		Name:               cfg.Database.Name,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
	})
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	betRepo := repository.NewPostgresBetRepository(db)
	bankrollRepo := repository.NewPostgresBankrollRepository(db)

	ldg, err := restoreLedger(ctx, cfg, betRepo, bankrollRepo, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to restore bet ledger")
	}

	view := ldg.Snapshot()
	appLog.WithFields(logrus.Fields{
		"balance":  view.Balance,
		"exposure": view.Exposure,
	}).Info("Bet ledger ready")

	// Racing data client
	httpCfg := racing.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.Racing.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.Racing.RetryAttempts
	httpCfg.RateLimit = cfg.Racing.RateLimitPerSecond
	httpClient := racing.NewRateLimitedHTTPClient(httpCfg, appLog)
	defer httpClient.Close()

	racingClient := racing.NewClient(
		httpClient,
		cfg.Racing.BaseURL,
		cfg.Racing.APIKey,
		time.Duration(cfg.Racing.CacheTTLSeconds)*time.Second,
		appLog,
	)

	// Optional live price stream
	if cfg.Racing.StreamEnabled && cfg.Racing.StreamURL != "" {
		stream := racing.NewPriceStream(cfg.Racing.StreamURL, cfg.Racing.APIKey, appLog)
		stream.AddHandler(func(update racing.PriceUpdate) {
			appLog.WithFields(logrus.Fields{
				"race_id": update.RaceID,
				"runner":  update.RunnerName,
				"odds":    update.WinOdds,
			}).Debug("Price update received")
		})
		if err := stream.Connect(ctx); err != nil {
			appLog.WithError(err).Warn("Price stream unavailable; continuing without live prices")
		} else {
			defer stream.Close()
		}
	}

	// Scheduled jobs: result polling and bankroll snapshots
	sched := scheduler.NewScheduler(ldg, racingClient, bankrollRepo, appLog)
	if err := sched.ScheduleSettlementPolling(cfg.Scheduler.SettlementPollSeconds); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule settlement polling")
	}
	if err := sched.ScheduleBankrollSnapshots(cfg.Scheduler.SnapshotCron); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule bankroll snapshots")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	// Health server
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     version,
		Commit:      commit,
		Port:        fmt.Sprintf("%d", cfg.API.HealthPort),
		Logger:      appLog,
		Bankroll:    ldg.Snapshot,
	})
	healthServer.AddCheck("database", db.Ping)
	healthServer.AddCheck("racing_api", func(ctx context.Context) error {
		return httpClient.Healthy()
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// Metrics server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metricsMux,
		}
		go func() {
			appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLog.WithError(err).Error("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	// HTTP API
	apiServer := api.NewServer(cfg, ldg, appLog)
	if err := apiServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start API server")
	}

	healthServer.SetReady(true)
	appLog.WithFields(logrus.Fields{
		"api_port":     cfg.API.Port,
		"default_plan": cfg.Staking.DefaultPlan,
	}).Info("PuntGuard is running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	if err := apiServer.Shutdown(); err != nil {
		appLog.WithError(err).Error("Error during API server shutdown")
	}
	if err := healthServer.Shutdown(); err != nil {
		appLog.WithError(err).Error("Error during health server shutdown")
	}

	appLog.Info("PuntGuard shut down successfully")
}

// restoreLedger rebuilds the in-memory ledger from the latest persisted
// bankroll snapshot and any unsettled bets. A fresh database starts the
// ledger at the configured initial balance.
func restoreLedger(ctx context.Context, cfg *config.Config, betRepo repository.BetRepository, bankrollRepo repository.BankrollRepository, appLog *logrus.Logger) (*ledger.Ledger, error) {
	snapshot, err := bankrollRepo.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			appLog.Info("No bankroll history found; starting fresh ledger")
			return ledger.New(cfg.Bankroll.InitialBalance, betRepo, appLog), nil
		}
		return nil, err
	}

	pending, err := betRepo.GetPendingBets(ctx)
	if err != nil {
		return nil, err
	}

	// Settlements recorded after the snapshot must be replayed into the
	// restored balance and daily-loss accumulator.
	settledSince, err := betRepo.GetSettledBets(ctx, snapshot.Time, time.Now())
	if err != nil {
		return nil, err
	}

	appLog.WithFields(logrus.Fields{
		"snapshot_time":  snapshot.Time,
		"pending_bets":   len(pending),
		"settled_replay": len(settledSince),
	}).Info("Restoring ledger from persisted state")

	return ledger.NewFromState(*snapshot, pending, settledSince, betRepo, appLog), nil
}
