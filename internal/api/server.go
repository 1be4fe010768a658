// Package api exposes the staking core over JSON-over-HTTP: evaluate an
// opportunity, place a bet, settle a bet, and read the bankroll summary.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/puntguard/internal/config"
	"github.com/yourusername/puntguard/internal/ledger"
)

// Server serves the staking API
type Server struct {
	cfg    *config.Config
	ledger *ledger.Ledger
	server *http.Server
	logger *logrus.Logger
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, l *ledger.Ledger, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		ledger: l,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /v1/bets", s.handlePlaceBet)
	mux.HandleFunc("GET /v1/bets", s.handleListBets)
	mux.HandleFunc("GET /v1/bets/{id}", s.handleGetBet)
	mux.HandleFunc("POST /v1/bets/{id}/settle", s.handleSettleBet)
	mux.HandleFunc("GET /v1/summary", s.handleSummary)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      s.logRequests(mux),
		ReadTimeout:  time.Duration(cfg.API.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.API.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start runs the API server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.logger.WithField("port", s.cfg.API.Port).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully stops the API server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// logRequests wraps the mux with structured request logging
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	})
}
