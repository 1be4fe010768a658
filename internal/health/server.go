// Package health serves liveness and readiness probes for the staking
// service. Readiness runs a registered set of dependency checks and
// reports the current bankroll alongside them, so an operator hitting
// /ready sees why the service is (or is not) taking bets.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/puntguard/internal/models"
)

// CheckFunc probes a single dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one dependency check
type CheckResult struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// LivenessResponse is returned by /live and /health
type LivenessResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Commit  string `json:"commit,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// ReadinessResponse is returned by /ready
type ReadinessResponse struct {
	Status   string                 `json:"status"`
	Service  string                 `json:"service"`
	Checks   map[string]CheckResult `json:"checks,omitempty"`
	Bankroll *models.BankrollView   `json:"bankroll,omitempty"`
	Duration string                 `json:"duration"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        string
	Logger      *logrus.Logger
	// Bankroll supplies the current ledger view for the readiness
	// response. Optional.
	Bankroll func() models.BankrollView
}

// Server answers liveness and readiness probes for the service.
type Server struct {
	service  string
	version  string
	commit   string
	port     string
	started  time.Time
	srv      *http.Server
	log      *logrus.Logger
	bankroll func() models.BankrollView

	mu     sync.RWMutex
	ready  bool
	checks map[string]CheckFunc
	order  []string
}

// NewServer creates a health server. Dependency checks are registered
// separately with AddCheck before Start.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = os.Getenv("HEALTH_PORT")
	}
	if port == "" {
		port = "8081"
	}

	return &Server{
		service:  cfg.ServiceName,
		version:  cfg.Version,
		commit:   cfg.Commit,
		port:     port,
		started:  time.Now(),
		log:      cfg.Logger,
		bankroll: cfg.Bankroll,
		checks:   make(map[string]CheckFunc),
	}
}

// AddCheck registers a named dependency check run on every /ready request
func (s *Server) AddCheck(name string, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.checks[name]; !exists {
		s.order = append(s.order, name)
	}
	s.checks[name] = fn
}

// SetReady marks the service as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the service has been marked ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start starts the health server in the background.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         ":" + s.port,
		Handler:      s.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.log != nil {
			s.log.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.service,
			}).Info("Health server starting")
		}

		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.log != nil {
				s.log.WithError(err).Error("Health server error")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the health server.
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}

	if s.log != nil {
		s.log.Info("Health server shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	return mux
}

// handleLive answers the kubernetes liveness probe: the process is up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "ok",
		Service: s.service,
	})
}

// handleHealth reports build identity and uptime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "ok",
		Service: s.service,
		Version: s.version,
		Commit:  s.commit,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady runs every registered dependency check and reports the
// bankroll state. Any failing check makes the service not ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	s.mu.RLock()
	ready := s.ready
	names := make([]string, len(s.order))
	copy(names, s.order)
	checks := make(map[string]CheckFunc, len(s.checks))
	for name, fn := range s.checks {
		checks[name] = fn
	}
	s.mu.RUnlock()

	allHealthy := ready
	results := make(map[string]CheckResult, len(names)+1)
	if !ready {
		results["service"] = CheckResult{Status: "not_ready", Duration: "0s"}
	} else {
		results["service"] = CheckResult{Status: "ok", Duration: "0s"}
	}

	for _, name := range names {
		checkStart := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		err := checks[name](ctx)
		cancel()

		result := CheckResult{
			Status:   "ok",
			Duration: time.Since(checkStart).Round(time.Millisecond).String(),
		}
		if err != nil {
			allHealthy = false
			result.Status = "error"
			result.Error = err.Error()
		}
		results[name] = result
	}

	response := ReadinessResponse{
		Service:  s.service,
		Checks:   results,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	if s.bankroll != nil {
		view := s.bankroll()
		response.Bankroll = &view
	}

	status := http.StatusOK
	response.Status = "ok"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		response.Status = "not_ready"
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
