package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/puntguard/internal/models"
)

func newTestServer() *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewServer(Config{
		ServiceName: "puntguard",
		Version:     "1.2.3",
		Commit:      "abc123",
		Port:        "0",
		Logger:      log,
		Bankroll: func() models.BankrollView {
			return models.BankrollView{Balance: 950, Initial: 1000, Exposure: 50}
		},
	})
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveEndpoint(t *testing.T) {
	s := newTestServer()

	rec := get(s, "/live")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "puntguard", resp.Service)
}

func TestHealthReportsBuildInfo(t *testing.T) {
	s := newTestServer()

	rec := get(s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "abc123", resp.Commit)
	assert.NotEmpty(t, resp.Uptime)
}

func TestReadyRequiresReadyFlag(t *testing.T) {
	s := newTestServer()

	rec := get(s, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "not_ready", resp.Checks["service"].Status)

	s.SetReady(true)
	rec = get(s, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyRunsDependencyChecks(t *testing.T) {
	s := newTestServer()
	s.SetReady(true)
	s.AddCheck("database", func(ctx context.Context) error { return nil })
	s.AddCheck("racing_api", func(ctx context.Context) error {
		return errors.New("circuit breaker open: connection refused")
	})

	rec := get(s, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"].Status)
	assert.Equal(t, "error", resp.Checks["racing_api"].Status)
	assert.Contains(t, resp.Checks["racing_api"].Error, "circuit breaker")
}

func TestReadyReportsBankroll(t *testing.T) {
	s := newTestServer()
	s.SetReady(true)
	s.AddCheck("database", func(ctx context.Context) error { return nil })

	rec := get(s, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Bankroll)
	assert.InDelta(t, 950.0, resp.Bankroll.Balance, 1e-9)
	assert.InDelta(t, 50.0, resp.Bankroll.Exposure, 1e-9)
}
