package racing

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func breakerTestConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.Timeout = 200 * time.Millisecond
	cfg.CircuitBreakerMax = 2
	return cfg
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client := NewRateLimitedHTTPClient(breakerTestConfig(), discardLogger())
	t.Cleanup(func() { client.Close() })

	// Nothing listens on port 1
	_, err := client.Get(context.Background(), "http://127.0.0.1:1/races")
	require.Error(t, err)
	require.NoError(t, client.Healthy())

	_, err = client.Get(context.Background(), "http://127.0.0.1:1/races")
	require.Error(t, err)

	err = client.Healthy()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	// Further requests short-circuit
	_, err = client.Get(context.Background(), "http://127.0.0.1:1/races")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := NewRateLimitedHTTPClient(breakerTestConfig(), discardLogger())
	t.Cleanup(func() { client.Close() })

	_, err := client.Get(context.Background(), "http://127.0.0.1:1/races")
	require.Error(t, err)

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	// The success cleared the failure streak
	_, err = client.Get(context.Background(), "http://127.0.0.1:1/races")
	require.Error(t, err)
	assert.NoError(t, client.Healthy())
}

func TestBreakerStateSharedAcrossGoroutines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := NewRateLimitedHTTPClient(breakerTestConfig(), discardLogger())
	t.Cleanup(func() { client.Close() })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp, err := client.Get(context.Background(), srv.URL); err == nil {
				resp.Body.Close()
			}
			client.Healthy()
		}()
	}
	wg.Wait()

	assert.NoError(t, client.Healthy())
}
