package racing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const raceFixture = `{
	"id": "race-42",
	"meetingId": "meeting-7",
	"raceNumber": 3,
	"name": "Maiden Plate",
	"startTime": "2026-08-26T04:30:00Z",
	"distance": 1400,
	"trackCondition": "Good 4",
	"runners": [
		{"runnerNumber": 1, "runnerName": "Thunderbolt", "barrier": 4, "jockey": "J Smith", "winOdds": "4.50"},
		{"runnerNumber": 2, "runnerName": "Night Train", "barrier": 1, "jockey": "A Jones", "winOdds": 2.8},
		{"runnerNumber": 3, "runnerName": "Scratchy", "barrier": 9, "jockey": "B Lee", "winOdds": "12.00", "scratched": true}
	]
}`

func testClient(t *testing.T, handler http.Handler, ttl time.Duration) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000

	httpClient := NewRateLimitedHTTPClient(cfg, log)
	t.Cleanup(func() { httpClient.Close() })

	return NewClient(httpClient, srv.URL, "test-key", ttl, log), srv
}

func TestFetchRaceNormalizesOdds(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/races/race-42", r.URL.Path)
		w.Write([]byte(raceFixture))
	}), time.Minute)

	race, err := client.FetchRace(context.Background(), "race-42")
	require.NoError(t, err)

	assert.Equal(t, "race-42", race.ID)
	assert.Equal(t, "Maiden Plate", race.Name)
	require.Len(t, race.Runners, 3)

	// Quoted and bare odds both come through as plain floats
	assert.Equal(t, 4.5, race.Runners[0].WinOdds)
	assert.Equal(t, 2.8, race.Runners[1].WinOdds)
	assert.True(t, race.Runners[2].Scratched)
}

func TestFetchRaceCachesResponses(t *testing.T) {
	var calls int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(raceFixture))
	}), time.Minute)

	for i := 0; i < 3; i++ {
		_, err := client.FetchRace(context.Background(), "race-42")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchRaceInvalidOdds(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "race-1", "runners": [{"runnerNumber": 1, "winOdds": "not-a-number"}]}`))
	}), time.Minute)

	_, err := client.FetchRace(context.Background(), "race-1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrCodeInvalidData, apiErr.Code)
}

func TestFetchMeetings(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meetings", r.URL.Path)
		assert.Equal(t, "2026-08-26", r.URL.Query().Get("date"))
		json.NewEncoder(w).Encode([]Meeting{
			{ID: "meeting-7", Venue: "Flemington", Date: "2026-08-26"},
		})
	}), time.Minute)

	date := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	meetings, err := client.FetchMeetings(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "Flemington", meetings[0].Venue)
}

func TestFetchResultNotCached(t *testing.T) {
	var calls int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/races/race-42/result", r.URL.Path)
		json.NewEncoder(w).Encode(Result{
			RaceID:       "race-42",
			Status:       "final",
			WinnerNumber: 2,
			WinnerName:   "Night Train",
		})
	}), time.Minute)

	for i := 0; i < 2; i++ {
		result, err := client.FetchResult(context.Background(), "race-42")
		require.NoError(t, err)
		assert.Equal(t, "Night Train", result.WinnerName)
	}

	// The settlement poller needs fresh results on every call
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{"unauthorized", http.StatusUnauthorized, ErrCodeAuthenticationFailed},
		{"not found", http.StatusNotFound, ErrCodeNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrCodeRateLimitExceeded},
		{"server error", http.StatusInternalServerError, ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}), time.Minute)

			_, err := client.FetchResult(context.Background(), "race-42")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestParseOdds(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
		wantErr  bool
	}{
		{"quoted decimal", `"4.50"`, 4.5, false},
		{"bare number", `3.25`, 3.25, false},
		{"integer", `7`, 7.0, false},
		{"empty", ``, 0, false},
		{"garbage", `"four to one"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOdds(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
