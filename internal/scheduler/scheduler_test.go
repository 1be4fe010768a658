package scheduler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/puntguard/internal/ledger"
	"github.com/yourusername/puntguard/internal/models"
	"github.com/yourusername/puntguard/internal/racing"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRacingClient(t *testing.T, results map[string]racing.Result) *racing.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for raceID, result := range results {
			if r.URL.Path == "/races/"+raceID+"/result" {
				json.NewEncoder(w).Encode(result)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	cfg := racing.DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	httpClient := racing.NewRateLimitedHTTPClient(cfg, testLogger())
	t.Cleanup(func() { httpClient.Close() })

	return racing.NewClient(httpClient, srv.URL, "test-key", time.Minute, testLogger())
}

func placeBet(t *testing.T, l *ledger.Ledger, runner, raceID string, stake, odds float64) *models.Bet {
	t.Helper()
	bet, err := l.PlaceBet(context.Background(), models.BetCandidate{
		RunnerName: runner,
		RaceID:     raceID,
		PlanName:   "value",
		Odds:       odds,
		Stake:      stake,
		Limits:     models.DefaultRiskLimits(),
	})
	require.NoError(t, err)
	return bet
}

func TestSettlePendingBetsResolvesOutcomes(t *testing.T) {
	l := ledger.New(1000, nil, testLogger())

	winner := placeBet(t, l, "Night Train", "race-1", 50, 3.0)
	loser := placeBet(t, l, "Thunderbolt", "race-2", 30, 4.0)

	client := testRacingClient(t, map[string]racing.Result{
		"race-1": {RaceID: "race-1", Status: "final", WinnerName: "Night Train"},
		"race-2": {RaceID: "race-2", Status: "final", WinnerName: "Slowpoke"},
	})

	s := NewScheduler(l, client, nil, testLogger())
	require.NoError(t, s.SettlePendingBets(context.Background()))

	won, err := l.GetBet(winner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BetStatusWon, won.Status)
	require.NotNil(t, won.ReturnAmount)
	assert.InDelta(t, 150.0, *won.ReturnAmount, 1e-9)

	lost, err := l.GetBet(loser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BetStatusLost, lost.Status)

	view := l.Snapshot()
	assert.InDelta(t, 1070.0, view.Balance, 1e-9)
	assert.Zero(t, view.Exposure)
}

func TestSettlePendingBetsVoidsAbandonedRace(t *testing.T) {
	l := ledger.New(1000, nil, testLogger())
	bet := placeBet(t, l, "Thunderbolt", "race-1", 50, 3.0)

	client := testRacingClient(t, map[string]racing.Result{
		"race-1": {RaceID: "race-1", Status: "abandoned", Abandoned: true},
	})

	s := NewScheduler(l, client, nil, testLogger())
	require.NoError(t, s.SettlePendingBets(context.Background()))

	voided, err := l.GetBet(bet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BetStatusVoid, voided.Status)

	view := l.Snapshot()
	assert.InDelta(t, 1000.0, view.Balance, 1e-9)
}

func TestSettlePendingBetsSkipsUnresultedRaces(t *testing.T) {
	l := ledger.New(1000, nil, testLogger())
	bet := placeBet(t, l, "Thunderbolt", "race-1", 50, 3.0)

	client := testRacingClient(t, map[string]racing.Result{
		"race-1": {RaceID: "race-1", Status: "interim"},
	})

	s := NewScheduler(l, client, nil, testLogger())
	require.NoError(t, s.SettlePendingBets(context.Background()))

	pending, err := l.GetBet(bet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BetStatusPending, pending.Status)
}

func TestSettlePendingBetsSkipsMissingResults(t *testing.T) {
	l := ledger.New(1000, nil, testLogger())
	bet := placeBet(t, l, "Thunderbolt", "race-99", 50, 3.0)

	client := testRacingClient(t, nil)

	s := NewScheduler(l, client, nil, testLogger())
	require.NoError(t, s.SettlePendingBets(context.Background()))

	pending, err := l.GetBet(bet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BetStatusPending, pending.Status)
}

func TestResolveOutcome(t *testing.T) {
	bet := &models.Bet{RunnerName: "Night Train", Stake: 50, Odds: 3.0}

	outcome, amount := resolveOutcome(bet, &racing.Result{WinnerName: "NIGHT TRAIN"})
	assert.Equal(t, models.BetOutcomeWon, outcome)
	assert.InDelta(t, 150.0, amount, 1e-9)

	outcome, amount = resolveOutcome(bet, &racing.Result{WinnerName: "Other"})
	assert.Equal(t, models.BetOutcomeLost, outcome)
	assert.Zero(t, amount)

	outcome, amount = resolveOutcome(bet, &racing.Result{Abandoned: true})
	assert.Equal(t, models.BetOutcomeVoid, outcome)
	assert.Zero(t, amount)
}

func TestSchedulerLifecycle(t *testing.T) {
	l := ledger.New(1000, nil, testLogger())
	client := testRacingClient(t, nil)

	s := NewScheduler(l, client, nil, testLogger())

	// Starting with no jobs is an error
	assert.Error(t, s.Start())

	require.NoError(t, s.ScheduleSettlementPolling(60))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	assert.False(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestScheduleRejectsJobsWhileRunning(t *testing.T) {
	l := ledger.New(1000, nil, testLogger())
	client := testRacingClient(t, nil)

	s := NewScheduler(l, client, nil, testLogger())
	require.NoError(t, s.ScheduleSettlementPolling(60))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.ScheduleSettlementPolling(30))
	assert.Error(t, s.ScheduleBankrollSnapshots("0 * * * *"))
}
