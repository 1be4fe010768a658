package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/puntguard/internal/ledger"
	"github.com/yourusername/puntguard/internal/models"
	"github.com/yourusername/puntguard/internal/racing"
	"github.com/yourusername/puntguard/internal/repository"
)

// Scheduler manages periodic settlement polling and bankroll snapshots
type Scheduler struct {
	cron            *cron.Cron
	ledger          *ledger.Ledger
	racingClient    *racing.Client
	bankrollRepo    repository.BankrollRepository
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(ldg *ledger.Ledger, racingClient *racing.Client, bankrollRepo repository.BankrollRepository, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		ledger:          ldg,
		racingClient:    racingClient,
		bankrollRepo:    bankrollRepo,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleSettlementPolling schedules periodic polling of race results to
// settle pending bets.
func (s *Scheduler) ScheduleSettlementPolling(intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	if intervalSeconds < 5 {
		intervalSeconds = 5
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(intervalSeconds-1)*time.Second)
		defer cancel()

		if err := s.SettlePendingBets(ctx); err != nil {
			s.logger.WithError(err).Error("Settlement polling failed")
		}
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval_seconds", intervalSeconds).Info("Scheduled settlement polling job")

	return nil
}

// ScheduleBankrollSnapshots schedules periodic bankroll snapshots
func (s *Scheduler) ScheduleBankrollSnapshots(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		view := s.ledger.Snapshot()
		snapshot := &models.BankrollSnapshot{
			Time:      time.Now().UTC(),
			Balance:   view.Balance,
			Initial:   view.Initial,
			Exposure:  view.Exposure,
			DailyLoss: view.DailyLoss,
		}

		if err := s.bankrollRepo.Insert(ctx, snapshot); err != nil {
			s.logger.WithError(err).Error("Failed to record bankroll snapshot")
		}
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled bankroll snapshot job")

	return nil
}

// SettlePendingBets fetches results for every race with a pending bet and
// settles bets whose races have resulted. Races without a published result
// yet are skipped and retried on the next run.
func (s *Scheduler) SettlePendingBets(ctx context.Context) error {
	pending := s.ledger.PendingBets()
	if len(pending) == 0 {
		return nil
	}

	byRace := make(map[string][]*models.Bet)
	for _, bet := range pending {
		byRace[bet.RaceID] = append(byRace[bet.RaceID], bet)
	}

	var settled, failed int
	for raceID, bets := range byRace {
		result, err := s.racingClient.FetchResult(ctx, raceID)
		if err != nil {
			var apiErr *racing.APIError
			if errors.As(err, &apiErr) && apiErr.Code == racing.ErrCodeNotFound {
				continue
			}
			s.logger.WithError(err).WithField("race_id", raceID).Warn("Failed to fetch race result")
			failed++
			continue
		}

		if !result.Abandoned && !isFinal(result.Status) {
			continue
		}

		for _, bet := range bets {
			outcome, returnAmount := resolveOutcome(bet, result)
			if _, err := s.ledger.SettleBet(ctx, bet.ID, outcome, returnAmount); err != nil {
				s.logger.WithError(err).WithField("bet_id", bet.ID).Error("Failed to settle bet")
				failed++
				continue
			}
			settled++
		}
	}

	if settled > 0 || failed > 0 {
		s.logger.WithFields(logrus.Fields{
			"settled": settled,
			"failed":  failed,
		}).Info("Settlement polling run completed")
	}

	return nil
}

// resolveOutcome maps a race result onto a bet outcome. Abandoned races
// void the bet; otherwise the bet wins when its runner won the race.
func resolveOutcome(bet *models.Bet, result *racing.Result) (models.BetOutcome, float64) {
	if result.Abandoned {
		return models.BetOutcomeVoid, 0
	}
	if strings.EqualFold(bet.RunnerName, result.WinnerName) {
		return models.BetOutcomeWon, bet.Stake * bet.Odds
	}
	return models.BetOutcomeLost, 0
}

func isFinal(status string) bool {
	switch strings.ToLower(status) {
	case "final", "resulted", "closed":
		return true
	}
	return false
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out waiting for running jobs")
	}

	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}
