// Package ledger implements the bankroll state machine. It is the only
// component allowed to mutate the bankroll and bet records; everything
// else reads snapshots or proposes transitions through its methods.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/puntguard/internal/logger"
	"github.com/yourusername/puntguard/internal/metrics"
	"github.com/yourusername/puntguard/internal/models"
	"github.com/yourusername/puntguard/internal/repository"
	"github.com/yourusername/puntguard/internal/risk"
	"github.com/yourusername/puntguard/internal/staking"
)

// Ledger owns the bankroll and all bet records for a single account.
// All mutating operations are serialized by the ledger mutex; an
// operation either completes atomically or leaves no effect.
type Ledger struct {
	initial   float64
	balance   float64
	exposure  float64
	dailyLoss float64
	lossDay   time.Time

	bets  map[uuid.UUID]*models.Bet
	order []uuid.UUID

	store repository.BetRepository
	audit *logger.AuditLogger
	log   *logrus.Logger
	now   func() time.Time
	mu    sync.Mutex
}

// New creates a ledger for a fresh bankroll. The store may be nil, in
// which case bets live only in memory.
func New(initialBankroll float64, store repository.BetRepository, log *logrus.Logger) *Ledger {
	l := &Ledger{
		initial: initialBankroll,
		balance: initialBankroll,
		bets:    make(map[uuid.UUID]*models.Bet),
		store:   store,
		log:     log,
		now:     time.Now,
	}
	l.lossDay = startOfDay(l.now())
	if log != nil {
		l.audit = logger.NewAuditLogger(log)
	}
	l.publishGauges()
	return l
}

// NewFromState restores a ledger from the latest persisted bankroll
// snapshot, the pending bets still open against it, and any bets settled
// after the snapshot was taken. Post-snapshot activity is replayed so
// the balance and the daily-loss accumulator catch up to the stored bet
// history; the day boundary then applies lazily as usual.
func NewFromState(snap models.BankrollSnapshot, pending, settledSince []*models.Bet, store repository.BetRepository, log *logrus.Logger) *Ledger {
	l := New(snap.Initial, store, log)
	l.balance = snap.Balance
	l.dailyLoss = snap.DailyLoss
	l.lossDay = startOfDay(snap.Time)

	for _, bet := range pending {
		if bet.Status != models.BetStatusPending {
			continue
		}
		if bet.PlacedAt.After(snap.Time) {
			l.balance -= bet.Stake
		}
		l.bets[bet.ID] = bet
		l.order = append(l.order, bet.ID)
		l.exposure += bet.Stake
	}

	replayed := make([]*models.Bet, 0, len(settledSince))
	for _, bet := range settledSince {
		if bet.SettledAt != nil && bet.SettledAt.After(snap.Time) {
			replayed = append(replayed, bet)
		}
	}
	sort.Slice(replayed, func(i, j int) bool {
		return replayed[i].SettledAt.Before(*replayed[j].SettledAt)
	})
	for _, bet := range replayed {
		if bet.PlacedAt.After(snap.Time) {
			l.balance -= bet.Stake
		}
		l.balance += bet.Return()
		if bet.Status == models.BetStatusLost {
			if day := startOfDay(*bet.SettledAt); day.After(l.lossDay) {
				l.dailyLoss = 0
				l.lossDay = day
			}
			l.dailyLoss += bet.Stake
		}
	}

	l.publishGauges()
	return l
}

// Snapshot returns a read-only view of the current bankroll state
func (l *Ledger) Snapshot() models.BankrollView {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDailyLossLocked()
	return l.viewLocked()
}

// EvaluateOpportunity runs the staking calculator over a probability and
// odds pair, then previews the risk gate so callers learn the final
// verdict without mutating anything.
func (l *Ledger) EvaluateOpportunity(probability, odds float64, plan models.StakingPlan) (staking.Recommendation, error) {
	l.mu.Lock()
	l.rollDailyLossLocked()
	view := l.viewLocked()
	l.mu.Unlock()

	metrics.RecordEvaluation()

	rec, err := staking.Evaluate(probability, odds, plan, view)
	if err != nil {
		return staking.Recommendation{}, err
	}
	if !rec.Accepted {
		metrics.RecordNoOpportunity(rec.Reason)
		return rec, nil
	}

	if gateErr := risk.Check(rec.Stake, view, plan.Risk); gateErr != nil {
		rle, _ := models.AsRiskLimitError(gateErr)
		metrics.RecordRiskRejection(rle.Reason)
		rec.Accepted = false
		rec.Stake = 0
		rec.Reason = rle.Reason
	}

	return rec, nil
}

// PlaceBet validates a candidate against the risk gate, deducts its
// stake from the bankroll, and records the bet as pending. The
// insufficient-funds re-check duplicates what the gate already
// guarantees; it stands as the final guard before mutation.
func (l *Ledger) PlaceBet(ctx context.Context, cand models.BetCandidate) (*models.Bet, error) {
	start := time.Now()
	defer func() {
		metrics.RecordBetPlacementLatency(time.Since(start).Seconds())
	}()

	if cand.Odds <= 1.0 {
		return nil, fmt.Errorf("%w: got %v", models.ErrInvalidOdds, cand.Odds)
	}
	if cand.Stake <= 0 {
		return nil, fmt.Errorf("%w: got %v", models.ErrInvalidStake, cand.Stake)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDailyLossLocked()

	if err := risk.Check(cand.Stake, l.viewLocked(), cand.Limits); err != nil {
		rle, _ := models.AsRiskLimitError(err)
		metrics.RecordRiskRejection(rle.Reason)
		if l.audit != nil {
			l.audit.LogRiskRejection(cand.RunnerName, cand.RaceID, rle.Reason, cand.Stake)
		}
		return nil, err
	}

	if cand.Stake > l.balance {
		return nil, fmt.Errorf("%w: stake %.2f, balance %.2f", models.ErrInsufficientFunds, cand.Stake, l.balance)
	}

	placedAt := l.now()
	bet := &models.Bet{
		ID:         uuid.New(),
		RunnerName: cand.RunnerName,
		RaceID:     cand.RaceID,
		PlanName:   cand.PlanName,
		Odds:       cand.Odds,
		Stake:      cand.Stake,
		Status:     models.BetStatusPending,
		PlacedAt:   placedAt,
		CreatedAt:  placedAt,
		UpdatedAt:  placedAt,
	}

	// Persist before mutating in-memory state so a storage failure
	// leaves no partial effect.
	if l.store != nil {
		if err := l.store.Create(ctx, bet); err != nil {
			return nil, fmt.Errorf("failed to persist bet: %w", err)
		}
	}

	l.balance -= bet.Stake
	l.exposure += bet.Stake
	l.bets[bet.ID] = bet
	l.order = append(l.order, bet.ID)

	metrics.RecordBetPlaced()
	l.publishGauges()
	if l.audit != nil {
		l.audit.LogBetPlaced(bet.ID.String(), bet.RunnerName, bet.RaceID, bet.PlanName, bet.Stake, bet.Odds, l.balance, bet.PlacedAt)
	}

	return bet.Copy(), nil
}

// SettleWon moves a pending bet to won and credits the return amount
func (l *Ledger) SettleWon(ctx context.Context, betID uuid.UUID, returnAmount float64) (*models.Bet, error) {
	if returnAmount < 0 {
		return nil, fmt.Errorf("%w: got %v", models.ErrInvalidReturn, returnAmount)
	}
	return l.settle(ctx, betID, models.BetStatusWon, returnAmount)
}

// SettleLost moves a pending bet to lost; the stake counts toward the
// day's realized loss.
func (l *Ledger) SettleLost(ctx context.Context, betID uuid.UUID) (*models.Bet, error) {
	return l.settle(ctx, betID, models.BetStatusLost, 0)
}

// VoidBet refunds the stake and moves the bet to void. Voids do not
// count toward the daily loss.
func (l *Ledger) VoidBet(ctx context.Context, betID uuid.UUID) (*models.Bet, error) {
	return l.settle(ctx, betID, models.BetStatusVoid, 0)
}

// SettleBet dispatches a settlement request by outcome
func (l *Ledger) SettleBet(ctx context.Context, betID uuid.UUID, outcome models.BetOutcome, returnAmount float64) (*models.Bet, error) {
	switch outcome {
	case models.BetOutcomeWon:
		return l.SettleWon(ctx, betID, returnAmount)
	case models.BetOutcomeLost:
		return l.SettleLost(ctx, betID)
	case models.BetOutcomeVoid:
		return l.VoidBet(ctx, betID)
	default:
		return nil, fmt.Errorf("unknown settlement outcome %q", outcome)
	}
}

func (l *Ledger) settle(ctx context.Context, betID uuid.UUID, status models.BetStatus, returnAmount float64) (*models.Bet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDailyLossLocked()

	bet, ok := l.bets[betID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownBet, betID)
	}
	if bet.Status != models.BetStatusPending {
		return nil, fmt.Errorf("%w: %s is %s", models.ErrAlreadySettled, betID, bet.Status)
	}

	credit := returnAmount
	if status == models.BetStatusVoid {
		credit = bet.Stake
	}

	settledAt := l.now()
	updated := bet.Copy()
	updated.Status = status
	updated.SettledAt = &settledAt
	updated.ReturnAmount = &credit
	updated.UpdatedAt = settledAt

	if l.store != nil {
		if err := l.store.Update(ctx, updated); err != nil {
			return nil, fmt.Errorf("failed to persist settlement: %w", err)
		}
	}

	*bet = *updated
	l.exposure -= bet.Stake
	l.balance += credit
	if status == models.BetStatusLost {
		l.dailyLoss += bet.Stake
	}

	metrics.RecordBetSettled(string(status))
	l.publishGauges()
	if l.audit != nil {
		l.audit.LogBetSettled(bet.ID.String(), string(status), credit, l.balance)
	}

	return bet.Copy(), nil
}

// GetBet returns a copy of the bet with the given id
func (l *Ledger) GetBet(betID uuid.UUID) (*models.Bet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bet, ok := l.bets[betID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownBet, betID)
	}
	return bet.Copy(), nil
}

// Bets returns copies of all bets in placement order
func (l *Ledger) Bets() []*models.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()

	bets := make([]*models.Bet, 0, len(l.order))
	for _, id := range l.order {
		bets = append(bets, l.bets[id].Copy())
	}
	return bets
}

// PendingBets returns copies of all unsettled bets in placement order
func (l *Ledger) PendingBets() []*models.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()

	var pending []*models.Bet
	for _, id := range l.order {
		if bet := l.bets[id]; bet.Status == models.BetStatusPending {
			pending = append(pending, bet.Copy())
		}
	}
	return pending
}

// viewLocked builds a snapshot. Caller holds the mutex.
func (l *Ledger) viewLocked() models.BankrollView {
	return models.BankrollView{
		Balance:   l.balance,
		Initial:   l.initial,
		Exposure:  l.exposure,
		DailyLoss: l.dailyLoss,
	}
}

// rollDailyLossLocked resets the realized-loss accumulator when the
// local day has changed. Caller holds the mutex.
func (l *Ledger) rollDailyLossLocked() {
	today := startOfDay(l.now())
	if today.Equal(l.lossDay) {
		return
	}
	if l.audit != nil {
		// AddDate keeps the reset at local midnight across DST changes
		l.audit.LogDailyLossRollover(l.dailyLoss, today.AddDate(0, 0, 1))
	}
	l.dailyLoss = 0
	l.lossDay = today
	metrics.UpdateDailyLoss(0)
}

func (l *Ledger) publishGauges() {
	metrics.UpdateBankroll(l.balance)
	metrics.UpdateExposure(l.exposure)
	metrics.UpdateDailyLoss(l.dailyLoss)
	pending := 0
	for _, id := range l.order {
		if l.bets[id].Status == models.BetStatusPending {
			pending++
		}
	}
	metrics.UpdatePendingBets(float64(pending))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
