package models

import (
	"time"

	"github.com/google/uuid"
)

// BetStatus represents the lifecycle state of a bet
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
	BetStatusVoid    BetStatus = "void"
)

// IsTerminal reports whether the status is a settlement state
func (s BetStatus) IsTerminal() bool {
	return s == BetStatusWon || s == BetStatusLost || s == BetStatusVoid
}

// BetOutcome is a requested settlement outcome for a pending bet
type BetOutcome string

const (
	BetOutcomeWon  BetOutcome = "won"
	BetOutcomeLost BetOutcome = "lost"
	BetOutcomeVoid BetOutcome = "void"
)

// Bet represents a single wager against the bankroll. The stake is
// deducted when the bet is created; a bet settles exactly once and is
// immutable afterwards.
type Bet struct {
	ID           uuid.UUID  `db:"id" json:"id" validate:"required,uuid4"`
	RunnerName   string     `db:"runner_name" json:"runner_name" validate:"required"`
	RaceID       string     `db:"race_id" json:"race_id" validate:"required"`
	PlanName     string     `db:"plan_name" json:"plan_name"`
	Odds         float64    `db:"odds" json:"odds" validate:"required,gt=1"`
	Stake        float64    `db:"stake" json:"stake" validate:"required,gt=0"`
	Status       BetStatus  `db:"status" json:"status" validate:"required"`
	PlacedAt     time.Time  `db:"placed_at" json:"placed_at" validate:"required"`
	SettledAt    *time.Time `db:"settled_at" json:"settled_at"`
	ReturnAmount *float64   `db:"return_amount" json:"return_amount"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Copy returns a deep copy of the bet
func (b *Bet) Copy() *Bet {
	dup := *b
	if b.SettledAt != nil {
		t := *b.SettledAt
		dup.SettledAt = &t
	}
	if b.ReturnAmount != nil {
		r := *b.ReturnAmount
		dup.ReturnAmount = &r
	}
	return &dup
}

// IsSettled checks if the bet has been settled
func (b *Bet) IsSettled() bool {
	return b.Status.IsTerminal() && b.SettledAt != nil
}

// Return returns the amount credited back to the bankroll at settlement
func (b *Bet) Return() float64 {
	if b.ReturnAmount == nil {
		return 0
	}
	return *b.ReturnAmount
}

// ProfitLoss returns the realized profit or loss of a settled bet.
// Void bets are a wash: the stake came back.
func (b *Bet) ProfitLoss() float64 {
	if !b.IsSettled() {
		return 0
	}
	return b.Return() - b.Stake
}

// GetROI returns the return on investment percentage
func (b *Bet) GetROI() float64 {
	if b.Stake == 0 || !b.IsSettled() {
		return 0
	}
	return (b.ProfitLoss() / b.Stake) * 100
}

// BetCandidate is a proposed bet awaiting risk-gate approval
type BetCandidate struct {
	RunnerName string     `json:"runner_name" validate:"required"`
	RaceID     string     `json:"race_id" validate:"required"`
	PlanName   string     `json:"plan_name"`
	Odds       float64    `json:"odds" validate:"required,gt=1"`
	Stake      float64    `json:"stake" validate:"required,gt=0"`
	Limits     RiskLimits `json:"limits"`
}
