package api

import (
	"github.com/yourusername/puntguard/internal/models"
)

// EvaluateRequest asks for a staking recommendation on one opportunity
type EvaluateRequest struct {
	Probability float64 `json:"probability"`
	Odds        float64 `json:"odds"`
	Plan        string  `json:"plan,omitempty"`
}

// EvaluateResponse reports whether the opportunity is worth a bet
type EvaluateResponse struct {
	Accept bool    `json:"accept"`
	Stake  float64 `json:"stake"`
	Edge   float64 `json:"edge"`
	Reason string  `json:"reason"`
}

// PlaceBetRequest proposes a bet for placement
type PlaceBetRequest struct {
	RunnerName string  `json:"runner_name"`
	RaceID     string  `json:"race_id"`
	Plan       string  `json:"plan,omitempty"`
	Odds       float64 `json:"odds"`
	Stake      float64 `json:"stake"`
}

// SettleBetRequest settles a pending bet
type SettleBetRequest struct {
	Outcome      models.BetOutcome `json:"outcome"`
	ReturnAmount float64           `json:"return_amount,omitempty"`
}

// SummaryResponse is the read-only bankroll summary
type SummaryResponse struct {
	Balance     float64 `json:"balance"`
	Initial     float64 `json:"initial"`
	Exposure    float64 `json:"exposure"`
	TotalBets   int     `json:"total_bets"`
	PendingBets int     `json:"pending_bets"`
	SettledBets int     `json:"settled_bets"`
	WinRate     float64 `json:"win_rate"`
	ROI         float64 `json:"roi"`
	Growth      float64 `json:"growth"`
}

// ErrorResponse is the JSON body for failed requests
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
