package models

import "time"

// BankrollView is a read-only snapshot of bankroll state used by the
// staking calculator and the risk gate. Mutation happens only through
// the ledger.
type BankrollView struct {
	Balance   float64 `json:"balance"`
	Initial   float64 `json:"initial"`
	Exposure  float64 `json:"exposure"`
	DailyLoss float64 `json:"daily_loss"`
}

// Growth returns bankroll growth relative to the initial balance
func (v BankrollView) Growth() float64 {
	if v.Initial == 0 {
		return 0
	}
	return (v.Balance - v.Initial) / v.Initial
}

// BankrollSnapshot is a persisted point-in-time record of bankroll state
type BankrollSnapshot struct {
	Time      time.Time `db:"time" json:"time"`
	Balance   float64   `db:"balance" json:"balance"`
	Initial   float64   `db:"initial" json:"initial"`
	Exposure  float64   `db:"exposure" json:"exposure"`
	DailyLoss float64   `db:"daily_loss" json:"daily_loss"`
}
