// Package risk implements the pre-placement risk gate. The gate is a
// pure function over a candidate stake and a bankroll snapshot; it never
// mutates state.
package risk

import (
	"github.com/yourusername/puntguard/internal/models"
)

// Check validates a candidate stake against the configured limits.
// Checks run in a fixed order and the first failure wins, so the
// rejection reason is deterministic for a given input:
//
//  1. bankroll below the minimum bank floor
//  2. stake above the maximum bet size
//  3. stake would breach the daily loss limit
//  4. stake would breach the exposure limit
//
// Returns nil when the stake may be placed.
func Check(stake float64, bank models.BankrollView, limits models.RiskLimits) error {
	if bank.Balance < bank.Initial*limits.MinBankFraction {
		return models.NewRiskLimitError(models.RiskReasonBankBelowFloor, stake)
	}
	if stake > bank.Balance*limits.MaxBetFraction {
		return models.NewRiskLimitError(models.RiskReasonMaxBetSize, stake)
	}
	if bank.DailyLoss+stake > bank.Initial*limits.DailyLossLimitFraction {
		return models.NewRiskLimitError(models.RiskReasonDailyLossLimit, stake)
	}
	if bank.Exposure+stake > bank.Balance*limits.MaxExposureFraction {
		return models.NewRiskLimitError(models.RiskReasonExposureLimit, stake)
	}
	return nil
}
