// Package staking implements edge and stake calculation for betting
// opportunities. All functions are pure; bankroll mutation lives in the
// ledger package.
package staking

import (
	"fmt"
	"math"

	"github.com/yourusername/puntguard/internal/models"
)

// Half-Kelly safety multiplier applied to the raw Kelly fraction.
const kellySafetyFactor = 0.5

// Recommendation is the outcome of evaluating a single opportunity.
// Accepted=false with a reason is a negative result, not an error.
type Recommendation struct {
	Accepted bool                 `json:"accepted"`
	Stake    float64              `json:"stake"`
	Edge     float64              `json:"edge"`
	Method   models.StakingMethod `json:"method,omitempty"`
	Reason   string               `json:"reason"`
}

// No-opportunity reasons reported by Evaluate.
const (
	ReasonOddsOutOfRange   = "odds outside acceptable range"
	ReasonInsufficientEdge = "insufficient edge"
	ReasonNoStake          = "no stake after risk clamping"
)

// Edge returns the betting edge: the true win probability minus the
// market-implied probability (1 / decimal odds).
func Edge(probability, odds float64) float64 {
	return probability - 1.0/odds
}

// ValidateInputs rejects degenerate probability and odds before any
// formula divides by (odds - 1).
func ValidateInputs(probability, odds float64) error {
	if math.IsNaN(odds) || math.IsInf(odds, 0) || odds <= 1.0 {
		return fmt.Errorf("%w: got %v", models.ErrInvalidOdds, odds)
	}
	if math.IsNaN(probability) || probability <= 0 || probability >= 1 {
		return fmt.Errorf("%w: got %v", models.ErrInvalidProbability, probability)
	}
	return nil
}

// KellyStake calculates the half-Kelly stake, capped at the plan's
// maximum bet fraction of the bankroll. Returns 0 when the Kelly
// fraction is not positive.
func KellyStake(probability, odds, bankroll, maxBetFraction float64) float64 {
	if bankroll <= 0 {
		return 0
	}
	p := probability
	q := 1.0 - p
	b := odds - 1.0
	kelly := (b*p - q) / b
	if kelly <= 0 {
		return 0
	}
	stake := bankroll * kelly * kellySafetyFactor
	return math.Min(stake, bankroll*maxBetFraction)
}

// FixedFractionStake stakes a constant share of the bankroll
func FixedFractionStake(bankroll, fixedPercent float64) float64 {
	if bankroll <= 0 {
		return 0
	}
	return bankroll * fixedPercent
}

// ProportionalStake scales a base fraction by confidence and by payout
// size relative to the plan's reference odds.
func ProportionalStake(probability, odds, bankroll, basePercent, referenceOdds float64) float64 {
	if bankroll <= 0 || referenceOdds <= 0 {
		return 0
	}
	return bankroll * basePercent * probability * (odds / referenceOdds)
}

// Evaluate applies the plan's filters to a (probability, odds) pair,
// sizes a stake with the plan's method, and clamps it against the
// bankroll and current exposure. InvalidInput is the only error case;
// filtered-out opportunities come back as Accepted=false.
func Evaluate(probability, odds float64, plan models.StakingPlan, bank models.BankrollView) (Recommendation, error) {
	if err := ValidateInputs(probability, odds); err != nil {
		return Recommendation{}, err
	}

	edge := Edge(probability, odds)
	rec := Recommendation{Edge: edge, Method: plan.Method}

	if odds < plan.MinOdds || odds > plan.MaxOdds {
		rec.Reason = ReasonOddsOutOfRange
		return rec, nil
	}
	if edge < plan.RequiredEdge {
		rec.Reason = ReasonInsufficientEdge
		return rec, nil
	}

	var stake float64
	switch plan.Method {
	case models.StakingMethodKelly:
		stake = KellyStake(probability, odds, bank.Balance, plan.Risk.MaxBetFraction)
	case models.StakingMethodProportional:
		stake = ProportionalStake(probability, odds, bank.Balance, plan.BasePercent, plan.ReferenceOdds)
	default:
		stake = FixedFractionStake(bank.Balance, plan.FixedPercent)
	}

	stake = clampStake(stake, bank, plan.Risk)
	if stake <= 0 {
		rec.Reason = ReasonNoStake
		return rec, nil
	}

	rec.Accepted = true
	rec.Stake = stake
	rec.Reason = fmt.Sprintf("edge %.2f%%", edge*100)
	return rec, nil
}

// ExpectedValue calculates the expected profit of a bet
func ExpectedValue(probability, odds, stake float64) float64 {
	if probability <= 0 || odds <= 1 || stake <= 0 {
		return 0
	}
	winProfit := (odds - 1.0) * stake
	return probability*winProfit - (1.0-probability)*stake
}

// clampStake caps the stake at the max bet size and at the bankroll not
// already committed to pending bets. Never negative.
func clampStake(stake float64, bank models.BankrollView, limits models.RiskLimits) float64 {
	stake = math.Min(stake, bank.Balance*limits.MaxBetFraction)
	stake = math.Min(stake, bank.Balance-bank.Exposure)
	if stake < 0 {
		return 0
	}
	return stake
}
