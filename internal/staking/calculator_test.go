package staking

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/puntguard/internal/models"
)

func TestEdge(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		odds        float64
		expected    float64
	}{
		{"positive edge", 0.30, 4.0, 0.05},
		{"zero edge", 0.25, 4.0, 0.0},
		{"negative edge", 0.20, 4.0, -0.05},
		{"short odds", 0.60, 2.0, 0.10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Edge(tt.probability, tt.odds), 1e-9)
		})
	}
}

func TestEdgeMatchesDefinitionOverGrid(t *testing.T) {
	for p := 0.05; p < 1.0; p += 0.05 {
		for o := 1.1; o <= 50.0; o += 0.7 {
			assert.InDelta(t, p-1.0/o, Edge(p, o), 1e-9)
		}
	}
}

func TestValidateInputs(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		odds        float64
		wantErr     error
	}{
		{"valid", 0.5, 2.0, nil},
		{"odds of one", 0.5, 1.0, models.ErrInvalidOdds},
		{"odds below one", 0.5, 0.8, models.ErrInvalidOdds},
		{"negative odds", 0.5, -2.0, models.ErrInvalidOdds},
		{"nan odds", 0.5, math.NaN(), models.ErrInvalidOdds},
		{"infinite odds", 0.5, math.Inf(1), models.ErrInvalidOdds},
		{"zero probability", 0.0, 2.0, models.ErrInvalidProbability},
		{"probability of one", 1.0, 2.0, models.ErrInvalidProbability},
		{"negative probability", -0.1, 2.0, models.ErrInvalidProbability},
		{"nan probability", math.NaN(), 2.0, models.ErrInvalidProbability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputs(tt.probability, tt.odds)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestKellyStake(t *testing.T) {
	// p=0.6 at odds 2.0: full Kelly is 0.2, halved to 0.1 of bankroll
	stake := KellyStake(0.6, 2.0, 1000, 0.10)
	assert.InDelta(t, 100.0, stake, 1e-9)

	// No edge means no stake
	assert.Zero(t, KellyStake(0.5, 2.0, 1000, 0.10))
	assert.Zero(t, KellyStake(0.2, 4.0, 1000, 0.10))

	// Dead bankroll
	assert.Zero(t, KellyStake(0.6, 2.0, 0, 0.10))
	assert.Zero(t, KellyStake(0.6, 2.0, -50, 0.10))
}

func TestKellyStakeCapAndSign(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	bankroll := 1000.0
	maxBetFraction := 0.10

	for i := 0; i < 1000; i++ {
		p := rng.Float64()*0.98 + 0.01
		o := 1.01 + rng.Float64()*49
		stake := KellyStake(p, o, bankroll, maxBetFraction)

		require.GreaterOrEqual(t, stake, 0.0, "p=%v o=%v", p, o)
		require.LessOrEqual(t, stake, bankroll*maxBetFraction+1e-9, "p=%v o=%v", p, o)
	}
}

func TestFixedFractionStake(t *testing.T) {
	assert.InDelta(t, 20.0, FixedFractionStake(1000, 0.02), 1e-9)
	assert.Zero(t, FixedFractionStake(0, 0.02))
	assert.Zero(t, FixedFractionStake(-100, 0.02))
}

func TestProportionalStake(t *testing.T) {
	// 1000 * 0.02 * 0.3 * (5/10) = 3
	assert.InDelta(t, 3.0, ProportionalStake(0.3, 5.0, 1000, 0.02, 10.0), 1e-9)

	// Longer odds scale the stake up
	assert.InDelta(t, 6.0, ProportionalStake(0.3, 10.0, 1000, 0.02, 10.0), 1e-9)

	assert.Zero(t, ProportionalStake(0.3, 5.0, 0, 0.02, 10.0))
	assert.Zero(t, ProportionalStake(0.3, 5.0, 1000, 0.02, 0))
}

func TestEvaluateAcceptsQualifyingOpportunity(t *testing.T) {
	plan := models.DefaultPlans()["value"]
	bank := models.BankrollView{Balance: 1000, Initial: 1000}

	// Edge is exactly the required 0.05
	rec, err := Evaluate(0.30, 4.0, plan, bank)
	require.NoError(t, err)

	assert.True(t, rec.Accepted)
	assert.InDelta(t, 0.05, rec.Edge, 1e-9)
	assert.InDelta(t, 20.0, rec.Stake, 1e-9)
	assert.Equal(t, models.StakingMethodFixedFraction, rec.Method)
}

func TestEvaluateRejectsInsufficientEdge(t *testing.T) {
	plan := models.DefaultPlans()["value"]
	plan.RequiredEdge = 0.06
	bank := models.BankrollView{Balance: 1000, Initial: 1000}

	rec, err := Evaluate(0.30, 4.0, plan, bank)
	require.NoError(t, err)

	assert.False(t, rec.Accepted)
	assert.Zero(t, rec.Stake)
	assert.Equal(t, ReasonInsufficientEdge, rec.Reason)
}

func TestEvaluateRejectsOddsOutOfRange(t *testing.T) {
	plan := models.DefaultPlans()["value"]
	bank := models.BankrollView{Balance: 1000, Initial: 1000}

	tests := []struct {
		name string
		odds float64
	}{
		{"below minimum", 1.4},
		{"above maximum", 12.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Evaluate(0.9, tt.odds, plan, bank)
			require.NoError(t, err)
			assert.False(t, rec.Accepted)
			assert.Equal(t, ReasonOddsOutOfRange, rec.Reason)
		})
	}
}

func TestEvaluateClampsToFreeBankroll(t *testing.T) {
	plan := models.DefaultPlans()["value"]
	plan.FixedPercent = 0.05

	// Only 10 of the balance is uncommitted
	bank := models.BankrollView{Balance: 1000, Initial: 1000, Exposure: 990}

	rec, err := Evaluate(0.30, 4.0, plan, bank)
	require.NoError(t, err)
	assert.True(t, rec.Accepted)
	assert.InDelta(t, 10.0, rec.Stake, 1e-9)
}

func TestEvaluateNoStakeAfterClamping(t *testing.T) {
	plan := models.DefaultPlans()["value"]
	bank := models.BankrollView{Balance: 1000, Initial: 1000, Exposure: 1000}

	rec, err := Evaluate(0.30, 4.0, plan, bank)
	require.NoError(t, err)
	assert.False(t, rec.Accepted)
	assert.Equal(t, ReasonNoStake, rec.Reason)
}

func TestEvaluateInvalidInputs(t *testing.T) {
	plan := models.DefaultPlans()["value"]
	bank := models.BankrollView{Balance: 1000, Initial: 1000}

	_, err := Evaluate(0.5, 1.0, plan, bank)
	assert.ErrorIs(t, err, models.ErrInvalidOdds)

	_, err = Evaluate(1.5, 2.0, plan, bank)
	assert.ErrorIs(t, err, models.ErrInvalidProbability)
}

func TestEvaluateKellyNeverExceedsMaxBetFraction(t *testing.T) {
	plan := models.DefaultPlans()["kelly"]
	bank := models.BankrollView{Balance: 1000, Initial: 1000}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		p := rng.Float64()*0.98 + 0.01
		o := plan.MinOdds + rng.Float64()*(plan.MaxOdds-plan.MinOdds)

		rec, err := Evaluate(p, o, plan, bank)
		require.NoError(t, err)
		if rec.Accepted {
			require.LessOrEqual(t, rec.Stake, bank.Balance*plan.Risk.MaxBetFraction+1e-9)
			require.GreaterOrEqual(t, rec.Edge, plan.RequiredEdge)
		}
	}
}

func TestExpectedValue(t *testing.T) {
	// p=0.5 at odds 3.0 staking 10: 0.5*20 - 0.5*10 = 5
	assert.InDelta(t, 5.0, ExpectedValue(0.5, 3.0, 10), 1e-9)

	// Fair coin at even money is zero EV
	assert.InDelta(t, 0.0, ExpectedValue(0.5, 2.0, 10), 1e-9)

	assert.Zero(t, ExpectedValue(0, 3.0, 10))
	assert.Zero(t, ExpectedValue(0.5, 1.0, 10))
	assert.Zero(t, ExpectedValue(0.5, 3.0, 0))
}
