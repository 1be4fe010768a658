package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/puntguard/internal/models"
)

func freshBank() models.BankrollView {
	return models.BankrollView{Balance: 1000, Initial: 1000}
}

func TestCheckAcceptsStakeWithinLimits(t *testing.T) {
	err := Check(100, freshBank(), models.DefaultRiskLimits())
	assert.NoError(t, err)
}

func TestCheckRejectsOversizedStake(t *testing.T) {
	err := Check(150, freshBank(), models.DefaultRiskLimits())
	require.Error(t, err)

	rle, ok := models.AsRiskLimitError(err)
	require.True(t, ok)
	assert.Equal(t, models.RiskReasonMaxBetSize, rle.Reason)
	assert.Equal(t, 150.0, rle.Stake)
}

func TestCheckRejectsBankBelowFloor(t *testing.T) {
	bank := models.BankrollView{Balance: 499, Initial: 1000}

	err := Check(10, bank, models.DefaultRiskLimits())
	require.Error(t, err)

	rle, ok := models.AsRiskLimitError(err)
	require.True(t, ok)
	assert.Equal(t, models.RiskReasonBankBelowFloor, rle.Reason)
}

func TestCheckRejectsDailyLossBreach(t *testing.T) {
	bank := freshBank()
	bank.DailyLoss = 150

	// 150 lost today plus a 60 stake would pass the 200 limit
	err := Check(60, bank, models.DefaultRiskLimits())
	require.Error(t, err)

	rle, ok := models.AsRiskLimitError(err)
	require.True(t, ok)
	assert.Equal(t, models.RiskReasonDailyLossLimit, rle.Reason)
}

func TestCheckRejectsExposureBreach(t *testing.T) {
	bank := freshBank()
	bank.Exposure = 250

	err := Check(60, bank, models.DefaultRiskLimits())
	require.Error(t, err)

	rle, ok := models.AsRiskLimitError(err)
	require.True(t, ok)
	assert.Equal(t, models.RiskReasonExposureLimit, rle.Reason)
}

// The gate reports the first violated limit in its fixed order, so a
// stake violating several limits always gets the same reason.
func TestCheckReasonOrdering(t *testing.T) {
	limits := models.DefaultRiskLimits()

	tests := []struct {
		name   string
		stake  float64
		bank   models.BankrollView
		reason string
	}{
		{
			name:   "floor beats everything",
			stake:  5000,
			bank:   models.BankrollView{Balance: 400, Initial: 1000, Exposure: 900, DailyLoss: 900},
			reason: models.RiskReasonBankBelowFloor,
		},
		{
			name:   "bet size beats daily loss and exposure",
			stake:  500,
			bank:   models.BankrollView{Balance: 1000, Initial: 1000, Exposure: 290, DailyLoss: 190},
			reason: models.RiskReasonMaxBetSize,
		},
		{
			name:   "daily loss beats exposure",
			stake:  90,
			bank:   models.BankrollView{Balance: 1000, Initial: 1000, Exposure: 290, DailyLoss: 190},
			reason: models.RiskReasonDailyLossLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.stake, tt.bank, limits)
			require.Error(t, err)
			rle, ok := models.AsRiskLimitError(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, rle.Reason)
		})
	}
}

func TestCheckExposureRandomized(t *testing.T) {
	limits := models.DefaultRiskLimits()
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 500; i++ {
		balance := 500 + rng.Float64()*1500
		bank := models.BankrollView{Balance: balance, Initial: balance}

		// Stake within the bet-size limit, exposure set so the
		// exposure limit is the one that trips.
		stake := rng.Float64() * balance * limits.MaxBetFraction
		bank.Exposure = balance*limits.MaxExposureFraction - stake + 1

		err := Check(stake, bank, limits)
		require.Error(t, err, "balance=%v stake=%v exposure=%v", balance, stake, bank.Exposure)
		rle, ok := models.AsRiskLimitError(err)
		require.True(t, ok)
		require.Equal(t, models.RiskReasonExposureLimit, rle.Reason)
	}
}

func TestCheckBoundaryStakes(t *testing.T) {
	limits := models.DefaultRiskLimits()

	// Exactly at the max bet size is allowed
	assert.NoError(t, Check(100, freshBank(), limits))

	// Balance exactly at the floor is allowed
	bank := models.BankrollView{Balance: 500, Initial: 1000}
	assert.NoError(t, Check(50, bank, limits))
}
