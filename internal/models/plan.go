package models

// StakingMethod enumerates the supported stake sizing methods
type StakingMethod string

const (
	StakingMethodFixedFraction StakingMethod = "fixed_fraction"
	StakingMethodKelly         StakingMethod = "kelly"
	StakingMethodProportional  StakingMethod = "proportional"
)

// Valid reports whether the method is a known variant
func (m StakingMethod) Valid() bool {
	switch m {
	case StakingMethodFixedFraction, StakingMethodKelly, StakingMethodProportional:
		return true
	}
	return false
}

// RiskLimits holds the bankroll-relative limits enforced by the risk gate
type RiskLimits struct {
	MaxBetFraction         float64 `mapstructure:"max_bet_fraction" json:"max_bet_fraction" validate:"required,gt=0,lte=1"`
	MaxExposureFraction    float64 `mapstructure:"max_exposure_fraction" json:"max_exposure_fraction" validate:"required,gt=0,lte=1"`
	DailyLossLimitFraction float64 `mapstructure:"daily_loss_limit_fraction" json:"daily_loss_limit_fraction" validate:"required,gt=0,lte=1"`
	MinBankFraction        float64 `mapstructure:"min_bank_fraction" json:"min_bank_fraction" validate:"required,gte=0,lt=1"`
}

// DefaultRiskLimits returns the account-level limits used when none are configured
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxBetFraction:         0.10,
		MaxExposureFraction:    0.30,
		DailyLossLimitFraction: 0.20,
		MinBankFraction:        0.50,
	}
}

// StakingPlan is a configuration value object describing how opportunities
// are filtered and stakes are sized.
type StakingPlan struct {
	Name          string        `mapstructure:"name" json:"name" validate:"required,min=1,max=255"`
	Description   string        `mapstructure:"description" json:"description"`
	Method        StakingMethod `mapstructure:"method" json:"method" validate:"required,stakingmethod"`
	MinOdds       float64       `mapstructure:"min_odds" json:"min_odds" validate:"required,gt=1"`
	MaxOdds       float64       `mapstructure:"max_odds" json:"max_odds" validate:"required,gtfield=MinOdds"`
	RequiredEdge  float64       `mapstructure:"required_edge" json:"required_edge" validate:"gte=0,lt=1"`
	FixedPercent  float64       `mapstructure:"fixed_percent" json:"fixed_percent" validate:"gte=0,lte=1"`
	BasePercent   float64       `mapstructure:"base_percent" json:"base_percent" validate:"gte=0,lte=1"`
	ReferenceOdds float64       `mapstructure:"reference_odds" json:"reference_odds" validate:"gte=0"`
	Risk          RiskLimits    `mapstructure:"risk" json:"risk"`
}

// Validate performs basic validation on the plan
func (p *StakingPlan) Validate() error {
	if p.Name == "" {
		return ErrPlanNameRequired
	}
	return nil
}

// DefaultPlans returns the built-in staking plans
func DefaultPlans() map[string]StakingPlan {
	limits := DefaultRiskLimits()
	return map[string]StakingPlan{
		"value": {
			Name:         "value",
			Description:  "Fixed fraction stake when true probability exceeds market probability",
			Method:       StakingMethodFixedFraction,
			MinOdds:      1.5,
			MaxOdds:      10.0,
			RequiredEdge: 0.05,
			FixedPercent: 0.02,
			Risk:         limits,
		},
		"kelly": {
			Name:         "kelly",
			Description:  "Half-Kelly stake sizing from the measured edge",
			Method:       StakingMethodKelly,
			MinOdds:      1.3,
			MaxOdds:      15.0,
			RequiredEdge: 0.03,
			Risk:         limits,
		},
		"proportional": {
			Name:          "proportional",
			Description:   "Stake scaled by confidence and payout size",
			Method:        StakingMethodProportional,
			MinOdds:       2.0,
			MaxOdds:       20.0,
			RequiredEdge:  0.04,
			BasePercent:   0.02,
			ReferenceOdds: 10.0,
			Risk:          limits,
		},
	}
}
