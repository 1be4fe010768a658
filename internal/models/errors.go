package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrInvalidOdds        = errors.New("odds must be greater than 1.0")
	ErrInvalidProbability = errors.New("probability must be within (0, 1)")
	ErrInvalidStake       = errors.New("stake must be positive")
	ErrInvalidReturn      = errors.New("return amount cannot be negative")
	ErrInsufficientFunds  = errors.New("stake exceeds available bankroll")
	ErrUnknownBet         = errors.New("unknown bet")
	ErrAlreadySettled     = errors.New("bet already settled")
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrPlanNameRequired   = errors.New("staking plan name is required")
)

// Risk gate rejection reasons. The gate evaluates its checks in a fixed
// order and reports the first failure, so these strings are stable
// diagnostics callers can rely on.
const (
	RiskReasonBankBelowFloor = "bank below floor"
	RiskReasonMaxBetSize     = "exceeds max bet size"
	RiskReasonDailyLossLimit = "daily loss limit"
	RiskReasonExposureLimit  = "exceeds exposure limit"
)

// RiskLimitError reports a candidate stake rejected by the risk gate.
type RiskLimitError struct {
	Reason string
	Stake  float64
}

// Error implements the error interface
func (e *RiskLimitError) Error() string {
	return fmt.Sprintf("risk limit exceeded: %s (stake %.2f)", e.Reason, e.Stake)
}

// NewRiskLimitError creates a rejection for the given reason and stake
func NewRiskLimitError(reason string, stake float64) *RiskLimitError {
	return &RiskLimitError{Reason: reason, Stake: stake}
}

// AsRiskLimitError reports whether err is a risk gate rejection, returning it if so
func AsRiskLimitError(err error) (*RiskLimitError, bool) {
	var rle *RiskLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}
