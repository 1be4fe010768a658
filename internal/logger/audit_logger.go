package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides a dedicated audit trail for bankroll mutations.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogBetPlaced logs a bet placement event.
func (al *AuditLogger) LogBetPlaced(betID, runnerName, raceID, planName string, stake, odds, balance float64, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"bet_id":      betID,
		"runner_name": runnerName,
		"race_id":     raceID,
		"plan_name":   planName,
		"stake":       stake,
		"odds":        odds,
		"balance":     balance,
		"timestamp":   timestamp.Unix(),
	}).Info("Bet placement recorded")
}

// LogBetSettled logs a bet settlement event.
func (al *AuditLogger) LogBetSettled(betID string, outcome string, returnAmount, balance float64) {
	al.WithFields(logrus.Fields{
		"bet_id":        betID,
		"outcome":       outcome,
		"return_amount": returnAmount,
		"balance":       balance,
	}).Info("Bet settlement recorded")
}

// LogRiskRejection logs a candidate stake rejected by the risk gate.
func (al *AuditLogger) LogRiskRejection(runnerName, raceID, reason string, stake float64) {
	al.WithFields(logrus.Fields{
		"runner_name": runnerName,
		"race_id":     raceID,
		"reason":      reason,
		"stake":       stake,
	}).Warn("Risk gate rejection recorded")
}

// LogDailyLossRollover logs the daily loss accumulator reset.
func (al *AuditLogger) LogDailyLossRollover(previousLoss float64, nextReset time.Time) {
	al.WithFields(logrus.Fields{
		"previous_loss": previousLoss,
		"next_reset":    nextReset,
	}).Info("Daily loss accumulator reset")
}
