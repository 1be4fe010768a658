// Package logger builds the process-wide structured logger and the
// audit trail for bankroll mutations.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger for the given level and environment.
// Production output is JSON for log aggregation; every other environment
// gets human-readable text.
func NewLogger(level, environment string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if strings.EqualFold(environment, "production") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
		log.WithField("log_level", level).Warn("Unknown log level, using info")
	}
	log.SetLevel(parsed)

	return log
}
