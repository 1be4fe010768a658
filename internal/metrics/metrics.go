// Package metrics provides the centralized Prometheus metrics registry
// for the staking service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BetsPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "puntguard",
		Name:      "bets_placed_total",
		Help:      "Total number of bets placed",
	})
	BetsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "puntguard",
		Name:      "bets_settled_total",
		Help:      "Total number of bets settled, by outcome",
	}, []string{"outcome"})
	EvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "puntguard",
		Name:      "evaluations_total",
		Help:      "Total number of opportunity evaluations",
	})
	NoOpportunityTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "puntguard",
		Name:      "no_opportunity_total",
		Help:      "Total number of evaluations rejected by edge/odds filters, by reason",
	}, []string{"reason"})
	RiskRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "puntguard",
		Name:      "risk_rejections_total",
		Help:      "Total number of stakes rejected by the risk gate, by reason",
	}, []string{"reason"})
)

// Gauge metrics
var (
	CurrentBankroll = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "puntguard",
		Name:      "current_bankroll",
		Help:      "Current bankroll balance in currency units",
	})
	TotalExposure = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "puntguard",
		Name:      "total_exposure",
		Help:      "Total stake committed to pending bets",
	})
	DailyLoss = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "puntguard",
		Name:      "daily_loss",
		Help:      "Realized loss accumulated for the current day",
	})
	PendingBets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "puntguard",
		Name:      "pending_bets",
		Help:      "Number of currently pending bets",
	})
)

// Histogram metrics
var (
	BetPlacementLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "puntguard",
		Name:      "bet_placement_latency_seconds",
		Help:      "Latency of bet placement operations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	RacingFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "puntguard",
		Name:      "racing_fetch_duration_seconds",
		Help:      "Duration of racing data API fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BetsPlacedTotal)
		registry.MustRegister(BetsSettledTotal)
		registry.MustRegister(EvaluationsTotal)
		registry.MustRegister(NoOpportunityTotal)
		registry.MustRegister(RiskRejectionsTotal)

		registry.MustRegister(CurrentBankroll)
		registry.MustRegister(TotalExposure)
		registry.MustRegister(DailyLoss)
		registry.MustRegister(PendingBets)

		registry.MustRegister(BetPlacementLatency)
		registry.MustRegister(RacingFetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBetPlaced records a bet placement event.
func RecordBetPlaced() {
	BetsPlacedTotal.Inc()
}

// RecordBetSettled records a bet settlement event.
func RecordBetSettled(outcome string) {
	BetsSettledTotal.WithLabelValues(outcome).Inc()
}

// RecordEvaluation records an opportunity evaluation.
func RecordEvaluation() {
	EvaluationsTotal.Inc()
}

// RecordNoOpportunity records an evaluation filtered out before staking.
func RecordNoOpportunity(reason string) {
	NoOpportunityTotal.WithLabelValues(reason).Inc()
}

// RecordRiskRejection records a risk gate rejection.
func RecordRiskRejection(reason string) {
	RiskRejectionsTotal.WithLabelValues(reason).Inc()
}

// UpdateBankroll updates the current bankroll gauge.
func UpdateBankroll(amount float64) {
	CurrentBankroll.Set(amount)
}

// UpdateExposure updates the total exposure gauge.
func UpdateExposure(amount float64) {
	TotalExposure.Set(amount)
}

// UpdateDailyLoss updates the daily loss gauge.
func UpdateDailyLoss(amount float64) {
	DailyLoss.Set(amount)
}

// UpdatePendingBets updates the pending bet count gauge.
func UpdatePendingBets(count float64) {
	PendingBets.Set(count)
}

// RecordBetPlacementLatency records bet placement latency.
func RecordBetPlacementLatency(durationSeconds float64) {
	BetPlacementLatency.Observe(durationSeconds)
}

// RecordRacingFetchDuration records racing data fetch duration.
func RecordRacingFetchDuration(durationSeconds float64) {
	RacingFetchDuration.Observe(durationSeconds)
}
