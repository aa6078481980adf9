package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinvault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinvault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinvault_transfers_total",
			Help: "Total number of ledger transfers by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	RewardGrantsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coinvault_reward_grants_total",
			Help: "Total number of task rewards granted",
		},
	)

	IdempotencyConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coinvault_idempotency_conflicts_total",
			Help: "Requests rejected because their idempotency token was already used",
		},
	)

	CirculatingSupply = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coinvault_circulating_supply",
			Help: "Sum of all user wallet balances per asset",
		},
		[]string{"asset"},
	)

	TreasuryBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coinvault_treasury_balance",
			Help: "Current treasury reserve per asset",
		},
		[]string{"asset"},
	)

	ReconMismatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coinvault_recon_mismatches_total",
			Help: "Treasury balances that did not match a journal replay",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTransfer(kind, status string) {
	TransfersTotal.WithLabelValues(kind, status).Inc()
}

func RecordRewardGrant() {
	RewardGrantsTotal.Inc()
}

func RecordIdempotencyConflict() {
	IdempotencyConflictsTotal.Inc()
}

func RecordReconMismatch() {
	ReconMismatchesTotal.Inc()
}

func SetCirculatingSupply(asset string, value float64) {
	CirculatingSupply.WithLabelValues(asset).Set(value)
}

func SetTreasuryBalance(asset string, value float64) {
	TreasuryBalance.WithLabelValues(asset).Set(value)
}
