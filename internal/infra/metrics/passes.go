package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gatepass/internal/domain/model"
)

func init() {
	register(
		passesIssuedTotal,
		passesPurgedTotal,
		redemptionsTotal,
		redemptionDurationMs,
	)
}

var (
	passesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "passes_issued_total",
			Help: "Total number of passes issued.",
		},
	)

	passesPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "passes_purged_total",
			Help: "Total number of expired passes removed by the cleanup worker.",
		},
	)

	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Redemption attempts by outcome.",
		},
		[]string{"result", "reason"}, // result='grant'|'deny'; reason empty on grant
	)

	redemptionDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "redemption_duration_ms",
			Help:    "End-to-end redemption adjudication latency in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

func IncPassesIssued() {
	passesIssuedTotal.Inc()
}

func IncPassesPurged(count int64) {
	passesPurgedTotal.Add(float64(count))
}

func ObserveRedemption(v model.Verdict, elapsed time.Duration) {
	result := "deny"
	if v.Granted {
		result = "grant"
	}
	redemptionsTotal.WithLabelValues(result, string(v.Reason)).Inc()
	redemptionDurationMs.Observe(float64(elapsed.Milliseconds()))
}
