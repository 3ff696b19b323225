// File: internal/infra/metrics/admission.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	admissionRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_admission_rejected_total",
			Help: "Events rejected by the sliding-window rate limiter, per category.",
		},
		[]string{"category"},
	)

	duplicatesSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_duplicates_suppressed_total",
			Help: "Events silently dropped by the short-interval duplicate suppressor.",
		},
		[]string{"category"},
	)

	callbackDedupHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_callback_dedup_hits_total",
			Help: "Button taps dropped because the same tap was already being processed.",
		},
	)

	limiterEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_rate_limiter_entries",
			Help: "Tracked rate windows and duplicate stamps after the last sweep.",
		},
	)
)

func init() {
	register(admissionRejected, duplicatesSuppressed, callbackDedupHits, limiterEntries)
}

func IncAdmissionRejected(category string)   { admissionRejected.WithLabelValues(category).Inc() }
func IncDuplicateSuppressed(category string) { duplicatesSuppressed.WithLabelValues(category).Inc() }
func IncCallbackDedupHit()                   { callbackDedupHits.Inc() }
func SetLimiterEntries(n int)                { limiterEntries.Set(float64(n)) }
