// File: internal/infra/metrics/transport.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	editFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_edit_fallbacks_total",
			Help: "Edits recovered by sending a new message because the target was invalid.",
		},
	)

	sendRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_send_retries_total",
			Help: "Outbound send/edit attempts retried after a transient transport error.",
		},
	)

	backendLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_backend_request_latency_ms",
			Help:    "Shop backend request latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"endpoint", "success"},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_checkouts_total",
			Help: "Checkout attempts by outcome.",
		},
		[]string{"success"},
	)

	deposits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_deposits_total",
			Help: "Deposit creations by outcome.",
		},
		[]string{"success"},
	)
)

func init() {
	register(editFallbacks, sendRetries, backendLatencyMs, checkouts, deposits)
}

func IncEditFallback() { editFallbacks.Inc() }
func IncSendRetry()    { sendRetries.Inc() }

func ObserveBackendRequest(endpoint string, success bool, d time.Duration) {
	backendLatencyMs.WithLabelValues(endpoint, strconv.FormatBool(success)).Observe(float64(d.Milliseconds()))
}

func IncCheckout(success bool) { checkouts.WithLabelValues(strconv.FormatBool(success)).Inc() }
func IncDeposit(success bool)  { deposits.WithLabelValues(strconv.FormatBool(success)).Inc() }
