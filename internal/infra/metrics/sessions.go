// File: internal/infra/metrics/sessions.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_sessions_active",
			Help: "Live workflow sessions.",
		},
	)

	sessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_sessions_expired_total",
			Help: "Sessions reclaimed by TTL, lazily or by the periodic sweep.",
		},
	)

	staleSessionHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_stale_session_hits_total",
			Help: "Events whose required predecessor state was missing or expired.",
		},
	)
)

func init() {
	register(sessionsActive, sessionsExpired, staleSessionHits)
}

func SetSessionsActive(n int)  { sessionsActive.Set(float64(n)) }
func IncSessionsExpired(n int) { sessionsExpired.Add(float64(n)) }
func IncStaleSessionHit()      { staleSessionHits.Inc() }
