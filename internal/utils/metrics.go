// internal/utils/metrics.go
package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifejourney_backend_requests_total",
		Help: "Requests sent to the generation backend, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lifejourney_backend_request_duration_seconds",
		Help:    "Latency of generation backend requests.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
	}, []string{"endpoint"})

	journeyTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifejourney_transitions_total",
		Help: "Flow controller transitions, by event and result.",
	}, []string{"event", "result"})

	stagesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifejourney_stages_completed_total",
		Help: "Stages whose outcome was generated, by stage index.",
	}, []string{"stage"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lifejourney_active_sessions",
		Help: "Sessions currently held in memory.",
	})
)

// ObserveBackendRequest records one backend call
func ObserveBackendRequest(endpoint, outcome string, elapsed time.Duration) {
	backendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	backendRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordTransition counts a flow controller event
func RecordTransition(event, result string) {
	journeyTransitionsTotal.WithLabelValues(event, result).Inc()
}

// RecordStageCompleted counts a finished stage
func RecordStageCompleted(stage string) {
	stagesCompletedTotal.WithLabelValues(stage).Inc()
}

// SetActiveSessions updates the in-memory session gauge
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
