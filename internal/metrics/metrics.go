// Package metrics holds the Prometheus collectors of the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK       = "ok"
	OutcomeUnknown  = "unknown"
	OutcomeDenied   = "denied"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
	OutcomePanicked = "panicked"
)

var (
	CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gunkan_commands_dispatched_total",
		Help: "Commands dispatched by command name and outcome",
	}, []string{"command", "outcome"})

	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gunkan_session_transitions_total",
		Help: "Session status transitions by target status",
	}, []string{"status"})

	SessionConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gunkan_session_connected",
		Help: "1 while the messaging session is connected",
	})

	ReconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gunkan_reconnect_attempts_total",
		Help: "Scheduled reconnect attempts that ran",
	})

	QueueEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gunkan_queue_enqueued_total",
		Help: "Tracks added to playback queues",
	})

	MediaLookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gunkan_media_lookup_failures_total",
		Help: "Media lookups that returned an error other than not found",
	})

	RouterWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gunkan_router_group_workers",
		Help: "Live per-group event workers",
	})
)

// SetSessionStatus records a transition and keeps the connected gauge in sync.
func SetSessionStatus(status string) {
	SessionTransitions.WithLabelValues(status).Inc()
	if status == "connected" {
		SessionConnected.Set(1)
		return
	}
	SessionConnected.Set(0)
}
