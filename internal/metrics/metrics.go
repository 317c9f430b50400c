// Package metrics exposes the process-wide Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MonitorTicks counts completed monitoring passes.
	MonitorTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growthai_monitor_ticks_total",
		Help: "Completed monitoring ticks.",
	})

	// MonitorTickFailures counts ticks abandoned on a failed status fetch
	// or recovered panic.
	MonitorTickFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growthai_monitor_tick_failures_total",
		Help: "Monitoring ticks abandoned due to an error.",
	})

	// Alerts counts generated alerts by severity.
	Alerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "growthai_alerts_total",
		Help: "Alerts generated by the monitor.",
	}, []string{"severity"})

	// OracleDecisions counts oracle responses by decision verb.
	OracleDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "growthai_oracle_decisions_total",
		Help: "Decision-oracle responses by decision.",
	}, []string{"decision"})

	// Irrigations counts irrigation triggers executed on oracle request.
	Irrigations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growthai_irrigations_total",
		Help: "Irrigation actions executed by the monitor.",
	})

	// WSConnections tracks currently registered realtime connections.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "growthai_ws_connections",
		Help: "Currently registered websocket connections.",
	})

	// Broadcasts counts realtime fan-out operations.
	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "growthai_ws_broadcasts_total",
		Help: "Messages broadcast to all websocket connections.",
	})
)
