// Package metrics owns the process-lifetime Prometheus counters redarrow
// exposes at GET /metrics, grounded on the client_golang promauto pattern
// used throughout the example pack's daemons.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status values for the commands_total counter.
const (
	StatusOK         = "ok"
	StatusTerminated = "terminated"
	StatusTimeout    = "timeout"
)

// CommandsTotal counts every completed command execution, labeled by
// terminal status and exit code (empty string when no exit code exists).
var CommandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redarrow_commands_total",
		Help: "Total number of completed redarrow command executions.",
	},
	[]string{"status", "code"},
)

// RecordCompletion increments the commands-total counter exactly once per
// completed execution.
func RecordCompletion(status string, code string) {
	CommandsTotal.WithLabelValues(status, code).Inc()
}
