// Package metrics provides a Prometheus collector for store command
// instrumentation. Wire it into a client with WithCommandObserver and
// register it with any Registerer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommandCollector records per-command counts and latencies. It satisfies
// both the client's command observer seam and prometheus.Collector.
type CommandCollector struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

// NewCommandCollector creates a collector under the given metric namespace.
// An empty namespace defaults to "redisom".
func NewCommandCollector(namespace string) *CommandCollector {
	if namespace == "" {
		namespace = "redisom"
	}
	return &CommandCollector{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_commands_total",
				Help:      "Total number of store commands issued",
			},
			[]string{"command", "status"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_command_duration_seconds",
				Help:      "Store command duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"command"},
		),
	}
}

// ObserveCommand records one command execution.
func (c *CommandCollector) ObserveCommand(op string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.commandsTotal.WithLabelValues(op, status).Inc()
	c.commandDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Describe implements prometheus.Collector.
func (c *CommandCollector) Describe(ch chan<- *prometheus.Desc) {
	c.commandsTotal.Describe(ch)
	c.commandDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *CommandCollector) Collect(ch chan<- prometheus.Metric) {
	c.commandsTotal.Collect(ch)
	c.commandDuration.Collect(ch)
}
