// Package prometheus is the Prometheus-backed implementation of the
// pkg/metrics interfaces.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nfio-go/nfiofs/pkg/metrics"
)

var registry = prometheus.NewRegistry()

// Registry returns the registry cmd/nfiofs mounts behind /metrics.
func Registry() *prometheus.Registry {
	return registry
}

// Collector implements metrics.Dispatcher, metrics.Hypervisor, and
// metrics.Lifecycle against a single registry.
type Collector struct {
	dispatcherOps        *prometheus.CounterVec
	hypervisorCalls      *prometheus.CounterVec
	hypervisorDuration   *prometheus.HistogramVec
	lifecycleTransitions *prometheus.CounterVec
}

// New registers and returns the Collector. Called at most once per process;
// cmd/nfiofs wires it into the dispatcher, coordinator, and driver only when
// --metrics_addr is set.
func New() *Collector {
	metrics.Enable()
	reg := promauto.With(registry)
	return &Collector{
		dispatcherOps: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "nfiofs_dispatcher_operations_total",
			Help: "Total dispatcher operations by op and result.",
		}, []string{"op", "result"}),
		hypervisorCalls: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "nfiofs_hypervisor_calls_total",
			Help: "Total hypervisor driver calls by op, host, and result.",
		}, []string{"op", "host", "result"}),
		hypervisorDuration: reg.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nfiofs_hypervisor_call_duration_seconds",
			Help:    "Hypervisor driver call latency by op.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		lifecycleTransitions: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "nfiofs_lifecycle_transitions_total",
			Help: "Total lifecycle keyword dispatches by keyword and result.",
		}, []string{"keyword", "result"}),
	}
}

func (c *Collector) RecordOperation(op, result string) {
	c.dispatcherOps.WithLabelValues(op, result).Inc()
}

func (c *Collector) RecordCall(op, host, result string, duration time.Duration) {
	c.hypervisorCalls.WithLabelValues(op, host, result).Inc()
	c.hypervisorDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (c *Collector) RecordTransition(keyword, result string) {
	c.lifecycleTransitions.WithLabelValues(keyword, result).Inc()
}
