// Package metrics defines the observability hooks the dispatcher, lifecycle
// coordinator, and hypervisor driver accept. The interfaces are optional:
// every caller accepts a nil value and skips recording at no cost.
package metrics

import "time"

// Dispatcher records one outcome per filesystem operation entry point.
type Dispatcher interface {
	RecordOperation(op, result string)
}

// Hypervisor records one outcome, and its duration, per driver call — the
// one point an operation can stall on network or remote I/O.
type Hypervisor interface {
	RecordCall(op, host, result string, duration time.Duration)
}

// Lifecycle records one outcome per action keyword dispatched.
type Lifecycle interface {
	RecordTransition(keyword, result string)
}

var enabled bool

// Enable marks metrics collection as active. Called by cmd/nfiofs, and again
// by prometheus.New, when --metrics_addr is set; repeated calls are harmless.
func Enable() { enabled = true }

// IsEnabled reports whether metrics collection was enabled.
func IsEnabled() bool { return enabled }
