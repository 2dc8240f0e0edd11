// Package metrics defines the observability surface for the server, as
// an interface with a Prometheus-backed implementation registered from
// pkg/metrics/prometheus, following the teacher's indirection pattern
// (pkg/metrics declares the contract and an enable/registry switch;
// pkg/metrics/prometheus supplies the concrete promauto-backed
// collectors) so callers depend on an interface, never on Prometheus
// directly.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ServerMetrics is the observability surface the acceptor and
// dispatcher record against. The Prometheus implementation's methods
// accept a nil *serverMetrics receiver and become no-ops. A nil
// interface value is not callable; when metrics are disabled callers
// hold Noop() instead (see New and server.NewEngine).
type ServerMetrics interface {
	// ConnectionOpened/ConnectionClosed track live worker-pool occupancy.
	ConnectionOpened()
	ConnectionClosed()

	// CommandHandled records one dispatched command by its wire name and
	// outcome ("ok" or "error").
	CommandHandled(command string, outcome string)

	// BlobBytes records bytes moved through a blob backend ("fs",
	// "badger", "s3") in a given direction ("read" or "write").
	BlobBytes(backend string, direction string, bytes int64)
}

var (
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry turns metrics collection on and creates the registry
// pkg/metrics/prometheus collectors attach to, and the one
// pkg/httpapi's /metrics handler serves.
func InitRegistry() *prometheus.Registry {
	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return enabled
}

// GetRegistry returns the active registry, or nil if metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// newServerMetrics is supplied by pkg/metrics/prometheus's init(),
// mirroring the teacher's constructor-indirection pattern used to keep
// the concrete promauto collectors out of this package. The registry
// itself is still exposed here as a *prometheus.Registry.
var newServerMetrics func() ServerMetrics

// RegisterServerMetricsConstructor is called by
// pkg/metrics/prometheus's init() to supply the concrete constructor.
func RegisterServerMetricsConstructor(constructor func() ServerMetrics) {
	newServerMetrics = constructor
}

// New returns a ready ServerMetrics, or a no-op implementation if
// metrics are disabled. Unlike the teacher's nil-interface convention,
// callers here never need a nil check: Noop() satisfies the interface
// with methods that do nothing.
func New() ServerMetrics {
	if !IsEnabled() || newServerMetrics == nil {
		return Noop()
	}
	return newServerMetrics()
}

type noopMetrics struct{}

func (noopMetrics) ConnectionOpened()                          {}
func (noopMetrics) ConnectionClosed()                          {}
func (noopMetrics) CommandHandled(command, outcome string)     {}
func (noopMetrics) BlobBytes(backend, direction string, n int64) {}

// Noop returns a ServerMetrics whose methods do nothing, used when
// metrics collection is disabled.
func Noop() ServerMetrics {
	return noopMetrics{}
}
