// Package prometheus supplies the concrete metrics.ServerMetrics
// implementation, registered into metrics.GetRegistry() via promauto,
// grounded on the teacher's pkg/metrics/prometheus/{cache,badger}.go
// collector shape.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fileshare/fileshared/pkg/metrics"
)

func init() {
	metrics.RegisterServerMetricsConstructor(func() metrics.ServerMetrics {
		return newServerMetrics()
	})
}

type serverMetrics struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	commandsTotal     *prometheus.CounterVec
	blobBytesTotal    *prometheus.CounterVec
}

func newServerMetrics() *serverMetrics {
	reg := metrics.GetRegistry()

	return &serverMetrics{
		connectionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "fileshared_connections_active",
			Help: "Number of live client connections.",
		}),
		connectionsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "fileshared_connections_total",
			Help: "Total number of accepted client connections.",
		}),
		commandsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fileshared_commands_total",
			Help: "Total dispatched commands by wire command name and outcome.",
		}, []string{"command", "outcome"}),
		blobBytesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fileshared_blob_bytes_total",
			Help: "Bytes moved through the blob store by backend and direction.",
		}, []string{"backend", "direction"}),
	}
}

func (m *serverMetrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsActive.Inc()
	m.connectionsTotal.Inc()
}

func (m *serverMetrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *serverMetrics) CommandHandled(command, outcome string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, outcome).Inc()
}

func (m *serverMetrics) BlobBytes(backend, direction string, bytes int64) {
	if m == nil {
		return
	}
	m.blobBytesTotal.WithLabelValues(backend, direction).Add(float64(bytes))
}

var _ metrics.ServerMetrics = (*serverMetrics)(nil)
