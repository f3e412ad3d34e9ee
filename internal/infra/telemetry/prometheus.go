package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mcpreg/internal/domain"
)

type PrometheusMetrics struct {
	dispatchDuration *prometheus.HistogramVec
	registryOps      *prometheus.CounterVec
	syncRuns         *prometheus.CounterVec
	syncServers      *prometheus.CounterVec
	serversTotal     prometheus.Gauge
	serversEnabled   prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		dispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpreg_dispatch_duration_seconds",
				Help:    "Duration of tool dispatch calls in seconds by server, tool and outcome",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			// Tool names come from registered server catalogs, so the
			// label stays bounded by registry size.
			[]string{"server", "tool", "outcome"},
		),
		registryOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpreg_registry_operations_total",
				Help: "Total number of registry mutations by operation and status",
			},
			[]string{"op", "status"},
		),
		syncRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpreg_sync_runs_total",
				Help: "Total number of registry sync runs",
			},
			[]string{"status", "fallback"},
		),
		syncServers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpreg_sync_servers_total",
				Help: "Total number of server records created or updated by sync",
			},
			[]string{"action"},
		),
		serversTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcpreg_servers",
				Help: "Current number of registered servers",
			},
		),
		serversEnabled: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcpreg_servers_enabled",
				Help: "Current number of enabled servers",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveDispatch(server, tool string, outcome domain.DispatchOutcome, duration time.Duration) {
	p.dispatchDuration.WithLabelValues(server, tool, string(outcome)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveRegistryOp(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.registryOps.WithLabelValues(op, status).Inc()
}

func (p *PrometheusMetrics) ObserveSync(created, updated int, fallback bool, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.syncRuns.WithLabelValues(status, strconv.FormatBool(fallback)).Inc()
	if err == nil {
		p.syncServers.WithLabelValues("created").Add(float64(created))
		p.syncServers.WithLabelValues("updated").Add(float64(updated))
	}
}

func (p *PrometheusMetrics) SetServerCounts(total, enabled int) {
	p.serversTotal.Set(float64(total))
	p.serversEnabled.Set(float64(enabled))
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
