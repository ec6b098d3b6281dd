package batch

import (
	"github.com/prometheus/client_golang/prometheus"

	pdnserrors "github.com/railadeividas/powerdns-migrator/internal/errors"
	"github.com/railadeividas/powerdns-migrator/internal/migrator"
)

// metrics mirrors the teacher's controller/controller.go style of a
// handful of package-level prometheus Counters/Gauges (registryErrorsTotal,
// lastSyncTimestamp, ...), scoped down to per-zone migration outcomes.
// Each Driver owns its own prometheus.Registry rather than registering
// into the global DefaultRegisterer, so creating more than one Driver in
// a process (as the test suite does) never panics on double
// registration — the teacher's single long-lived controller never hits
// that case, so its own registry wrapper doesn't need to guard for it.
type metrics struct {
	registry       *prometheus.Registry
	zonesTotal     *prometheus.CounterVec
	zonesErrors    *prometheus.CounterVec
	lastRunTime    prometheus.Gauge
	changesApplied prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		zonesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdns_migrator",
			Subsystem: "batch",
			Name:      "zones_total",
			Help:      "Number of zone migrations by action.",
		}, []string{"action"}),
		zonesErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdns_migrator",
			Subsystem: "batch",
			Name:      "zone_errors_total",
			Help:      "Number of zone migration failures by error kind.",
		}, []string{"kind"}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pdns_migrator",
			Subsystem: "batch",
			Name:      "last_zone_completed_timestamp_seconds",
			Help:      "Unix timestamp of the most recent successful zone migration.",
		}),
		changesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdns_migrator",
			Subsystem: "batch",
			Name:      "rrset_changes_applied_total",
			Help:      "Number of RRSet changes across all successful zone migrations (in dry-run mode, computed but not applied).",
		}),
	}
	m.registry.MustRegister(m.zonesTotal, m.zonesErrors, m.lastRunTime, m.changesApplied)
	return m
}

// Registry exposes the driver's metrics for an optional
// --metrics-address HTTP server (see cmd/zone-migrator).
func (d *Driver) Registry() *prometheus.Registry { return d.metrics.registry }

func (m *metrics) recordSuccess(result *migrator.Result) {
	m.zonesTotal.WithLabelValues(string(result.Action)).Inc()
	m.changesApplied.Add(float64(len(result.Changes)))
	m.lastRunTime.SetToCurrentTime()
}

func (m *metrics) recordFailure(err error) {
	m.zonesErrors.WithLabelValues(string(pdnserrors.KindOf(err))).Inc()
}
