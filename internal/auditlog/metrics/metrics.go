package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts audit log outcomes. All methods are safe on a nil receiver
// so callers without metrics wiring pay nothing.
type Metrics struct {
	Recorded         *prometheus.CounterVec
	Filtered         prometheus.Counter
	WriteFailures    prometheus.Counter
	Trimmed          prometheus.Counter
	PublisherDropped prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Recorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pointsd_audit_recorded_total",
			Help: "Audit entries persisted, by rotation path",
		}, []string{"path"}),
		Filtered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointsd_audit_filtered_total",
			Help: "Audit events dropped by the admission filter",
		}),
		WriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointsd_audit_write_failures_total",
			Help: "Audit writes that failed and were swallowed",
		}),
		Trimmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointsd_audit_trimmed_total",
			Help: "Audit entries deleted by the defensive trim",
		}),
		PublisherDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pointsd_audit_publisher_dropped_total",
			Help: "Audit events dropped because the publisher buffer was full",
		}),
	}
}

func (m *Metrics) IncRecorded(path string) {
	if m != nil {
		m.Recorded.WithLabelValues(path).Inc()
	}
}

func (m *Metrics) IncFiltered() {
	if m != nil {
		m.Filtered.Inc()
	}
}

func (m *Metrics) IncWriteFailures() {
	if m != nil {
		m.WriteFailures.Inc()
	}
}

func (m *Metrics) IncTrimmed(n int) {
	if m != nil {
		m.Trimmed.Add(float64(n))
	}
}

func (m *Metrics) IncPublisherDropped() {
	if m != nil {
		m.PublisherDropped.Inc()
	}
}
