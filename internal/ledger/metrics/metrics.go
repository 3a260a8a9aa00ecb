package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ledger operations by outcome. Methods are safe on a nil
// receiver so callers without metrics wiring pay nothing.
type Metrics struct {
	Operations *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pointsd_ledger_operations_total",
			Help: "Ledger operations by type and status code",
		}, []string{"operation", "code"}),
	}
}

func (m *Metrics) IncOperation(operation string, code int) {
	if m != nil {
		m.Operations.WithLabelValues(operation, codeLabel(code)).Inc()
	}
}

func codeLabel(code int) string {
	switch code {
	case 200:
		return "200"
	case 204:
		return "204"
	case 304:
		return "304"
	case 400:
		return "400"
	case 500:
		return "500"
	default:
		return "other"
	}
}
