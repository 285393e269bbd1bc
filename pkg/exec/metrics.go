package exec

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records executor activity.
type Metrics struct {
	executions    *prometheus.CounterVec
	duration      prometheus.Histogram
	responseBytes prometheus.Histogram
}

// NewMetrics creates executor metrics and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leapsparql",
			Name:      "executions_total",
			Help:      "Query executions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leapsparql",
			Name:      "execution_duration_seconds",
			Help:      "Wall time from request start to outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		responseBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leapsparql",
			Name:      "response_bytes",
			Help:      "Response body size of successful executions.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.executions, m.duration, m.responseBytes)
	}
	return m
}

func (m *Metrics) observe(o Outcome) {
	if m == nil {
		return
	}
	label := o.Kind.String()
	if o.Kind == OutcomeFailed && o.Err != nil {
		label = "failed_" + o.Err.Kind.String()
	}
	m.executions.WithLabelValues(label).Inc()
	m.duration.Observe(o.Elapsed.Seconds())
	if o.Kind == OutcomeSuccess {
		m.responseBytes.Observe(float64(o.BytesRead))
	}
}
