package ranking

import "github.com/prometheus/client_golang/prometheus"

// Metrics for the retrieval pipeline. A nil *Metrics records nothing.
type Metrics struct {
	classifierCalls *prometheus.CounterVec
	candidates      prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		classifierCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsagent_classifier_calls_total",
			Help: "Relevance classifier calls by verdict.",
		}, []string{"verdict"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsagent_search_candidates",
			Help:    "Vector search candidates per query.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.classifierCalls, m.candidates)
	}
	return m
}

func (m *Metrics) classified(verdict string) {
	if m == nil {
		return
	}
	m.classifierCalls.WithLabelValues(verdict).Inc()
}

func (m *Metrics) searched(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
}
