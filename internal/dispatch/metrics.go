package dispatch

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the vendor attempt/outcome counters.
type Metrics struct {
	Attempts *prometheus.CounterVec
	Outcomes *prometheus.CounterVec
}

// NewMetrics registers the counters against reg. Pass
// prometheus.DefaultRegisterer for normal operation.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pushgateway_vendor_attempts_total",
			Help: "Number of vendor send attempts, by platform and app_id.",
		}, []string{"platform", "app_id"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pushgateway_vendor_outcomes_total",
			Help: "Number of vendor send outcomes, by platform, app_id and outcome code.",
		}, []string{"platform", "app_id", "code"}),
	}
	reg.MustRegister(m.Attempts, m.Outcomes)
	return m
}
