package watchdog

import "github.com/prometheus/client_golang/prometheus"

var (
	overdueTotal *prometheus.CounterVec
	lapsedTotal  *prometheus.CounterVec
)

func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec) {
	overdue := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_overdue_total",
			Help: "Number of orders flagged past the response limit of their priority",
		},
		[]string{"priority"},
	)
	lapsed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "competences_lapsed_total",
			Help: "Number of expired team certifications seen by the sweep",
		},
		[]string{"type"},
	)
	return overdue, lapsed
}

func init() {
	overdueTotal, lapsedTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers watchdog metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(overdueTotal, lapsedTotal)
}
