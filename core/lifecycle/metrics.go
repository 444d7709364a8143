package lifecycle

import "github.com/prometheus/client_golang/prometheus"

var transitionsTotal *prometheus.CounterVec

func newCollectors() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "work_order_transitions_total",
			Help: "Number of work order status transitions applied",
		},
		[]string{"status"},
	)
}

func init() {
	transitionsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers lifecycle metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(transitionsTotal)
}
