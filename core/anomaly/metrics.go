package anomaly

import "github.com/prometheus/client_golang/prometheus"

var alertsTotal *prometheus.CounterVec

func init() {
	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anomaly_alerts_total",
			Help: "Number of anomaly alerts raised from GPS telemetry",
		},
		[]string{"type"},
	)
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers anomaly metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(alertsTotal)
}
