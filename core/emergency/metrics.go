package emergency

import "github.com/prometheus/client_golang/prometheus"

var (
	emergenciesActivated prometheus.Counter
	emergenciesResolved  prometheus.Counter
	teamsMobilized       prometheus.Counter
)

func newCollectors() (prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	act := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emergencies_activated_total",
		Help: "Number of emergencies activated",
	})
	res := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emergencies_resolved_total",
		Help: "Number of emergencies resolved",
	})
	mob := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emergency_teams_mobilized_total",
		Help: "Number of team mobilizations",
	})
	return act, res, mob
}

func init() {
	emergenciesActivated, emergenciesResolved, teamsMobilized = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers emergency metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(emergenciesActivated, emergenciesResolved, teamsMobilized)
}
