package assign

import "github.com/prometheus/client_golang/prometheus"

var (
	assignmentsTotal  *prometheus.CounterVec
	assignmentScore   prometheus.Histogram
	noCandidatesTotal prometheus.Counter
)

func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Counter) {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignments_total",
			Help: "Number of work order assignments recorded",
		},
		[]string{"mode"},
	)
	sc := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assignment_score",
			Help:    "Aggregate score of the team chosen for each assignment",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
	none := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assignment_no_candidates_total",
			Help: "Number of ranking requests that found no eligible team",
		},
	)
	return total, sc, none
}

func init() {
	assignmentsTotal, assignmentScore, noCandidatesTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers assignment metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(assignmentsTotal, assignmentScore, noCandidatesTotal)
}
