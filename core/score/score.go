// Package score computes the multi-criteria ranking used to match field
// crews to work orders. All functions are pure; callers supply the clock.
package score

import (
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// materialsPlaceholder is returned whenever an order requires materials.
// Material-on-vehicle tracking is out of scope, so the sub-score cannot be
// computed from real stock yet.
const materialsPlaceholder = 70.0

// Weights maps each sub-score to its contribution in the aggregate. The
// weights are not normalized; an aggregate over unnormalized weights may
// leave [0,100] and callers must accept that.
type Weights struct {
	Distance   float64 `json:"distance"`
	Competence float64 `json:"competence"`
	Materials  float64 `json:"materials"`
	Workload   float64 `json:"workload"`
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{Distance: 0.40, Competence: 0.25, Materials: 0.20, Workload: 0.15}
}

// Breakdown holds the four sub-scores for one (order, team) pair.
type Breakdown struct {
	Distance   float64 `json:"distance"`
	Competence float64 `json:"competence"`
	Materials  float64 `json:"materials"`
	Workload   float64 `json:"workload"`
}

// Distance scores proximity: 100 at zero distance, decreasing one point per
// kilometre, floored at 0. Unknown coordinates on either side score 0.
func Distance(orderLoc, teamLoc model.Point) float64 {
	if !orderLoc.Known() || !teamLoc.Known() {
		return 0
	}
	d := orderLoc.DistanceKm(teamLoc)
	if d >= 100 {
		return 0
	}
	return 100 - d
}

// Competence scores certification coverage: the share of required
// competences the team holds unexpired on the given local date. No
// requirements means a full score.
func Competence(required []model.CompetenceType, team model.Team, day time.Time) float64 {
	if len(required) == 0 {
		return 100
	}
	matched := 0
	for _, ct := range required {
		if team.HasValidCompetence(ct, day) {
			matched++
		}
	}
	return 100 * float64(matched) / float64(len(required))
}

// Materials scores material readiness: full score when nothing is required,
// otherwise the fixed placeholder.
func Materials(required []string) float64 {
	if len(required) == 0 {
		return 100
	}
	return materialsPlaceholder
}

// Workload scores team load: 100 for an idle team, minus 20 per active
// order, floored at 0.
func Workload(activeOrders int) float64 {
	s := 100 - 20*float64(activeOrders)
	if s < 0 {
		return 0
	}
	return s
}

// Aggregate combines the sub-scores with the given weights. No clamping is
// applied.
func Aggregate(b Breakdown, w Weights) float64 {
	return b.Distance*w.Distance + b.Competence*w.Competence +
		b.Materials*w.Materials + b.Workload*w.Workload
}

// Evaluate computes the full breakdown and aggregate for one candidate.
func Evaluate(order model.WorkOrder, team model.Team, activeOrders int, w Weights, now time.Time) (Breakdown, float64) {
	b := Breakdown{
		Distance:   Distance(order.Location, team.Location),
		Competence: Competence(order.RequiredCompetences, team, now),
		Materials:  Materials(order.RequiredMaterials),
		Workload:   Workload(activeOrders),
	}
	return b, Aggregate(b, w)
}
