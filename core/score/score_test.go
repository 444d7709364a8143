package score

import (
	"math"
	"testing"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// pointAtKm returns a point approximately km kilometres east of origin.
func pointAtKm(origin model.Point, km float64) model.Point {
	// One degree of longitude at the equator is ~111.19 km.
	return model.Point{Lon: origin.Lon + km/111.19494, Lat: origin.Lat}
}

func TestDistance_Decay(t *testing.T) {
	origin := model.Point{Lon: 9.19, Lat: 0}
	cases := []struct {
		km   float64
		want float64
	}{
		{0, 100},
		{50, 50},
		{100, 0},
		{250, 0},
	}
	for _, c := range cases {
		got := Distance(origin, pointAtKm(origin, c.km))
		if math.Abs(got-c.want) > 0.5 {
			t.Errorf("Distance at %.0f km = %.2f, want %.2f", c.km, got, c.want)
		}
	}
}

func TestDistance_UnknownCoordinates(t *testing.T) {
	known := model.Point{Lon: 9.19, Lat: 45.46}
	if got := Distance(model.Point{}, known); got != 0 {
		t.Errorf("unknown order location should score 0, got %.2f", got)
	}
	if got := Distance(known, model.Point{}); got != 0 {
		t.Errorf("unknown team location should score 0, got %.2f", got)
	}
}

func TestWorkload(t *testing.T) {
	cases := []struct {
		orders int
		want   float64
	}{
		{0, 100},
		{1, 80},
		{5, 0},
		{8, 0},
	}
	for _, c := range cases {
		if got := Workload(c.orders); got != c.want {
			t.Errorf("Workload(%d) = %.0f, want %.0f", c.orders, got, c.want)
		}
	}
}

func TestCompetence_EmptyRequirement(t *testing.T) {
	team := model.Team{}
	if got := Competence(nil, team, time.Now()); got != 100 {
		t.Errorf("no requirements should score 100, got %.0f", got)
	}
}

func TestCompetence_ExpiryByLocalDate(t *testing.T) {
	now := time.Now()
	team := model.Team{Competences: []model.Competence{
		{Type: model.CompetenceGas, Expiry: now},                       // expires today, still valid
		{Type: model.CompetenceElectrical, Expiry: now.AddDate(0, 0, -1)}, // lapsed yesterday
		{Type: model.CompetenceHydraulic},                              // never expires
	}}
	required := []model.CompetenceType{
		model.CompetenceGas,
		model.CompetenceElectrical,
		model.CompetenceHydraulic,
		model.CompetenceExcavation,
	}
	got := Competence(required, team, now)
	want := 100 * 2.0 / 4.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Competence = %.2f, want %.2f", got, want)
	}
}

func TestMaterials(t *testing.T) {
	if got := Materials(nil); got != 100 {
		t.Errorf("no materials required should score 100, got %.0f", got)
	}
	if got := Materials([]string{"tubo DN80"}); got != 70 {
		t.Errorf("materials required should score the placeholder 70, got %.0f", got)
	}
}

func TestAggregate_DefaultWeights(t *testing.T) {
	w := DefaultWeights()
	b := Breakdown{Distance: 90, Competence: 100, Materials: 100, Workload: 100}
	if got := Aggregate(b, w); math.Abs(got-96) > 1e-9 {
		t.Errorf("aggregate = %.2f, want 96", got)
	}
	b.Materials = 70
	if got := Aggregate(b, w); math.Abs(got-90) > 1e-9 {
		t.Errorf("aggregate with materials placeholder = %.2f, want 90", got)
	}
}

func TestAggregate_UnnormalizedWeights(t *testing.T) {
	// Weights are used as given, no normalization.
	w := Weights{Distance: 1, Competence: 1, Materials: 1, Workload: 1}
	b := Breakdown{Distance: 50, Competence: 50, Materials: 50, Workload: 50}
	if got := Aggregate(b, w); got != 200 {
		t.Errorf("aggregate = %.2f, want 200", got)
	}
}

func TestEvaluate(t *testing.T) {
	origin := model.Point{Lon: 9.19, Lat: 0}
	order := model.WorkOrder{Location: origin}
	team := model.Team{Location: pointAtKm(origin, 10)}
	b, agg := Evaluate(order, team, 0, DefaultWeights(), time.Now())
	if math.Abs(b.Distance-90) > 0.5 {
		t.Fatalf("distance sub-score = %.2f, want ~90", b.Distance)
	}
	if math.Abs(agg-96) > 0.5 {
		t.Fatalf("aggregate = %.2f, want ~96", agg)
	}
}
