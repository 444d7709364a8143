package emergency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/infra/logger"
)

var incident = model.Point{Lon: 9.19, Lat: 45.4642}

func eastOf(p model.Point, km float64) model.Point {
	return model.Point{Lon: p.Lon + km/78.0, Lat: p.Lat}
}

type fakePauser struct {
	paused  int
	resumed int
}

func (p *fakePauser) PauseAutoAssign() error  { p.paused++; return nil }
func (p *fakePauser) ResumeAutoAssign() error { p.resumed++; return nil }

func team(id, code string, loc model.Point, status model.TeamStatus) model.Team {
	return model.Team{ID: id, Code: code, Name: code, Status: status, Location: loc, IsActive: true}
}

func seedFleet(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	for _, tm := range []model.Team{
		team("t1", "SQ-01", eastOf(incident, 2), model.TeamAvailable),
		team("t2", "SQ-02", eastOf(incident, 8), model.TeamAvailable),
		team("t3", "SQ-03", eastOf(incident, 20), model.TeamAvailable),
		team("t4", "SQ-04", eastOf(incident, 45), model.TeamAvailable),
	} {
		if err := st.CreateTeam(tm); err != nil {
			t.Fatal(err)
		}
	}
}

func addOrder(t *testing.T, st *store.MemoryStore, id string, teamID string, prio model.Priority, status model.WorkOrderStatus) {
	t.Helper()
	o := model.WorkOrder{ID: id, Code: "ODL-" + id, Priority: prio, Status: status}
	if teamID != "" {
		o.AssignedTeamID = teamID
	}
	if err := st.CreateWorkOrder(o); err != nil {
		t.Fatal(err)
	}
}

func activate(t *testing.T, c *Coordinator, teamsRequired int) model.Emergency {
	t.Helper()
	em, err := c.Activate(context.Background(), ActivationRequest{
		Type:          "allagamento",
		Severity:      model.SeverityCritical,
		Description:   "rottura condotta principale",
		Location:      incident,
		TeamsRequired: teamsRequired,
	}, "coordinatore1")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	return em
}

func TestActivate_MobilizesNearestTeams(t *testing.T) {
	st := store.NewMemoryStore()
	seedFleet(t, st)
	pauser := &fakePauser{}
	c := NewCoordinator(st, nil, nil, pauser, logger.NopLogger{})
	em := activate(t, c, 2)

	if em.Code == "" || em.Status != model.EmergencyActive {
		t.Fatalf("unexpected emergency %+v", em)
	}
	ets, _ := st.ListEmergencyTeams(em.ID)
	if len(ets) != 2 {
		t.Fatalf("expected 2 mobilized teams, got %d", len(ets))
	}
	mobilized := map[string]bool{}
	for _, et := range ets {
		if et.Status != model.EmergencyTeamAlerted || et.MobilizedAt.IsZero() {
			t.Fatalf("unexpected emergency team %+v", et)
		}
		mobilized[et.TeamID] = true
	}
	if !mobilized["t1"] || !mobilized["t2"] {
		t.Fatalf("expected the two nearest teams, got %v", mobilized)
	}
	for _, id := range []string{"t1", "t2"} {
		tm, _ := st.GetTeam(id)
		if tm.Status != model.TeamEnRoute {
			t.Fatalf("mobilized team %s should be in_viaggio, got %s", id, tm.Status)
		}
	}
	if pauser.paused != 1 {
		t.Fatal("activation must pause auto-assignment")
	}
	tl, _ := st.Timeline(em.ID)
	if len(tl) != 3 { // attivazione + 2 mobilitazioni
		t.Fatalf("expected 3 timeline events, got %d", len(tl))
	}
}

func TestActivate_DistanceTieBrokenByWorkload(t *testing.T) {
	st := store.NewMemoryStore()
	loc := eastOf(incident, 5)
	if err := st.CreateTeam(team("busy", "SQ-01", loc, model.TeamWorking)); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateTeam(team("idle", "SQ-02", loc, model.TeamAvailable)); err != nil {
		t.Fatal(err)
	}
	addOrder(t, st, "a", "busy", model.PriorityLow, model.StatusInProgress)
	c := NewCoordinator(st, nil, nil, nil, logger.NopLogger{})
	cands, err := c.IdentifyTeamsToMobilize(incident, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 || cands[0].Team.ID != "idle" {
		t.Fatalf("tie should prefer the team with fewer active orders, got %v", cands)
	}
}

func TestMobilize_SuspendsOnlyNonPriorityWork(t *testing.T) {
	st := store.NewMemoryStore()
	seedFleet(t, st)
	addOrder(t, st, "alta", "t1", model.PriorityHigh, model.StatusAssigned)
	addOrder(t, st, "media", "t1", model.PriorityMedium, model.StatusEnRoute)
	addOrder(t, st, "bassa", "t1", model.PriorityLow, model.StatusAssigned)
	addOrder(t, st, "working", "t1", model.PriorityLow, model.StatusInProgress)

	c := NewCoordinator(st, nil, nil, nil, logger.NopLogger{})
	activate(t, c, 1)

	o, _ := st.GetWorkOrder("alta")
	if o.Status != model.StatusAssigned {
		t.Fatalf("ALTA order must never be auto-suspended, got %s", o.Status)
	}
	for _, id := range []string{"media", "bassa"} {
		o, _ := st.GetWorkOrder(id)
		if o.Status != model.StatusSuspended {
			t.Fatalf("order %s should be sospeso, got %s", id, o.Status)
		}
		if o.Notes == "" {
			t.Fatalf("suspension must note the emergency, order %s", id)
		}
		hist, _ := st.HistoryForOrder(id)
		if len(hist) != 1 || hist[0].NewStatus != model.StatusSuspended {
			t.Fatalf("missing suspension history for %s", id)
		}
	}
	// Orders already being worked are not in the suspendable window.
	o, _ = st.GetWorkOrder("working")
	if o.Status != model.StatusInProgress {
		t.Fatalf("in_lavorazione order must not be suspended, got %s", o.Status)
	}
}

func TestDeactivate_RestoresTeamsExactlyOnce(t *testing.T) {
	st := store.NewMemoryStore()
	seedFleet(t, st)
	pauser := &fakePauser{}
	c := NewCoordinator(st, nil, nil, pauser, logger.NopLogger{})
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return start })
	em := activate(t, c, 2)

	c.SetClock(func() time.Time { return start.Add(90 * time.Minute) })
	rep, err := c.Deactivate(context.Background(), em.ID, "coordinatore1")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if rep.Emergency.Status != model.EmergencyResolved {
		t.Fatalf("emergency not resolved: %+v", rep.Emergency)
	}
	if rep.DurationMinutes != 90 {
		t.Fatalf("duration = %v, want 90", rep.DurationMinutes)
	}
	if len(rep.Teams) != 2 {
		t.Fatalf("report should list 2 teams, got %d", len(rep.Teams))
	}
	for _, tr := range rep.Teams {
		if tr.Status != model.EmergencyTeamDemobilized || tr.DemobilizedAt.IsZero() {
			t.Fatalf("team %s not demobilized: %+v", tr.TeamID, tr)
		}
	}
	for _, id := range []string{"t1", "t2"} {
		tm, _ := st.GetTeam(id)
		if tm.Status != model.TeamAvailable {
			t.Fatalf("team %s should be disponibile, got %s", id, tm.Status)
		}
	}
	if pauser.resumed != 1 {
		t.Fatal("deactivation must resume auto-assignment")
	}
	if rep.MeanEngagementMinutes != 90 || rep.MaxEngagementMinutes != 90 {
		t.Fatalf("engagement aggregates wrong: %+v", rep)
	}

	// A duplicate deactivation rebuilds the report but restores nothing and
	// logs nothing.
	tlBefore, _ := st.Timeline(em.ID)
	rep2, err := c.Deactivate(context.Background(), em.ID, "coordinatore2")
	if err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	tlAfter, _ := st.Timeline(em.ID)
	if len(tlAfter) != len(tlBefore) {
		t.Fatal("duplicate deactivation must not append timeline events")
	}
	if len(rep2.Teams) != 2 {
		t.Fatal("duplicate deactivation should still return the full report")
	}
	if pauser.resumed != 1 {
		t.Fatal("duplicate deactivation must not resume twice")
	}
}

func TestDeactivate_NotFound(t *testing.T) {
	c := NewCoordinator(store.NewMemoryStore(), nil, nil, nil, logger.NopLogger{})
	if _, err := c.Deactivate(context.Background(), "missing", "u"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivate_Validation(t *testing.T) {
	c := NewCoordinator(store.NewMemoryStore(), nil, nil, nil, logger.NopLogger{})
	var verr model.ValidationError
	if _, err := c.Activate(context.Background(), ActivationRequest{Type: "x"}, "u"); !errors.As(err, &verr) {
		t.Fatalf("teams_required=0 should fail validation, got %v", err)
	}
	if _, err := c.Activate(context.Background(), ActivationRequest{TeamsRequired: 1}, "u"); !errors.As(err, &verr) {
		t.Fatalf("missing type should fail validation, got %v", err)
	}
}
