package anomaly

import (
	"context"
	"testing"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/infra/logger"
)

func daytime() time.Time {
	return time.Date(2026, 8, 20, 14, 0, 0, 0, time.Local)
}

func night() time.Time {
	return time.Date(2026, 8, 20, 23, 30, 0, 0, time.Local)
}

func fix(vehicle string, speed float64, ts time.Time) model.GPSFix {
	return model.GPSFix{VehicleID: vehicle, Lat: 45.46, Lon: 9.19, SpeedKmh: speed, Timestamp: ts}
}

func seedTeam(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	err := st.CreateTeam(model.Team{
		ID: "t1", Code: "SQ-01", Status: model.TeamAvailable, VehicleID: "v1", IsActive: true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSpeeding_AlertAndDedup(t *testing.T) {
	st := store.NewMemoryStore()
	seedTeam(t, st)
	m := NewMonitor(st, nil, logger.NopLogger{})
	now := daytime()
	m.SetClock(func() time.Time { return now })

	if err := m.HandleFix(context.Background(), fix("v1", 95, now)); err != nil {
		t.Fatal(err)
	}
	alerts, _ := st.ListAlerts("v1")
	if len(alerts) != 1 || alerts[0].Type != model.AlertSpeeding || alerts[0].Severity != model.AlertSeverityMedium {
		t.Fatalf("expected one medium speeding alert, got %v", alerts)
	}

	// A second report within 24h is deduplicated.
	if err := m.HandleFix(context.Background(), fix("v1", 96, now)); err != nil {
		t.Fatal(err)
	}
	alerts, _ = st.ListAlerts("v1")
	if len(alerts) != 1 {
		t.Fatalf("dedup failed, got %d alerts", len(alerts))
	}

	// After the window a new qualifying report alerts again.
	now = now.Add(25 * time.Hour)
	if err := m.HandleFix(context.Background(), fix("v1", 95, now)); err != nil {
		t.Fatal(err)
	}
	alerts, _ = st.ListAlerts("v1")
	if len(alerts) != 2 {
		t.Fatalf("expected a second alert after the window, got %d", len(alerts))
	}
}

func TestSpeeding_AtLimitNoAlert(t *testing.T) {
	st := store.NewMemoryStore()
	seedTeam(t, st)
	m := NewMonitor(st, nil, logger.NopLogger{})
	if err := m.HandleFix(context.Background(), fix("v1", 90, daytime())); err != nil {
		t.Fatal(err)
	}
	alerts, _ := st.ListAlerts("v1")
	if len(alerts) != 0 {
		t.Fatalf("90 km/h is not over the limit, got %v", alerts)
	}
}

func TestOffHours_Alert(t *testing.T) {
	st := store.NewMemoryStore()
	seedTeam(t, st)
	m := NewMonitor(st, nil, logger.NopLogger{})
	m.SetClock(night)
	if err := m.HandleFix(context.Background(), fix("v1", 30, night())); err != nil {
		t.Fatal(err)
	}
	alerts, _ := st.ListAlerts("v1")
	if len(alerts) != 1 || alerts[0].Type != model.AlertOffHours || alerts[0].Severity != model.AlertSeverityLow {
		t.Fatalf("expected one low off-hours alert, got %v", alerts)
	}
}

func TestOffHours_EarlyMorning(t *testing.T) {
	st := store.NewMemoryStore()
	seedTeam(t, st)
	m := NewMonitor(st, nil, logger.NopLogger{})
	ts := time.Date(2026, 8, 21, 5, 59, 0, 0, time.Local)
	if err := m.HandleFix(context.Background(), fix("v1", 30, ts)); err != nil {
		t.Fatal(err)
	}
	alerts, _ := st.ListAlerts("v1")
	if len(alerts) != 1 {
		t.Fatalf("05:59 is off-hours, got %v", alerts)
	}
}

func TestOffHours_MobilizedTeamExempt(t *testing.T) {
	st := store.NewMemoryStore()
	seedTeam(t, st)
	if err := st.CreateEmergency(model.Emergency{ID: "e1", Code: "EMG-1", Status: model.EmergencyActive}); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateEmergencyTeam(model.EmergencyTeam{EmergencyID: "e1", TeamID: "t1", Status: model.EmergencyTeamOnSite}); err != nil {
		t.Fatal(err)
	}
	m := NewMonitor(st, nil, logger.NopLogger{})
	if err := m.HandleFix(context.Background(), fix("v1", 30, night())); err != nil {
		t.Fatal(err)
	}
	alerts, _ := st.ListAlerts("v1")
	if len(alerts) != 0 {
		t.Fatalf("mobilized team is exempt from off-hours alerts, got %v", alerts)
	}
	// Speeding still applies during an emergency.
	if err := m.HandleFix(context.Background(), fix("v1", 120, night())); err != nil {
		t.Fatal(err)
	}
	alerts, _ = st.ListAlerts("v1")
	if len(alerts) != 1 || alerts[0].Type != model.AlertSpeeding {
		t.Fatalf("speeding must alert even when mobilized, got %v", alerts)
	}
}

func TestHandleFix_UpdatesTeamLocation(t *testing.T) {
	st := store.NewMemoryStore()
	seedTeam(t, st)
	m := NewMonitor(st, nil, logger.NopLogger{})
	if err := m.HandleFix(context.Background(), fix("v1", 10, daytime())); err != nil {
		t.Fatal(err)
	}
	team, _ := st.GetTeam("t1")
	if team.Location.Lat != 45.46 || team.Location.Lon != 9.19 {
		t.Fatalf("team location not updated: %+v", team.Location)
	}
}
