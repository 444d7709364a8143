// Package anomaly turns raw GPS telemetry into vehicle alerts.
package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrew/dispatch/core/events"
	"github.com/fieldcrew/dispatch/core/logger"
	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

const (
	speedLimitKmh = 90.0
	// Off-hours window, local time: [22,24) and [0,6).
	offHoursEvening = 22
	offHoursMorning = 6
	dedupWindow     = 24 * time.Hour
)

// Monitor checks every GPS fix for anomalies and keeps the team's last
// known position current.
type Monitor struct {
	store store.Store
	bus   eventbus.EventBus
	log   logger.Logger
	now   func() time.Time
}

// NewMonitor creates a Monitor. bus may be nil.
func NewMonitor(st store.Store, bus eventbus.EventBus, log logger.Logger) *Monitor {
	return &Monitor{store: st, bus: bus, log: log, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (m *Monitor) SetClock(now func() time.Time) { m.now = now }

// HandleFix processes one position report: updates the owning team's
// location, then evaluates the speed and off-hours checks independently.
func (m *Monitor) HandleFix(ctx context.Context, fix model.GPSFix) error {
	if team, err := m.store.FindTeamByVehicle(fix.VehicleID); err == nil {
		team.Location = model.Point{Lon: fix.Lon, Lat: fix.Lat}
		if err := m.store.PutTeam(team); err != nil {
			return err
		}
	}

	if fix.SpeedKmh > speedLimitKmh {
		m.raise(fix, model.AlertSpeeding, model.AlertSeverityMedium,
			fmt.Sprintf("velocita %.0f km/h oltre il limite di %.0f", fix.SpeedKmh, speedLimitKmh))
	}
	if m.offHours(fix) {
		m.raise(fix, model.AlertOffHours, model.AlertSeverityLow,
			fmt.Sprintf("utilizzo del veicolo alle %s", fix.Timestamp.Local().Format("15:04")))
	}
	return nil
}

// offHours reports whether the fix falls in the off-hours window and the
// vehicle's team is not mobilized on an active emergency.
func (m *Monitor) offHours(fix model.GPSFix) bool {
	h := fix.Timestamp.Local().Hour()
	if h < offHoursEvening && h >= offHoursMorning {
		return false
	}
	team, err := m.store.FindTeamByVehicle(fix.VehicleID)
	if err != nil {
		return true
	}
	mobilized, err := m.store.ActiveEmergencyTeam(team.ID)
	if err != nil {
		m.log.Errorf("mobilization lookup for vehicle %s: %v", fix.VehicleID, err)
		return true
	}
	return !mobilized
}

// raise creates the alert unless an unresolved one of the same type exists
// for the vehicle within the dedup window.
func (m *Monitor) raise(fix model.GPSFix, t model.AlertType, sev model.AlertSeverity, msg string) {
	now := m.now()
	a := model.Alert{
		ID:        uuid.NewString(),
		VehicleID: fix.VehicleID,
		Type:      t,
		Severity:  sev,
		Message:   msg,
		CreatedAt: now,
	}
	created := false
	err := m.store.Atomically(func(tx store.Store) error {
		open, err := tx.HasOpenAlert(fix.VehicleID, t, now.Add(-dedupWindow))
		if err != nil {
			return err
		}
		if open {
			return nil
		}
		created = true
		return tx.CreateAlert(a)
	})
	if err != nil {
		m.log.Errorf("alert for vehicle %s: %v", fix.VehicleID, err)
		return
	}
	if !created {
		return
	}
	alertsTotal.WithLabelValues(string(t)).Inc()
	m.log.Warnf("alert %s for vehicle %s: %s", t, fix.VehicleID, msg)
	if m.bus != nil {
		m.bus.Publish(events.AnomalyAlert{
			AlertID: a.ID, VehicleID: a.VehicleID, Type: t, Severity: sev, Message: msg, At: now,
		})
	}
}
