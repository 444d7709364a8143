// Package events defines the domain events emitted on the internal bus and
// fanned out to the notification channels.
package events

import (
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// OrderAssigned is emitted when a work order is assigned to a team.
type OrderAssigned struct {
	OrderID    string
	OrderCode  string
	TeamID     string
	TeamCode   string
	Mode       model.AssignmentMode
	Score      float64
	ETAMinutes float64
	By         string
	At         time.Time
}

// StatusChanged is emitted on every work order lifecycle transition.
type StatusChanged struct {
	OrderID   string
	OrderCode string
	TeamID    string
	TeamCode  string
	Old       model.WorkOrderStatus
	New       model.WorkOrderStatus
	By        string
	At        time.Time
}

// OrderSuspended is emitted when the emergency coordinator suspends an order.
type OrderSuspended struct {
	OrderID       string
	OrderCode     string
	EmergencyCode string
	At            time.Time
}

// EmergencyActivated is emitted when a major incident is declared.
type EmergencyActivated struct {
	EmergencyID string
	Code        string
	Severity    model.EmergencySeverity
	By          string
	At          time.Time
}

// TeamMobilized is emitted for each team pulled onto an emergency.
type TeamMobilized struct {
	EmergencyID   string
	EmergencyCode string
	TeamID        string
	TeamCode      string
	At            time.Time
}

// EmergencyDeactivated is emitted when an incident is resolved.
type EmergencyDeactivated struct {
	EmergencyID string
	Code        string
	By          string
	At          time.Time
}

// AnomalyAlert is emitted when GPS telemetry raises a new alert.
type AnomalyAlert struct {
	AlertID   string
	VehicleID string
	Type      model.AlertType
	Severity  model.AlertSeverity
	Message   string
	At        time.Time
}

// OrderOverdue is emitted by the response-time watchdog for orders past the
// response limit of their priority.
type OrderOverdue struct {
	OrderID   string
	OrderCode string
	Priority  model.Priority
	Waiting   time.Duration
	At        time.Time
}

// Name implements eventbus.Event with the event's wire identifier.
func (OrderAssigned) Name() string        { return "order_assigned" }
func (StatusChanged) Name() string        { return "status_changed" }
func (OrderSuspended) Name() string       { return "order_suspended" }
func (EmergencyActivated) Name() string   { return "emergency_activated" }
func (TeamMobilized) Name() string        { return "team_mobilized" }
func (EmergencyDeactivated) Name() string { return "emergency_deactivated" }
func (AnomalyAlert) Name() string         { return "anomaly_alert" }
func (OrderOverdue) Name() string         { return "order_overdue" }
