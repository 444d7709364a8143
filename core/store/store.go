// Package store defines the repository abstraction shared by the dispatch,
// lifecycle and emergency services.
package store

import (
	"errors"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional update loses a race, e.g. two
// assignment requests on the same work order.
var ErrConflict = errors.New("conflict")

// DefaultLimit caps list queries when the caller does not set one.
const DefaultLimit = 50

// WorkOrderFilter selects work orders. Present fields are AND-combined.
type WorkOrderFilter struct {
	Status   model.WorkOrderStatus
	Priority model.Priority
	TeamID   string
	Limit    int
	Offset   int
}

// TeamFilter selects teams. Present fields are AND-combined.
type TeamFilter struct {
	ActiveOnly bool
	Statuses   []model.TeamStatus
}

// Store is the persistent repository of work orders, teams, emergencies and
// configuration. Implementations must make Atomically apply its whole body
// as a single unit; no other writer may observe a partial state.
type Store interface {
	NextWorkOrderCode(now time.Time) (string, error)
	CreateWorkOrder(o model.WorkOrder) error
	GetWorkOrder(id string) (model.WorkOrder, error)
	FindWorkOrderByExternalID(externalID string) (model.WorkOrder, error)
	PutWorkOrder(o model.WorkOrder) error
	ListWorkOrders(f WorkOrderFilter) ([]model.WorkOrder, error)
	// CountActiveOrders returns how many non-completed, non-validated
	// orders are assigned to the team.
	CountActiveOrders(teamID string) (int, error)

	CreateTeam(t model.Team) error
	GetTeam(id string) (model.Team, error)
	FindTeamByVehicle(vehicleID string) (model.Team, error)
	PutTeam(t model.Team) error
	ListTeams(f TeamFilter) ([]model.Team, error)

	NextEmergencyCode(now time.Time) (string, error)
	CreateEmergency(e model.Emergency) error
	GetEmergency(id string) (model.Emergency, error)
	PutEmergency(e model.Emergency) error
	CreateEmergencyTeam(et model.EmergencyTeam) error
	PutEmergencyTeam(et model.EmergencyTeam) error
	ListEmergencyTeams(emergencyID string) ([]model.EmergencyTeam, error)
	// ActiveEmergencyTeam reports whether the team is currently mobilized
	// (allertata, in_viaggio or sul_posto) on a non-resolved emergency.
	ActiveEmergencyTeam(teamID string) (bool, error)

	AppendHistory(e model.StatusHistoryEntry) error
	HistoryForOrder(orderID string) ([]model.StatusHistoryEntry, error)
	AppendTimeline(ev model.TimelineEvent) error
	Timeline(emergencyID string) ([]model.TimelineEvent, error)

	CreateAlert(a model.Alert) error
	// HasOpenAlert reports whether an unresolved alert of the given type
	// exists for the vehicle created at or after since.
	HasOpenAlert(vehicleID string, t model.AlertType, since time.Time) (bool, error)
	ListAlerts(vehicleID string) ([]model.Alert, error)
	ResolveAlert(id string) error

	GetConfig(key string) (string, bool)
	SetConfig(key, value string) error

	// Atomically runs fn against a view of the store under a single
	// critical section. Returning an error discards nothing that fn
	// already wrote; callers keep fn free of partial writes by validating
	// before mutating.
	Atomically(fn func(Store) error) error
}
