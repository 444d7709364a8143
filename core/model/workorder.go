package model

import (
	"fmt"
	"time"
)

// WorkOrderStatus is the lifecycle state of a work order. The values are the
// wire and storage representation used by the external dispatch system.
type WorkOrderStatus string

const (
	StatusReceived      WorkOrderStatus = "ricevuto"
	StatusAssigned      WorkOrderStatus = "assegnato"
	StatusTakenInCharge WorkOrderStatus = "preso_in_carico"
	StatusEnRoute       WorkOrderStatus = "in_viaggio"
	StatusOnSite        WorkOrderStatus = "arrivato_sul_posto"
	StatusInProgress    WorkOrderStatus = "in_lavorazione"
	StatusCompleted     WorkOrderStatus = "completato"
	StatusValidated     WorkOrderStatus = "validato"
	StatusSuspended     WorkOrderStatus = "sospeso"
)

// forwardRank orders the canonical chain. Suspended sits outside the chain.
var forwardRank = map[WorkOrderStatus]int{
	StatusReceived:      0,
	StatusAssigned:      1,
	StatusTakenInCharge: 2,
	StatusEnRoute:       3,
	StatusOnSite:        4,
	StatusInProgress:    5,
	StatusCompleted:     6,
	StatusValidated:     7,
}

// Valid reports whether s is a known status value.
func (s WorkOrderStatus) Valid() bool {
	if s == StatusSuspended {
		return true
	}
	_, ok := forwardRank[s]
	return ok
}

// CanTransitionTo reports whether the move s -> next is allowed. Forward
// jumps along the canonical chain are permitted, backward moves are not.
// Suspension is reserved to the emergency coordinator; a suspended order
// resumes at assegnato.
func (s WorkOrderStatus) CanTransitionTo(next WorkOrderStatus) bool {
	if !s.Valid() || !next.Valid() || next == StatusSuspended {
		return false
	}
	if s == StatusSuspended {
		return next == StatusAssigned
	}
	return forwardRank[next] > forwardRank[s]
}

// TimestampField returns a pointer to the work order field stamped when the
// order enters status s, or nil when no field is mapped (e.g. sospeso).
func (s WorkOrderStatus) TimestampField(o *WorkOrder) *time.Time {
	switch s {
	case StatusAssigned:
		return &o.AssignedAt
	case StatusTakenInCharge:
		return &o.TakenInChargeAt
	case StatusEnRoute:
		return &o.DepartureAt
	case StatusOnSite:
		return &o.ArrivalAt
	case StatusInProgress:
		return &o.WorkStartedAt
	case StatusCompleted:
		return &o.WorkCompletedAt
	case StatusValidated:
		return &o.ValidatedAt
	default:
		return nil
	}
}

// Active reports whether the order still occupies a team's workload.
func (s WorkOrderStatus) Active() bool {
	return s != StatusCompleted && s != StatusValidated
}

// Priority classifies the urgency of a work order.
type Priority string

const (
	PriorityHigh   Priority = "ALTA"
	PriorityMedium Priority = "MEDIA"
	PriorityLow    Priority = "BASSA"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// AssignmentMode records how a team was chosen for an order.
type AssignmentMode string

const (
	AssignManual   AssignmentMode = "manuale"
	AssignSemiAuto AssignmentMode = "semi-automatica"
	AssignAuto     AssignmentMode = "automatica"
)

// InterventionType enumerates the kinds of field work an order may require.
type InterventionType string

const (
	InterventionLeak        InterventionType = "perdita"
	InterventionOutage      InterventionType = "interruzione"
	InterventionMeter       InterventionType = "contatore"
	InterventionMaintenance InterventionType = "manutenzione"
	InterventionInspection  InterventionType = "sopralluogo"
)

// WorkOrder is a single field-repair task. Orders are created on intake and
// mutated only through lifecycle transitions; they are never deleted.
type WorkOrder struct {
	ID         string           `json:"id"`
	ExternalID string           `json:"external_id,omitempty"`
	Code       string           `json:"code"`
	Priority   Priority         `json:"priority"`
	Type       InterventionType `json:"type"`
	Status     WorkOrderStatus  `json:"status"`
	Location   Point            `json:"location"`

	RequiredCompetences []CompetenceType `json:"required_competences,omitempty"`
	RequiredMaterials   []string         `json:"required_materials,omitempty"`

	AssignedTeamID  string         `json:"assigned_team_id,omitempty"`
	AssignedBy      string         `json:"assigned_by,omitempty"`
	AssignmentMode  AssignmentMode `json:"assignment_mode,omitempty"`
	AssignmentScore float64        `json:"assignment_score,omitempty"`

	ReceivedAt      time.Time `json:"received_at"`
	AssignedAt      time.Time `json:"assigned_at,omitempty"`
	TakenInChargeAt time.Time `json:"taken_in_charge_at,omitempty"`
	DepartureAt     time.Time `json:"departure_at,omitempty"`
	ArrivalAt       time.Time `json:"arrival_at,omitempty"`
	WorkStartedAt   time.Time `json:"work_started_at,omitempty"`
	WorkCompletedAt time.Time `json:"work_completed_at,omitempty"`
	ValidatedAt     time.Time `json:"validated_at,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// Validate checks that the work order configuration is sound.
func (o WorkOrder) Validate() error {
	if o.Code == "" {
		return ValidationError{Field: "code", Reason: "required"}
	}
	if !o.Priority.Valid() {
		return ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", o.Priority)}
	}
	if !o.Status.Valid() {
		return ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", o.Status)}
	}
	if o.Status != StatusReceived && o.AssignedTeamID == "" {
		return ValidationError{Field: "assigned_team_id", Reason: "required once the order leaves ricevuto"}
	}
	return nil
}

// StatusHistoryEntry is one immutable step of a work order's audit trail.
type StatusHistoryEntry struct {
	WorkOrderID string          `json:"work_order_id"`
	OldStatus   WorkOrderStatus `json:"old_status"`
	NewStatus   WorkOrderStatus `json:"new_status"`
	ChangedBy   string          `json:"changed_by,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ValidationError reports a field that fails domain validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}
