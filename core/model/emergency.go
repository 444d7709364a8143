package model

import "time"

// EmergencyStatus is the lifecycle state of a declared major incident.
type EmergencyStatus string

const (
	EmergencyActive   EmergencyStatus = "attiva"
	EmergencyManaged  EmergencyStatus = "in_gestione"
	EmergencyResolved EmergencyStatus = "risolta"
)

// EmergencySeverity grades the impact of an incident.
type EmergencySeverity string

const (
	SeverityCritical EmergencySeverity = "critica"
	SeverityHigh     EmergencySeverity = "alta"
	SeverityMedium   EmergencySeverity = "media"
)

// Emergency is a declared major incident requiring multi-team mobilization.
type Emergency struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Type          string            `json:"type"`
	Severity      EmergencySeverity `json:"severity"`
	Status        EmergencyStatus   `json:"status"`
	Description   string            `json:"description,omitempty"`
	Location      Point             `json:"location"`
	TeamsRequired int               `json:"teams_required"`
	ActivatedAt   time.Time         `json:"activated_at"`
	ActivatedBy   string            `json:"activated_by"`
	DeactivatedAt time.Time         `json:"deactivated_at,omitempty"`
	DeactivatedBy string            `json:"deactivated_by,omitempty"`
}

// EmergencyTeamStatus tracks a mobilized team inside an emergency.
type EmergencyTeamStatus string

const (
	EmergencyTeamAlerted     EmergencyTeamStatus = "allertata"
	EmergencyTeamEnRoute     EmergencyTeamStatus = "in_viaggio"
	EmergencyTeamOnSite      EmergencyTeamStatus = "sul_posto"
	EmergencyTeamDemobilized EmergencyTeamStatus = "smobilitata"
)

// Mobilized reports whether the team is still engaged on the emergency.
func (s EmergencyTeamStatus) Mobilized() bool {
	return s == EmergencyTeamAlerted || s == EmergencyTeamEnRoute || s == EmergencyTeamOnSite
}

// EmergencyTeam records one team's mobilization on one emergency.
type EmergencyTeam struct {
	EmergencyID   string              `json:"emergency_id"`
	TeamID        string              `json:"team_id"`
	Status        EmergencyTeamStatus `json:"status"`
	MobilizedAt   time.Time           `json:"mobilized_at"`
	DemobilizedAt time.Time           `json:"demobilized_at,omitempty"`
}

// TimelineEvent is one append-only entry of an emergency's timeline.
type TimelineEvent struct {
	EmergencyID string    `json:"emergency_id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	PerformedBy string    `json:"performed_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
