package model

import "time"

// TeamStatus is the operational state of a field crew.
type TeamStatus string

const (
	TeamAvailable    TeamStatus = "disponibile"
	TeamEnRoute      TeamStatus = "in_viaggio"
	TeamWorking      TeamStatus = "in_lavorazione"
	TeamOutOfService TeamStatus = "fuori_servizio"
)

// Valid reports whether s is a known team status.
func (s TeamStatus) Valid() bool {
	switch s {
	case TeamAvailable, TeamEnRoute, TeamWorking, TeamOutOfService:
		return true
	}
	return false
}

// Dispatchable reports whether a team in this status may receive work.
func (s TeamStatus) Dispatchable() bool {
	return s == TeamAvailable || s == TeamEnRoute || s == TeamWorking
}

// CompetenceType identifies a certification a crew may hold.
type CompetenceType string

const (
	CompetenceElectrical CompetenceType = "elettrica"
	CompetenceHydraulic  CompetenceType = "idraulica"
	CompetenceGas        CompetenceType = "gas"
	CompetenceExcavation CompetenceType = "scavi"
	CompetenceMetering   CompetenceType = "misura"
)

// Competence pairs a certification with its expiry. A zero Expiry means the
// certification does not lapse.
type Competence struct {
	Type   CompetenceType `json:"type"`
	Expiry time.Time      `json:"expiry,omitempty"`
}

// ValidOn reports whether the competence is usable on the given local date.
// The comparison is by calendar day in server local time, not by instant.
func (c Competence) ValidOn(day time.Time) bool {
	if c.Expiry.IsZero() {
		return true
	}
	y1, m1, d1 := c.Expiry.Local().Date()
	y2, m2, d2 := day.Local().Date()
	exp := time.Date(y1, m1, d1, 0, 0, 0, 0, time.Local)
	cur := time.Date(y2, m2, d2, 0, 0, 0, 0, time.Local)
	return !exp.Before(cur)
}

// Team is a field crew with a vehicle, competences and a last known location.
type Team struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Status      TeamStatus   `json:"status"`
	Location    Point        `json:"location"`
	Competences []Competence `json:"competences,omitempty"`
	VehicleID   string       `json:"vehicle_id,omitempty"`
	IsActive    bool         `json:"is_active"`
}

// HasValidCompetence reports whether the team holds an unexpired competence
// of the given type on the given local date.
func (t Team) HasValidCompetence(ct CompetenceType, day time.Time) bool {
	for _, c := range t.Competences {
		if c.Type == ct && c.ValidOn(day) {
			return true
		}
	}
	return false
}
