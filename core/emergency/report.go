package emergency

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fieldcrew/dispatch/core/model"
)

// TeamReport summarizes one team's engagement on the emergency.
type TeamReport struct {
	TeamID        string                    `json:"team_id"`
	TeamCode      string                    `json:"team_code"`
	Status        model.EmergencyTeamStatus `json:"status"`
	MobilizedAt   time.Time                 `json:"mobilized_at"`
	DemobilizedAt time.Time                 `json:"demobilized_at,omitempty"`
	DistanceKm    float64                   `json:"distance_km"`
}

// Report is the final summary returned on deactivation.
type Report struct {
	Emergency       model.Emergency       `json:"emergency"`
	DurationMinutes float64               `json:"duration_minutes"`
	Teams           []TeamReport          `json:"teams"`
	Timeline        []model.TimelineEvent `json:"timeline"`
	// Aggregates over the mobilized teams.
	MeanEngagementMinutes float64 `json:"mean_engagement_minutes"`
	MaxEngagementMinutes  float64 `json:"max_engagement_minutes"`
	MeanDistanceKm        float64 `json:"mean_distance_km"`
}

func (c *Coordinator) buildReport(em model.Emergency) (Report, error) {
	r := Report{Emergency: em}
	if !em.DeactivatedAt.IsZero() {
		r.DurationMinutes = em.DeactivatedAt.Sub(em.ActivatedAt).Minutes()
	}
	ets, err := c.store.ListEmergencyTeams(em.ID)
	if err != nil {
		return Report{}, err
	}
	var engagements, distances []float64
	for _, et := range ets {
		tr := TeamReport{
			TeamID:        et.TeamID,
			Status:        et.Status,
			MobilizedAt:   et.MobilizedAt,
			DemobilizedAt: et.DemobilizedAt,
		}
		if team, err := c.store.GetTeam(et.TeamID); err == nil {
			tr.TeamCode = team.Code
			if team.Location.Known() && em.Location.Known() {
				tr.DistanceKm = em.Location.DistanceKm(team.Location)
				distances = append(distances, tr.DistanceKm)
			}
		}
		if !et.DemobilizedAt.IsZero() {
			engagements = append(engagements, et.DemobilizedAt.Sub(et.MobilizedAt).Minutes())
		}
		r.Teams = append(r.Teams, tr)
	}
	if len(engagements) > 0 {
		r.MeanEngagementMinutes = stat.Mean(engagements, nil)
		for _, v := range engagements {
			if v > r.MaxEngagementMinutes {
				r.MaxEngagementMinutes = v
			}
		}
	}
	if len(distances) > 0 {
		r.MeanDistanceKm = stat.Mean(distances, nil)
	}
	r.Timeline, err = c.store.Timeline(em.ID)
	if err != nil {
		return Report{}, err
	}
	return r, nil
}
