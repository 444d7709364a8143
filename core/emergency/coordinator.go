// Package emergency implements the activation, mobilization and
// demobilization protocol for major incidents.
package emergency

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrew/dispatch/core/audit"
	"github.com/fieldcrew/dispatch/core/events"
	"github.com/fieldcrew/dispatch/core/logger"
	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

// AssignmentPauser suspends and resumes non-priority auto-assignment while
// an emergency is active.
type AssignmentPauser interface {
	PauseAutoAssign() error
	ResumeAutoAssign() error
}

// ActivationRequest carries the declaration of a new incident.
type ActivationRequest struct {
	Type          string                  `json:"type"`
	Severity      model.EmergencySeverity `json:"severity"`
	Description   string                  `json:"description"`
	Location      model.Point             `json:"location"`
	TeamsRequired int                     `json:"teams_required"`
}

// MobilizationCandidate is a team ranked for mobilization.
type MobilizationCandidate struct {
	Team         model.Team `json:"team"`
	DistanceKm   float64    `json:"distance_km"`
	ActiveOrders int        `json:"active_orders"`
}

// Coordinator owns the emergency protocol.
type Coordinator struct {
	store  store.Store
	audit  audit.Store
	bus    eventbus.EventBus
	pauser AssignmentPauser
	log    logger.Logger
	now    func() time.Time
}

// NewCoordinator creates a Coordinator. audit, bus and pauser may be nil.
func NewCoordinator(st store.Store, aud audit.Store, bus eventbus.EventBus, pauser AssignmentPauser, log logger.Logger) *Coordinator {
	if aud == nil {
		aud = audit.NopStore{}
	}
	return &Coordinator{store: st, audit: aud, bus: bus, pauser: pauser, log: log, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (c *Coordinator) SetClock(now func() time.Time) { c.now = now }

// Activate declares the incident, mobilizes the nearest eligible teams and
// suspends their non-priority work, all as one atomic unit.
func (c *Coordinator) Activate(ctx context.Context, req ActivationRequest, activatedBy string) (model.Emergency, error) {
	if req.TeamsRequired <= 0 {
		return model.Emergency{}, model.ValidationError{Field: "teams_required", Reason: "must be positive"}
	}
	if req.Type == "" {
		return model.Emergency{}, model.ValidationError{Field: "type", Reason: "required"}
	}
	now := c.now()
	var em model.Emergency
	var published []eventbus.Event
	err := c.store.Atomically(func(tx store.Store) error {
		code, err := tx.NextEmergencyCode(now)
		if err != nil {
			return err
		}
		em = model.Emergency{
			ID:            uuid.NewString(),
			Code:          code,
			Type:          req.Type,
			Severity:      req.Severity,
			Status:        model.EmergencyActive,
			Description:   req.Description,
			Location:      req.Location,
			TeamsRequired: req.TeamsRequired,
			ActivatedAt:   now,
			ActivatedBy:   activatedBy,
		}
		if err := tx.CreateEmergency(em); err != nil {
			return err
		}
		if err := tx.AppendTimeline(model.TimelineEvent{
			EmergencyID: em.ID,
			EventType:   "attivazione",
			Description: fmt.Sprintf("emergenza %s attivata (%s, %s)", em.Code, em.Type, em.Severity),
			PerformedBy: activatedBy,
			Timestamp:   now,
		}); err != nil {
			return err
		}
		published = append(published, events.EmergencyActivated{
			EmergencyID: em.ID, Code: em.Code, Severity: em.Severity, By: activatedBy, At: now,
		})
		candidates, err := identifyIn(tx, req.Location, req.TeamsRequired)
		if err != nil {
			return err
		}
		for _, cand := range candidates {
			evs, err := c.mobilizeIn(tx, em, cand.Team.ID, activatedBy, now)
			if err != nil {
				return err
			}
			published = append(published, evs...)
		}
		return nil
	})
	if err != nil {
		return model.Emergency{}, err
	}

	emergenciesActivated.Inc()
	if c.pauser != nil {
		if err := c.pauser.PauseAutoAssign(); err != nil {
			c.log.Errorf("pausing auto-assignment: %v", err)
		}
	}
	c.appendAudit(ctx, em.ID, now)
	for _, ev := range published {
		if c.bus != nil {
			c.bus.Publish(ev)
		}
	}
	c.log.Infof("emergency %s activated by %s", em.Code, activatedBy)
	return em, nil
}

// IdentifyTeamsToMobilize ranks eligible teams by distance to the incident,
// breaking ties on fewer active orders, truncated to teamsRequired.
func (c *Coordinator) IdentifyTeamsToMobilize(location model.Point, teamsRequired int) ([]MobilizationCandidate, error) {
	var out []MobilizationCandidate
	err := c.store.Atomically(func(tx store.Store) error {
		var err error
		out, err = identifyIn(tx, location, teamsRequired)
		return err
	})
	return out, err
}

func identifyIn(tx store.Store, location model.Point, teamsRequired int) ([]MobilizationCandidate, error) {
	teams, err := tx.ListTeams(store.TeamFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	var out []MobilizationCandidate
	for _, t := range teams {
		if t.Status == model.TeamOutOfService {
			continue
		}
		active, err := tx.CountActiveOrders(t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, MobilizationCandidate{
			Team:         t,
			DistanceKm:   location.DistanceKm(t.Location),
			ActiveOrders: active,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].ActiveOrders < out[j].ActiveOrders
	})
	if len(out) > teamsRequired {
		out = out[:teamsRequired]
	}
	return out, nil
}

// MobilizeTeam pulls one team onto an active emergency.
func (c *Coordinator) MobilizeTeam(ctx context.Context, emergencyID, teamID, mobilizedBy string) error {
	now := c.now()
	var published []eventbus.Event
	err := c.store.Atomically(func(tx store.Store) error {
		em, err := tx.GetEmergency(emergencyID)
		if err != nil {
			return err
		}
		evs, err := c.mobilizeIn(tx, em, teamID, mobilizedBy, now)
		if err != nil {
			return err
		}
		published = evs
		return nil
	})
	if err != nil {
		return err
	}
	c.appendAudit(ctx, emergencyID, now)
	for _, ev := range published {
		if c.bus != nil {
			c.bus.Publish(ev)
		}
	}
	return nil
}

// mobilizeIn runs inside the caller's atomic block: the EmergencyTeam
// record, the team status flip and the suspension of non-priority work
// commit together.
func (c *Coordinator) mobilizeIn(tx store.Store, em model.Emergency, teamID, mobilizedBy string, now time.Time) ([]eventbus.Event, error) {
	team, err := tx.GetTeam(teamID)
	if err != nil {
		return nil, err
	}
	if err := tx.CreateEmergencyTeam(model.EmergencyTeam{
		EmergencyID: em.ID,
		TeamID:      team.ID,
		Status:      model.EmergencyTeamAlerted,
		MobilizedAt: now,
	}); err != nil {
		return nil, err
	}
	team.Status = model.TeamEnRoute
	if err := tx.PutTeam(team); err != nil {
		return nil, err
	}
	if err := tx.AppendTimeline(model.TimelineEvent{
		EmergencyID: em.ID,
		EventType:   "mobilitazione",
		Description: fmt.Sprintf("squadra %s allertata", team.Code),
		PerformedBy: mobilizedBy,
		Timestamp:   now,
	}); err != nil {
		return nil, err
	}
	evs := []eventbus.Event{events.TeamMobilized{
		EmergencyID: em.ID, EmergencyCode: em.Code,
		TeamID: team.ID, TeamCode: team.Code, At: now,
	}}

	// Suspend the team's pending non-priority work. ALTA orders stay.
	var orders []model.WorkOrder
	for offset := 0; ; offset += store.DefaultLimit {
		page, err := tx.ListWorkOrders(store.WorkOrderFilter{TeamID: team.ID, Offset: offset})
		if err != nil {
			return nil, err
		}
		orders = append(orders, page...)
		if len(page) < store.DefaultLimit {
			break
		}
	}
	for _, o := range orders {
		if o.Status != model.StatusAssigned && o.Status != model.StatusEnRoute {
			continue
		}
		if o.Priority == model.PriorityHigh {
			continue
		}
		old := o.Status
		o.Status = model.StatusSuspended
		if o.Notes != "" {
			o.Notes += "\n"
		}
		o.Notes += fmt.Sprintf("sospeso per emergenza %s", em.Code)
		if err := tx.PutWorkOrder(o); err != nil {
			return nil, err
		}
		if err := tx.AppendHistory(model.StatusHistoryEntry{
			WorkOrderID: o.ID,
			OldStatus:   old,
			NewStatus:   model.StatusSuspended,
			ChangedBy:   mobilizedBy,
			Notes:       fmt.Sprintf("emergenza %s", em.Code),
			Timestamp:   now,
		}); err != nil {
			return nil, err
		}
		evs = append(evs, events.OrderSuspended{
			OrderID: o.ID, OrderCode: o.Code, EmergencyCode: em.Code, At: now,
		})
	}
	teamsMobilized.Inc()
	return evs, nil
}

// Deactivate resolves the emergency: every still-mobilized team is
// demobilized exactly once and restored to disponibile, and the final
// report is returned. Deactivating an already resolved emergency rebuilds
// the report without re-touching teams or the timeline.
func (c *Coordinator) Deactivate(ctx context.Context, emergencyID, deactivatedBy string) (Report, error) {
	now := c.now()
	var em model.Emergency
	alreadyResolved := false
	err := c.store.Atomically(func(tx store.Store) error {
		var err error
		em, err = tx.GetEmergency(emergencyID)
		if err != nil {
			return err
		}
		if em.Status == model.EmergencyResolved {
			alreadyResolved = true
			return nil
		}
		em.Status = model.EmergencyResolved
		em.DeactivatedAt = now
		em.DeactivatedBy = deactivatedBy
		if err := tx.PutEmergency(em); err != nil {
			return err
		}
		ets, err := tx.ListEmergencyTeams(emergencyID)
		if err != nil {
			return err
		}
		for _, et := range ets {
			if et.Status == model.EmergencyTeamDemobilized {
				continue
			}
			et.Status = model.EmergencyTeamDemobilized
			et.DemobilizedAt = now
			if err := tx.PutEmergencyTeam(et); err != nil {
				return err
			}
			team, err := tx.GetTeam(et.TeamID)
			if err != nil {
				return err
			}
			team.Status = model.TeamAvailable
			if err := tx.PutTeam(team); err != nil {
				return err
			}
		}
		return tx.AppendTimeline(model.TimelineEvent{
			EmergencyID: emergencyID,
			EventType:   "disattivazione",
			Description: fmt.Sprintf("emergenza %s risolta", em.Code),
			PerformedBy: deactivatedBy,
			Timestamp:   now,
		})
	})
	if err != nil {
		return Report{}, err
	}

	if !alreadyResolved {
		emergenciesResolved.Inc()
		if c.pauser != nil {
			if err := c.pauser.ResumeAutoAssign(); err != nil {
				c.log.Errorf("resuming auto-assignment: %v", err)
			}
		}
		c.appendAudit(ctx, emergencyID, now)
		if c.bus != nil {
			c.bus.Publish(events.EmergencyDeactivated{
				EmergencyID: em.ID, Code: em.Code, By: deactivatedBy, At: now,
			})
		}
		c.log.Infof("emergency %s resolved by %s", em.Code, deactivatedBy)
	}
	return c.buildReport(em)
}

// appendAudit copies the latest timeline entry to the durable audit trail.
func (c *Coordinator) appendAudit(ctx context.Context, emergencyID string, ts time.Time) {
	tl, err := c.store.Timeline(emergencyID)
	if err != nil || len(tl) == 0 {
		return
	}
	last := tl[len(tl)-1]
	if err := c.audit.Append(ctx, audit.Record{
		Timestamp:   ts,
		Kind:        "emergency",
		Timeline:    &last,
		PerformedBy: last.PerformedBy,
	}); err != nil {
		c.log.Errorf("audit append for emergency %s: %v", emergencyID, err)
	}
}
