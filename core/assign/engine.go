// Package assign ranks candidate teams for a work order and records
// assignments.
package assign

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fieldcrew/dispatch/core/audit"
	"github.com/fieldcrew/dispatch/core/events"
	"github.com/fieldcrew/dispatch/core/logger"
	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/score"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

// ErrNoCandidates is returned when no eligible team exists for an order.
// It is a business condition, not a system fault.
var ErrNoCandidates = errors.New("no teams available")

// Repository config keys consulted at runtime.
const (
	KeyAutoAssignEnabled = "auto_assign.enabled"
	KeyAutoAssignPaused  = "auto_assign.paused"
)

// ExternalNotifier forwards assignments to the external dispatch system.
type ExternalNotifier interface {
	SendStatusUpdate(ctx context.Context, externalID string, status model.WorkOrderStatus) error
}

// Candidate is one scored team for one work order.
type Candidate struct {
	Team         model.Team      `json:"team"`
	Breakdown    score.Breakdown `json:"breakdown"`
	Score        float64         `json:"score"`
	ActiveOrders int             `json:"active_orders"`
	// ETAMinutes is a nominal figure (fixed trip at average urban speed),
	// not a routing estimate.
	ETAMinutes float64 `json:"eta_minutes"`
}

// Engine orchestrates scoring and assignment.
type Engine struct {
	cfg      Config
	store    store.Store
	audit    audit.Store
	bus      eventbus.EventBus
	notifier ExternalNotifier
	log      logger.Logger
	now      func() time.Time
	delayed  *delayedTasks
}

// NewEngine creates an Engine. audit, bus and notifier may be nil.
func NewEngine(cfg Config, st store.Store, aud audit.Store, bus eventbus.EventBus, notifier ExternalNotifier, log logger.Logger) *Engine {
	cfg.SetDefaults()
	if aud == nil {
		aud = audit.NopStore{}
	}
	e := &Engine{cfg: cfg, store: st, audit: aud, bus: bus, notifier: notifier, log: log, now: time.Now}
	e.delayed = newDelayedTasks()
	return e
}

// SetClock overrides the time source, for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Close cancels all pending delayed auto-assignments.
func (e *Engine) Close() { e.delayed.cancelAll() }

func (e *Engine) etaMinutes() float64 {
	return e.cfg.NominalTripKm / e.cfg.AvgSpeedKmh * 60
}

// RankCandidates scores every eligible team for the order and returns them
// sorted by descending score; ties break on ascending team code so the
// ranking is deterministic.
func (e *Engine) RankCandidates(ctx context.Context, orderID string) ([]Candidate, error) {
	o, err := e.store.GetWorkOrder(orderID)
	if err != nil {
		return nil, err
	}
	teams, err := e.store.ListTeams(store.TeamFilter{
		ActiveOnly: true,
		Statuses:   []model.TeamStatus{model.TeamAvailable, model.TeamEnRoute, model.TeamWorking},
	})
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		noCandidatesTotal.Inc()
		return nil, fmt.Errorf("order %s: %w", o.Code, ErrNoCandidates)
	}
	now := e.now()
	eta := e.etaMinutes()
	out := make([]Candidate, 0, len(teams))
	for _, t := range teams {
		active, err := e.store.CountActiveOrders(t.ID)
		if err != nil {
			return nil, err
		}
		b, agg := score.Evaluate(o, t, active, e.cfg.Weights, now)
		out = append(out, Candidate{Team: t, Breakdown: b, Score: agg, ActiveOrders: active, ETAMinutes: eta})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Team.Code < out[j].Team.Code
	})
	return out, nil
}

// Assign records the given team on the order. The score is looked up from a
// fresh ranking; a team missing from the ranking scores 0 rather than
// failing. Racing assignments on one order are serialized: the loser gets
// store.ErrConflict.
func (e *Engine) Assign(ctx context.Context, orderID, teamID, assignedBy string, mode model.AssignmentMode) error {
	if teamID == "" {
		return model.ValidationError{Field: "team_id", Reason: "required"}
	}
	candidates, err := e.RankCandidates(ctx, orderID)
	if err != nil && !errors.Is(err, ErrNoCandidates) {
		return err
	}
	teamScore := 0.0
	for _, c := range candidates {
		if c.Team.ID == teamID {
			teamScore = c.Score
			break
		}
	}

	now := e.now()
	var assigned events.OrderAssigned
	var entry model.StatusHistoryEntry
	err = e.store.Atomically(func(tx store.Store) error {
		o, err := tx.GetWorkOrder(orderID)
		if err != nil {
			return err
		}
		if o.Status != model.StatusReceived && o.Status != model.StatusSuspended {
			return fmt.Errorf("order %s already %s: %w", o.Code, o.Status, store.ErrConflict)
		}
		team, err := tx.GetTeam(teamID)
		if err != nil {
			return err
		}
		old := o.Status
		o.Status = model.StatusAssigned
		o.AssignedTeamID = team.ID
		o.AssignedBy = assignedBy
		o.AssignedAt = now
		o.AssignmentMode = mode
		o.AssignmentScore = teamScore
		if err := tx.PutWorkOrder(o); err != nil {
			return err
		}
		entry = model.StatusHistoryEntry{
			WorkOrderID: o.ID,
			OldStatus:   old,
			NewStatus:   model.StatusAssigned,
			ChangedBy:   assignedBy,
			Timestamp:   now,
		}
		if err := tx.AppendHistory(entry); err != nil {
			return err
		}
		assigned = events.OrderAssigned{
			OrderID: o.ID, OrderCode: o.Code,
			TeamID: team.ID, TeamCode: team.Code,
			Mode: mode, Score: teamScore, ETAMinutes: e.etaMinutes(),
			By: assignedBy, At: now,
		}
		return nil
	})
	if err != nil {
		return err
	}

	// An assignment supersedes any pending delayed auto-assignment.
	e.delayed.cancel(orderID)

	assignmentsTotal.WithLabelValues(string(mode)).Inc()
	assignmentScore.Observe(teamScore)
	if err := e.audit.Append(ctx, audit.Record{Timestamp: now, Kind: "transition", History: &entry, PerformedBy: assignedBy}); err != nil {
		e.log.Errorf("audit append for order %s: %v", orderID, err)
	}
	if e.bus != nil {
		e.bus.Publish(assigned)
	}
	if e.notifier != nil {
		o, err := e.store.GetWorkOrder(orderID)
		if err == nil && o.ExternalID != "" {
			if err := e.notifier.SendStatusUpdate(ctx, o.ExternalID, model.StatusAssigned); err != nil {
				e.log.Warnf("assignment update for %s not delivered: %v", o.Code, err)
			}
		}
	}
	return nil
}

// autoAssignEnabled resolves the runtime flag, falling back to the
// configured default.
func (e *Engine) autoAssignEnabled() bool {
	if v, ok := e.store.GetConfig(KeyAutoAssignEnabled); ok {
		return v == "true"
	}
	return e.cfg.AutoAssignEnabled
}

func (e *Engine) autoAssignPaused() bool {
	v, ok := e.store.GetConfig(KeyAutoAssignPaused)
	return ok && v == "true"
}

// AutoAssignHighPriority assigns the top-ranked team to an ALTA order with
// no human actor. It reports whether an assignment happened; a disabled
// flag, a paused engine on a non-ALTA order or an order that already moved
// on are quiet no-ops.
func (e *Engine) AutoAssignHighPriority(ctx context.Context, orderID string) (bool, error) {
	if !e.autoAssignEnabled() {
		return false, nil
	}
	o, err := e.store.GetWorkOrder(orderID)
	if err != nil {
		return false, err
	}
	if o.Status != model.StatusReceived {
		return false, nil
	}
	if e.autoAssignPaused() && o.Priority != model.PriorityHigh {
		return false, nil
	}
	candidates, err := e.RankCandidates(ctx, orderID)
	if err != nil {
		return false, err
	}
	best := candidates[0]
	if err := e.Assign(ctx, orderID, best.Team.ID, "", model.AssignAuto); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Someone assigned it first; nothing to do.
			return false, nil
		}
		return false, err
	}
	e.log.Infof("auto-assigned order %s to team %s (score %.1f)", orderID, best.Team.Code, best.Score)
	return true, nil
}

// PauseAutoAssign suspends non-priority auto-assignment process-wide. The
// emergency coordinator calls this on activation.
func (e *Engine) PauseAutoAssign() error {
	return e.store.SetConfig(KeyAutoAssignPaused, "true")
}

// ResumeAutoAssign lifts the pause.
func (e *Engine) ResumeAutoAssign() error {
	return e.store.SetConfig(KeyAutoAssignPaused, "false")
}
