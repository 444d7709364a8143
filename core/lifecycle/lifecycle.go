// Package lifecycle drives the work order status state machine, its audit
// trail and its side effects on team state.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldcrew/dispatch/core/audit"
	"github.com/fieldcrew/dispatch/core/events"
	"github.com/fieldcrew/dispatch/core/logger"
	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

// StatusNotifier forwards lifecycle changes to the external dispatch system.
// Failures are logged and swallowed; dispatch correctness never depends on
// the external system's availability.
type StatusNotifier interface {
	SendStatusUpdate(ctx context.Context, externalID string, status model.WorkOrderStatus) error
	SendCompletionReport(ctx context.Context, externalID string) error
}

// Lifecycle validates and applies work order transitions.
type Lifecycle struct {
	store    store.Store
	audit    audit.Store
	bus      eventbus.EventBus
	notifier StatusNotifier
	log      logger.Logger
	now      func() time.Time
}

// New creates a Lifecycle. audit, bus and notifier may be nil.
func New(st store.Store, aud audit.Store, bus eventbus.EventBus, notifier StatusNotifier, log logger.Logger) *Lifecycle {
	if aud == nil {
		aud = audit.NopStore{}
	}
	return &Lifecycle{store: st, audit: aud, bus: bus, notifier: notifier, log: log, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (l *Lifecycle) SetClock(now func() time.Time) { l.now = now }

// teamStatusFor maps an order transition to the side effect on the assigned
// team, if any.
func teamStatusFor(s model.WorkOrderStatus) (model.TeamStatus, bool) {
	switch s {
	case model.StatusEnRoute:
		return model.TeamEnRoute, true
	case model.StatusInProgress:
		return model.TeamWorking, true
	case model.StatusCompleted:
		return model.TeamAvailable, true
	default:
		return "", false
	}
}

// UpdateStatus moves the order to newStatus, stamps the mapped timestamp
// field, appends a history entry and applies the team side effect, all as a
// single atomic unit. Illegal transitions fail with a validation error.
func (l *Lifecycle) UpdateStatus(ctx context.Context, orderID string, newStatus model.WorkOrderStatus, userID, notes string) error {
	now := l.now()
	var entry model.StatusHistoryEntry
	var changed events.StatusChanged
	err := l.store.Atomically(func(tx store.Store) error {
		o, err := tx.GetWorkOrder(orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(newStatus) {
			return model.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("transition %s -> %s not allowed", o.Status, newStatus),
			}
		}
		old := o.Status
		o.Status = newStatus
		if ts := newStatus.TimestampField(&o); ts != nil {
			*ts = now
		}
		if err := tx.PutWorkOrder(o); err != nil {
			return err
		}
		entry = model.StatusHistoryEntry{
			WorkOrderID: orderID,
			OldStatus:   old,
			NewStatus:   newStatus,
			ChangedBy:   userID,
			Notes:       notes,
			Timestamp:   now,
		}
		if err := tx.AppendHistory(entry); err != nil {
			return err
		}
		changed = events.StatusChanged{
			OrderID:   o.ID,
			OrderCode: o.Code,
			TeamID:    o.AssignedTeamID,
			Old:       old,
			New:       newStatus,
			By:        userID,
			At:        now,
		}
		if ts, ok := teamStatusFor(newStatus); ok && o.AssignedTeamID != "" {
			team, err := tx.GetTeam(o.AssignedTeamID)
			if err != nil {
				return err
			}
			team.Status = ts
			changed.TeamCode = team.Code
			if err := tx.PutTeam(team); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	transitionsTotal.WithLabelValues(string(newStatus)).Inc()
	if err := l.audit.Append(ctx, audit.Record{Timestamp: now, Kind: "transition", History: &entry, PerformedBy: userID}); err != nil {
		l.log.Errorf("audit append for order %s: %v", orderID, err)
	}
	if l.bus != nil {
		l.bus.Publish(changed)
	}
	l.notifyExternal(ctx, orderID, newStatus)
	return nil
}

// notifyExternal pushes the change to the dispatch system, best effort.
func (l *Lifecycle) notifyExternal(ctx context.Context, orderID string, newStatus model.WorkOrderStatus) {
	if l.notifier == nil {
		return
	}
	o, err := l.store.GetWorkOrder(orderID)
	if err != nil || o.ExternalID == "" {
		return
	}
	if err := l.notifier.SendStatusUpdate(ctx, o.ExternalID, newStatus); err != nil {
		l.log.Warnf("status update for %s not delivered: %v", o.Code, err)
	}
	if newStatus == model.StatusCompleted {
		if err := l.notifier.SendCompletionReport(ctx, o.ExternalID); err != nil {
			l.log.Warnf("completion report for %s not delivered: %v", o.Code, err)
		}
	}
}

// History returns the audit trail of an order from the repository.
func (l *Lifecycle) History(orderID string) ([]model.StatusHistoryEntry, error) {
	if _, err := l.store.GetWorkOrder(orderID); err != nil {
		return nil, err
	}
	return l.store.HistoryForOrder(orderID)
}
