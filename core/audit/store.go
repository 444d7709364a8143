// Package audit persists the append-only trail of status transitions and
// emergency timeline events to durable storage, next to the in-process
// repository. The trail outlives a restart and feeds compliance exports.
package audit

import (
	"context"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// Record captures one audited event: either a work order transition or an
// emergency timeline entry.
type Record struct {
	Timestamp   time.Time                 `json:"timestamp"`
	Kind        string                    `json:"kind"` // "transition" or "emergency"
	History     *model.StatusHistoryEntry `json:"history,omitempty"`
	Timeline    *model.TimelineEvent      `json:"timeline,omitempty"`
	PerformedBy string                    `json:"performed_by,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start       time.Time
	End         time.Time
	WorkOrderID string
	EmergencyID string
	Kind        string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Matches reports whether the record passes the query filters.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.WorkOrderID != "" && (r.History == nil || r.History.WorkOrderID != q.WorkOrderID) {
		return false
	}
	if q.EmergencyID != "" && (r.Timeline == nil || r.Timeline.EmergencyID != q.EmergencyID) {
		return false
	}
	return true
}
