package geocall

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrew/dispatch/core/logger"
	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
)

// AutoAssigner schedules the delayed automatic assignment of urgent orders.
type AutoAssigner interface {
	ScheduleAutoAssign(orderID string)
}

// Importer polls the external system for new work orders and creates the
// matching local records. Imports are idempotent on the external id.
type Importer struct {
	store     store.Store
	connector Connector
	assigner  AutoAssigner
	log       logger.Logger
	now       func() time.Time
}

// NewImporter builds an Importer. assigner may be nil when automatic
// assignment is disabled.
func NewImporter(st store.Store, conn Connector, assigner AutoAssigner, log logger.Logger) *Importer {
	return &Importer{store: st, connector: conn, assigner: assigner, log: log, now: time.Now}
}

// SetClock overrides the time source. Tests only.
func (i *Importer) SetClock(now func() time.Time) { i.now = now }

// Poll fetches pending orders from the external system and imports each one.
// Fetch failures are logged and swallowed so the polling schedule keeps going.
func (i *Importer) Poll(ctx context.Context) {
	orders, err := i.connector.FetchNewOrders(ctx)
	if err != nil {
		i.log.Warnf("fetch new orders failed: %v", err)
		return
	}
	for _, ext := range orders {
		if _, err := i.Import(ctx, ext); err != nil {
			i.log.Errorf("import order %s: %v", ext.ExternalID, err)
		}
	}
}

// Import creates the local work order for an external one and returns its
// local id. When the external id is already known the existing id is returned
// and nothing else happens, in particular no second auto-assignment trigger.
func (i *Importer) Import(ctx context.Context, ext ExternalOrder) (string, error) {
	if ext.ExternalID == "" {
		return "", model.ValidationError{Field: "external_id", Reason: "required"}
	}
	if existing, err := i.store.FindWorkOrderByExternalID(ext.ExternalID); err == nil {
		return existing.ID, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	received := ext.ReceivedAt
	if received.IsZero() {
		received = i.now()
	}
	order := model.WorkOrder{
		ID:                  uuid.NewString(),
		ExternalID:          ext.ExternalID,
		Priority:            ext.Priority,
		Type:                ext.Type,
		Status:              model.StatusReceived,
		Location:            model.Point{Lon: ext.Lon, Lat: ext.Lat},
		RequiredCompetences: ext.Competences,
		RequiredMaterials:   ext.Materials,
		ReceivedAt:          received,
		Notes:               ext.Notes,
	}

	err := i.store.Atomically(func(tx store.Store) error {
		// Recheck under the lock so concurrent polls cannot double-insert.
		if _, err := tx.FindWorkOrderByExternalID(ext.ExternalID); err == nil {
			return store.ErrConflict
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		code, err := tx.NextWorkOrderCode(received)
		if err != nil {
			return err
		}
		order.Code = code
		if err := order.Validate(); err != nil {
			return err
		}
		return tx.CreateWorkOrder(order)
	})
	if errors.Is(err, store.ErrConflict) {
		if existing, ferr := i.store.FindWorkOrderByExternalID(ext.ExternalID); ferr == nil {
			return existing.ID, nil
		}
		return "", err
	}
	if err != nil {
		return "", err
	}

	i.log.Infof("imported order %s (%s, priority %s)", order.Code, order.ExternalID, order.Priority)
	if order.Priority == model.PriorityHigh && i.assigner != nil {
		i.assigner.ScheduleAutoAssign(order.ID)
	}
	return order.ID, nil
}
