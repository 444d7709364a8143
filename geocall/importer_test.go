package geocall

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/infra/logger"
)

type recordingAssigner struct {
	scheduled []string
}

func (r *recordingAssigner) ScheduleAutoAssign(orderID string) {
	r.scheduled = append(r.scheduled, orderID)
}

func extOrder(extID string, prio model.Priority) ExternalOrder {
	return ExternalOrder{
		ExternalID: extID,
		Priority:   prio,
		Type:       model.InterventionLeak,
		Lon:        9.19,
		Lat:        45.46,
		ReceivedAt: time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestImportCreatesOrder(t *testing.T) {
	st := store.NewMemoryStore()
	asg := &recordingAssigner{}
	imp := NewImporter(st, NewMockConnector(), asg, logger.NopLogger{})

	id, err := imp.Import(context.Background(), extOrder("GC-100", model.PriorityMedium))
	require.NoError(t, err)

	o, err := st.GetWorkOrder(id)
	require.NoError(t, err)
	assert.Equal(t, "GC-100", o.ExternalID)
	assert.Equal(t, model.StatusReceived, o.Status)
	assert.Equal(t, "ODL-202608-0001", o.Code)
	assert.Empty(t, asg.scheduled, "auto-assign must not trigger for MEDIA")
}

func TestImportHighPrioritySchedulesAutoAssign(t *testing.T) {
	st := store.NewMemoryStore()
	asg := &recordingAssigner{}
	imp := NewImporter(st, NewMockConnector(), asg, logger.NopLogger{})

	id, err := imp.Import(context.Background(), extOrder("GC-200", model.PriorityHigh))
	require.NoError(t, err)
	require.Equal(t, []string{id}, asg.scheduled)
}

func TestImportIsIdempotentOnExternalID(t *testing.T) {
	st := store.NewMemoryStore()
	asg := &recordingAssigner{}
	imp := NewImporter(st, NewMockConnector(), asg, logger.NopLogger{})

	first, err := imp.Import(context.Background(), extOrder("GC-300", model.PriorityHigh))
	require.NoError(t, err)
	second, err := imp.Import(context.Background(), extOrder("GC-300", model.PriorityHigh))
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-import must return the existing local id")
	assert.Len(t, asg.scheduled, 1, "re-import must not trigger a second auto-assign")

	orders, err := st.ListWorkOrders(store.WorkOrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestImportRejectsMissingExternalID(t *testing.T) {
	st := store.NewMemoryStore()
	imp := NewImporter(st, NewMockConnector(), nil, logger.NopLogger{})

	_, err := imp.Import(context.Background(), ExternalOrder{Priority: model.PriorityLow})
	var verr model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "external_id", verr.Field)
}

func TestPollImportsQueuedOrders(t *testing.T) {
	st := store.NewMemoryStore()
	conn := NewMockConnector()
	conn.Queue(extOrder("GC-400", model.PriorityLow), extOrder("GC-401", model.PriorityMedium))
	imp := NewImporter(st, conn, nil, logger.NopLogger{})

	imp.Poll(context.Background())

	orders, err := st.ListWorkOrders(store.WorkOrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	// The queue drains, so a second poll imports nothing new.
	imp.Poll(context.Background())
	orders, err = st.ListWorkOrders(store.WorkOrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestPollSurvivesFetchFailure(t *testing.T) {
	st := store.NewMemoryStore()
	conn := NewMockConnector()
	conn.FailAll = true
	imp := NewImporter(st, conn, nil, logger.NopLogger{})

	imp.Poll(context.Background())

	orders, err := st.ListWorkOrders(store.WorkOrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}
