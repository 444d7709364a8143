package geocall

import (
	"context"
	"errors"
	"sync"

	"github.com/fieldcrew/dispatch/core/model"
)

var errUnavailable = errors.New("external system unavailable")

// MockConnector is an in-memory Connector for tests and local runs.
type MockConnector struct {
	mu      sync.Mutex
	pending []ExternalOrder
	// Statuses records the updates pushed per external id.
	Statuses map[string][]model.WorkOrderStatus
	Reports  map[string]int
	FailAll  bool
}

// NewMockConnector creates an empty MockConnector.
func NewMockConnector() *MockConnector {
	return &MockConnector{
		Statuses: map[string][]model.WorkOrderStatus{},
		Reports:  map[string]int{},
	}
}

// Queue adds orders to be returned by the next FetchNewOrders.
func (m *MockConnector) Queue(orders ...ExternalOrder) {
	m.mu.Lock()
	m.pending = append(m.pending, orders...)
	m.mu.Unlock()
}

// FetchNewOrders drains the queue.
func (m *MockConnector) FetchNewOrders(context.Context) ([]ExternalOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, &SyncError{Op: "fetch", Err: errUnavailable}
	}
	out := m.pending
	m.pending = nil
	return out, nil
}

// SendStatusUpdate records the update.
func (m *MockConnector) SendStatusUpdate(_ context.Context, externalID string, status model.WorkOrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return &SyncError{Op: "status update", Err: errUnavailable}
	}
	m.Statuses[externalID] = append(m.Statuses[externalID], status)
	return nil
}

// SendCompletionReport records the report.
func (m *MockConnector) SendCompletionReport(_ context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return &SyncError{Op: "completion report", Err: errUnavailable}
	}
	m.Reports[externalID]++
	return nil
}
