package store

import (
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// Single-call facade: each method takes the store lock on its own. Grouped
// operations go through Atomically instead.

func (s *MemoryStore) NextWorkOrderCode(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.NextWorkOrderCode(now)
}

func (s *MemoryStore) NextEmergencyCode(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.NextEmergencyCode(now)
}

func (s *MemoryStore) CreateWorkOrder(o model.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.CreateWorkOrder(o)
}

func (s *MemoryStore) GetWorkOrder(id string) (model.WorkOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.GetWorkOrder(id)
}

func (s *MemoryStore) FindWorkOrderByExternalID(externalID string) (model.WorkOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.FindWorkOrderByExternalID(externalID)
}

func (s *MemoryStore) PutWorkOrder(o model.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.PutWorkOrder(o)
}

func (s *MemoryStore) ListWorkOrders(f WorkOrderFilter) ([]model.WorkOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.ListWorkOrders(f)
}

func (s *MemoryStore) CountActiveOrders(teamID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.CountActiveOrders(teamID)
}

func (s *MemoryStore) CreateTeam(t model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.CreateTeam(t)
}

func (s *MemoryStore) GetTeam(id string) (model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.GetTeam(id)
}

func (s *MemoryStore) FindTeamByVehicle(vehicleID string) (model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.FindTeamByVehicle(vehicleID)
}

func (s *MemoryStore) PutTeam(t model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.PutTeam(t)
}

func (s *MemoryStore) ListTeams(f TeamFilter) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.ListTeams(f)
}

func (s *MemoryStore) CreateEmergency(e model.Emergency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.CreateEmergency(e)
}

func (s *MemoryStore) GetEmergency(id string) (model.Emergency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.GetEmergency(id)
}

func (s *MemoryStore) PutEmergency(e model.Emergency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.PutEmergency(e)
}

func (s *MemoryStore) CreateEmergencyTeam(et model.EmergencyTeam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.CreateEmergencyTeam(et)
}

func (s *MemoryStore) PutEmergencyTeam(et model.EmergencyTeam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.PutEmergencyTeam(et)
}

func (s *MemoryStore) ListEmergencyTeams(emergencyID string) ([]model.EmergencyTeam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.ListEmergencyTeams(emergencyID)
}

func (s *MemoryStore) ActiveEmergencyTeam(teamID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.ActiveEmergencyTeam(teamID)
}

func (s *MemoryStore) AppendHistory(e model.StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.AppendHistory(e)
}

func (s *MemoryStore) HistoryForOrder(orderID string) ([]model.StatusHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.HistoryForOrder(orderID)
}

func (s *MemoryStore) AppendTimeline(ev model.TimelineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.AppendTimeline(ev)
}

func (s *MemoryStore) Timeline(emergencyID string) ([]model.TimelineEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.Timeline(emergencyID)
}

func (s *MemoryStore) CreateAlert(a model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.CreateAlert(a)
}

func (s *MemoryStore) HasOpenAlert(vehicleID string, t model.AlertType, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.HasOpenAlert(vehicleID, t, since)
}

func (s *MemoryStore) ListAlerts(vehicleID string) ([]model.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.ListAlerts(vehicleID)
}

func (s *MemoryStore) ResolveAlert(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.ResolveAlert(id)
}

func (s *MemoryStore) GetConfig(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return txView{s}.GetConfig(key)
}

func (s *MemoryStore) SetConfig(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txView{s}.SetConfig(key, value)
}
