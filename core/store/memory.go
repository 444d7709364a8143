package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

// MemoryStore is the embedded Store implementation. A single mutex guards
// all tables so Atomically can expose a whole logical operation as one
// critical section.
type MemoryStore struct {
	mu sync.RWMutex

	orders         map[string]model.WorkOrder
	ordersByExt    map[string]string
	teams          map[string]model.Team
	teamsByVehicle map[string]string
	emergencies    map[string]model.Emergency
	emergencyTeams map[string]map[string]model.EmergencyTeam
	history        map[string][]model.StatusHistoryEntry
	timelines      map[string][]model.TimelineEvent
	alerts         []model.Alert
	config         map[string]string
	counters       map[string]int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:         map[string]model.WorkOrder{},
		ordersByExt:    map[string]string{},
		teams:          map[string]model.Team{},
		teamsByVehicle: map[string]string{},
		emergencies:    map[string]model.Emergency{},
		emergencyTeams: map[string]map[string]model.EmergencyTeam{},
		history:        map[string][]model.StatusHistoryEntry{},
		timelines:      map[string][]model.TimelineEvent{},
		config:         map[string]string{},
		counters:       map[string]int{},
	}
}

// txView exposes the store without locking; Atomically hands it to fn while
// holding the write lock.
type txView struct{ s *MemoryStore }

// Atomically runs fn under the store's write lock.
func (s *MemoryStore) Atomically(fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(txView{s})
}

// Atomically on a view is reentrant: the lock is already held.
func (v txView) Atomically(fn func(Store) error) error { return fn(v) }

func (v txView) NextWorkOrderCode(now time.Time) (string, error) {
	key := "ODL-" + now.Format("200601")
	v.s.counters[key]++
	return fmt.Sprintf("ODL-%s-%04d", now.Format("200601"), v.s.counters[key]), nil
}

func (v txView) NextEmergencyCode(now time.Time) (string, error) {
	key := "EMG-" + now.Format("200601")
	v.s.counters[key]++
	return fmt.Sprintf("EMG-%s-%03d", now.Format("200601"), v.s.counters[key]), nil
}

func (v txView) CreateWorkOrder(o model.WorkOrder) error {
	if o.ID == "" {
		return model.ValidationError{Field: "id", Reason: "required"}
	}
	if _, ok := v.s.orders[o.ID]; ok {
		return fmt.Errorf("work order %s: %w", o.ID, ErrConflict)
	}
	if o.ExternalID != "" {
		if _, ok := v.s.ordersByExt[o.ExternalID]; ok {
			return fmt.Errorf("external id %s: %w", o.ExternalID, ErrConflict)
		}
		v.s.ordersByExt[o.ExternalID] = o.ID
	}
	v.s.orders[o.ID] = o
	return nil
}

func (v txView) GetWorkOrder(id string) (model.WorkOrder, error) {
	o, ok := v.s.orders[id]
	if !ok {
		return model.WorkOrder{}, fmt.Errorf("work order %s: %w", id, ErrNotFound)
	}
	return o, nil
}

func (v txView) FindWorkOrderByExternalID(externalID string) (model.WorkOrder, error) {
	id, ok := v.s.ordersByExt[externalID]
	if !ok {
		return model.WorkOrder{}, fmt.Errorf("external id %s: %w", externalID, ErrNotFound)
	}
	return v.s.orders[id], nil
}

func (v txView) PutWorkOrder(o model.WorkOrder) error {
	if _, ok := v.s.orders[o.ID]; !ok {
		return fmt.Errorf("work order %s: %w", o.ID, ErrNotFound)
	}
	v.s.orders[o.ID] = o
	return nil
}

func (v txView) ListWorkOrders(f WorkOrderFilter) ([]model.WorkOrder, error) {
	var out []model.WorkOrder
	for _, o := range v.s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Priority != "" && o.Priority != f.Priority {
			continue
		}
		if f.TeamID != "" && o.AssignedTeamID != f.TeamID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v txView) CountActiveOrders(teamID string) (int, error) {
	n := 0
	for _, o := range v.s.orders {
		if o.AssignedTeamID == teamID && o.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (v txView) CreateTeam(t model.Team) error {
	if t.ID == "" {
		return model.ValidationError{Field: "id", Reason: "required"}
	}
	if _, ok := v.s.teams[t.ID]; ok {
		return fmt.Errorf("team %s: %w", t.ID, ErrConflict)
	}
	v.s.teams[t.ID] = t
	if t.VehicleID != "" {
		v.s.teamsByVehicle[t.VehicleID] = t.ID
	}
	return nil
}

func (v txView) GetTeam(id string) (model.Team, error) {
	t, ok := v.s.teams[id]
	if !ok {
		return model.Team{}, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (v txView) FindTeamByVehicle(vehicleID string) (model.Team, error) {
	id, ok := v.s.teamsByVehicle[vehicleID]
	if !ok {
		return model.Team{}, fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	return v.s.teams[id], nil
}

func (v txView) PutTeam(t model.Team) error {
	if _, ok := v.s.teams[t.ID]; !ok {
		return fmt.Errorf("team %s: %w", t.ID, ErrNotFound)
	}
	v.s.teams[t.ID] = t
	if t.VehicleID != "" {
		v.s.teamsByVehicle[t.VehicleID] = t.ID
	}
	return nil
}

func (v txView) ListTeams(f TeamFilter) ([]model.Team, error) {
	var out []model.Team
	for _, t := range v.s.teams {
		if f.ActiveOnly && !t.IsActive {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, st := range f.Statuses {
				if t.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (v txView) CreateEmergency(e model.Emergency) error {
	if e.ID == "" {
		return model.ValidationError{Field: "id", Reason: "required"}
	}
	if _, ok := v.s.emergencies[e.ID]; ok {
		return fmt.Errorf("emergency %s: %w", e.ID, ErrConflict)
	}
	v.s.emergencies[e.ID] = e
	return nil
}

func (v txView) GetEmergency(id string) (model.Emergency, error) {
	e, ok := v.s.emergencies[id]
	if !ok {
		return model.Emergency{}, fmt.Errorf("emergency %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (v txView) PutEmergency(e model.Emergency) error {
	if _, ok := v.s.emergencies[e.ID]; !ok {
		return fmt.Errorf("emergency %s: %w", e.ID, ErrNotFound)
	}
	v.s.emergencies[e.ID] = e
	return nil
}

func (v txView) CreateEmergencyTeam(et model.EmergencyTeam) error {
	m := v.s.emergencyTeams[et.EmergencyID]
	if m == nil {
		m = map[string]model.EmergencyTeam{}
		v.s.emergencyTeams[et.EmergencyID] = m
	}
	if _, ok := m[et.TeamID]; ok {
		return fmt.Errorf("emergency team %s/%s: %w", et.EmergencyID, et.TeamID, ErrConflict)
	}
	m[et.TeamID] = et
	return nil
}

func (v txView) PutEmergencyTeam(et model.EmergencyTeam) error {
	m := v.s.emergencyTeams[et.EmergencyID]
	if m == nil {
		return fmt.Errorf("emergency team %s/%s: %w", et.EmergencyID, et.TeamID, ErrNotFound)
	}
	if _, ok := m[et.TeamID]; !ok {
		return fmt.Errorf("emergency team %s/%s: %w", et.EmergencyID, et.TeamID, ErrNotFound)
	}
	m[et.TeamID] = et
	return nil
}

func (v txView) ListEmergencyTeams(emergencyID string) ([]model.EmergencyTeam, error) {
	var out []model.EmergencyTeam
	for _, et := range v.s.emergencyTeams[emergencyID] {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (v txView) ActiveEmergencyTeam(teamID string) (bool, error) {
	for emID, m := range v.s.emergencyTeams {
		et, ok := m[teamID]
		if !ok || !et.Status.Mobilized() {
			continue
		}
		if e, ok := v.s.emergencies[emID]; ok && e.Status != model.EmergencyResolved {
			return true, nil
		}
	}
	return false, nil
}

func (v txView) AppendHistory(e model.StatusHistoryEntry) error {
	v.s.history[e.WorkOrderID] = append(v.s.history[e.WorkOrderID], e)
	return nil
}

func (v txView) HistoryForOrder(orderID string) ([]model.StatusHistoryEntry, error) {
	return append([]model.StatusHistoryEntry(nil), v.s.history[orderID]...), nil
}

func (v txView) AppendTimeline(ev model.TimelineEvent) error {
	v.s.timelines[ev.EmergencyID] = append(v.s.timelines[ev.EmergencyID], ev)
	return nil
}

func (v txView) Timeline(emergencyID string) ([]model.TimelineEvent, error) {
	return append([]model.TimelineEvent(nil), v.s.timelines[emergencyID]...), nil
}

func (v txView) CreateAlert(a model.Alert) error {
	if a.ID == "" {
		return model.ValidationError{Field: "id", Reason: "required"}
	}
	v.s.alerts = append(v.s.alerts, a)
	return nil
}

func (v txView) HasOpenAlert(vehicleID string, t model.AlertType, since time.Time) (bool, error) {
	for _, a := range v.s.alerts {
		if a.VehicleID == vehicleID && a.Type == t && !a.Resolved && !a.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (v txView) ListAlerts(vehicleID string) ([]model.Alert, error) {
	var out []model.Alert
	for _, a := range v.s.alerts {
		if a.VehicleID == vehicleID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (v txView) ResolveAlert(id string) error {
	for i := range v.s.alerts {
		if v.s.alerts[i].ID == id {
			v.s.alerts[i].Resolved = true
			return nil
		}
	}
	return fmt.Errorf("alert %s: %w", id, ErrNotFound)
}

func (v txView) GetConfig(key string) (string, bool) {
	val, ok := v.s.config[key]
	return val, ok
}

func (v txView) SetConfig(key, value string) error {
	v.s.config[key] = value
	return nil
}
