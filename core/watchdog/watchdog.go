// Package watchdog runs the periodic sweeps that flag stalled orders and
// lapsed team certifications.
package watchdog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldcrew/dispatch/core/events"
	"github.com/fieldcrew/dispatch/core/logger"
	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

// Config sets the response limit per priority, in minutes. An order still
// waiting for assignment past its limit is flagged as overdue.
type Config struct {
	HighMinutes   int `json:"high_minutes"`
	MediumMinutes int `json:"medium_minutes"`
	LowMinutes    int `json:"low_minutes"`
	// SweepIntervalSeconds drives the periodic schedule.
	SweepIntervalSeconds int `json:"sweep_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.HighMinutes <= 0 {
		c.HighMinutes = 30
	}
	if c.MediumMinutes <= 0 {
		c.MediumMinutes = 120
	}
	if c.LowMinutes <= 0 {
		c.LowMinutes = 480
	}
	if c.SweepIntervalSeconds <= 0 {
		c.SweepIntervalSeconds = 60
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.HighMinutes > c.MediumMinutes || c.MediumMinutes > c.LowMinutes {
		return fmt.Errorf("watchdog: limits must not decrease with priority")
	}
	return nil
}

func (c Config) limitFor(p model.Priority) time.Duration {
	switch p {
	case model.PriorityHigh:
		return time.Duration(c.HighMinutes) * time.Minute
	case model.PriorityMedium:
		return time.Duration(c.MediumMinutes) * time.Minute
	default:
		return time.Duration(c.LowMinutes) * time.Minute
	}
}

// Watchdog flags orders waiting past the response limit of their priority
// and teams whose certifications have lapsed.
type Watchdog struct {
	cfg   Config
	store store.Store
	bus   eventbus.EventBus
	log   logger.Logger
	now   func() time.Time

	mu      sync.Mutex
	flagged map[string]struct{}
}

// New builds a Watchdog.
func New(cfg Config, st store.Store, bus eventbus.EventBus, log logger.Logger) *Watchdog {
	cfg.SetDefaults()
	return &Watchdog{
		cfg:     cfg,
		store:   st,
		bus:     bus,
		log:     log,
		now:     time.Now,
		flagged: make(map[string]struct{}),
	}
}

// SetClock overrides the time source. Tests only.
func (w *Watchdog) SetClock(now func() time.Time) { w.now = now }

// SweepOverdue flags every order still in ricevuto past its response limit.
// Each order is flagged once; the flag clears when the order leaves ricevuto
// so a resumed suspension can be flagged again.
func (w *Watchdog) SweepOverdue(ctx context.Context) error {
	var orders []model.WorkOrder
	for offset := 0; ; offset += store.DefaultLimit {
		page, err := w.store.ListWorkOrders(store.WorkOrderFilter{Status: model.StatusReceived, Offset: offset})
		if err != nil {
			return err
		}
		orders = append(orders, page...)
		if len(page) < store.DefaultLimit {
			break
		}
	}
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()
	pending := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		pending[o.ID] = struct{}{}
		waiting := now.Sub(o.ReceivedAt)
		if waiting <= w.cfg.limitFor(o.Priority) {
			continue
		}
		if _, done := w.flagged[o.ID]; done {
			continue
		}
		w.flagged[o.ID] = struct{}{}
		overdueTotal.WithLabelValues(string(o.Priority)).Inc()
		w.log.Warnf("order %s (%s) waiting %s, past response limit", o.Code, o.Priority, waiting.Round(time.Minute))
		if w.bus != nil {
			w.bus.Publish(events.OrderOverdue{
				OrderID:   o.ID,
				OrderCode: o.Code,
				Priority:  o.Priority,
				Waiting:   waiting,
				At:        now,
			})
		}
	}
	for id := range w.flagged {
		if _, ok := pending[id]; !ok {
			delete(w.flagged, id)
		}
	}
	return nil
}

// SweepCompetences logs every active team holding a certification that has
// lapsed as of today.
func (w *Watchdog) SweepCompetences(ctx context.Context) error {
	teams, err := w.store.ListTeams(store.TeamFilter{ActiveOnly: true})
	if err != nil {
		return err
	}
	today := w.now()
	for _, t := range teams {
		for _, c := range t.Competences {
			if !c.ValidOn(today) {
				lapsedTotal.WithLabelValues(string(c.Type)).Inc()
				w.log.Warnf("team %s: competence %s expired on %s", t.Code, c.Type, c.Expiry.Format("2006-01-02"))
			}
		}
	}
	return nil
}
