package assign

import (
	"context"
	"sync"
	"time"
)

// delayedTasks tracks the cancellable timers behind delayed auto-assignment,
// keyed by order id.
type delayedTasks struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDelayedTasks() *delayedTasks {
	return &delayedTasks{timers: map[string]*time.Timer{}}
}

func (d *delayedTasks) schedule(orderID string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[orderID]; ok {
		t.Stop()
	}
	d.timers[orderID] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, orderID)
		d.mu.Unlock()
		fn()
	})
}

func (d *delayedTasks) cancel(orderID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[orderID]; ok {
		t.Stop()
		delete(d.timers, orderID)
	}
}

func (d *delayedTasks) cancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}

// ScheduleAutoAssign queues auto-assignment of the order after the
// configured delay. The task re-validates the order's state when it fires,
// since the order may have been assigned or suspended in the meantime.
func (e *Engine) ScheduleAutoAssign(orderID string) {
	delay := time.Duration(e.cfg.AutoAssignDelaySeconds) * time.Second
	e.delayed.schedule(orderID, delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := e.AutoAssignHighPriority(ctx, orderID); err != nil {
			e.log.Errorf("delayed auto-assign of %s: %v", orderID, err)
		}
	})
}

// CancelAutoAssign drops a pending delayed auto-assignment, e.g. when the
// order was reassigned or suspended before the delay elapsed.
func (e *Engine) CancelAutoAssign(orderID string) {
	e.delayed.cancel(orderID)
}
