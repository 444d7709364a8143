// Package scheduler runs the engine's periodic tasks: intake polling,
// response-time sweeps and maintenance checks. A firing is skipped while
// the previous run of the same task is still executing, so overlapping
// schedules cannot duplicate side effects.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fieldcrew/dispatch/core/logger"
)

// Task is one periodic unit of work.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	running atomic.Bool
	skipped atomic.Int64
}

// Runner drives a set of Tasks on independent tickers.
type Runner struct {
	log   logger.Logger
	tasks []*Task
	wg    sync.WaitGroup
}

// NewRunner creates an empty Runner.
func NewRunner(log logger.Logger) *Runner {
	return &Runner{log: log}
}

// Add registers a task. Must be called before Start.
func (r *Runner) Add(name string, interval time.Duration, run func(ctx context.Context) error) {
	r.tasks = append(r.tasks, &Task{Name: name, Interval: interval, Run: run})
}

// Start launches one ticker goroutine per task and returns immediately.
// Each firing runs in its own goroutine, so a tick arriving while the
// previous run is still executing is skipped rather than queued behind it.
// The tasks stop when the context is cancelled; Wait blocks until all
// goroutines, in-flight firings included, returned.
func (r *Runner) Start(ctx context.Context) {
	for _, t := range r.tasks {
		r.wg.Add(1)
		go func(t *Task) {
			defer r.wg.Done()
			ticker := time.NewTicker(t.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					r.wg.Add(1)
					go func() {
						defer r.wg.Done()
						r.fire(ctx, t)
					}()
				}
			}
		}(t)
	}
}

// Wait blocks until all task goroutines returned.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) fire(ctx context.Context, t *Task) {
	if !t.running.CompareAndSwap(false, true) {
		t.skipped.Add(1)
		r.log.Warnf("task %s still running, skipping firing", t.Name)
		return
	}
	defer t.running.Store(false)
	if err := t.Run(ctx); err != nil {
		r.log.Errorf("task %s: %v", t.Name, err)
	}
}

// Skipped returns how many firings of the named task were skipped because a
// prior run was still executing.
func (r *Runner) Skipped(name string) int64 {
	for _, t := range r.tasks {
		if t.Name == name {
			return t.skipped.Load()
		}
	}
	return 0
}
