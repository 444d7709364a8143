package metrics

import (
	"sync"

	"github.com/fieldcrew/dispatch/core/events"
	"github.com/fieldcrew/dispatch/core/logger"
	coremetrics "github.com/fieldcrew/dispatch/core/metrics"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

// Recorder forwards assignment events from the bus to the configured sink.
type Recorder struct {
	sink coremetrics.Sink
	bus  eventbus.EventBus
	log  logger.Logger
	sub  <-chan eventbus.Event
	done chan struct{}
	once sync.Once
}

// NewRecorder creates the bridge. Call Start to begin forwarding.
func NewRecorder(sink coremetrics.Sink, bus eventbus.EventBus, log logger.Logger) *Recorder {
	return &Recorder{sink: sink, bus: bus, log: log, done: make(chan struct{})}
}

// Start subscribes to the bus and forwards assignment events.
func (r *Recorder) Start() {
	r.sub = r.bus.Subscribe()
	go func() {
		defer close(r.done)
		for e := range r.sub {
			ev, ok := e.(events.OrderAssigned)
			if !ok {
				continue
			}
			rec := coremetrics.AssignmentRecord{
				OrderID:    ev.OrderID,
				OrderCode:  ev.OrderCode,
				TeamID:     ev.TeamID,
				TeamCode:   ev.TeamCode,
				Mode:       string(ev.Mode),
				Score:      ev.Score,
				ETAMinutes: ev.ETAMinutes,
				Timestamp:  ev.At.UnixMilli(),
			}
			if err := r.sink.RecordAssignment([]coremetrics.AssignmentRecord{rec}); err != nil {
				r.log.Warnf("record assignment %s: %v", ev.OrderCode, err)
			}
		}
	}()
}

// Close detaches from the bus and waits for the forwarding goroutine.
func (r *Recorder) Close() {
	r.once.Do(func() {
		r.bus.Unsubscribe(r.sub)
		<-r.done
	})
}
