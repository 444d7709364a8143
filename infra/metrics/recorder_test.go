package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/fieldcrew/dispatch/core/events"
	coremetrics "github.com/fieldcrew/dispatch/core/metrics"
	"github.com/fieldcrew/dispatch/infra/logger"
	"github.com/fieldcrew/dispatch/internal/eventbus"
)

type captureSink struct {
	mu   sync.Mutex
	recs []coremetrics.AssignmentRecord
}

func (c *captureSink) RecordAssignment(recs []coremetrics.AssignmentRecord) error {
	c.mu.Lock()
	c.recs = append(c.recs, recs...)
	c.mu.Unlock()
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.recs)
}

func TestRecorderForwardsAssignments(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sink := &captureSink{}
	r := NewRecorder(sink, bus, logger.NopLogger{})
	r.Start()
	defer r.Close()

	bus.Publish(events.OrderAssigned{OrderCode: "ODL-202608-0001", TeamCode: "SQ-01", Score: 91, ETAMinutes: 15})
	bus.Publish(events.StatusChanged{OrderCode: "ODL-202608-0001"})

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := sink.count(); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.recs[0].TeamCode != "SQ-01" || sink.recs[0].Score != 91 || sink.recs[0].ETAMinutes != 15 {
		t.Fatalf("unexpected record: %+v", sink.recs[0])
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	m := NewMultiSink(a, b)
	rec := coremetrics.AssignmentRecord{OrderCode: "ODL-202608-0002"}
	if err := m.RecordAssignment([]coremetrics.AssignmentRecord{rec}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("expected both sinks to record, got %d and %d", a.count(), b.count())
	}
}
