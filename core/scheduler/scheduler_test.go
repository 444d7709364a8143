package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fieldcrew/dispatch/infra/logger"
)

func TestRunnerFiresPeriodically(t *testing.T) {
	r := NewRunner(logger.NopLogger{})
	var runs atomic.Int64
	r.Add("tick", 20*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	time.Sleep(150 * time.Millisecond)
	cancel()
	r.Wait()
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}
}

func TestRunnerSkipsOverlappingRuns(t *testing.T) {
	r := NewRunner(logger.NopLogger{})
	var runs atomic.Int64
	r.Add("slow", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	time.Sleep(150 * time.Millisecond)
	cancel()
	r.Wait()
	if got := runs.Load(); got != 1 {
		t.Fatalf("overlapping firings must be skipped, got %d runs", got)
	}
	if r.Skipped("slow") == 0 {
		t.Fatal("skipped counter should have advanced")
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	r := NewRunner(logger.NopLogger{})
	r.Add("tick", 10*time.Millisecond, func(context.Context) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()
	done := make(chan struct{})
	go func() { r.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}
