package eventbus

import (
	"testing"
	"time"
)

type note string

func (n note) Name() string { return string(n) }

func TestPublishSubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Publish(note("hello"))
	select {
	case e := <-sub:
		if e.Name() != "hello" {
			t.Fatalf("unexpected event %v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	_ = b.Subscribe()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(note("tick"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
}

func TestUnsubscribeAndClose(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
	sub2 := b.Subscribe()
	b.Close()
	if _, ok := <-sub2; ok {
		t.Fatal("close should close subscriber channels")
	}
	// Publishing after close is a no-op.
	b.Publish(note("late"))
}
