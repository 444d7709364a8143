package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldcrew/dispatch/core/model"
)

func testRecord(orderID string, ts time.Time) Record {
	return Record{
		Timestamp: ts,
		Kind:      "transition",
		History: &model.StatusHistoryEntry{
			WorkOrderID: orderID,
			OldStatus:   model.StatusReceived,
			NewStatus:   model.StatusAssigned,
			Timestamp:   ts,
		},
	}
}

func runStoreTest(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	if err := s.Append(ctx, testRecord("wo1", now.Add(-time.Hour))); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, testRecord("wo2", now)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, Record{
		Timestamp: now,
		Kind:      "emergency",
		Timeline:  &model.TimelineEvent{EmergencyID: "e1", EventType: "attivazione", Timestamp: now},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Query(ctx, Query{WorkOrderID: "wo1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].History.WorkOrderID != "wo1" {
		t.Fatalf("expected one record for wo1, got %v", got)
	}
	got, err = s.Query(ctx, Query{Kind: "emergency", EmergencyID: "e1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one emergency record, got %d", len(got))
	}
	got, err = s.Query(ctx, Query{Start: now.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("time filter: expected 2 records, got %d", len(got))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	runStoreTest(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "audit.jsonl"), 5, 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	runStoreTest(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	runStoreTest(t, s)
}

func TestConfigValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	c.Backend = "csv"
	if err := c.Validate(); err == nil {
		t.Fatal("unknown backend should fail validation")
	}
}
