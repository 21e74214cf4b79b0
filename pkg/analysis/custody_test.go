package analysis

import (
	"testing"
	"time"
)

func TestNewEventStampsEventID(t *testing.T) {
	ev := NewEvent("tester", ActionIngest, nil, nil)
	if ev.Metadata["event_id"] == nil || ev.Metadata["event_id"] == "" {
		t.Fatal("expected NewEvent to stamp a non-empty event_id")
	}
}

func TestCustodyAppendOrdering(t *testing.T) {
	log := &CustodyLog{SHA256: "abc"}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	if err := log.Append(CustodyEvent{Timestamp: t0, Actor: "a", Action: ActionIngest}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := log.Append(CustodyEvent{Timestamp: t1, Actor: "a", Action: ActionAnalyze}); err != nil {
		t.Fatalf("second append: %v", err)
	}
	if len(log.Events) != 2 {
		t.Fatalf("len(Events) = %d, want 2", len(log.Events))
	}
}

func TestCustodyAppendRejectsReorder(t *testing.T) {
	log := &CustodyLog{SHA256: "abc"}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(-time.Hour)

	if err := log.Append(CustodyEvent{Timestamp: t0, Actor: "a", Action: ActionIngest}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := log.Append(CustodyEvent{Timestamp: t1, Actor: "a", Action: ActionAnalyze}); err == nil {
		t.Fatal("expected append of an earlier-timestamped event to be rejected (P10)")
	}
	if len(log.Events) != 1 {
		t.Fatalf("a rejected append must not mutate the log; len(Events) = %d", len(log.Events))
	}
}

func TestNewRunsValidateAndSchema(t *testing.T) {
	ua := *validDocumentAnalysis()
	if _, err := New(ua); err != nil {
		t.Fatalf("New: unexpected error on a valid analysis: %v", err)
	}

	bad := ua
	bad.ModelID = ""
	if _, err := New(bad); err == nil {
		t.Fatal("expected New to reject a schema-invalid analysis (empty model_id)")
	}
}
