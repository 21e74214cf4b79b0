package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestClassifyCompleted(t *testing.T) {
	payload, status, err := classify("m", Completed, "", json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != Completed {
		t.Errorf("status = %v, want Completed", status)
	}
	if string(payload) != `{"a":1}` {
		t.Errorf("payload = %s", payload)
	}
}

func TestClassifyIncompleteRaises(t *testing.T) {
	payload, status, err := classify("m", Incomplete, "truncated", nil)
	if payload != nil {
		t.Error("expected nil payload on incomplete")
	}
	if status != Incomplete {
		t.Errorf("status = %v, want Incomplete", status)
	}
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteError, got %T", err)
	}
}

func TestClassifyRefusedRaises(t *testing.T) {
	_, status, err := classify("m", Refused, "policy", nil)
	if status != Refused {
		t.Errorf("status = %v, want Refused", status)
	}
	var refused *RefusedError
	if !errors.As(err, &refused) {
		t.Fatalf("expected RefusedError, got %T", err)
	}
}

func TestClassifyUnrecognizedStatusTreatedAsIncomplete(t *testing.T) {
	_, status, err := classify("m", CompletionStatus("weird"), "", nil)
	if status != Incomplete {
		t.Errorf("status = %v, want Incomplete for an unrecognized status", status)
	}
	if err == nil {
		t.Fatal("expected an error for an unrecognized status")
	}
}
