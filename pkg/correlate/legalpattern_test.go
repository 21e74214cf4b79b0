package correlate

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
)

type fakeLegalPatternClient struct {
	payload json.RawMessage
	status  llm.CompletionStatus
	err     error
}

func (f *fakeLegalPatternClient) CallStructured(ctx context.Context, req llm.CallRequest) (json.RawMessage, llm.CompletionStatus, error) {
	return f.payload, f.status, f.err
}

func TestDetectLegalPatternsFlagsUnverifiedSource(t *testing.T) {
	payload := json.RawMessage(`{
		"contradictions": [
			{"statement_a": "A said X", "statement_b": "B said Y", "source_a": "known", "source_b": "unknown", "type": "factual", "severity": 0.5}
		],
		"corroborations": [],
		"evidence_gaps": []
	}`)
	client := &fakeLegalPatternClient{payload: payload, status: llm.Completed}

	out, err := DetectLegalPatterns(context.Background(), client, "m", "case-1", "summary", []string{"known"})
	if err != nil {
		t.Fatalf("DetectLegalPatterns: %v", err)
	}
	if len(out.Contradictions) != 1 {
		t.Fatalf("len(Contradictions) = %d, want 1", len(out.Contradictions))
	}
	c := out.Contradictions[0]
	if c.StatementA != "A said X" {
		t.Error("expected StatementA to be left unflagged since its source is known")
	}
	if !strings.Contains(c.StatementB, "[unverified source") {
		t.Errorf("expected StatementB to be flagged for an unknown source, got %q", c.StatementB)
	}
}

func TestDetectLegalPatternsDoesNotFlagKnownSources(t *testing.T) {
	payload := json.RawMessage(`{
		"contradictions": [
			{"statement_a": "A said X", "statement_b": "B said Y", "source_a": "s1", "source_b": "s2", "type": "factual", "severity": 0.5}
		],
		"corroborations": [],
		"evidence_gaps": []
	}`)
	client := &fakeLegalPatternClient{payload: payload, status: llm.Completed}

	out, err := DetectLegalPatterns(context.Background(), client, "m", "case-1", "summary", []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("DetectLegalPatterns: %v", err)
	}
	c := out.Contradictions[0]
	if strings.Contains(c.StatementA, "[unverified") || strings.Contains(c.StatementB, "[unverified") {
		t.Errorf("did not expect any flagging when both sources are known: %+v", c)
	}
}

func TestDetectLegalPatternsWrapsClientError(t *testing.T) {
	client := &fakeLegalPatternClient{status: llm.Refused, err: &llm.RefusedError{Model: "m", Reason: "policy"}}
	_, err := DetectLegalPatterns(context.Background(), client, "m", "case-1", "summary", nil)
	if err == nil {
		t.Fatal("expected an error to propagate from the client")
	}
}
