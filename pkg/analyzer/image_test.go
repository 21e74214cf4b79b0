package analyzer

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
)

func TestImageAnalyzerEncodesDataURI(t *testing.T) {
	payload := json.RawMessage(`{
		"scene_description": "a desk",
		"ocr_text": "",
		"detected_objects": ["chair"],
		"confidence": 0.7
	}`)
	client := &scriptedStructuredClient{payload: payload, status: llm.Completed}
	a := &ImageAnalyzer{Client: client, Model: "m"}

	out, err := a.Analyze(context.Background(), []byte("fake-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if out.SceneDescription != "a desk" {
		t.Errorf("SceneDescription = %q", out.SceneDescription)
	}
	if !strings.HasPrefix(client.lastReq.UserContent, "data:image/png;base64,") {
		t.Errorf("UserContent = %q, expected a data URI prefix", client.lastReq.UserContent)
	}
}

func TestImageAnalyzerPropagatesClientError(t *testing.T) {
	client := &scriptedStructuredClient{status: llm.Incomplete, err: &llm.IncompleteError{Model: "m", Reason: "truncated"}}
	a := &ImageAnalyzer{Client: client, Model: "m"}

	if _, err := a.Analyze(context.Background(), []byte("x"), "image/png"); err == nil {
		t.Fatal("expected the client's error to propagate")
	}
}
