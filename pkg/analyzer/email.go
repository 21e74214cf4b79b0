package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
)

// EmailAnalyzer parses RFC 5322 headers with the standard library, then
// asks the LLM adapter for everything that needs judgment: thread summary,
// tone, escalation, deference (§4.5).
type EmailAnalyzer struct {
	Client        llm.StructuredClient
	Model         string
	ModelRevision string
}

func (a *EmailAnalyzer) Analyze(ctx context.Context, raw []byte) (*analysis.EmailAnalysis, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("analyzer: parse email headers: %w", err)
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("analyzer: read email body: %w", err)
	}

	envelope := buildEnvelope(msg.Header)
	userContent := envelope + "\n\n" + string(body)

	payload, status, err := a.Client.CallStructured(ctx, llm.CallRequest{
		Model:        a.Model,
		SystemPrompt: emailSystemPrompt,
		UserContent:  userContent,
		SchemaName:   "email_analysis",
		Schema:       json.RawMessage(emailSchemaJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: email call (%s): %w", status, err)
	}

	var out analysis.EmailAnalysis
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("analyzer: email payload decode: %w", err)
	}
	return &out, nil
}

func buildEnvelope(h mail.Header) string {
	var b strings.Builder
	for _, field := range []string{"From", "To", "Cc", "Bcc", "Subject", "Date"} {
		if v := h.Get(field); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", field, v)
		}
	}
	return b.String()
}
