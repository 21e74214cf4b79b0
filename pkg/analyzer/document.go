package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
)

// DocumentAnalyzer builds one structured call over extracted text (§4.5).
type DocumentAnalyzer struct {
	Client        llm.StructuredClient
	Model         string
	ModelRevision string
}

func (a *DocumentAnalyzer) Analyze(ctx context.Context, text string) (*analysis.DocumentAnalysis, error) {
	payload, status, err := a.Client.CallStructured(ctx, llm.CallRequest{
		Model:        a.Model,
		SystemPrompt: documentSystemPrompt,
		UserContent:  text,
		SchemaName:   "document_analysis",
		Schema:       json.RawMessage(documentSchemaJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: document call (%s): %w", status, err)
	}

	var out analysis.DocumentAnalysis
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("analyzer: document payload decode: %w", err)
	}

	out.WordFrequency, out.UniqueWords = WordFrequency(text)
	return &out, nil
}
