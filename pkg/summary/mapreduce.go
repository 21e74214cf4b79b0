package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/config"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
)

// GenerateExecutiveSummary implements §4.8's chunking rule: below
// threshold, call the reducer directly on the full set; above it, map
// each chunk of size chunkSize then reduce the concatenated chunk
// summaries. Temperature 0 at every step (enforced by pkg/llm itself).
func GenerateExecutiveSummary(ctx context.Context, client llm.StructuredClient, model string, caseType config.CaseType, evidence []EvidenceSummary, threshold, chunkSize int) (*ExecutiveSummaryResponse, error) {
	if len(evidence) <= threshold {
		return reduce(ctx, client, model, caseType, renderEvidence(evidence), false)
	}

	var chunkTexts []string
	for start := 0; start < len(evidence); start += chunkSize {
		end := start + chunkSize
		if end > len(evidence) {
			end = len(evidence)
		}
		chunk, err := mapChunk(ctx, client, model, evidence[start:end])
		if err != nil {
			return nil, fmt.Errorf("summary: map chunk [%d:%d]: %w", start, end, err)
		}
		chunkTexts = append(chunkTexts, renderChunkSummary(chunk))
	}

	return reduce(ctx, client, model, caseType, strings.Join(chunkTexts, "\n\n---\n\n"), true)
}

func mapChunk(ctx context.Context, client llm.StructuredClient, model string, chunk []EvidenceSummary) (*ChunkSummaryResponse, error) {
	payload, status, err := client.CallStructured(ctx, llm.CallRequest{
		Model:        model,
		SystemPrompt: chunkSummarySystemPrompt,
		UserContent:  renderEvidence(chunk),
		SchemaName:   "chunk_summary",
		Schema:       json.RawMessage(chunkSummarySchemaJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("summary: map call (%s): %w", status, err)
	}
	var out ChunkSummaryResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("summary: map payload decode: %w", err)
	}
	return &out, nil
}

func reduce(ctx context.Context, client llm.StructuredClient, model string, caseType config.CaseType, content string, chunked bool) (*ExecutiveSummaryResponse, error) {
	systemPrompt := executiveSummaryPrompt(caseType)
	if chunked {
		systemPrompt += reduceSystemPromptSuffix
	}
	payload, status, err := client.CallStructured(ctx, llm.CallRequest{
		Model:        model,
		SystemPrompt: systemPrompt,
		UserContent:  content,
		SchemaName:   "executive_summary",
		Schema:       json.RawMessage(executiveSummarySchemaJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("summary: reduce call (%s): %w", status, err)
	}
	var out ExecutiveSummaryResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("summary: reduce payload decode: %w", err)
	}
	return &out, nil
}

func renderEvidence(evidence []EvidenceSummary) string {
	var b strings.Builder
	for _, e := range evidence {
		fmt.Fprintf(&b, "- [%s] %s (%s, %s): %s; risk flags: %s\n",
			e.SHA256[:8], e.Filename, e.EvidenceType, e.LegalSignificance, e.KeyFindings, strings.Join(e.RiskFlags, ", "))
	}
	return b.String()
}

func renderChunkSummary(c *ChunkSummaryResponse) string {
	var b strings.Builder
	b.WriteString("Findings:\n")
	for _, f := range c.Findings {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("Implications:\n")
	for _, i := range c.Implications {
		fmt.Fprintf(&b, "- %s\n", i)
	}
	b.WriteString("Actions:\n")
	for _, a := range c.Actions {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return b.String()
}
