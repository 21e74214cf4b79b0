package correlate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/toolkiterrors"
)

const legalPatternSystemPrompt = `You are a legal analyst reviewing correlated evidence from an investigation.
Identify contradictions between statements, corroboration links across
independent sources, and evidence gaps (missing witnesses, documentation,
or communications). Every source you cite must be one of the provided
SHA-256 values. Be conservative — do not invent sources.`

const legalPatternSchemaJSON = `{
  "type": "object",
  "required": ["contradictions", "corroborations", "evidence_gaps"],
  "properties": {
    "contradictions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["statement_a", "statement_b", "source_a", "source_b", "type", "severity"],
        "properties": {
          "statement_a": {"type": "string"},
          "statement_b": {"type": "string"},
          "source_a": {"type": "string"},
          "source_b": {"type": "string"},
          "type": {"type": "string", "enum": ["factual", "temporal", "attribution"]},
          "severity": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "corroborations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["claim", "source_shas", "strength", "confidence"],
        "properties": {
          "claim": {"type": "string"},
          "source_shas": {"type": "array", "items": {"type": "string"}},
          "strength": {"type": "string", "enum": ["weak", "moderate", "strong"]},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "evidence_gaps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["description", "priority"],
        "properties": {
          "description": {"type": "string"},
          "priority": {"type": "string", "enum": ["critical", "high", "medium"]}
        }
      }
    }
  }
}`

// DetectLegalPatterns makes the one C7 call per case: the full correlated
// evidence summary in, a LegalPatternAnalysis out. Every cited SHA-256 is
// validated against caseSHAs post-hoc; violations are reported rather
// than silently dropped (§4.7).
func DetectLegalPatterns(ctx context.Context, client llm.StructuredClient, model, caseID, evidenceSummary string, caseSHAs []string) (*LegalPatternAnalysis, error) {
	payload, status, err := client.CallStructured(ctx, llm.CallRequest{
		Model:        model,
		SystemPrompt: legalPatternSystemPrompt,
		UserContent:  evidenceSummary,
		SchemaName:   "legal_pattern_analysis",
		Schema:       json.RawMessage(legalPatternSchemaJSON),
	})
	if err != nil {
		return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: fmt.Sprintf("legal pattern call (%s)", status), Err: err}
	}

	var out LegalPatternAnalysis
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: "legal pattern payload decode", Err: err}
	}

	validateCitedSources(&out, caseSHAs)
	return &out, nil
}

// validateCitedSources flags (but does not drop) any cited SHA-256 absent
// from the case, per §4.7's "violations are reported, not silently dropped."
func validateCitedSources(out *LegalPatternAnalysis, caseSHAs []string) {
	known := make(map[string]bool, len(caseSHAs))
	for _, sha := range caseSHAs {
		known[sha] = true
	}

	for i, c := range out.Contradictions {
		if !known[c.SourceA] {
			out.Contradictions[i].StatementA = flagUnknownSource(c.StatementA, c.SourceA)
		}
		if !known[c.SourceB] {
			out.Contradictions[i].StatementB = flagUnknownSource(c.StatementB, c.SourceB)
		}
	}
	for i, corr := range out.Corroborations {
		for _, sha := range corr.SourceSHAs {
			if !known[sha] {
				out.Corroborations[i].Claim = flagUnknownSource(corr.Claim, sha)
				break
			}
		}
	}
}

func flagUnknownSource(text, sha string) string {
	if strings.Contains(text, "[unverified source") {
		return text
	}
	return text + fmt.Sprintf(" [unverified source sha256=%s]", sha)
}
