package summary

import "github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/config"

var executiveSummaryPrompts = map[config.CaseType]string{
	config.CaseGeneric: `You are preparing an executive summary of a forensic evidence review.
Synthesize the findings below into a clear narrative, key findings, and
recommended actions. Be precise about what the evidence supports.`,
	config.CaseWorkplace: `You are preparing an executive summary for a workplace investigation.
Focus on conduct, policy violations, and organizational risk. Synthesize
the findings below into a narrative, key findings, and recommended
actions.`,
	config.CaseEmployment: `You are preparing an executive summary for an employment tribunal matter.
Focus on tribunal exposure, procedural fairness, and documented pattern of
conduct. Synthesize the findings below into a narrative, key findings, and
recommended actions.`,
	config.CaseContract: `You are preparing an executive summary for a contract dispute.
Focus on breach, performance, and damages. Synthesize the findings below
into a narrative, key findings, and recommended actions.`,
}

const chunkSummarySystemPrompt = `You are summarizing one chunk of evidence from a larger case. Produce
findings, implications, and recommended actions for this chunk only; a
later step will merge your output with other chunks.`

const reduceSystemPromptSuffix = `
The input below is the concatenated output of several chunk summaries.
Merge them into one coherent executive summary; do not simply repeat each
chunk in sequence.`

func executiveSummaryPrompt(caseType config.CaseType) string {
	if p, ok := executiveSummaryPrompts[caseType]; ok {
		return p
	}
	return executiveSummaryPrompts[config.CaseGeneric]
}

const executiveSummarySchemaJSON = `{
  "type": "object",
  "required": ["narrative", "key_findings", "recommended_actions"],
  "properties": {
    "narrative": {"type": "string"},
    "key_findings": {"type": "array", "items": {"type": "string"}},
    "recommended_actions": {"type": "array", "items": {"type": "string"}}
  }
}`

const chunkSummarySchemaJSON = `{
  "type": "object",
  "required": ["findings", "implications", "actions"],
  "properties": {
    "findings": {"type": "array", "items": {"type": "string"}},
    "implications": {"type": "array", "items": {"type": "string"}},
    "actions": {"type": "array", "items": {"type": "string"}}
  }
}`
