package report

import (
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type legalPatternsGenerator struct{ baseGenerator }

func (legalPatternsGenerator) HasData(cs *summary.CaseSummary) bool {
	return cs.CorrelationResult != nil && cs.CorrelationResult.LegalPatterns != nil
}

func (legalPatternsGenerator) Filename() string { return "legal_patterns.md" }
func (legalPatternsGenerator) Title() string    { return "Legal Pattern Analysis" }

func (g legalPatternsGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	p := cs.CorrelationResult.LegalPatterns
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))

	b.WriteString("## Contradictions\n\n")
	if len(p.Contradictions) == 0 {
		b.WriteString("None detected.\n\n")
	}
	for _, c := range p.Contradictions {
		fmt.Fprintf(&b, "- (%s, severity %.2f) %q (sha256=%s) vs %q (sha256=%s)\n",
			c.Type, c.Severity, c.StatementA, g.truncateSHA(c.SourceA), c.StatementB, g.truncateSHA(c.SourceB))
	}

	b.WriteString("\n## Corroborations\n\n")
	if len(p.Corroborations) == 0 {
		b.WriteString("None detected.\n\n")
	}
	for _, c := range p.Corroborations {
		shas := make([]string, len(c.SourceSHAs))
		for i, s := range c.SourceSHAs {
			shas[i] = g.truncateSHA(s)
		}
		fmt.Fprintf(&b, "- (%s, confidence %.2f) %q — sources: %s\n", c.Strength, c.Confidence, c.Claim, joinOrNone(shas))
	}

	b.WriteString("\n## Evidence Gaps\n\n")
	if len(p.EvidenceGaps) == 0 {
		b.WriteString("None identified.\n")
	}
	for _, gap := range p.EvidenceGaps {
		fmt.Fprintf(&b, "- (%s) %s\n", gap.Priority, gap.Description)
	}

	return b.String(), nil
}
