package report

import (
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type executiveSummaryGenerator struct{ baseGenerator }

func (executiveSummaryGenerator) HasData(cs *summary.CaseSummary) bool {
	return cs.ExecutiveSummary != nil
}

func (executiveSummaryGenerator) Filename() string { return "executive_summary.md" }
func (executiveSummaryGenerator) Title() string    { return "Executive Summary" }

func (g executiveSummaryGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))
	b.WriteString(cs.ExecutiveSummary.Narrative)
	b.WriteString("\n\n## Key Findings\n\n")
	for _, f := range cs.ExecutiveSummary.KeyFindings {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\n## Recommended Actions\n\n")
	for _, a := range cs.ExecutiveSummary.RecommendedActions {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return b.String(), nil
}
