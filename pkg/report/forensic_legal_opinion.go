package report

import (
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type forensicLegalOpinionGenerator struct{ baseGenerator }

func (forensicLegalOpinionGenerator) HasData(cs *summary.CaseSummary) bool {
	_, ok := cs.OverallAssessment[summary.KeyForensicSummary]
	return ok
}

func (forensicLegalOpinionGenerator) Filename() string { return "forensic_legal_opinion.md" }
func (forensicLegalOpinionGenerator) Title() string    { return "Forensic Legal Opinion" }

func (g forensicLegalOpinionGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	a := cs.OverallAssessment
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))
	b.WriteString(stringVal(a, summary.KeyForensicSummary, "no forensic summary available"))
	b.WriteString("\n\n## Legal Implications\n\n")
	for _, s := range stringList(a[summary.KeyForensicLegalImplications]) {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	b.WriteString("\n## Recommended Actions\n\n")
	for _, s := range stringList(a[summary.KeyForensicRecommendedActions]) {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	if risk, ok := a[summary.KeyForensicRiskAssessment]; ok {
		fmt.Fprintf(&b, "\n## Risk Assessment\n\n%v\n", risk)
	}
	return b.String(), nil
}
