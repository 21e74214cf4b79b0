package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type financialRiskAssessmentGenerator struct{ baseGenerator }

func (financialRiskAssessmentGenerator) HasData(cs *summary.CaseSummary) bool {
	_, ok := cs.OverallAssessment[summary.KeyTribunalProbability]
	return ok
}

func (financialRiskAssessmentGenerator) Filename() string { return "financial_risk_assessment.md" }
func (financialRiskAssessmentGenerator) Title() string    { return "Financial Risk Assessment" }

func (g financialRiskAssessmentGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))
	fmt.Fprintf(&b, "Tribunal probability: %v\n\n", cs.OverallAssessment[summary.KeyTribunalProbability])
	b.WriteString(stringVal(cs.OverallAssessment, summary.KeyFinancialExposureSummary, "no financial exposure estimate available"))
	b.WriteString("\n\n## Risk Flag Breakdown\n\n")
	breakdown, _ := cs.OverallAssessment[summary.KeyRiskFlagBreakdown].(map[string]int)
	for _, flag := range sortedKeys(breakdown) {
		b.WriteString("- " + flag + ": ")
		b.WriteString(strconv.Itoa(breakdown[flag]))
		b.WriteString("\n")
	}
	return b.String(), nil
}
