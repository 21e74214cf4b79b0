package report

import (
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type powerDynamicsGenerator struct{ baseGenerator }

func (g powerDynamicsGenerator) scores(cs *summary.CaseSummary) map[string]float64 {
	scores, _ := cs.OverallAssessment[summary.KeyPowerDynamics].(map[string]float64)
	return scores
}

func (g powerDynamicsGenerator) HasData(cs *summary.CaseSummary) bool {
	return len(g.scores(cs)) > 0
}

func (powerDynamicsGenerator) Filename() string { return "power_dynamics.md" }
func (powerDynamicsGenerator) Title() string    { return "Power Dynamics" }

func (g powerDynamicsGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	scores := g.scores(cs)
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))
	b.WriteString("Deference score: 0 is dominant, 1 is deferential.\n\n")
	for _, name := range sortedFloatKeys(scores) {
		fmt.Fprintf(&b, "- %s: %.2f\n", name, scores[name])
	}
	return b.String(), nil
}
