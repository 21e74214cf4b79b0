package report

import (
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type quotedStatementsGenerator struct{ baseGenerator }

func (g quotedStatementsGenerator) quotes(cs *summary.CaseSummary) []summary.QuotedStatement {
	quotes, _ := cs.OverallAssessment[summary.KeyQuotedStatements].([]summary.QuotedStatement)
	return quotes
}

func (g quotedStatementsGenerator) HasData(cs *summary.CaseSummary) bool {
	return len(g.quotes(cs)) > 0
}

func (quotedStatementsGenerator) Filename() string { return "quoted_statements.md" }
func (quotedStatementsGenerator) Title() string    { return "Quoted Statements" }

func (g quotedStatementsGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))
	for _, q := range g.quotes(cs) {
		fmt.Fprintf(&b, "> %s\n— %s (sha256=%s)\n\n", q.Text, q.Speaker, g.truncateSHA(q.SHA256))
	}
	return b.String(), nil
}
