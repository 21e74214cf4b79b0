package report

import (
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type relationshipNetworkGenerator struct{ baseGenerator }

func (relationshipNetworkGenerator) HasData(cs *summary.CaseSummary) bool {
	return cs.CorrelationResult != nil && len(cs.CorrelationResult.RelationshipNetwork.Nodes) > 0
}

func (relationshipNetworkGenerator) Filename() string { return "relationship_network.md" }
func (relationshipNetworkGenerator) Title() string    { return "Relationship Network" }

func (g relationshipNetworkGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	net := cs.CorrelationResult.RelationshipNetwork
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))

	b.WriteString("## Nodes (by centrality)\n\n")
	for _, n := range net.Nodes {
		fmt.Fprintf(&b, "- %s (centrality %.2f)\n", n.Name, n.Centrality)
	}

	b.WriteString("\n## Edges\n\n")
	for _, e := range net.Edges {
		fmt.Fprintf(&b, "- %s — %s (weight %d)\n", e.A, e.B, e.Weight)
	}

	return b.String(), nil
}
