package correlate

import (
	"sort"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
)

// BuildRelationshipNetwork constructs the case's entity graph: an edge per
// pair of email participants on the same thread, and an edge per pair of
// canonical entities co-occurring in the same piece of evidence. Node
// centrality is weighted degree (the sum of the node's edge weights)
// divided by the largest weighted degree in the graph, so it lies in
// [0,1] — the spec leaves the metric unspecified; degree is the simplest one that stays
// deterministic and is easy to explain in a generated report (see
// DESIGN.md's Open Question decision).
func BuildRelationshipNetwork(entities []CanonicalEntity, analyses map[string]*analysis.UnifiedAnalysis) RelationshipNetwork {
	weights := map[[2]string]int{}
	addEdge := func(a, b string) {
		if a == b || a == "" || b == "" {
			return
		}
		if a > b {
			a, b = b, a
		}
		weights[[2]string{a, b}]++
	}

	for _, ua := range analyses {
		if ua.Email == nil {
			continue
		}
		names := make([]string, 0, len(ua.Email.Participants))
		for _, p := range ua.Email.Participants {
			names = append(names, NormalizeName(p.Name))
		}
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				addEdge(names[i], names[j])
			}
		}
	}

	shaToEntities := map[string][]string{}
	for _, e := range entities {
		for _, occ := range e.Occurrences {
			shaToEntities[occ.SHA256] = append(shaToEntities[occ.SHA256], e.CanonicalName)
		}
	}
	for _, names := range shaToEntities {
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				addEdge(names[i], names[j])
			}
		}
	}

	degree := map[string]int{}
	var edges []NetworkEdge
	for pair, w := range weights {
		edges = append(edges, NetworkEdge{A: pair[0], B: pair[1], Weight: w})
		degree[pair[0]] += w
		degree[pair[1]] += w
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})

	var maxDegree int
	for _, d := range degree {
		if d > maxDegree {
			maxDegree = d
		}
	}

	var nodes []NetworkNode
	for name, d := range degree {
		centrality := 0.0
		if maxDegree > 0 {
			centrality = float64(d) / float64(maxDegree)
		}
		nodes = append(nodes, NetworkNode{Name: name, Centrality: centrality})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	return RelationshipNetwork{Nodes: nodes, Edges: edges}
}
