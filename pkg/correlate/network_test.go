package correlate

import (
	"testing"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
)

func TestBuildRelationshipNetworkEdgeFromEmailParticipants(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"e1": {
			Email: &analysis.EmailAnalysis{
				Participants: []analysis.Participant{
					{Name: "Jane Doe"},
					{Name: "John Smith"},
				},
			},
		},
	}
	net := BuildRelationshipNetwork(nil, analyses)
	if len(net.Edges) != 1 {
		t.Fatalf("len(Edges) = %d, want 1", len(net.Edges))
	}
	if net.Edges[0].Weight != 1 {
		t.Errorf("Weight = %d, want 1", net.Edges[0].Weight)
	}
}

func TestBuildRelationshipNetworkEdgeFromEntityCoOccurrence(t *testing.T) {
	entities := []CanonicalEntity{
		{CanonicalName: "alice", Occurrences: []Occurrence{{SHA256: "x"}}},
		{CanonicalName: "bob", Occurrences: []Occurrence{{SHA256: "x"}}},
	}
	net := BuildRelationshipNetwork(entities, nil)
	if len(net.Edges) != 1 {
		t.Fatalf("len(Edges) = %d, want 1", len(net.Edges))
	}
	a, b := net.Edges[0].A, net.Edges[0].B
	if !((a == "alice" && b == "bob") || (a == "bob" && b == "alice")) {
		t.Errorf("unexpected edge pair %q/%q", a, b)
	}
}

func TestBuildRelationshipNetworkNoSelfEdges(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"e1": {
			Email: &analysis.EmailAnalysis{
				Participants: []analysis.Participant{{Name: "Jane Doe"}},
			},
		},
	}
	net := BuildRelationshipNetwork(nil, analyses)
	if len(net.Edges) != 0 {
		t.Fatalf("len(Edges) = %d, want 0 (a single participant forms no edge)", len(net.Edges))
	}
}

func TestBuildRelationshipNetworkCentralityIsNormalizedDegree(t *testing.T) {
	entities := []CanonicalEntity{
		{CanonicalName: "hub", Occurrences: []Occurrence{{SHA256: "x"}, {SHA256: "y"}}},
		{CanonicalName: "a", Occurrences: []Occurrence{{SHA256: "x"}}},
		{CanonicalName: "b", Occurrences: []Occurrence{{SHA256: "y"}}},
	}
	net := BuildRelationshipNetwork(entities, nil)

	var hub *NetworkNode
	for i := range net.Nodes {
		if net.Nodes[i].Name == "hub" {
			hub = &net.Nodes[i]
		}
	}
	if hub == nil {
		t.Fatal("expected a node named hub")
	}
	if hub.Centrality != 1.0 {
		t.Errorf("hub centrality = %v, want 1.0 (max degree node)", hub.Centrality)
	}
}

func TestBuildRelationshipNetworkDeterministicOrder(t *testing.T) {
	entities := []CanonicalEntity{
		{CanonicalName: "zed", Occurrences: []Occurrence{{SHA256: "x"}}},
		{CanonicalName: "amy", Occurrences: []Occurrence{{SHA256: "x"}}},
	}
	net := BuildRelationshipNetwork(entities, nil)
	if len(net.Nodes) != 2 || net.Nodes[0].Name != "amy" {
		t.Fatalf("expected nodes sorted by name, got %+v", net.Nodes)
	}
}
