package correlate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
)

func TestNormalizeNameCaseFoldsAndStripsPunctuation(t *testing.T) {
	got := NormalizeName("  Paul  M. Boucherat, Jr.  ")
	want := "paul m boucherat jr"
	if got != want {
		t.Errorf("NormalizeName = %q, want %q", got, want)
	}
}

func TestNormalizeNameCollapsesWhitespace(t *testing.T) {
	got := NormalizeName("Jane\t\tDoe")
	if got != "jane doe" {
		t.Errorf("NormalizeName = %q, want %q", got, "jane doe")
	}
}

func TestExpandEmailLocalPartDottedName(t *testing.T) {
	got := ExpandEmailLocalPart("Paul.Boucherat.9241@example.com")
	if got != "Paul Boucherat" {
		t.Errorf("ExpandEmailLocalPart = %q, want %q", got, "Paul Boucherat")
	}
}

func TestExpandEmailLocalPartNonDottedReturnsEmpty(t *testing.T) {
	if got := ExpandEmailLocalPart("info@example.com"); got != "" {
		t.Errorf("ExpandEmailLocalPart = %q, want empty for a non-dotted local part", got)
	}
}

func docAnalysis(sha string, entities ...analysis.Entity) *analysis.UnifiedAnalysis {
	return &analysis.UnifiedAnalysis{
		SHA256: sha,
		Document: &analysis.DocumentAnalysis{
			Entities: entities,
		},
	}
}

func TestCanonicalizeEntitiesMergesByNormalizedNameAndType(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"bbb": docAnalysis("bbb", analysis.Entity{Name: "Jane Doe", Type: analysis.EntityPerson, Confidence: 0.9}),
		"aaa": docAnalysis("aaa", analysis.Entity{Name: "  JANE, Doe.", Type: analysis.EntityPerson, Confidence: 0.8}),
	}

	entities, err := CanonicalizeEntities(context.Background(), analyses, ResolveOptions{})
	if err != nil {
		t.Fatalf("CanonicalizeEntities: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("len(entities) = %d, want 1 (merged by normalized name+type)", len(entities))
	}
	if len(entities[0].Occurrences) != 2 {
		t.Fatalf("len(Occurrences) = %d, want 2", len(entities[0].Occurrences))
	}
}

func TestCanonicalizeEntitiesDistinguishesByType(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"a": docAnalysis("a", analysis.Entity{Name: "Acme", Type: analysis.EntityOrganization, Confidence: 0.9}),
		"b": docAnalysis("b", analysis.Entity{Name: "Acme", Type: analysis.EntityPerson, Confidence: 0.9}),
	}

	entities, err := CanonicalizeEntities(context.Background(), analyses, ResolveOptions{})
	if err != nil {
		t.Fatalf("CanonicalizeEntities: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("len(entities) = %d, want 2 (distinct types must not merge)", len(entities))
	}
}

func TestCanonicalizeEntitiesDeterministicOrder(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"zzz": docAnalysis("zzz", analysis.Entity{Name: "Zelda", Type: analysis.EntityPerson, Confidence: 0.9}),
		"aaa": docAnalysis("aaa", analysis.Entity{Name: "Anna", Type: analysis.EntityPerson, Confidence: 0.9}),
	}

	var runs [][]CanonicalEntity
	for i := 0; i < 5; i++ {
		entities, err := CanonicalizeEntities(context.Background(), analyses, ResolveOptions{})
		if err != nil {
			t.Fatalf("CanonicalizeEntities: %v", err)
		}
		runs = append(runs, entities)
	}
	for i := 1; i < len(runs); i++ {
		if len(runs[i]) != len(runs[0]) {
			t.Fatalf("run %d produced %d entities, want %d", i, len(runs[i]), len(runs[0]))
		}
		for j := range runs[0] {
			if runs[i][j].CanonicalName != runs[0][j].CanonicalName {
				t.Fatalf("run %d order diverged at index %d: %q != %q (P5)", i, j, runs[i][j].CanonicalName, runs[0][j].CanonicalName)
			}
		}
	}
	if runs[0][0].CanonicalName != "anna" || runs[0][1].CanonicalName != "zelda" {
		t.Errorf("expected sorted-by-name order, got %q, %q", runs[0][0].CanonicalName, runs[0][1].CanonicalName)
	}
}

func TestCanonicalizeEntitiesExpandsEmailLocalPart(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"a": docAnalysis("a", analysis.Entity{Name: "paul.boucherat.1@example.com", Type: analysis.EntityPerson, Confidence: 0.9}),
		"b": docAnalysis("b", analysis.Entity{Name: "Paul Boucherat", Type: analysis.EntityPerson, Confidence: 0.9}),
	}

	entities, err := CanonicalizeEntities(context.Background(), analyses, ResolveOptions{})
	if err != nil {
		t.Fatalf("CanonicalizeEntities: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("len(entities) = %d, want 1 (expanded local part should merge with the plain name)", len(entities))
	}
}

// fakeMatchClient always returns a single scripted match/confidence pair.
type fakeMatchClient struct {
	match      bool
	confidence float64
	calls      int
}

func (f *fakeMatchClient) CallStructured(ctx context.Context, req llm.CallRequest) (json.RawMessage, llm.CompletionStatus, error) {
	f.calls++
	body, _ := json.Marshal(map[string]interface{}{"match": f.match, "confidence": f.confidence})
	return json.RawMessage(body), llm.Completed, nil
}

func TestCanonicalizeEntitiesAIResolveMergesOnHighConfidence(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"a": docAnalysis("a", analysis.Entity{Name: "Bob Smith", Type: analysis.EntityPerson, Confidence: 0.9}),
		"b": docAnalysis("b", analysis.Entity{Name: "Robert Smith", Type: analysis.EntityPerson, Confidence: 0.9}),
	}
	client := &fakeMatchClient{match: true, confidence: 0.9}

	entities, err := CanonicalizeEntities(context.Background(), analyses, ResolveOptions{
		AIResolve: true, Client: client, Model: "m",
	})
	if err != nil {
		t.Fatalf("CanonicalizeEntities: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("len(entities) = %d, want 1 (AI resolution should merge a confident match)", len(entities))
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
}

func TestCanonicalizeEntitiesAIResolveDoesNotMergeBelowConfidenceThreshold(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"a": docAnalysis("a", analysis.Entity{Name: "Bob Smith", Type: analysis.EntityPerson, Confidence: 0.9}),
		"b": docAnalysis("b", analysis.Entity{Name: "Robert Smith", Type: analysis.EntityPerson, Confidence: 0.9}),
	}
	client := &fakeMatchClient{match: true, confidence: 0.5}

	entities, err := CanonicalizeEntities(context.Background(), analyses, ResolveOptions{
		AIResolve: true, Client: client, Model: "m",
	})
	if err != nil {
		t.Fatalf("CanonicalizeEntities: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("len(entities) = %d, want 2 (below-threshold confidence must never merge)", len(entities))
	}
}

func TestCanonicalizeEntitiesAIResolveRespectsMaxCalls(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"a": docAnalysis("a", analysis.Entity{Name: "Alice One", Type: analysis.EntityPerson, Confidence: 0.9}),
		"b": docAnalysis("b", analysis.Entity{Name: "Beth Two", Type: analysis.EntityPerson, Confidence: 0.9}),
		"c": docAnalysis("c", analysis.Entity{Name: "Carl Three", Type: analysis.EntityPerson, Confidence: 0.9}),
	}
	client := &fakeMatchClient{match: true, confidence: 0.9}

	_, err := CanonicalizeEntities(context.Background(), analyses, ResolveOptions{
		AIResolve: true, Client: client, Model: "m", MaxCalls: 1,
	})
	if err != nil {
		t.Fatalf("CanonicalizeEntities: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1 (MaxCalls must cap pairwise comparisons)", client.calls)
	}
}

func TestCanonicalizeEntitiesAIResolveSameInitialOnly(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"a": docAnalysis("a", analysis.Entity{Name: "Alice One", Type: analysis.EntityPerson, Confidence: 0.9}),
		"b": docAnalysis("b", analysis.Entity{Name: "Zed Two", Type: analysis.EntityPerson, Confidence: 0.9}),
	}
	client := &fakeMatchClient{match: true, confidence: 0.9}

	_, err := CanonicalizeEntities(context.Background(), analyses, ResolveOptions{
		AIResolve: true, Client: client, Model: "m", SameInitialOnly: true,
	})
	if err != nil {
		t.Fatalf("CanonicalizeEntities: %v", err)
	}
	if client.calls != 0 {
		t.Errorf("calls = %d, want 0 (SameInitialOnly should filter out a->z pair before any call)", client.calls)
	}
}

func TestSameInitial(t *testing.T) {
	if !sameInitial("alice", "Anna") {
		t.Error("expected same-initial match for alice/Anna")
	}
	if sameInitial("alice", "bob") {
		t.Error("expected no match for alice/bob")
	}
	if sameInitial("", "anna") {
		t.Error("expected no match when one name is empty")
	}
}
