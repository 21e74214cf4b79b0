package summary

import (
	"context"
	"testing"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/evidencekind"
)

type fakeCaseStore struct {
	shas     []string
	metas    map[string]*analysis.FileMetadata
	analyses map[string]*analysis.UnifiedAnalysis
}

func (f *fakeCaseStore) ListCaseSHAs(ctx context.Context, caseID string) ([]string, error) {
	return f.shas, nil
}

func (f *fakeCaseStore) LoadMetadata(ctx context.Context, sha256 string) (*analysis.FileMetadata, error) {
	return f.metas[sha256], nil
}

func (f *fakeCaseStore) LoadAnalysis(ctx context.Context, sha256 string) (*analysis.UnifiedAnalysis, bool, error) {
	ua, ok := f.analyses[sha256]
	return ua, ok, nil
}

func TestGenerateCaseSummaryRejectsEmptyCase(t *testing.T) {
	st := &fakeCaseStore{}
	_, err := GenerateCaseSummary(context.Background(), st, "case-1", Options{})
	if err == nil {
		t.Fatal("expected an error for a case with no linked evidence")
	}
}

func TestGenerateCaseSummarySkipsUnanalyzedEvidence(t *testing.T) {
	st := &fakeCaseStore{
		shas: []string{"sha-a", "sha-b"},
		metas: map[string]*analysis.FileMetadata{
			"sha-a": {Filename: "a.txt", EvidenceType: evidencekind.Document},
			"sha-b": {Filename: "b.txt", EvidenceType: evidencekind.Document},
		},
		analyses: map[string]*analysis.UnifiedAnalysis{
			"sha-a": {
				SHA256: "sha-a", EvidenceType: evidencekind.Document,
				Document: &analysis.DocumentAnalysis{Summary: "s", LegalSignificance: analysis.SigLow, Confidence: 0.8},
			},
		},
	}

	cs, err := GenerateCaseSummary(context.Background(), st, "case-1", Options{})
	if err != nil {
		t.Fatalf("GenerateCaseSummary: %v", err)
	}
	if len(cs.EvidenceSummaries) != 1 {
		t.Fatalf("len(EvidenceSummaries) = %d, want 1 (unanalyzed evidence excluded, not fatal)", len(cs.EvidenceSummaries))
	}
}

func TestGenerateCaseSummaryBuildsQuotesAndDeference(t *testing.T) {
	speaker := "Jane"
	quote := &analysis.QuotedText{Speaker: speaker, Text: "I quit"}
	st := &fakeCaseStore{
		shas: []string{"sha-a", "sha-b"},
		metas: map[string]*analysis.FileMetadata{
			"sha-a": {Filename: "a.txt", EvidenceType: evidencekind.Document},
			"sha-b": {Filename: "b.eml", EvidenceType: evidencekind.Email},
		},
		analyses: map[string]*analysis.UnifiedAnalysis{
			"sha-a": {
				SHA256: "sha-a", EvidenceType: evidencekind.Document,
				Document: &analysis.DocumentAnalysis{
					Summary: "s", LegalSignificance: analysis.SigLow, Confidence: 0.8,
					Entities: []analysis.Entity{{Name: "Jane", Type: analysis.EntityPerson, Confidence: 0.9, Quote: quote}},
				},
			},
			"sha-b": {
				SHA256: "sha-b", EvidenceType: evidencekind.Email,
				Email: &analysis.EmailAnalysis{
					ThreadSummary: "t", LegalSignificance: analysis.SigLow, Confidence: 0.8,
					Participants: []analysis.Participant{
						{Name: "Jane", DeferenceScore: 0.2},
						{Name: "Jane", DeferenceScore: 0.6},
					},
				},
			},
		},
	}

	cs, err := GenerateCaseSummary(context.Background(), st, "case-1", Options{})
	if err != nil {
		t.Fatalf("GenerateCaseSummary: %v", err)
	}
	quotes, ok := cs.OverallAssessment[KeyQuotedStatements].([]QuotedStatement)
	if !ok || len(quotes) != 1 {
		t.Fatalf("expected one collected quote, got %v", cs.OverallAssessment[KeyQuotedStatements])
	}

	deference, ok := cs.OverallAssessment[KeyPowerDynamics].(map[string]float64)
	if !ok {
		t.Fatalf("expected KeyPowerDynamics to be a map[string]float64, got %T", cs.OverallAssessment[KeyPowerDynamics])
	}
	if deference["Jane"] != 0.4 {
		t.Errorf("Jane's averaged deference = %v, want 0.4", deference["Jane"])
	}
}

func TestGenerateCaseSummaryRiskFlagBreakdown(t *testing.T) {
	st := &fakeCaseStore{
		shas: []string{"sha-a", "sha-b"},
		metas: map[string]*analysis.FileMetadata{
			"sha-a": {Filename: "a.txt", EvidenceType: evidencekind.Document},
			"sha-b": {Filename: "b.txt", EvidenceType: evidencekind.Document},
		},
		analyses: map[string]*analysis.UnifiedAnalysis{
			"sha-a": {
				SHA256: "sha-a", EvidenceType: evidencekind.Document,
				Document: &analysis.DocumentAnalysis{LegalSignificance: analysis.SigLow, Confidence: 0.8, RiskFlags: []string{"retaliation"}},
			},
			"sha-b": {
				SHA256: "sha-b", EvidenceType: evidencekind.Document,
				Document: &analysis.DocumentAnalysis{LegalSignificance: analysis.SigLow, Confidence: 0.8, RiskFlags: []string{"retaliation", "harassment"}},
			},
		},
	}

	cs, err := GenerateCaseSummary(context.Background(), st, "case-1", Options{})
	if err != nil {
		t.Fatalf("GenerateCaseSummary: %v", err)
	}
	breakdown, ok := cs.OverallAssessment[KeyRiskFlagBreakdown].(map[string]int)
	if !ok {
		t.Fatalf("expected KeyRiskFlagBreakdown to be a map[string]int, got %T", cs.OverallAssessment[KeyRiskFlagBreakdown])
	}
	if breakdown["retaliation"] != 2 || breakdown["harassment"] != 1 {
		t.Errorf("breakdown = %v, want retaliation=2 harassment=1", breakdown)
	}
}
