package summary

import (
	"context"
	"fmt"
	"sort"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/config"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/correlate"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/toolkiterrors"
)

// Store is the narrow slice of pkg/store's API this package needs.
type Store interface {
	ListCaseSHAs(ctx context.Context, caseID string) ([]string, error)
	LoadMetadata(ctx context.Context, sha256 string) (*analysis.FileMetadata, error)
	LoadAnalysis(ctx context.Context, sha256 string) (*analysis.UnifiedAnalysis, bool, error)
}

// Options configures case summary generation (§6 summary.* keys).
type Options struct {
	CaseType       config.CaseType
	ChunkThreshold int
	ChunkSize      int
	Model          string
	Client         llm.StructuredClient
	DetectLegalPatterns bool
	ResolveEntities     correlate.ResolveOptions
}

// GenerateCaseSummary implements `generate_case_summary(case_id) ->
// CaseSummary` (§4.8).
func GenerateCaseSummary(ctx context.Context, st Store, caseID string, opts Options) (*CaseSummary, error) {
	shas, err := st.ListCaseSHAs(ctx, caseID)
	if err != nil {
		return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: "list case evidence", Err: err}
	}
	if len(shas) == 0 {
		return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: "case has no linked evidence"}
	}

	metas := make(map[string]*analysis.FileMetadata, len(shas))
	analyses := make(map[string]*analysis.UnifiedAnalysis, len(shas))
	var evidenceSummaries []EvidenceSummary

	for _, sha := range shas {
		meta, err := st.LoadMetadata(ctx, sha)
		if err != nil {
			return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: fmt.Sprintf("load metadata sha256=%s", sha), Err: err}
		}
		metas[sha] = meta

		ua, ok, err := st.LoadAnalysis(ctx, sha)
		if err != nil {
			return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: fmt.Sprintf("load analysis sha256=%s", sha), Err: err}
		}
		if !ok {
			continue // not yet analyzed; excluded from correlation, not fatal
		}
		analyses[sha] = ua
		evidenceSummaries = append(evidenceSummaries, buildEvidenceSummary(meta, ua))
	}

	entities, err := correlate.CanonicalizeEntities(ctx, analyses, opts.ResolveEntities)
	if err != nil {
		return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: "canonicalize entities", Err: err}
	}

	timeline := correlate.BuildTimeline(metas, analyses)
	gaps := correlate.DetectGaps(timeline, correlate.DefaultGapThreshold)

	seqDetector, err := correlate.NewSequenceDetector()
	if err != nil {
		return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: "build sequence detector", Err: err}
	}
	sequences, err := seqDetector.Detect(timeline, correlate.DefaultSequenceRules)
	if err != nil {
		return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: "detect temporal sequences", Err: err}
	}

	network := correlate.BuildRelationshipNetwork(entities, analyses)

	result := &correlate.CorrelationAnalysis{
		CaseID:              caseID,
		Entities:            entities,
		TimelineEvents:       timeline,
		TimelineGaps:        gaps,
		TemporalSequences:   sequences,
		RelationshipNetwork: network,
	}

	if opts.DetectLegalPatterns && opts.Client != nil {
		patterns, err := correlate.DetectLegalPatterns(ctx, opts.Client, opts.Model, caseID, renderEvidence(evidenceSummaries), shas)
		if err != nil {
			return nil, err
		}
		result.LegalPatterns = patterns
	}

	assessment := buildOverallAssessment(evidenceSummaries, result, analyses)

	cs := &CaseSummary{
		CaseID:            caseID,
		EvidenceSummaries: evidenceSummaries,
		CorrelationResult: result,
		OverallAssessment: assessment,
	}

	if opts.Client != nil {
		threshold, chunkSize := opts.ChunkThreshold, opts.ChunkSize
		if threshold <= 0 {
			threshold = 50
		}
		if chunkSize <= 0 {
			chunkSize = 30
		}
		exec, err := GenerateExecutiveSummary(ctx, opts.Client, opts.Model, opts.CaseType, evidenceSummaries, threshold, chunkSize)
		if err != nil {
			return nil, &toolkiterrors.CorrelationError{CaseID: caseID, Reason: "generate executive summary", Err: err}
		}
		cs.ExecutiveSummary = exec
		cs.OverallAssessment[KeyForensicSummary] = exec.Narrative
		cs.OverallAssessment[KeyForensicLegalImplications] = exec.KeyFindings
		cs.OverallAssessment[KeyForensicRecommendedActions] = exec.RecommendedActions
	}

	return cs, nil
}

func buildEvidenceSummary(meta *analysis.FileMetadata, ua *analysis.UnifiedAnalysis) EvidenceSummary {
	es := EvidenceSummary{
		SHA256:       ua.SHA256,
		Filename:     meta.Filename,
		EvidenceType: string(ua.EvidenceType),
	}
	switch {
	case ua.Document != nil:
		es.KeyFindings = ua.Document.Summary
		es.LegalSignificance = ua.Document.LegalSignificance
		es.RiskFlags = ua.Document.RiskFlags
		es.Confidence = ua.Document.Confidence
	case ua.Email != nil:
		es.KeyFindings = ua.Email.ThreadSummary
		es.LegalSignificance = ua.Email.LegalSignificance
		es.RiskFlags = ua.Email.RiskFlags
		es.Confidence = ua.Email.Confidence
	case ua.Image != nil:
		es.KeyFindings = ua.Image.SceneDescription
		es.OCRText = ua.Image.OCRText
		es.Confidence = ua.Image.Confidence
	}
	return es
}

// buildOverallAssessment computes the §4.8 step 3 map from already-built
// correlation results and per-evidence summaries. The deterministic keys
// (risk_flag_breakdown, relationship_network, quoted_statements,
// power_dynamics) are computed directly from the loaded analyses, and
// _forensic_risk_assessment is set when legal patterns were detected.
// GenerateCaseSummary fills the other _forensic_* keys from the executive
// summary when an LLM client is wired; nothing in this package sets
// tribunal_probability. Generators treat a missing key as "not yet
// available" rather than an error (§4.9's safe-default access pattern).
func buildOverallAssessment(evidence []EvidenceSummary, result *correlate.CorrelationAnalysis, analyses map[string]*analysis.UnifiedAnalysis) OverallAssessment {
	breakdown := map[string]int{}
	for _, e := range evidence {
		for _, flag := range e.RiskFlags {
			breakdown[flag]++
		}
	}

	assessment := OverallAssessment{
		KeyRiskFlagBreakdown:   breakdown,
		KeyRelationshipNetwork: result.RelationshipNetwork,
		KeyQuotedStatements:    collectQuotes(analyses),
		KeyPowerDynamics:       averageDeference(analyses),
	}

	if result.LegalPatterns != nil {
		assessment[KeyForensicRiskAssessment] = result.LegalPatterns
	}

	return assessment
}

// collectQuotes pulls every speaker-attributed quotation out of the
// document analyses in the case, in sorted-SHA order for determinism.
func collectQuotes(analyses map[string]*analysis.UnifiedAnalysis) []QuotedStatement {
	var shas []string
	for sha := range analyses {
		shas = append(shas, sha)
	}
	sort.Strings(shas)

	var quotes []QuotedStatement
	for _, sha := range shas {
		ua := analyses[sha]
		if ua.Document == nil {
			continue
		}
		for _, e := range ua.Document.Entities {
			if e.Quote == nil {
				continue
			}
			quotes = append(quotes, QuotedStatement{Speaker: e.Quote.Speaker, Text: e.Quote.Text, SHA256: sha})
		}
	}
	return quotes
}

// averageDeference summarizes power dynamics as the mean participant
// deference score across every email in the case, 0 meaning dominant and
// 1 meaning deferential (glossary definition in pkg/analysis).
func averageDeference(analyses map[string]*analysis.UnifiedAnalysis) map[string]float64 {
	totals := map[string]float64{}
	counts := map[string]int{}
	for _, ua := range analyses {
		if ua.Email == nil {
			continue
		}
		for _, p := range ua.Email.Participants {
			name := p.Name
			if name == "" {
				name = p.Address
			}
			totals[name] += p.DeferenceScore
			counts[name]++
		}
	}
	result := make(map[string]float64, len(totals))
	for name, total := range totals {
		result[name] = total / float64(counts[name])
	}
	return result
}
