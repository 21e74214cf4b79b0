// Package correlate implements the correlation engine (C6) and the
// legal-pattern detector (C7): entity canonicalization, timeline
// reconstruction, temporal-sequence detection, and LLM-driven pattern
// detection over a case's UnifiedAnalysis records.
package correlate

import (
	"time"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
)

// Occurrence is one evidence-scoped mention folded into a CanonicalEntity.
type Occurrence struct {
	SHA256     string  `json:"sha256"`
	Name       string  `json:"name"` // as originally extracted, before normalization
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context"`
}

// CanonicalEntity is one case-scoped, merged entity identity.
type CanonicalEntity struct {
	CanonicalName string               `json:"canonical_name"`
	Type          analysis.EntityType  `json:"type"`
	Occurrences   []Occurrence         `json:"occurrences"`
}

// TimelineEvent is one dated, sourced event in the reconstructed timeline.
type TimelineEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	SHA256       string    `json:"sha256"`
	EventID      string    `json:"event_id"`
	Description  string    `json:"description"`
	Source       string    `json:"source"` // "filesystem" | "email_header" | "entity_extraction"
	Significance analysis.Significance `json:"significance,omitempty"`
	RiskFlags    []string  `json:"risk_flags,omitempty"`
}

// GapSignificance is the closed coarse significance tag for a timeline gap.
type GapSignificance string

const (
	GapLow    GapSignificance = "low"
	GapMedium GapSignificance = "medium"
	GapHigh   GapSignificance = "high"
)

// TimelineGap is a material stretch with no recorded events.
type TimelineGap struct {
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	Significance GapSignificance `json:"significance"`
	Rationale    string          `json:"rationale"`
}

// SequenceKind is the closed set of detected temporal-sequence shapes.
type SequenceKind string

const (
	SequenceComplaintToTermination SequenceKind = "complaint-suspension-termination"
	SequenceEscalatingHostility    SequenceKind = "escalating-hostility"
)

// TemporalSequence is an ordered chain of events matching a pattern rule.
type TemporalSequence struct {
	Kind       SequenceKind    `json:"kind"`
	Events     []TimelineEvent `json:"events"`
	Confidence float64         `json:"confidence"`
}

// ContradictionType is the closed set of contradiction classifications.
type ContradictionType string

const (
	ContradictionFactual     ContradictionType = "factual"
	ContradictionTemporal    ContradictionType = "temporal"
	ContradictionAttribution ContradictionType = "attribution"
)

// Contradiction is two conflicting statements and their sources.
type Contradiction struct {
	StatementA string            `json:"statement_a"`
	StatementB string            `json:"statement_b"`
	SourceA    string            `json:"source_a"` // sha256
	SourceB    string            `json:"source_b"` // sha256
	Type       ContradictionType `json:"type"`
	Severity   float64           `json:"severity"`
}

// CorroborationStrength is the closed strength tag for a corroboration link.
type CorroborationStrength string

const (
	CorroborationWeak     CorroborationStrength = "weak"
	CorroborationModerate CorroborationStrength = "moderate"
	CorroborationStrong   CorroborationStrength = "strong"
)

// Corroboration is a claim supported by two or more pieces of evidence.
type Corroboration struct {
	Claim       string                `json:"claim"`
	SourceSHAs  []string              `json:"source_shas"`
	Strength    CorroborationStrength `json:"strength"`
	Confidence  float64               `json:"confidence"`
}

// GapPriority is the closed priority tag for an evidence gap.
type GapPriority string

const (
	GapPriorityCritical GapPriority = "critical"
	GapPriorityHigh     GapPriority = "high"
	GapPriorityMedium   GapPriority = "medium"
)

// EvidenceGap is a described missing piece of evidence.
type EvidenceGap struct {
	Description string      `json:"description"`
	Priority    GapPriority `json:"priority"`
}

// LegalPatternAnalysis is C7's output over a case's correlated evidence.
type LegalPatternAnalysis struct {
	Contradictions  []Contradiction  `json:"contradictions"`
	Corroborations  []Corroboration  `json:"corroborations"`
	EvidenceGaps    []EvidenceGap    `json:"evidence_gaps"`
}

// NetworkNode is one entity in the relationship network, with its
// computed centrality score (open question — see DESIGN.md).
type NetworkNode struct {
	Name       string  `json:"name"`
	Centrality float64 `json:"centrality"`
}

// NetworkEdge is an undirected co-occurrence or email-participation link.
type NetworkEdge struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Weight int    `json:"weight"`
}

// RelationshipNetwork is the case-scoped entity graph.
type RelationshipNetwork struct {
	Nodes []NetworkNode `json:"nodes"`
	Edges []NetworkEdge `json:"edges"`
}

// CorrelationAnalysis is C6/C7's full case-scoped output.
type CorrelationAnalysis struct {
	CaseID              string               `json:"case_id"`
	Entities            []CanonicalEntity    `json:"entities"`
	TimelineEvents       []TimelineEvent      `json:"timeline_events"`
	TimelineGaps        []TimelineGap        `json:"timeline_gaps"`
	TemporalSequences   []TemporalSequence   `json:"temporal_sequences"`
	LegalPatterns       *LegalPatternAnalysis `json:"legal_patterns,omitempty"`
	RelationshipNetwork RelationshipNetwork  `json:"relationship_network"`
}
