// Package analysis defines the evidence data model: file metadata, the
// append-only chain of custody, the three typed analysis payloads, and the
// UnifiedAnalysis container that ties one content address to exactly one of
// them (invariant I5).
package analysis

import (
	"fmt"
	"time"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/evidencekind"
)

// FileMetadata is immutable after ingest (spec §3).
type FileMetadata struct {
	SHA256       string     `json:"sha256"`
	Filename     string     `json:"filename"`
	SizeBytes    int64      `json:"size_bytes"`
	MIMEType     string     `json:"mime_type"`
	Extension    string     `json:"extension"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	ModifiedAt   *time.Time `json:"modified_at,omitempty"`
	IngestedAt   time.Time  `json:"ingested_at"`
	EvidenceType evidencekind.Kind `json:"evidence_type"`
}

// CustodyAction is the closed set of chain-of-custody action tags (§3).
type CustodyAction string

const (
	ActionIngest    CustodyAction = "ingest"
	ActionAnalyze   CustodyAction = "analyze"
	ActionReanalyze CustodyAction = "reanalyze"
	ActionExport    CustodyAction = "export"
	ActionAddToCase CustodyAction = "add-to-case"
)

// CustodyEvent is one append-only entry in a SHA-256's chain of custody.
// Field names and JSON shape match the stable schema in spec §6.
type CustodyEvent struct {
	Timestamp time.Time              `json:"ts"`
	Actor     string                 `json:"actor"`
	Action    CustodyAction          `json:"action"`
	Note      *string                `json:"note"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// Significance is the ordered forensic-importance label (§3 glossary).
type Significance string

const (
	SigCritical Significance = "critical"
	SigHigh     Significance = "high"
	SigMedium   Significance = "medium"
	SigLow      Significance = "low"
)

// Sentiment is the closed sentiment tag for DocumentAnalysis.
type Sentiment string

const (
	SentimentHostile       Sentiment = "hostile"
	SentimentNeutral       Sentiment = "neutral"
	SentimentProfessional  Sentiment = "professional"
)

// EntityType is the closed set of entity classifications.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityDate         EntityType = "date"
	EntityLegalTerm    EntityType = "legal_term"
)

// QuotedText carries a speaker-attributed quotation extracted from evidence.
type QuotedText struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Entity is one extracted, typed mention within an artifact.
type Entity struct {
	Name         string      `json:"name"`
	Type         EntityType  `json:"type"`
	Confidence   float64     `json:"confidence"`
	Context      string      `json:"context"`
	Relationship *string     `json:"relationship,omitempty"`
	Quote        *QuotedText `json:"quote,omitempty"`
	AssociatedEvent *string  `json:"associated_event,omitempty"`
}

// DocumentType is the closed document-category tag.
type DocumentType string

const (
	DocTypeEmail    DocumentType = "email"
	DocTypeLetter   DocumentType = "letter"
	DocTypeContract DocumentType = "contract"
	DocTypeFiling   DocumentType = "filing"
	DocTypeOther    DocumentType = "other"
)

// DocumentAnalysis is the typed payload produced by the document analyzer.
type DocumentAnalysis struct {
	Summary          string       `json:"summary"`
	Entities         []Entity     `json:"entities"`
	DocumentType     DocumentType `json:"document_type"`
	Sentiment        Sentiment    `json:"sentiment"`
	LegalSignificance Significance `json:"legal_significance"`
	RiskFlags        []string     `json:"risk_flags"`
	Confidence       float64      `json:"confidence"`

	// Deterministic statistics computed alongside the LLM call (§4.5),
	// used by downstream visualizations (image_ocr-adjacent word clouds).
	WordFrequency map[string]int `json:"word_frequency"`
	UniqueWords   int            `json:"unique_words"`
}

// ImageAnalysis is the typed payload produced by the image analyzer.
type ImageAnalysis struct {
	SceneDescription string   `json:"scene_description"`
	OCRText          string   `json:"ocr_text"`
	DetectedObjects  []string `json:"detected_objects"`
	Confidence       float64  `json:"confidence"`
}

// ParticipantRole is the closed email-participant role tag.
type ParticipantRole string

const (
	RoleSender    ParticipantRole = "sender"
	RoleRecipient ParticipantRole = "recipient"
	RoleCC        ParticipantRole = "cc"
	RoleBCC       ParticipantRole = "bcc"
)

// Participant carries full per-sender/recipient metadata, preserved
// downstream rather than collapsed to a count (spec §4.5).
type Participant struct {
	Name              string          `json:"name"`
	Address           string          `json:"address"`
	Role              ParticipantRole `json:"role"`
	InteractionCount  int             `json:"interaction_count"`
	FirstInteraction  *time.Time      `json:"first_interaction,omitempty"`
	LastInteraction   *time.Time      `json:"last_interaction,omitempty"`
	// DeferenceScore in [0,1]; 0 dominant, 1 deferential (glossary).
	DeferenceScore float64 `json:"deference_score"`
}

// CommunicationPattern is the closed email-tone tag.
type CommunicationPattern string

const (
	PatternProfessional CommunicationPattern = "professional"
	PatternEscalating    CommunicationPattern = "escalating"
	PatternHostile       CommunicationPattern = "hostile"
	PatternRetaliatory   CommunicationPattern = "retaliatory"
)

// EmailAnalysis is the typed payload produced by the email analyzer.
type EmailAnalysis struct {
	Participants          []Participant        `json:"participants"`
	ThreadSummary         string               `json:"thread_summary"`
	CommunicationPattern  CommunicationPattern `json:"communication_pattern"`
	EscalationDetected    bool                 `json:"escalation_detected"`
	LegalSignificance     Significance         `json:"legal_significance"`
	RiskFlags             []string             `json:"risk_flags"`
	Confidence            float64              `json:"confidence"`
}

// UnifiedAnalysis ties one SHA-256 to exactly one typed payload (I5), is
// timestamped, labeled (§4.3), and multi-case (carries a set of case IDs).
type UnifiedAnalysis struct {
	SHA256       string            `json:"sha256"`
	EvidenceType evidencekind.Kind `json:"evidence_type"`
	AnalyzedAt   time.Time         `json:"analyzed_at"`
	ModelID      string            `json:"model_id"`
	ModelRevision string           `json:"model_revision"`
	Labels       []string          `json:"labels"`
	CaseIDs      []string          `json:"case_ids"`

	Document *DocumentAnalysis `json:"document_analysis,omitempty"`
	Image    *ImageAnalysis    `json:"image_analysis,omitempty"`
	Email    *EmailAnalysis    `json:"email_analysis,omitempty"`
}

// Validate enforces invariant I5: exactly one typed payload, matching
// evidence_type, plus the confidence-range invariant I6 on every nested
// confidence field it can reach directly.
func (u *UnifiedAnalysis) Validate() error {
	present := 0
	if u.Document != nil {
		present++
	}
	if u.Image != nil {
		present++
	}
	if u.Email != nil {
		present++
	}
	if present != 1 {
		return fmt.Errorf("analysis: exactly one typed payload required, got %d", present)
	}

	switch u.EvidenceType {
	case evidencekind.Document:
		if u.Document == nil {
			return fmt.Errorf("analysis: evidence_type=document but document payload is nil")
		}
		if err := checkConfidence(u.Document.Confidence); err != nil {
			return err
		}
		for _, e := range u.Document.Entities {
			if err := checkConfidence(e.Confidence); err != nil {
				return err
			}
		}
	case evidencekind.Image:
		if u.Image == nil {
			return fmt.Errorf("analysis: evidence_type=image but image payload is nil")
		}
		if err := checkConfidence(u.Image.Confidence); err != nil {
			return err
		}
	case evidencekind.Email:
		if u.Email == nil {
			return fmt.Errorf("analysis: evidence_type=email but email payload is nil")
		}
		if err := checkConfidence(u.Email.Confidence); err != nil {
			return err
		}
		for _, p := range u.Email.Participants {
			if err := checkConfidence(p.DeferenceScore); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("analysis: evidence_type %q cannot carry a typed analysis payload", u.EvidenceType)
	}

	return nil
}

func checkConfidence(c float64) error {
	if c < 0 || c > 1 {
		return fmt.Errorf("analysis: confidence %v out of [0,1]", c)
	}
	return nil
}

// HasCase reports whether the given case ID is already linked.
func (u *UnifiedAnalysis) HasCase(caseID string) bool {
	for _, id := range u.CaseIDs {
		if id == caseID {
			return true
		}
	}
	return false
}
