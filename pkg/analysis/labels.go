package analysis

import (
	"fmt"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/evidencekind"
)

// GenerateLabels derives the closed label set for a UnifiedAnalysis (§4.3).
// Labels are deterministic functions of the payload fields, never free-form
// text, so the output always satisfies P7 (label closure).
func GenerateLabels(u *UnifiedAnalysis) ([]string, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	labels := []string{string(u.EvidenceType)}

	switch u.EvidenceType {
	case evidencekind.Document:
		d := u.Document
		labels = append(labels, fmt.Sprintf("%s-significance", d.LegalSignificance))
		for _, flag := range d.RiskFlags {
			labels = append(labels, flag)
		}
		labels = append(labels, fmt.Sprintf("doctype-%s", d.DocumentType))
	case evidencekind.Email:
		e := u.Email
		labels = append(labels, fmt.Sprintf("%s-significance", e.LegalSignificance))
		for _, flag := range e.RiskFlags {
			labels = append(labels, flag)
		}
		labels = append(labels, fmt.Sprintf("pattern-%s", e.CommunicationPattern))
	case evidencekind.Image:
		labels = append(labels, "visual-evidence")
	}

	if err := ValidateLabelClosure(labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// closedLabelPrefixes and closedLabelExact together define the full label
// vocabulary an evidence-toolkit install may emit. Anything else fails
// ValidateLabelClosure (P7).
var closedLabelExact = map[string]bool{
	string(evidencekind.Document): true,
	string(evidencekind.Image):    true,
	string(evidencekind.Email):    true,
	string(evidencekind.Other):    true,
	"visual-evidence":             true,
}

var closedLabelPrefixes = []string{
	"critical-significance", "high-significance", "medium-significance", "low-significance",
	"doctype-email", "doctype-letter", "doctype-contract", "doctype-filing", "doctype-other",
	"pattern-professional", "pattern-escalating", "pattern-hostile", "pattern-retaliatory",
}

// ValidateLabelClosure rejects any label outside the closed vocabulary,
// except risk-flag labels, which are themselves a closed set defined by
// RiskFlagVocabulary — any other value is rejected.
func ValidateLabelClosure(labels []string) error {
	for _, l := range labels {
		if closedLabelExact[l] {
			continue
		}
		matched := false
		for _, p := range closedLabelPrefixes {
			if l == p {
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if RiskFlagVocabulary[l] {
			continue
		}
		return fmt.Errorf("analysis: label %q is not in the closed vocabulary", l)
	}
	return nil
}

// RiskFlagVocabulary is the closed set of risk-flag tags an analyzer may
// emit for documents and emails. Kept as a variable (not const) so a
// deployment can extend it in one place without touching call sites.
var RiskFlagVocabulary = map[string]bool{
	"retaliation":        true,
	"discrimination":     true,
	"harassment":         true,
	"breach-of-contract": true,
	"defamation":         true,
	"privileged":         true,
	"threatening":        true,
	"non-compliance":     true,
}
