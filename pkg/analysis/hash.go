package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Hash returns the deterministic content hash of a UnifiedAnalysis: the
// RFC 8785 canonical JSON form of the struct, SHA-256'd. Two analyses with
// semantically identical fields (map key order, float formatting, etc.
// aside) always hash the same, which is what P5/P9's byte-for-byte
// reproducibility checks rely on.
func (u *UnifiedAnalysis) Hash() (string, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("analysis: marshal for hash: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("analysis: canonicalize for hash: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalJSON returns the RFC 8785 canonical form of any JSON-marshalable
// value. Shared by pkg/correlate for CorrelationAnalysis.Hash() (P5) so both
// hashing call sites agree on one canonicalization rule.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: transform: %w", err)
	}
	return canonical, nil
}
