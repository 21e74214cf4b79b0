package correlate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
)

// Hash returns the deterministic content hash of a CorrelationAnalysis
// (P5): RFC 8785 canonical JSON, SHA-256'd, sharing the exact
// canonicalization rule pkg/analysis uses for UnifiedAnalysis.Hash() so a
// package's two hash fields are computed the same way.
func (c *CorrelationAnalysis) Hash() (string, error) {
	canonical, err := analysis.CanonicalJSON(c)
	if err != nil {
		return "", fmt.Errorf("correlate: canonicalize for hash: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
