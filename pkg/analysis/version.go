package analysis

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CompareSchemaVersion reports whether a UnifiedAnalysis written under
// `written` can be read by code compiled against the current schema
// version: -1 older, 0 same, 1 newer (and therefore possibly carrying
// fields this build does not understand).
func CompareSchemaVersion(written string) (int, error) {
	cur, err := semver.NewVersion(SchemaVersion())
	if err != nil {
		return 0, fmt.Errorf("analysis: parse current schema version: %w", err)
	}
	got, err := semver.NewVersion(written)
	if err != nil {
		return 0, fmt.Errorf("analysis: parse stored schema version %q: %w", written, err)
	}
	return got.Compare(cur), nil
}

// ModelRevisionAtLeast reports whether a recorded model_revision satisfies
// a minimum semver constraint, used by reanalyze policies that only force
// re-analysis when the analyzer model has moved forward (§4.3's `force`
// flag is manual, but a future scheduled-reanalyze policy needs this).
func ModelRevisionAtLeast(revision, min string) (bool, error) {
	if revision == "" {
		return false, nil
	}
	c, err := semver.NewConstraint(">= " + min)
	if err != nil {
		return false, fmt.Errorf("analysis: parse constraint >= %s: %w", min, err)
	}
	v, err := semver.NewVersion(revision)
	if err != nil {
		return false, fmt.Errorf("analysis: parse model_revision %q: %w", revision, err)
	}
	return c.Check(v), nil
}
