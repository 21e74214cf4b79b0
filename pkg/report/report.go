// Package report implements the report generator framework (C9): a fixed
// contract of has-data/filename/title/generate, and nine generators each
// bound to one section of a case summary. A generator that reports no data
// is skipped by the caller rather than emitting an empty document.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

// Generator is the contract every report section implements.
type Generator interface {
	HasData(cs *summary.CaseSummary) bool
	Filename() string
	Title() string
	Generate(cs *summary.CaseSummary) (string, error)
}

// All returns the nine report generators in a stable, documented order.
func All() []Generator {
	return []Generator{
		forensicLegalOpinionGenerator{},
		financialRiskAssessmentGenerator{},
		legalPatternsGenerator{},
		timelineReconstructionGenerator{},
		quotedStatementsGenerator{},
		relationshipNetworkGenerator{},
		powerDynamicsGenerator{},
		imageOCRGenerator{},
		executiveSummaryGenerator{},
	}
}

// baseGenerator carries helpers shared by every concrete generator. It is
// embedded, not inherited from — there is no behavior here that a
// generator is required to use.
type baseGenerator struct{}

func (baseGenerator) truncateSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func (baseGenerator) heading(title string) string {
	return fmt.Sprintf("# %s\n\n", title)
}

// stringList defensively coerces an OverallAssessment value that should be
// a list of strings but arrived as []interface{} (e.g. after a JSON
// round-trip) or a single string.
func stringList(v interface{}) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}

// stringVal defensively coerces an OverallAssessment value to a string,
// returning def when the key is absent or of an unexpected type.
func stringVal(m summary.OverallAssessment, key, def string) string {
	v, ok := m[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFloatKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// Result is one generator's outcome: its rendered body on success, or the
// error it returned. The driver records both and keeps going.
type Result struct {
	Generator Generator
	Skipped   bool
	Body      string
	Err       error
}

// RunAll invokes every applicable generator against cs, skipping ones
// whose HasData reports false and recording, not propagating, any
// individual Generate error (§4.9: "invoked independently and may fail
// without aborting others").
func RunAll(cs *summary.CaseSummary) []Result {
	gens := All()
	results := make([]Result, 0, len(gens))
	for _, g := range gens {
		if !g.HasData(cs) {
			results = append(results, Result{Generator: g, Skipped: true})
			continue
		}
		body, err := g.Generate(cs)
		results = append(results, Result{Generator: g, Body: body, Err: err})
	}
	return results
}
