package correlate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
)

var punctuation = regexp.MustCompile(`[[:punct:]]+`)
var whitespace = regexp.MustCompile(`\s+`)
var emailLocalPart = regexp.MustCompile(`^([A-Za-z]+)[._]([A-Za-z]+)(?:\.\d+)?@`)

var caseFolder = cases.Fold()

// NormalizeName applies the deterministic normalization rule from §4.6:
// lowercase, trim, strip punctuation, collapse whitespace. Unicode
// case-folding (golang.org/x/text/cases) is used instead of strings.ToLower
// so accented names fold the same way regardless of source encoding.
func NormalizeName(raw string) string {
	folded := caseFolder.String(raw)
	stripped := punctuation.ReplaceAllString(folded, " ")
	collapsed := whitespace.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

// ExpandEmailLocalPart converts an email local-part like
// "Paul.Boucherat.9241" into the candidate full name "Paul Boucherat"
// (§4.6). Returns "" if the local part doesn't look like a dotted name.
func ExpandEmailLocalPart(address string) string {
	m := emailLocalPart.FindStringSubmatch(address)
	if m == nil {
		return ""
	}
	return strings.Title(strings.ToLower(m[1])) + " " + strings.Title(strings.ToLower(m[2])) //nolint:staticcheck // simple ASCII name casing, not locale text
}

// groupKey identifies entities that are candidates to merge: same
// normalized name, same type.
type groupKey struct {
	Name string
	Type analysis.EntityType
}

// CanonicalizeEntities merges extracted entities across a case's analyses
// by normalized-name-and-type equality (§4.6, string-based pass), then
// optionally by single-to-single AI resolution for pairs the string pass
// left distinct.
func CanonicalizeEntities(ctx context.Context, analyses map[string]*analysis.UnifiedAnalysis, opts ResolveOptions) ([]CanonicalEntity, error) {
	groups := map[groupKey]*CanonicalEntity{}

	addOccurrence := func(sha256 string, e analysis.Entity) {
		name := NormalizeName(e.Name)
		if expanded := ExpandEmailLocalPart(e.Name); expanded != "" {
			name = NormalizeName(expanded)
		}
		key := groupKey{Name: name, Type: e.Type}
		ce, ok := groups[key]
		if !ok {
			ce = &CanonicalEntity{CanonicalName: name, Type: e.Type}
			groups[key] = ce
		}
		ce.Occurrences = append(ce.Occurrences, Occurrence{
			SHA256: sha256, Name: e.Name, Confidence: e.Confidence, Context: e.Context,
		})
	}

	// Stable iteration order: sort SHA-256 keys first so output never
	// depends on map iteration order (P5).
	shas := make([]string, 0, len(analyses))
	for sha := range analyses {
		shas = append(shas, sha)
	}
	sort.Strings(shas)

	for _, sha := range shas {
		ua := analyses[sha]
		if ua.Document != nil {
			for _, e := range ua.Document.Entities {
				addOccurrence(sha, e)
			}
		}
	}

	entities := make([]CanonicalEntity, 0, len(groups))
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Type < keys[j].Type
	})
	for _, k := range keys {
		entities = append(entities, *groups[k])
	}

	if opts.AIResolve {
		var err error
		entities, err = aiResolveSingletons(ctx, entities, opts)
		if err != nil {
			return nil, err
		}
	}

	return entities, nil
}

// ResolveOptions configures the optional AI single-to-single resolution
// pass (§4.6, Open Question in spec §9).
type ResolveOptions struct {
	AIResolve      bool
	Client         llm.StructuredClient
	Model          string
	MaxCalls       int  // default 50
	SameInitialOnly bool // additional filter to keep pairs tractable
}

const matchSchemaJSON = `{
  "type": "object",
  "required": ["match", "confidence"],
  "properties": {
    "match": {"type": "boolean"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

// aiResolveSingletons compares pairs of single-occurrence person entities
// left distinct by the string pass and merges those the model reports as
// a match with confidence >= 0.7. Conservative by construction: ties and
// low-confidence answers never merge (§4.6 "false negatives preferred").
func aiResolveSingletons(ctx context.Context, entities []CanonicalEntity, opts ResolveOptions) ([]CanonicalEntity, error) {
	maxCalls := opts.MaxCalls
	if maxCalls <= 0 {
		maxCalls = 50
	}

	var singles []int
	for i, e := range entities {
		if e.Type == analysis.EntityPerson && len(e.Occurrences) == 1 {
			singles = append(singles, i)
		}
	}

	merged := map[int]bool{}
	calls := 0

outer:
	for i := 0; i < len(singles); i++ {
		for j := i + 1; j < len(singles); j++ {
			if calls >= maxCalls {
				break outer
			}
			a, b := entities[singles[i]], entities[singles[j]]
			if merged[singles[i]] || merged[singles[j]] {
				continue
			}
			if opts.SameInitialOnly && !sameInitial(a.CanonicalName, b.CanonicalName) {
				continue
			}

			calls++
			match, confidence, err := compareEntities(ctx, opts, a.CanonicalName, b.CanonicalName)
			if err != nil {
				return nil, err
			}
			if match && confidence >= 0.7 {
				entities[singles[i]].Occurrences = append(entities[singles[i]].Occurrences, b.Occurrences...)
				merged[singles[j]] = true
			}
		}
	}

	out := make([]CanonicalEntity, 0, len(entities))
	for i, e := range entities {
		if merged[i] {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func compareEntities(ctx context.Context, opts ResolveOptions, a, b string) (bool, float64, error) {
	payload, status, err := opts.Client.CallStructured(ctx, llm.CallRequest{
		Model:        opts.Model,
		SystemPrompt: "Decide whether two extracted names refer to the same real person. Respond conservatively: prefer no_match when uncertain.",
		UserContent:  fmt.Sprintf("Name A: %q\nName B: %q", a, b),
		SchemaName:   "entity_match",
		Schema:       json.RawMessage(matchSchemaJSON),
	})
	if err != nil {
		return false, 0, fmt.Errorf("correlate: entity resolution call (%s): %w", status, err)
	}
	var result struct {
		Match      bool    `json:"match"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return false, 0, fmt.Errorf("correlate: entity resolution payload decode: %w", err)
	}
	return result.Match, result.Confidence, nil
}

func sameInitial(a, b string) bool {
	ra, szA := firstRune(a)
	rb, szB := firstRune(b)
	if szA == 0 || szB == 0 {
		return false
	}
	return unicode.ToLower(ra) == unicode.ToLower(rb)
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, 1
	}
	return 0, 0
}
