package correlate

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// SequenceRule describes one ordered-chain pattern over a sliding window
// of timeline events, expressed as a CEL predicate evaluated against each
// adjacent pair. `events` in the expression is the two-element window
// [prev, next] as a list of maps with `risk_flags` and `significance`.
type SequenceRule struct {
	Kind       SequenceKind
	Expr       string
	Confidence float64
}

// DefaultSequenceRules covers the canonical escalation shapes named in
// spec §4.6. Expressed as data (not Go control flow) so a deployment can
// add rules without recompiling.
var DefaultSequenceRules = []SequenceRule{
	{
		Kind:       SequenceComplaintToTermination,
		Expr:       `events[0].risk_flags.exists(f, f == "retaliation" || f == "discrimination") && events[1].risk_flags.exists(f, f == "breach-of-contract")`,
		Confidence: 0.6,
	},
	{
		Kind:       SequenceEscalatingHostility,
		Expr:       `events[0].significance == "medium" && events[1].significance == "high"`,
		Confidence: 0.5,
	},
}

// SequenceDetector evaluates SequenceRule predicates over a timeline,
// compiling each CEL expression once and caching the program (grounded on
// the compile-then-cache discipline used elsewhere in the corpus for
// CEL-based policy evaluation).
type SequenceDetector struct {
	env   *cel.Env
	mu    sync.Mutex
	progs map[string]cel.Program
}

func NewSequenceDetector() (*SequenceDetector, error) {
	env, err := cel.NewEnv(cel.Variable("events", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("correlate: create cel env: %w", err)
	}
	return &SequenceDetector{env: env, progs: make(map[string]cel.Program)}, nil
}

func (d *SequenceDetector) program(expr string) (cel.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.progs[expr]; ok {
		return p, nil
	}
	ast, issues := d.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("correlate: compile sequence rule: %w", issues.Err())
	}
	prg, err := d.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("correlate: build sequence rule program: %w", err)
	}
	d.progs[expr] = prg
	return prg, nil
}

// Detect evaluates every rule against every adjacent pair of events in an
// already-ordered timeline and returns the matching sequences.
func (d *SequenceDetector) Detect(events []TimelineEvent, rules []SequenceRule) ([]TemporalSequence, error) {
	var out []TemporalSequence
	for i := 1; i < len(events); i++ {
		window := []map[string]interface{}{
			eventToCELMap(events[i-1]),
			eventToCELMap(events[i]),
		}
		for _, rule := range rules {
			prg, err := d.program(rule.Expr)
			if err != nil {
				return nil, err
			}
			val, _, err := prg.Eval(map[string]interface{}{"events": window})
			if err != nil {
				// A type-mismatch on a given window (e.g. missing field) is
				// expected for events that don't carry risk_flags/significance;
				// treat as no-match rather than aborting the whole detection pass.
				continue
			}
			if matched, ok := val.Value().(bool); ok && matched {
				out = append(out, TemporalSequence{
					Kind:       rule.Kind,
					Events:     []TimelineEvent{events[i-1], events[i]},
					Confidence: rule.Confidence,
				})
			}
		}
	}
	return out, nil
}

func eventToCELMap(e TimelineEvent) map[string]interface{} {
	flags := make([]interface{}, len(e.RiskFlags))
	for i, f := range e.RiskFlags {
		flags[i] = f
	}
	return map[string]interface{}{
		"risk_flags":   flags,
		"significance": string(e.Significance),
	}
}
