package report

import (
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type timelineReconstructionGenerator struct{ baseGenerator }

func (timelineReconstructionGenerator) HasData(cs *summary.CaseSummary) bool {
	return cs.CorrelationResult != nil && len(cs.CorrelationResult.TimelineEvents) > 0
}

func (timelineReconstructionGenerator) Filename() string { return "timeline_reconstruction.md" }
func (timelineReconstructionGenerator) Title() string    { return "Timeline Reconstruction" }

func (g timelineReconstructionGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	r := cs.CorrelationResult
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))

	for _, e := range r.TimelineEvents {
		line := fmt.Sprintf("- %s [%s, sha256=%s] %s", e.Timestamp.Format("2006-01-02 15:04"), e.Source, g.truncateSHA(e.SHA256), e.Description)
		if e.Significance != "" {
			line += fmt.Sprintf(" (significance: %s)", e.Significance)
		}
		if len(e.RiskFlags) > 0 {
			line += fmt.Sprintf(" [risk: %s]", strings.Join(e.RiskFlags, ", "))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(r.TimelineGaps) > 0 {
		b.WriteString("\n## Gaps\n\n")
		for _, gap := range r.TimelineGaps {
			fmt.Fprintf(&b, "- %s to %s (%s): %s\n",
				gap.Start.Format("2006-01-02"), gap.End.Format("2006-01-02"), gap.Significance, gap.Rationale)
		}
	}

	if len(r.TemporalSequences) > 0 {
		b.WriteString("\n## Detected Sequences\n\n")
		for _, seq := range r.TemporalSequences {
			fmt.Fprintf(&b, "- %s (confidence %.2f), %d events\n", seq.Kind, seq.Confidence, len(seq.Events))
		}
	}

	return b.String(), nil
}
