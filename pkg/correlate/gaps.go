package correlate

import (
	"strconv"
	"time"
)

// DefaultGapThreshold is the minimum stretch with no events that counts as
// a candidate gap (§4.6's "e.g. 14 days").
const DefaultGapThreshold = 14 * 24 * time.Hour

// DetectGaps scans an already-ordered timeline for stretches of at least
// threshold with no events, classifying each by the surrounding events'
// risk flags and significance.
func DetectGaps(events []TimelineEvent, threshold time.Duration) []TimelineGap {
	if threshold <= 0 {
		threshold = DefaultGapThreshold
	}
	var gaps []TimelineGap
	for i := 1; i < len(events); i++ {
		prev, next := events[i-1], events[i]
		span := next.Timestamp.Sub(prev.Timestamp)
		if span < threshold {
			continue
		}
		gaps = append(gaps, TimelineGap{
			Start:        prev.Timestamp,
			End:          next.Timestamp,
			Significance: gapSignificance(prev, next),
			Rationale:    gapRationale(prev, next, span),
		})
	}
	return gaps
}

func gapSignificance(prev, next TimelineEvent) GapSignificance {
	material := func(e TimelineEvent) bool {
		return len(e.RiskFlags) > 0 || e.Significance == "critical" || e.Significance == "high"
	}
	switch {
	case material(prev) && material(next):
		return GapHigh
	case material(prev) || material(next):
		return GapMedium
	default:
		return GapLow
	}
}

func gapRationale(prev, next TimelineEvent, span time.Duration) string {
	days := int(span.Hours() / 24)
	return "no recorded events for " + durationDays(days) + " between \"" + prev.Description + "\" and \"" + next.Description + "\""
}

func durationDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return strconv.Itoa(days) + " days"
}
