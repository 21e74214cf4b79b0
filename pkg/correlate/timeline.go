package correlate

import (
	"sort"
	"strconv"
	"time"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
)

// dateLayouts is tried in order against an EntityDate's extracted text; the
// first layout that parses wins. ISO is unambiguous and tried first; the
// numeric UK (day-first) and US (month-first) layouts are inherently
// ambiguous for dates where both day and month are <= 12, so whichever is
// listed first wins those cases (§4.6 names both without resolving the
// ambiguity).
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02-01-2006",
}

func parseSemanticDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BuildTimeline merges filesystem timestamps, email header dates, and
// analyzer-extracted semantic dates into one ordered event list, stable on
// ties by SHA-256 then event id (P6, §4.6).
func BuildTimeline(metas map[string]*analysis.FileMetadata, analyses map[string]*analysis.UnifiedAnalysis) []TimelineEvent {
	var events []TimelineEvent

	for sha, meta := range metas {
		if meta.CreatedAt != nil {
			events = append(events, TimelineEvent{
				Timestamp: *meta.CreatedAt, SHA256: sha, EventID: "fs-created",
				Description: "file created: " + meta.Filename, Source: "filesystem",
			})
		}
		if meta.ModifiedAt != nil {
			events = append(events, TimelineEvent{
				Timestamp: *meta.ModifiedAt, SHA256: sha, EventID: "fs-modified",
				Description: "file modified: " + meta.Filename, Source: "filesystem",
			})
		}
	}

	for sha, ua := range analyses {
		if ua.Email != nil {
			for i, p := range ua.Email.Participants {
				if p.FirstInteraction != nil {
					events = append(events, TimelineEvent{
						Timestamp: *p.FirstInteraction, SHA256: sha, EventID: eventID(i, "first"),
						Description:  "first interaction with " + p.Name,
						Source:       "email_header",
						Significance: ua.Email.LegalSignificance,
						RiskFlags:    ua.Email.RiskFlags,
					})
				}
				if p.LastInteraction != nil {
					events = append(events, TimelineEvent{
						Timestamp: *p.LastInteraction, SHA256: sha, EventID: eventID(i, "last"),
						Description:  "last interaction with " + p.Name,
						Source:       "email_header",
						Significance: ua.Email.LegalSignificance,
						RiskFlags:    ua.Email.RiskFlags,
					})
				}
			}
		}

		if ua.Document != nil {
			for i, e := range ua.Document.Entities {
				if e.Type != analysis.EntityDate {
					continue
				}
				t, ok := parseSemanticDate(e.Name)
				if !ok {
					continue
				}
				events = append(events, TimelineEvent{
					Timestamp: t, SHA256: sha, EventID: eventID(i, "entity-date"),
					Description:  "date referenced: " + e.Name,
					Source:       "entity_extraction",
					Significance: ua.Document.LegalSignificance,
					RiskFlags:    ua.Document.RiskFlags,
				})
			}
		}
	}

	sortTimeline(events)
	return events
}

// sortTimeline implements P6: ascending timestamp, ties broken by SHA-256
// lexicographic order, then by event id.
func sortTimeline(events []TimelineEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.SHA256 != b.SHA256 {
			return a.SHA256 < b.SHA256
		}
		return a.EventID < b.EventID
	})
}

func eventID(idx int, kind string) string {
	return kind + "-" + strconv.Itoa(idx)
}
