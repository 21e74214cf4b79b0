package correlate

import (
	"testing"
	"time"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
)

func tptr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildTimelineOrdersByTimestamp(t *testing.T) {
	metas := map[string]*analysis.FileMetadata{
		"b": {Filename: "b.txt", CreatedAt: tptr(2026, 2, 1)},
		"a": {Filename: "a.txt", CreatedAt: tptr(2026, 1, 1)},
	}
	events := BuildTimeline(metas, nil)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].SHA256 != "a" || events[1].SHA256 != "b" {
		t.Errorf("expected ascending timestamp order, got %q then %q", events[0].SHA256, events[1].SHA256)
	}
}

func TestBuildTimelineTiesBrokenBySHAThenEventID(t *testing.T) {
	same := tptr(2026, 1, 1)
	metas := map[string]*analysis.FileMetadata{
		"zzz": {Filename: "z.txt", CreatedAt: same, ModifiedAt: same},
		"aaa": {Filename: "a.txt", CreatedAt: same},
	}
	events := BuildTimeline(metas, nil)
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if prev.Timestamp.Equal(cur.Timestamp) {
			if prev.SHA256 > cur.SHA256 {
				t.Fatalf("tie not broken by ascending SHA256 (P6): %q before %q", prev.SHA256, cur.SHA256)
			}
			if prev.SHA256 == cur.SHA256 && prev.EventID > cur.EventID {
				t.Fatalf("tie not broken by ascending event id (P6): %q before %q", prev.EventID, cur.EventID)
			}
		}
	}
}

func TestBuildTimelineIncludesEmailFirstInteraction(t *testing.T) {
	metas := map[string]*analysis.FileMetadata{}
	analyses := map[string]*analysis.UnifiedAnalysis{
		"e1": {
			Email: &analysis.EmailAnalysis{
				Participants: []analysis.Participant{
					{Name: "Jane Doe", FirstInteraction: tptr(2026, 3, 1)},
				},
			},
		},
	}
	events := BuildTimeline(metas, analyses)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Source != "email_header" {
		t.Errorf("Source = %q, want email_header", events[0].Source)
	}
}

func TestBuildTimelineSkipsDocumentsWithoutDateEntities(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"d1": {Document: &analysis.DocumentAnalysis{
			Entities: []analysis.Entity{{Name: "Jane Doe", Type: analysis.EntityPerson}},
		}},
	}
	events := BuildTimeline(nil, analyses)
	if len(events) != 0 {
		t.Fatalf("len(events) = %d, want 0 (no date entities present)", len(events))
	}
}

func TestBuildTimelineIncludesDocumentEntityDatesInVariousFormats(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"d1": {Document: &analysis.DocumentAnalysis{
			LegalSignificance: analysis.SigHigh,
			Entities: []analysis.Entity{
				{Name: "2026-03-15", Type: analysis.EntityDate},
				{Name: "15 March 2026", Type: analysis.EntityDate},
				{Name: "not a date", Type: analysis.EntityDate},
			},
		}},
	}
	events := BuildTimeline(nil, analyses)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2 (unparseable date entity skipped)", len(events))
	}
	for _, ev := range events {
		if ev.Source != "entity_extraction" {
			t.Errorf("Source = %q, want entity_extraction", ev.Source)
		}
		if !ev.Timestamp.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Timestamp = %v, want 2026-03-15", ev.Timestamp)
		}
	}
}

func TestBuildTimelineIncludesEmailLastInteraction(t *testing.T) {
	analyses := map[string]*analysis.UnifiedAnalysis{
		"e1": {
			Email: &analysis.EmailAnalysis{
				Participants: []analysis.Participant{
					{Name: "Jane Doe", FirstInteraction: tptr(2026, 1, 1), LastInteraction: tptr(2026, 3, 1)},
				},
			},
		},
	}
	events := BuildTimeline(nil, analyses)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2 (first and last interaction)", len(events))
	}
	if events[1].Description != "last interaction with Jane Doe" {
		t.Errorf("Description = %q", events[1].Description)
	}
}
