package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CustodyLog is the append-only sequence of events recorded against one
// SHA-256 (spec §3, P10). Callers never mutate an existing entry; Append
// is the only write path.
type CustodyLog struct {
	SHA256 string         `json:"sha256"`
	Events []CustodyEvent `json:"events"`
}

// NewEvent stamps a custody event with a fresh event id so downstream
// correlation (§4.6's associated_event linkage) has a stable handle that
// survives independent of the entry's position in the log.
func NewEvent(actor string, action CustodyAction, note *string, metadata map[string]interface{}) CustodyEvent {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["event_id"] = uuid.NewString()
	return CustodyEvent{
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    action,
		Note:      note,
		Metadata:  metadata,
	}
}

// Append adds ev to the end of the log. It refuses to append an event
// whose timestamp predates the last recorded event, since custody logs are
// expected to reflect wall-clock order of operations against a given
// SHA-256 (P10's append-only guarantee would otherwise silently accept a
// reordering).
func (l *CustodyLog) Append(ev CustodyEvent) error {
	if n := len(l.Events); n > 0 {
		last := l.Events[n-1]
		if ev.Timestamp.Before(last.Timestamp) {
			return fmt.Errorf("analysis: custody event for sha256=%s would reorder the log (new=%s < last=%s)",
				l.SHA256, ev.Timestamp, last.Timestamp)
		}
	}
	l.Events = append(l.Events, ev)
	return nil
}

// New constructs a UnifiedAnalysis and runs both halves of invariant I5:
// the closed-shape schema check and the semantic one-payload check. Use
// this (not a bare struct literal) at every construction and reload site.
func New(u UnifiedAnalysis) (*UnifiedAnalysis, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	labels, err := GenerateLabels(&u)
	if err != nil {
		return nil, err
	}
	u.Labels = labels
	if u.CaseIDs == nil {
		u.CaseIDs = []string{}
	}
	if err := ValidateSchema(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
