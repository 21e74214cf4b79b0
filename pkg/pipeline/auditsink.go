package pipeline

import (
	"fmt"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/auditlog"
)

// AuditProgressSink adapts an auditlog.ProgressLogger to ProgressSink,
// translating per-item state transitions into emoji progress lines (§7).
type AuditProgressSink struct {
	Log *auditlog.ProgressLogger
}

// NewAuditProgressSink returns a ProgressSink writing to the given
// progress logger, or to a default stdout logger if log is nil.
func NewAuditProgressSink(log *auditlog.ProgressLogger) AuditProgressSink {
	if log == nil {
		log = auditlog.NewProgressLogger()
	}
	return AuditProgressSink{Log: log}
}

func (s AuditProgressSink) OnTransition(sha256, stage string, state State) {
	st := auditlog.Stage(stage)
	switch state {
	case StateRunning:
		s.Log.Record(st, auditlog.LevelInfo, sha256, "started")
	case StateSucceeded:
		s.Log.Record(st, auditlog.LevelSuccess, sha256, "succeeded")
	case StateFailed:
		s.Log.Record(st, auditlog.LevelError, sha256, "failed")
	case StateCancelled:
		s.Log.Record(st, auditlog.LevelWarning, sha256, "cancelled")
	default:
		s.Log.Record(st, auditlog.LevelInfo, sha256, fmt.Sprintf("state=%s", state))
	}
}
