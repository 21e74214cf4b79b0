package auditlog

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func fixedLogger(buf *bytes.Buffer, at time.Time) *ProgressLogger {
	l := NewProgressLoggerWithWriter(buf)
	l.now = func() time.Time { return at }
	return l
}

func TestRecordFormatsStageAndLevelEmoji(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l := fixedLogger(&buf, at)

	l.Record(StageIngest, LevelSuccess, "deadbeef", "ingested")

	line := buf.String()
	for _, want := range []string{stageEmoji[StageIngest], levelEmoji[LevelSuccess], "stage=ingest", "sha256=deadbeef", "ingested", "ts=2026-01-02T03:04:05Z"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestRecordOmitsSHAFieldWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, time.Now())

	l.Record(StagePackage, LevelInfo, "", "assembling")

	if strings.Contains(buf.String(), "sha256=") {
		t.Errorf("expected no sha256 field for a case-level line, got %q", buf.String())
	}
}

func TestRecordInfoLevelOmitsLevelEmoji(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, time.Now())

	l.Record(StageAnalyze, LevelInfo, "sha", "started")

	line := buf.String()
	if strings.Contains(line, levelEmoji[LevelSuccess]) || strings.Contains(line, levelEmoji[LevelError]) {
		t.Errorf("expected no success/error emoji on an info-level line, got %q", line)
	}
	if !strings.HasPrefix(line, stageEmoji[StageAnalyze]) {
		t.Errorf("expected the line to start with the stage emoji, got %q", line)
	}
}

func TestConvenienceMethodsUseExpectedStageAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, time.Now())

	l.Warn(StageCorrelate, "sha1", "thin evidence")
	line := buf.String()
	if !strings.Contains(line, "stage=correlate") || !strings.Contains(line, levelEmoji[LevelWarning]) {
		t.Errorf("Warn produced unexpected line %q", line)
	}

	buf.Reset()
	l.Error(StagePackage, "sha2", "zip failed")
	line = buf.String()
	if !strings.Contains(line, "stage=package") || !strings.Contains(line, levelEmoji[LevelError]) {
		t.Errorf("Error produced unexpected line %q", line)
	}
}

func TestRecordIsLineAtomicUnderConcurrentWriters(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, time.Now())

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(i int) {
			l.Ingest("sha", "concurrent write")
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("len(lines) = %d, want 20 (no interleaved partial writes)", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "concurrent write") || !strings.Contains(line, "sha256=sha") {
			t.Errorf("malformed or interleaved line: %q", line)
		}
	}
}
