package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analyzer"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/store"
)

type stubStructuredClient struct {
	payload json.RawMessage
	err     error
	calls   int
}

func (c *stubStructuredClient) CallStructured(ctx context.Context, req llm.CallRequest) (json.RawMessage, llm.CompletionStatus, error) {
	c.calls++
	if c.err != nil {
		return nil, llm.Incomplete, c.err
	}
	return c.payload, llm.Completed, nil
}

func newTestPipeline(t *testing.T, client llm.StructuredClient) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	disp := &analyzer.Dispatcher{
		Document: &analyzer.DocumentAnalyzer{Client: client, Model: "test-model"},
	}
	p := New(st, disp)
	return p, st
}

const docPayload = `{"summary":"s","entities":[],"document_type":"letter","sentiment":"neutral","legal_significance":"low","risk_flags":[],"confidence":0.8}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestIngestDirectorySkipsHiddenAndWalksRecursively(t *testing.T) {
	p, _ := newTestPipeline(t, &stubStructuredClient{payload: json.RawMessage(docPayload)})

	dir := t.TempDir()
	writeFile(t, dir, "visible.txt", "hello")
	writeFile(t, dir, ".hidden.txt", "nope")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeFile(t, sub, "nested.txt", "world")
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("Mkdir .git: %v", err)
	}
	writeFile(t, filepath.Join(dir, ".git"), "config", "ignored")

	shas, err := p.IngestDirectory(context.Background(), dir, "case-1")
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if len(shas) != 2 {
		t.Fatalf("len(shas) = %d, want 2 (hidden file and dotdir contents skipped)", len(shas))
	}
}

func TestAnalyzeAllIsolatesPerItemFailure(t *testing.T) {
	client := &stubStructuredClient{err: errBoom{}}
	p, st := newTestPipeline(t, client)

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first document")
	writeFile(t, dir, "b.txt", "second document")
	shas, err := p.IngestDirectory(context.Background(), dir, "case-1")
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}

	statuses := p.AnalyzeAll(context.Background(), shas, false)
	if len(statuses) != 2 {
		t.Fatalf("len(statuses) = %d, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.State != StateFailed {
			t.Errorf("sha %s: state = %s, want failed", s.SHA256, s.State)
		}
	}
	_ = st
}

func TestAnalyzeAllSucceedsAndIsIdempotentWithoutForce(t *testing.T) {
	client := &stubStructuredClient{payload: json.RawMessage(docPayload)}
	p, _ := newTestPipeline(t, client)

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "first document")
	shas, err := p.IngestDirectory(context.Background(), dir, "case-1")
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}

	statuses := p.AnalyzeAll(context.Background(), shas, false)
	if len(statuses) != 1 || statuses[0].State != StateSucceeded {
		t.Fatalf("first pass: %+v", statuses)
	}

	statuses = p.AnalyzeAll(context.Background(), shas, false)
	if len(statuses) != 1 || statuses[0].State != StateSucceeded {
		t.Fatalf("second pass: %+v", statuses)
	}
	if client.calls != 1 {
		t.Errorf("client.calls = %d, want 1 (second pass is a pure read, no LLM call)", client.calls)
	}
}

func TestAnalyzeAllReportsCancelledWhenContextAlreadyDone(t *testing.T) {
	p, _ := newTestPipeline(t, &stubStructuredClient{payload: json.RawMessage(docPayload)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	statuses := p.AnalyzeAll(ctx, []string{"deadbeef"}, false)
	if len(statuses) != 1 || statuses[0].State != StateCancelled {
		t.Fatalf("got %+v, want one cancelled status", statuses)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
