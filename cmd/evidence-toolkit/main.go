// Command evidence-toolkit drives the ingest → analyze → correlate →
// package pipeline (§4.11) end to end. Shell argument parsing is out of
// scope (spec §1): every run parameter is read from the environment, and
// main.go itself is wiring only — config load, dependency construction,
// pipeline invocation.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analyzer"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/auditlog"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/config"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/deliverable"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/llm"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/pipeline"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/store"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/toolkiterrors"
)

// Exit codes, a stable small set per spec §6.
const (
	exitOK                  = 0
	exitConfigError         = 1
	exitStoreIntegrityError = 2
	exitAllAnalysesFailed   = 3
	exitPartialFailure      = 4
	exitCancelled           = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	caseDir := os.Getenv("EVIDENCE_CASE_DIR")
	caseID := os.Getenv("EVIDENCE_CASE_ID")
	if caseDir == "" || caseID == "" {
		fmt.Fprintln(os.Stderr, "❌ EVIDENCE_CASE_DIR and EVIDENCE_CASE_ID must both be set")
		return exitConfigError
	}

	var cfg *config.Config
	var err error
	if path := os.Getenv("EVIDENCE_CONFIG_FILE"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ config: %v\n", err)
		return exitConfigError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ config: %v\n", err)
		return exitConfigError
	}

	st, err := buildStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ store: %v\n", err)
		return exitStoreIntegrityError
	}

	client := buildLLMClient(cfg)
	dispatcher := buildDispatcher(cfg, client)
	progress := auditlog.NewProgressLoggerWithWriter(os.Stdout)
	p := buildPipeline(cfg, st, dispatcher, client, progress)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := p.Run(ctx, caseDir, caseID, cfg.Analyze.Force)
	if err != nil {
		var cancelled *toolkiterrors.Cancelled
		if errors.As(err, &cancelled) {
			fmt.Fprintf(os.Stderr, "❌ cancelled: %v\n", err)
			return exitCancelled
		}
		fmt.Fprintf(os.Stderr, "❌ run: %v\n", err)
		return exitStoreIntegrityError
	}

	failures := 0
	for _, item := range result.AnalyzeResults {
		if item.State == pipeline.StateFailed {
			failures++
		}
	}
	switch {
	case len(result.AnalyzeResults) > 0 && failures == len(result.AnalyzeResults):
		fmt.Fprintln(os.Stderr, "❌ all analyses failed")
		return exitAllAnalysesFailed
	case failures > 0:
		fmt.Fprintf(os.Stdout, "⚠️ %d/%d analyses failed\n", failures, len(result.AnalyzeResults))
		fmt.Fprintf(os.Stdout, "📦 package written to %s\n", result.Package.OutputPath)
		return exitPartialFailure
	default:
		fmt.Fprintf(os.Stdout, "✅ package written to %s\n", result.Package.OutputPath)
		return exitOK
	}
}

func buildStore(cfg *config.Config) (*store.Store, error) {
	locker := store.NewInProcessLocker()
	var index store.CaseIndex
	if cfg.Storage.IndexDSN != "" {
		idx, err := store.OpenSQLiteCaseIndex(cfg.Storage.IndexDSN)
		if err != nil {
			return nil, fmt.Errorf("open case index: %w", err)
		}
		index = idx
	}
	return store.New(cfg.Storage.Root, locker, index)
}

func buildLLMClient(cfg *config.Config) llm.StructuredClient {
	var base llm.StructuredClient
	switch cfg.LLM.Provider {
	case "anthropic":
		base = llm.NewAnthropicClient(cfg.LLM.APIKey)
	default:
		base = llm.NewOpenAIClient(cfg.LLM.APIKey)
	}
	return llm.NewRetryingClient(base, 2, 4, llm.DefaultBackoffPolicy)
}

func buildDispatcher(cfg *config.Config, client llm.StructuredClient) *analyzer.Dispatcher {
	return &analyzer.Dispatcher{
		Document: &analyzer.DocumentAnalyzer{Client: client, Model: cfg.LLM.Model, ModelRevision: cfg.LLM.ModelRevision},
		Image:    &analyzer.ImageAnalyzer{Client: client, Model: cfg.LLM.Model, ModelRevision: cfg.LLM.ModelRevision},
		Email:    &analyzer.EmailAnalyzer{Client: client, Model: cfg.LLM.Model, ModelRevision: cfg.LLM.ModelRevision},
	}
}

func buildPipeline(cfg *config.Config, st *store.Store, dispatcher *analyzer.Dispatcher, client llm.StructuredClient, progress *auditlog.ProgressLogger) *pipeline.Pipeline {
	p := pipeline.New(st, dispatcher)
	p.Concurrency = cfg.Analyze.MaxConcurrency
	p.Progress = pipeline.NewAuditProgressSink(progress)
	p.SummaryOptions = summary.Options{
		CaseType:       cfg.Summary.CaseType,
		ChunkThreshold: cfg.Summary.ChunkThreshold,
		ChunkSize:      cfg.Summary.ChunkSize,
		Model:          cfg.LLM.Model,
		Client:         client,
	}
	p.PackageOptions = deliverable.Options{
		IncludeRawEvidence: cfg.Package.IncludeRaw,
		Format:             cfg.Package.Format,
	}
	return p
}
