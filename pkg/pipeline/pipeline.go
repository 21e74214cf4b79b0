// Package pipeline implements the orchestrator (C11): the driver that
// walks a case directory, ingests its files, analyzes every artifact
// under a bounded worker pool, then hands off to C8/C10 for summary and
// package assembly. It is the only component that sequences the others;
// each stage remains independently callable.
package pipeline

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analyzer"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/deliverable"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/store"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/toolkiterrors"
)

// Pipeline wires the store, the analyzer dispatcher, and the C8/C10
// stages into one driven sequence (§4.11).
type Pipeline struct {
	Store          *store.Store
	Dispatcher     *analyzer.Dispatcher
	Concurrency    int
	Actor          string
	Progress       ProgressSink
	Metrics        *Metrics
	SummaryOptions summary.Options
	PackageOptions deliverable.Options
}

// New builds a Pipeline with the spec-mandated defaults (concurrency 5,
// a no-op progress sink) where the caller leaves fields zero.
func New(st *store.Store, dispatcher *analyzer.Dispatcher) *Pipeline {
	return &Pipeline{
		Store:       st,
		Dispatcher:  dispatcher,
		Concurrency: 5,
		Actor:       "pipeline",
		Progress:    NoopProgressSink{},
		Metrics:     NewMetrics(),
	}
}

func (p *Pipeline) progress() ProgressSink {
	if p.Progress == nil {
		return NoopProgressSink{}
	}
	return p.Progress
}

// IngestDirectory enumerates files recursively under dir, skipping hidden
// files and non-regular files, and ingests each one into the case (§4.11
// bullet 1).
func (p *Pipeline) IngestDirectory(ctx context.Context, dir, caseID string) ([]string, error) {
	var shas []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("pipeline: open %s: %w", path, err)
		}
		defer f.Close()

		declaredMIME := mime.TypeByExtension(filepath.Ext(path))
		meta, err := p.Store.Ingest(ctx, f, filepath.Base(path), declaredMIME, caseID, p.Actor)
		if err != nil {
			return fmt.Errorf("pipeline: ingest %s: %w", path, err)
		}
		shas = append(shas, meta.SHA256)
		p.progress().OnTransition(meta.SHA256, "ingest", StateSucceeded)
		return nil
	})
	if err != nil {
		return nil, &toolkiterrors.IngestError{Path: dir, Err: err}
	}
	return shas, nil
}

// AnalyzeAll runs the analyzer dispatcher over every SHA-256 in shas under
// a worker pool bounded by p.Concurrency, preserving per-item failure
// without aborting the batch (§4.11 bullet 2). Cancellation stops new work
// from starting; artifacts already in flight are allowed to reach a safe
// persisted state (the dispatcher's own atomic-write discipline).
func (p *Pipeline) AnalyzeAll(ctx context.Context, shas []string, force bool) []ItemStatus {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	statuses := make([]ItemStatus, 0, len(shas))

	for _, sha := range shas {
		sha := sha
		g.Go(func() error {
			if ctx.Err() != nil {
				p.progress().OnTransition(sha, "analyze", StateCancelled)
				mu.Lock()
				statuses = append(statuses, ItemStatus{SHA256: sha, Stage: "analyze", State: StateCancelled, Err: ctx.Err()})
				mu.Unlock()
				return nil
			}

			p.progress().OnTransition(sha, "analyze", StateRunning)
			start := time.Now()
			_, err := p.Dispatcher.Analyze(ctx, p.Store, sha, force, p.Actor)
			elapsed := time.Since(start).Seconds()

			status := ItemStatus{SHA256: sha, Stage: "analyze", State: StateSucceeded}
			outcome := "succeeded"
			if err != nil {
				status.State = StateFailed
				status.Err = err
				outcome = "failed"
			}
			if p.Metrics != nil {
				p.Metrics.observeOutcome("analyze", outcome, elapsed)
			}
			p.progress().OnTransition(sha, "analyze", status.State)

			mu.Lock()
			statuses = append(statuses, status)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // every Go func returns nil; errors are carried in statuses
	return statuses
}

// RunResult is a full pipeline run's combined outcome.
type RunResult struct {
	CaseID         string
	IngestedSHAs   []string
	AnalyzeResults []ItemStatus
	Package        *deliverable.BuildResult
}

// packagePath builds the fixed package output path named by §6:
// <root>/packages/<case-id>_analysis_package_<yyyymmdd_hhmmss>(.zip). The
// timestamp suffix is not configurable; callers never choose where a
// package lands, only whether it's zipped (p.PackageOptions.Format).
func packagePath(root, caseID string, at time.Time) string {
	name := fmt.Sprintf("%s_analysis_package_%s", caseID, at.UTC().Format("20060102_150405"))
	return filepath.Join(root, "packages", name)
}

// Run drives the full sequence: ingest → analyze-all → summarize →
// package (§4.11). Summarize is folded into the package build, which
// calls GenerateCaseSummary itself before assembling output. The package
// output path is not a caller input: it is derived from the store's root
// and the case ID per §6's fixed filesystem layout.
func (p *Pipeline) Run(ctx context.Context, caseDir, caseID string, force bool) (*RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &toolkiterrors.Cancelled{Stage: "run"}
	}

	shas, err := p.IngestDirectory(ctx, caseDir, caseID)
	if err != nil {
		return nil, err
	}

	analyzeResults := p.AnalyzeAll(ctx, shas, force)

	if ctx.Err() != nil {
		return &RunResult{CaseID: caseID, IngestedSHAs: shas, AnalyzeResults: analyzeResults}, &toolkiterrors.Cancelled{Stage: "analyze"}
	}

	outDir := packagePath(p.Store.Root(), caseID, time.Now())
	buildResult, err := deliverable.Build(ctx, p.Store, caseID, outDir, p.PackageOptions, p.SummaryOptions)
	if err != nil {
		return &RunResult{CaseID: caseID, IngestedSHAs: shas, AnalyzeResults: analyzeResults}, err
	}

	return &RunResult{CaseID: caseID, IngestedSHAs: shas, AnalyzeResults: analyzeResults, Package: buildResult}, nil
}
