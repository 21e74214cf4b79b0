// Package analyzer implements the analyzer dispatch (C3), label generation,
// and the three typed analyzers (C5): document, image, email.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/evidencekind"
)

// Store is the narrow slice of pkg/store's API the dispatcher needs. A
// local interface (rather than importing pkg/store) keeps analyzer free of
// any dependency on the storage implementation, so store can depend on
// analyzer instead of the other way around.
type Store interface {
	LoadMetadata(ctx context.Context, sha256 string) (*analysis.FileMetadata, error)
	LoadRaw(ctx context.Context, sha256 string) (io.ReadCloser, error)
	LoadAnalysis(ctx context.Context, sha256 string) (*analysis.UnifiedAnalysis, bool, error)
	SaveAnalysis(ctx context.Context, sha256 string, ua *analysis.UnifiedAnalysis, forced bool) error
	AppendCustody(ctx context.Context, sha256 string, ev analysis.CustodyEvent) error
}

// Dispatcher routes a piece of evidence to its typed analyzer by kind and
// assembles the resulting UnifiedAnalysis (§4.3).
type Dispatcher struct {
	Document *DocumentAnalyzer
	Image    *ImageAnalyzer
	Email    *EmailAnalyzer
}

// Analyze implements `analyze(H, force, case_id?, actor) -> UnifiedAnalysis`.
// With force=false and an existing analysis, this is a pure read: no LLM
// call, no custody event (P3). With force=true, the store is responsible
// for backing up the previous file (SaveAnalysis(forced=true)); this
// function only decides which custody action to record.
func (d *Dispatcher) Analyze(ctx context.Context, st Store, sha256 string, force bool, actor string) (*analysis.UnifiedAnalysis, error) {
	if ctx.Err() != nil {
		return nil, fmt.Errorf("analyzer: %w", ctx.Err())
	}

	if !force {
		if existing, ok, err := st.LoadAnalysis(ctx, sha256); err != nil {
			return nil, err
		} else if ok {
			return existing, nil
		}
	}

	meta, err := st.LoadMetadata(ctx, sha256)
	if err != nil {
		return nil, fmt.Errorf("analyzer: load metadata sha256=%s: %w", sha256, err)
	}

	kind := meta.EvidenceType

	ua := &analysis.UnifiedAnalysis{
		SHA256:       sha256,
		EvidenceType: kind,
		AnalyzedAt:   time.Now().UTC(),
	}

	switch kind {
	case evidencekind.Document:
		raw, err := st.LoadRaw(ctx, sha256)
		if err != nil {
			return nil, fmt.Errorf("analyzer: load raw sha256=%s: %w", sha256, err)
		}
		text, err := io.ReadAll(raw)
		_ = raw.Close()
		if err != nil {
			return nil, fmt.Errorf("analyzer: read raw sha256=%s: %w", sha256, err)
		}
		doc, err := d.Document.Analyze(ctx, string(text))
		if err != nil {
			return nil, err
		}
		ua.Document = doc
		ua.ModelID = d.Document.Model
		ua.ModelRevision = d.Document.ModelRevision

	case evidencekind.Image:
		raw, err := st.LoadRaw(ctx, sha256)
		if err != nil {
			return nil, fmt.Errorf("analyzer: load raw sha256=%s: %w", sha256, err)
		}
		imgBytes, err := io.ReadAll(raw)
		_ = raw.Close()
		if err != nil {
			return nil, fmt.Errorf("analyzer: read raw sha256=%s: %w", sha256, err)
		}
		img, err := d.Image.Analyze(ctx, imgBytes, meta.MIMEType)
		if err != nil {
			return nil, err
		}
		ua.Image = img
		ua.ModelID = d.Image.Model
		ua.ModelRevision = d.Image.ModelRevision

	case evidencekind.Email:
		raw, err := st.LoadRaw(ctx, sha256)
		if err != nil {
			return nil, fmt.Errorf("analyzer: load raw sha256=%s: %w", sha256, err)
		}
		rawBytes, err := io.ReadAll(raw)
		_ = raw.Close()
		if err != nil {
			return nil, fmt.Errorf("analyzer: read raw sha256=%s: %w", sha256, err)
		}
		email, err := d.Email.Analyze(ctx, rawBytes)
		if err != nil {
			return nil, err
		}
		ua.Email = email
		ua.ModelID = d.Email.Model
		ua.ModelRevision = d.Email.ModelRevision

	default:
		return nil, fmt.Errorf("analyzer: evidence_type %q is never dispatched for analysis", kind)
	}

	built, err := analysis.New(*ua)
	if err != nil {
		return nil, fmt.Errorf("analyzer: assemble analysis sha256=%s: %w", sha256, err)
	}

	if err := st.SaveAnalysis(ctx, sha256, built, force); err != nil {
		return nil, fmt.Errorf("analyzer: save analysis sha256=%s: %w", sha256, err)
	}

	action := analysis.ActionAnalyze
	if force {
		action = analysis.ActionReanalyze
	}
	if err := st.AppendCustody(ctx, sha256, analysis.NewEvent(actor, action, nil, nil)); err != nil {
		return nil, fmt.Errorf("analyzer: append custody sha256=%s: %w", sha256, err)
	}

	return built, nil
}
