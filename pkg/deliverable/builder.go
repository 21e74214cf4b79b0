package deliverable

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/report"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/toolkiterrors"
)

var sanitizeRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFilename(name string) string {
	s := sanitizeRe.ReplaceAllString(name, "_")
	if s == "" {
		return "unnamed"
	}
	return s
}

func truncateSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// Build implements §4.10 end to end: generate the case summary, assemble
// the directory tree, run every report generator, write the catalog and
// correlation and metadata JSON, and optionally compress to a zip. On any
// error the partial tree (or archive) is removed before returning.
func Build(ctx context.Context, st Store, caseID string, outDir string, opts Options, sumOpts summary.Options) (*BuildResult, error) {
	cs, err := summary.GenerateCaseSummary(ctx, storeAsSummaryStore{st}, caseID, sumOpts)
	if err != nil {
		return nil, &toolkiterrors.PackageError{CaseID: caseID, Reason: "generate case summary", Err: err}
	}

	skipped, failed, err := buildInto(ctx, st, cs, outDir, opts)
	if err != nil {
		_ = os.RemoveAll(outDir)
		return nil, &toolkiterrors.PackageError{CaseID: caseID, Reason: "assemble package", Err: err}
	}

	result := &BuildResult{CaseID: caseID, OutputPath: outDir, Format: opts.Format, SkippedReports: skipped, FailedReports: failed}

	if opts.Format == FormatZip {
		zipPath := outDir + ".zip"
		if err := zipDirectory(outDir, zipPath); err != nil {
			_ = os.Remove(zipPath)
			_ = os.RemoveAll(outDir)
			return nil, &toolkiterrors.PackageError{CaseID: caseID, Reason: "zip package", Err: err}
		}
		if err := os.RemoveAll(outDir); err != nil {
			return nil, &toolkiterrors.PackageError{CaseID: caseID, Reason: "remove package directory after zip", Err: err}
		}
		result.OutputPath = zipPath
	}

	return result, nil
}

// buildInto assembles the tree and returns the names of reports skipped
// for lack of data and a map of reports that errored out while generating
// or writing — neither is fatal to the package build (§4.9).
func buildInto(ctx context.Context, st Store, cs *summary.CaseSummary, outDir string, opts Options) (skipped []string, failed map[string]string, err error) {
	dirs := []string{"reports", "analysis", "visualizations", "evidence_catalog", "correlations", "documentation"}
	if opts.IncludeRawEvidence {
		dirs = append(dirs, "raw_evidence")
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(outDir, d), 0o755); err != nil {
			return nil, nil, fmt.Errorf("deliverable: create %s: %w", d, err)
		}
	}

	reportFiles, skipped, failed := writeReports(cs, outDir)

	analysisFiles, err := writeAnalysisFiles(ctx, st, cs, outDir)
	if err != nil {
		return nil, nil, err
	}

	if err := writeCatalog(ctx, st, cs, outDir); err != nil {
		return nil, nil, err
	}

	if err := writeCorrelation(cs, outDir); err != nil {
		return nil, nil, err
	}

	if err := writeTemplates(cs, outDir); err != nil {
		return nil, nil, err
	}

	if opts.IncludeRawEvidence {
		if err := copyRawEvidence(ctx, st, cs, outDir); err != nil {
			return nil, nil, err
		}
	}

	countsByType := map[string]int{}
	for _, e := range cs.EvidenceSummaries {
		countsByType[e.EvidenceType]++
	}

	meta := Metadata{
		CreatedAt:     time.Now(),
		CaseID:        cs.CaseID,
		CountsByType:  countsByType,
		ReportFiles:   reportFiles,
		AnalysisFiles: analysisFiles,
		Format:        opts.Format,
	}
	if err := writeJSON(filepath.Join(outDir, "package_metadata.json"), meta); err != nil {
		return nil, nil, err
	}

	return skipped, failed, nil
}

func writeReports(cs *summary.CaseSummary, outDir string) (files, skipped []string, failed map[string]string) {
	failed = map[string]string{}
	for _, res := range report.RunAll(cs) {
		if res.Skipped {
			skipped = append(skipped, res.Generator.Filename())
			continue
		}
		if res.Err != nil {
			failed[res.Generator.Filename()] = res.Err.Error()
			continue
		}
		path := filepath.Join(outDir, "reports", res.Generator.Filename())
		if err := os.WriteFile(path, []byte(res.Body), 0o644); err != nil {
			failed[res.Generator.Filename()] = err.Error()
			continue
		}
		files = append(files, res.Generator.Filename())
	}
	sort.Strings(files)
	sort.Strings(skipped)
	return files, skipped, failed
}

// caseAnalysisFilename is the case-level artifact named by spec.md's
// scenario 1, distinct from the per-evidence files this function also
// writes.
const caseAnalysisFilename = "case_analysis.json"

func writeAnalysisFiles(ctx context.Context, st Store, cs *summary.CaseSummary, outDir string) ([]string, error) {
	if err := writeJSON(filepath.Join(outDir, "analysis", caseAnalysisFilename), cs); err != nil {
		return nil, err
	}
	files := []string{caseAnalysisFilename}

	for _, e := range cs.EvidenceSummaries {
		ua, ok, err := st.LoadAnalysis(ctx, e.SHA256)
		if err != nil {
			return nil, fmt.Errorf("deliverable: load analysis sha256=%s: %w", e.SHA256, err)
		}
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s_%s_%s.json", e.EvidenceType, sanitizeFilename(e.Filename), truncateSHA(e.SHA256))
		if err := writeJSON(filepath.Join(outDir, "analysis", name), ua); err != nil {
			return nil, err
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func writeCatalog(ctx context.Context, st Store, cs *summary.CaseSummary, outDir string) error {
	var entries []CatalogEntry
	for _, e := range cs.EvidenceSummaries {
		meta, err := st.LoadMetadata(ctx, e.SHA256)
		if err != nil {
			return fmt.Errorf("deliverable: load metadata sha256=%s: %w", e.SHA256, err)
		}
		entries = append(entries, CatalogEntry{
			Filename:          e.Filename,
			SHA256:            e.SHA256,
			EvidenceType:      e.EvidenceType,
			SizeBytes:         meta.SizeBytes,
			Confidence:        e.Confidence,
			LegalSignificance: e.LegalSignificance,
			RiskFlags:         e.RiskFlags,
			TopFindings:       e.KeyFindings,
			CustodyPointer:    fmt.Sprintf("derived/sha256=%s/chain_of_custody.json", e.SHA256),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SHA256 < entries[j].SHA256 })
	return writeJSON(filepath.Join(outDir, "evidence_catalog", "evidence_catalog.json"), entries)
}

// writeCorrelation serializes the full CorrelationAnalysis and truncates
// every SHA-256 field to 8 hex characters for readability (§4.10 step 6).
func writeCorrelation(cs *summary.CaseSummary, outDir string) error {
	if cs.CorrelationResult == nil {
		return nil
	}
	raw, err := json.MarshalIndent(cs.CorrelationResult, "", "  ")
	if err != nil {
		return fmt.Errorf("deliverable: marshal correlation analysis: %w", err)
	}
	truncated := truncateSHAsInJSON(raw)
	return os.WriteFile(filepath.Join(outDir, "correlations", "correlation_analysis.json"), truncated, 0o644)
}

var sha256JSONValueRe = regexp.MustCompile(`"[0-9a-f]{64}"`)

func truncateSHAsInJSON(raw []byte) []byte {
	return sha256JSONValueRe.ReplaceAllFunc(raw, func(m []byte) []byte {
		inner := m[1 : len(m)-1]
		return append(append([]byte{'"'}, inner[:8]...), '"')
	})
}

func writeTemplates(cs *summary.CaseSummary, outDir string) error {
	readme := fmt.Sprintf(readmeTemplate, cs.CaseID, len(cs.EvidenceSummaries))
	if err := os.WriteFile(filepath.Join(outDir, "documentation", "README.md"), []byte(readme), 0o644); err != nil {
		return fmt.Errorf("deliverable: write README.md: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "documentation", "methodology.md"), []byte(methodologyTemplate), 0o644); err != nil {
		return fmt.Errorf("deliverable: write methodology.md: %w", err)
	}
	return nil
}

const readmeTemplate = `# Evidence Package: %s

This package contains %d pieces of processed evidence, their analyses,
correlation output, and generated reports.

See documentation/methodology.md for how this package was produced.
`

const methodologyTemplate = `# Methodology

Each piece of evidence is content-addressed by SHA-256 and analyzed once
per evidence type (document, image, email) via a structured model call.
Cross-evidence correlation builds a deterministic timeline, canonicalizes
entities, detects temporal sequences and legal patterns, and assembles a
relationship network. Reports are generated independently from the
resulting case summary; a report with no qualifying data is omitted
rather than produced empty.
`

func copyRawEvidence(ctx context.Context, st Store, cs *summary.CaseSummary, outDir string) error {
	for _, e := range cs.EvidenceSummaries {
		rc, err := st.LoadRaw(ctx, e.SHA256)
		if err != nil {
			return fmt.Errorf("deliverable: load raw sha256=%s: %w", e.SHA256, err)
		}
		dest := filepath.Join(outDir, "raw_evidence", fmt.Sprintf("%s_%s", truncateSHA(e.SHA256), sanitizeFilename(e.Filename)))
		f, err := os.Create(dest)
		if err != nil {
			rc.Close()
			return fmt.Errorf("deliverable: create raw copy: %w", err)
		}
		_, copyErr := io.Copy(f, rc)
		rc.Close()
		closeErr := f.Close()
		if copyErr != nil {
			return fmt.Errorf("deliverable: copy raw evidence sha256=%s: %w", e.SHA256, copyErr)
		}
		if closeErr != nil {
			return fmt.Errorf("deliverable: close raw copy: %w", closeErr)
		}
	}
	return nil
}

func zipDirectory(srcDir, destZip string) error {
	f, err := os.Create(destZip)
	if err != nil {
		return fmt.Errorf("deliverable: create zip: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: rel, Method: zip.Deflate})
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("deliverable: walk source tree: %w", err)
	}
	return zw.Close()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("deliverable: marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("deliverable: write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// storeAsSummaryStore adapts deliverable.Store to summary.Store — same
// method set, distinct interfaces per package per the codebase's
// narrow-local-interface convention.
type storeAsSummaryStore struct{ Store }
