// Package deliverable implements the package builder (C10): assembling a
// case's reports, analyses, catalog, and correlation output into a
// directory tree or a deflated zip archive.
package deliverable

import (
	"context"
	"io"
	"time"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/config"
)

// Format is the closed set of package output shapes (§4.10 step 10),
// reusing config's package.format enum rather than redeclaring it.
type Format = config.PackageFormat

const (
	FormatDirectory = config.FormatDirectory
	FormatZip       = config.FormatZip
)

// Store is the narrow slice of pkg/store's API this package needs.
type Store interface {
	ListCaseSHAs(ctx context.Context, caseID string) ([]string, error)
	LoadMetadata(ctx context.Context, sha256 string) (*analysis.FileMetadata, error)
	LoadAnalysis(ctx context.Context, sha256 string) (*analysis.UnifiedAnalysis, bool, error)
	LoadRaw(ctx context.Context, sha256 string) (io.ReadCloser, error)
}

// Options configures one package build (§6 package.* keys).
type Options struct {
	IncludeRawEvidence bool
	Format             Format
}

// CatalogEntry is one evidence item's row in evidence_catalog.json.
type CatalogEntry struct {
	Filename          string                `json:"filename"`
	SHA256            string                `json:"sha256"`
	EvidenceType       string                `json:"evidence_type"`
	SizeBytes         int64                 `json:"size_bytes"`
	Confidence        float64               `json:"confidence"`
	LegalSignificance analysis.Significance `json:"legal_significance,omitempty"`
	RiskFlags         []string              `json:"risk_flags,omitempty"`
	TopFindings       string                `json:"top_findings"`
	CustodyPointer    string                `json:"custody_pointer"`
}

// Metadata is package_metadata.json's content (§4.10 step 9).
type Metadata struct {
	CreatedAt      time.Time      `json:"created_at"`
	CaseID         string         `json:"case_id"`
	CountsByType   map[string]int `json:"counts_by_type"`
	ReportFiles    []string       `json:"report_files"`
	AnalysisFiles  []string       `json:"analysis_files"`
	Format         Format         `json:"format"`
}

// BuildResult is what a successful package build reports back.
type BuildResult struct {
	CaseID      string
	OutputPath  string // directory path, or zip file path when Format == FormatZip
	Format      Format
	SkippedReports []string
	FailedReports  map[string]string
}
