// Package store implements the content-addressed evidence store (C1): raw
// blobs keyed by SHA-256, derived metadata/custody/analysis files, and
// per-case links, with the filesystem layout fixed by spec §6.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/analysis"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/evidencekind"
	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/toolkiterrors"
)

// Store is the sole writer to its tree (§5); every other component
// obtains handles through this API.
type Store struct {
	root   string
	locker Locker
	index  CaseIndex // optional derived cache, may be nil
}

// CaseIndex is the optional derived case-index cache (sqlite or postgres
// backed, see index.go/postgres_index.go). A nil CaseIndex means every
// lookup falls back to walking the filesystem.
type CaseIndex interface {
	RecordLink(ctx context.Context, caseID, sha256 string) error
	CaseSHAs(ctx context.Context, caseID string) ([]string, error)
	Rebuild(ctx context.Context, root string) error
}

func New(root string, locker Locker, index CaseIndex) (*Store, error) {
	if root == "" {
		return nil, &toolkiterrors.ConfigError{Field: "storage.root", Reason: "must not be empty"}
	}
	if locker == nil {
		locker = NewInProcessLocker()
	}
	for _, dir := range []string{"raw", "derived", "cases", "packages"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	return &Store{root: root, locker: locker, index: index}, nil
}

// Root returns the store's filesystem root, for callers (the orchestrator)
// that need to derive paths outside the Store's own managed subtrees, such
// as the package output path under <root>/packages (§6).
func (s *Store) Root() string { return s.root }

func (s *Store) rawDir(sha256Hex string) string    { return filepath.Join(s.root, "raw", "sha256="+sha256Hex) }
func (s *Store) derivedDir(sha256Hex string) string { return filepath.Join(s.root, "derived", "sha256="+sha256Hex) }
func (s *Store) caseDir(caseID string) string       { return filepath.Join(s.root, "cases", caseID) }

// Ingest hashes r, writes the raw blob on first sight, writes metadata only
// when none exists yet (the first-seen filename and extension are kept),
// links the case, and appends exactly one custody event: `ingest`
// for a brand-new SHA-256, `add-to-case` if the bytes are already known
// under a different (or no) case (P1, P2).
func (s *Store) Ingest(ctx context.Context, r io.Reader, filename, declaredMIME, caseID, actor string) (*analysis.FileMetadata, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "raw"), "ingest-*")
	if err != nil {
		return nil, &toolkiterrors.IngestError{Path: filename, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return nil, &toolkiterrors.IngestError{Path: filename, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &toolkiterrors.IngestError{Path: filename, Err: err}
	}

	sum := hex.EncodeToString(h.Sum(nil))
	unlock, err := s.locker.Lock(ctx, sum)
	if err != nil {
		return nil, fmt.Errorf("store: lock sha256=%s: %w", sum, err)
	}
	defer unlock()

	ext := strings.ToLower(filepath.Ext(filename))
	rawDir := s.rawDir(sum)
	isNew := false

	if _, err := os.Stat(rawDir); os.IsNotExist(err) {
		isNew = true
		if err := os.MkdirAll(rawDir, 0o755); err != nil {
			return nil, &toolkiterrors.IngestError{Path: filename, Err: err}
		}
		dest := filepath.Join(rawDir, "original"+ext)
		if err := os.Rename(tmp.Name(), dest); err != nil {
			_ = os.RemoveAll(rawDir)
			return nil, &toolkiterrors.IngestError{Path: filename, Err: err}
		}
	}

	meta, metaExists, err := s.loadMetadataFile(sum)
	if err != nil {
		return nil, &toolkiterrors.StoreIntegrityError{SHA256: sum, Reason: "metadata load failed", Err: err}
	}

	now := time.Now().UTC()
	if !metaExists {
		meta = &analysis.FileMetadata{
			SHA256:       sum,
			Filename:     filename, // first-seen extension/name is sticky
			SizeBytes:    size,
			MIMEType:     declaredMIME,
			Extension:    ext,
			IngestedAt:   now,
			EvidenceType: evidencekind.Detect(filename, declaredMIME, evidencekind.ProbeResult{}),
		}
		if err := s.writeMetadataFile(sum, meta); err != nil {
			return nil, &toolkiterrors.StoreIntegrityError{SHA256: sum, Reason: "metadata write failed", Err: err}
		}
	}

	newLink := false
	if caseID != "" {
		newLink, err = s.linkCase(ctx, caseID, sum, meta.Extension)
		if err != nil {
			return nil, err
		}
	}

	if isNew || newLink {
		action := analysis.ActionAddToCase
		if isNew {
			action = analysis.ActionIngest
		}
		if err := s.appendCustodyLocked(sum, analysis.NewEvent(actor, action, nil, map[string]interface{}{"case_id": caseID})); err != nil {
			return nil, err
		}
	}

	return meta, nil
}

// linkCase creates <root>/cases/<case-id>/<H>.<ext> pointing at the raw
// blob, idempotently, and records the link in the optional case index. It
// reports whether the filesystem link was newly created, so the caller can
// gate a custody event on actual newness rather than on every call (§4.1).
func (s *Store) linkCase(ctx context.Context, caseID, sha256Hex, ext string) (bool, error) {
	dir := s.caseDir(caseID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("store: create case dir %s: %w", caseID, err)
	}
	link := filepath.Join(dir, sha256Hex+ext)
	newLink := false
	if _, err := os.Stat(link); os.IsNotExist(err) {
		newLink = true
		target := filepath.Join(s.rawDir(sha256Hex), "original"+ext)
		if err := os.Link(target, link); err != nil {
			return false, fmt.Errorf("store: link case=%s sha256=%s: %w", caseID, sha256Hex, err)
		}
	}
	if s.index != nil {
		if err := s.index.RecordLink(ctx, caseID, sha256Hex); err != nil {
			return false, fmt.Errorf("store: record case index case=%s sha256=%s: %w", caseID, sha256Hex, err)
		}
	}
	return newLink, nil
}

// AddToCase links an already-ingested SHA-256 into another case without
// touching its analysis (P2).
func (s *Store) AddToCase(ctx context.Context, sha256Hex, caseID, actor string) error {
	meta, ok, err := s.loadMetadataFile(sha256Hex)
	if err != nil || !ok {
		return &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "metadata not found"}
	}
	unlock, err := s.locker.Lock(ctx, sha256Hex)
	if err != nil {
		return err
	}
	defer unlock()

	newLink, err := s.linkCase(ctx, caseID, sha256Hex, meta.Extension)
	if err != nil {
		return err
	}
	if !newLink {
		return nil
	}
	return s.appendCustodyLocked(sha256Hex, analysis.NewEvent(actor, analysis.ActionAddToCase, nil, map[string]interface{}{"case_id": caseID}))
}

func (s *Store) LoadMetadata(ctx context.Context, sha256Hex string) (*analysis.FileMetadata, error) {
	meta, ok, err := s.loadMetadataFile(sha256Hex)
	if err != nil {
		return nil, &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "metadata load failed", Err: err}
	}
	if !ok {
		return nil, &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "metadata not found"}
	}
	return meta, nil
}

func (s *Store) LoadRaw(ctx context.Context, sha256Hex string) (io.ReadCloser, error) {
	meta, err := s.LoadMetadata(ctx, sha256Hex)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.rawDir(sha256Hex), "original"+meta.Extension))
	if err != nil {
		return nil, &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "raw blob missing", Err: err}
	}
	return f, nil
}

// LoadAnalysis returns (analysis, true, nil) if one exists, (nil, false,
// nil) if not, and a StoreIntegrityError if the file exists but fails
// schema/semantic validation on reload (§4.1 failure semantics, I5).
func (s *Store) LoadAnalysis(ctx context.Context, sha256Hex string) (*analysis.UnifiedAnalysis, bool, error) {
	path := filepath.Join(s.derivedDir(sha256Hex), "analysis.v1.json")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read analysis sha256=%s: %w", sha256Hex, err)
	}

	var ua analysis.UnifiedAnalysis
	if err := json.Unmarshal(raw, &ua); err != nil {
		return nil, false, &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "analysis.v1.json is not valid JSON", Err: err}
	}
	if err := analysis.ValidateSchema(&ua); err != nil {
		return nil, false, &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "analysis.v1.json failed schema validation", Err: err}
	}
	if err := ua.Validate(); err != nil {
		return nil, false, &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "analysis.v1.json failed semantic validation", Err: err}
	}
	return &ua, true, nil
}

// SaveAnalysis writes analysis.v1.json atomically (temp-then-rename). When
// forced is true and a previous analysis exists, it is preserved as
// analysis.v1.json.backup.<unix-epoch> before being overwritten (P4).
func (s *Store) SaveAnalysis(ctx context.Context, sha256Hex string, ua *analysis.UnifiedAnalysis, forced bool) error {
	unlock, err := s.locker.Lock(ctx, sha256Hex)
	if err != nil {
		return err
	}
	defer unlock()

	dir := s.derivedDir(sha256Hex)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create derived dir sha256=%s: %w", sha256Hex, err)
	}
	path := filepath.Join(dir, "analysis.v1.json")

	if forced {
		if prev, err := os.ReadFile(path); err == nil {
			backup := filepath.Join(dir, fmt.Sprintf("analysis.v1.json.backup.%d", time.Now().UTC().Unix()))
			if err := os.WriteFile(backup, prev, 0o644); err != nil {
				return fmt.Errorf("store: write backup sha256=%s: %w", sha256Hex, err)
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("store: read previous analysis sha256=%s: %w", sha256Hex, err)
		}
	}

	raw, err := json.MarshalIndent(ua, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal analysis sha256=%s: %w", sha256Hex, err)
	}
	return atomicWriteFile(path, raw)
}

// AppendCustody appends ev to the SHA-256's custody log under the
// per-artifact lock (P10, §5 ordering guarantees).
func (s *Store) AppendCustody(ctx context.Context, sha256Hex string, ev analysis.CustodyEvent) error {
	unlock, err := s.locker.Lock(ctx, sha256Hex)
	if err != nil {
		return err
	}
	defer unlock()
	return s.appendCustodyLocked(sha256Hex, ev)
}

// appendCustodyLocked assumes the caller already holds the per-SHA-256
// lock (used by Ingest/AddToCase, which must append atomically with their
// other locked work rather than re-acquiring the lock).
func (s *Store) appendCustodyLocked(sha256Hex string, ev analysis.CustodyEvent) error {
	dir := s.derivedDir(sha256Hex)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create derived dir sha256=%s: %w", sha256Hex, err)
	}
	path := filepath.Join(dir, "chain_of_custody.json")

	var log analysis.CustodyLog
	log.SHA256 = sha256Hex
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &log); err != nil {
			return &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "chain_of_custody.json is not valid JSON", Err: err}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("store: read custody log sha256=%s: %w", sha256Hex, err)
	}

	if err := log.Append(ev); err != nil {
		return &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "custody append rejected", Err: err}
	}

	raw, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal custody log sha256=%s: %w", sha256Hex, err)
	}
	return atomicWriteFile(path, raw)
}

func (s *Store) LoadCustody(sha256Hex string) (*analysis.CustodyLog, error) {
	path := filepath.Join(s.derivedDir(sha256Hex), "chain_of_custody.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read custody log sha256=%s: %w", sha256Hex, err)
	}
	var log analysis.CustodyLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, &toolkiterrors.StoreIntegrityError{SHA256: sha256Hex, Reason: "chain_of_custody.json is not valid JSON", Err: err}
	}
	return &log, nil
}

// ListCaseSHAs returns every SHA-256 linked into caseID, preferring the
// derived index when present and falling back to a directory walk.
func (s *Store) ListCaseSHAs(ctx context.Context, caseID string) ([]string, error) {
	if s.index != nil {
		shas, err := s.index.CaseSHAs(ctx, caseID)
		if err == nil {
			return shas, nil
		}
	}

	entries, err := os.ReadDir(s.caseDir(caseID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: list case=%s: %w", caseID, err)
	}
	shas := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		shas = append(shas, strings.TrimSuffix(name, ext))
	}
	sort.Strings(shas)
	return shas, nil
}

// Stats reports coarse counts useful for a progress sink or CLI summary.
type Stats struct {
	TotalArtifacts int
	TotalCases     int
	AnalyzedCount  int
}

func (s *Store) ComputeStats(ctx context.Context) (Stats, error) {
	var st Stats

	rawEntries, err := os.ReadDir(filepath.Join(s.root, "raw"))
	if err != nil {
		return st, fmt.Errorf("store: stats: list raw: %w", err)
	}
	st.TotalArtifacts = len(rawEntries)

	for _, e := range rawEntries {
		sum := strings.TrimPrefix(e.Name(), "sha256=")
		if _, ok, _ := s.LoadAnalysis(ctx, sum); ok {
			st.AnalyzedCount++
		}
	}

	caseEntries, err := os.ReadDir(filepath.Join(s.root, "cases"))
	if err != nil {
		return st, fmt.Errorf("store: stats: list cases: %w", err)
	}
	st.TotalCases = len(caseEntries)

	return st, nil
}

// Cleanup removes broken case links (links pointing at raw blobs that no
// longer exist) and empty case directories, reporting orphaned SHA-256s
// (no case link at all). Destructive only when dryRun is false (§4.1).
func (s *Store) Cleanup(ctx context.Context, dryRun bool) (orphans []string, removed []string, err error) {
	rawEntries, err := os.ReadDir(filepath.Join(s.root, "raw"))
	if err != nil {
		return nil, nil, fmt.Errorf("store: cleanup: list raw: %w", err)
	}
	linked := make(map[string]bool)

	caseEntries, err := os.ReadDir(filepath.Join(s.root, "cases"))
	if err != nil {
		return nil, nil, fmt.Errorf("store: cleanup: list cases: %w", err)
	}
	for _, caseEntry := range caseEntries {
		caseDir := filepath.Join(s.root, "cases", caseEntry.Name())
		links, err := os.ReadDir(caseDir)
		if err != nil {
			continue
		}
		if len(links) == 0 {
			removed = append(removed, caseDir)
			if !dryRun {
				_ = os.Remove(caseDir)
			}
			continue
		}
		for _, link := range links {
			name := link.Name()
			sum := strings.TrimSuffix(name, filepath.Ext(name))
			target := filepath.Join(caseDir, name)
			if _, statErr := os.Stat(target); os.IsNotExist(statErr) {
				removed = append(removed, target)
				if !dryRun {
					_ = os.Remove(target)
				}
				continue
			}
			linked[sum] = true
		}
	}

	for _, e := range rawEntries {
		sum := strings.TrimPrefix(e.Name(), "sha256=")
		if !linked[sum] {
			orphans = append(orphans, sum)
		}
	}

	return orphans, removed, nil
}

// PruneCase removes every SHA-256 exclusively owned by caseID (raw,
// derived, all links); SHA-256s shared with another case only lose the
// link for this case. Defaults to dry-run (§4.1).
func (s *Store) PruneCase(ctx context.Context, caseID string, dryRun bool) ([]string, error) {
	shas, err := s.ListCaseSHAs(ctx, caseID)
	if err != nil {
		return nil, err
	}

	caseEntries, err := os.ReadDir(filepath.Join(s.root, "cases"))
	if err != nil {
		return nil, fmt.Errorf("store: prune_case: list cases: %w", err)
	}

	var pruned []string
	for _, sum := range shas {
		exclusive := true
		for _, other := range caseEntries {
			if other.Name() == caseID {
				continue
			}
			if links, err := os.ReadDir(filepath.Join(s.root, "cases", other.Name())); err == nil {
				for _, l := range links {
					if strings.HasPrefix(l.Name(), sum) {
						exclusive = false
						break
					}
				}
			}
			if !exclusive {
				break
			}
		}

		pruned = append(pruned, sum)
		if dryRun {
			continue
		}
		if exclusive {
			_ = os.RemoveAll(s.rawDir(sum))
			_ = os.RemoveAll(s.derivedDir(sum))
		}
	}

	if !dryRun {
		_ = os.RemoveAll(s.caseDir(caseID))
	}
	return pruned, nil
}

func (s *Store) loadMetadataFile(sha256Hex string) (*analysis.FileMetadata, bool, error) {
	path := filepath.Join(s.derivedDir(sha256Hex), "metadata.json")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var meta analysis.FileMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, false, err
	}
	return &meta, true, nil
}

func (s *Store) writeMetadataFile(sha256Hex string, meta *analysis.FileMetadata) error {
	dir := s.derivedDir(sha256Hex)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(filepath.Join(dir, "metadata.json"), raw)
}

// atomicWriteFile implements the write-to-temp-then-rename discipline
// spec §4.1 requires for every derived file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("store: write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("store: close temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("store: rename %s -> %s: %w", tmpPath, path, err)
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &toolkiterrors.Cancelled{Stage: "store"}
	}
	return nil
}
