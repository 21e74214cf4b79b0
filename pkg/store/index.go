package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteCaseIndex is a rebuildable derived cache over the filesystem case
// links, so ListCaseSHAs on a large case does not require a directory
// walk on every call. It is never the source of truth — Rebuild always
// wins a conflict with the filesystem.
type SQLiteCaseIndex struct {
	db *sql.DB
}

func OpenSQLiteCaseIndex(path string) (*SQLiteCaseIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite index %s: %w", path, err)
	}
	idx := &SQLiteCaseIndex{db: db}
	if err := idx.migrate(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *SQLiteCaseIndex) migrate() error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS case_links (
			case_id TEXT NOT NULL,
			sha256  TEXT NOT NULL,
			PRIMARY KEY (case_id, sha256)
		);
		CREATE INDEX IF NOT EXISTS idx_case_links_case ON case_links(case_id);
	`)
	if err != nil {
		return fmt.Errorf("store: migrate sqlite index: %w", err)
	}
	return nil
}

func (idx *SQLiteCaseIndex) RecordLink(ctx context.Context, caseID, sha256 string) error {
	_, err := idx.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO case_links (case_id, sha256) VALUES (?, ?)`, caseID, sha256)
	if err != nil {
		return fmt.Errorf("store: sqlite index record link: %w", err)
	}
	return nil
}

func (idx *SQLiteCaseIndex) CaseSHAs(ctx context.Context, caseID string) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT sha256 FROM case_links WHERE case_id = ? ORDER BY sha256`, caseID)
	if err != nil {
		return nil, fmt.Errorf("store: sqlite index query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var shas []string
	for rows.Next() {
		var sha string
		if err := rows.Scan(&sha); err != nil {
			return nil, fmt.Errorf("store: sqlite index scan: %w", err)
		}
		shas = append(shas, sha)
	}
	return shas, rows.Err()
}

// Rebuild discards the index and repopulates it from <root>/cases/ on
// disk, the authoritative source.
func (idx *SQLiteCaseIndex) Rebuild(ctx context.Context, root string) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: sqlite index rebuild begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM case_links`); err != nil {
		return fmt.Errorf("store: sqlite index rebuild clear: %w", err)
	}

	caseEntries, err := os.ReadDir(filepath.Join(root, "cases"))
	if err != nil {
		return fmt.Errorf("store: sqlite index rebuild list cases: %w", err)
	}
	for _, caseEntry := range caseEntries {
		links, err := os.ReadDir(filepath.Join(root, "cases", caseEntry.Name()))
		if err != nil {
			continue
		}
		for _, link := range links {
			sum := strings.TrimSuffix(link.Name(), filepath.Ext(link.Name()))
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO case_links (case_id, sha256) VALUES (?, ?)`,
				caseEntry.Name(), sum); err != nil {
				return fmt.Errorf("store: sqlite index rebuild insert: %w", err)
			}
		}
	}

	return tx.Commit()
}
