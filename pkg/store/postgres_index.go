package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresCaseIndex is the alternate CaseIndex backend for deployments
// that already run Postgres for other services and would rather not add
// a local sqlite file per orchestrator host. Selected when
// storage.index_dsn has a postgres:// scheme.
type PostgresCaseIndex struct {
	db *sql.DB
}

func OpenPostgresCaseIndex(dsn string) (*PostgresCaseIndex, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres index: %w", err)
	}
	idx := &PostgresCaseIndex{db: db}
	if err := idx.migrate(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *PostgresCaseIndex) migrate() error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS case_links (
			case_id TEXT NOT NULL,
			sha256  TEXT NOT NULL,
			PRIMARY KEY (case_id, sha256)
		);
		CREATE INDEX IF NOT EXISTS idx_case_links_case ON case_links(case_id);
	`)
	if err != nil {
		return fmt.Errorf("store: migrate postgres index: %w", err)
	}
	return nil
}

func (idx *PostgresCaseIndex) RecordLink(ctx context.Context, caseID, sha256 string) error {
	_, err := idx.db.ExecContext(ctx,
		`INSERT INTO case_links (case_id, sha256) VALUES ($1, $2) ON CONFLICT DO NOTHING`, caseID, sha256)
	if err != nil {
		return fmt.Errorf("store: postgres index record link: %w", err)
	}
	return nil
}

func (idx *PostgresCaseIndex) CaseSHAs(ctx context.Context, caseID string) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT sha256 FROM case_links WHERE case_id = $1 ORDER BY sha256`, caseID)
	if err != nil {
		return nil, fmt.Errorf("store: postgres index query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var shas []string
	for rows.Next() {
		var sha string
		if err := rows.Scan(&sha); err != nil {
			return nil, fmt.Errorf("store: postgres index scan: %w", err)
		}
		shas = append(shas, sha)
	}
	return shas, rows.Err()
}

func (idx *PostgresCaseIndex) Rebuild(ctx context.Context, root string) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: postgres index rebuild begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM case_links`); err != nil {
		return fmt.Errorf("store: postgres index rebuild clear: %w", err)
	}

	caseEntries, err := os.ReadDir(filepath.Join(root, "cases"))
	if err != nil {
		return fmt.Errorf("store: postgres index rebuild list cases: %w", err)
	}
	for _, caseEntry := range caseEntries {
		links, err := os.ReadDir(filepath.Join(root, "cases", caseEntry.Name()))
		if err != nil {
			continue
		}
		for _, link := range links {
			sum := strings.TrimSuffix(link.Name(), filepath.Ext(link.Name()))
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO case_links (case_id, sha256) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				caseEntry.Name(), sum); err != nil {
				return fmt.Errorf("store: postgres index rebuild insert: %w", err)
			}
		}
	}

	return tx.Commit()
}
