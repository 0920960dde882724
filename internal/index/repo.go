package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SpecRow represents a row in the specs table.
type SpecRow struct {
	ID        string
	Path      string
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// RefRow is one outgoing dependency or reference recorded for a spec.
type RefRow struct {
	Target string
	Type   string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertSpec inserts or replaces a spec, its FTS entry, and refs within a transaction.
func (db *DB) UpsertSpec(ctx context.Context, s SpecRow, body string, refs []RefRow) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO specs (id, path, title, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path       = excluded.path,
			title      = excluded.title,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, s.ID, s.Path, s.Title, s.Checksum, body, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert spec: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(ctx, tx, s.ID, s.Path, s.Title, body); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM refs WHERE source = ?`, s.ID); err != nil {
		return fmt.Errorf("index: clear refs: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO refs (source, target, type) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range refs {
			if _, err := stmt.ExecContext(ctx, s.ID, r.Target, r.Type); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteSpec removes a spec, its FTS entry, and outgoing refs.
func (db *DB) DeleteSpec(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM refs WHERE source = ?`, id); err != nil {
		return fmt.Errorf("index: delete refs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM specs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete spec: %w", err)
	}
	return tx.Commit()
}

// AllChecksums returns id -> checksum for every indexed spec.
func (db *DB) AllChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, checksum FROM specs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Referrers returns the ids of specs that depend on or mention target.
func (db *DB) Referrers(ctx context.Context, target string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT source FROM refs WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: referrers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
