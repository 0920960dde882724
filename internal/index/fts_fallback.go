//go:build !sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the specs table.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _, _, _, _ string) error {
	// Body is already stored in the specs table; nothing extra to do.
	return nil
}

func ftsDelete(_ context.Context, _ *sql.Tx, _ string) error { return nil }

// Search performs a LIKE-based search over id, title and body (fallback when
// FTS5 is not compiled in).
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, path, title, substr(body, 1, 200)
		FROM specs
		WHERE id LIKE ? OR title LIKE ? OR body LIKE ?
		ORDER BY id
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}
