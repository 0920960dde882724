package index

import "context"

// SpecIndex defines the search index operations over spec documents.
// Consumers should depend on this interface rather than the concrete *DB type.
type SpecIndex interface {
	UpsertSpec(ctx context.Context, s SpecRow, body string, refs []RefRow) error
	DeleteSpec(ctx context.Context, id string) error
	AllChecksums(ctx context.Context) (map[string]string, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Referrers(ctx context.Context, target string) ([]string, error)
	Close() error
}

// Verify *DB satisfies SpecIndex at compile time.
var _ SpecIndex = (*DB)(nil)
