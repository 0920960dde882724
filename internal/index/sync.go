package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/models"
	"github.com/starford/specgraph/internal/parser"
	"github.com/starford/specgraph/internal/storage"
)

// SyncStats reports what a Sync changed.
type SyncStats struct {
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

// Sync brings the index up to date with the store:
//   - new/changed documents (by checksum) are parsed and upserted
//   - documents no longer in the store are deleted from the index
func Sync(ctx context.Context, db SpecIndex, store storage.DocumentStore, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return stats, fmt.Errorf("index: sync: %w", err)
	}

	checksums, err := db.AllChecksums(ctx)
	if err != nil {
		return stats, err
	}

	present := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		present[d.ID] = struct{}{}
		if d.Err != nil {
			logger.Warn("sync: unreadable spec", slog.String("id", d.ID), slog.String("error", d.Err.Error()))
			continue
		}

		if checksums[d.ID] == d.Checksum {
			stats.Unchanged++
			continue
		}
		if err := indexDocument(ctx, db, d); err != nil {
			logger.Warn("sync: index failed", slog.String("id", d.ID), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("sync: indexed", slog.String("id", d.ID))
	}

	for id := range checksums {
		if _, ok := present[id]; ok {
			continue
		}
		if err := db.DeleteSpec(ctx, id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("id", id))
	}

	return stats, nil
}

// indexDocument parses a document and upserts it with its outgoing refs.
func indexDocument(ctx context.Context, db SpecIndex, d models.Document) error {
	res := parser.Parse(d.Raw)

	refs := make([]RefRow, 0, len(res.Dependencies)+len(res.References))
	for _, dep := range res.Dependencies {
		refs = append(refs, RefRow{Target: dep.ID, Type: string(dep.Type)})
	}
	for _, r := range res.References {
		refs = append(refs, RefRow{Target: r, Type: string(graph.Reference)})
	}

	row := SpecRow{
		ID:        d.ID,
		Path:      d.Path,
		Title:     res.Title,
		Checksum:  d.Checksum,
		UpdatedAt: time.Now().UTC(),
	}
	return db.UpsertSpec(ctx, row, res.Body, refs)
}
