// Package storage reads spec documents from a directory tree.
package storage

import (
	"context"

	"github.com/starford/specgraph/internal/models"
)

// DocumentStore is the read-only interface over a spec tree.
type DocumentStore interface {
	// ListDocuments returns every spec document sorted by ID.
	ListDocuments(ctx context.Context) ([]models.Document, error)
	// Read returns the document with the given ID.
	Read(ctx context.Context, id string) (models.Document, error)
}

// DefaultFilename is the file that marks a directory as a spec.
const DefaultFilename = "spec.md"

// DefaultWorkers bounds parallel document reads.
const DefaultWorkers = 4

// FSOption configures an FS store.
type FSOption func(*FS)

// WithFilename sets the spec filename looked up in each directory.
func WithFilename(name string) FSOption {
	return func(f *FS) {
		if name != "" {
			f.filename = name
		}
	}
}

// WithWorkers sets the number of concurrent file reads.
func WithWorkers(n int) FSOption {
	return func(f *FS) {
		if n > 0 {
			f.workers = n
		}
	}
}
