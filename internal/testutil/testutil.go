// Package testutil provides shared test helpers for setting up spec trees and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/specgraph/internal/index"
	"github.com/starford/specgraph/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "specgraph-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteSpec writes a spec.md for id under root, creating directories.
func WriteSpec(t *testing.T, root, id, content string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, storage.DefaultFilename), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// SpecTree creates a temporary spec tree from id -> content and returns its
// root together with a store over it.
func SpecTree(t *testing.T, specs map[string]string) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	for id, content := range specs {
		WriteSpec(t, root, id, content)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// Depends renders a spec document whose header depends on the given ids.
func Depends(title string, ids ...string) string {
	s := "---\ntitle: " + title + "\n"
	if len(ids) > 0 {
		s += "depends:\n"
		for _, id := range ids {
			s += "  - " + id + "\n"
		}
	}
	return s + "---\n# " + title + "\n"
}
