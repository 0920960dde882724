package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/models"
)

// FS implements DocumentStore backed by the local file system.
type FS struct {
	root     string // absolute path to the spec tree
	filename string
	workers  int
}

// NewFS creates a store rooted at the given directory.
// The directory must already exist.
func NewFS(root string, opts ...FSOption) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &apperr.IOError{Op: "resolve root", Path: root, Err: err}
	}
	f := &FS{root: abs, filename: DefaultFilename, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.checkRoot(); err != nil {
		return nil, err
	}
	return f, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

func (f *FS) checkRoot() error {
	info, err := os.Stat(f.root)
	if err != nil {
		return &apperr.IOError{Op: "stat root", Path: f.root, Err: err}
	}
	if !info.IsDir() {
		return &apperr.IOError{Op: "stat root", Path: f.root, Err: errors.New("not a directory")}
	}
	return nil
}

// safePath resolves a relative path against the root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", apperr.Invalid(fmt.Errorf("storage: absolute paths not allowed: %s", rel))
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", &apperr.IOError{Op: "resolve path", Path: rel, Err: err}
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", apperr.Invalid(fmt.Errorf("storage: path escapes root: %s", rel))
	}
	return abs, nil
}

// discover walks the tree and returns the IDs of every directory that holds
// the spec file, sorted. A spec file directly under the root has no ID and
// is skipped.
func (f *FS) discover(ctx context.Context) ([]string, error) {
	if err := f.checkRoot(); err != nil {
		return nil, err
	}
	var ids []string
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != f.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != f.filename {
			return nil
		}
		dir, _ := filepath.Rel(f.root, filepath.Dir(p))
		if dir == "." {
			return nil
		}
		ids = append(ids, filepath.ToSlash(dir))
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &apperr.IOError{Op: "walk", Path: f.root, Err: err}
	}
	sort.Strings(ids)
	return ids, nil
}

// ListDocuments reads every spec document. Reads run concurrently but the
// result is always ordered by ID. A document that cannot be read is returned
// with Err set so one broken file does not hide the rest of the tree; only an
// unreadable root or a cancelled context fails the listing.
func (f *FS) ListDocuments(ctx context.Context) ([]models.Document, error) {
	ids, err := f.discover(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, id := range ids {
		g.Go(func() error {
			doc, err := f.Read(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				doc = models.Document{ID: id, Path: f.relPath(id), Err: f.readError(id, err)}
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// readError reports a listed document as an I/O failure. Read maps a missing
// file to NotFound, but a listed spec that vanishes or dangles is broken, not
// absent.
func (f *FS) readError(id string, err error) error {
	var ioErr *apperr.IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &apperr.IOError{Op: "read", Path: f.relPath(id), Err: err}
}

func (f *FS) relPath(id string) string {
	return filepath.ToSlash(filepath.Join(filepath.FromSlash(id), f.filename))
}

// Read returns the document for a spec ID.
func (f *FS) Read(ctx context.Context, id string) (models.Document, error) {
	if err := ctx.Err(); err != nil {
		return models.Document{}, err
	}
	if strings.TrimSpace(id) == "" {
		return models.Document{}, apperr.Invalid(errors.New("storage: empty spec id"))
	}
	rel := f.relPath(id)
	abs, err := f.safePath(rel)
	if err != nil {
		return models.Document{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Document{}, apperr.NotFound(id)
		}
		return models.Document{}, &apperr.IOError{Op: "read", Path: rel, Err: err}
	}
	return models.Document{
		ID:       id,
		Path:     rel,
		Checksum: contentSum(data),
		Raw:      data,
	}, nil
}

// contentSum is the hex SHA-256 of a document; the index compares it to skip
// unchanged specs.
func contentSum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
