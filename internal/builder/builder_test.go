package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/models"
	"github.com/starford/specgraph/internal/testutil"
)

func TestBuild_EdgesAndInverse(t *testing.T) {
	_, store := testutil.SpecTree(t, map[string]string{
		"base":     testutil.Depends("Base"),
		"auth":     testutil.Depends("Auth", "base"),
		"checkout": testutil.Depends("Checkout", "auth", "base"),
	})

	res, err := New(store, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g := res.Graph
	if g.Len() != 3 || g.EdgeCount() != 3 {
		t.Fatalf("nodes=%d edges=%d, want 3/3", g.Len(), g.EdgeCount())
	}
	base, _ := g.Node("base")
	if !slices.Equal(base.DependedBy, []string{"auth", "checkout"}) {
		t.Errorf("base.DependedBy = %v", base.DependedBy)
	}
	if base.Title != "Base" {
		t.Errorf("title = %q", base.Title)
	}
	checkout, _ := g.Node("checkout")
	if !slices.Equal(checkout.DependsOn, []string{"auth", "base"}) {
		t.Errorf("checkout.DependsOn = %v", checkout.DependsOn)
	}
	if err := g.CheckInvariants(); err != nil {
		t.Error(err)
	}
	if !g.Frozen() {
		t.Error("built graph should be frozen")
	}
}

func TestBuild_DropsDanglingAndSelf(t *testing.T) {
	_, store := testutil.SpecTree(t, map[string]string{
		"a": testutil.Depends("A", "ghost", "a", "b"),
		"b": "# B\nSee `nowhere` and [[a]].\n",
	})
	res, err := New(store, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Stats.Dangling != 2 || res.Stats.SelfRefs != 1 {
		t.Errorf("stats = %+v, want 2 dangling / 1 self", res.Stats)
	}
	if res.Graph.EdgeCount() != 2 {
		t.Errorf("edges = %v", res.Graph.Edges())
	}
	for _, e := range res.Graph.Edges() {
		if !res.Graph.Has(e.To) || !res.Graph.Has(e.From) {
			t.Errorf("edge %+v has a missing endpoint", e)
		}
	}
	e, ok := res.Graph.Edge("b", "a")
	if !ok || e.Type != graph.Reference {
		t.Errorf("b->a = %+v, %v; want reference edge", e, ok)
	}
}

func TestFromDocuments_HeaderWinsOverReference(t *testing.T) {
	docs := []models.Document{
		{ID: "a", Path: "a/spec.md", Raw: []byte("---\ndepends:\n  - id: b\n    type: api\n---\nUses [[b]].\n")},
		{ID: "b", Path: "b/spec.md", Raw: []byte("# B\n")},
	}
	res, err := FromDocuments(docs)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := res.Graph.Edge("a", "b")
	if !ok || e.Type != graph.API {
		t.Errorf("a->b = %+v, want api edge", e)
	}
	if res.Graph.EdgeCount() != 1 {
		t.Errorf("edges = %d, want 1", res.Graph.EdgeCount())
	}
}

func TestFromDocuments_MalformedHeaderIsWarning(t *testing.T) {
	docs := []models.Document{
		{ID: "bad", Path: "bad/spec.md", Raw: []byte("---\n: nope: {{{\n---\nbody\n")},
	}
	res, err := FromDocuments(docs)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Graph.Has("bad") {
		t.Error("malformed document should still be a node")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Path != "bad/spec.md" {
		t.Errorf("warnings = %+v", res.Warnings)
	}
}

func TestBuild_MissingRootIsIOError(t *testing.T) {
	root, store := testutil.SpecTree(t, nil)
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	_, err := New(store, nil).Build(context.Background())
	if !errors.Is(err, apperr.ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestBuild_EmptyTree(t *testing.T) {
	_, store := testutil.SpecTree(t, nil)
	res, err := New(store, nil).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Graph.Len() != 0 {
		t.Errorf("nodes = %d, want 0", res.Graph.Len())
	}
}

func TestBuild_UnreadableSpecIsWarning(t *testing.T) {
	root, store := testutil.SpecTree(t, map[string]string{
		"base":     testutil.Depends("Base"),
		"feature1": testutil.Depends("Feature 1", "base", "broken"),
	})
	if err := os.MkdirAll(filepath.Join(root, "broken"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "missing.md"), filepath.Join(root, "broken", "spec.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := New(store, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Graph.Len() != 3 || res.Graph.EdgeCount() != 2 {
		t.Errorf("nodes=%d edges=%d, want 3/2", res.Graph.Len(), res.Graph.EdgeCount())
	}
	base, _ := res.Graph.Node("base")
	if !slices.Equal(base.DependedBy, []string{"feature1"}) {
		t.Errorf("base.DependedBy = %v", base.DependedBy)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Path != "broken/spec.md" {
		t.Errorf("warnings = %+v, want one for broken/spec.md", res.Warnings)
	}
}
