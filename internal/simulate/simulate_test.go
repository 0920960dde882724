package simulate

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/models"
)

func newGraph(t *testing.T, ids []string, edges ...graph.Edge) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range ids {
		if err := g.AddNode(graph.Node{ID: id, Path: id + "/spec.md"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if _, err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	g.Freeze()
	return g
}

func baseWithFeatures(t *testing.T) *graph.Graph {
	ids := []string{"base", "feature1", "feature2", "feature3", "feature4", "feature5"}
	var edges []graph.Edge
	for _, f := range ids[1:] {
		edges = append(edges, graph.Edge{From: f, To: "base"})
	}
	return newGraph(t, ids, edges...)
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestSimulate_DoesNotMutateBase(t *testing.T) {
	g := baseWithFeatures(t)
	nodesBefore := g.Nodes()
	edgesBefore := g.Edges()

	_, err := New(nil).Simulate(g, "base", []Delta{
		Removed{ID: "feature1"},
		Added{ID: "feature6", Dependencies: []string{"base"}},
		Modified{ID: "feature2", AddDependencies: []string{"feature3"}},
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	nodesAfter := g.Nodes()
	if len(nodesAfter) != len(nodesBefore) {
		t.Fatalf("node count changed: %d -> %d", len(nodesBefore), len(nodesAfter))
	}
	for i := range nodesBefore {
		if nodesBefore[i].ID != nodesAfter[i].ID ||
			!slices.Equal(nodesBefore[i].DependsOn, nodesAfter[i].DependsOn) ||
			!slices.Equal(nodesBefore[i].DependedBy, nodesAfter[i].DependedBy) {
			t.Errorf("node %s changed: %+v -> %+v", nodesBefore[i].ID, nodesBefore[i], nodesAfter[i])
		}
	}
	if !slices.Equal(edgesBefore, g.Edges()) {
		t.Errorf("edges changed")
	}
	if !g.Frozen() {
		t.Error("base graph should remain frozen")
	}
}

func TestSimulate_RemovedBase(t *testing.T) {
	g := baseWithFeatures(t)
	res, err := New(nil).Simulate(g, "base", []Delta{Removed{ID: "base"}})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if res.Projected.TotalSpecs != res.Current.TotalSpecs-1 {
		t.Errorf("projected total = %d, current = %d", res.Projected.TotalSpecs, res.Current.TotalSpecs)
	}
	if !hasWarning(res.Warnings, "dangling references") {
		t.Errorf("warnings = %v, want dangling-reference warning", res.Warnings)
	}
	if res.Projected.TargetRiskScore != 0 || res.Projected.TargetRiskLevel != models.LevelLow {
		t.Errorf("projected = %+v, want 0/low", res.Projected)
	}
	if len(res.NoLongerAffected) != 5 {
		t.Errorf("noLongerAffected = %v", res.NoLongerAffected)
	}
	if len(res.Changes.EdgesRemoved) != 5 || res.Projected.TotalEdges != 0 {
		t.Errorf("edges removed = %d, projected edges = %d", len(res.Changes.EdgesRemoved), res.Projected.TotalEdges)
	}
}

func TestSimulate_AddedIsIdempotent(t *testing.T) {
	g := baseWithFeatures(t)
	add := Added{ID: "feature6", Dependencies: []string{"base"}}
	s := New(nil)

	once, err := s.Simulate(g, "base", []Delta{add})
	if err != nil {
		t.Fatal(err)
	}
	twice, err := s.Simulate(g, "base", []Delta{add, add})
	if err != nil {
		t.Fatal(err)
	}
	if once.Projected != twice.Projected {
		t.Errorf("projected differs: %+v vs %+v", once.Projected, twice.Projected)
	}
	if !slices.Equal(once.Changes.Added, twice.Changes.Added) {
		t.Errorf("added differs: %v vs %v", once.Changes.Added, twice.Changes.Added)
	}
	if len(once.NewlyAffected) != 1 || once.NewlyAffected[0].ID != "feature6" {
		t.Errorf("newlyAffected = %+v", once.NewlyAffected)
	}
}

func TestSimulate_AddedExistingWarns(t *testing.T) {
	g := baseWithFeatures(t)
	res, err := New(nil).Simulate(g, "base", []Delta{Added{ID: "feature1"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Changes.Added) != 0 || !hasWarning(res.Warnings, "already exists") {
		t.Errorf("changes = %+v warnings = %v", res.Changes, res.Warnings)
	}
}

func TestSimulate_AddedOrderIndependent(t *testing.T) {
	g := newGraph(t, []string{"core"})
	mfa := Added{ID: "mfa", Description: "second factor", Dependencies: []string{"login"}}
	login := Added{ID: "login", Dependencies: []string{"core"}}
	s := New(nil)

	forward, err := s.Simulate(g, "core", []Delta{login, mfa})
	if err != nil {
		t.Fatal(err)
	}
	backward, err := s.Simulate(g, "core", []Delta{mfa, login})
	if err != nil {
		t.Fatal(err)
	}
	if backward.Projected != forward.Projected || backward.Projected.TotalEdges != 2 {
		t.Errorf("projected = %+v vs %+v, want 2 edges each", backward.Projected, forward.Projected)
	}
	if hasWarning(backward.Warnings, "does not resolve") {
		t.Errorf("warnings = %v", backward.Warnings)
	}
	if len(backward.NewlyAffected) != 2 {
		t.Errorf("newlyAffected = %+v, want login and mfa", backward.NewlyAffected)
	}
}

func TestApplier_AddedLeavesTitleEmpty(t *testing.T) {
	g := newGraph(t, []string{"core"})
	a := &applier{base: g, g: g.Clone(), res: &Result{}}
	a.apply(Added{ID: "mfa", Description: "introduce a second factor"})

	n, ok := a.g.Node("mfa")
	if !ok {
		t.Fatal("mfa not added")
	}
	if n.Title != "" {
		t.Errorf("title = %q, want empty", n.Title)
	}
}

func TestSimulate_AddedThenRemovedDropsLinks(t *testing.T) {
	g := newGraph(t, []string{"core"})
	res, err := New(nil).Simulate(g, "core", []Delta{
		Added{ID: "tmp", Dependencies: []string{"core"}},
		Removed{ID: "tmp"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Projected.TotalSpecs != 1 || res.Projected.TotalEdges != 0 {
		t.Errorf("projected = %+v", res.Projected)
	}
}

func TestApplier_RemovedCleansReferences(t *testing.T) {
	// a -> mid -> b
	g := newGraph(t, []string{"a", "mid", "b"},
		graph.Edge{From: "a", To: "mid"},
		graph.Edge{From: "mid", To: "b"},
	)
	a := &applier{base: g, g: g.Clone(), res: &Result{}}
	a.apply(Removed{ID: "mid"})

	if a.g.Has("mid") {
		t.Fatal("mid still present")
	}
	for _, n := range a.g.Nodes() {
		if slices.Contains(n.DependsOn, "mid") || slices.Contains(n.DependedBy, "mid") {
			t.Errorf("node %s still references mid: %+v", n.ID, n)
		}
	}
	if a.g.EdgeCount() != 0 {
		t.Errorf("edges = %v", a.g.Edges())
	}
	if err := a.g.CheckInvariants(); err != nil {
		t.Error(err)
	}
	if len(a.hazards) != 1 {
		t.Errorf("hazards = %v", a.hazards)
	}
}

func TestSimulate_RiskJumpWarnings(t *testing.T) {
	g := newGraph(t, []string{"core"})
	var deltas []Delta
	for _, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
		deltas = append(deltas, Added{ID: id, Dependencies: []string{"core"}})
	}
	res, err := New(nil).Simulate(g, "core", deltas)
	if err != nil {
		t.Fatal(err)
	}
	if res.RiskDelta != 10 {
		t.Errorf("risk delta = %d, want 10", res.RiskDelta)
	}
	for _, want := range []string{"risk score rises", "newly affected", "crosses into high"} {
		if !hasWarning(res.Warnings, want) {
			t.Errorf("missing warning %q in %v", want, res.Warnings)
		}
	}
	if len(res.Changes.EdgesAdded) != 5 {
		t.Errorf("edges added = %d, want 5", len(res.Changes.EdgesAdded))
	}
}

func TestSimulate_ModifiedIsAdditive(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c"}, graph.Edge{From: "a", To: "b"})
	res, err := New(nil).Simulate(g, "c", []Delta{
		Modified{ID: "a", AddDependencies: []string{"c", "ghost"}, RemoveDependencies: []string{"b"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NewlyAffected) != 1 || res.NewlyAffected[0].ID != "a" {
		t.Errorf("newlyAffected = %+v", res.NewlyAffected)
	}
	if len(res.Changes.EdgesRemoved) != 0 {
		t.Errorf("edges removed = %+v, want none", res.Changes.EdgesRemoved)
	}
	if !hasWarning(res.Warnings, "not simulated") || !hasWarning(res.Warnings, "ghost does not resolve") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestSimulate_UnknownIDs(t *testing.T) {
	g := newGraph(t, []string{"a"})

	_, err := New(nil).Simulate(g, "missing", nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	res, err := New(nil).Simulate(g, "a", []Delta{Removed{ID: "ghost"}, Modified{ID: "ghost"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 2 || res.Projected != res.Current {
		t.Errorf("warnings = %v projected = %+v", res.Warnings, res.Projected)
	}
}

func TestDeltaItem_ToDelta(t *testing.T) {
	d, err := DeltaItem{Type: "added", SpecID: " auth/new ", NewDependencies: []string{"base", " "}}.ToDelta()
	if err != nil {
		t.Fatalf("ToDelta: %v", err)
	}
	added, ok := d.(Added)
	if !ok || added.ID != "auth/new" || !slices.Equal(added.Dependencies, []string{"base"}) {
		t.Errorf("delta = %#v", d)
	}

	for _, bad := range []DeltaItem{{Type: "ADDED"}, {Type: "RENAMED", SpecID: "x"}, {SpecID: "x"}} {
		if _, err := bad.ToDelta(); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("ToDelta(%+v) err = %v, want ErrInvalid", bad, err)
		}
	}
}
