// Package simulate projects the impact of hypothetical spec changes onto a
// private copy of the dependency graph.
package simulate

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/impact"
	"github.com/starford/specgraph/internal/models"
	"github.com/starford/specgraph/internal/observability"
)

const (
	riskJumpThreshold     = 2
	newlyAffectedWarnings = 3
)

// Snapshot summarises a graph and the target's risk within it.
type Snapshot struct {
	TotalSpecs      int          `json:"total_specs"`
	TotalEdges      int          `json:"total_edges"`
	TargetRiskScore int          `json:"target_risk_score"`
	TargetRiskLevel models.Level `json:"target_risk_level"`
}

// Changes lists what the deltas did to the graph.
type Changes struct {
	Added        []string     `json:"added"`
	Removed      []string     `json:"removed"`
	Modified     []string     `json:"modified"`
	EdgesAdded   []graph.Edge `json:"edges_added"`
	EdgesRemoved []graph.Edge `json:"edges_removed"`
}

// Result compares the target before and after the deltas.
type Result struct {
	TargetSpec       string                `json:"target_spec"`
	Current          Snapshot              `json:"current"`
	Projected        Snapshot              `json:"projected"`
	Changes          Changes               `json:"changes"`
	NewlyAffected    []models.AffectedSpec `json:"newly_affected"`
	NoLongerAffected []string              `json:"no_longer_affected"`
	RiskDelta        int                   `json:"risk_delta"`
	Warnings         []string              `json:"warnings"`
	Recommendations  []string              `json:"recommendations"`
}

// Simulator applies deltas to a clone and re-runs impact analysis.
type Simulator struct {
	analyzer *impact.Analyzer
}

// New creates a Simulator. A nil analyzer selects default risk weights and depth.
func New(analyzer *impact.Analyzer) *Simulator {
	if analyzer == nil {
		analyzer = impact.NewAnalyzer(nil, 0)
	}
	return &Simulator{analyzer: analyzer}
}

// Simulate applies deltas in order to a clone of g and reports how the
// impact of target changes. g is never modified.
func (s *Simulator) Simulate(g *graph.Graph, target string, deltas []Delta) (*Result, error) {
	defer observability.ObserveSince("simulate", time.Now())

	if !g.Has(target) {
		return nil, apperr.NotFound(target)
	}
	current, err := s.analyzer.Analyze(g, target)
	if err != nil {
		return nil, fmt.Errorf("simulate: analyze current: %w", err)
	}

	res := &Result{
		TargetSpec:       target,
		Current:          snapshot(g, current),
		NewlyAffected:    []models.AffectedSpec{},
		NoLongerAffected: []string{},
		Warnings:         []string{},
	}

	clone := g.Clone()
	a := &applier{base: g, g: clone, res: res}
	for _, d := range deltas {
		a.apply(d)
	}
	a.linkPending()
	if err := clone.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	res.Changes.EdgesAdded, res.Changes.EdgesRemoved = edgeDiff(g, clone)

	var projected *impact.Result
	if clone.Has(target) {
		projected, err = s.analyzer.Analyze(clone, target)
		if err != nil {
			return nil, fmt.Errorf("simulate: analyze projected: %w", err)
		}
		res.Projected = snapshot(clone, projected)
	} else {
		res.Projected = Snapshot{
			TotalSpecs:      clone.Len(),
			TotalEdges:      clone.EdgeCount(),
			TargetRiskScore: 0,
			TargetRiskLevel: models.LevelLow,
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("target %s is removed by the proposed changes", target))
	}

	res.NewlyAffected, res.NoLongerAffected = affectedDiff(current, projected)
	res.RiskDelta = res.Projected.TargetRiskScore - res.Current.TargetRiskScore

	if res.RiskDelta > riskJumpThreshold {
		res.Warnings = append(res.Warnings, fmt.Sprintf("risk score rises by %d points (%d -> %d)",
			res.RiskDelta, res.Current.TargetRiskScore, res.Projected.TargetRiskScore))
	}
	if len(res.NewlyAffected) > newlyAffectedWarnings {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d specs become newly affected", len(res.NewlyAffected)))
	}
	if res.Current.TargetRiskLevel != models.LevelHigh && res.Projected.TargetRiskLevel == models.LevelHigh {
		res.Warnings = append(res.Warnings, fmt.Sprintf("risk level crosses into high (was %s)", res.Current.TargetRiskLevel))
	}
	res.Warnings = append(res.Warnings, a.hazards...)

	if projected != nil {
		res.Recommendations = append(res.Recommendations, projected.Recommendations...)
	}
	res.Recommendations = append(res.Recommendations, a.advice...)
	res.Recommendations = dedupe(res.Recommendations)
	if res.Changes.Added == nil {
		res.Changes.Added = []string{}
	}
	if res.Changes.Removed == nil {
		res.Changes.Removed = []string{}
	}
	if res.Changes.Modified == nil {
		res.Changes.Modified = []string{}
	}
	return res, nil
}

// applier mutates the clone and collects per-delta notes. Node additions and
// removals are applied in delta order; new edges are queued and linked once
// every delta has run, so a dependency on a spec added later in the same
// batch still resolves.
type applier struct {
	base    *graph.Graph
	g       *graph.Graph
	res     *Result
	pending []pendingLink
	hazards []string
	advice  []string
}

type pendingLink struct {
	kind ChangeType
	from string
	deps []string
}

func (a *applier) warnf(format string, args ...any) {
	a.res.Warnings = append(a.res.Warnings, fmt.Sprintf(format, args...))
}

func (a *applier) apply(d Delta) {
	switch d := d.(type) {
	case Added:
		a.added(d)
	case Modified:
		a.modified(d)
	case Removed:
		a.removed(d)
	}
}

func (a *applier) added(d Added) {
	if a.g.Has(d.ID) {
		if a.base.Has(d.ID) {
			a.warnf("ADDED %s: spec already exists, ignored", d.ID)
		}
		return
	}
	// AddNode only fails on duplicates or a frozen graph; neither applies to
	// a fresh clone after the Has check.
	_ = a.g.AddNode(graph.Node{ID: d.ID})
	a.res.Changes.Added = append(a.res.Changes.Added, d.ID)
	a.link(d.Kind(), d.ID, d.Dependencies)
}

func (a *applier) modified(d Modified) {
	if !a.g.Has(d.ID) {
		a.warnf("MODIFIED %s: spec not found, ignored", d.ID)
		return
	}
	if len(d.RemoveDependencies) > 0 {
		a.warnf("MODIFIED %s: removing dependencies is not simulated, ignored %s",
			d.ID, strings.Join(d.RemoveDependencies, ", "))
	}
	a.link(d.Kind(), d.ID, d.AddDependencies)
	if !slices.Contains(a.res.Changes.Modified, d.ID) {
		a.res.Changes.Modified = append(a.res.Changes.Modified, d.ID)
	}
}

func (a *applier) removed(d Removed) {
	if !a.g.Has(d.ID) {
		a.warnf("REMOVED %s: spec not found, ignored", d.ID)
		return
	}
	if n, ok := a.base.Node(d.ID); ok && len(n.DependedBy) > 0 {
		a.hazards = append(a.hazards, fmt.Sprintf("removing %s leaves dangling references in %d specs: %s",
			d.ID, len(n.DependedBy), strings.Join(n.DependedBy, ", ")))
		a.advice = append(a.advice, fmt.Sprintf("Update %s before removing %s",
			strings.Join(n.DependedBy, ", "), d.ID))
	}
	_ = a.g.RemoveNode(d.ID)
	a.res.Changes.Removed = append(a.res.Changes.Removed, d.ID)
}

func (a *applier) link(kind ChangeType, from string, deps []string) {
	if len(deps) > 0 {
		a.pending = append(a.pending, pendingLink{kind: kind, from: from, deps: deps})
	}
}

func (a *applier) linkPending() {
	for _, p := range a.pending {
		// The source was removed by a later delta.
		if !a.g.Has(p.from) {
			continue
		}
		for _, to := range p.deps {
			if to == p.from {
				continue
			}
			if !a.g.Has(to) {
				a.warnf("%s %s: dependency %s does not resolve, skipped", p.kind, p.from, to)
				continue
			}
			_, _ = a.g.AddEdge(graph.Edge{From: p.from, To: to, Type: graph.Explicit})
		}
	}
}

func snapshot(g *graph.Graph, r *impact.Result) Snapshot {
	return Snapshot{
		TotalSpecs:      g.Len(),
		TotalEdges:      g.EdgeCount(),
		TargetRiskScore: r.RiskScore,
		TargetRiskLevel: r.RiskLevel,
	}
}

// edgeDiff returns edges present only in after, then edges present only in before.
func edgeDiff(before, after *graph.Graph) (added, removed []graph.Edge) {
	added, removed = []graph.Edge{}, []graph.Edge{}
	for _, e := range after.Edges() {
		if _, ok := before.Edge(e.From, e.To); !ok {
			added = append(added, e)
		}
	}
	for _, e := range before.Edges() {
		if _, ok := after.Edge(e.From, e.To); !ok {
			removed = append(removed, e)
		}
	}
	return added, removed
}

// affectedDiff compares direct plus transitive dependents. projected may be
// nil when the target no longer exists.
func affectedDiff(current, projected *impact.Result) ([]models.AffectedSpec, []string) {
	newly := []models.AffectedSpec{}
	gone := []string{}

	before := make(map[string]bool)
	for _, a := range current.Dependents() {
		before[a.ID] = true
	}
	after := make(map[string]bool)
	if projected != nil {
		for _, a := range projected.Dependents() {
			after[a.ID] = true
			if !before[a.ID] {
				newly = append(newly, a)
			}
		}
	}
	for _, a := range current.Dependents() {
		if !after[a.ID] {
			gone = append(gone, a.ID)
		}
	}
	return newly, gone
}

func dedupe(in []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
