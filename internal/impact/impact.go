// Package impact answers "what breaks if this spec changes" over a
// dependency graph.
package impact

import (
	"fmt"
	"time"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/models"
	"github.com/starford/specgraph/internal/observability"
	"github.com/starford/specgraph/internal/risk"
)

// DefaultMaxDepth bounds the transitive walk.
const DefaultMaxDepth = 5

// wideImpact is the transitive count above which a formal proposal is advised.
const wideImpact = 3

// Result is the outcome of analysing one spec.
type Result struct {
	TargetSpec         string                `json:"target_spec"`
	Title              string                `json:"title,omitempty"`
	DependsOn          []models.AffectedSpec `json:"depends_on"`
	AffectedBy         []models.AffectedSpec `json:"affected_by"`
	TransitiveAffected []models.AffectedSpec `json:"transitive_affected"`
	RiskScore          int                   `json:"risk_score"`
	RiskLevel          models.Level          `json:"risk_level"`
	Factors            []risk.Factor         `json:"factors,omitempty"`
	Summary            string                `json:"summary"`
	Recommendations    []string              `json:"recommendations"`
}

// Dependents returns AffectedBy followed by TransitiveAffected.
func (r *Result) Dependents() []models.AffectedSpec {
	out := make([]models.AffectedSpec, 0, len(r.AffectedBy)+len(r.TransitiveAffected))
	out = append(out, r.AffectedBy...)
	return append(out, r.TransitiveAffected...)
}

// Analyzer computes impact results. It holds no graph state and is safe for
// concurrent use.
type Analyzer struct {
	scorer   *risk.Scorer
	maxDepth int
}

// NewAnalyzer creates an Analyzer. maxDepth <= 0 selects DefaultMaxDepth.
func NewAnalyzer(scorer *risk.Scorer, maxDepth int) *Analyzer {
	if scorer == nil {
		scorer = risk.NewScorer(risk.DefaultPolicy())
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Analyzer{scorer: scorer, maxDepth: maxDepth}
}

// MaxDepth returns the transitive depth bound.
func (a *Analyzer) MaxDepth() int { return a.maxDepth }

// Analyze reports the dependencies of target, the specs that depend on it
// directly, and those reached transitively through DependedBy.
func (a *Analyzer) Analyze(g *graph.Graph, target string) (*Result, error) {
	defer observability.ObserveSince("impact", time.Now())

	node, ok := g.Node(target)
	if !ok {
		return nil, apperr.NotFound(target)
	}

	res := &Result{
		TargetSpec:         target,
		Title:              node.Title,
		DependsOn:          []models.AffectedSpec{},
		AffectedBy:         []models.AffectedSpec{},
		TransitiveAffected: []models.AffectedSpec{},
	}

	for _, dep := range node.DependsOn {
		e, _ := g.Edge(target, dep)
		res.DependsOn = append(res.DependsOn, project(g, dep, models.LevelLow, e.Type, 1,
			fmt.Sprintf("%s depends on it (%s)", target, e.Type)))
	}

	visited := map[string]bool{target: true}
	for _, id := range node.DependedBy {
		visited[id] = true
	}
	for _, id := range node.DependedBy {
		e, _ := g.Edge(id, target)
		res.AffectedBy = append(res.AffectedBy, project(g, id, directLevel(e.Type), e.Type, 1,
			fmt.Sprintf("depends on %s (%s)", target, e.Type)))
	}

	res.TransitiveAffected = a.transitive(g, node.DependedBy, visited)

	assessment := a.scorer.Score(res.AffectedBy, res.TransitiveAffected)
	res.RiskScore = assessment.Score
	res.RiskLevel = assessment.Level
	res.Factors = assessment.Factors
	res.Recommendations = recommendations(res)
	res.Summary = fmt.Sprintf("%s: %d direct dependents, %d transitive, %d dependencies; risk %s (%d/10)",
		target, len(res.AffectedBy), len(res.TransitiveAffected), len(res.DependsOn), res.RiskLevel, res.RiskScore)
	return res, nil
}

type hop struct {
	id    string
	depth int
}

// transitive walks DependedBy breadth-first from the direct dependents.
// Depth counts hops beyond the direct layer, so the first transitive layer is
// depth 1 and the walk stops after maxDepth layers.
func (a *Analyzer) transitive(g *graph.Graph, direct []string, visited map[string]bool) []models.AffectedSpec {
	out := []models.AffectedSpec{}
	queue := make([]hop, 0, len(direct))
	for _, id := range direct {
		queue = append(queue, hop{id: id, depth: 0})
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= a.maxDepth {
			continue
		}
		n, _ := g.Node(cur.id)
		for _, up := range n.DependedBy {
			if visited[up] {
				continue
			}
			visited[up] = true
			depth := cur.depth + 1
			level := models.LevelLow
			if depth == 1 {
				level = models.LevelMedium
			}
			e, _ := g.Edge(up, cur.id)
			out = append(out, project(g, up, level, e.Type, depth+1,
				fmt.Sprintf("depends on %s, %d hops away", cur.id, depth+1)))
			queue = append(queue, hop{id: up, depth: depth})
		}
	}
	return out
}

// directLevel grades a direct dependent by the edge it declared.
func directLevel(t graph.EdgeType) models.Level {
	switch t {
	case graph.API, graph.Explicit:
		return models.LevelHigh
	case graph.Data:
		return models.LevelMedium
	default:
		return models.LevelLow
	}
}

func project(g *graph.Graph, id string, level models.Level, t graph.EdgeType, depth int, reason string) models.AffectedSpec {
	n, _ := g.Node(id)
	return models.AffectedSpec{
		ID:     id,
		Path:   n.Path,
		Title:  n.Title,
		Level:  level,
		Type:   t,
		Depth:  depth,
		Reason: reason,
	}
}

func recommendations(r *Result) []string {
	var out []string
	if r.RiskLevel == models.LevelHigh {
		out = append(out,
			"Roll the change out in stages",
			"Request a cross-team review from owners of dependent specs",
		)
	}
	for _, a := range r.Dependents() {
		if a.Type == graph.API {
			out = append(out, "An API contract is involved: version the interface and notify consumers")
			break
		}
	}
	if len(r.TransitiveAffected) > wideImpact {
		out = append(out, fmt.Sprintf("%d specs are affected transitively: write a formal change proposal", len(r.TransitiveAffected)))
	}
	if len(out) == 0 {
		out = append(out, "Standard review is sufficient")
	}
	return out
}
