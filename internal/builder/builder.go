// Package builder turns the documents of a DocumentStore into a frozen
// dependency graph.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/models"
	"github.com/starford/specgraph/internal/observability"
	"github.com/starford/specgraph/internal/parser"
	"github.com/starford/specgraph/internal/storage"
)

// Stats counts what happened during a build. Dangling counts declared
// targets with no matching document; SelfRefs counts edges from a document to
// itself.
type Stats struct {
	Documents int `json:"documents"`
	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
	Dangling  int `json:"dangling"`
	SelfRefs  int `json:"self_refs"`
}

// BuildResult is a frozen graph plus the non-fatal issues found on the way.
type BuildResult struct {
	Graph    *graph.Graph          `json:"-"`
	Warnings []apperr.ParseWarning `json:"warnings,omitempty"`
	Stats    Stats                 `json:"stats"`
}

// Builder reads every document from a store and assembles the graph.
type Builder struct {
	store  storage.DocumentStore
	logger *slog.Logger
}

// New creates a Builder. A nil logger uses slog.Default().
func New(store storage.DocumentStore, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, logger: logger}
}

// Build lists the store and returns a frozen graph. It fails only when the
// store cannot be listed; unreadable and malformed documents become warnings.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	defer observability.ObserveSince("build", time.Now())

	docs, err := b.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("builder: list documents: %w", err)
	}
	res, err := FromDocuments(docs)
	if err != nil {
		return nil, err
	}

	observability.GraphNodes.Set(float64(res.Stats.Nodes))
	observability.GraphEdges.Set(float64(res.Stats.Edges))
	observability.ParseWarningsTotal.Add(float64(len(res.Warnings)))
	observability.DroppedEdgesTotal.WithLabelValues("dangling").Add(float64(res.Stats.Dangling))
	observability.DroppedEdgesTotal.WithLabelValues("self").Add(float64(res.Stats.SelfRefs))

	for _, w := range res.Warnings {
		b.logger.Warn("parse warning", "path", w.Path, "reason", w.Reason)
	}
	b.logger.Debug("graph built",
		"documents", res.Stats.Documents,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"dangling", res.Stats.Dangling,
		"self_refs", res.Stats.SelfRefs,
	)
	return res, nil
}

type parsedDoc struct {
	doc models.Document
	res *parser.Result
}

// FromDocuments builds a frozen graph from already-loaded documents, in the
// order given. Header dependencies are added before body references, so a
// header edge wins when both name the same target.
func FromDocuments(docs []models.Document) (*BuildResult, error) {
	out := &BuildResult{Stats: Stats{Documents: len(docs)}}
	g := graph.New()

	// Nodes.
	parsed := make([]parsedDoc, 0, len(docs))
	for _, d := range docs {
		if d.Err != nil {
			// Keep the spec as an empty node so edges into it still resolve.
			out.Warnings = append(out.Warnings, apperr.ParseWarning{Path: d.Path, Reason: d.Err.Error()})
			if err := g.AddNode(graph.Node{ID: d.ID, Path: d.Path}); err != nil {
				out.Warnings = append(out.Warnings, apperr.ParseWarning{Path: d.Path, Reason: err.Error()})
			}
			continue
		}
		r := parser.Parse(d.Raw)
		for _, w := range r.Warnings {
			out.Warnings = append(out.Warnings, apperr.ParseWarning{Path: d.Path, Reason: w})
		}
		if err := g.AddNode(graph.Node{ID: d.ID, Path: d.Path, Title: r.Title}); err != nil {
			out.Warnings = append(out.Warnings, apperr.ParseWarning{Path: d.Path, Reason: err.Error()})
			continue
		}
		parsed = append(parsed, parsedDoc{doc: d, res: r})
	}

	// Edges. AddEdge maintains DependedBy as it goes, so the inverse index is
	// complete once this loop ends.
	for _, p := range parsed {
		from := p.doc.ID
		for _, dep := range p.res.Dependencies {
			out.addEdge(g, graph.Edge{From: from, To: dep.ID, Type: dep.Type, Description: dep.Description})
		}
		for _, ref := range p.res.References {
			out.addEdge(g, graph.Edge{From: from, To: ref, Type: graph.Reference})
		}
	}

	if err := g.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}
	g.Freeze()

	out.Graph = g
	out.Stats.Nodes = g.Len()
	out.Stats.Edges = g.EdgeCount()
	return out, nil
}

func (r *BuildResult) addEdge(g *graph.Graph, e graph.Edge) {
	if e.From == e.To {
		r.Stats.SelfRefs++
		return
	}
	if !g.Has(e.To) {
		r.Stats.Dangling++
		return
	}
	// Both endpoints exist and the graph is not frozen yet, so the only
	// outcome left is "added" or "pair already present".
	_, _ = g.AddEdge(e)
}
