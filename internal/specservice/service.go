// Package specservice wires the document store, graph builder and analysers
// into the operations exposed by the CLI, HTTP API and MCP server.
package specservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/builder"
	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/health"
	"github.com/starford/specgraph/internal/impact"
	"github.com/starford/specgraph/internal/index"
	"github.com/starford/specgraph/internal/proposal"
	"github.com/starford/specgraph/internal/risk"
	"github.com/starford/specgraph/internal/simulate"
	"github.com/starford/specgraph/internal/storage"
)

// ErrSearchDisabled is returned by Search when no index is configured.
var ErrSearchDisabled = errors.New("search index not configured")

// Options tunes the analysers.
type Options struct {
	Policy   risk.Policy
	MaxDepth int
	TopN     int
	Logger   *slog.Logger
}

// GraphView is the serialisable form of a built graph.
type GraphView struct {
	Nodes    []graph.Node  `json:"nodes"`
	Edges    []graph.Edge  `json:"edges"`
	Warnings []string      `json:"warnings"`
	Stats    builder.Stats `json:"stats"`
}

// SearchHit is a search result enriched with the specs that point at it.
type SearchHit struct {
	index.SearchResult
	Referrers []string `json:"referrers"`
}

// Service builds a fresh graph for every call; nothing is cached between calls.
type Service struct {
	store     storage.DocumentStore
	db        index.SpecIndex
	builder   *builder.Builder
	analyzer  *impact.Analyzer
	simulator *simulate.Simulator
	reporter  *health.Reporter
	logger    *slog.Logger
}

// New creates a Service. db may be nil, in which case Search fails with
// ErrSearchDisabled.
func New(store storage.DocumentStore, db index.SpecIndex, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Policy
	if policy == (risk.Policy{}) {
		policy = risk.DefaultPolicy()
	}
	analyzer := impact.NewAnalyzer(risk.NewScorer(policy), opts.MaxDepth)
	return &Service{
		store:     store,
		db:        db,
		builder:   builder.New(store, logger),
		analyzer:  analyzer,
		simulator: simulate.New(analyzer),
		reporter:  health.NewReporter(opts.TopN),
		logger:    logger,
	}
}

func (s *Service) build(ctx context.Context) (*builder.BuildResult, error) {
	res, err := s.builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("specservice: %w", err)
	}
	return res, nil
}

// Graph returns every node and edge of a freshly built graph.
func (s *Service) Graph(ctx context.Context) (*GraphView, error) {
	res, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	view := &GraphView{
		Nodes:    res.Graph.Nodes(),
		Edges:    res.Graph.Edges(),
		Warnings: []string{},
		Stats:    res.Stats,
	}
	for _, w := range res.Warnings {
		view.Warnings = append(view.Warnings, w.String())
	}
	return view, nil
}

// Impact analyses a single spec.
func (s *Service) Impact(ctx context.Context, id string) (*impact.Result, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Invalid(errors.New("spec id is required"))
	}
	res, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(res.Graph, id)
}

// Simulate applies wire-form deltas to a copy of the graph.
func (s *Service) Simulate(ctx context.Context, target string, items []simulate.DeltaItem) (*simulate.Result, error) {
	if strings.TrimSpace(target) == "" {
		return nil, apperr.Invalid(errors.New("target spec id is required"))
	}
	deltas, err := simulate.ToDeltas(items)
	if err != nil {
		return nil, err
	}
	res, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	return s.simulator.Simulate(res.Graph, target, deltas)
}

// SimulateProposal parses a Markdown proposal and simulates it.
func (s *Service) SimulateProposal(ctx context.Context, target, text string) (*simulate.Result, error) {
	items, err := proposal.Parse(text)
	if err != nil {
		return nil, err
	}
	return s.Simulate(ctx, target, items)
}

// Report returns the project health report.
func (s *Service) Report(ctx context.Context) (*health.Report, error) {
	res, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	return s.reporter.Report(res.Graph), nil
}

// Cycles returns the dependency cycles of the current graph.
func (s *Service) Cycles(ctx context.Context) ([]graph.Cycle, error) {
	res, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	cycles := graph.FindCycles(res.Graph)
	if cycles == nil {
		cycles = []graph.Cycle{}
	}
	return cycles, nil
}

// Search syncs the index with the store and runs a text query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if s.db == nil {
		return nil, ErrSearchDisabled
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Invalid(errors.New("query is required"))
	}
	stats, err := index.Sync(ctx, s.db, s.store, s.logger)
	if err != nil {
		return nil, fmt.Errorf("specservice: %w", err)
	}
	s.logger.Debug("index synced",
		slog.Int("indexed", stats.Indexed),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("removed", stats.Removed))

	results, err := s.db.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("specservice: %w", err)
	}
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		refs, err := s.db.Referrers(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("specservice: %w", err)
		}
		if refs == nil {
			refs = []string{}
		}
		hits = append(hits, SearchHit{SearchResult: r, Referrers: refs})
	}
	return hits, nil
}
