// Package health summarises the overall shape of a dependency graph.
package health

import (
	"math"
	"sort"
	"time"

	"github.com/starford/specgraph/internal/graph"
	"github.com/starford/specgraph/internal/observability"
)

const (
	// DefaultTopN is the number of most-connected specs reported.
	DefaultTopN = 5

	maxScore        = 100
	orphanPenalty   = 20.0
	cyclePenalty    = 10.0
	sparsePenalty   = 10.0
	sparseAvgDegree = 0.5
	sparseMinNodes  = 2
)

// Connection is a spec ranked by its degree.
type Connection struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Degree     int    `json:"degree"`
	DependsOn  int    `json:"depends_on"`
	DependedBy int    `json:"depended_by"`
}

// Report is the project-wide view of a graph.
type Report struct {
	TotalNodes    int           `json:"total_nodes"`
	TotalEdges    int           `json:"total_edges"`
	AverageDegree float64       `json:"average_degree"`
	MostConnected []Connection  `json:"most_connected"`
	OrphanNodes   []string      `json:"orphan_nodes"`
	Cycles        []graph.Cycle `json:"cycles"`
	HealthScore   int           `json:"health_score"`
}

// Reporter builds Reports.
type Reporter struct {
	topN int
}

// NewReporter creates a Reporter. topN <= 0 selects DefaultTopN.
func NewReporter(topN int) *Reporter {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Reporter{topN: topN}
}

// Report computes degree ranking, orphans, cycles and a 0..100 health score.
func (r *Reporter) Report(g *graph.Graph) *Report {
	defer observability.ObserveSince("health", time.Now())

	nodes := g.Nodes()
	rep := &Report{
		TotalNodes:    len(nodes),
		TotalEdges:    g.EdgeCount(),
		MostConnected: []Connection{},
		OrphanNodes:   []string{},
		Cycles:        graph.FindCycles(g),
	}
	if rep.Cycles == nil {
		rep.Cycles = []graph.Cycle{}
	}

	conns := make([]Connection, 0, len(nodes))
	for _, n := range nodes {
		if n.Degree() == 0 {
			rep.OrphanNodes = append(rep.OrphanNodes, n.ID)
		}
		conns = append(conns, Connection{
			ID:         n.ID,
			Title:      n.Title,
			Degree:     n.Degree(),
			DependsOn:  len(n.DependsOn),
			DependedBy: len(n.DependedBy),
		})
	}
	sort.SliceStable(conns, func(i, j int) bool {
		if conns[i].Degree != conns[j].Degree {
			return conns[i].Degree > conns[j].Degree
		}
		return conns[i].ID < conns[j].ID
	})
	if len(conns) > r.topN {
		conns = conns[:r.topN]
	}
	rep.MostConnected = conns

	if rep.TotalNodes > 0 {
		rep.AverageDegree = 2 * float64(rep.TotalEdges) / float64(rep.TotalNodes)
	}
	rep.HealthScore = score(rep)
	return rep
}

func score(rep *Report) int {
	s := float64(maxScore)
	if rep.TotalNodes > 0 {
		s -= orphanPenalty * float64(len(rep.OrphanNodes)) / float64(rep.TotalNodes)
	}
	s -= cyclePenalty * float64(len(rep.Cycles))
	if rep.TotalNodes > sparseMinNodes && rep.AverageDegree < sparseAvgDegree {
		s -= sparsePenalty
	}
	v := int(math.Round(s))
	return max(0, min(maxScore, v))
}
