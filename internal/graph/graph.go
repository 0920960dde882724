// Package graph holds the spec dependency graph: nodes, typed edges, and the
// inverse (DependedBy) index kept consistent on every mutation.
package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrFrozen is returned by mutation methods on a graph that was handed out
	// by the builder. Use Clone to obtain a mutable copy.
	ErrFrozen        = errors.New("graph: frozen")
	ErrDuplicateNode = errors.New("graph: duplicate node")
	ErrUnknownNode   = errors.New("graph: unknown node")
)

// EdgeType records how a dependency was declared.
type EdgeType string

const (
	Explicit  EdgeType = "explicit"
	API       EdgeType = "api"
	Data      EdgeType = "data"
	Reference EdgeType = "reference"
)

// ParseEdgeType maps a header value to an EdgeType. The empty string is explicit.
func ParseEdgeType(s string) (EdgeType, bool) {
	switch EdgeType(s) {
	case "", Explicit:
		return Explicit, true
	case API:
		return API, true
	case Data:
		return Data, true
	case Reference:
		return Reference, true
	}
	return Explicit, false
}

// Node is one spec document.
type Node struct {
	ID         string   `json:"id"`
	Path       string   `json:"path"`
	Title      string   `json:"title,omitempty"`
	DependsOn  []string `json:"depends_on"`
	DependedBy []string `json:"depended_by"`
}

// Degree is the number of inbound plus outbound dependencies.
func (n Node) Degree() int {
	return len(n.DependsOn) + len(n.DependedBy)
}

func (n *Node) clone() *Node {
	c := *n
	c.DependsOn = slices.Clone(n.DependsOn)
	c.DependedBy = slices.Clone(n.DependedBy)
	if c.DependsOn == nil {
		c.DependsOn = []string{}
	}
	if c.DependedBy == nil {
		c.DependedBy = []string{}
	}
	return &c
}

// Edge is a directed dependency From -> To.
type Edge struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Type        EdgeType `json:"type"`
	Description string   `json:"description,omitempty"`
}

type edgeKey struct{ from, to string }

// Graph is an insertion-ordered set of nodes and an ordered edge list with at
// most one edge per (from, to) pair.
type Graph struct {
	nodes  map[string]*Node
	order  []string
	edges  []Edge
	pairs  map[edgeKey]struct{}
	frozen bool
}

// New returns an empty, mutable graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		pairs: make(map[edgeKey]struct{}),
	}
}

// AddNode inserts a node. Dependency lists on n are ignored; use AddEdge.
func (g *Graph) AddNode(n Node) error {
	if g.frozen {
		return ErrFrozen
	}
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.nodes[n.ID] = &Node{
		ID:         n.ID,
		Path:       n.Path,
		Title:      n.Title,
		DependsOn:  []string{},
		DependedBy: []string{},
	}
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge links e.From -> e.To and updates both sides of the inverse index.
// It reports false without error when the pair already exists or the edge is
// a self-reference.
func (g *Graph) AddEdge(e Edge) (bool, error) {
	if g.frozen {
		return false, ErrFrozen
	}
	from, ok := g.nodes[e.From]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownNode, e.From)
	}
	to, ok := g.nodes[e.To]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownNode, e.To)
	}
	if e.From == e.To {
		return false, nil
	}
	key := edgeKey{e.From, e.To}
	if _, dup := g.pairs[key]; dup {
		return false, nil
	}
	if e.Type == "" {
		e.Type = Explicit
	}
	g.pairs[key] = struct{}{}
	g.edges = append(g.edges, e)
	from.DependsOn = append(from.DependsOn, e.To)
	to.DependedBy = append(to.DependedBy, e.From)
	return true, nil
}

// RemoveNode deletes id, every edge touching it, and the reciprocal entries
// held by its neighbours.
func (g *Graph) RemoveNode(id string) error {
	if g.frozen {
		return ErrFrozen
	}
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	for _, dep := range n.DependsOn {
		if other, ok := g.nodes[dep]; ok {
			other.DependedBy = without(other.DependedBy, id)
		}
	}
	for _, dep := range n.DependedBy {
		if other, ok := g.nodes[dep]; ok {
			other.DependsOn = without(other.DependsOn, id)
		}
	}
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From == id || e.To == id {
			delete(g.pairs, edgeKey{e.From, e.To})
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	delete(g.nodes, id)
	g.order = without(g.order, id)
	return nil
}

// Freeze marks the graph read-only.
func (g *Graph) Freeze() { g.frozen = true }

// Frozen reports whether mutation methods are disabled.
func (g *Graph) Frozen() bool { return g.frozen }

// Clone returns a deep, mutable copy.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make(map[string]*Node, len(g.nodes)),
		order: slices.Clone(g.order),
		edges: slices.Clone(g.edges),
		pairs: make(map[edgeKey]struct{}, len(g.pairs)),
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.clone()
	}
	for k := range g.pairs {
		c.pairs[k] = struct{}{}
	}
	return c
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n.clone(), true
}

// IDs returns node ids in insertion order.
func (g *Graph) IDs() []string {
	return slices.Clone(g.order)
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.nodes[id].clone())
	}
	return out
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Edge returns the edge from -> to, if any.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	if _, ok := g.pairs[edgeKey{from, to}]; !ok {
		return Edge{}, false
	}
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// CheckInvariants verifies that every edge is mirrored in both endpoint
// lists and that the lists hold nothing an edge does not explain.
func (g *Graph) CheckInvariants() error {
	out := make(map[string]int, len(g.nodes))
	in := make(map[string]int, len(g.nodes))
	for _, e := range g.edges {
		from, ok := g.nodes[e.From]
		if !ok {
			return fmt.Errorf("graph: edge %s -> %s: dangling source", e.From, e.To)
		}
		to, ok := g.nodes[e.To]
		if !ok {
			return fmt.Errorf("graph: edge %s -> %s: dangling target", e.From, e.To)
		}
		if !slices.Contains(from.DependsOn, e.To) {
			return fmt.Errorf("graph: edge %s -> %s missing from %s.DependsOn", e.From, e.To, e.From)
		}
		if !slices.Contains(to.DependedBy, e.From) {
			return fmt.Errorf("graph: edge %s -> %s missing from %s.DependedBy", e.From, e.To, e.To)
		}
		out[e.From]++
		in[e.To]++
	}
	for id, n := range g.nodes {
		if len(n.DependsOn) != out[id] {
			return fmt.Errorf("graph: %s.DependsOn has %d entries for %d edges", id, len(n.DependsOn), out[id])
		}
		if len(n.DependedBy) != in[id] {
			return fmt.Errorf("graph: %s.DependedBy has %d entries for %d edges", id, len(n.DependedBy), in[id])
		}
	}
	if len(g.order) != len(g.nodes) {
		return fmt.Errorf("graph: order holds %d ids for %d nodes", len(g.order), len(g.nodes))
	}
	return nil
}

func without(s []string, v string) []string {
	return slices.DeleteFunc(s, func(x string) bool { return x == v })
}
