// Package models defines the domain types shared across specgraph packages.
package models

import "github.com/starford/specgraph/internal/graph"

// Document is one spec file as read from the document store. Parsing the
// header and body is left to the caller. Err is set when the spec directory
// was found but its file could not be read; Raw is then empty.
type Document struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Raw      []byte `json:"-"`
	Err      error  `json:"-"`
}

// Level grades how strongly a spec is affected by a change.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Rank orders levels low < medium < high.
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 2
	case LevelMedium:
		return 1
	}
	return 0
}

// AffectedSpec is a query-time projection of a node touched by a change.
// Depth is the hop count from the changed spec; direct neighbours are 1.
type AffectedSpec struct {
	ID     string         `json:"id"`
	Path   string         `json:"path"`
	Title  string         `json:"title,omitempty"`
	Level  Level          `json:"level"`
	Type   graph.EdgeType `json:"type"`
	Depth  int            `json:"depth"`
	Reason string         `json:"reason"`
}
