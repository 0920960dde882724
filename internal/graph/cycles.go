package graph

import "strings"

// Cycle is one dependency loop. IDs starts and ends with the same id.
type Cycle struct {
	IDs         []string `json:"cycle"`
	Description string   `json:"description"`
}

// FindCycles runs a depth-first search in node insertion order and reports
// a cycle whenever an edge closes onto a node still on the recursion stack.
//
// A node stops exploring its remaining dependencies once a cycle through it
// has been reported, so a strongly connected region yields a few readable
// cycles rather than every elementary one.
func FindCycles(g *Graph) []Cycle {
	var cycles []Cycle
	visited := make(map[string]bool, len(g.nodes))
	onStack := make(map[string]bool)

	for _, id := range g.order {
		if !visited[id] {
			findCycles(g, id, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func findCycles(g *Graph, curr string, visited, onStack map[string]bool, path []string, cycles *[]Cycle) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)
	defer func() { onStack[curr] = false }()

	for _, next := range g.nodes[curr].DependsOn {
		if onStack[next] {
			start := -1
			for i, id := range path {
				if id == next {
					start = i
					break
				}
			}
			if start == -1 {
				continue
			}
			ids := make([]string, 0, len(path)-start+1)
			ids = append(ids, path[start:]...)
			ids = append(ids, next)
			*cycles = append(*cycles, Cycle{
				IDs:         ids,
				Description: strings.Join(ids, " -> "),
			})
			return
		}
		if !visited[next] {
			findCycles(g, next, visited, onStack, path, cycles)
		}
	}
}
