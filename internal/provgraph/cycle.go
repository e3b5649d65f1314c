package provgraph

import (
	"fmt"
	"strings"
)

// CycleWarning describes a cycle found in the provenance edges.
//
// Provenance should be acyclic. A cycle is reported as a data-quality
// warning rather than an error because the traversals stay bounded and
// AggregateDownstream falls back to leaf values on cyclic input.
type CycleWarning struct {
	Path    []string `json:"path"`    // Step ids: ["ps-a", "ps-b", "ps-a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// DetectCycles finds strongly connected components over successor edges
// using Tarjan's algorithm and reports each SCC with more than one node,
// or a self-loop, as a warning. An acyclic graph yields an empty list.
//
// Nodes are visited in insertion order so the output is deterministic.
func (g *Graph) DetectCycles() []CycleWarning {
	warnings := []CycleWarning{}
	for _, scc := range g.tarjanSCC() {
		if len(scc) > 1 || hasSelfLoop(scc[0]) {
			warnings = append(warnings, sccToWarning(scc))
		}
	}
	return warnings
}

func hasSelfLoop(n *Node) bool {
	for _, l := range n.Successors {
		if l.Node == n {
			return true
		}
	}
	return false
}

func (g *Graph) tarjanSCC() [][]*Node {
	var (
		index   = 0
		stack   []*Node
		indices = make(map[*Node]int)
		lowlink = make(map[*Node]int)
		onStack = make(map[*Node]bool)
		sccs    [][]*Node
	)

	var strongConnect func(*Node)
	strongConnect = func(v *Node) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, l := range v.Successors {
			w := l.Node
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []*Node
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range g.nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

func sccToWarning(scc []*Node) CycleWarning {
	if len(scc) == 1 {
		id := scc[0].ID()
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("process step %s is its own predecessor", id),
			Level:   "warning",
		}
	}

	path := cyclePath(scc)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("provenance cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// cyclePath walks successor edges inside the SCC from its last-popped node
// (the SCC root) until it returns to the start.
func cyclePath(scc []*Node) []string {
	members := make(map[*Node]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current.ID()}
	visited := make(map[*Node]bool)

	for {
		visited[current] = true

		var next *Node
		for _, l := range current.Successors {
			if members[l.Node] && (!visited[l.Node] || l.Node == start) {
				next = l.Node
				break
			}
		}
		if next == nil {
			break
		}

		path = append(path, next.ID())
		if next == start {
			break
		}
		current = next
	}
	return path
}
