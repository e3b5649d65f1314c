package provgraph

import "github.com/roach88/h2prov/internal/domain"

// Options bounds a traversal. Zero fields take the operation's default.
type Options struct {
	MaxDepth int
	MaxNodes int
}

// Default bounds per traversal family.
var (
	DefaultNearestOptions = Options{MaxDepth: 50, MaxNodes: 2000}
	DefaultFindAllOptions = Options{MaxDepth: 100, MaxNodes: 5000}
)

func (o Options) orDefault(d Options) Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = d.MaxNodes
	}
	return o
}

// Operation names reported to the Observer.
const (
	OpNearest   = "nearest"
	OpFindAll   = "find_all"
	OpAggregate = "aggregate"
)

// NearestUpstreamOfType returns the closest node of type t reachable over
// predecessor edges, excluding start itself.
func (g *Graph) NearestUpstreamOfType(start *Node, t domain.ProcessStepType, opts Options) (*Node, bool) {
	return g.nearest(start, t, Upstream, opts)
}

// NearestDownstreamOfType returns the closest node of type t reachable over
// successor edges, excluding start itself.
func (g *Graph) NearestDownstreamOfType(start *Node, t domain.ProcessStepType, opts Options) (*Node, bool) {
	return g.nearest(start, t, Downstream, opts)
}

// NearestOfType dispatches on dir.
func (g *Graph) NearestOfType(start *Node, t domain.ProcessStepType, dir Direction, opts Options) (*Node, bool) {
	return g.nearest(start, t, dir, opts)
}

// nearest is a breadth-first search. Ties at equal depth resolve in edge
// insertion order.
func (g *Graph) nearest(start *Node, t domain.ProcessStepType, dir Direction, opts Options) (*Node, bool) {
	if start == nil {
		return nil, false
	}
	opts = opts.orDefault(DefaultNearestOptions)

	type item struct {
		node  *Node
		depth int
	}
	visited := map[*Node]bool{start: true}
	queue := []item{{node: start}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= opts.MaxDepth {
			if hasUnvisited(cur.node.links(dir), visited) {
				g.truncated(OpNearest)
			}
			continue
		}

		for _, l := range cur.node.links(dir) {
			if visited[l.Node] {
				continue
			}
			if len(visited) >= opts.MaxNodes {
				g.truncated(OpNearest)
				return nil, false
			}
			visited[l.Node] = true
			if l.Node.Step.Type == t {
				return l.Node, true
			}
			queue = append(queue, item{node: l.Node, depth: cur.depth + 1})
		}
	}
	return nil, false
}

// FindAllUpstream collects every node reachable over predecessor edges,
// excluding start, in depth-first pre-order.
func (g *Graph) FindAllUpstream(start *Node, opts Options) []*Node {
	return g.findAll(start, Upstream, opts)
}

// FindAllDownstream collects every node reachable over successor edges,
// excluding start, in depth-first pre-order.
func (g *Graph) FindAllDownstream(start *Node, opts Options) []*Node {
	return g.findAll(start, Downstream, opts)
}

// FindAll dispatches on dir.
func (g *Graph) FindAll(start *Node, dir Direction, opts Options) []*Node {
	return g.findAll(start, dir, opts)
}

// findAll is a depth-first search that keeps the shortest depth seen per
// node. A node first reached on a long path is expanded again when a
// shorter path reaches it, so the bound never depends on edge order.
func (g *Graph) findAll(start *Node, dir Direction, opts Options) []*Node {
	out := []*Node{}
	if start == nil {
		return out
	}
	opts = opts.orDefault(DefaultFindAllOptions)

	best := map[*Node]int{start: 0}
	var frontier []*Node
	truncated := false

	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if depth >= opts.MaxDepth {
			frontier = append(frontier, n)
			return
		}
		for _, l := range n.links(dir) {
			d := depth + 1
			if prev, seen := best[l.Node]; seen {
				if prev > d {
					best[l.Node] = d
					visit(l.Node, d)
				}
				continue
			}
			if len(out) >= opts.MaxNodes {
				truncated = true
				return
			}
			best[l.Node] = d
			out = append(out, l.Node)
			visit(l.Node, d)
		}
	}
	visit(start, 0)

	for _, n := range frontier {
		if best[n] < opts.MaxDepth {
			continue
		}
		for _, l := range n.links(dir) {
			if _, seen := best[l.Node]; !seen {
				truncated = true
			}
		}
	}

	if truncated {
		g.truncated(OpFindAll)
	}
	return out
}

// Slice returns start followed by every node reachable in dir.
func (g *Graph) Slice(start *Node, dir Direction, opts Options) []*Node {
	if start == nil {
		return []*Node{}
	}
	return append([]*Node{start}, g.findAll(start, dir, opts)...)
}

func hasUnvisited(links []Link, visited map[*Node]bool) bool {
	for _, l := range links {
		if !visited[l.Node] {
			return true
		}
	}
	return false
}
