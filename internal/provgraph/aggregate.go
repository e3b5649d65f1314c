package provgraph

// AggregateDownstream folds the downstream subgraph of start in post-order.
//
// A node without successors evaluates to leaf(node). Any other node
// evaluates to combine(node, values of its successors in edge order).
// Values are memoized per node, so shared descendants are evaluated once.
//
// Cycle fallback: a successor that is already on the current path is not
// recursed into; leaf(successor) stands in for its value. This keeps the
// fold finite on cyclic input at the cost of an approximate result. It is
// a safety net, not a statement that cycles are acceptable: ingestion
// reports them through DetectCycles.
//
// Nodes beyond opts.MaxDepth, or reached once opts.MaxNodes nodes have
// been evaluated, also evaluate to their leaf value (truncation).
func AggregateDownstream[T any](g *Graph, start *Node, leaf func(*Node) T, combine func(*Node, []T) T, opts Options) T {
	var zero T
	if start == nil {
		return zero
	}
	opts = opts.orDefault(DefaultFindAllOptions)

	memo := make(map[*Node]T)
	onPath := make(map[*Node]bool)
	truncated := false

	var eval func(n *Node, depth int) T
	eval = func(n *Node, depth int) T {
		if v, ok := memo[n]; ok {
			return v
		}
		if len(n.Successors) == 0 {
			v := leaf(n)
			memo[n] = v
			return v
		}
		if depth >= opts.MaxDepth || len(memo)+len(onPath) >= opts.MaxNodes {
			truncated = true
			return leaf(n)
		}

		onPath[n] = true
		children := make([]T, 0, len(n.Successors))
		for _, l := range n.Successors {
			if onPath[l.Node] {
				children = append(children, leaf(l.Node))
				continue
			}
			children = append(children, eval(l.Node, depth+1))
		}
		delete(onPath, n)

		v := combine(n, children)
		memo[n] = v
		return v
	}

	result := eval(start, 0)
	if truncated {
		g.truncated(OpAggregate)
	}
	return result
}
