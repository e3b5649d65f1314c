package provgraph

import "github.com/roach88/h2prov/internal/domain"

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Upstream follows predecessor edges towards the origin of a batch.
	Upstream Direction = iota
	// Downstream follows successor edges towards consumers of a batch.
	Downstream
)

func (d Direction) String() string {
	if d == Downstream {
		return "downstream"
	}
	return "upstream"
}

// Link is a typed edge to a neighboring node.
// AllocationRatio is the share (0..1) of the predecessor batch that flows
// along the edge, when known.
type Link struct {
	Node            *Node
	AllocationRatio *float64
}

// Node is one process step in the graph.
type Node struct {
	Step         domain.ProcessStep
	Predecessors []Link
	Successors   []Link
}

// ID returns the process-step id.
func (n *Node) ID() string { return n.Step.ID }

// Type returns the process-step type.
func (n *Node) Type() domain.ProcessStepType { return n.Step.Type }

// SplitParent returns the node n was split from. A split portion has a
// single predecessor of the same step type at the same unit, so both
// describe one physical step.
func (n *Node) SplitParent() (*Node, bool) {
	if len(n.Predecessors) != 1 {
		return nil, false
	}
	p := n.Predecessors[0].Node
	if p.Type() != n.Type() || p.Step.ExecutedBy != n.Step.ExecutedBy {
		return nil, false
	}
	return p, true
}

func (n *Node) links(dir Direction) []Link {
	if dir == Downstream {
		return n.Successors
	}
	return n.Predecessors
}

// Edge is a server-supplied edge between two process steps.
// From owns the predecessor batch, To owns the successor batch.
type Edge struct {
	From            string   `json:"from"`
	To              string   `json:"to"`
	AllocationRatio *float64 `json:"allocation_ratio,omitempty"`
}

// Observer receives truncation notices from bounded traversals.
type Observer interface {
	TraversalTruncated(op string)
}

// Graph is the in-memory provenance graph.
type Graph struct {
	nodes    []*Node
	byID     map[string]*Node
	edges    []Edge
	observer Observer
}

// Option configures a Graph.
type Option func(*Graph)

// WithObserver sets the observer notified about truncated traversals.
func WithObserver(o Observer) Option {
	return func(g *Graph) {
		g.observer = o
	}
}

func newGraph(opts []Option) *Graph {
	g := &Graph{byID: make(map[string]*Node)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BuildFromSteps builds a graph by reconstructing edges from each step's
// batch predecessor and successor references.
//
// Steps are deduplicated by id (first occurrence wins). References to
// batches owned by steps outside the set are dropped.
func BuildFromSteps(steps []domain.ProcessStep, opts ...Option) *Graph {
	g := newGraph(opts)
	for _, step := range steps {
		g.addNode(step)
	}

	owner := make(map[string]*Node, len(g.nodes))
	for _, n := range g.nodes {
		if _, taken := owner[n.Step.Batch.ID]; !taken {
			owner[n.Step.Batch.ID] = n
		}
	}

	var edges []Edge
	for _, n := range g.nodes {
		for _, ref := range n.Step.Batch.Predecessors {
			pred, ok := owner[ref.ID]
			if !ok {
				continue
			}
			edges = append(edges, Edge{From: pred.ID(), To: n.ID(), AllocationRatio: AllocationRatio(ref.Amount, pred.Step.Batch.Amount)})
		}
		for _, ref := range n.Step.Batch.Successors {
			succ, ok := owner[ref.ID]
			if !ok {
				continue
			}
			edges = append(edges, Edge{From: n.ID(), To: succ.ID(), AllocationRatio: AllocationRatio(ref.Amount, n.Step.Batch.Amount)})
		}
	}
	g.wire(edges)
	return g
}

// BuildFromEdgeList builds a graph from nodes and an explicit edge list,
// typically a bounded slice computed by the data source.
// Edges whose endpoints are not both in the node set are dropped.
func BuildFromEdgeList(nodes []domain.ProcessStep, edges []Edge, opts ...Option) *Graph {
	g := newGraph(opts)
	for _, step := range nodes {
		g.addNode(step)
	}
	g.wire(edges)
	return g
}

func (g *Graph) addNode(step domain.ProcessStep) {
	if _, exists := g.byID[step.ID]; exists {
		return
	}
	n := &Node{Step: step}
	g.nodes = append(g.nodes, n)
	g.byID[step.ID] = n
}

// wire deduplicates edges by (from, to) and links both endpoints.
// A later duplicate only contributes its ratio if the first had none.
func (g *Graph) wire(edges []Edge) {
	index := make(map[[2]string]int, len(edges))
	var kept []Edge
	for _, e := range edges {
		if g.byID[e.From] == nil || g.byID[e.To] == nil {
			continue
		}
		key := [2]string{e.From, e.To}
		if i, dup := index[key]; dup {
			if kept[i].AllocationRatio == nil && e.AllocationRatio != nil {
				kept[i].AllocationRatio = clampRatio(*e.AllocationRatio)
			}
			continue
		}
		if e.AllocationRatio != nil {
			e.AllocationRatio = clampRatio(*e.AllocationRatio)
		}
		index[key] = len(kept)
		kept = append(kept, e)
	}

	for _, e := range kept {
		from, to := g.byID[e.From], g.byID[e.To]
		from.Successors = append(from.Successors, Link{Node: to, AllocationRatio: e.AllocationRatio})
		to.Predecessors = append(to.Predecessors, Link{Node: from, AllocationRatio: e.AllocationRatio})
	}
	g.edges = kept
}

// AllocationRatio returns contributed/total clamped to [0,1], or nil when
// the contribution is unknown or total is not positive.
func AllocationRatio(contributed *float64, total float64) *float64 {
	if contributed == nil || total <= 0 {
		return nil
	}
	return clampRatio(*contributed / total)
}

func clampRatio(r float64) *float64 {
	r = max(0, min(1, r))
	return &r
}

// Node returns the node for a process-step id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the deduplicated edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// NodesOfType returns the nodes of the given type in insertion order.
func (g *Graph) NodesOfType(t domain.ProcessStepType) []*Node {
	out := []*Node{}
	for _, n := range g.nodes {
		if n.Step.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Steps returns the process steps of all nodes in insertion order.
func (g *Graph) Steps() []domain.ProcessStep {
	out := make([]domain.ProcessStep, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Step
	}
	return out
}

func (g *Graph) truncated(op string) {
	if g.observer != nil {
		g.observer.TraversalTruncated(op)
	}
}
