package provgraph

import (
	"sort"

	"github.com/roach88/h2prov/internal/domain"
)

// UniqueOn selects which side of a pair must be unique in MatchPairs.
type UniqueOn string

const (
	UniqueSource UniqueOn = "source"
	UniqueTarget UniqueOn = "target"
	UniqueNone   UniqueOn = "none"
)

// Pair couples a source node with the nearest matching target node.
type Pair struct {
	Source *Node
	Target *Node
}

// PairParams configures MatchPairs.
type PairParams struct {
	// SourceType selects all nodes of this type as sources when Sources is empty.
	SourceType domain.ProcessStepType

	// Sources is an explicit source list. Nil entries are skipped.
	Sources []*Node

	// TargetType is the type searched for from each source.
	TargetType domain.ProcessStepType

	// Direction is the direction of the nearest-of-type search.
	Direction Direction

	// UniqueOn deduplicates pairs; first occurrence wins. Empty means UniqueNone.
	UniqueOn UniqueOn

	// Filter drops pairs for which it returns false. Applied before
	// deduplication so a rejected pair never hides a later valid one.
	Filter func(Pair) bool

	// Less orders the result. Supply a total order (e.g. by id) for
	// results that are reproducible across runs. Nil keeps source order.
	Less func(a, b Pair) bool

	// Options bounds each nearest-of-type search.
	Options Options
}

// MatchPairs pairs each source with its nearest node of TargetType.
// Sources without a reachable target produce no pair.
func (g *Graph) MatchPairs(p PairParams) []Pair {
	sources := p.Sources
	if len(sources) == 0 {
		sources = g.NodesOfType(p.SourceType)
	}

	seen := make(map[*Node]bool)
	pairs := []Pair{}
	for _, src := range sources {
		if src == nil {
			continue
		}
		target, ok := g.nearest(src, p.TargetType, p.Direction, p.Options)
		if !ok {
			continue
		}
		pair := Pair{Source: src, Target: target}
		if p.Filter != nil && !p.Filter(pair) {
			continue
		}

		var key *Node
		switch p.UniqueOn {
		case UniqueSource:
			key = src
		case UniqueTarget:
			key = target
		}
		if key != nil {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		pairs = append(pairs, pair)
	}

	if p.Less != nil {
		sort.SliceStable(pairs, func(i, j int) bool {
			return p.Less(pairs[i], pairs[j])
		})
	}
	return pairs
}

// ByIDs orders pairs lexicographically by source id, then target id.
func ByIDs(a, b Pair) bool {
	if a.Source.ID() != b.Source.ID() {
		return a.Source.ID() < b.Source.ID()
	}
	return a.Target.ID() < b.Target.ID()
}
