package compliance

import (
	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/provgraph"
)

// StepWithUnit is a process step and, once enriched, its production unit.
type StepWithUnit struct {
	Step domain.ProcessStep     `json:"process_step"`
	Unit *domain.ProductionUnit `json:"unit,omitempty"`
}

// MatchedProductionPair couples a hydrogen production with the power
// production feeding it.
type MatchedProductionPair struct {
	Power    StepWithUnit `json:"power"`
	Hydrogen StepWithUnit `json:"hydrogen"`
}

func pairParams(sources []*provgraph.Node, opts provgraph.Options) provgraph.PairParams {
	return provgraph.PairParams{
		SourceType: domain.HydrogenProduction,
		Sources:    sources,
		TargetType: domain.PowerProduction,
		Direction:  provgraph.Upstream,
		UniqueOn:   provgraph.UniqueSource,
		Less:       provgraph.ByIDs,
		Options:    opts,
	}
}

// PairsFromGraph pairs every hydrogen production in g with its nearest
// upstream power production, ordered by hydrogen id then power id.
func PairsFromGraph(g *provgraph.Graph, opts provgraph.Options) []MatchedProductionPair {
	return toMatched(g.MatchPairs(pairParams(nil, opts)))
}

// PairsForHydrogen pairs the given hydrogen production steps only.
func PairsForHydrogen(g *provgraph.Graph, hydrogenIDs []string, opts provgraph.Options) ([]MatchedProductionPair, error) {
	sources := make([]*provgraph.Node, 0, len(hydrogenIDs))
	var missing []string
	for _, id := range hydrogenIDs {
		n, ok := g.Node(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		if n.Type() != domain.HydrogenProduction {
			return nil, domain.NewInvariantError(id, string(domain.HydrogenProduction), string(n.Type()))
		}
		sources = append(sources, n)
	}
	if len(missing) > 0 {
		return nil, domain.NewNotFoundError("hydrogen production step", missing...)
	}
	if len(sources) == 0 {
		return []MatchedProductionPair{}, nil
	}
	return toMatched(g.MatchPairs(pairParams(sources, opts))), nil
}

func toMatched(pairs []provgraph.Pair) []MatchedProductionPair {
	out := make([]MatchedProductionPair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, MatchedProductionPair{
			Power:    StepWithUnit{Step: p.Target.Step},
			Hydrogen: StepWithUnit{Step: p.Source.Step},
		})
	}
	return out
}
