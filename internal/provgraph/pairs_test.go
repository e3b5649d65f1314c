package provgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/testutil"
)

// twoElectrolysers: p1 → h2-b, p2 → h2-a, p2 → h2-c
func twoElectrolysers() *Graph {
	p1 := testutil.NewStep("p1", domain.PowerProduction, 10).Build()
	p2 := testutil.NewStep("p2", domain.PowerProduction, 10).Build()
	hb := testutil.NewStep("h2-b", domain.HydrogenProduction, 1).Build()
	ha := testutil.NewStep("h2-a", domain.HydrogenProduction, 1).Build()
	hc := testutil.NewStep("h2-c", domain.HydrogenProduction, 1).Build()
	testutil.Connect(&p1, &hb, 10)
	testutil.Connect(&p2, &ha, 5)
	testutil.Connect(&p2, &hc, 5)
	return BuildFromSteps([]domain.ProcessStep{p1, p2, hb, ha, hc})
}

func pairIDs(pairs []Pair) [][2]string {
	out := make([][2]string, len(pairs))
	for i, p := range pairs {
		out[i] = [2]string{p.Source.ID(), p.Target.ID()}
	}
	return out
}

func TestMatchPairs_AllSourcesSorted(t *testing.T) {
	g := twoElectrolysers()

	pairs := g.MatchPairs(PairParams{
		SourceType: domain.HydrogenProduction,
		TargetType: domain.PowerProduction,
		Direction:  Upstream,
		UniqueOn:   UniqueSource,
		Less:       ByIDs,
	})

	assert.Equal(t, [][2]string{{"h2-a", "p2"}, {"h2-b", "p1"}, {"h2-c", "p2"}}, pairIDs(pairs))
}

func TestMatchPairs_UniqueTarget(t *testing.T) {
	g := twoElectrolysers()

	pairs := g.MatchPairs(PairParams{
		SourceType: domain.HydrogenProduction,
		TargetType: domain.PowerProduction,
		Direction:  Upstream,
		UniqueOn:   UniqueTarget,
	})

	assert.Equal(t, [][2]string{{"h2-b", "p1"}, {"h2-a", "p2"}}, pairIDs(pairs))
}

func TestMatchPairs_ExplicitSourcesAndDuplicates(t *testing.T) {
	g := twoElectrolysers()
	hc, _ := g.Node("h2-c")

	pairs := g.MatchPairs(PairParams{
		Sources:    []*Node{hc, nil, hc},
		TargetType: domain.PowerProduction,
		Direction:  Upstream,
		UniqueOn:   UniqueSource,
	})
	assert.Equal(t, [][2]string{{"h2-c", "p2"}}, pairIDs(pairs))

	pairs = g.MatchPairs(PairParams{
		Sources:    []*Node{hc, hc},
		TargetType: domain.PowerProduction,
		Direction:  Upstream,
		UniqueOn:   UniqueNone,
	})
	assert.Len(t, pairs, 2)
}

func TestMatchPairs_FilterBeforeDedupe(t *testing.T) {
	g := twoElectrolysers()

	pairs := g.MatchPairs(PairParams{
		SourceType: domain.HydrogenProduction,
		TargetType: domain.PowerProduction,
		Direction:  Upstream,
		UniqueOn:   UniqueTarget,
		Filter:     func(p Pair) bool { return p.Source.ID() != "h2-a" },
	})

	assert.Equal(t, [][2]string{{"h2-b", "p1"}, {"h2-c", "p2"}}, pairIDs(pairs))
}

func TestMatchPairs_Downstream(t *testing.T) {
	g := twoElectrolysers()

	pairs := g.MatchPairs(PairParams{
		SourceType: domain.PowerProduction,
		TargetType: domain.HydrogenProduction,
		Direction:  Downstream,
		UniqueOn:   UniqueSource,
	})

	require.Len(t, pairs, 2)
	assert.Equal(t, "h2-b", pairs[0].Target.ID())
	assert.Equal(t, "h2-a", pairs[1].Target.ID())
}

func TestMatchPairs_NoTargets(t *testing.T) {
	g := twoElectrolysers()
	pairs := g.MatchPairs(PairParams{
		SourceType: domain.HydrogenProduction,
		TargetType: domain.WaterConsumption,
		Direction:  Upstream,
	})
	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
}
