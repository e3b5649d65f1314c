package emission

import (
	"context"
	"fmt"

	"github.com/roach88/h2prov/internal/config"
	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/provgraph"
	"github.com/roach88/h2prov/internal/source"
)

// Pipeline computes the emissions of a root step from its provenance graph.
type Pipeline struct {
	units   source.UnitFetcher
	calc    *Calculator
	limits  source.Limits
	nearest provgraph.Options
	findAll provgraph.Options
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLimits bounds concurrent unit fetches.
func WithLimits(l source.Limits) PipelineOption {
	return func(p *Pipeline) { p.limits = l }
}

// WithTraversal sets the bounds of the graph searches.
func WithTraversal(nearest, findAll provgraph.Options) PipelineOption {
	return func(p *Pipeline) {
		p.nearest = nearest
		p.findAll = findAll
	}
}

// NewPipeline returns a Pipeline reading power units from units.
func NewPipeline(units source.UnitFetcher, factors config.EmissionFactors, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		units:   units,
		calc:    NewCalculator(factors),
		nearest: provgraph.DefaultNearestOptions,
		findAll: provgraph.DefaultFindAllOptions,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compute runs every calculator that applies to rootID and its upstream
// steps and aggregates the results.
//
// Portions split off a step are charged through that step, so splitting a
// batch during allocation never changes the result.
func (p *Pipeline) Compute(ctx context.Context, g *provgraph.Graph, rootID string) (*Result, error) {
	root, ok := g.Node(rootID)
	if !ok {
		return nil, domain.NewNotFoundError("process step", rootID)
	}
	relevant := g.Slice(root, provgraph.Upstream, p.findAll)

	var powerUnitIDs []string
	for _, n := range relevant {
		if n.Type() == domain.PowerProduction {
			powerUnitIDs = append(powerUnitIDs, n.Step.ExecutedBy)
		}
	}
	units := map[string]domain.ProductionUnit{}
	if len(powerUnitIDs) > 0 {
		var err error
		units, err = source.FetchUnits(ctx, p.units, powerUnitIDs, domain.UnitKindPower, p.limits)
		if err != nil {
			return nil, fmt.Errorf("emissions for %s: %w", rootID, err)
		}
	}

	calcs := make([]Calculation, 0, len(relevant))
	for _, n := range relevant {
		if _, split := n.SplitParent(); split {
			continue
		}
		calc, ok, err := p.calculate(g, n, units)
		if err != nil {
			return nil, fmt.Errorf("emissions for %s: %w", rootID, err)
		}
		if ok {
			calcs = append(calcs, calc)
		}
	}
	return Aggregate(calcs), nil
}

func (p *Pipeline) calculate(g *provgraph.Graph, n *provgraph.Node, units map[string]domain.ProductionUnit) (Calculation, bool, error) {
	step := n.Step
	switch step.Type {
	case domain.PowerProduction:
		unit, ok := units[step.ExecutedBy]
		if !ok {
			return Calculation{}, false, domain.NewNotFoundError("power production unit", step.ExecutedBy)
		}
		kg, err := p.successorHydrogen(g, n)
		if err != nil {
			return Calculation{}, false, err
		}
		c, err := p.calc.Power(step, unit, kg)
		return c, err == nil, err
	case domain.WaterConsumption:
		kg, err := p.successorHydrogen(g, n)
		if err != nil {
			return Calculation{}, false, err
		}
		c, err := p.calc.Water(step, kg)
		return c, err == nil, err
	case domain.HydrogenStorage:
		return p.calc.Storage(step), true, nil
	case domain.HydrogenBottling:
		return p.calc.Bottling(step), true, nil
	case domain.HydrogenTransportation:
		c, err := p.calc.Transportation(step)
		return c, err == nil, err
	default:
		return Calculation{}, false, nil
	}
}

func (p *Pipeline) successorHydrogen(g *provgraph.Graph, n *provgraph.Node) (float64, error) {
	h2, ok := g.NearestDownstreamOfType(n, domain.HydrogenProduction, p.nearest)
	if !ok {
		return 0, domain.NewValidationError(
			fmt.Sprintf("%s step has no downstream hydrogen production", n.Type()), n.ID())
	}
	return h2.Step.Batch.Amount, nil
}
