package compliance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/provgraph"
	"github.com/roach88/h2prov/internal/source"
)

// AdditionalityWindowMonths is how much older than the electrolyser a
// power unit may be.
const AdditionalityWindowMonths = 36

// RedCompliance holds the AND-reduced criteria.
type RedCompliance struct {
	IsGeoCorrelationValid    bool `json:"is_geo_correlation_valid"`
	IsTimeCorrelationValid   bool `json:"is_time_correlation_valid"`
	IsAdditionalityFulfilled bool `json:"is_additionality_fulfilled"`
	IsFinancialSupportAbsent bool `json:"is_financial_support_absent"`
}

func (r RedCompliance) anyTrue() bool {
	return r.IsGeoCorrelationValid || r.IsTimeCorrelationValid ||
		r.IsAdditionalityFulfilled || r.IsFinancialSupportAbsent
}

// Compliant reports whether every criterion holds.
func (r RedCompliance) Compliant() bool {
	return r.IsGeoCorrelationValid && r.IsTimeCorrelationValid &&
		r.IsAdditionalityFulfilled && r.IsFinancialSupportAbsent
}

// Evaluator checks provenance slices against a set of known bidding zones.
type Evaluator struct {
	units   source.UnitFetcher
	zones   map[string]bool
	limits  source.Limits
	nearest provgraph.Options
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLimits bounds concurrent unit fetches.
func WithLimits(l source.Limits) Option {
	return func(e *Evaluator) { e.limits = l }
}

// WithNearestOptions bounds the pairing search.
func WithNearestOptions(o provgraph.Options) Option {
	return func(e *Evaluator) { e.nearest = o }
}

// NewEvaluator returns an Evaluator reading units from units.
func NewEvaluator(units source.UnitFetcher, knownZones []string, opts ...Option) *Evaluator {
	e := &Evaluator{
		units:   units,
		zones:   make(map[string]bool, len(knownZones)),
		nearest: provgraph.DefaultNearestOptions,
	}
	for _, z := range knownZones {
		e.zones[domain.NormalizeZone(z)] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check pairs, enriches and evaluates every hydrogen production in g.
func (e *Evaluator) Check(ctx context.Context, g *provgraph.Graph) (RedCompliance, error) {
	return e.run(ctx, PairsFromGraph(g, e.nearest))
}

// CheckHydrogen evaluates only the given hydrogen production steps.
func (e *Evaluator) CheckHydrogen(ctx context.Context, g *provgraph.Graph, hydrogenIDs []string) (RedCompliance, error) {
	pairs, err := PairsForHydrogen(g, hydrogenIDs, e.nearest)
	if err != nil {
		return RedCompliance{}, err
	}
	return e.run(ctx, pairs)
}

func (e *Evaluator) run(ctx context.Context, pairs []MatchedProductionPair) (RedCompliance, error) {
	enriched, err := e.Enrich(ctx, pairs)
	if err != nil {
		return RedCompliance{}, err
	}
	return e.Evaluate(enriched)
}

// Enrich fetches the power and hydrogen units of pairs concurrently and
// attaches them. A unit that cannot be found fails the enrichment.
func (e *Evaluator) Enrich(ctx context.Context, pairs []MatchedProductionPair) ([]MatchedProductionPair, error) {
	if len(pairs) == 0 {
		return []MatchedProductionPair{}, nil
	}

	powerIDs := make([]string, 0, len(pairs))
	hydrogenIDs := make([]string, 0, len(pairs))
	for _, p := range pairs {
		powerIDs = append(powerIDs, p.Power.Step.ExecutedBy)
		hydrogenIDs = append(hydrogenIDs, p.Hydrogen.Step.ExecutedBy)
	}

	units, err := source.FetchUnitsByKind(ctx, e.units, []source.UnitRequest{
		{Kind: domain.UnitKindPower, IDs: powerIDs},
		{Kind: domain.UnitKindHydrogen, IDs: hydrogenIDs},
	}, e.limits)
	if err != nil {
		return nil, fmt.Errorf("enrich compliance pairs: %w", err)
	}

	missing := map[string]bool{}
	out := make([]MatchedProductionPair, len(pairs))
	for i, p := range pairs {
		if u, ok := units[domain.UnitKindPower][p.Power.Step.ExecutedBy]; ok {
			p.Power.Unit = &u
		} else {
			missing[p.Power.Step.ExecutedBy] = true
		}
		if u, ok := units[domain.UnitKindHydrogen][p.Hydrogen.Step.ExecutedBy]; ok {
			p.Hydrogen.Unit = &u
		} else {
			missing[p.Hydrogen.Step.ExecutedBy] = true
		}
		out[i] = p
	}
	if len(missing) > 0 {
		return nil, domain.NewNotFoundError("production unit", sortedKeys(missing)...)
	}
	return out, nil
}

// Evaluate AND-reduces the criteria over enriched pairs. It stops once
// every criterion has failed. An empty pair list is a validation error.
func (e *Evaluator) Evaluate(pairs []MatchedProductionPair) (RedCompliance, error) {
	if len(pairs) == 0 {
		return RedCompliance{}, domain.NewValidationError("no power/hydrogen production pairs to evaluate")
	}

	result := RedCompliance{
		IsGeoCorrelationValid:    true,
		IsTimeCorrelationValid:   true,
		IsAdditionalityFulfilled: true,
		IsFinancialSupportAbsent: true,
	}
	for _, p := range pairs {
		if !result.anyTrue() {
			break
		}
		power, hydrogen, err := pairUnits(p)
		if err != nil {
			return RedCompliance{}, err
		}

		geo, err := e.geoCorrelated(p, power, hydrogen)
		if err != nil {
			return RedCompliance{}, err
		}
		result.IsGeoCorrelationValid = result.IsGeoCorrelationValid && geo
		result.IsTimeCorrelationValid = result.IsTimeCorrelationValid &&
			timeCorrelated(p.Power.Step.StartedAt, p.Hydrogen.Step.StartedAt)
		result.IsAdditionalityFulfilled = result.IsAdditionalityFulfilled &&
			additional(power, hydrogen)
		result.IsFinancialSupportAbsent = result.IsFinancialSupportAbsent &&
			!power.ReceivedFinancialSupport()
	}
	return result, nil
}

func pairUnits(p MatchedProductionPair) (*domain.ProductionUnit, *domain.ProductionUnit, error) {
	var missing []string
	if p.Power.Unit == nil {
		missing = append(missing, p.Power.Step.ExecutedBy)
	}
	if p.Hydrogen.Unit == nil {
		missing = append(missing, p.Hydrogen.Step.ExecutedBy)
	}
	if len(missing) > 0 {
		return nil, nil, domain.NewNotFoundError("production unit", missing...)
	}
	return p.Power.Unit, p.Hydrogen.Unit, nil
}

func (e *Evaluator) geoCorrelated(p MatchedProductionPair, power, hydrogen *domain.ProductionUnit) (bool, error) {
	pz := domain.NormalizeZone(power.BiddingZone)
	hz := domain.NormalizeZone(hydrogen.BiddingZone)
	for _, side := range []struct {
		zone, unit, step string
	}{
		{pz, power.ID, p.Power.Step.ID},
		{hz, hydrogen.ID, p.Hydrogen.Step.ID},
	} {
		if side.zone == "" {
			return false, domain.NewValidationError("bidding zone not defined", side.unit, side.step)
		}
		if !e.zones[side.zone] {
			return false, domain.NewValidationError(
				fmt.Sprintf("unknown bidding zone %q", side.zone), side.unit, side.step)
		}
	}
	return pz == hz, nil
}

func timeCorrelated(power, hydrogen time.Time) bool {
	return power.UTC().Truncate(time.Hour).Equal(hydrogen.UTC().Truncate(time.Hour))
}

func additional(power, hydrogen *domain.ProductionUnit) bool {
	earliest := hydrogen.CommissionedOn.AddDate(0, -AdditionalityWindowMonths, 0)
	return !power.CommissionedOn.Before(earliest)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
