package source

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/h2prov/internal/domain"
)

// Limits bounds concurrent fan-out.
type Limits struct {
	// Concurrency caps in-flight requests. Zero means DefaultConcurrency.
	Concurrency int

	// ChunkSize caps ids per unit request. Zero means DefaultChunkSize.
	ChunkSize int
}

const (
	DefaultConcurrency = 8
	DefaultChunkSize   = 25
)

func (l Limits) orDefault() Limits {
	if l.Concurrency <= 0 {
		l.Concurrency = DefaultConcurrency
	}
	if l.ChunkSize <= 0 {
		l.ChunkSize = DefaultChunkSize
	}
	return l
}

// FetchUnits fetches the units for ids in concurrent chunks and indexes
// them by id. Ids are deduplicated and empty ids dropped first.
func FetchUnits(ctx context.Context, f UnitFetcher, ids []string, kind domain.UnitKind, limits Limits) (map[string]domain.ProductionUnit, error) {
	limits = limits.orDefault()
	unique := DistinctIDs(ids)
	chunks := chunk(unique, limits.ChunkSize)
	results := make([][]domain.ProductionUnit, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limits.Concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			units, err := f.FetchProductionUnitsByIDs(gctx, c, kind)
			if err != nil {
				return fmt.Errorf("fetch %s units: %w", kind, err)
			}
			results[i] = units
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.ProductionUnit, len(unique))
	for _, units := range results {
		for _, u := range units {
			byID[u.ID] = u
		}
	}
	return byID, nil
}

// UnitRequest names one kind of unit to fetch.
type UnitRequest struct {
	Kind domain.UnitKind
	IDs  []string
}

// FetchUnitsByKind runs one FetchUnits per request concurrently and joins
// the results per kind.
func FetchUnitsByKind(ctx context.Context, f UnitFetcher, requests []UnitRequest, limits Limits) (map[domain.UnitKind]map[string]domain.ProductionUnit, error) {
	results := make([]map[string]domain.ProductionUnit, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			units, err := FetchUnits(gctx, f, req.IDs, req.Kind, limits)
			if err != nil {
				return err
			}
			results[i] = units
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[domain.UnitKind]map[string]domain.ProductionUnit, len(requests))
	for i, req := range requests {
		if existing, ok := out[req.Kind]; ok {
			for id, u := range results[i] {
				existing[id] = u
			}
			continue
		}
		out[req.Kind] = results[i]
	}
	return out, nil
}

// FetchNeighbors fetches the steps owning the given references of each
// step concurrently (one request per step) and returns them flattened in
// the order of steps.
func FetchNeighbors(ctx context.Context, f StepFetcher, steps []domain.ProcessStep, refsOf func(domain.ProcessStep) []domain.BatchRef, limits Limits) ([]domain.ProcessStep, error) {
	limits = limits.orDefault()
	results := make([][]domain.ProcessStep, len(steps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limits.Concurrency)
	for i, step := range steps {
		refs := refsOf(step)
		if len(refs) == 0 {
			continue
		}
		g.Go(func() error {
			found, err := f.FetchProcessStepsForBatches(gctx, refs)
			if err != nil {
				return fmt.Errorf("fetch neighbors of %s: %w", step.ID, err)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.ProcessStep
	for _, found := range results {
		out = append(out, found...)
	}
	return out, nil
}

// DistinctIDs returns the non-empty ids sorted and deduplicated.
func DistinctIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}
