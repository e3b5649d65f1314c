package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/h2prov/internal/domain"
)

// UnitRegistry is an in-memory production-unit source safe for concurrent use.
type UnitRegistry struct {
	mu    sync.Mutex
	units map[string]domain.ProductionUnit
	calls int

	// Err, when set, is returned by every fetch.
	Err error
}

// NewUnitRegistry returns a registry holding units.
func NewUnitRegistry(units ...domain.ProductionUnit) *UnitRegistry {
	r := &UnitRegistry{units: make(map[string]domain.ProductionUnit)}
	for _, u := range units {
		r.units[u.ID] = u
	}
	return r
}

// FetchProductionUnitsByIDs returns the known units of kind among ids.
func (r *UnitRegistry) FetchProductionUnitsByIDs(ctx context.Context, ids []string, kind domain.UnitKind) ([]domain.ProductionUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.Err != nil {
		return nil, r.Err
	}

	out := []domain.ProductionUnit{}
	for _, id := range ids {
		if u, ok := r.units[id]; ok && u.Kind == kind {
			out = append(out, u)
		}
	}
	return out, nil
}

// Calls returns how many fetches were made.
func (r *UnitRegistry) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// PowerUnit builds a power unit in zone with the given energy source,
// commissioned on 2023-01-01 without financial support.
func PowerUnit(id, zone string, src domain.EnergySource) domain.ProductionUnit {
	no := false
	return domain.ProductionUnit{
		ID:                       id,
		Kind:                     domain.UnitKindPower,
		Name:                     id,
		BiddingZone:              zone,
		CommissionedOn:           time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		FinancialSupportReceived: &no,
		EnergySource:             src,
	}
}

// HydrogenUnit builds an electrolyser in zone, commissioned on 2024-01-01.
func HydrogenUnit(id, zone string) domain.ProductionUnit {
	return domain.ProductionUnit{
		ID:             id,
		Kind:           domain.UnitKindHydrogen,
		Name:           id,
		BiddingZone:    zone,
		CommissionedOn: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
