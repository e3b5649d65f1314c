package testutil

import (
	"time"

	"github.com/roach88/h2prov/internal/domain"
)

// BaseTime is the default start time of built steps.
var BaseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// StepBuilder builds process steps with sensible defaults for tests.
//
// Defaults: batch id "b-<step id>", batch type matching the step type,
// active, started at BaseTime, one hour long, owned by "owner-1",
// executed by "unit-<step type>".
type StepBuilder struct {
	step domain.ProcessStep
}

// NewStep starts a builder for a step of type t holding amount.
func NewStep(id string, t domain.ProcessStepType, amount float64) *StepBuilder {
	return &StepBuilder{step: domain.ProcessStep{
		ID:         id,
		Type:       t,
		StartedAt:  BaseTime,
		EndedAt:    BaseTime.Add(time.Hour),
		ExecutedBy: "unit-" + string(t),
		Batch: domain.Batch{
			ID:           "b-" + id,
			Amount:       amount,
			Type:         t.BatchType(),
			Active:       true,
			Owner:        "owner-1",
			Predecessors: []domain.BatchRef{},
			Successors:   []domain.BatchRef{},
		},
	}}
}

// ExecutedBy sets the executing production unit.
func (b *StepBuilder) ExecutedBy(unitID string) *StepBuilder {
	b.step.ExecutedBy = unitID
	return b
}

// At sets the start time and duration.
func (b *StepBuilder) At(start time.Time, d time.Duration) *StepBuilder {
	b.step.StartedAt = start
	b.step.EndedAt = start.Add(d)
	return b
}

// RFNBO sets the batch classification.
func (b *StepBuilder) RFNBO(r domain.RFNBO) *StepBuilder {
	b.step.Batch.RFNBO = r
	return b
}

// Color sets the batch color.
func (b *StepBuilder) Color(c domain.HydrogenColor) *StepBuilder {
	b.step.Batch.Quality.Color = c
	return b
}

// Owner sets the batch owner.
func (b *StepBuilder) Owner(owner string) *StepBuilder {
	b.step.Batch.Owner = owner
	return b
}

// Inactive marks the batch as no longer available.
func (b *StepBuilder) Inactive() *StepBuilder {
	b.step.Batch.Active = false
	return b
}

// Transport sets transportation details.
func (b *StepBuilder) Transport(mode domain.TransportMode, km float64, fuel domain.FuelType) *StepBuilder {
	b.step.TransportationDetails = &domain.TransportationDetails{Mode: mode, DistanceKm: km, FuelType: fuel}
	return b
}

// Build returns the step.
func (b *StepBuilder) Build() domain.ProcessStep {
	return b.step
}

// Connect records that succ consumed amount of pred's batch, on both
// batches. A negative amount records the link without an amount.
func Connect(pred, succ *domain.ProcessStep, amount float64) {
	var a *float64
	if amount >= 0 {
		a = &amount
	}
	pred.Batch.Successors = append(pred.Batch.Successors, domain.BatchRef{ID: succ.Batch.ID, Amount: a})
	succ.Batch.Predecessors = append(succ.Batch.Predecessors, domain.BatchRef{ID: pred.Batch.ID, Amount: a})
}

// Chain holds a linear production chain used across package tests:
// power + water → hydrogen production → storage → bottling → transportation.
type Chain struct {
	Power          domain.ProcessStep
	Water          domain.ProcessStep
	Production     domain.ProcessStep
	Storage        domain.ProcessStep
	Bottling       domain.ProcessStep
	Transportation domain.ProcessStep
}

// Steps returns the chain's steps in production order.
func (c *Chain) Steps() []domain.ProcessStep {
	return []domain.ProcessStep{c.Power, c.Water, c.Production, c.Storage, c.Bottling, c.Transportation}
}

// NewChain builds the standard chain: 100 kWh of power and 50 l of water
// produce 5 kg of RFNBO-ready green hydrogen, which is stored, bottled and
// moved 200 km by diesel trailer.
func NewChain() *Chain {
	c := &Chain{
		Power: NewStep("ps-power", domain.PowerProduction, 100).
			ExecutedBy("pu-power").Build(),
		Water: NewStep("ps-water", domain.WaterConsumption, 50).
			ExecutedBy("pu-hydrogen").Build(),
		Production: NewStep("ps-h2", domain.HydrogenProduction, 5).
			ExecutedBy("pu-hydrogen").RFNBO(domain.RFNBOReady).Color(domain.ColorGreen).Build(),
		Storage: NewStep("ps-storage", domain.HydrogenStorage, 5).
			ExecutedBy("pu-storage").RFNBO(domain.RFNBOReady).Color(domain.ColorGreen).Build(),
		Bottling: NewStep("ps-bottle", domain.HydrogenBottling, 5).
			ExecutedBy("pu-storage").RFNBO(domain.RFNBOReady).Color(domain.ColorGreen).Build(),
		Transportation: NewStep("ps-trans", domain.HydrogenTransportation, 5).
			ExecutedBy("pu-trailer").RFNBO(domain.RFNBOReady).Color(domain.ColorGreen).
			Transport(domain.TransportTrailer, 200, domain.FuelDiesel).Build(),
	}
	Connect(&c.Power, &c.Production, 100)
	Connect(&c.Water, &c.Production, 50)
	Connect(&c.Production, &c.Storage, 5)
	Connect(&c.Storage, &c.Bottling, 5)
	Connect(&c.Bottling, &c.Transportation, 5)
	return c
}
