// Package bottling fills bottles from a storage unit's active inventory.
package bottling

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/h2prov/internal/allocation"
	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/logger"
	"github.com/roach88/h2prov/internal/observability"
)

// Allocation outcomes reported to metrics.
const (
	OutcomeCommitted    = "committed"
	OutcomeInsufficient = "insufficient"
	OutcomeFailed       = "failed"
)

// Inventory reads and commits a storage unit's hydrogen.
// Implemented by *store.Store.
type Inventory interface {
	ActiveInventory(ctx context.Context, storageUnitID string) ([]domain.ProcessStep, error)
	CommitAllocation(ctx context.Context, alloc *allocation.BottlingAllocation, bottle *domain.ProcessStep) error
}

// Result is a committed bottling.
type Result struct {
	Bottle     domain.ProcessStep             `json:"bottle"`
	Allocation *allocation.BottlingAllocation `json:"allocation"`
}

// Service allocates inventory to bottles and commits the outcome.
type Service struct {
	inv     Inventory
	ids     allocation.IDGenerator
	now     func() time.Time
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator sets the generator for bottle and split ids.
func WithIDGenerator(ids allocation.IDGenerator) Option {
	return func(s *Service) { s.ids = ids }
}

// WithClock sets the bottling time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService returns a Service over inv.
func NewService(inv Inventory, opts ...Option) *Service {
	s := &Service{
		inv: inv,
		ids: allocation.UUIDv7Generator{},
		now: time.Now,
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bottle fills one bottle with the requested components from the storage
// unit's inventory, oldest hydrogen first, and commits the allocation
// together with the new bottling step.
func (s *Service) Bottle(ctx context.Context, storageUnitID string, components []domain.HydrogenComponent) (*Result, error) {
	storageUnitID = domain.NormalizeID(storageUnitID)
	if storageUnitID == "" {
		return nil, domain.NewValidationError("storage unit id is required")
	}

	available, err := s.inv.ActiveInventory(ctx, storageUnitID)
	if err != nil {
		s.metrics.Allocation(OutcomeFailed)
		return nil, fmt.Errorf("bottle from %s: %w", storageUnitID, err)
	}

	alloc, err := allocation.New(s.ids).Allocate(available, components, storageUnitID)
	if err != nil {
		s.metrics.Allocation(outcomeOf(err))
		return nil, err
	}

	bottle := s.bottleStep(storageUnitID, alloc.BottleComposition())
	if bottle.Batch.Amount <= 0 {
		s.metrics.Allocation(OutcomeFailed)
		return nil, domain.NewValidationError("bottle must contain hydrogen", storageUnitID)
	}

	if err := s.inv.CommitAllocation(ctx, alloc, &bottle); err != nil {
		s.metrics.Allocation(OutcomeFailed)
		return nil, fmt.Errorf("bottle from %s: %w", storageUnitID, err)
	}
	s.metrics.Allocation(OutcomeCommitted)
	s.log.Info("bottle filled",
		"storage_unit", storageUnitID,
		"bottle", bottle.ID,
		"amount_kg", bottle.Batch.Amount,
		"rfnbo", bottle.Batch.RFNBO,
		"split", len(alloc.StepsToSplit))

	return &Result{Bottle: bottle, Allocation: alloc}, nil
}

func outcomeOf(err error) string {
	if domain.IsInventoryError(err) {
		return OutcomeInsufficient
	}
	return OutcomeFailed
}

// bottleStep derives the bottling step from the batches that fill it.
// The bottle is RFNBO-ready only if every batch is; it keeps a color or
// owner only when all batches share it.
func (s *Service) bottleStep(storageUnitID string, batches []domain.Batch) domain.ProcessStep {
	now := s.now().UTC()
	step := domain.ProcessStep{
		ID:         s.ids.NewID(),
		Type:       domain.HydrogenBottling,
		StartedAt:  now,
		EndedAt:    now,
		ExecutedBy: storageUnitID,
		Batch: domain.Batch{
			ID:           s.ids.NewID(),
			Type:         domain.BatchTypeHydrogen,
			Active:       true,
			RFNBO:        domain.RFNBOReady,
			Predecessors: []domain.BatchRef{},
			Successors:   []domain.BatchRef{},
		},
	}

	for i, b := range batches {
		amount := b.Amount
		step.Batch.Amount += amount
		step.Batch.Predecessors = append(step.Batch.Predecessors, domain.BatchRef{ID: b.ID, Amount: &amount})
		if b.RFNBO != domain.RFNBOReady {
			step.Batch.RFNBO = domain.NonCertifiable
		}
		if i == 0 {
			step.Batch.Quality.Color = b.Quality.Color
			step.Batch.Owner = b.Owner
			continue
		}
		if step.Batch.Quality.Color != b.Quality.Color {
			step.Batch.Quality.Color = domain.ColorMix
		}
		if step.Batch.Owner != b.Owner {
			step.Batch.Owner = ""
		}
	}
	if len(batches) == 0 {
		step.Batch.RFNBO = domain.NonCertifiable
	}
	return step
}
