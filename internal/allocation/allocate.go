package allocation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/h2prov/internal/domain"
)

// BottlingAllocation is the outcome of one bottling request.
//
// The persistence collaborator commits ConsumedSplitSteps and
// StepsForRemainder as new records and marks the batches in
// BatchesForBottle, and the batches of StepsToSplit, inactive.
type BottlingAllocation struct {
	// BatchesForBottle are batches consumed whole.
	BatchesForBottle []domain.Batch `json:"batches_for_bottle"`

	// StepsToSplit are the original steps that were split.
	StepsToSplit []domain.ProcessStep `json:"steps_to_split"`

	// ConsumedSplitSteps are derived, inactive steps holding the exact
	// portion taken from each split step.
	ConsumedSplitSteps []domain.ProcessStep `json:"consumed_split_steps"`

	// StepsForRemainder are derived, active steps holding what is left of
	// each split step.
	StepsForRemainder []domain.ProcessStep `json:"steps_for_remainder"`
}

// BottleComposition returns the batches that end up in the bottle: the
// whole batches followed by the consumed split portions.
func (a *BottlingAllocation) BottleComposition() []domain.Batch {
	out := make([]domain.Batch, 0, len(a.BatchesForBottle)+len(a.ConsumedSplitSteps))
	out = append(out, a.BatchesForBottle...)
	for _, s := range a.ConsumedSplitSteps {
		out = append(out, s.Batch)
	}
	return out
}

// Allocator splits inventory to satisfy bottling requests.
type Allocator struct {
	ids IDGenerator
}

// New creates an Allocator. A nil generator defaults to UUIDv7Generator.
func New(ids IDGenerator) *Allocator {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Allocator{ids: ids}
}

// Allocate satisfies each requested component from available, in order.
//
// For each component, the steps whose batch has the same RFNBO class are
// walked in input order, accumulating amounts until the request is met.
// Steps consumed whole go to BatchesForBottle. If the last step holds more
// than the pending amount it is split instead. If the class cannot reach
// the requested amount, Allocate fails with an inventory error naming the
// storage unit, the requested amount and the class.
//
// Components of the same class are merged first. Components with a zero
// amount are skipped; negative, NaN and infinite amounts are validation
// errors. An empty composition yields four empty collections.
func (a *Allocator) Allocate(available []domain.ProcessStep, requested []domain.HydrogenComponent, storageUnitID string) (*BottlingAllocation, error) {
	result := &BottlingAllocation{
		BatchesForBottle:   []domain.Batch{},
		StepsToSplit:       []domain.ProcessStep{},
		ConsumedSplitSteps: []domain.ProcessStep{},
		StepsForRemainder:  []domain.ProcessStep{},
	}

	for _, component := range mergeComponents(requested) {
		if math.IsNaN(component.Amount) || math.IsInf(component.Amount, 0) {
			return nil, domain.NewValidationError(
				fmt.Sprintf("requested amount for %s must be finite, got %s", component.RFNBO, formatAmount(component.Amount)),
				storageUnitID)
		}
		if component.Amount < 0 {
			return nil, domain.NewValidationError(
				fmt.Sprintf("requested amount for %s must be non-negative, got %s", component.RFNBO, formatAmount(component.Amount)),
				storageUnitID)
		}
		if component.Amount == 0 {
			continue
		}
		if err := a.allocateComponent(result, available, component, storageUnitID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (a *Allocator) allocateComponent(result *BottlingAllocation, available []domain.ProcessStep, component domain.HydrogenComponent, storageUnitID string) error {
	pending := component.Amount
	for _, step := range available {
		if step.Batch.RFNBO != component.RFNBO {
			continue
		}
		amount := step.Batch.Amount
		if amount <= pending+amountEpsilon {
			result.BatchesForBottle = append(result.BatchesForBottle, step.Batch)
			pending -= amount
			if pending <= amountEpsilon {
				return nil
			}
			continue
		}

		consumed, remainder := a.split(step, pending)
		result.StepsToSplit = append(result.StepsToSplit, step)
		result.ConsumedSplitSteps = append(result.ConsumedSplitSteps, consumed)
		result.StepsForRemainder = append(result.StepsForRemainder, remainder)
		return nil
	}

	return NewInventoryError(storageUnitID, component.Amount, component.Amount-pending, component.RFNBO)
}

// split derives a consumed step holding portion and a remainder step
// holding the rest. Both point back at the parent batch and inherit its
// classification, owner, executing unit and timestamps.
func (a *Allocator) split(parent domain.ProcessStep, portion float64) (consumed, remainder domain.ProcessStep) {
	rest := parent.Batch.Amount - portion
	consumed = a.derive(parent, portion, false)
	remainder = a.derive(parent, rest, true)
	return consumed, remainder
}

func (a *Allocator) derive(parent domain.ProcessStep, amount float64, active bool) domain.ProcessStep {
	link := amount
	return domain.ProcessStep{
		ID:         a.ids.NewID(),
		Type:       parent.Type,
		StartedAt:  parent.StartedAt,
		EndedAt:    parent.EndedAt,
		ExecutedBy: parent.ExecutedBy,
		Batch: domain.Batch{
			ID:           a.ids.NewID(),
			Amount:       amount,
			Type:         parent.Batch.Type,
			Active:       active,
			Quality:      parent.Batch.Quality,
			RFNBO:        parent.Batch.RFNBO,
			Owner:        parent.Batch.Owner,
			Predecessors: []domain.BatchRef{{ID: parent.Batch.ID, Amount: &link}},
			Successors:   []domain.BatchRef{},
		},
	}
}

// amountEpsilon absorbs float rounding when accumulated amounts meet the request.
const amountEpsilon = 1e-9

// mergeComponents sums repeated classes so a class never draws on the same
// inventory twice. First-seen order is kept.
func mergeComponents(requested []domain.HydrogenComponent) []domain.HydrogenComponent {
	merged := make([]domain.HydrogenComponent, 0, len(requested))
	index := make(map[domain.RFNBO]int, len(requested))
	for _, c := range requested {
		if i, ok := index[c.RFNBO]; ok && c.Amount >= 0 && merged[i].Amount >= 0 {
			merged[i].Amount += c.Amount
			continue
		}
		index[c.RFNBO] = len(merged)
		merged = append(merged, c)
	}
	return merged
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
