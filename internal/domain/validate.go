package domain

import "fmt"

// ContributionWarning reports a batch whose predecessor contributions add
// up to more than its own amount.
type ContributionWarning struct {
	BatchID     string  `json:"batch_id"`
	Amount      float64 `json:"amount"`
	Contributed float64 `json:"contributed"`
	Message     string  `json:"message"`
}

// contributionTolerance absorbs float rounding in summed contributions.
const contributionTolerance = 1e-9

// ValidateContributions checks the predecessor-sum invariant for each step.
// Links without an amount are ignored. Violations are returned as
// warnings; they are not enforced.
func ValidateContributions(steps []ProcessStep) []ContributionWarning {
	warnings := []ContributionWarning{}
	for _, step := range steps {
		var sum float64
		for _, ref := range step.Batch.Predecessors {
			if ref.Amount != nil {
				sum += *ref.Amount
			}
		}
		if sum > step.Batch.Amount+contributionTolerance {
			warnings = append(warnings, ContributionWarning{
				BatchID:     step.Batch.ID,
				Amount:      step.Batch.Amount,
				Contributed: sum,
				Message: fmt.Sprintf("predecessors contribute %g but batch %s holds %g",
					sum, step.Batch.ID, step.Batch.Amount),
			})
		}
	}
	return warnings
}

// Validate checks a step's structural fields.
func (s ProcessStep) Validate() error {
	if s.ID == "" {
		return NewValidationError("process step id is required")
	}
	if !s.Type.Valid() {
		return NewValidationError(fmt.Sprintf("unknown process step type %q", s.Type), s.ID)
	}
	if s.Batch.Amount < 0 {
		return NewValidationError(fmt.Sprintf("batch amount must be non-negative, got %g", s.Batch.Amount), s.ID)
	}
	if s.Batch.Kind() == nil {
		return NewValidationError(fmt.Sprintf("unknown batch type %q", s.Batch.Type), s.ID)
	}
	if want := s.Type.BatchType(); s.Batch.Type != want {
		return NewInvariantError(s.ID, string(want)+" batch", string(s.Batch.Type)+" batch")
	}
	if s.Type == HydrogenTransportation && s.TransportationDetails == nil {
		return NewValidationError("transportation step without transportation details", s.ID)
	}
	if !s.EndedAt.IsZero() && s.EndedAt.Before(s.StartedAt) {
		return NewValidationError("step ends before it starts", s.ID)
	}
	return nil
}
