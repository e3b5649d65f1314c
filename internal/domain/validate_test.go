package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestValidateContributions(t *testing.T) {
	steps := []ProcessStep{
		{
			ID: "ps-ok",
			Batch: Batch{ID: "b-ok", Amount: 10, Predecessors: []BatchRef{
				{ID: "a", Amount: ptr(4)},
				{ID: "b", Amount: ptr(6)},
				{ID: "c"},
			}},
		},
		{
			ID: "ps-over",
			Batch: Batch{ID: "b-over", Amount: 5, Predecessors: []BatchRef{
				{ID: "a", Amount: ptr(3)},
				{ID: "b", Amount: ptr(3)},
			}},
		},
	}

	warnings := ValidateContributions(steps)
	require.Len(t, warnings, 1)
	assert.Equal(t, "b-over", warnings[0].BatchID)
	assert.Equal(t, 6.0, warnings[0].Contributed)
}

func TestValidateContributions_EmptyIsNonNil(t *testing.T) {
	warnings := ValidateContributions(nil)
	assert.NotNil(t, warnings)
	assert.Empty(t, warnings)
}

func TestProcessStepValidate(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	valid := ProcessStep{
		ID:        "ps-1",
		Type:      HydrogenProduction,
		StartedAt: start,
		EndedAt:   start.Add(time.Hour),
		Batch:     Batch{ID: "b-1", Amount: 3, Type: BatchTypeHydrogen},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ProcessStep)
		check  func(error) bool
	}{
		{"missing id", func(s *ProcessStep) { s.ID = "" }, IsValidationError},
		{"unknown type", func(s *ProcessStep) { s.Type = "MINING" }, IsValidationError},
		{"negative amount", func(s *ProcessStep) { s.Batch.Amount = -1 }, IsValidationError},
		{"unknown batch type", func(s *ProcessStep) { s.Batch.Type = "STEAM" }, IsValidationError},
		{"mismatched batch type", func(s *ProcessStep) { s.Batch.Type = BatchTypePower }, IsInvariantError},
		{"ends before start", func(s *ProcessStep) { s.EndedAt = start.Add(-time.Minute) }, IsValidationError},
		{"transport without details", func(s *ProcessStep) { s.Type = HydrogenTransportation }, IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := valid
			tt.mutate(&step)
			err := step.Validate()
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestBatchKind_Exhaustive(t *testing.T) {
	for _, bt := range []BatchType{BatchTypePower, BatchTypeWater, BatchTypeHydrogen} {
		kind := KindOf(bt)
		require.NotNil(t, kind)
		assert.Equal(t, bt, kind.Type())

		var unit string
		switch k := kind.(type) {
		case PowerBatch, WaterBatch, HydrogenBatch:
			unit = k.Unit()
		}
		assert.NotEmpty(t, unit)
	}
	assert.Nil(t, KindOf("STEAM"))
	assert.Equal(t, "kg", UnitOf(BatchTypeHydrogen))
	assert.Equal(t, "", UnitOf("STEAM"))
}

func TestNormalizeZone(t *testing.T) {
	assert.Equal(t, "DE_LU", NormalizeZone("  de_lu "))
	assert.Equal(t, "ps-1", NormalizeID(" ps-1\t"))
}
