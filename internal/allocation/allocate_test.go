package allocation

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/testutil"
)

func storageStep(id string, amount float64, class domain.RFNBO, start time.Time) domain.ProcessStep {
	return testutil.NewStep(id, domain.HydrogenStorage, amount).
		ExecutedBy("su-1").
		RFNBO(class).
		Color(domain.ColorGreen).
		Owner("owner-7").
		At(start, 2*time.Hour).
		Build()
}

func inventory() []domain.ProcessStep {
	base := testutil.BaseTime
	return []domain.ProcessStep{
		storageStep("s-1", 10, domain.RFNBOReady, base),
		storageStep("s-2", 5, domain.NonCertifiable, base.Add(time.Hour)),
		storageStep("s-3", 20, domain.RFNBOReady, base.Add(2*time.Hour)),
		storageStep("s-4", 8, domain.NonCertifiable, base.Add(3*time.Hour)),
	}
}

func TestAllocate_ExactTotalNoSplit(t *testing.T) {
	a := New(testutil.NewFixedIDGenerator())

	got, err := a.Allocate(inventory(), []domain.HydrogenComponent{
		{RFNBO: domain.RFNBOReady, Amount: 30},
		{RFNBO: domain.NonCertifiable, Amount: 13},
	}, "su-1")
	require.NoError(t, err)

	assert.Empty(t, got.StepsToSplit)
	assert.Empty(t, got.ConsumedSplitSteps)
	assert.Empty(t, got.StepsForRemainder)
	require.Len(t, got.BatchesForBottle, 4)
	assert.Equal(t, []string{"b-s-1", "b-s-3", "b-s-2", "b-s-4"}, batchIDs(got.BatchesForBottle))
}

func TestAllocate_SplitConservesAmount(t *testing.T) {
	a := New(testutil.NewFixedIDGenerator("ps-consumed", "b-consumed", "ps-rest", "b-rest"))
	available := inventory()

	got, err := a.Allocate(available, []domain.HydrogenComponent{
		{RFNBO: domain.RFNBOReady, Amount: 14},
	}, "su-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"b-s-1"}, batchIDs(got.BatchesForBottle))
	require.Len(t, got.StepsToSplit, 1)
	require.Len(t, got.ConsumedSplitSteps, 1)
	require.Len(t, got.StepsForRemainder, 1)

	original := got.StepsToSplit[0]
	consumed := got.ConsumedSplitSteps[0]
	rest := got.StepsForRemainder[0]

	assert.Equal(t, "s-3", original.ID)
	assert.Equal(t, original.Batch.Amount, consumed.Batch.Amount+rest.Batch.Amount)
	assert.Equal(t, 4.0, consumed.Batch.Amount)
	assert.Equal(t, 16.0, rest.Batch.Amount)
	assert.False(t, consumed.Batch.Active)
	assert.True(t, rest.Batch.Active)

	assert.Equal(t, "ps-consumed", consumed.ID)
	assert.Equal(t, "b-consumed", consumed.Batch.ID)
	assert.Equal(t, "ps-rest", rest.ID)
	assert.Equal(t, "b-rest", rest.Batch.ID)
}

func TestAllocate_SplitInheritsParent(t *testing.T) {
	a := New(testutil.NewSequenceIDGenerator("split"))
	available := inventory()
	parent := available[2]

	got, err := a.Allocate(available, []domain.HydrogenComponent{
		{RFNBO: domain.RFNBOReady, Amount: 12.5},
	}, "su-1")
	require.NoError(t, err)

	for _, derived := range append(got.ConsumedSplitSteps, got.StepsForRemainder...) {
		assert.Equal(t, parent.Type, derived.Type)
		assert.Equal(t, parent.ExecutedBy, derived.ExecutedBy)
		assert.Equal(t, parent.Batch.Owner, derived.Batch.Owner)
		assert.Equal(t, parent.Batch.Quality.Color, derived.Batch.Quality.Color)
		assert.Equal(t, parent.Batch.RFNBO, derived.Batch.RFNBO)
		assert.True(t, parent.StartedAt.Equal(derived.StartedAt), "back-dated to parent")
		assert.True(t, parent.EndedAt.Equal(derived.EndedAt), "back-dated to parent")
		require.Len(t, derived.Batch.Predecessors, 1)
		assert.Equal(t, parent.Batch.ID, derived.Batch.Predecessors[0].ID)
		assert.Equal(t, derived.Batch.Amount, *derived.Batch.Predecessors[0].Amount)
	}
	assert.Equal(t, 2.5, got.ConsumedSplitSteps[0].Batch.Amount)
}

func TestAllocate_EmptyComposition(t *testing.T) {
	a := New(nil)

	got, err := a.Allocate(inventory(), nil, "su-1")
	require.NoError(t, err)

	assert.NotNil(t, got.BatchesForBottle)
	assert.Empty(t, got.BatchesForBottle)
	assert.Empty(t, got.StepsToSplit)
	assert.Empty(t, got.ConsumedSplitSteps)
	assert.Empty(t, got.StepsForRemainder)
}

func TestAllocate_InsufficientInventory(t *testing.T) {
	a := New(testutil.NewFixedIDGenerator())

	_, err := a.Allocate(inventory(), []domain.HydrogenComponent{
		{RFNBO: domain.NonCertifiable, Amount: 13.5},
	}, "su-1")
	require.Error(t, err)

	assert.True(t, domain.IsInventoryError(err))
	assert.Contains(t, err.Error(), "su-1")
	assert.Contains(t, err.Error(), "13.5")
	assert.Contains(t, err.Error(), string(domain.NonCertifiable))

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "13.5", de.Details["requested"])
	assert.Equal(t, "13", de.Details["available"])
}

func TestAllocate_NoMatchingClass(t *testing.T) {
	a := New(testutil.NewFixedIDGenerator())
	available := inventory()[:1]

	_, err := a.Allocate(available, []domain.HydrogenComponent{
		{RFNBO: domain.NonCertifiable, Amount: 1},
	}, "su-9")
	require.Error(t, err)
	assert.True(t, domain.IsInventoryError(err))
	assert.Contains(t, err.Error(), "su-9")
}

func TestAllocate_FIFOOrderFollowsInput(t *testing.T) {
	a := New(testutil.NewSequenceIDGenerator("split"))
	available := inventory()
	// Caller hands over newest first; the engine must not reorder.
	reversed := []domain.ProcessStep{available[3], available[2], available[1], available[0]}

	got, err := a.Allocate(reversed, []domain.HydrogenComponent{
		{RFNBO: domain.RFNBOReady, Amount: 20},
	}, "su-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b-s-3"}, batchIDs(got.BatchesForBottle))
	assert.Empty(t, got.StepsToSplit)
}

func TestAllocate_ComponentsIndependentAndMerged(t *testing.T) {
	a := New(testutil.NewSequenceIDGenerator("split"))

	got, err := a.Allocate(inventory(), []domain.HydrogenComponent{
		{RFNBO: domain.RFNBOReady, Amount: 5},
		{RFNBO: domain.NonCertifiable, Amount: 0},
		{RFNBO: domain.RFNBOReady, Amount: 5},
	}, "su-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"b-s-1"}, batchIDs(got.BatchesForBottle), "5 + 5 drawn as one request of 10")
	assert.Empty(t, got.StepsToSplit)
}

func TestAllocate_NegativeAmount(t *testing.T) {
	a := New(testutil.NewFixedIDGenerator())
	_, err := a.Allocate(inventory(), []domain.HydrogenComponent{
		{RFNBO: domain.RFNBOReady, Amount: -1},
	}, "su-1")
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestAllocate_NonFiniteAmount(t *testing.T) {
	a := New(testutil.NewFixedIDGenerator())
	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got, err := a.Allocate(inventory(), []domain.HydrogenComponent{
			{RFNBO: domain.RFNBOReady, Amount: amount},
		}, "su-1")
		require.Error(t, err, amount)
		assert.True(t, domain.IsValidationError(err), amount)
		assert.Nil(t, got)
	}
}

func TestAllocate_FloatAccumulation(t *testing.T) {
	a := New(testutil.NewFixedIDGenerator())
	var available []domain.ProcessStep
	for i := 0; i < 3; i++ {
		available = append(available, storageStep(fmt.Sprintf("f-%d", i), 0.1, domain.RFNBOReady, testutil.BaseTime))
	}

	got, err := a.Allocate(available, []domain.HydrogenComponent{
		{RFNBO: domain.RFNBOReady, Amount: 0.3},
	}, "su-1")
	require.NoError(t, err)
	assert.Len(t, got.BatchesForBottle, 3)
	assert.Empty(t, got.StepsToSplit)
}

func TestBottleComposition(t *testing.T) {
	a := New(testutil.NewSequenceIDGenerator("split"))
	got, err := a.Allocate(inventory(), []domain.HydrogenComponent{
		{RFNBO: domain.RFNBOReady, Amount: 14},
	}, "su-1")
	require.NoError(t, err)

	var total float64
	for _, b := range got.BottleComposition() {
		total += b.Amount
	}
	assert.Equal(t, 14.0, total)
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.NewID(), gen.NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func batchIDs(batches []domain.Batch) []string {
	ids := make([]string, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
	}
	return ids
}
