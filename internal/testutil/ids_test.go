package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedIDGenerator_Order(t *testing.T) {
	gen := NewFixedIDGenerator("a", "b")
	assert.Equal(t, "a", gen.NewID())
	assert.Equal(t, "b", gen.NewID())
	assert.Panics(t, func() { gen.NewID() })
}

func TestSequenceIDGenerator_Concurrent(t *testing.T) {
	gen := NewSequenceIDGenerator("split")

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.NewID()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, 50)
	assert.True(t, seen["split-1"])
	assert.True(t, seen["split-50"])
}

func TestNewChain_Linked(t *testing.T) {
	c := NewChain()
	require.Len(t, c.Production.Batch.Predecessors, 2)
	assert.Equal(t, "b-ps-power", c.Production.Batch.Predecessors[0].ID)
	assert.Equal(t, 100.0, *c.Production.Batch.Predecessors[0].Amount)
	require.Len(t, c.Power.Batch.Successors, 1)
	assert.Equal(t, "b-ps-h2", c.Power.Batch.Successors[0].ID)
	require.NotNil(t, c.Transportation.TransportationDetails)
	for _, s := range c.Steps() {
		assert.NoError(t, s.Validate(), s.ID)
	}
}
