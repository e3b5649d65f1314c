package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// chainUnits are the units executing testutil.NewChain.
func chainUnits() []domain.ProductionUnit {
	return []domain.ProductionUnit{
		testutil.PowerUnit("pu-power", "DE-LU", domain.EnergyWind),
		testutil.HydrogenUnit("pu-hydrogen", "DE-LU"),
		{ID: "pu-storage", Kind: domain.UnitKindStorage, CommissionedOn: testutil.BaseTime},
	}
}

// createChainStore returns a store holding the standard chain.
func createChainStore(t *testing.T) (*Store, *testutil.Chain) {
	t.Helper()
	s := createTestStore(t)
	chain := testutil.NewChain()
	_, err := s.Import(context.Background(), chain.Steps(), chainUnits())
	require.NoError(t, err)
	return s, chain
}
