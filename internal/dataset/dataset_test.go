package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2prov/internal/domain"
)

func stepByID(t *testing.T, ds *Dataset, id string) domain.ProcessStep {
	t.Helper()
	for _, st := range ds.Steps {
		if st.ID == id {
			return st
		}
	}
	t.Fatalf("step %s not in dataset", id)
	return domain.ProcessStep{}
}

func TestLoad_Chain(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "chain.yaml"))
	require.NoError(t, err)

	require.Len(t, ds.Units, 3)
	require.Len(t, ds.Steps, 5)
	assert.Equal(t, "DE-LU", ds.Units[0].BiddingZone)
	require.NotNil(t, ds.Units[0].FinancialSupportReceived)
	assert.False(t, *ds.Units[0].FinancialSupportReceived)
	assert.Nil(t, ds.Units[1].FinancialSupportReceived)
	assert.Equal(t, []string{"pu-power"}, ds.UnitIDs(domain.UnitKindPower))

	power := stepByID(t, ds, "ps-power")
	assert.Equal(t, domain.BatchTypePower, power.Batch.Type)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), power.StartedAt.UTC())
	require.Len(t, power.Batch.Successors, 1)
	assert.Equal(t, "b-h2", power.Batch.Successors[0].ID)

	h2 := stepByID(t, ds, "ps-h2")
	assert.Equal(t, domain.ColorGreen, h2.Batch.Quality.Color)
	require.Len(t, h2.Batch.Predecessors, 2)
	assert.Equal(t, 50.0, *h2.Batch.Predecessors[1].Amount)

	trans := stepByID(t, ds, "ps-trans")
	require.NotNil(t, trans.TransportationDetails)
	assert.Equal(t, domain.TransportTrailer, trans.TransportationDetails.Mode)
	assert.Equal(t, 200.0, trans.TransportationDetails.DistanceKm)
}

func TestLoad_LinkStatedOnBatchFillsAmount(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "chain.yaml"))
	require.NoError(t, err)

	storage := stepByID(t, ds, "ps-storage")
	require.Len(t, storage.Batch.Predecessors, 1)
	assert.Equal(t, 5.0, *storage.Batch.Predecessors[0].Amount)

	h2 := stepByID(t, ds, "ps-h2")
	require.Len(t, h2.Batch.Successors, 1)
	assert.Nil(t, h2.Batch.Successors[0].Amount)
}

func TestParse_Empty(t *testing.T) {
	ds, err := Parse(nil)
	require.NoError(t, err)
	assert.NotNil(t, ds.Units)
	assert.NotNil(t, ds.Steps)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "unitz: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "unknown unit kind",
			yaml: "units:\n  - {id: u1, kind: NUCLEAR, commissioned_on: 2024-01-01T00:00:00Z}\n",
			want: "unknown production unit kind",
		},
		{
			name: "duplicate step",
			yaml: `steps:
  - {id: s1, type: HYDROGEN_STORAGE, started_at: 2024-01-01T00:00:00Z, executed_by: u, batch: {id: b1, amount: 1}}
  - {id: s1, type: HYDROGEN_STORAGE, started_at: 2024-01-01T00:00:00Z, executed_by: u, batch: {id: b2, amount: 1}}
`,
			want: "duplicate process step",
		},
		{
			name: "link to unknown batch",
			yaml: `steps:
  - {id: s1, type: HYDROGEN_STORAGE, started_at: 2024-01-01T00:00:00Z, executed_by: u, batch: {id: b1, amount: 1}}
links:
  - {from: b1, to: b9}
`,
			want: "unknown batch",
		},
		{
			name: "transport without details",
			yaml: `steps:
  - {id: s1, type: HYDROGEN_TRANSPORTATION, started_at: 2024-01-01T00:00:00Z, executed_by: u, batch: {id: b1, amount: 1}}
`,
			want: "transportation details",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read dataset file")
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"units": [{"id": "pu-1", "kind": "POWER", "commissioned_on": "2023-01-01T00:00:00Z", "energy_source": "SOLAR"}],
		"steps": []
	}`), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)
	require.Len(t, ds.Units, 1)
	assert.Equal(t, domain.EnergySolar, ds.Units[0].EnergySource)
	assert.Equal(t, 2023, ds.Units[0].CommissionedOn.Year())
}
