package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2prov/internal/bottling"
	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/emission"
)

// jsonResponse mirrors CLIResponse with the payload left undecoded.
type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeResponse(t *testing.T, out string) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// importedDB returns a database holding testdata/chain.yaml.
func importedDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "test.db")
	_, err := runCLI(t, "import", filepath.Join("testdata", "chain.yaml"), "--db", db)
	require.NoError(t, err)
	return db
}

func TestImport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	dataset := filepath.Join("testdata", "chain.yaml")

	out, err := runCLI(t, "import", dataset, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 5 step(s), 3 unit(s), 4 link(s)")

	out, err = runCLI(t, "import", dataset, "--db", db, "--format", "json")
	require.NoError(t, err)
	var result ImportResult
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &result))
	assert.Equal(t, 0, result.Steps)
	assert.Equal(t, 0, result.Links)
}

func TestImport_MissingDataset(t *testing.T) {
	out, err := runCLI(t, "import", "testdata/missing.yaml", "--db", filepath.Join(t.TempDir(), "test.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeDataset)
}

func TestNonExistentDatabaseDirectory(t *testing.T) {
	out, err := runCLI(t, "composition", "ps-h2", "--db", "/nonexistent/path/test.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
	assert.Contains(t, out, ErrCodeDatabase)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h2prov.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  concurrency: 0\n"), 0o644))

	out, err := runCLI(t, "composition", "ps-h2", "--db", filepath.Join(t.TempDir(), "test.db"), "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeConfig)
}

func TestGraph(t *testing.T) {
	db := importedDB(t)

	out, err := runCLI(t, "graph", "ps-trans", "--db", db, "--format", "json")
	require.NoError(t, err)
	var result GraphResult
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &result))
	assert.Equal(t, "ps-trans", result.Root)
	assert.Len(t, result.Nodes, 5)
	assert.Len(t, result.Edges, 4)
	assert.Empty(t, result.Cycles)

	out, err = runCLI(t, "graph", "ps-trans", "--db", db, "--max-depth", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "ps-storage → ps-trans (ratio 1)")
	assert.NotContains(t, out, "ps-h2 ")
}

func TestGraph_Errors(t *testing.T) {
	db := importedDB(t)

	out, err := runCLI(t, "graph", "ps-none", "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, out).Error.Code)

	out, err = runCLI(t, "graph", "ps-h2", "--db", db, "--direction", "sideways", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ErrCodeValidation, decodeResponse(t, out).Error.Code)
}

func TestNearest(t *testing.T) {
	db := importedDB(t)

	out, err := runCLI(t, "nearest", "ps-trans", "HYDROGEN_PRODUCTION", "--db", db, "--format", "json")
	require.NoError(t, err)
	var step domain.ProcessStep
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &step))
	assert.Equal(t, "ps-h2", step.ID)

	out, err = runCLI(t, "nearest", "ps-power", "hydrogen_storage", "--direction", "down", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ps-storage")

	_, err = runCLI(t, "nearest", "ps-power", "POWER_PRODUCTION", "--db", db)
	require.Error(t, err)
	assert.True(t, domain.IsNotFoundError(err))

	_, err = runCLI(t, "nearest", "ps-power", "HYDROGEN_STORAGE", "--direction", "both", "--db", db)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	_, err = runCLI(t, "nearest", "ps-power", "COMPRESSION", "--db", db)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestOrigin(t *testing.T) {
	db := importedDB(t)

	out, err := runCLI(t, "origin", "ps-trans", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Origin of ps-trans")
	assert.Contains(t, out, "WIND: 100 kWh")
	assert.Contains(t, out, "WATER: 50 l")
}

func TestEmissions(t *testing.T) {
	db := importedDB(t)

	out, err := runCLI(t, "emissions", "ps-trans", "--db", db, "--format", "json")
	require.NoError(t, err)
	var result emission.Result
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &result))
	assert.Len(t, result.Calculations, 4)
	assert.Len(t, result.ProcessStepEmissions, 8)
	assert.Greater(t, result.Total(), 0.0)

	out, err = runCLI(t, "emissions", "ps-trans", "--db", db, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:")
	assert.Contains(t, out, "E = 200 km")
}

func TestCompliance(t *testing.T) {
	db := importedDB(t)

	out, err := runCLI(t, "compliance", "ps-trans", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Geographic correlation")
	assert.Contains(t, out, "✓ No financial support")

	out, err = runCLI(t, "compliance", "ps-trans", "--db", db, "--hydrogen", "ps-h2", "--format", "json")
	require.NoError(t, err)
	var result ComplianceResult
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &result))
	assert.True(t, result.Compliant)
	assert.True(t, result.IsAdditionalityFulfilled)
}

func TestCompliance_UnknownZone(t *testing.T) {
	db := importedDB(t)
	path := filepath.Join(t.TempDir(), "h2prov.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compliance:\n  bidding_zones: [FR]\n"), 0o644))

	_, err := runCLI(t, "compliance", "ps-trans", "--db", db, "--config", path)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestComposition(t *testing.T) {
	db := importedDB(t)

	out, err := runCLI(t, "composition", "ps-storage", "--db", db, "--format", "json")
	require.NoError(t, err)
	var result CompositionResult
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &result))
	assert.Equal(t, []domain.HydrogenComponent{{RFNBO: domain.RFNBOReady, Amount: 5}}, result.Components)

	out, err = runCLI(t, "composition", "ps-power", "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ErrCodeValidation, decodeResponse(t, out).Error.Code)
}

type compositionFunc func(ctx context.Context, id string) ([]domain.HydrogenComponent, error)

func (f compositionFunc) FetchHydrogenComposition(ctx context.Context, id string) ([]domain.HydrogenComponent, error) {
	return f(ctx, id)
}

func TestReadComposition(t *testing.T) {
	calls := 0
	src := compositionFunc(func(ctx context.Context, id string) ([]domain.HydrogenComponent, error) {
		calls++
		if id == "ps-missing" {
			return nil, domain.NewNotFoundError("process step", id)
		}
		return []domain.HydrogenComponent{{RFNBO: domain.RFNBOReady, Amount: 1}}, nil
	})

	_, err := readComposition(context.Background(), src, "")
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, 0, calls)

	_, err = readComposition(context.Background(), src, "ps-missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFoundError(err))
	assert.Contains(t, err.Error(), "composition of ps-missing")

	got, err := readComposition(context.Background(), src, "ps-bottle")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBottle(t *testing.T) {
	db := importedDB(t)

	out, err := runCLI(t, "bottle", "pu-storage", "--component", "rfnbo_ready=2", "--db", db, "--format", "json")
	require.NoError(t, err)
	var result bottling.Result
	require.NoError(t, json.Unmarshal(decodeResponse(t, out).Data, &result))
	assert.Equal(t, 2.0, result.Bottle.Batch.Amount)
	require.Len(t, result.Allocation.StepsForRemainder, 1)
	assert.Equal(t, 3.0, result.Allocation.StepsForRemainder[0].Batch.Amount)

	out, err = runCLI(t, "composition", result.Bottle.ID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "RFNBO_READY")

	out, err = runCLI(t, "bottle", "pu-storage", "--component", "RFNBO_READY=4", "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeInventory, decodeResponse(t, out).Error.Code)
}

func TestBottle_InvalidComponent(t *testing.T) {
	db := importedDB(t)

	for _, component := range []string{"RFNBO_READY", "GREEN=2", "RFNBO_READY=two", "RFNBO_READY=NaN", "RFNBO_READY=+Inf"} {
		_, err := runCLI(t, "bottle", "pu-storage", "--component", component, "--db", db)
		require.Error(t, err, component)
		assert.True(t, domain.IsValidationError(err), component)
	}

	_, err := runCLI(t, "bottle", "pu-storage", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestMetricsFile(t *testing.T) {
	db := importedDB(t)
	metrics := filepath.Join(t.TempDir(), "h2prov.prom")

	_, err := runCLI(t, "graph", "ps-trans", "--db", db, "--metrics-file", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "h2prov_fetch_duration_seconds")
}
