package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2prov/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "h2prov.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
fetch:
  concurrency: 4
emission:
  grid_factor: 400
  energy_sources:
    WIND: 11
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, 25, cfg.Fetch.ChunkSize)
	assert.Equal(t, 400.0, cfg.Emission.GridFactor)

	wind, ok := cfg.Emission.EnergySourceFactor(domain.EnergyWind)
	require.True(t, ok)
	assert.Equal(t, 11.0, wind)

	coal, ok := cfg.Emission.EnergySourceFactor(domain.EnergyCoal)
	require.True(t, ok)
	assert.Equal(t, 820.0, coal)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_SchemaViolation(t *testing.T) {
	path := writeConfig(t, `
fetch:
  concurrency: 0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestLoad_UnknownLogMode(t *testing.T) {
	_, err := Load(writeConfig(t, "log:\n  mode: verbose\n"))
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "fetch:\n  parallelism: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallelism")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestParse_EmptyZoneListRejected(t *testing.T) {
	_, err := Parse([]byte("compliance:\n  bidding_zones: []\n"))
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestKnownZones_Normalized(t *testing.T) {
	cfg, err := Parse([]byte("compliance:\n  bidding_zones: [' de-lu ', nl]\n"))
	require.NoError(t, err)

	zones := cfg.KnownZones()
	assert.True(t, zones["DE-LU"])
	assert.True(t, zones["NL"])
	assert.Len(t, zones, 2)
}

func TestOptionsAndLimits(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 50, cfg.Traversal.Nearest.Options().MaxDepth)
	assert.Equal(t, 5000, cfg.Traversal.FindAll.Options().MaxNodes)
	assert.Equal(t, 8, cfg.Fetch.Limits().Concurrency)
}
