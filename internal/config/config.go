// Package config loads the h2prov configuration.
//
// A configuration file is optional. When given, its YAML is decoded over
// the built-in defaults, so a file only needs the keys it changes. The
// merged result is validated against the embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/provgraph"
	"github.com/roach88/h2prov/internal/source"
)

//go:embed schema.cue
var schemaSource string

// Config is the full configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" json:"log"`
	Traversal  TraversalConfig  `yaml:"traversal" json:"traversal"`
	Fetch      FetchConfig      `yaml:"fetch" json:"fetch"`
	Emission   EmissionFactors  `yaml:"emission" json:"emission"`
	Compliance ComplianceConfig `yaml:"compliance" json:"compliance"`
}

// LogConfig selects the logger preset and level.
type LogConfig struct {
	Mode  string `yaml:"mode" json:"mode"`
	Level string `yaml:"level" json:"level"`
}

// Bounds caps a traversal.
type Bounds struct {
	MaxDepth int `yaml:"max_depth" json:"max_depth"`
	MaxNodes int `yaml:"max_nodes" json:"max_nodes"`
}

// Options converts b for the graph engine.
func (b Bounds) Options() provgraph.Options {
	return provgraph.Options{MaxDepth: b.MaxDepth, MaxNodes: b.MaxNodes}
}

// TraversalConfig holds the bounds of each traversal family.
type TraversalConfig struct {
	Nearest Bounds `yaml:"nearest" json:"nearest"`
	FindAll Bounds `yaml:"find_all" json:"find_all"`
}

// FetchConfig bounds concurrent reads from a data source.
type FetchConfig struct {
	Concurrency int `yaml:"concurrency" json:"concurrency"`
	ChunkSize   int `yaml:"chunk_size" json:"chunk_size"`
}

// Limits converts f for the fan-out helpers.
func (f FetchConfig) Limits() source.Limits {
	return source.Limits{Concurrency: f.Concurrency, ChunkSize: f.ChunkSize}
}

// EmissionFactors are the emission reference tables.
type EmissionFactors struct {
	// GridFactor is the grid electricity factor in g CO2eq/kWh.
	GridFactor float64 `yaml:"grid_factor" json:"grid_factor"`

	// EnergySources maps an energy source to its factor in g CO2eq/kWh.
	EnergySources map[string]float64 `yaml:"energy_sources" json:"energy_sources"`

	// Fuels maps a trailer fuel to its factor in g CO2eq/MJ.
	Fuels map[string]float64 `yaml:"fuels" json:"fuels"`

	// TrailerTiers are the trailer classes, ordered by capacity.
	TrailerTiers []TrailerTier `yaml:"trailer_tiers" json:"trailer_tiers"`
}

// TrailerTier is one trailer capacity class.
type TrailerTier struct {
	CapacityKg        float64 `yaml:"capacity_kg" json:"capacity_kg"`
	EfficiencyKJPerKm float64 `yaml:"efficiency_kj_per_km" json:"efficiency_kj_per_km"`
	CH4N2OMgPerKm     float64 `yaml:"ch4_n2o_mg_per_km" json:"ch4_n2o_mg_per_km"`
}

// EnergySourceFactor returns the factor for src.
func (e EmissionFactors) EnergySourceFactor(src domain.EnergySource) (float64, bool) {
	f, ok := e.EnergySources[string(src)]
	return f, ok
}

// FuelFactor returns the factor for fuel.
func (e EmissionFactors) FuelFactor(fuel domain.FuelType) (float64, bool) {
	f, ok := e.Fuels[string(fuel)]
	return f, ok
}

// ComplianceConfig holds the regulatory reference data.
type ComplianceConfig struct {
	// BiddingZones is the set of known bidding zones.
	BiddingZones []string `yaml:"bidding_zones" json:"bidding_zones"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Mode: "production", Level: "info"},
		Traversal: TraversalConfig{
			Nearest: Bounds{
				MaxDepth: provgraph.DefaultNearestOptions.MaxDepth,
				MaxNodes: provgraph.DefaultNearestOptions.MaxNodes,
			},
			FindAll: Bounds{
				MaxDepth: provgraph.DefaultFindAllOptions.MaxDepth,
				MaxNodes: provgraph.DefaultFindAllOptions.MaxNodes,
			},
		},
		Fetch: FetchConfig{
			Concurrency: source.DefaultConcurrency,
			ChunkSize:   source.DefaultChunkSize,
		},
		Emission: EmissionFactors{
			GridFactor: 380,
			EnergySources: map[string]float64{
				string(domain.EnergySolar):   0,
				string(domain.EnergyWind):    0,
				string(domain.EnergyHydro):   0,
				string(domain.EnergyNuclear): 12,
				string(domain.EnergyGas):     490,
				string(domain.EnergyCoal):    820,
				string(domain.EnergyGrid):    380,
			},
			Fuels: map[string]float64{
				string(domain.FuelDiesel):    95.1,
				string(domain.FuelBiodiesel): 33.3,
				string(domain.FuelLNG):       79.3,
				string(domain.FuelHydrogen):  0,
			},
			TrailerTiers: []TrailerTier{
				{CapacityKg: 500, EfficiencyKJPerKm: 8500, CH4N2OMgPerKm: 40},
				{CapacityKg: 800, EfficiencyKJPerKm: 10500, CH4N2OMgPerKm: 55},
				{CapacityKg: 1100, EfficiencyKJPerKm: 12300, CH4N2OMgPerKm: 70},
			},
		},
		Compliance: ComplianceConfig{
			BiddingZones: []string{
				"AT", "BE", "CH", "CZ", "DE-LU", "DK1", "DK2", "ES", "FI", "FR",
				"IT-NORD", "NL", "NO1", "NO2", "PL", "PT", "SE3", "SE4",
			},
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := decode(bytes.NewReader(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(bytes.NewReader(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks c against the embedded schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.Encode(c)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return domain.NewValidationError(fmt.Sprintf("invalid configuration: %v", err))
	}
	return nil
}

// KnownZones returns the normalized bidding zones as a set.
func (c *Config) KnownZones() map[string]bool {
	zones := make(map[string]bool, len(c.Compliance.BiddingZones))
	for _, z := range c.Compliance.BiddingZones {
		zones[domain.NormalizeZone(z)] = true
	}
	return zones
}
