package emission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2prov/internal/config"
	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/testutil"
)

func factorsWithGas(gas float64) config.EmissionFactors {
	f := config.Default().Emission
	f.EnergySources[string(domain.EnergyGas)] = gas
	return f
}

func TestPower_LiteralBasis(t *testing.T) {
	calc := NewCalculator(factorsWithGas(400))
	step := testutil.NewStep("ps-power", domain.PowerProduction, 100).ExecutedBy("pu-power").Build()
	unit := testutil.PowerUnit("pu-power", "DE-LU", domain.EnergyGas)

	c, err := calc.Power(step, unit, 5)
	require.NoError(t, err)

	assert.Equal(t, 8000.0, c.Result)
	assert.Equal(t, "E = 100 kWh × 400 g CO2 eq/kWh / 5 kg H2", c.BasisOfCalculation)
	assert.Equal(t, Unit, c.Unit)
	assert.Equal(t, TopicPowerSupply, c.Topic)
	assert.Equal(t, "ps-power", c.ProcessStepID)
}

func TestPower_Errors(t *testing.T) {
	calc := NewCalculator(config.Default().Emission)
	step := testutil.NewStep("ps-power", domain.PowerProduction, 100).Build()

	_, err := calc.Power(step, testutil.PowerUnit("pu", "NL", domain.EnergyWind), 0)
	assert.True(t, domain.IsValidationError(err))

	_, err = calc.Power(step, testutil.PowerUnit("pu", "NL", "TIDAL"), 5)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Contains(t, err.Error(), "TIDAL")
}

func TestWater(t *testing.T) {
	calc := NewCalculator(config.Default().Emission)
	step := testutil.NewStep("ps-water", domain.WaterConsumption, 50).Build()

	c, err := calc.Water(step, 5)
	require.NoError(t, err)
	assert.InDelta(t, 4.3, c.Result, 1e-9)
	assert.Equal(t, "E = 50 l × 0.43 g CO2 eq/l / 5 kg H2", c.BasisOfCalculation)
	assert.Equal(t, TopicWaterSupply, c.Topic)
}

func TestStorage_NotDividedByBatchCount(t *testing.T) {
	calc := NewCalculator(config.Default().Emission)
	c := calc.Storage(testutil.NewStep("ps-storage", domain.HydrogenStorage, 40).Build())

	assert.InDelta(t, 627.0, c.Result, 1e-9)
	assert.Equal(t, "E = 1.65 kWh/kg H2 × 380 g CO2 eq/kWh", c.BasisOfCalculation)
}

func TestBottling_Placeholder(t *testing.T) {
	calc := NewCalculator(config.Default().Emission)
	c := calc.Bottling(testutil.NewStep("ps-bottle", domain.HydrogenBottling, 40).Build())

	assert.Equal(t, 0.0, c.Result)
	assert.Equal(t, "E = 0 kWh/kg H2 × 380 g CO2 eq/kWh", c.BasisOfCalculation)
	assert.Equal(t, TopicHydrogenBottling, c.Topic)
}

func TestTransportation_Trailer(t *testing.T) {
	calc := NewCalculator(config.Default().Emission)
	step := testutil.NewStep("ps-trans", domain.HydrogenTransportation, 120).
		Transport(domain.TransportTrailer, 200, domain.FuelDiesel).Build()

	c, err := calc.Transportation(step)
	require.NoError(t, err)

	assert.InDelta(t, 200*(8500.0/1000*95.1+40.0/1000), c.Result, 1e-6)
	assert.InDelta(t, 161678.0, c.Result, 1e-6)
	assert.Equal(t, "E = 200 km × (8500 kJ/km / 1000 × 95.1 g CO2 eq/MJ + 40 mg/km / 1000)", c.BasisOfCalculation)
}

func TestTransportation_Pipeline(t *testing.T) {
	calc := NewCalculator(config.Default().Emission)
	step := testutil.NewStep("ps-trans", domain.HydrogenTransportation, 120).
		Transport(domain.TransportPipeline, 900, "").Build()

	c, err := calc.Transportation(step)
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.Result)
	assert.Equal(t, TopicHydrogenTransportation, c.Topic)
}

func TestTransportation_Errors(t *testing.T) {
	calc := NewCalculator(config.Default().Emission)

	ship := testutil.NewStep("ps-ship", domain.HydrogenTransportation, 10).
		Transport("SHIP", 100, domain.FuelDiesel).Build()
	_, err := calc.Transportation(ship)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Contains(t, err.Error(), "unknown transport mode")

	bare := testutil.NewStep("ps-bare", domain.HydrogenTransportation, 10).Build()
	_, err = calc.Transportation(bare)
	assert.True(t, domain.IsValidationError(err))

	kerosene := testutil.NewStep("ps-kero", domain.HydrogenTransportation, 10).
		Transport(domain.TransportTrailer, 100, "KEROSENE").Build()
	_, err = calc.Transportation(kerosene)
	assert.True(t, domain.IsValidationError(err))
}

func TestTrailerTier_Selection(t *testing.T) {
	factors := config.Default().Emission
	factors.TrailerTiers = []config.TrailerTier{
		{CapacityKg: 1100, EfficiencyKJPerKm: 3},
		{CapacityKg: 500, EfficiencyKJPerKm: 1},
		{CapacityKg: 800, EfficiencyKJPerKm: 2},
	}
	calc := NewCalculator(factors)

	cases := []struct {
		amount float64
		want   float64
	}{
		{0, 500},
		{500, 500},
		{500.5, 800},
		{1100, 1100},
		{5000, 1100},
	}
	for _, tc := range cases {
		tier, ok := calc.TrailerTier(tc.amount)
		require.True(t, ok)
		assert.Equal(t, tc.want, tier.CapacityKg, "amount %v", tc.amount)
	}

	_, ok := NewCalculator(config.EmissionFactors{}).TrailerTier(10)
	assert.False(t, ok)
}
