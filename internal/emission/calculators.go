package emission

import (
	"fmt"
	"sort"

	"github.com/roach88/h2prov/internal/config"
	"github.com/roach88/h2prov/internal/domain"
)

// Calculator computes per-topic emissions from a set of reference factors.
type Calculator struct {
	factors config.EmissionFactors
	tiers   []config.TrailerTier
}

// NewCalculator returns a Calculator using factors.
func NewCalculator(factors config.EmissionFactors) *Calculator {
	tiers := append([]config.TrailerTier(nil), factors.TrailerTiers...)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].CapacityKg < tiers[j].CapacityKg
	})
	return &Calculator{factors: factors, tiers: tiers}
}

// Power charges the electricity of step to the hydrogenKg it produced.
func (c *Calculator) Power(step domain.ProcessStep, unit domain.ProductionUnit, hydrogenKg float64) (Calculation, error) {
	if hydrogenKg <= 0 {
		return Calculation{}, domain.NewValidationError("successor hydrogen amount must be positive", step.ID)
	}
	factor, ok := c.factors.EnergySourceFactor(unit.EnergySource)
	if !ok {
		return Calculation{}, domain.NewValidationError(
			fmt.Sprintf("no emission factor for energy source %q", unit.EnergySource), step.ID, unit.ID)
	}
	amount := step.Batch.Amount
	return Calculation{
		Label:              "Power supply from " + unitLabel(unit),
		BasisOfCalculation: fmt.Sprintf("E = %s kWh × %s g CO2 eq/kWh / %s kg H2", num(amount), num(factor), num(hydrogenKg)),
		Result:             amount * factor / hydrogenKg,
		Unit:               Unit,
		Topic:              TopicPowerSupply,
		ProcessStepID:      step.ID,
	}, nil
}

// Water charges the water of step to the hydrogenKg it produced.
func (c *Calculator) Water(step domain.ProcessStep, hydrogenKg float64) (Calculation, error) {
	if hydrogenKg <= 0 {
		return Calculation{}, domain.NewValidationError("successor hydrogen amount must be positive", step.ID)
	}
	amount := step.Batch.Amount
	return Calculation{
		Label:              "Water supply",
		BasisOfCalculation: fmt.Sprintf("E = %s l × %s g CO2 eq/l / %s kg H2", num(amount), num(WaterEmissionFactor), num(hydrogenKg)),
		Result:             amount * WaterEmissionFactor / hydrogenKg,
		Unit:               Unit,
		Topic:              TopicWaterSupply,
		ProcessStepID:      step.ID,
	}, nil
}

// Storage charges compression at the grid factor, per kg.
func (c *Calculator) Storage(step domain.ProcessStep) Calculation {
	grid := c.factors.GridFactor
	return Calculation{
		Label:              "Hydrogen storage (compression)",
		BasisOfCalculation: fmt.Sprintf("E = %s kWh/kg H2 × %s g CO2 eq/kWh", num(CompressionEnergy), num(grid)),
		Result:             CompressionEnergy * grid,
		Unit:               Unit,
		Topic:              TopicHydrogenStorage,
		ProcessStepID:      step.ID,
	}
}

// Bottling charges bottling energy at the grid factor, per kg.
func (c *Calculator) Bottling(step domain.ProcessStep) Calculation {
	grid := c.factors.GridFactor
	return Calculation{
		Label:              "Hydrogen bottling",
		BasisOfCalculation: fmt.Sprintf("E = %s kWh/kg H2 × %s g CO2 eq/kWh", num(BottlingEnergy), num(grid)),
		Result:             BottlingEnergy * grid,
		Unit:               Unit,
		Topic:              TopicHydrogenBottling,
		ProcessStepID:      step.ID,
	}
}

// Transportation charges the transport of step by mode.
func (c *Calculator) Transportation(step domain.ProcessStep) (Calculation, error) {
	details := step.TransportationDetails
	if details == nil {
		return Calculation{}, domain.NewValidationError("transportation details missing", step.ID)
	}

	switch details.Mode {
	case domain.TransportPipeline:
		return Calculation{
			Label:              "Hydrogen transportation by pipeline",
			BasisOfCalculation: "E = 0",
			Result:             0,
			Unit:               Unit,
			Topic:              TopicHydrogenTransportation,
			ProcessStepID:      step.ID,
		}, nil
	case domain.TransportTrailer:
		return c.trailer(step, details)
	default:
		return Calculation{}, domain.NewValidationError(
			fmt.Sprintf("unknown transport mode %q", details.Mode), step.ID)
	}
}

func (c *Calculator) trailer(step domain.ProcessStep, details *domain.TransportationDetails) (Calculation, error) {
	tier, ok := c.TrailerTier(step.Batch.Amount)
	if !ok {
		return Calculation{}, domain.NewValidationError("no trailer tiers configured", step.ID)
	}
	fuel, ok := c.factors.FuelFactor(details.FuelType)
	if !ok {
		return Calculation{}, domain.NewValidationError(
			fmt.Sprintf("no emission factor for fuel %q", details.FuelType), step.ID)
	}

	km := details.DistanceKm
	return Calculation{
		Label: fmt.Sprintf("Hydrogen transportation by trailer (%s)", details.FuelType),
		BasisOfCalculation: fmt.Sprintf("E = %s km × (%s kJ/km / 1000 × %s g CO2 eq/MJ + %s mg/km / 1000)",
			num(km), num(tier.EfficiencyKJPerKm), num(fuel), num(tier.CH4N2OMgPerKm)),
		Result:        km * (tier.EfficiencyKJPerKm/1000*fuel + tier.CH4N2OMgPerKm/1000),
		Unit:          Unit,
		Topic:         TopicHydrogenTransportation,
		ProcessStepID: step.ID,
	}, nil
}

// TrailerTier returns the smallest tier that can carry amountKg, or the
// largest tier when none can.
func (c *Calculator) TrailerTier(amountKg float64) (config.TrailerTier, bool) {
	if len(c.tiers) == 0 {
		return config.TrailerTier{}, false
	}
	for _, t := range c.tiers {
		if t.CapacityKg >= amountKg {
			return t, true
		}
	}
	return c.tiers[len(c.tiers)-1], true
}

func unitLabel(u domain.ProductionUnit) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
