package emission

import "strconv"

// Topic groups calculations for aggregation.
type Topic string

const (
	TopicPowerSupply            Topic = "POWER_SUPPLY"
	TopicWaterSupply            Topic = "WATER_SUPPLY"
	TopicHydrogenStorage        Topic = "HYDROGEN_STORAGE"
	TopicHydrogenBottling       Topic = "HYDROGEN_BOTTLING"
	TopicHydrogenTransportation Topic = "HYDROGEN_TRANSPORTATION"
)

// Topics lists the application topics in report order.
var Topics = []Topic{
	TopicPowerSupply,
	TopicWaterSupply,
	TopicHydrogenStorage,
	TopicHydrogenBottling,
	TopicHydrogenTransportation,
}

// Unit of every calculation result.
const Unit = "g CO2 eq/kg H2"

// Reference values.
const (
	// GravimetricEnergyDensity is the lower heating value of hydrogen in MJ/kg.
	GravimetricEnergyDensity = 120.0

	// FossilComparator is the fossil fuel reference in g CO2 eq/MJ.
	FossilComparator = 94.0

	// WaterEmissionFactor is the supply factor of process water in g CO2 eq/l.
	WaterEmissionFactor = 0.43

	// CompressionEnergy is the electricity used to store hydrogen in kWh/kg.
	CompressionEnergy = 1.65

	// BottlingEnergy is the electricity used to fill bottles in kWh/kg.
	// Zero until a bottling model is agreed.
	BottlingEnergy = 0.0
)

// Calculation is one emission contribution with its formula.
type Calculation struct {
	Label              string  `json:"label"`
	BasisOfCalculation string  `json:"basis_of_calculation"`
	Result             float64 `json:"result"`
	Unit               string  `json:"unit"`
	Topic              Topic   `json:"calculation_topic"`
	ProcessStepID      string  `json:"process_step_id,omitempty"`
}

// num renders v with the shortest representation that round-trips.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
