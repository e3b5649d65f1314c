package emission

import "sort"

// EmissionType separates the two report views.
type EmissionType string

const (
	EmissionApplication EmissionType = "APPLICATION"
	EmissionRegulatory  EmissionType = "REGULATORY"
)

// ProcessStepEmission is one aggregated report entry.
type ProcessStepEmission struct {
	Label        string       `json:"label"`
	Amount       float64      `json:"amount"`
	EmissionType EmissionType `json:"emission_type"`
	Topic        Topic        `json:"topic,omitempty"`
}

// Result is the emission part of a proof of sustainability.
type Result struct {
	Calculations                []Calculation         `json:"calculations"`
	ProcessStepEmissions        []ProcessStepEmission `json:"process_step_emissions"`
	AmountCO2PerMJH2            float64               `json:"amount_co2_per_mj_h2"`
	EmissionReductionPercentage float64               `json:"emission_reduction_percentage"`
}

var applicationLabels = map[Topic]string{
	TopicPowerSupply:            "Power supply",
	TopicWaterSupply:            "Water supply",
	TopicHydrogenStorage:        "Hydrogen storage",
	TopicHydrogenBottling:       "Hydrogen bottling",
	TopicHydrogenTransportation: "Hydrogen transportation",
}

// Regulatory entry labels.
const (
	LabelInputs                   = "Emissions from supply of inputs"
	LabelProcessing               = "Emissions from processing"
	LabelTransportAndDistribution = "Emissions from transport and distribution"
)

// Aggregate sums calcs per topic and derives the report entries.
// The per-topic sums do not depend on the order of calcs.
func Aggregate(calcs []Calculation) *Result {
	byTopic := make(map[Topic][]float64, len(Topics))
	for _, c := range calcs {
		byTopic[c.Topic] = append(byTopic[c.Topic], c.Result)
	}

	sums := make(map[Topic]float64, len(Topics))
	entries := make([]ProcessStepEmission, 0, len(Topics)+3)
	total := 0.0
	for _, topic := range Topics {
		s := orderedSum(byTopic[topic])
		sums[topic] = s
		total += s
		entries = append(entries, ProcessStepEmission{
			Label:        applicationLabels[topic],
			Amount:       s,
			EmissionType: EmissionApplication,
			Topic:        topic,
		})
	}

	inputs := sums[TopicPowerSupply] + sums[TopicWaterSupply]
	transport := sums[TopicHydrogenTransportation]
	entries = append(entries,
		ProcessStepEmission{Label: LabelInputs, Amount: inputs, EmissionType: EmissionRegulatory},
		ProcessStepEmission{Label: LabelProcessing, Amount: total - inputs - transport, EmissionType: EmissionRegulatory},
		ProcessStepEmission{Label: LabelTransportAndDistribution, Amount: transport, EmissionType: EmissionRegulatory},
	)

	perMJ := total / GravimetricEnergyDensity
	out := make([]Calculation, len(calcs))
	copy(out, calcs)
	return &Result{
		Calculations:                out,
		ProcessStepEmissions:        entries,
		AmountCO2PerMJH2:            perMJ,
		EmissionReductionPercentage: (FossilComparator - perMJ) / FossilComparator * 100,
	}
}

// Total returns the sum of the application entries.
func (r *Result) Total() float64 {
	total := 0.0
	for _, e := range r.ProcessStepEmissions {
		if e.EmissionType == EmissionApplication {
			total += e.Amount
		}
	}
	return total
}

// orderedSum adds values in ascending order so the result is independent
// of input order.
func orderedSum(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return sum
}
