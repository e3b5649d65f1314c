package domain

import "time"

// ProcessStepType identifies the stage of the production chain a step belongs to.
type ProcessStepType string

const (
	PowerProduction        ProcessStepType = "POWER_PRODUCTION"
	WaterConsumption       ProcessStepType = "WATER_CONSUMPTION"
	HydrogenProduction     ProcessStepType = "HYDROGEN_PRODUCTION"
	HydrogenStorage        ProcessStepType = "HYDROGEN_STORAGE"
	HydrogenBottling       ProcessStepType = "HYDROGEN_BOTTLING"
	HydrogenTransportation ProcessStepType = "HYDROGEN_TRANSPORTATION"
)

// ProcessStepTypes lists every step type in production-chain order.
var ProcessStepTypes = []ProcessStepType{
	PowerProduction,
	WaterConsumption,
	HydrogenProduction,
	HydrogenStorage,
	HydrogenBottling,
	HydrogenTransportation,
}

// Valid reports whether t is one of the known step types.
func (t ProcessStepType) Valid() bool {
	for _, known := range ProcessStepTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BatchType returns the kind of batch a step of this type owns.
func (t ProcessStepType) BatchType() BatchType {
	switch t {
	case PowerProduction:
		return BatchTypePower
	case WaterConsumption:
		return BatchTypeWater
	default:
		return BatchTypeHydrogen
	}
}

// RFNBO is the regulatory classification of a hydrogen batch.
type RFNBO string

const (
	RFNBOReady     RFNBO = "RFNBO_READY"
	NonCertifiable RFNBO = "NON_CERTIFIABLE"
)

// HydrogenColor is the color classification of a hydrogen batch.
type HydrogenColor string

const (
	ColorGreen  HydrogenColor = "GREEN"
	ColorYellow HydrogenColor = "YELLOW"
	ColorOrange HydrogenColor = "ORANGE"
	ColorMix    HydrogenColor = "MIX"
)

// TransportMode is the way a transportation step moves hydrogen.
type TransportMode string

const (
	TransportPipeline TransportMode = "PIPELINE"
	TransportTrailer  TransportMode = "TRAILER"
)

// FuelType is the fuel burned by a trailer transport.
type FuelType string

const (
	FuelDiesel    FuelType = "DIESEL"
	FuelBiodiesel FuelType = "BIODIESEL"
	FuelLNG       FuelType = "LNG"
	FuelHydrogen  FuelType = "HYDROGEN"
)

// BatchRef is a lightweight reference from one batch to another.
// Amount is the quantity contributed along the link, when known.
type BatchRef struct {
	ID     string   `json:"id" yaml:"id"`
	Amount *float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// QualityDetails carries the quality classification of a batch.
type QualityDetails struct {
	Color HydrogenColor `json:"color,omitempty" yaml:"color,omitempty"`
}

// Batch is the quantity of power, water or hydrogen a step produced or consumed.
type Batch struct {
	ID           string         `json:"id" yaml:"id"`
	Amount       float64        `json:"amount" yaml:"amount"`
	Type         BatchType      `json:"type" yaml:"type"`
	Active       bool           `json:"active" yaml:"active"`
	Quality      QualityDetails `json:"quality_details" yaml:"quality_details"`
	RFNBO        RFNBO          `json:"rfnbo,omitempty" yaml:"rfnbo,omitempty"`
	Owner        string         `json:"owner" yaml:"owner"`
	Predecessors []BatchRef     `json:"predecessors" yaml:"predecessors"`
	Successors   []BatchRef     `json:"successors" yaml:"successors"`
}

// Kind returns the closed sum type for the batch's wire type.
// Unknown wire types map to nil.
func (b Batch) Kind() BatchKind {
	return KindOf(b.Type)
}

// TransportationDetails is present on HYDROGEN_TRANSPORTATION steps.
type TransportationDetails struct {
	Mode       TransportMode `json:"transport_mode" yaml:"transport_mode"`
	DistanceKm float64       `json:"distance_km" yaml:"distance_km"`
	FuelType   FuelType      `json:"fuel_type,omitempty" yaml:"fuel_type,omitempty"`
}

// ProcessStep is one stage of the production chain together with the batch it owns.
type ProcessStep struct {
	ID                    string                 `json:"id" yaml:"id"`
	Type                  ProcessStepType        `json:"type" yaml:"type"`
	StartedAt             time.Time              `json:"started_at" yaml:"started_at"`
	EndedAt               time.Time              `json:"ended_at" yaml:"ended_at"`
	ExecutedBy            string                 `json:"executed_by" yaml:"executed_by"`
	Batch                 Batch                  `json:"batch" yaml:"batch"`
	TransportationDetails *TransportationDetails `json:"transportation_details,omitempty" yaml:"transportation_details,omitempty"`
}

// HydrogenComponent is a slice of a hydrogen composition.
type HydrogenComponent struct {
	RFNBO  RFNBO   `json:"rfnbo" yaml:"rfnbo"`
	Amount float64 `json:"amount" yaml:"amount"`
}
