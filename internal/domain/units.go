package domain

import "time"

// UnitKind distinguishes the production-unit registries.
type UnitKind string

const (
	UnitKindPower    UnitKind = "POWER"
	UnitKindHydrogen UnitKind = "HYDROGEN"
	UnitKindStorage  UnitKind = "STORAGE"
)

// EnergySource is the primary energy source of a power production unit.
type EnergySource string

const (
	EnergySolar   EnergySource = "SOLAR"
	EnergyWind    EnergySource = "WIND"
	EnergyHydro   EnergySource = "HYDRO"
	EnergyNuclear EnergySource = "NUCLEAR"
	EnergyGas     EnergySource = "GAS"
	EnergyCoal    EnergySource = "COAL"
	EnergyGrid    EnergySource = "GRID"
)

// ProductionUnit is a registered plant that executes process steps.
type ProductionUnit struct {
	ID                       string       `json:"id" yaml:"id"`
	Kind                     UnitKind     `json:"kind" yaml:"kind"`
	Name                     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Owner                    string       `json:"owner,omitempty" yaml:"owner,omitempty"`
	BiddingZone              string       `json:"bidding_zone,omitempty" yaml:"bidding_zone,omitempty"`
	CommissionedOn           time.Time    `json:"commissioned_on" yaml:"commissioned_on"`
	FinancialSupportReceived *bool        `json:"financial_support_received,omitempty" yaml:"financial_support_received,omitempty"`
	EnergySource             EnergySource `json:"energy_source,omitempty" yaml:"energy_source,omitempty"`
}

// ReceivedFinancialSupport reports whether support was recorded as received.
// An unset flag counts as no support.
func (u ProductionUnit) ReceivedFinancialSupport() bool {
	return u.FinancialSupportReceived != nil && *u.FinancialSupportReceived
}
