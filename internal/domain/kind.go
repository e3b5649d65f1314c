package domain

// BatchType is the wire representation of a batch kind.
type BatchType string

const (
	BatchTypePower    BatchType = "POWER"
	BatchTypeWater    BatchType = "WATER"
	BatchTypeHydrogen BatchType = "HYDROGEN"
)

// BatchKind is the closed set of batch kinds. The unexported marker keeps
// the set limited to PowerBatch, WaterBatch and HydrogenBatch, so a type
// switch over those three is exhaustive.
type BatchKind interface {
	batchKind()
	// Type returns the wire representation.
	Type() BatchType
	// Unit returns the measurement unit of the batch amount.
	Unit() string
}

// PowerBatch measures electricity in kWh.
type PowerBatch struct{}

// WaterBatch measures water in liters.
type WaterBatch struct{}

// HydrogenBatch measures hydrogen in kg.
type HydrogenBatch struct{}

func (PowerBatch) batchKind()    {}
func (WaterBatch) batchKind()    {}
func (HydrogenBatch) batchKind() {}

func (PowerBatch) Type() BatchType    { return BatchTypePower }
func (WaterBatch) Type() BatchType    { return BatchTypeWater }
func (HydrogenBatch) Type() BatchType { return BatchTypeHydrogen }

func (PowerBatch) Unit() string    { return "kWh" }
func (WaterBatch) Unit() string    { return "l" }
func (HydrogenBatch) Unit() string { return "kg" }

// KindOf maps a wire type to its sum-type variant, or nil if unknown.
func KindOf(t BatchType) BatchKind {
	switch t {
	case BatchTypePower:
		return PowerBatch{}
	case BatchTypeWater:
		return WaterBatch{}
	case BatchTypeHydrogen:
		return HydrogenBatch{}
	default:
		return nil
	}
}

// UnitOf returns the measurement unit for a wire type, or "" if unknown.
func UnitOf(t BatchType) string {
	if k := KindOf(t); k != nil {
		return k.Unit()
	}
	return ""
}
