// Package domain defines the provenance records shared by every engine.
//
// This package contains record types, enumerations and the error taxonomy
// only. All other internal packages import domain; domain imports nothing
// internal.
//
// Key constraints:
//   - ProcessStep and Batch values are treated as immutable once fetched.
//     The allocation engine is the only producer of new steps.
//   - Amounts are float64 in the unit implied by the batch kind
//     (kWh, liters, kg).
//   - Timestamps are UTC.
//   - All JSON tags use snake_case.
package domain
