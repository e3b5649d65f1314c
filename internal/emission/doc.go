// Package emission computes the greenhouse-gas intensity of a hydrogen
// batch from its provenance.
//
// Each calculator returns a Calculation in g CO2 eq per kg of hydrogen,
// together with the formula and the literal numbers it used. Aggregate
// groups calculations by topic and derives the application and regulatory
// entries of a proof of sustainability.
//
// Storage compression is charged per kg of hydrogen and is not divided by
// the number of production batches feeding the compressor.
package emission
