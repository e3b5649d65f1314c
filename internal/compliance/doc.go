// Package compliance evaluates the renewable-hydrogen criteria of a
// provenance slice.
//
// Each hydrogen production step is paired with its nearest upstream power
// production step. The production units of both sides are fetched, and
// every pair is checked for geographic correlation, temporal correlation,
// additionality and absence of financial support. A criterion holds only
// if it holds for every pair.
package compliance
