// Package source defines the data collaborators the engines read from and
// the concurrent fan-out helpers used to call them.
//
// Every read is independent and side-effect free. Helpers in this package
// issue independent reads concurrently under one errgroup, so the first
// failure or a cancelled context stops the remaining requests. Retries, if
// any, belong to the implementations.
package source

import (
	"context"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/provgraph"
)

// Direction of a server-side provenance slice.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"
	DirectionDownstream Direction = "downstream"
	DirectionBoth       Direction = "both"
)

// ParseDirection accepts the short and long spellings used on the command line.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "upstream":
		return DirectionUpstream, nil
	case "down", "downstream":
		return DirectionDownstream, nil
	case "both":
		return DirectionBoth, nil
	default:
		return "", domain.NewValidationError("unknown direction " + s + ": must be up, down or both")
	}
}

// StepFetcher reads process steps.
type StepFetcher interface {
	// FetchProcessStep returns one step or a not-found error.
	FetchProcessStep(ctx context.Context, id string) (domain.ProcessStep, error)

	// FetchProcessStepsForBatches returns the steps owning the referenced
	// batches. Unknown batch ids are skipped.
	FetchProcessStepsForBatches(ctx context.Context, refs []domain.BatchRef) ([]domain.ProcessStep, error)
}

// GraphSlice is a bounded provenance slice computed by the data source.
type GraphSlice struct {
	Nodes []domain.ProcessStep `json:"nodes"`
	Edges []provgraph.Edge     `json:"edges"`
}

// GraphFetcher is implemented by sources that can compute a provenance
// slice themselves.
type GraphFetcher interface {
	BuildProvenanceGraph(ctx context.Context, rootID string, dir Direction, maxDepth, maxNodes int) (GraphSlice, error)
}

// UnitFetcher reads production units.
type UnitFetcher interface {
	// FetchProductionUnitsByIDs returns the units of the given kind that
	// exist among ids. Missing ids are not an error here; callers decide.
	FetchProductionUnitsByIDs(ctx context.Context, ids []string, kind domain.UnitKind) ([]domain.ProductionUnit, error)
}

// CompositionFetcher reads the hydrogen composition of a step.
type CompositionFetcher interface {
	FetchHydrogenComposition(ctx context.Context, processStepID string) ([]domain.HydrogenComponent, error)
}
