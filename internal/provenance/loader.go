// Package provenance loads the provenance graph around a process step from
// a data source and checks it for data-quality problems.
//
// Sources that can slice the graph server-side (source.GraphFetcher) are
// asked for the slice in one call. Any other source.StepFetcher is walked
// level by level, one batched neighbor fetch per frontier step.
package provenance

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/logger"
	"github.com/roach88/h2prov/internal/observability"
	"github.com/roach88/h2prov/internal/provgraph"
	"github.com/roach88/h2prov/internal/source"
)

// Fetch operation names reported to metrics.
const (
	OpFetchStep      = "fetch_step"
	OpFetchNeighbors = "fetch_neighbors"
	OpFetchGraph     = "fetch_graph"
	OpLoad           = "load"
)

// Provenance is a loaded graph with its data-quality findings.
type Provenance struct {
	Graph         *provgraph.Graph             `json:"-"`
	Root          *provgraph.Node              `json:"-"`
	Cycles        []provgraph.CycleWarning     `json:"cycles"`
	Contributions []domain.ContributionWarning `json:"contributions"`
}

// Loader builds provenance graphs from a step source.
type Loader struct {
	steps   source.StepFetcher
	graphs  source.GraphFetcher
	limits  source.Limits
	bounds  provgraph.Options
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Loader.
type Option func(*Loader)

// WithLimits sets fetch concurrency for level-by-level loading.
func WithLimits(limits source.Limits) Option {
	return func(l *Loader) { l.limits = limits }
}

// WithBounds caps the loaded slice. Zero fields take the find-all defaults.
func WithBounds(bounds provgraph.Options) Option {
	return func(l *Loader) { l.bounds = bounds }
}

// WithLogger sets the logger for data-quality warnings.
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithMetrics sets the metrics sink. It also observes graph truncation.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader returns a Loader reading from steps. If steps also implements
// source.GraphFetcher, graph slices are fetched in one call.
func NewLoader(steps source.StepFetcher, opts ...Option) *Loader {
	l := &Loader{steps: steps, log: logger.Nop()}
	if gf, ok := steps.(source.GraphFetcher); ok {
		l.graphs = gf
	}
	for _, opt := range opts {
		opt(l)
	}
	l.bounds = provgraph.Options{
		MaxDepth: orDefault(l.bounds.MaxDepth, provgraph.DefaultFindAllOptions.MaxDepth),
		MaxNodes: orDefault(l.bounds.MaxNodes, provgraph.DefaultFindAllOptions.MaxNodes),
	}
	return l
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

// Load builds the graph of rootID and everything within bounds in dir.
// Cycles and over-contributed batches are reported, logged and counted;
// they do not fail the load.
func (l *Loader) Load(ctx context.Context, rootID string, dir source.Direction) (*Provenance, error) {
	rootID = domain.NormalizeID(rootID)
	if rootID == "" {
		return nil, domain.NewValidationError("process step id is required")
	}

	var g *provgraph.Graph
	if l.graphs != nil {
		slice, err := l.fetchGraph(ctx, rootID, dir)
		if err != nil {
			return nil, err
		}
		g = provgraph.BuildFromEdgeList(slice.Nodes, slice.Edges, provgraph.WithObserver(l.metrics))
	} else {
		steps, err := l.walk(ctx, rootID, dir)
		if err != nil {
			return nil, err
		}
		g = provgraph.BuildFromSteps(steps, provgraph.WithObserver(l.metrics))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, ok := g.Node(rootID)
	if !ok {
		return nil, domain.NewNotFoundError("process step", rootID)
	}

	p := &Provenance{
		Graph:         g,
		Root:          root,
		Cycles:        g.DetectCycles(),
		Contributions: domain.ValidateContributions(g.Steps()),
	}
	l.report(rootID, p)
	return p, nil
}

func (l *Loader) report(rootID string, p *Provenance) {
	log := l.log.With("root", rootID)
	for _, c := range p.Cycles {
		log.Warn("provenance cycle", "path", c.Path)
	}
	for _, w := range p.Contributions {
		log.Warn("batch over-contributed",
			"batch", w.BatchID, "amount", w.Amount, "contributed", w.Contributed)
	}
	l.metrics.CycleWarnings(len(p.Cycles))
	l.metrics.ContributionWarnings(len(p.Contributions))
	log.Debug("provenance loaded", "steps", p.Graph.Len())
}

func (l *Loader) fetchGraph(ctx context.Context, rootID string, dir source.Direction) (source.GraphSlice, error) {
	start := time.Now()
	slice, err := l.graphs.BuildProvenanceGraph(ctx, rootID, dir, l.bounds.MaxDepth, l.bounds.MaxNodes)
	l.metrics.FetchObserved(OpFetchGraph, time.Since(start), err)
	if err != nil {
		return source.GraphSlice{}, fmt.Errorf("load provenance of %s: %w", rootID, err)
	}
	return slice, nil
}

// walk fetches the root, then each level of neighbors in dir until the
// depth or node bound is reached. Both directions are walked from the
// root; they share the visited set.
func (l *Loader) walk(ctx context.Context, rootID string, dir source.Direction) ([]domain.ProcessStep, error) {
	var refsOf []func(domain.ProcessStep) []domain.BatchRef
	switch dir {
	case source.DirectionUpstream:
		refsOf = append(refsOf, predecessors)
	case source.DirectionDownstream:
		refsOf = append(refsOf, successors)
	case source.DirectionBoth:
		refsOf = append(refsOf, predecessors, successors)
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("unknown direction %q", dir))
	}

	start := time.Now()
	root, err := l.steps.FetchProcessStep(ctx, rootID)
	l.metrics.FetchObserved(OpFetchStep, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("load provenance of %s: %w", rootID, err)
	}

	steps := []domain.ProcessStep{root}
	visited := map[string]bool{root.ID: true}
	for _, refs := range refsOf {
		frontier := []domain.ProcessStep{root}
		for depth := 0; len(frontier) > 0; depth++ {
			if depth >= l.bounds.MaxDepth {
				if hasRefs(frontier, refs) {
					l.metrics.TraversalTruncated(OpLoad)
				}
				break
			}
			start := time.Now()
			found, err := source.FetchNeighbors(ctx, l.steps, frontier, refs, l.limits)
			l.metrics.FetchObserved(OpFetchNeighbors, time.Since(start), err)
			if err != nil {
				return nil, fmt.Errorf("load provenance of %s: %w", rootID, err)
			}

			var next []domain.ProcessStep
			for _, st := range found {
				if visited[st.ID] {
					continue
				}
				if len(steps) >= l.bounds.MaxNodes {
					l.metrics.TraversalTruncated(OpLoad)
					return steps, nil
				}
				visited[st.ID] = true
				steps = append(steps, st)
				next = append(next, st)
			}
			frontier = next
		}
	}
	return steps, nil
}

func hasRefs(steps []domain.ProcessStep, refs func(domain.ProcessStep) []domain.BatchRef) bool {
	for _, st := range steps {
		if len(refs(st)) > 0 {
			return true
		}
	}
	return false
}

func predecessors(st domain.ProcessStep) []domain.BatchRef { return st.Batch.Predecessors }
func successors(st domain.ProcessStep) []domain.BatchRef   { return st.Batch.Successors }
