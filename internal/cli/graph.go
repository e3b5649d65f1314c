package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/provgraph"
	"github.com/roach88/h2prov/internal/source"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Direction string
	MaxDepth  int
	MaxNodes  int
}

// GraphResult is the output of the graph command.
type GraphResult struct {
	Root          string                       `json:"root"`
	Direction     source.Direction             `json:"direction"`
	Nodes         []domain.ProcessStep         `json:"nodes"`
	Edges         []provgraph.Edge             `json:"edges"`
	Cycles        []provgraph.CycleWarning     `json:"cycles"`
	Contributions []domain.ContributionWarning `json:"contribution_warnings"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <step-id>",
		Short: "Show the provenance graph around a process step",
		Long: `Show the process steps linked to a step and the edges between them.

Cycles and batches whose predecessors contribute more than they hold are
reported as warnings.

Examples:
  h2prov graph ps-bottle --direction up
  h2prov graph ps-h2 --direction both --max-depth 3 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Direction, "direction", "up", "traversal direction (up|down|both)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum link distance (0 uses config)")
	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "maximum number of steps (0 uses config)")

	return cmd
}

func runGraph(opts *GraphOptions, rootID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	dir, err := source.ParseDirection(opts.Direction)
	if err != nil {
		return f.Fail(err)
	}

	s, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	bounds := s.cfg.Traversal.FindAll
	if opts.MaxDepth > 0 {
		bounds.MaxDepth = opts.MaxDepth
	}
	if opts.MaxNodes > 0 {
		bounds.MaxNodes = opts.MaxNodes
	}

	p, err := s.loader(bounds).Load(context.Background(), rootID, dir)
	if err != nil {
		return f.Fail(err)
	}

	result := GraphResult{
		Root:          p.Root.ID(),
		Direction:     dir,
		Nodes:         p.Graph.Steps(),
		Edges:         p.Graph.Edges(),
		Cycles:        p.Cycles,
		Contributions: p.Contributions,
	}
	if f.Format == "json" {
		return f.Success(result)
	}
	return outputGraphText(f.Writer, result)
}

func outputGraphText(w io.Writer, result GraphResult) error {
	fmt.Fprintf(w, "Provenance of %s (%s)\n\n", result.Root, result.Direction)

	fmt.Fprintln(w, "=== Steps ===")
	for _, st := range result.Nodes {
		writeStep(w, st)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Edges ===")
	if len(result.Edges) == 0 {
		fmt.Fprintln(w, "  (no edges)")
	}
	for _, e := range result.Edges {
		fmt.Fprintf(w, "  %s → %s", e.From, e.To)
		if e.AllocationRatio != nil {
			fmt.Fprintf(w, " (ratio %s)", formatFloat(*e.AllocationRatio))
		}
		fmt.Fprintln(w)
	}

	if len(result.Cycles) > 0 || len(result.Contributions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Warnings ===")
		for _, c := range result.Cycles {
			fmt.Fprintf(w, "  ⚠ %s\n", c.Message)
		}
		for _, c := range result.Contributions {
			fmt.Fprintf(w, "  ⚠ %s\n", c.Message)
		}
	}
	return nil
}

// writeStep prints one step on a line.
func writeStep(w io.Writer, st domain.ProcessStep) {
	fmt.Fprintf(w, "  %-24s %-24s %s %s  by %s  at %s",
		st.ID, st.Type, formatFloat(st.Batch.Amount), domain.UnitOf(st.Batch.Type),
		st.ExecutedBy, st.StartedAt.UTC().Format(time.RFC3339))
	if st.Batch.RFNBO != "" {
		fmt.Fprintf(w, "  %s", st.Batch.RFNBO)
	}
	if !st.Batch.Active {
		fmt.Fprint(w, "  (inactive)")
	}
	fmt.Fprintln(w)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// toGraphDirection maps a single direction onto the in-memory graph.
func toGraphDirection(dir source.Direction) (provgraph.Direction, error) {
	switch dir {
	case source.DirectionUpstream:
		return provgraph.Upstream, nil
	case source.DirectionDownstream:
		return provgraph.Downstream, nil
	default:
		return 0, domain.NewValidationError(fmt.Sprintf("direction %q is not supported here; use up or down", dir))
	}
}

// NearestOptions holds flags for the nearest command.
type NearestOptions struct {
	*RootOptions
	Direction string
}

// NewNearestCommand creates the nearest command.
func NewNearestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NearestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "nearest <step-id> <step-type>",
		Short: "Find the closest step of a type upstream or downstream",
		Long: `Find the process step of the given type with the fewest links to a step.

Examples:
  h2prov nearest ps-bottle HYDROGEN_PRODUCTION
  h2prov nearest ps-power hydrogen_bottling --direction down`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNearest(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Direction, "direction", "up", "search direction (up|down)")

	return cmd
}

func runNearest(opts *NearestOptions, rootID, typeArg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	stepType, err := parseStepType(typeArg)
	if err != nil {
		return f.Fail(err)
	}
	dir, err := source.ParseDirection(opts.Direction)
	if err != nil {
		return f.Fail(err)
	}
	graphDir, err := toGraphDirection(dir)
	if err != nil {
		return f.Fail(err)
	}

	s, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.load(context.Background(), rootID, dir)
	if err != nil {
		return f.Fail(err)
	}

	node, ok := p.Graph.NearestOfType(p.Root, stepType, graphDir, s.cfg.Traversal.Nearest.Options())
	if !ok {
		return f.Fail(domain.NewNotFoundError(
			fmt.Sprintf("%s step %s of %s", stepType, dir, p.Root.ID()), p.Root.ID()))
	}

	if f.Format == "json" {
		return f.Success(node.Step)
	}
	writeStep(f.Writer, node.Step)
	return nil
}
