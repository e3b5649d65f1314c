package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/h2prov/internal/origin"
	"github.com/roach88/h2prov/internal/source"
)

// NewOriginCommand creates the origin command.
func NewOriginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "origin <step-id>",
		Short: "Show where the contents of a step came from",
		Long: `Group everything upstream of a step by step type and classification.

Power is classified by the energy source of its production unit, water as
WATER and hydrogen by its RFNBO status.

Examples:
  h2prov origin ps-bottle
  h2prov origin ps-bottle --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrigin(rootOpts, args[0], cmd)
		},
	}
}

func runOrigin(opts *RootOptions, rootID string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	s, err := openSession(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	p, err := s.load(ctx, rootID, source.DirectionUpstream)
	if err != nil {
		return f.Fail(err)
	}

	doc, err := origin.NewBuilder(s.store, s.cfg.Fetch.Limits(), s.cfg.Traversal.FindAll.Options()).
		Build(ctx, p.Graph, p.Root.ID())
	if err != nil {
		return f.Fail(err)
	}

	if f.Format == "json" {
		return f.Success(doc)
	}

	w := f.Writer
	fmt.Fprintf(w, "Origin of %s\n", doc.RootProcessStepID)
	for _, sec := range doc.Sections {
		fmt.Fprintf(w, "\n=== %s: %s %s ===\n", sec.ProcessStepType, formatFloat(sec.Amount), sec.Unit)
		for _, c := range sec.Classifications {
			fmt.Fprintf(w, "  %s: %s %s\n", c.Name, formatFloat(c.Amount), c.Unit)
			if !opts.Verbose {
				continue
			}
			for _, b := range c.Batches {
				fmt.Fprintf(w, "    %s (%s) %s %s at %s\n",
					b.BatchID, b.ProcessStepID, formatFloat(b.Amount), c.Unit,
					b.StartedAt.UTC().Format(time.RFC3339))
			}
		}
	}
	return nil
}
