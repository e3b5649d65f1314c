package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/h2prov/internal/emission"
	"github.com/roach88/h2prov/internal/source"
)

// NewEmissionsCommand creates the emissions command.
func NewEmissionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "emissions <step-id>",
		Short: "Calculate the greenhouse gas emissions of a step's hydrogen",
		Long: `Calculate the emissions of every step upstream of a step, per kg of hydrogen.

Each calculation states its basis. The totals are reported per topic,
per regulatory category, in g CO2 eq/MJ and as a reduction against the
fossil fuel comparator. Emission factors come from the config file.

Examples:
  h2prov emissions ps-trans
  h2prov emissions ps-trans --config ./h2prov.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmissions(rootOpts, args[0], cmd)
		},
	}
}

func runEmissions(opts *RootOptions, rootID string, cmd *cobra.Command) error {
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

	pipeline := emission.NewPipeline(s.store, s.cfg.Emission,
		emission.WithLimits(s.cfg.Fetch.Limits()),
		emission.WithTraversal(s.cfg.Traversal.Nearest.Options(), s.cfg.Traversal.FindAll.Options()))
	result, err := pipeline.Compute(ctx, p.Graph, p.Root.ID())
	if err != nil {
		return f.Fail(err)
	}
	s.log.Debug("emissions computed", "root", rootID, "calculations", len(result.Calculations))

	if f.Format == "json" {
		return f.Success(result)
	}

	w := f.Writer
	fmt.Fprintf(w, "Emissions of %s\n\n", p.Root.ID())
	fmt.Fprintln(w, "=== Calculations ===")
	if len(result.Calculations) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range result.Calculations {
		fmt.Fprintf(w, "  %s [%s]: %s %s\n", c.Label, c.ProcessStepID, formatFloat(c.Result), c.Unit)
		if opts.Verbose {
			fmt.Fprintf(w, "    %s\n", c.BasisOfCalculation)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Totals ===")
	for _, e := range result.ProcessStepEmissions {
		fmt.Fprintf(w, "  %-12s %-44s %s %s\n", e.EmissionType, e.Label, formatFloat(e.Amount), emission.Unit)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %s %s\n", formatFloat(result.Total()), emission.Unit)
	fmt.Fprintf(w, "Per MJ: %s g CO2 eq/MJ\n", formatFloat(result.AmountCO2PerMJH2))
	fmt.Fprintf(w, "Reduction: %s %%\n", formatFloat(result.EmissionReductionPercentage))
	return nil
}
