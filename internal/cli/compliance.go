package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/h2prov/internal/compliance"
	"github.com/roach88/h2prov/internal/source"
)

// ComplianceOptions holds flags for the compliance command.
type ComplianceOptions struct {
	*RootOptions
	Hydrogen []string
}

// ComplianceResult is the output of the compliance command.
type ComplianceResult struct {
	Root string `json:"root"`
	compliance.RedCompliance
	Compliant bool `json:"compliant"`
}

// NewComplianceCommand creates the compliance command.
func NewComplianceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComplianceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compliance <step-id>",
		Short: "Check the RED criteria for the hydrogen upstream of a step",
		Long: `Check geographic correlation, temporal correlation, additionality and
absence of financial support for every hydrogen production upstream of a
step, paired with its nearest power production.

The command exits with status 1 when any criterion fails.

Examples:
  h2prov compliance ps-bottle
  h2prov compliance ps-bottle --hydrogen ps-h2-a,ps-h2-b --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompliance(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Hydrogen, "hydrogen", nil, "restrict the check to these hydrogen production steps")

	return cmd
}

func runCompliance(opts *ComplianceOptions, rootID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	p, err := s.load(ctx, rootID, source.DirectionUpstream)
	if err != nil {
		return f.Fail(err)
	}

	evaluator := compliance.NewEvaluator(s.store, s.cfg.Compliance.BiddingZones,
		compliance.WithLimits(s.cfg.Fetch.Limits()),
		compliance.WithNearestOptions(s.cfg.Traversal.Nearest.Options()))

	var red compliance.RedCompliance
	if len(opts.Hydrogen) > 0 {
		red, err = evaluator.CheckHydrogen(ctx, p.Graph, opts.Hydrogen)
	} else {
		red, err = evaluator.Check(ctx, p.Graph)
	}
	if err != nil {
		return f.Fail(err)
	}

	result := ComplianceResult{Root: p.Root.ID(), RedCompliance: red, Compliant: red.Compliant()}
	s.log.Info("compliance checked", "root", result.Root, "compliant", result.Compliant)

	if f.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		w := f.Writer
		fmt.Fprintf(w, "RED compliance of %s\n", result.Root)
		fmt.Fprintf(w, "  %s Geographic correlation\n", mark(red.IsGeoCorrelationValid))
		fmt.Fprintf(w, "  %s Temporal correlation\n", mark(red.IsTimeCorrelationValid))
		fmt.Fprintf(w, "  %s Additionality\n", mark(red.IsAdditionalityFulfilled))
		fmt.Fprintf(w, "  %s No financial support\n", mark(red.IsFinancialSupportAbsent))
	}

	if !result.Compliant {
		return NewExitError(ExitFailure, fmt.Sprintf("%s is not RED compliant", result.Root))
	}
	return nil
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
