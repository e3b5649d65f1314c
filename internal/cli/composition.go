package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/h2prov/internal/domain"
	"github.com/roach88/h2prov/internal/source"
)

// CompositionResult is the output of the composition command.
type CompositionResult struct {
	ProcessStepID string                     `json:"process_step_id"`
	Components    []domain.HydrogenComponent `json:"components"`
}

// NewCompositionCommand creates the composition command.
func NewCompositionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "composition <step-id>",
		Short: "Show the RFNBO classes held by a hydrogen step",
		Long: `Show how much hydrogen of each RFNBO class a step holds.

Examples:
  h2prov composition ps-bottle`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComposition(rootOpts, args[0], cmd)
		},
	}
}

func runComposition(opts *RootOptions, stepID string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	s, err := openSession(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	stepID = domain.NormalizeID(stepID)
	components, err := readComposition(context.Background(), s.store, stepID)
	if err != nil {
		return f.Fail(err)
	}

	result := CompositionResult{ProcessStepID: stepID, Components: components}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Composition of %s\n", stepID)
	for _, c := range components {
		fmt.Fprintf(f.Writer, "  %-16s %s kg\n", c.RFNBO, formatFloat(c.Amount))
	}
	return nil
}

func readComposition(ctx context.Context, src source.CompositionFetcher, stepID string) ([]domain.HydrogenComponent, error) {
	if stepID == "" {
		return nil, domain.NewValidationError("process step id is required")
	}
	components, err := src.FetchHydrogenComposition(ctx, stepID)
	if err != nil {
		return nil, fmt.Errorf("composition of %s: %w", stepID, err)
	}
	return components, nil
}
