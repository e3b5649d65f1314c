package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/h2prov/internal/bottling"
	"github.com/roach88/h2prov/internal/domain"
)

// BottleOptions holds flags for the bottle command.
type BottleOptions struct {
	*RootOptions
	Components []string
}

// NewBottleCommand creates the bottle command.
func NewBottleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BottleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bottle <storage-unit>",
		Short: "Fill a bottle from a storage unit's inventory",
		Long: `Fill one bottle with the requested amount of each RFNBO class.

Inventory is consumed oldest first. A stored batch larger than what is
still needed is split into a consumed part and an active remainder.
The command exits with status 1 when the storage unit holds too little.

Examples:
  h2prov bottle su-1 --component RFNBO_READY=12
  h2prov bottle su-1 --component RFNBO_READY=10 --component NON_CERTIFIABLE=2.5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBottle(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Components, "component", nil, "requested amount as CLASS=KG (repeatable, required)")
	_ = cmd.MarkFlagRequired("component")

	return cmd
}

func runBottle(opts *BottleOptions, storageUnitID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	components, err := parseComponents(opts.Components)
	if err != nil {
		return f.Fail(err)
	}

	s, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	svc := bottling.NewService(s.store, bottling.WithLogger(s.log), bottling.WithMetrics(s.metrics))
	result, err := svc.Bottle(context.Background(), storageUnitID, components)
	if err != nil {
		return f.Fail(err)
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	w := f.Writer
	fmt.Fprintf(w, "✓ Bottled %s kg (%s) as %s\n",
		formatFloat(result.Bottle.Batch.Amount), result.Bottle.Batch.RFNBO, result.Bottle.ID)
	for _, ref := range result.Bottle.Batch.Predecessors {
		fmt.Fprintf(w, "  from %s: %s kg\n", ref.ID, formatFloat(*ref.Amount))
	}
	for i, st := range result.Allocation.StepsToSplit {
		fmt.Fprintf(w, "  split %s: remainder %s kg in %s\n",
			st.ID,
			formatFloat(result.Allocation.StepsForRemainder[i].Batch.Amount),
			result.Allocation.StepsForRemainder[i].ID)
	}
	return nil
}

// parseComponents reads CLASS=KG pairs.
func parseComponents(values []string) ([]domain.HydrogenComponent, error) {
	components := make([]domain.HydrogenComponent, 0, len(values))
	for _, v := range values {
		class, amount, ok := strings.Cut(v, "=")
		if !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("component %q must be CLASS=KG", v))
		}
		rfnbo := domain.RFNBO(strings.ToUpper(strings.TrimSpace(class)))
		switch rfnbo {
		case domain.RFNBOReady, domain.NonCertifiable:
		default:
			return nil, domain.NewValidationError(fmt.Sprintf("unknown RFNBO class %q", class))
		}
		kg, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
		if err != nil || math.IsNaN(kg) || math.IsInf(kg, 0) {
			return nil, domain.NewValidationError(fmt.Sprintf("component %q: invalid amount", v))
		}
		components = append(components, domain.HydrogenComponent{RFNBO: rfnbo, Amount: kg})
	}
	return components, nil
}
