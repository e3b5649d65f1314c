package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/h2prov/internal/dataset"
)

// ImportResult is the output of the import command.
type ImportResult struct {
	Dataset  string `json:"dataset"`
	Database string `json:"database"`
	Steps    int    `json:"steps"`
	Units    int    `json:"units"`
	Links    int    `json:"links"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dataset>",
		Short: "Import units and process steps from a YAML or JSON dataset",
		Long: `Import production units, process steps and batch links into the database.

Records that already exist are left unchanged, so importing the same
dataset twice is a no-op.

Examples:
  h2prov import ./chain.yaml --db ./h2prov.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	ds, err := dataset.Load(path)
	if err != nil {
		return f.CommandError(ErrCodeDataset, "failed to load dataset", err)
	}
	f.VerboseLog("Loaded %d unit(s) and %d step(s) from %s", len(ds.Units), len(ds.Steps), path)

	s, err := openSession(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.store.Import(context.Background(), ds.Steps, ds.Units)
	if err != nil {
		return f.Fail(err)
	}
	s.log.Info("dataset imported", "dataset", path, "steps", stats.Steps, "units", stats.Units, "links", stats.Links)

	result := ImportResult{
		Dataset:  path,
		Database: opts.Database,
		Steps:    stats.Steps,
		Units:    stats.Units,
		Links:    stats.Links,
	}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ Imported %d step(s), %d unit(s), %d link(s) into %s\n",
		result.Steps, result.Units, result.Links, result.Database)
	return nil
}
