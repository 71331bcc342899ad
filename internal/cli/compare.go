package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/BarCut/internal/engine"
)

type compareOptions struct {
	input    pieceInput
	stock    stockInput
	settings settingsFlags
}

func newCompareCmd(a *app) *cobra.Command {
	o := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare nesting scenarios side by side",
		Long: `Nest the same pieces under several what-if settings and print the
bar count, waste and saw-cut savings of each.

Scenarios: the current settings, the other algorithm, half the kerf
width, and nesting without shared miter cuts.

Examples:
  barcut compare --pieces pieces.json --stock 6000,12000
  barcut compare --list parts.csv --inventory stock.json --algorithm genetic`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(cmd, o)
		},
	}
	o.input.register(cmd)
	o.stock.register(cmd)
	o.settings.register(cmd)
	return cmd
}

func (a *app) runCompare(cmd *cobra.Command, o *compareOptions) error {
	settings := a.nestSettings()
	if err := o.settings.apply(cmd, &settings); err != nil {
		return err
	}
	pieces, err := o.input.load(a.logger)
	if err != nil {
		return err
	}
	catalog, _, err := o.stock.catalog(a.config)
	if err != nil {
		return err
	}

	results, err := engine.CompareScenarios(cmd.Context(), engine.BuildDefaultScenarios(settings), pieces, catalog,
		engine.WithLogger(a.logger),
		engine.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}
	printComparison(cmd.OutOrStdout(), results)
	return nil
}

func printComparison(w io.Writer, results []engine.ComparisonResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tBARS\tSTOCK (mm)\tWASTE (mm)\tWASTE %\tSHARED (mm)\tREJECTED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%.0f\t%.0f\t%.1f\t%.0f\t%d\n",
			r.Scenario.Name, r.BarsUsed, r.TotalStockLength, r.TotalWaste,
			r.WastePercent, r.SharedSavings, r.RejectedCount)
	}
	tw.Flush()
}
