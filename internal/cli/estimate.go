package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/BarCut/internal/model"
)

type estimateOptions struct {
	input     pieceInput
	stock     stockInput
	barLength float64
	waste     float64
	price     float64
	kerf      float64
}

func newEstimateCmd(a *app) *cobra.Command {
	o := &estimateOptions{}
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate how many bars to buy",
		Long: `Estimate the bars to order for each profile from total piece length,
without nesting. Each piece costs its length plus one kerf; the waste
factor covers the offcuts a real nesting will leave.

The bar length per profile is the longest stock length available for it
unless --bar-length is given. Prices come from the inventory preset of
the profile, or --price.

Examples:
  barcut estimate --list parts.csv --stock 12000 --waste 10
  barcut estimate --pieces pieces.json --inventory stock.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEstimate(cmd, o)
		},
	}
	o.input.register(cmd)
	o.stock.register(cmd)

	f := cmd.Flags()
	f.Float64Var(&o.barLength, "bar-length", 0, "Bar length in mm for every profile")
	f.Float64VarP(&o.waste, "waste", "w", 10, "Waste factor in percent")
	f.Float64Var(&o.price, "price", 0, "Price per bar for profiles without an inventory price")
	f.Float64VarP(&o.kerf, "kerf", "k", 0, "Saw kerf width (mm)")
	return cmd
}

func (a *app) runEstimate(cmd *cobra.Command, o *estimateOptions) error {
	if o.waste < 0 || o.barLength < 0 || o.price < 0 {
		return fmt.Errorf("--waste, --bar-length and --price must not be negative")
	}
	kerf := a.nestSettings().KerfWidth
	if cmd.Flags().Changed("kerf") {
		if o.kerf < 0 {
			return fmt.Errorf("--kerf must not be negative")
		}
		kerf = o.kerf
	}

	pieces, err := o.input.load(a.logger)
	if err != nil {
		return err
	}
	catalog, inv, err := o.stock.catalog(a.config)
	if err != nil {
		return err
	}

	groups := model.GroupByProfile(pieces)
	profiles := make([]string, 0, len(groups))
	for p := range groups {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)

	estimates := make([]model.PurchaseEstimate, 0, len(profiles))
	for _, profile := range profiles {
		length := o.barLength
		if length == 0 {
			for _, l := range catalog.LengthsFor(profile) {
				length = max(length, l)
			}
		}
		price := o.price
		if inv != nil {
			if preset := inv.FindByProfile(profile); preset != nil && preset.PricePerBar > 0 {
				price = preset.PricePerBar
			}
		}
		est := model.CalculatePurchaseEstimate(groups[profile], length, kerf, o.waste, price)
		est.Profile = profile
		estimates = append(estimates, est)
	}

	printEstimates(cmd.OutOrStdout(), estimates)
	return nil
}

func printEstimates(w io.Writer, estimates []model.PurchaseEstimate) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tTOTAL (m)\tBAR (mm)\tEXACT\tMIN\tORDER\tCOST\tOVERSIZE")
	var bars int
	var cost float64
	for _, e := range estimates {
		fmt.Fprintf(tw, "%s\t%.2f\t%.0f\t%.2f\t%d\t%d\t%.2f\t%d\n",
			e.Profile, e.TotalMeters, e.StockLength, e.BarsNeededExact,
			e.BarsNeededMin, e.BarsWithWaste, e.EstimatedCost, e.Oversize)
		bars += e.BarsWithWaste
		cost += e.EstimatedCost
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t\t%d\t%.2f\t\n", bars, cost)
	tw.Flush()
}
