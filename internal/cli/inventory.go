package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

func newInventoryCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage the stock bar inventory",
		Long: `Show and edit the stock inventory: the mill lengths available per
profile, used by nest --inventory. The file is created with common
European lengths the first time it is read.

Examples:
  barcut inventory show
  barcut inventory add --profile IPE240 --lengths 6000,12000 --price 410
  barcut inventory import supplier.json --inventory stock.json`,
	}
	cmd.PersistentFlags().StringVar(&path, "inventory", "", "Inventory JSON (default ~/.barcut/inventory.json)")

	resolve := func() string {
		if path == "" {
			return project.DefaultInventoryPath()
		}
		return path
	}

	cmd.AddCommand(
		newInventoryShowCmd(resolve),
		newInventoryAddCmd(a, resolve),
		newInventoryImportCmd(a, resolve),
	)
	return cmd
}

func newInventoryShowCmd(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the stock presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(path())
			if err != nil {
				return err
			}
			printInventory(cmd.OutOrStdout(), inv)
			return nil
		},
	}
}

func newInventoryAddCmd(a *app, path func() string) *cobra.Command {
	var profile, lengths, supplier string
	var price float64
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add stock lengths for a profile",
		Long: `Add stock lengths for a profile. Lengths are merged into an existing
preset for the same profile; otherwise a new preset is created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := project.ParseLengths(lengths)
			if err != nil {
				return fmt.Errorf("--lengths: %w", err)
			}
			if strings.TrimSpace(profile) == "" {
				return fmt.Errorf("--profile must not be empty")
			}

			inv, err := project.LoadInventory(path())
			if err != nil {
				return err
			}
			preset := model.NewStockPreset(strings.TrimSpace(profile), ls...)
			preset.PricePerBar = price
			preset.Supplier = supplier
			inv = project.AddStockPreset(inv, preset)
			if err := project.SaveInventory(path(), inv); err != nil {
				return err
			}
			a.logger.Info("stock preset added", zap.String("profile", preset.Profile), zap.Float64s("lengths", ls))
			printInventory(cmd.OutOrStdout(), inv)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&profile, "profile", "", "Profile key, e.g. IPE240")
	f.StringVar(&lengths, "lengths", "", "Comma-separated stock lengths in mm")
	f.Float64Var(&price, "price", 0, "Price per bar")
	f.StringVar(&supplier, "supplier", "", "Supplier name")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("lengths")
	return cmd
}

func newInventoryImportCmd(a *app, path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge another inventory file into the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(path())
			if err != nil {
				return err
			}
			before := len(inv.Stocks)
			inv, err = project.ImportInventory(args[0], inv)
			if err != nil {
				return err
			}
			if err := project.SaveInventory(path(), inv); err != nil {
				return err
			}
			a.logger.Info("inventory imported",
				zap.String("file", args[0]),
				zap.Int("new_presets", len(inv.Stocks)-before),
			)
			printInventory(cmd.OutOrStdout(), inv)
			return nil
		},
	}
}

func printInventory(w io.Writer, inv model.Inventory) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROFILE\tLENGTHS (mm)\tPRICE\tSUPPLIER")
	for _, profile := range inv.Profiles() {
		s := inv.FindByProfile(profile)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", s.ID, s.Profile, formatLengths(s.Lengths), s.PricePerBar, s.Supplier)
	}
	fmt.Fprintf(tw, "-\t(default)\t%s\t\t\n", formatLengths(inv.Defaults))
	tw.Flush()
}

func formatLengths(lengths []float64) string {
	parts := make([]string, len(lengths))
	for i, l := range lengths {
		parts[i] = fmt.Sprintf("%.0f", l)
	}
	return strings.Join(parts, ",")
}
