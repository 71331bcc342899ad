package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/BarCut/internal/project"
)

type backupOptions struct {
	inventoryPath string
	reportsDir    string
}

func (o *backupOptions) inventory() string {
	if o.inventoryPath == "" {
		return project.DefaultInventoryPath()
	}
	return o.inventoryPath
}

func (o *backupOptions) reports() string {
	if o.reportsDir == "" {
		return project.DefaultReportsDir()
	}
	return o.reportsDir
}

func newBackupCmd(a *app) *cobra.Command {
	o := &backupOptions{}
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up or restore config, inventory and saved reports",
		Long: `Bundle the config file, the stock inventory and every saved report
into one JSON file, or restore them from one.

Examples:
  barcut backup export barcut-backup.json
  barcut backup restore barcut-backup.json --inventory stock.json`,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&o.inventoryPath, "inventory", "", "Inventory JSON (default ~/.barcut/inventory.json)")
	pf.StringVar(&o.reportsDir, "reports-dir", "", "Reports directory (default ~/.barcut/reports)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "export <file>",
			Short: "Write a backup file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runBackupExport(cmd, o, args[0])
			},
		},
		&cobra.Command{
			Use:   "restore <file>",
			Short: "Restore from a backup file",
			Long: `Restore the config, inventory and saved reports from a backup file.
The config and inventory are replaced; saved reports are added next to
the ones already present.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runBackupRestore(cmd, o, args[0])
			},
		},
	)
	return cmd
}

func (a *app) runBackupExport(cmd *cobra.Command, o *backupOptions, path string) error {
	// The stored config, not the one with environment overrides applied.
	config, err := project.LoadAppConfig(a.configPath)
	if err != nil {
		return err
	}
	inv, err := project.LoadInventory(o.inventory())
	if err != nil {
		return err
	}
	backup, err := project.WriteBackup(path, config, inv, o.reports())
	if err != nil {
		return err
	}
	a.logger.Info("backup written", zap.String("file", path), zap.Int("reports", len(backup.Reports)))
	fmt.Fprintf(cmd.OutOrStdout(), "Backed up config, %d stock presets and %d reports -> %s\n",
		len(backup.Inventory.Stocks), len(backup.Reports), path)
	return nil
}

func (a *app) runBackupRestore(cmd *cobra.Command, o *backupOptions, path string) error {
	backup, err := project.ReadBackup(path)
	if err != nil {
		return err
	}
	if err := project.RestoreBackup(backup, a.configPath, o.inventory(), o.reports()); err != nil {
		return err
	}
	a.logger.Info("backup restored", zap.String("file", path), zap.String("created", backup.CreatedAt))
	fmt.Fprintf(cmd.OutOrStdout(), "Restored config, %d stock presets and %d reports from %s\n",
		len(backup.Inventory.Stocks), len(backup.Reports), path)
	return nil
}
