package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/export"
	"github.com/piwi3910/BarCut/internal/gcode"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

type nestOptions struct {
	input    pieceInput
	stock    stockInput
	settings settingsFlags

	out        string
	pdf        string
	xlsx       string
	dxf        string
	labels     string
	sawProgram string
	sawDialect string
	save       string
	reportsDir string
	keepRems   bool
}

func newNestCmd(a *app) *cobra.Command {
	o := &nestOptions{}
	cmd := &cobra.Command{
		Use:   "nest",
		Short: "Nest pieces onto stock bars",
		Long: `Group pieces by profile and pack each group onto stock bars.

Complementary miters are paired so that one saw cut serves two pieces;
square ends are placed flush. Pieces longer than every stock bar are
rejected and listed in the report.

Without --out the report JSON is written to stdout. Otherwise a summary
table is printed and the report goes to the named file.

Examples:
  # Nest extracted pieces on 6 m and 12 m bars
  barcut nest --pieces pieces.json --stock 6000,12000 --out report.json

  # Nest a spreadsheet cut list with per-profile stock and print a PDF
  barcut nest --list parts.xlsx --inventory stock.json --out report.json --pdf plan.pdf

  # Write a program for a LinuxCNC bar saw
  barcut nest --pieces pieces.json --stock 12000 --out report.json --gcode plan.ngc --saw-dialect LinuxCNC

  # Keep the reusable offcuts as stock for the next job
  barcut nest --list parts.csv --inventory stock.json --keep-remnants --out report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNest(cmd, o)
		},
	}

	o.input.register(cmd)
	o.stock.register(cmd)
	o.settings.register(cmd)

	f := cmd.Flags()
	f.StringVarP(&o.out, "out", "o", "", "Output report JSON (default: stdout)")
	f.StringVar(&o.pdf, "pdf", "", "Write a PDF cutting plan")
	f.StringVar(&o.xlsx, "xlsx", "", "Write an Excel workbook")
	f.StringVar(&o.dxf, "dxf", "", "Write a DXF saw drawing")
	f.StringVar(&o.labels, "labels", "", "Write a PDF sheet of QR piece labels")
	f.StringVar(&o.sawProgram, "gcode", "", "Write a CNC saw program")
	f.StringVar(&o.sawDialect, "saw-dialect", "", "Saw program dialect: "+strings.Join(model.SawDialectNames(), ", "))
	f.StringVar(&o.save, "save", "", "Save the run under this name in the reports directory")
	f.StringVar(&o.reportsDir, "reports-dir", "", "Reports directory (default ~/.barcut/reports)")
	f.BoolVar(&o.keepRems, "keep-remnants", false, "Add reusable offcuts to the --inventory file")
	return cmd
}

func (a *app) runNest(cmd *cobra.Command, o *nestOptions) error {
	settings := a.nestSettings()
	if err := o.settings.apply(cmd, &settings); err != nil {
		return err
	}
	if o.keepRems && o.stock.inventoryPath == "" {
		return fmt.Errorf("--keep-remnants needs --inventory")
	}
	if o.sawDialect != "" && model.GetSawDialect(o.sawDialect).Name != o.sawDialect {
		return fmt.Errorf("unknown saw dialect %q (want %s)", o.sawDialect, strings.Join(model.SawDialectNames(), ", "))
	}

	pieces, err := o.input.load(a.logger)
	if err != nil {
		return err
	}
	catalog, inv, err := o.stock.catalog(a.config)
	if err != nil {
		return err
	}

	a.logger.Info("nesting pieces",
		zap.Int("pieces", len(pieces)),
		zap.String("algorithm", string(settings.Algorithm)),
		zap.Float64("kerf", settings.KerfWidth),
	)
	opt := engine.New(settings, engine.WithLogger(a.logger), engine.WithMetrics(a.metrics))
	reports, err := opt.Optimize(cmd.Context(), pieces, catalog)
	if err != nil {
		return err
	}

	job := export.Job{Reports: reports, Pieces: pieces, Settings: settings}
	if err := writeExports(job, o); err != nil {
		return err
	}
	if o.sawProgram != "" {
		if err := a.writeSawProgram(job, o); err != nil {
			return err
		}
	}

	if o.save != "" {
		if err := a.saveRun(cmd.OutOrStdout(), o, settings, reports); err != nil {
			return err
		}
	}

	if o.keepRems {
		remnants := job.Remnants()
		updated := project.AddRemnants(*inv, remnants)
		if err := project.SaveInventory(o.stock.inventoryPath, updated); err != nil {
			return err
		}
		a.logger.Info("remnants added to inventory",
			zap.Int("remnants", len(remnants)),
			zap.Float64("length", model.TotalRemnantLength(remnants)),
			zap.String("inventory", o.stock.inventoryPath),
		)
	}

	if o.out == "" {
		return export.WriteJSON(cmd.OutOrStdout(), reports)
	}
	if err := export.ExportJSON(o.out, reports); err != nil {
		return err
	}
	printNestSummary(cmd.OutOrStdout(), reports)
	return nil
}

// writeExports writes every report file that was asked for.
func writeExports(job export.Job, o *nestOptions) error {
	outputs := []struct {
		path  string
		write func(string, export.Job) error
	}{
		{o.pdf, export.ExportPDF},
		{o.xlsx, export.ExportXLSX},
		{o.dxf, export.ExportDXF},
		{o.labels, export.ExportLabels},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := out.write(out.path, job); err != nil {
			return fmt.Errorf("export %s: %w", filepath.Base(out.path), err)
		}
	}
	return nil
}

// writeSawProgram writes the saw program and logs every problem found when
// replaying it against the planned bars.
func (a *app) writeSawProgram(job export.Job, o *nestOptions) error {
	settings := a.config.Saw
	if o.sawDialect != "" {
		settings.Dialect = o.sawDialect
	}
	issues, err := gcode.New(settings).Export(o.sawProgram, job)
	if err != nil {
		return fmt.Errorf("export %s: %w", filepath.Base(o.sawProgram), err)
	}
	for _, issue := range issues {
		a.logger.Warn("saw program issue",
			zap.Int("bar", issue.Bar),
			zap.Float64("x", issue.X),
			zap.Float64("angle", issue.Angle),
			zap.String("detail", issue.Message),
		)
	}
	return nil
}

// saveRun stores the run in the reports directory and records it in the
// config file's recent list. Environment overrides are not persisted.
func (a *app) saveRun(w io.Writer, o *nestOptions, settings model.NestSettings, reports []model.NestingReport) error {
	dir := o.reportsDir
	if dir == "" {
		dir = project.DefaultReportsDir()
	}
	path, err := project.SaveReport(dir, o.save, settings, reports)
	if err != nil {
		return err
	}

	stored, err := project.LoadAppConfig(a.configPath)
	if err != nil {
		return err
	}
	project.AddRecentReport(&stored, path)
	if err := project.SaveAppConfig(a.configPath, stored); err != nil {
		return err
	}
	fmt.Fprintf(w, "Saved report %q -> %s\n", o.save, path)
	return nil
}

func printNestSummary(w io.Writer, reports []model.NestingReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tALGORITHM\tBARS\tPIECES\tSTOCK (mm)\tWASTE (mm)\tWASTE %\tREJECTED")
	var bars, placed, rejected int
	var stock, waste float64
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.0f\t%.0f\t%.1f\t%d\n",
			r.ProfileName, r.Algorithm, len(r.CuttingPatterns), r.PlacedCount(),
			r.TotalStockLength, r.TotalWaste, r.TotalWastePercentage, len(r.RejectedParts))
		bars += len(r.CuttingPatterns)
		placed += r.PlacedCount()
		rejected += len(r.RejectedParts)
		stock += r.TotalStockLength
		waste += r.TotalWaste
	}
	pct := 0.0
	if stock > 0 {
		pct = waste / stock * 100
	}
	fmt.Fprintf(tw, "TOTAL\t\t%d\t%d\t%.0f\t%.0f\t%.1f\t%d\n", bars, placed, stock, waste, pct, rejected)
	tw.Flush()

	for _, r := range reports {
		for _, rej := range r.RejectedParts {
			fmt.Fprintf(w, "  rejected %s %s (%.0f mm): %s\n", r.ProfileName, rej.PieceID, rej.Length, strings.TrimSpace(rej.Reason))
		}
	}
}
