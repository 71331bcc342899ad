package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the report workbook.
const (
	SheetSummary  = "Summary"
	SheetCutList  = "Cut List"
	SheetRejected = "Rejected"
	SheetRemnants = "Remnants"
)

// ExportXLSX writes the nesting results to an Excel workbook with a summary
// sheet, the cut list in saw order, rejected pieces and reusable remnants.
func ExportXLSX(path string, job Job) error {
	if len(job.Reports) == 0 {
		return fmt.Errorf("no reports to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetCutList, SheetRejected, SheetRemnants} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	writers := []func(*excelize.File, int, Job) error{
		writeSummarySheet,
		writeCutListSheet,
		writeRejectedSheet,
		writeRemnantsSheet,
	}
	for _, w := range writers {
		if err := w(f, header, job); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// writeRows writes a header row plus data rows starting at A1.
func writeRows(f *excelize.File, sheet string, header int, cols []string, rows [][]interface{}) error {
	head := make([]interface{}, len(cols))
	for i, c := range cols {
		head[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 16)
}

func writeSummarySheet(f *excelize.File, header int, job Job) error {
	cols := []string{"Profile", "Algorithm", "Bars", "Pieces", "Stock (mm)", "Used (mm)", "Waste (mm)", "Waste %", "Rejected"}
	var rows [][]interface{}
	for _, r := range job.Reports {
		rows = append(rows, []interface{}{
			r.ProfileName, string(r.Algorithm), len(r.CuttingPatterns), r.PlacedCount(),
			r.TotalStockLength, r.TotalUsedLength, r.TotalWaste,
			round2(r.TotalWastePercentage), len(r.RejectedParts),
		})
	}
	t := sumReports(job.Reports)
	rows = append(rows, []interface{}{
		"TOTAL", "", t.Bars, t.Placed, t.Stock, t.Used, t.Waste, round2(t.WastePct), t.Rejected,
	})
	return writeRows(f, SheetSummary, header, cols, rows)
}

func writeCutListSheet(f *excelize.File, header int, job Job) error {
	cols := []string{"Profile", "Bar", "Stock (mm)", "Piece", "Position (mm)", "Length (mm)", "Start Miter", "End Miter", "Flipped", "Shared Cut"}
	pieces := job.pieceIndex()
	var rows [][]interface{}
	bar := 0
	for _, r := range job.Reports {
		for _, pattern := range r.CuttingPatterns {
			bar++
			for _, bp := range job.layoutBar(pattern, pieces) {
				rows = append(rows, []interface{}{
					r.ProfileName, bar, pattern.StockLength, bp.PieceID,
					bp.CutPosition, bp.Length, round2(bp.StartAngle()), round2(bp.EndAngle()),
					yesNo(bp.Flipped), yesNo(bp.ComplementaryPair),
				})
			}
		}
	}
	return writeRows(f, SheetCutList, header, cols, rows)
}

func writeRejectedSheet(f *excelize.File, header int, job Job) error {
	cols := []string{"Profile", "Piece", "Length (mm)", "Longest Stock (mm)", "Reason"}
	var rows [][]interface{}
	for _, r := range job.Reports {
		for _, rej := range r.RejectedParts {
			rows = append(rows, []interface{}{r.ProfileName, rej.PieceID, rej.Length, rej.StockLength, rej.Reason})
		}
	}
	return writeRows(f, SheetRejected, header, cols, rows)
}

func writeRemnantsSheet(f *excelize.File, header int, job Job) error {
	cols := []string{"Profile", "Bar", "Position (mm)", "Length (mm)"}
	var rows [][]interface{}
	for _, rem := range job.Remnants() {
		rows = append(rows, []interface{}{rem.Profile, rem.PatternIndex + 1, rem.Position, rem.Length})
	}
	return writeRows(f, SheetRemnants, header, cols, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
