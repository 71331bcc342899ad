package export

import (
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/BarCut/internal/model"
)

// pieceColor represents an RGB color for a placed piece.
type pieceColor struct {
	R, G, B int
}

var pieceColors = []pieceColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	barHeight    = 9.0
	barPitch     = 22.0 // bar height plus caption lines
)

// ExportPDF generates a PDF with the bar diagrams of every profile,
// several bars per page, followed by a summary page.
func ExportPDF(path string, job Job) error {
	if job.PatternCount() == 0 {
		return fmt.Errorf("no cutting patterns to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pieces := job.pieceIndex()

	for _, report := range job.Reports {
		if len(report.CuttingPatterns) == 0 {
			continue
		}
		renderProfilePages(pdf, job, report, pieces)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, job)

	return pdf.OutputFileAndClose(path)
}

// barsPerPage is how many bar diagrams fit below the profile header.
func barsPerPage() int {
	avail := pageHeight - drawAreaTop - marginBottom
	n := int(avail / barPitch)
	if n < 1 {
		return 1
	}
	return n
}

// renderProfilePages draws the bars of one profile, starting a new page
// whenever the current one is full.
func renderProfilePages(pdf *fpdf.Fpdf, job Job, report model.NestingReport, pieces map[string]model.Piece) {
	longest := 0.0
	for _, p := range report.CuttingPatterns {
		if p.StockLength > longest {
			longest = p.StockLength
		}
	}
	drawWidth := pageWidth - marginLeft - marginRight
	scale := drawWidth / longest

	perPage := barsPerPage()

	for i, pattern := range report.CuttingPatterns {
		slot := i % perPage
		if slot == 0 {
			pdf.AddPage()
			renderProfileHeader(pdf, report, i/perPage+1)
		}
		y := drawAreaTop + float64(slot)*barPitch
		renderBar(pdf, job, pattern, pieces, i+1, scale, y)
	}
}

func renderProfileHeader(pdf *fpdf.Fpdf, report model.NestingReport, page int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Profile %s", report.ProfileName)
	if page > 1 {
		title += fmt.Sprintf(" (continued, page %d)", page)
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Bars: %d | Pieces: %d | Stock: %.0f mm | Waste: %.0f mm (%.1f%%)",
		len(report.CuttingPatterns), report.PlacedCount(), report.TotalStockLength,
		report.TotalWaste, report.TotalWastePercentage)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")
}

// renderBar draws one stock bar with its pieces. Mitered ends are drawn as
// slanted edges; pieces sharing a cut meet on a common slant.
func renderBar(pdf *fpdf.Fpdf, job Job, pattern model.CuttingPattern, pieces map[string]model.Piece, barNum int, scale, y float64) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	caption := fmt.Sprintf("Bar %d: %.0f mm | %d pieces | kerf %.1f mm | shared %.1f mm | waste %.0f mm (%.1f%%) | yield %.1f%%",
		barNum, pattern.StockLength, len(pattern.Parts), pattern.KerfTotal,
		pattern.SharedSavings, pattern.Waste, pattern.WastePercentage, pattern.Efficiency())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, caption, "", 0, "L", false, 0, "")

	top := y + 5
	bottom := top + barHeight

	// Stock bar background (steel grey)
	pdf.SetFillColor(200, 200, 205)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.3)
	pdf.Rect(marginLeft, top, pattern.StockLength*scale, barHeight, "FD")

	for i, bp := range job.layoutBar(pattern, pieces) {
		col := pieceColors[i%len(pieceColors)]
		x0 := marginLeft + bp.CutPosition*scale
		x1 := marginLeft + (bp.CutPosition+bp.Length)*scale
		sRun := bp.StartRun * scale
		eRun := bp.EndRun * scale

		startTop, startBottom := x0+sRun, x0
		if bp.StartInvert {
			startTop, startBottom = x0, x0+sRun
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		pdf.Polygon([]fpdf.PointType{
			{X: startTop, Y: top},
			{X: x1 - eRun, Y: top},
			{X: x1, Y: bottom},
			{X: startBottom, Y: bottom},
		}, "FD")

		w := x1 - x0
		if w > 12 {
			pdf.SetFont("Helvetica", "", 6)
			pdf.SetTextColor(0, 0, 0)
			label := bp.PieceID
			if lw := pdf.GetStringWidth(label); lw < w-sRun-eRun-1 {
				pdf.SetXY(x0+(w-lw)/2, top+1)
				pdf.CellFormat(lw, 3, label, "", 0, "C", false, 0, "")
			}
			dims := fmt.Sprintf("%.0f", bp.Length)
			if dw := pdf.GetStringWidth(dims); dw < w-sRun-eRun-1 {
				pdf.SetXY(x0+(w-dw)/2, top+4.5)
				pdf.CellFormat(dw, 3, dims, "", 0, "C", false, 0, "")
			}
		}
	}

	// Cut positions along the bottom edge
	pdf.SetFont("Helvetica", "", 5)
	pdf.SetTextColor(80, 80, 80)
	for _, pl := range pattern.Parts {
		mark := fmt.Sprintf("%.0f", pl.CutPosition)
		pdf.SetXY(marginLeft+pl.CutPosition*scale, bottom+0.5)
		pdf.CellFormat(pdf.GetStringWidth(mark)+1, 2.5, mark, "", 0, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, job Job) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cutting Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	t := sumReports(job.Reports)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Bars Used", fmt.Sprintf("%d", t.Bars)},
		{"Total Stock", fmt.Sprintf("%.2f m", t.Stock/1000)},
		{"Total Waste", fmt.Sprintf("%.2f m (%.1f%%)", t.Waste/1000, t.WastePct)},
		{"Shared Cut Savings", fmt.Sprintf("%.0f mm", t.Shared)},
		{"Pieces Placed", fmt.Sprintf("%d", t.Placed)},
		{"Rejected Pieces", fmt.Sprintf("%d", t.Rejected)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Profile Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{50, 25, 40, 40, 40, 30, 30}
	headers := []string{"Profile", "Bars", "Stock (mm)", "Used (mm)", "Waste (mm)", "Waste %", "Rejected"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, r := range job.Reports {
		xPos = marginLeft
		rowData := []string{
			r.ProfileName,
			fmt.Sprintf("%d", len(r.CuttingPatterns)),
			fmt.Sprintf("%.0f", r.TotalStockLength),
			fmt.Sprintf("%.0f", r.TotalUsedLength),
			fmt.Sprintf("%.0f", r.TotalWaste),
			fmt.Sprintf("%.1f%%", r.TotalWastePercentage),
			fmt.Sprintf("%d", len(r.RejectedParts)),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if t.Rejected > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Rejected Pieces", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, r := range job.Reports {
			for _, rej := range r.RejectedParts {
				if y > pageHeight-marginBottom-40 {
					break
				}
				pdf.SetXY(marginLeft+5, y)
				text := fmt.Sprintf("- %s (%s): %.0f mm - %s", rej.PieceID, r.ProfileName, rej.Length, rej.Reason)
				pdf.CellFormat(250, 5, text, "", 0, "L", false, 0, "")
				y += 5
			}
		}
	}

	y += 8
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Cut Settings", "", 0, "L", false, 0, "")
	y += 9

	s := job.Settings
	settingsItems := []struct {
		label string
		value string
	}{
		{"Algorithm", string(s.Algorithm)},
		{"Kerf Width", fmt.Sprintf("%.1f mm", s.KerfWidth)},
		{"Angle Tolerance", fmt.Sprintf("%.1f deg", s.AngleTolerance)},
		{"Min Miter Angle", fmt.Sprintf("%.1f deg", s.MinMiterAngle)},
		{"Shared Cuts", fmt.Sprintf("%t", s.EnablePairing)},
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range settingsItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, item.value, "", 0, "L", false, 0, "")
		y += 5
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by BarCut - Steel Bar Cutting Planner", "", 0, "C", false, 0, "")
}
