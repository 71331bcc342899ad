package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each piece label's QR code.
type LabelInfo struct {
	PieceID     string  `json:"piece"`
	Profile     string  `json:"profile"`
	Length      float64 `json:"length_mm"`
	StartAngle  float64 `json:"start_angle_deg,omitempty"`
	EndAngle    float64 `json:"end_angle_deg,omitempty"`
	BarIndex    int     `json:"bar"`
	StockLength float64 `json:"stock_mm"`
	Position    float64 `json:"position_mm"`
	Flipped     bool    `json:"flipped,omitempty"`
	SharedCut   bool    `json:"shared_cut,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectLabelInfos lists one label per placed piece, in bar order.
// Bars are numbered across all profiles starting at 1.
func CollectLabelInfos(job Job) []LabelInfo {
	pieces := job.pieceIndex()
	var labels []LabelInfo
	bar := 0
	for _, r := range job.Reports {
		for _, pattern := range r.CuttingPatterns {
			bar++
			for _, bp := range job.layoutBar(pattern, pieces) {
				info := LabelInfo{
					PieceID:     bp.PieceID,
					Profile:     r.ProfileName,
					Length:      bp.Length,
					BarIndex:    bar,
					StockLength: pattern.StockLength,
					Position:    bp.CutPosition,
					Flipped:     bp.Flipped,
					SharedCut:   bp.ComplementaryPair,
					StartAngle:  bp.StartAngle(),
					EndAngle:    bp.EndAngle(),
				}
				labels = append(labels, info)
			}
		}
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded labels, one per placed piece,
// on a standard label sheet (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportLabels(path string, job Job) error {
	if job.PatternCount() == 0 {
		return fmt.Errorf("no cutting patterns to generate labels for")
	}

	labels := CollectLabelInfos(job)
	if len(labels) == 0 {
		return fmt.Errorf("no pieces placed to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.PieceID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, seq int, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", seq)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	pieceID := info.PieceID
	if pdf.GetStringWidth(pieceID) > textW {
		for len(pieceID) > 0 && pdf.GetStringWidth(pieceID+"...") > textW {
			pieceID = pieceID[:len(pieceID)-1]
		}
		pieceID += "..."
	}
	pdf.CellFormat(textW, 4.5, pieceID, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%s  %.0f mm", info.Profile, info.Length)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	barInfo := fmt.Sprintf("Bar %d @ %.0f mm", info.BarIndex, info.Position)
	pdf.CellFormat(textW, 3, barInfo, "", 1, "L", false, 0, "")

	if info.StartAngle > 0 || info.EndAngle > 0 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		miter := fmt.Sprintf("Miter %.1f\xb0 / %.1f\xb0", info.StartAngle, info.EndAngle)
		pdf.CellFormat(textW, 3, miter, "", 0, "L", false, 0, "")
	}

	if info.SharedCut {
		pdf.SetXY(textX, y+labelPadding+16)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(0, 100, 150)
		pdf.CellFormat(textW, 3, "Shared cut", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)

	return nil
}
