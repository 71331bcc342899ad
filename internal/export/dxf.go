package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/BarCut/internal/model"
)

// DXF layer names.
const (
	LayerBars   = "BARS"
	LayerPieces = "PIECES"
	LayerText   = "TEXT"
)

// Drawing layout, in model millimeters.
const (
	dxfBarHeight  = 100.0
	dxfBarSpacing = 400.0
	dxfTextHeight = 40.0
)

// ExportDXF writes the bars as a full-scale saw drawing: each bar is an
// outline on the BARS layer, each piece boundary a line on PIECES (slanted
// for miters), and captions on TEXT. Bars are stacked downwards from the
// origin in report order.
func ExportDXF(path string, job Job) error {
	if job.PatternCount() == 0 {
		return fmt.Errorf("no cutting patterns to export")
	}

	d := dxf.NewDrawing()
	for _, name := range []string{LayerBars, LayerPieces, LayerText} {
		if _, err := d.AddLayer(name, dxf.DefaultColor, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("add layer %s: %w", name, err)
		}
	}

	pieces := job.pieceIndex()
	row := 0
	for _, r := range job.Reports {
		for i, pattern := range r.CuttingPatterns {
			y := -float64(row) * dxfBarSpacing
			caption := fmt.Sprintf("%s bar %d: %.0f mm, waste %.0f mm", r.ProfileName, i+1, pattern.StockLength, pattern.Waste)
			if err := drawDXFBar(d, job, pattern, pieces, y, caption); err != nil {
				return err
			}
			row++
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("save dxf: %w", err)
	}
	return nil
}

func drawDXFBar(d *drawing.Drawing, job Job, pattern model.CuttingPattern, pieces map[string]model.Piece, y float64, caption string) error {
	top := y + dxfBarHeight

	if err := d.ChangeLayer(LayerBars); err != nil {
		return err
	}
	outline := [][4]float64{
		{0, y, pattern.StockLength, y},
		{pattern.StockLength, y, pattern.StockLength, top},
		{pattern.StockLength, top, 0, top},
		{0, top, 0, y},
	}
	for _, l := range outline {
		if _, err := d.Line(l[0], l[1], 0, l[2], l[3], 0); err != nil {
			return fmt.Errorf("draw bar: %w", err)
		}
	}

	if err := d.ChangeLayer(LayerPieces); err != nil {
		return err
	}
	for _, bp := range job.layoutBar(pattern, pieces) {
		x0 := bp.CutPosition
		x1 := bp.CutPosition + bp.Length
		startTop, startBottom := x0+bp.StartRun, x0
		if bp.StartInvert {
			startTop, startBottom = x0, x0+bp.StartRun
		}
		edges := [][4]float64{
			{startBottom, y, startTop, top},
			{x1, y, x1 - bp.EndRun, top},
		}
		for _, e := range edges {
			if _, err := d.Line(e[0], e[1], 0, e[2], e[3], 0); err != nil {
				return fmt.Errorf("draw piece %s: %w", bp.PieceID, err)
			}
		}
	}

	if err := d.ChangeLayer(LayerText); err != nil {
		return err
	}
	if _, err := d.Text(caption, 0, top+dxfTextHeight/2, 0, dxfTextHeight); err != nil {
		return fmt.Errorf("draw caption: %w", err)
	}
	for _, pl := range pattern.Parts {
		label := fmt.Sprintf("%s %.0f", pl.PieceID, pl.Length)
		if _, err := d.Text(label, pl.CutPosition+dxfTextHeight/2, y+dxfBarHeight/2-dxfTextHeight/4, 0, dxfTextHeight/2); err != nil {
			return fmt.Errorf("draw label: %w", err)
		}
	}
	return nil
}
