// Package export renders nesting results to report files: JSON, PDF bar
// diagrams, QR-coded piece labels, an Excel workbook and a DXF drawing.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/piwi3910/BarCut/internal/model"
)

// Job bundles what the exporters draw: the per-profile reports, the pieces
// they were nested from (for miter angles and depths) and the settings used.
type Job struct {
	Reports  []model.NestingReport
	Pieces   []model.Piece
	Settings model.NestSettings
}

func (j Job) pieceIndex() map[string]model.Piece {
	idx := make(map[string]model.Piece, len(j.Pieces))
	for _, p := range j.Pieces {
		idx[p.ID] = p
	}
	return idx
}

// PatternCount returns the number of bars across all reports.
func (j Job) PatternCount() int {
	n := 0
	for _, r := range j.Reports {
		n += len(r.CuttingPatterns)
	}
	return n
}

// Remnants lists the reusable bar ends of every report, longest first
// within each profile.
func (j Job) Remnants() []model.Remnant {
	var out []model.Remnant
	for _, r := range j.Reports {
		out = append(out, model.DetectRemnants(r, j.Settings.KerfWidth, j.Settings.MinRemnantLength, 0)...)
	}
	return out
}

// BarPiece is one placement with the miter runs needed to draw or saw it.
type BarPiece struct {
	model.Placement
	Piece       model.Piece // oriented as placed on the bar
	StartRun    float64     // miter run along the bar at the start, mm
	EndRun      float64     // miter run along the bar at the end, mm
	StartInvert bool        // start edge mates the previous piece's end cut
	Depth       float64     // section depth used for the miter runs, mm
}

// miterRun returns the length along the bar covered by a cut across a
// section of the given depth, or 0 for a square cut.
func (j Job) miterRun(cut *model.EndCut, depth, length float64) float64 {
	if cut == nil || cut.Confidence < j.Settings.ConfidenceThreshold || cut.AngleDeg < j.Settings.MinMiterAngle {
		return 0
	}
	run := depth * math.Tan(cut.AngleDeg*math.Pi/180)
	return math.Min(run, length/2)
}

func (j Job) depthOf(p model.Piece) float64 {
	if p.ProfileDepth > 0 {
		return p.ProfileDepth
	}
	if d, ok := model.ParseProfileDepth(p.ProfileKey); ok {
		return d
	}
	return j.Settings.DefaultProfileDepth
}

// Layout returns the placements of one pattern in bar order, resolved to
// their placed pieces and miter runs.
func (j Job) Layout(p model.CuttingPattern) []BarPiece {
	return j.layoutBar(p, j.pieceIndex())
}

// StartAngle returns the start miter angle in degrees, 0 for a square cut.
func (bp BarPiece) StartAngle() float64 {
	if bp.StartRun > 0 && bp.Piece.EndCuts.Start != nil {
		return bp.Piece.EndCuts.Start.AngleDeg
	}
	return 0
}

// EndAngle returns the end miter angle in degrees, 0 for a square cut.
func (bp BarPiece) EndAngle() float64 {
	if bp.EndRun > 0 && bp.Piece.EndCuts.End != nil {
		return bp.Piece.EndCuts.End.AngleDeg
	}
	return 0
}

// layoutBar resolves each placement of a pattern to its placed piece and
// miter geometry. Unknown piece IDs are drawn square.
func (j Job) layoutBar(p model.CuttingPattern, pieces map[string]model.Piece) []BarPiece {
	out := make([]BarPiece, 0, len(p.Parts))
	prevEnd := 0.0
	prevEndRun := 0.0
	for i, pl := range p.Parts {
		piece, ok := pieces[pl.PieceID]
		if !ok {
			piece = model.Piece{ID: pl.PieceID, Length: pl.Length}
		}
		if pl.Flipped {
			piece = piece.Flipped()
		}
		depth := j.depthOf(piece)
		bp := BarPiece{
			Placement: pl,
			Piece:     piece,
			StartRun:  j.miterRun(piece.EndCuts.Start, depth, pl.Length),
			EndRun:    j.miterRun(piece.EndCuts.End, depth, pl.Length),
			Depth:     depth,
		}
		if i > 0 && pl.CutPosition < prevEnd-1e-6 && prevEndRun > 0 {
			bp.StartInvert = true
		}
		out = append(out, bp)
		prevEnd = pl.CutPosition + pl.Length
		prevEndRun = bp.EndRun
	}
	return out
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ExportJSON writes v as indented JSON to path.
func ExportJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// totals sums the report aggregates.
type totals struct {
	Bars       int
	Stock      float64
	Used       float64
	Waste      float64
	Shared     float64
	Placed     int
	Rejected   int
	WastePct   float64
	Efficiency float64
}

func sumReports(reports []model.NestingReport) totals {
	var t totals
	for _, r := range reports {
		t.Bars += len(r.CuttingPatterns)
		t.Stock += r.TotalStockLength
		t.Used += r.TotalUsedLength
		t.Waste += r.TotalWaste
		t.Placed += r.PlacedCount()
		t.Rejected += len(r.RejectedParts)
		for _, p := range r.CuttingPatterns {
			t.Shared += p.SharedSavings
		}
	}
	if t.Stock > 0 {
		t.WastePct = t.Waste / t.Stock * 100
		t.Efficiency = 100 - t.WastePct
	}
	return t
}
