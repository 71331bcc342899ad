// Package gcode writes and checks programs for CNC bar saws. A program
// feeds each bar along X, swivels the saw head on A for miters and strokes
// the blade on Z.
package gcode

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/piwi3910/BarCut/internal/export"
	"github.com/piwi3910/BarCut/internal/model"
)

const positionEpsilon = 1e-6

// Cut is one saw stroke.
type Cut struct {
	X     float64 // Cut position on the bottom face, mm from the bar start
	Angle float64 // Head swivel in degrees; positive leans the top toward the bar end
	Depth float64 // Section depth, mm
	Label string
}

// BarCuts lists the strokes needed to cut one bar, in feed order. A shared
// miter and a square cut separating two square ends take one stroke each;
// a square start on the mill end and a square end on the far mill end
// need none.
func BarCuts(pattern model.CuttingPattern, bars []export.BarPiece, kerf float64) []Cut {
	var cuts []Cut
	prevEnd := 0.0
	prevEndAngle := 0.0
	for i, bp := range bars {
		start := bp.CutPosition
		startAngle := bp.StartAngle()

		switch {
		case i == 0 && start <= positionEpsilon && startAngle == 0:
		case bp.StartInvert:
		case i > 0 && startAngle == 0 && prevEndAngle == 0 && start-prevEnd <= kerf+positionEpsilon:
		default:
			cuts = append(cuts, Cut{X: start, Angle: startAngle, Depth: bp.Depth, Label: "start " + bp.PieceID})
		}

		end := start + bp.Length
		endAngle := bp.EndAngle()
		if endAngle != 0 || end < pattern.StockLength-positionEpsilon {
			cuts = append(cuts, Cut{X: end, Angle: -endAngle, Depth: bp.Depth, Label: "end " + bp.PieceID})
		}
		prevEnd, prevEndAngle = end, endAngle
	}
	return cuts
}

// Generator produces saw programs from nesting results.
type Generator struct {
	Settings model.SawSettings
	dialect  model.SawDialect
}

func New(settings model.SawSettings) *Generator {
	return &Generator{
		Settings: settings,
		dialect:  model.GetSawDialect(settings.Dialect),
	}
}

// Generate produces one program for every bar of the job. The controller
// pauses before each bar so the operator can load it with its start
// against the X zero stop.
func (g *Generator) Generate(job export.Job) string {
	var b strings.Builder

	total := job.PatternCount()
	g.writeHeader(&b, total, job.Settings.KerfWidth)

	bar := 0
	for _, r := range job.Reports {
		for _, pattern := range r.CuttingPatterns {
			bar++
			g.writeBar(&b, r.ProfileName, pattern, job.Layout(pattern), job.Settings.KerfWidth, bar, total)
		}
	}

	g.writeFooter(&b)
	return b.String()
}

// Export writes the program for job to path and returns the issues found
// by replaying it.
func (g *Generator) Export(path string, job export.Job) ([]Issue, error) {
	if job.PatternCount() == 0 {
		return nil, fmt.Errorf("no cutting patterns to export")
	}
	program := g.Generate(job)
	if err := os.WriteFile(path, []byte(program), 0644); err != nil {
		return nil, fmt.Errorf("write saw program: %w", err)
	}
	return CheckProgram(ParseProgram(program), StockLengths(job.Reports), g.Settings), nil
}

// GenerateBar produces a standalone program for a single bar.
func (g *Generator) GenerateBar(profile string, pattern model.CuttingPattern, bars []export.BarPiece, kerf float64) string {
	var b strings.Builder
	g.writeHeader(&b, 1, kerf)
	g.writeBar(&b, profile, pattern, bars, kerf, 1, 1)
	g.writeFooter(&b)
	return b.String()
}

func (g *Generator) writeHeader(b *strings.Builder, bars int, kerf float64) {
	d := g.dialect

	b.WriteString(g.comment("BarCut saw program"))
	b.WriteString(g.comment(fmt.Sprintf("Bars: %d, Kerf: %.1f mm", bars, kerf)))
	b.WriteString(g.comment(fmt.Sprintf("Feed: %.0f mm/min, Safe Z: %.1f mm, Clearance: %.1f mm",
		g.Settings.FeedRate, g.Settings.SafeZ, g.Settings.Clearance)))
	b.WriteString(g.comment("Dialect: " + d.Name))
	b.WriteString("\n")

	for _, code := range d.StartCode {
		b.WriteString(code + "\n")
	}
	if d.BladeStart != "" && g.Settings.BladeSpeed > 0 {
		b.WriteString(fmt.Sprintf(d.BladeStart+"\n", g.Settings.BladeSpeed))
	}

	b.WriteString(fmt.Sprintf("%s Z%s\n", d.RapidMove, g.format(g.Settings.SafeZ)))
	b.WriteString(fmt.Sprintf("%s A%s\n", d.RapidMove, g.format(0)))
	b.WriteString("\n")
}

func (g *Generator) writeBar(b *strings.Builder, profile string, pattern model.CuttingPattern, bars []export.BarPiece, kerf float64, idx, total int) {
	d := g.dialect

	b.WriteString(g.comment(fmt.Sprintf("=== Bar %d of %d: %s, stock %.1f mm ===", idx, total, profile, pattern.StockLength)))
	b.WriteString(g.comment(fmt.Sprintf("Pieces: %d, Waste: %.1f mm", len(pattern.Parts), pattern.Waste)))
	if d.PauseCode != "" {
		b.WriteString(d.PauseCode + " " + g.inline(fmt.Sprintf("load bar %d", idx)) + "\n")
	}

	for i, c := range BarCuts(pattern, bars, kerf) {
		g.writeCut(b, c, i+1)
	}
	b.WriteString("\n")
}

func (g *Generator) writeCut(b *strings.Builder, c Cut, n int) {
	d := g.dialect
	bottom := -(c.Depth + g.Settings.Clearance)

	b.WriteString(g.comment(fmt.Sprintf("--- Cut %d: %s, %.1f deg ---", n, c.Label, math.Abs(c.Angle))))
	b.WriteString(fmt.Sprintf("%s X%s A%s\n", d.RapidMove, g.format(c.X), g.format(c.Angle)))
	b.WriteString(fmt.Sprintf("%s Z%s F%s\n", d.FeedMove, g.format(bottom), g.format(g.Settings.FeedRate)))
	b.WriteString(fmt.Sprintf("%s Z%s\n", d.RapidMove, g.format(g.Settings.SafeZ)))
}

func (g *Generator) writeFooter(b *strings.Builder) {
	d := g.dialect

	b.WriteString(g.comment("=== Job complete ==="))
	for _, code := range d.EndCode {
		code = strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ))
		b.WriteString(code + "\n")
	}
	if d.BladeStop != "" && g.Settings.BladeSpeed > 0 && !containsCode(d.EndCode, d.BladeStop) {
		b.WriteString(d.BladeStop + "\n")
	}
}

// comment wraps text in the dialect's comment syntax as a full line.
func (g *Generator) comment(text string) string {
	return g.inline(text) + "\n"
}

func (g *Generator) inline(text string) string {
	return g.dialect.CommentPrefix + " " + text + g.dialect.CommentSuffix
}

// format formats a coordinate according to the dialect's decimal places.
func (g *Generator) format(v float64) string {
	if math.Abs(v) < 0.5*math.Pow(10, -float64(g.dialect.DecimalPlaces)) {
		v = 0
	}
	return fmt.Sprintf("%.*f", g.dialect.DecimalPlaces, v)
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
