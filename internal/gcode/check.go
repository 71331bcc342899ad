package gcode

import (
	"fmt"
	"math"

	"github.com/piwi3910/BarCut/internal/model"
)

// Issue is a problem found while replaying a saw program.
type Issue struct {
	Bar     int // 1-based, counted by program stops
	X       float64
	Angle   float64
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("bar %d at X=%.1f (A=%.1f): %s", i.Bar, i.X, i.Angle, i.Message)
}

// CheckProgram replays parsed moves against the stock bars they were
// written for, in program order. It reports:
//  1. strokes outside the loaded bar
//  2. head swivels beyond settings.MaxSwivel
//  3. feeds or swivels while the blade is below the section top
//  4. strokes before any bar was loaded, or more bars than stock
//
// At most one issue of each kind is reported per bar.
func CheckProgram(moves []Move, stockLengths []float64, settings model.SawSettings) []Issue {
	var issues []Issue
	bar := 0

	type key struct {
		bar  int
		kind string
	}
	seen := make(map[key]bool)
	report := func(kind string, m Move, msg string) {
		k := key{bar, kind}
		if seen[k] {
			return
		}
		seen[k] = true
		issues = append(issues, Issue{Bar: bar, X: m.ToX, Angle: m.ToA, Message: msg})
	}

	for _, m := range moves {
		switch m.Type {
		case MovePause:
			bar++
			if bar > len(stockLengths) {
				report("bars", m, fmt.Sprintf("program loads %d bars, only %d planned", bar, len(stockLengths)))
			}
		case MoveRapid, MoveFeed:
			if m.FromZ < 0 && (m.ToX != m.FromX || m.ToA != m.FromA) {
				report("blade-down", m, "bar fed or head swivelled with the blade in the section")
			}
			if settings.MaxSwivel > 0 && math.Abs(m.ToA) > settings.MaxSwivel+1e-9 {
				report("swivel", m, fmt.Sprintf("swivel %.1f deg exceeds the %.1f deg head limit", math.Abs(m.ToA), settings.MaxSwivel))
			}
		case MoveCut:
			if bar == 0 {
				report("unloaded", m, "stroke before a bar was loaded")
				continue
			}
			if bar > len(stockLengths) {
				continue
			}
			if m.ToX < -positionEpsilon || m.ToX > stockLengths[bar-1]+positionEpsilon {
				report("outside", m, fmt.Sprintf("stroke outside the %.0f mm bar", stockLengths[bar-1]))
			}
		}
	}
	return issues
}

// StockLengths lists the stock length of every bar in the order Generate
// writes them.
func StockLengths(reports []model.NestingReport) []float64 {
	var lengths []float64
	for _, r := range reports {
		for _, p := range r.CuttingPatterns {
			lengths = append(lengths, p.StockLength)
		}
	}
	return lengths
}

// FormatIssues produces human-readable warning messages.
func FormatIssues(issues []Issue) []string {
	warnings := make([]string, 0, len(issues))
	for _, i := range issues {
		warnings = append(warnings, i.String())
	}
	return warnings
}
