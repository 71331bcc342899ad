package model

import (
	"sort"

	"github.com/google/uuid"
)

// Remnant is a usable length of bar left over after cutting.
type Remnant struct {
	ID           string  `json:"id"`
	Profile      string  `json:"profile"`
	PatternIndex int     `json:"pattern_index"` // Index of the source pattern in the report
	Position     float64 `json:"position"`      // Where the remnant starts on the source bar, mm
	Length       float64 `json:"length"`        // Usable length, mm
	PricePerBar  float64 `json:"price_per_bar"` // Inherited price proportional to length (0 if not set)
}

// ToStockPreset converts a remnant into a single-length preset for reuse.
func (r Remnant) ToStockPreset() StockPreset {
	sp := NewStockPreset(r.Profile, r.Length)
	sp.PricePerBar = r.PricePerBar
	sp.MaterialNote = "Remnant"
	return sp
}

// DetectRemnants finds the tail of each bar that is long enough to keep.
// Separating the remnant costs one saw kerf. Pricing is proportional to
// length when pricePerBar is set. Results are sorted longest first.
func DetectRemnants(report NestingReport, kerf, minLength, pricePerBar float64) []Remnant {
	var remnants []Remnant
	for i, p := range report.CuttingPatterns {
		pos := p.ConsumedLength
		length := p.StockLength - p.ConsumedLength
		if len(p.Parts) > 0 {
			pos += kerf
			length -= kerf
		}
		if length < minLength || length <= 0 {
			continue
		}
		r := Remnant{
			ID:           uuid.New().String()[:8],
			Profile:      report.ProfileName,
			PatternIndex: i,
			Position:     pos,
			Length:       length,
		}
		if pricePerBar > 0 && p.StockLength > 0 {
			r.PricePerBar = length / p.StockLength * pricePerBar
		}
		remnants = append(remnants, r)
	}

	sort.SliceStable(remnants, func(i, j int) bool {
		return remnants[i].Length > remnants[j].Length
	})
	return remnants
}

// TotalRemnantLength returns the summed length of all remnants in mm.
func TotalRemnantLength(remnants []Remnant) float64 {
	var total float64
	for _, r := range remnants {
		total += r.Length
	}
	return total
}
