package model

import "math"

// PurchaseEstimate holds the results of a bar purchasing calculation.
type PurchaseEstimate struct {
	Profile         string  `json:"profile"`
	TotalPieceLen   float64 `json:"total_piece_length"` // Total length of all pieces plus kerf (mm)
	TotalMeters     float64 `json:"total_meters"`       // Same, in meters
	StockLength     float64 `json:"stock_length"`       // Length of one bar (mm)
	BarsNeededExact float64 `json:"bars_needed_exact"`  // Exact fractional number of bars
	BarsNeededMin   int     `json:"bars_needed_min"`    // Minimum bars (ceiling of exact)
	BarsWithWaste   int     `json:"bars_with_waste"`    // Recommended bars including waste factor
	WastePercent    float64 `json:"waste_percent"`      // Waste factor applied (e.g., 10 for 10%)
	EstimatedCost   float64 `json:"estimated_cost"`     // Total cost if pricing available
	PricePerBar     float64 `json:"price_per_bar"`      // Price used for estimation
	KerfWidth       float64 `json:"kerf_width"`         // Kerf width used in calculation
	Oversize        int     `json:"oversize"`           // Pieces longer than one bar, excluded
}

// CalculatePurchaseEstimate computes how many bars of one stock length to buy
// for a set of pieces. It is a length-only estimate: every piece costs its
// length plus one kerf, and the waste percentage covers the end offcuts that
// the real nesting will produce.
func CalculatePurchaseEstimate(pieces []Piece, stockLength, kerfWidth, wastePercent, pricePerBar float64) PurchaseEstimate {
	est := PurchaseEstimate{
		StockLength:  stockLength,
		WastePercent: wastePercent,
		PricePerBar:  pricePerBar,
		KerfWidth:    kerfWidth,
	}
	if len(pieces) > 0 {
		est.Profile = pieces[0].ProfileKey
	}

	for _, p := range pieces {
		if stockLength > 0 && p.Length > stockLength {
			est.Oversize++
			continue
		}
		est.TotalPieceLen += p.Length + kerfWidth
	}
	est.TotalMeters = est.TotalPieceLen / 1000.0

	if stockLength <= 0 {
		return est
	}

	exact := est.TotalPieceLen / stockLength
	minBars := int(math.Ceil(exact))

	wasteFactor := 1.0 + (wastePercent / 100.0)
	withWaste := int(math.Ceil(exact * wasteFactor))
	if withWaste < minBars {
		withWaste = minBars
	}

	est.BarsNeededExact = exact
	est.BarsNeededMin = minBars
	est.BarsWithWaste = withWaste
	est.EstimatedCost = float64(withWaste) * pricePerBar
	return est
}
