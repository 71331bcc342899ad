package model

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a point or direction in world coordinates. It serializes as [x, y, z].
type Vec3 [3]float64

// FromR3 converts a gonum vector.
func FromR3(v r3.Vec) Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// R3 converts to a gonum vector.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// SourceMethod records which extraction path produced a piece.
type SourceMethod string

const (
	SourceNative   SourceMethod = "ifc_native" // Parametric extrusion + placement
	SourceMesh     SourceMethod = "mesh_based" // PCA over a triangulated surface
	SourceImported SourceMethod = "imported"   // Read from a cut list, no geometry
)

// EndCut describes the fitted cutting plane at one extremity of a piece.
type EndCut struct {
	Normal     Vec3    `json:"normal"`     // Unit normal, pointing away from the piece
	AngleDeg   float64 `json:"angle_deg"`  // Deviation from perpendicular; 0 = square
	PlaneD     float64 `json:"plane_d"`    // normal·x + plane_d = 0
	Confidence float64 `json:"confidence"` // 0-1, from the mean fit residual
}

// EndCuts holds the cut at each extremity. A nil cut is square or unknown.
type EndCuts struct {
	Start *EndCut `json:"start"`
	End   *EndCut `json:"end"`
}

// Piece is one linear member to be cut from stock.
type Piece struct {
	ID           string       `json:"id"`
	ElementType  string       `json:"element_type,omitempty"`
	ProfileKey   string       `json:"profile_key"`
	Length       float64      `json:"length"`                  // mm, along Axis
	ProfileDepth float64      `json:"profile_depth,omitempty"` // mm, largest cross-section dimension; 0 = unknown
	Axis         Vec3         `json:"axis_world"`
	Start        Vec3         `json:"start_world"`
	End          Vec3         `json:"end_world"`
	EndCuts      EndCuts      `json:"end_cuts"`
	SourceMethod SourceMethod `json:"source_method"`
}

// Flipped returns a copy with start and end swapped. Only the bookkeeping
// changes: the axis is reversed and the end cuts trade places.
func (p Piece) Flipped() Piece {
	f := p
	f.Axis = Vec3{-p.Axis[0], -p.Axis[1], -p.Axis[2]}
	f.Start, f.End = p.End, p.Start
	f.EndCuts = EndCuts{Start: p.EndCuts.End, End: p.EndCuts.Start}
	return f
}

// Placement is one piece laid out on a stock bar.
type Placement struct {
	PieceID           string  `json:"piece_id"`
	CutPosition       float64 `json:"cut_position"` // mm from bar start to where the piece begins
	Length            float64 `json:"length"`       // piece length
	ConsumedLength    float64 `json:"consumed_length"`
	ComplementaryPair bool    `json:"complementary_pair"`
	Flipped           bool    `json:"flipped"`
}

// CuttingPattern is the layout of one consumed stock bar.
type CuttingPattern struct {
	StockLength     float64     `json:"stock_length"`
	Parts           []Placement `json:"parts"`
	ConsumedLength  float64     `json:"consumed_length"`
	KerfTotal       float64     `json:"kerf_total"`
	SharedSavings   float64     `json:"shared_savings"`
	Waste           float64     `json:"waste"`
	WastePercentage float64     `json:"waste_percentage"`
}

// Efficiency returns the share of the bar turned into pieces, in percent.
func (cp CuttingPattern) Efficiency() float64 {
	if cp.StockLength <= 0 {
		return 0
	}
	return (cp.ConsumedLength - cp.KerfTotal) / cp.StockLength * 100.0
}

// RejectedPart is a piece the optimizer could not place.
type RejectedPart struct {
	PieceID     string  `json:"piece_id"`
	Length      float64 `json:"length"`
	StockLength float64 `json:"stock_length"`
	Reason      string  `json:"reason"`
}

// NestingReport is the result of nesting one profile group.
type NestingReport struct {
	ProfileName          string           `json:"profile_name"`
	Algorithm            Algorithm        `json:"algorithm,omitempty"`
	CuttingPatterns      []CuttingPattern `json:"cutting_patterns"`
	RejectedParts        []RejectedPart   `json:"rejected_parts"`
	TotalStockLength     float64          `json:"total_stock_length"`
	TotalUsedLength      float64          `json:"total_used_length"`
	TotalWaste           float64          `json:"total_waste"`
	TotalWastePercentage float64          `json:"total_waste_percentage"`
}

// Summarize recomputes the aggregate totals from the patterns.
func (r *NestingReport) Summarize() {
	r.TotalStockLength, r.TotalUsedLength, r.TotalWaste = 0, 0, 0
	for _, p := range r.CuttingPatterns {
		r.TotalStockLength += p.StockLength
		r.TotalUsedLength += p.ConsumedLength
		r.TotalWaste += p.Waste
	}
	r.TotalWastePercentage = 0
	if r.TotalStockLength > 0 {
		r.TotalWastePercentage = r.TotalWaste / r.TotalStockLength * 100.0
	}
}

// PlacedCount returns the number of pieces placed across all patterns.
func (r NestingReport) PlacedCount() int {
	n := 0
	for _, p := range r.CuttingPatterns {
		n += len(p.Parts)
	}
	return n
}

// GroupByProfile splits pieces by profile key, keeping input order within
// each group. Pieces without a key land in "UNKNOWN".
func GroupByProfile(pieces []Piece) map[string][]Piece {
	groups := make(map[string][]Piece)
	for _, p := range pieces {
		key := p.ProfileKey
		if key == "" {
			key = UnknownProfile
		}
		groups[key] = append(groups[key], p)
	}
	return groups
}

// UnknownProfile is the profile key used when none could be determined.
const UnknownProfile = "UNKNOWN"
