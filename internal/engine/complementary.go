package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/piwi3910/BarCut/internal/model"
)

// Pair is two pieces cut from one saw pass: A's matched cut trails and B's
// matched cut leads, overlapping by Shared along the bar.
type Pair struct {
	A, B         model.Piece
	FlipA, FlipB bool
	AngleDeg     float64
	Shared       float64
}

// Length is the bar length the pair consumes.
func (p Pair) Length() float64 {
	return p.A.Length + p.B.Length - p.Shared
}

// effectiveCut returns c when it is a confident miter, and nil when it
// should be treated as square.
func effectiveCut(c *model.EndCut, s model.NestSettings) *model.EndCut {
	if c == nil || c.Confidence < s.ConfidenceThreshold || c.AngleDeg < s.MinMiterAngle {
		return nil
	}
	return c
}

// flush reports whether two touching cuts can share a saw line without a
// kerf gap: both square, or both mitered at matching angles.
func flush(trailing, leading *model.EndCut, s model.NestSettings) bool {
	a, b := effectiveCut(trailing, s), effectiveCut(leading, s)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(a.AngleDeg-b.AngleDeg) <= s.AngleTolerance
}

// sectionDepth is the cross-section depth used for the shared overlap:
// the larger of the two measured depths, else parsed from the profile name,
// else the configured default.
func sectionDepth(a, b model.Piece, s model.NestSettings) float64 {
	d := math.Max(a.ProfileDepth, b.ProfileDepth)
	if d > 0 {
		return d
	}
	for _, key := range []string{a.ProfileKey, b.ProfileKey} {
		if v, ok := model.ParseProfileDepth(key); ok {
			d = math.Max(d, v)
		}
	}
	if d > 0 {
		return d
	}
	if s.DefaultProfileDepth > 0 {
		return s.DefaultProfileDepth
	}
	return model.EstimateProfileDepth("")
}

// sharedLength is the overlap two complementary miters save on the bar,
// capped at MaxSharedFraction of the shorter piece.
func sharedLength(a, b model.Piece, angleDeg float64, s model.NestSettings) float64 {
	shared := sectionDepth(a, b, s) * math.Tan(angleDeg*math.Pi/180)
	limit := s.MaxSharedFraction * math.Min(a.Length, b.Length)
	if shared > limit {
		shared = limit
	}
	if shared < 0 || math.IsNaN(shared) {
		return 0
	}
	return shared
}

// endRef names one extremity of a piece.
type endRef struct {
	cut   *model.EndCut
	atEnd bool
}

func ends(p model.Piece) [2]endRef {
	return [2]endRef{{p.EndCuts.Start, false}, {p.EndCuts.End, true}}
}

// squareTilt is the smallest in-plane normal component that still tells
// which way a cut leans.
const squareTilt = 0.01

// tilt is the component of c's normal perpendicular to the piece axis,
// turned over when the piece is flipped end for end. ok is false when the
// cut carries no usable lean.
func tilt(p model.Piece, c *model.EndCut, flipped bool) (r3.Vec, bool) {
	axis := p.Axis.R3()
	if r3.Norm(axis) == 0 {
		return r3.Vec{}, false
	}
	axis = r3.Unit(axis)
	n := c.Normal.R3()
	perp := r3.Sub(n, r3.Scale(r3.Dot(n, axis), axis))
	if r3.Norm(perp) < squareTilt {
		return r3.Vec{}, false
	}
	if flipped {
		perp = r3.Scale(-1, perp)
	}
	return r3.Unit(perp), true
}

// opposed reports whether A's trailing cut and B's leading cut lie in one
// saw plane: their outward normals must tilt off the bar axis in opposite
// directions. Cuts whose lean is unknown are accepted on angle alone.
func opposed(a model.Piece, ca *model.EndCut, flipA bool, b model.Piece, cb *model.EndCut, flipB bool) bool {
	ta, okA := tilt(a, ca, flipA)
	tb, okB := tilt(b, cb, flipB)
	if !okA || !okB {
		return true
	}
	return r3.Dot(ta, tb) < 0
}

// MatchComplementary pairs pieces whose mitered ends can share a cut.
// Pieces are visited longest first; each takes the unpaired partner with
// the closest angle, preferring the longer partner on ties. Pairs longer
// than maxLength are never formed. Unpaired pieces are returned in input
// order. Cuts that lean the same way would leave a V between the pieces
// and are not paired.
func MatchComplementary(pieces []model.Piece, s model.NestSettings, maxLength float64) ([]Pair, []model.Piece) {
	order := make([]int, len(pieces))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return pieces[order[i]].Length > pieces[order[j]].Length
	})

	paired := make([]bool, len(pieces))
	var pairs []Pair

	for oi, i := range order {
		if paired[i] {
			continue
		}
		a := pieces[i]

		bestJ := -1
		var best Pair
		bestDelta := math.Inf(1)

		for _, j := range order[oi+1:] {
			if paired[j] {
				continue
			}
			b := pieces[j]
			for _, ea := range ends(a) {
				ca := effectiveCut(ea.cut, s)
				if ca == nil {
					continue
				}
				for _, eb := range ends(b) {
					cb := effectiveCut(eb.cut, s)
					if cb == nil {
						continue
					}
					delta := math.Abs(ca.AngleDeg - cb.AngleDeg)
					if delta > s.AngleTolerance || delta >= bestDelta {
						continue
					}
					flipA := !ea.atEnd // A's matched cut must trail
					flipB := eb.atEnd  // B's matched cut must lead
					if !opposed(a, ca, flipA, b, cb, flipB) {
						continue
					}
					angle := (ca.AngleDeg + cb.AngleDeg) / 2
					p := Pair{
						A:        a,
						B:        b,
						FlipA:    flipA,
						FlipB:    flipB,
						AngleDeg: angle,
						Shared:   sharedLength(a, b, angle, s),
					}
					if p.Length() > maxLength+epsilon {
						continue
					}
					bestJ, best, bestDelta = j, p, delta
				}
			}
		}

		if bestJ >= 0 {
			paired[i], paired[bestJ] = true, true
			pairs = append(pairs, best)
		}
	}

	var singles []model.Piece
	for i, p := range pieces {
		if !paired[i] {
			singles = append(singles, p)
		}
	}
	return pairs, singles
}
