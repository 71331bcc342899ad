package geometry

import (
	"math"

	"github.com/piwi3910/BarCut/internal/model"
)

// ScaleFactor converts raw model coordinates to millimeters.
type ScaleFactor struct {
	Unit model.Unit `json:"unit"`
	ToMM float64    `json:"to_mm"`
}

// NewScale returns the factor for a known unit.
func NewScale(u model.Unit) ScaleFactor {
	return ScaleFactor{Unit: u, ToMM: u.ToMillimeters()}
}

// Millimeters is the identity scale.
var Millimeters = NewScale(model.UnitMillimeters)

// Meters scales by 1000.
var Meters = NewScale(model.UnitMeters)

// ClassifyScale guesses the unit convention from sampled raw lengths.
// Non-finite and non-positive samples are ignored. The band between
// SmallBelow and LargeAbove is inclusive of both ends and is resolved by
// AmbiguousPivot.
func ClassifyScale(samples []float64, policy model.ScalePolicy) ScaleFactor {
	var sum float64
	n := 0
	for _, s := range samples {
		if s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s) {
			sum += s
			n++
		}
	}
	if n == 0 {
		return NewScale(policy.Default)
	}

	mean := sum / float64(n)
	switch {
	case mean < policy.SmallBelow:
		return Meters
	case mean > policy.LargeAbove:
		return Millimeters
	case mean > policy.AmbiguousPivot:
		return NewScale(policy.AmbiguousHigh)
	default:
		return NewScale(policy.AmbiguousLow)
	}
}

// ResolveScale samples the raw extrusion depth of up to policy.SampleSize
// beams, falling back to columns and then to any element, and classifies
// the mean.
func ResolveScale(elements []Element, policy model.ScalePolicy) ScaleFactor {
	limit := policy.SampleSize
	if limit <= 0 {
		limit = model.DefaultScalePolicy().SampleSize
	}

	collect := func(match func(Element) bool) []float64 {
		var samples []float64
		for _, el := range elements {
			if len(samples) >= limit {
				break
			}
			if !match(el) {
				continue
			}
			if ext := FindExtrusion(el.Solid); ext != nil && ext.Depth > 0 {
				samples = append(samples, ext.Depth)
			}
		}
		return samples
	}

	samples := collect(func(el Element) bool { return el.Kind == KindBeam })
	if len(samples) == 0 {
		samples = collect(func(el Element) bool { return el.Kind == KindColumn })
	}
	if len(samples) == 0 {
		samples = collect(func(Element) bool { return true })
	}
	return ClassifyScale(samples, policy)
}
