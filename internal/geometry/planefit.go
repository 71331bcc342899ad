package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/piwi3910/BarCut/internal/model"
)

// CrossSection is the measured section of a member perpendicular to its axis.
type CrossSection struct {
	Depth    float64 // Largest in-plane dimension, mm
	Width    float64 // Second in-plane dimension, mm
	Circular bool
}

// AnalyzeCrossSection projects vertices onto the plane perpendicular to axis
// and measures the two principal dimensions. Fewer than three vertices give
// a zero section.
//
// The section is measured within one section depth of each extremity, so a
// slightly tilted axis only spreads the projection by that band, not by the
// whole member length. The larger end section wins, which keeps a coped or
// notched end from shrinking the result.
func AnalyzeCrossSection(vertices []r3.Vec, axis r3.Vec) CrossSection {
	if len(vertices) < 3 {
		return CrossSection{}
	}
	axis = r3.Unit(axis)

	whole := measureSection(vertices, axis)
	if whole.Depth <= 0 {
		return whole
	}

	ext := measureExtent(vertices, axis)
	band := whole.Depth
	var best CrossSection
	for _, atEnd := range []bool{false, true} {
		var slice []r3.Vec
		for _, v := range vertices {
			p := r3.Dot(r3.Sub(v, ext.centroid), axis)
			if (!atEnd && p <= ext.min+band) || (atEnd && p >= ext.max-band) {
				slice = append(slice, v)
			}
		}
		if cs := measureSection(slice, axis); cs.Depth > best.Depth {
			best = cs
		}
	}
	if best.Depth <= 0 {
		return whole
	}
	return best
}

// measureSection measures the extent of vertices along the two principal
// in-plane directions.
func measureSection(vertices []r3.Vec, axis r3.Vec) CrossSection {
	if len(vertices) < 3 {
		return CrossSection{}
	}
	centroid := meanVec(vertices)

	data := mat.NewDense(len(vertices), 3, nil)
	inPlane := make([]r3.Vec, len(vertices))
	for i, v := range vertices {
		d := r3.Sub(v, centroid)
		p := r3.Sub(d, r3.Scale(r3.Dot(d, axis), axis))
		inPlane[i] = p
		data.SetRow(i, []float64{p.X, p.Y, p.Z})
	}

	values, vectors, ok := principalAxes(data)
	if !ok {
		return CrossSection{}
	}
	// Eigenvalues ascend: the last two span the section plane.
	dir1 := vectors[2]
	dir2 := vectors[1]

	min1, max1 := math.Inf(1), math.Inf(-1)
	min2, max2 := math.Inf(1), math.Inf(-1)
	for _, p := range inPlane {
		a, b := r3.Dot(p, dir1), r3.Dot(p, dir2)
		min1, max1 = math.Min(min1, a), math.Max(max1, a)
		min2, max2 = math.Min(min2, b), math.Max(max2, b)
	}
	dim1, dim2 := max1-min1, max2-min2
	depth := math.Max(dim1, dim2)
	if depth <= 0 {
		return CrossSection{}
	}

	similar := math.Abs(dim1-dim2)/depth < 0.1
	circular := similar
	if values[1] > 0 {
		ratio := values[2] / values[1]
		circular = math.Abs(ratio-1) < 0.2 && similar
	}
	return CrossSection{Depth: depth, Width: math.Min(dim1, dim2), Circular: circular}
}

// endWindow holds the axial capture window and perpendicular tolerance used
// to pick the vertices of one extremity.
type endWindow struct {
	axial float64
	perp  float64
}

// perpMultiplier scales the perpendicular tolerance with section size.
func perpMultiplier(cs CrossSection) float64 {
	switch {
	case cs.Circular:
		return 3
	case cs.Depth < 200:
		return 2
	case cs.Depth < 500:
		return 2 + (cs.Depth-200)/300*2
	default:
		return math.Max(4, cs.Depth/125)
	}
}

func primaryWindow(length float64, cs CrossSection, cfg model.ExtractSettings) endWindow {
	tol := cfg.PlaneResidualTolerance
	var w float64
	if cs.Circular {
		w = math.Max(math.Max(0.10*length, cs.Depth/2), tol)
	} else {
		w = math.Max(length*cfg.EndSlicePercent, tol)
		if cs.Depth > 100 {
			w = math.Max(w, cs.Depth*0.03)
		}
	}
	return endWindow{axial: w, perp: w * perpMultiplier(cs)}
}

func retryWindow(length float64, cs CrossSection) endWindow {
	if cs.Circular {
		w := math.Max(math.Max(0.10*length, cs.Depth/2), 100)
		return endWindow{axial: w, perp: math.Max(5*w, cs.Depth/2)}
	}
	w := math.Max(math.Max(0.10*length, 0.05*cs.Depth), 100)
	return endWindow{axial: w, perp: math.Max(w*perpMultiplier(cs), cs.Depth/2)}
}

// collectNear returns the vertices within the window around point.
func collectNear(vertices []r3.Vec, point, axis r3.Vec, w endWindow) []r3.Vec {
	var out []r3.Vec
	for _, v := range vertices {
		d := r3.Sub(v, point)
		along := r3.Dot(d, axis)
		if along < -w.axial || along > w.axial {
			continue
		}
		if r3.Norm(r3.Sub(d, r3.Scale(along, axis))) < w.perp {
			out = append(out, v)
		}
	}
	return out
}

// axialExtent projects vertices on axis from their centroid.
type axialExtent struct {
	centroid r3.Vec
	min, max float64
}

func (e axialExtent) length() float64 { return e.max - e.min }

func (e axialExtent) start(axis r3.Vec) r3.Vec {
	return r3.Add(e.centroid, r3.Scale(e.min, axis))
}

func (e axialExtent) end(axis r3.Vec) r3.Vec {
	return r3.Add(e.centroid, r3.Scale(e.max, axis))
}

func measureExtent(vertices []r3.Vec, axis r3.Vec) axialExtent {
	e := axialExtent{centroid: meanVec(vertices), min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range vertices {
		p := r3.Dot(r3.Sub(v, e.centroid), axis)
		e.min = math.Min(e.min, p)
		e.max = math.Max(e.max, p)
	}
	if len(vertices) == 0 {
		e.min, e.max = 0, 0
	}
	return e
}

// DetectEndCuts fits a cutting plane at each extremity of the vertex cloud.
// An extremity with fewer than three vertices in the primary window is
// retried on its own with a wider window; one that still has too few stays
// nil. The returned section is the one used to size the windows.
func DetectEndCuts(vertices []r3.Vec, axis r3.Vec, cfg model.ExtractSettings) (model.EndCuts, CrossSection) {
	var cuts model.EndCuts
	if len(vertices) < 3 || r3.Norm(axis) < 1e-12 {
		return cuts, CrossSection{}
	}
	axis = r3.Unit(axis)

	cs := AnalyzeCrossSection(vertices, axis)
	ext := measureExtent(vertices, axis)
	length := ext.length()

	primary := primaryWindow(length, cs, cfg)
	wide := retryWindow(length, cs)

	pick := func(point r3.Vec) []r3.Vec {
		pts := collectNear(vertices, point, axis, primary)
		if len(pts) < 3 {
			pts = collectNear(vertices, point, axis, wide)
		}
		return pts
	}

	if cut, ok := FitEndPlane(pick(ext.start(axis)), axis, false, cfg.PlaneResidualTolerance); ok {
		cuts.Start = cut
	}
	if cut, ok := FitEndPlane(pick(ext.end(axis)), axis, true, cfg.PlaneResidualTolerance); ok {
		cuts.End = cut
	}
	return cuts, cs
}

// FitEndPlane fits a least-squares plane through points. The normal is
// oriented away from the piece: against axis at the start, along it at the
// end. It needs at least three points.
func FitEndPlane(points []r3.Vec, axis r3.Vec, atEnd bool, tol float64) (*model.EndCut, bool) {
	if len(points) < 3 || r3.Norm(axis) < 1e-12 {
		return nil, false
	}
	axis = r3.Unit(axis)
	centroid := meanVec(points)

	centered := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		d := r3.Sub(p, centroid)
		centered.SetRow(i, []float64{d.X, d.Y, d.Z})
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return nil, false
	}
	var v mat.Dense
	svd.VTo(&v)
	_, c := v.Dims()
	if c < 3 {
		return nil, false
	}
	// Singular values descend; the last right vector is the plane normal.
	normal := r3.Vec{X: v.At(0, c-1), Y: v.At(1, c-1), Z: v.At(2, c-1)}
	if r3.Norm(normal) < 1e-12 || !finiteVec(normal) {
		return nil, false
	}
	normal = r3.Unit(normal)

	dot := r3.Dot(normal, axis)
	if (atEnd && dot < 0) || (!atEnd && dot > 0) {
		normal = r3.Scale(-1, normal)
		dot = -dot
	}

	cos := math.Min(1, math.Abs(dot))
	angle := math.Acos(cos) * 180 / math.Pi

	var residual float64
	for _, p := range points {
		residual += math.Abs(r3.Dot(r3.Sub(p, centroid), normal))
	}
	residual /= float64(len(points))

	return &model.EndCut{
		Normal:     model.FromR3(normal),
		AngleDeg:   angle,
		PlaneD:     -r3.Dot(normal, centroid),
		Confidence: Confidence(residual, tol),
	}, true
}

// Confidence maps a mean plane-fit residual to [0, 1]: 1 for a perfect fit,
// 0 at or beyond tol.
func Confidence(meanResidual, tol float64) float64 {
	if tol <= 0 {
		if meanResidual <= 0 {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-meanResidual/tol)
}

// principalAxes returns the ascending eigenvalues and matching unit
// eigenvectors of the covariance of the rows of data.
func principalAxes(data *mat.Dense) ([3]float64, [3]r3.Vec, bool) {
	var values [3]float64
	var vectors [3]r3.Vec

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var es mat.EigenSym
	if !es.Factorize(&cov, true) {
		return values, vectors, false
	}
	vals := es.Values(nil)
	var ev mat.Dense
	es.VectorsTo(&ev)
	for i := 0; i < 3; i++ {
		values[i] = vals[i]
		vectors[i] = r3.Vec{X: ev.At(0, i), Y: ev.At(1, i), Z: ev.At(2, i)}
	}
	return values, vectors, true
}

func meanVec(vs []r3.Vec) r3.Vec {
	var sum r3.Vec
	for _, v := range vs {
		sum = r3.Add(sum, v)
	}
	if len(vs) == 0 {
		return sum
	}
	return r3.Scale(1/float64(len(vs)), sum)
}
