package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/piwi3910/BarCut/internal/model"
)

var errTooFewVertices = errors.New("mesh needs at least two distinct vertices")

// meshStrategy derives the axis from the principal direction of the mesh
// vertices and measures length and end cuts along it.
type meshStrategy struct {
	cfg model.ExtractSettings
}

// MeshStrategy returns the PCA-based fallback strategy.
func MeshStrategy(cfg model.ExtractSettings) Strategy {
	return meshStrategy{cfg: cfg}
}

func (meshStrategy) Name() model.SourceMethod { return model.SourceMesh }

func (s meshStrategy) TryExtract(el Element, scale ScaleFactor) (model.Piece, error) {
	if el.Mesh == nil || distinctCount(el.Mesh.Vertices, 2) < 2 {
		return model.Piece{}, errTooFewVertices
	}
	vertices := toR3(el.Mesh.Vertices, scale.ToMM)

	axis, err := PrincipalAxis(vertices)
	if err != nil {
		return model.Piece{}, err
	}

	ext := measureExtent(vertices, axis)
	cuts, cs := DetectEndCuts(vertices, axis, s.cfg)

	return model.Piece{
		ProfileKey:   el.ProfileName,
		Length:       ext.length(),
		ProfileDepth: cs.Depth,
		Axis:         model.FromR3(axis),
		Start:        model.FromR3(ext.start(axis)),
		EndCuts:      cuts,
	}, nil
}

// PrincipalAxis returns the unit direction of largest variance of the
// points, signed so that its largest component is positive.
func PrincipalAxis(points []r3.Vec) (r3.Vec, error) {
	if len(points) < 2 {
		return r3.Vec{}, errTooFewVertices
	}
	data := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		data.SetRow(i, []float64{p.X, p.Y, p.Z})
	}
	values, vectors, ok := principalAxes(data)
	if !ok || values[2] <= 0 {
		return r3.Vec{}, errDegenerate
	}
	axis := r3.Unit(vectors[2])

	largest := axis.X
	if math.Abs(axis.Y) > math.Abs(largest) {
		largest = axis.Y
	}
	if math.Abs(axis.Z) > math.Abs(largest) {
		largest = axis.Z
	}
	if largest < 0 {
		axis = r3.Scale(-1, axis)
	}
	return axis, nil
}

// distinctCount counts distinct vertices, stopping once limit is reached.
func distinctCount(vs []model.Vec3, limit int) int {
	var seen []model.Vec3
	for _, v := range vs {
		dup := false
		for _, s := range seen {
			if math.Abs(v[0]-s[0]) < 1e-9 && math.Abs(v[1]-s[1]) < 1e-9 && math.Abs(v[2]-s[2]) < 1e-9 {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, v)
			if len(seen) >= limit {
				break
			}
		}
	}
	return len(seen)
}
