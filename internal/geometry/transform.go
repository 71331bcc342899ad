package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/piwi3910/BarCut/internal/model"
)

// Transform is a 4x4 homogeneous matrix as rows. A nil Transform means no
// placement is known.
type Transform [][]float64

var (
	errNotHomogeneous = errors.New("placement is not a 4x4 matrix")
	errNonFinite      = errors.New("placement has non-finite entries")
	errDegenerate     = errors.New("degenerate direction")
)

// Identity returns the 4x4 identity transform.
func Identity() Transform {
	return Transform{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Dense validates t and returns it as a gonum matrix.
func (t Transform) Dense() (*mat.Dense, error) {
	if len(t) != 4 {
		return nil, fmt.Errorf("%w: %d rows", errNotHomogeneous, len(t))
	}
	data := make([]float64, 0, 16)
	for i, row := range t {
		if len(row) != 4 {
			return nil, fmt.Errorf("%w: row %d has %d columns", errNotHomogeneous, i, len(row))
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errNonFinite
			}
		}
		data = append(data, row...)
	}
	return mat.NewDense(4, 4, data), nil
}

// localFrame builds the 4x4 matrix of an axis placement. Missing axes
// default to the global ones; a reference direction that is missing or not
// orthogonal to the axis is orthogonalized.
func localFrame(p *Axis2Placement) (*mat.Dense, error) {
	if p == nil {
		return mat.NewDense(4, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}), nil
	}

	z := r3.Vec{Z: 1}
	if p.Axis != nil {
		z = p.Axis.R3()
	}
	if !finiteVec(z) || r3.Norm(z) < 1e-12 {
		return nil, fmt.Errorf("placement axis: %w", errDegenerate)
	}
	z = r3.Unit(z)

	x := r3.Vec{X: 1}
	if p.RefDirection != nil && finiteVec(p.RefDirection.R3()) {
		x = p.RefDirection.R3()
	}
	x = r3.Sub(x, r3.Scale(r3.Dot(x, z), z))
	if r3.Norm(x) < 1e-9 {
		x = anyPerpendicular(z)
	}
	x = r3.Unit(x)
	y := r3.Cross(z, x)

	o := p.Location.R3()
	if !finiteVec(o) {
		return nil, errNonFinite
	}
	return mat.NewDense(4, 4, []float64{
		x.X, y.X, z.X, o.X,
		x.Y, y.Y, z.Y, o.Y,
		x.Z, y.Z, z.Z, o.Z,
		0, 0, 0, 1,
	}), nil
}

// compose returns placement · local.
func compose(placement, local *mat.Dense) *mat.Dense {
	var world mat.Dense
	world.Mul(placement, local)
	return &world
}

// rotate applies the upper-left 3x3 block of m to v.
func rotate(m mat.Matrix, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

// translation returns the translation column of m.
func translation(m mat.Matrix) r3.Vec {
	return r3.Vec{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}
}

func anyPerpendicular(v r3.Vec) r3.Vec {
	ref := r3.Vec{X: 1}
	if math.Abs(v.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	return r3.Cross(v, ref)
}

func finiteVec(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func toR3(vs []model.Vec3, scale float64) []r3.Vec {
	out := make([]r3.Vec, len(vs))
	for i, v := range vs {
		out[i] = r3.Scale(scale, v.R3())
	}
	return out
}
