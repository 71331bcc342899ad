package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/piwi3910/BarCut/internal/model"
)

var (
	errNoPlacement = errors.New("element has no placement")
	errNoExtrusion = errors.New("no extruded solid found")
	errBadDepth    = errors.New("extrusion depth is not positive")
)

// nativeStrategy reads the axis and length from the parametric extrusion
// and the element placement. When a mesh is present it is used for the end
// cuts and to correct the length.
type nativeStrategy struct {
	cfg model.ExtractSettings
}

// NativeStrategy returns the parametric extrusion strategy.
func NativeStrategy(cfg model.ExtractSettings) Strategy {
	return nativeStrategy{cfg: cfg}
}

func (nativeStrategy) Name() model.SourceMethod { return model.SourceNative }

func (s nativeStrategy) TryExtract(el Element, scale ScaleFactor) (model.Piece, error) {
	if el.Placement == nil {
		return model.Piece{}, errNoPlacement
	}
	placement, err := el.Placement.Dense()
	if err != nil {
		return model.Piece{}, err
	}
	ext := FindExtrusion(el.Solid)
	if ext == nil {
		return model.Piece{}, errNoExtrusion
	}
	if !(ext.Depth > 0) || math.IsInf(ext.Depth, 0) {
		return model.Piece{}, fmt.Errorf("%w: %v", errBadDepth, ext.Depth)
	}

	local, err := localFrame(ext.Position)
	if err != nil {
		return model.Piece{}, err
	}
	world := compose(placement, local)

	dir := ext.Direction.R3()
	if !finiteVec(dir) || r3.Norm(dir) < 1e-12 {
		return model.Piece{}, fmt.Errorf("extrusion direction: %w", errDegenerate)
	}
	axis := rotate(world, r3.Unit(dir))
	if !finiteVec(axis) || r3.Norm(axis) < 1e-9 {
		return model.Piece{}, fmt.Errorf("world axis: %w", errDegenerate)
	}
	axis = r3.Unit(axis)

	start := r3.Scale(scale.ToMM, translation(world))
	length := ext.Depth
	if ext.Depth <= s.cfg.NativeDepthPassThrough {
		length *= scale.ToMM
	}

	piece := model.Piece{
		ProfileKey:   ext.ProfileName,
		Length:       length,
		ProfileDepth: ext.ProfileDepth * scale.ToMM,
		Axis:         model.FromR3(axis),
		Start:        model.FromR3(start),
	}

	if el.Mesh != nil && len(el.Mesh.Vertices) >= 3 {
		s.refineFromMesh(&piece, toR3(el.Mesh.Vertices, scale.ToMM), axis)
	}
	return piece, nil
}

// refineFromMesh detects end cuts on the mesh along the native axis. The
// mesh wins on length when the two disagree, or when the native segment is
// nowhere near the mesh.
func (s nativeStrategy) refineFromMesh(p *model.Piece, vertices []r3.Vec, axis r3.Vec) {
	ext := measureExtent(vertices, axis)
	meshLen := ext.length()

	mid := r3.Add(p.Start.R3(), r3.Scale(p.Length/2, axis))
	misplaced := r3.Norm(r3.Sub(ext.centroid, mid)) > 10*p.Length
	if meshLen > 0 && (math.Abs(meshLen-p.Length) > s.cfg.LengthMismatch || misplaced) {
		p.Length = meshLen
		p.Start = model.FromR3(ext.start(axis))
	}

	cuts, cs := DetectEndCuts(vertices, axis, s.cfg)
	p.EndCuts = cuts
	if p.ProfileDepth <= 0 {
		p.ProfileDepth = cs.Depth
	}
}
