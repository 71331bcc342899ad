package geometry

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/piwi3910/BarCut/internal/model"
)

// zToX maps local Z onto world X and translates by (tx, ty, 0).
func zToX(tx, ty float64) Transform {
	return Transform{
		{0, 0, 1, tx},
		{0, 1, 0, ty},
		{-1, 0, 0, 0},
		{0, 0, 0, 1},
	}
}

func nativeBeam(depth float64, placement Transform) Element {
	return Element{
		ID:          "B1",
		Kind:        KindBeam,
		ProfileName: "IPE200",
		Placement:   placement,
		Solid: &Solid{
			Type: SolidExtrusion,
			Extrusion: &Extrusion{
				Direction: model.Vec3{0, 0, 1},
				Depth:     depth,
			},
		},
	}
}

func assertVec(t *testing.T, want, got model.Vec3, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "component %d", i)
	}
}

func TestExtract_NativeMillimeters(t *testing.T) {
	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(nativeBeam(6000, zToX(1000, 2000)), Millimeters)
	require.True(t, ok)

	assert.Equal(t, model.SourceNative, p.SourceMethod)
	assert.Equal(t, "B1", p.ID)
	assert.Equal(t, KindBeam, p.ElementType)
	assert.Equal(t, "IPE200", p.ProfileKey)
	assert.InDelta(t, 6000.0, p.Length, 1e-9)
	assertVec(t, model.Vec3{1, 0, 0}, p.Axis, 1e-12)
	assertVec(t, model.Vec3{1000, 2000, 0}, p.Start, 1e-9)
	assertVec(t, model.Vec3{7000, 2000, 0}, p.End, 1e-9)
	assert.Nil(t, p.EndCuts.Start)
	assert.Nil(t, p.EndCuts.End)
}

func TestExtract_NativeMetersScalesDepthAndTranslation(t *testing.T) {
	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(nativeBeam(6, zToX(1, 2)), Meters)
	require.True(t, ok)

	assert.InDelta(t, 6000.0, p.Length, 1e-9)
	assertVec(t, model.Vec3{1000, 2000, 0}, p.Start, 1e-9)
	assertVec(t, model.Vec3{7000, 2000, 0}, p.End, 1e-9)
}

func TestExtract_NativeDepthAboveThresholdIsMillimeters(t *testing.T) {
	// Meter-scaled model whose extrusion depth is already in millimeters
	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(nativeBeam(4500, zToX(1, 2)), Meters)
	require.True(t, ok)

	assert.InDelta(t, 4500.0, p.Length, 1e-9)
	assertVec(t, model.Vec3{1000, 2000, 0}, p.Start, 1e-9)
}

func TestExtract_NativeDescendsThroughClipping(t *testing.T) {
	el := nativeBeam(3000, Identity())
	inner := el.Solid
	el.Solid = &Solid{
		Type: SolidMapped,
		Items: []*Solid{{
			Type:   SolidBooleanClip,
			First:  &Solid{Type: SolidBooleanClip, First: inner, Second: &Solid{Type: "half_space"}},
			Second: &Solid{Type: "half_space"},
		}},
	}
	inner.Extrusion.ProfileName = "HEA200"

	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(el, Millimeters)
	require.True(t, ok)

	assert.Equal(t, model.SourceNative, p.SourceMethod)
	assert.Equal(t, "HEA200", p.ProfileKey)
	assert.InDelta(t, 3000.0, p.Length, 1e-9)
	assertVec(t, model.Vec3{0, 0, 1}, p.Axis, 1e-12)
}

func TestExtract_NativeUsesPositionFrame(t *testing.T) {
	el := nativeBeam(2000, Identity())
	el.Solid.Extrusion.Position = &Axis2Placement{
		Location:     model.Vec3{100, 0, 0},
		Axis:         &model.Vec3{0, 1, 0},
		RefDirection: &model.Vec3{1, 0.2, 0}, // not orthogonal to the axis
	}

	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(el, Millimeters)
	require.True(t, ok)

	assertVec(t, model.Vec3{0, 1, 0}, p.Axis, 1e-12)
	assertVec(t, model.Vec3{100, 0, 0}, p.Start, 1e-9)
	assertVec(t, model.Vec3{100, 2000, 0}, p.End, 1e-9)
}

func TestExtract_MalformedPlacementFallsBackToMesh(t *testing.T) {
	el := nativeBeam(3000, Transform{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	el.Mesh = &Mesh{Vertices: boxVertices(2000, 100, 200, 0)}

	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(el, Millimeters)
	require.True(t, ok)

	assert.Equal(t, model.SourceMesh, p.SourceMethod)
	assert.InDelta(t, 2000.0, p.Length, 1e-6)
	assertVec(t, model.Vec3{1, 0, 0}, p.Axis, 1e-9)
	assertVec(t, model.Vec3{0, 50, 100}, p.Start, 1e-6)
	assert.Equal(t, "IPE200", p.ProfileKey)
}

func TestExtract_NonFinitePlacementFails(t *testing.T) {
	el := nativeBeam(3000, Transform{
		{1, 0, 0, math.NaN()},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	})
	ex := NewExtractor(model.DefaultExtractSettings())
	_, ok := ex.Extract(el, Millimeters)
	assert.False(t, ok)
}

func TestExtract_MeshBevelUsesAxialLength(t *testing.T) {
	vs := boxVertices(3000, 100, 200, 30)
	el := Element{ID: "M1", Kind: KindMember, Mesh: &Mesh{Vertices: vs}}

	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(el, Millimeters)
	require.True(t, ok)

	assert.Equal(t, model.SourceMesh, p.SourceMethod)
	assert.InDelta(t, 3000.0, p.Length, 1.0)

	// Corner-to-corner distance overstates the cut length
	diag := model.Vec3{vs[7][0] - vs[0][0], vs[7][1] - vs[0][1], vs[7][2] - vs[0][2]}
	assert.Greater(t, diag.Norm()-p.Length, 5.0)

	require.NotNil(t, p.EndCuts.End)
	require.NotNil(t, p.EndCuts.Start)
	assert.InDelta(t, 30.0, p.EndCuts.End.AngleDeg, 0.5)
	assert.Less(t, p.EndCuts.Start.AngleDeg, 0.5)
	assert.InDelta(t, 200.0, p.ProfileDepth, 1.0)
	assert.Equal(t, model.UnknownProfile, p.ProfileKey)
}

func TestExtract_NativeWithMeshDetectsCuts(t *testing.T) {
	el := nativeBeam(3000, Identity())
	el.Solid.Extrusion.Direction = model.Vec3{1, 0, 0}
	el.Mesh = &Mesh{Vertices: boxVertices(3000, 100, 200, 30)}

	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(el, Millimeters)
	require.True(t, ok)

	assert.Equal(t, model.SourceNative, p.SourceMethod)
	assert.InDelta(t, 3000.0, p.Length, 1e-9)
	assertVec(t, model.Vec3{0, 0, 0}, p.Start, 1e-9)
	require.NotNil(t, p.EndCuts.End)
	assert.InDelta(t, 30.0, p.EndCuts.End.AngleDeg, 1e-6)
}

func TestExtract_MeshLengthWinsOnMismatch(t *testing.T) {
	el := nativeBeam(2990, Identity())
	el.Solid.Extrusion.Direction = model.Vec3{1, 0, 0}
	el.Mesh = &Mesh{Vertices: boxVertices(3000, 100, 200, 0)}

	ex := NewExtractor(model.DefaultExtractSettings())
	p, ok := ex.Extract(el, Millimeters)
	require.True(t, ok)

	assert.InDelta(t, 3000.0, p.Length, 1e-9)
	assertVec(t, model.Vec3{0, 50, 100}, p.Start, 1e-9)
	assertVec(t, model.Vec3{3000, 50, 100}, p.End, 1e-9)
}

func TestExtract_SkipsNonLinearKinds(t *testing.T) {
	el := nativeBeam(3000, Identity())
	el.Kind = "IfcSlab"

	ex := NewExtractor(model.DefaultExtractSettings())
	_, ok := ex.Extract(el, Millimeters)
	assert.False(t, ok)
}

func TestExtract_DegenerateMeshFails(t *testing.T) {
	el := Element{ID: "x", Mesh: &Mesh{Vertices: []model.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}}}
	core, logs := observer.New(zapcore.DebugLevel)

	ex := NewExtractor(model.DefaultExtractSettings(), WithLogger(zap.New(core)))
	_, ok := ex.Extract(el, Millimeters)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("no piece extracted").Len())
}

type panicStrategy struct{}

func (panicStrategy) Name() model.SourceMethod { return "panic" }

func (panicStrategy) TryExtract(Element, ScaleFactor) (model.Piece, error) {
	panic("boom")
}

type badLengthStrategy struct{}

func (badLengthStrategy) Name() model.SourceMethod { return "bad" }

func (badLengthStrategy) TryExtract(Element, ScaleFactor) (model.Piece, error) {
	return model.Piece{Axis: model.Vec3{1, 0, 0}, Length: math.Inf(1)}, nil
}

func TestExtract_RecoversStrategyPanics(t *testing.T) {
	cfg := model.DefaultExtractSettings()
	core, logs := observer.New(zapcore.DebugLevel)
	ex := NewExtractor(cfg,
		WithLogger(zap.New(core)),
		WithStrategies(panicStrategy{}, badLengthStrategy{}, MeshStrategy(cfg)),
	)

	el := Element{ID: "M1", Mesh: &Mesh{Vertices: boxVertices(1000, 50, 50, 0)}}
	p, ok := ex.Extract(el, Millimeters)
	require.True(t, ok)
	assert.Equal(t, model.SourceMesh, p.SourceMethod)
	assert.Equal(t, 2, logs.FilterMessage("strategy failed").Len())
}

func TestExtractAll_PreservesOrderAndDropsFailures(t *testing.T) {
	elements := []Element{
		nativeBeam(1000, Identity()),
		{ID: "empty"},
		nativeBeam(3000, Identity()),
	}
	elements[0].ID = "first"
	elements[2].ID = "third"

	settings := model.DefaultExtractSettings()
	settings.Workers = 2
	ex := NewExtractor(settings)

	pieces, err := ex.ExtractAll(context.Background(), elements, Millimeters)
	require.NoError(t, err)
	require.Len(t, pieces, 2)
	assert.Equal(t, "first", pieces[0].ID)
	assert.Equal(t, "third", pieces[1].ID)
}

func TestExtractAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := NewExtractor(model.DefaultExtractSettings())
	pieces, err := ex.ExtractAll(ctx, []Element{nativeBeam(1000, Identity())}, Millimeters)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, pieces)
}

func TestFindExtrusion_PrefersFirstOperand(t *testing.T) {
	a := &Extrusion{Depth: 1}
	b := &Extrusion{Depth: 2}
	s := &Solid{
		Type:   SolidBooleanClip,
		First:  &Solid{Type: SolidExtrusion, Extrusion: a},
		Second: &Solid{Type: SolidExtrusion, Extrusion: b},
	}
	assert.Same(t, a, FindExtrusion(s))
	assert.Nil(t, FindExtrusion(&Solid{Type: SolidMapped}))
	assert.Nil(t, FindExtrusion(nil))
}
