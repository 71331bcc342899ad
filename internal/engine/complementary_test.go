package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/BarCut/internal/model"
)

func TestMatchComplementary_PicksClosestAngle(t *testing.T) {
	s := defaultTestSettings()
	a := withCuts(piece("A", 4000), nil, miter(45))
	b := withCuts(piece("B", 2000), miter(44.2), nil)
	c := withCuts(piece("C", 3000), miter(45.1), nil)

	pairs, singles := MatchComplementary([]model.Piece{a, b, c}, s, 12000)

	require.Len(t, pairs, 1)
	assert.Equal(t, "A", pairs[0].A.ID)
	assert.Equal(t, "C", pairs[0].B.ID)
	assert.False(t, pairs[0].FlipA, "A's end cut already trails")
	assert.False(t, pairs[0].FlipB, "C's start cut already leads")
	require.Len(t, singles, 1)
	assert.Equal(t, "B", singles[0].ID)
}

func TestMatchComplementary_OrientsMatchedEnds(t *testing.T) {
	s := defaultTestSettings()
	a := withCuts(piece("A", 4000), miter(30), nil)
	b := withCuts(piece("B", 2000), nil, miter(30))

	pairs, _ := MatchComplementary([]model.Piece{a, b}, s, 12000)

	require.Len(t, pairs, 1)
	assert.True(t, pairs[0].FlipA)
	assert.True(t, pairs[0].FlipB)

	u := pairUnit(pairs[0])
	assert.Same(t, a.EndCuts.Start, u.members[0].trail())
	assert.Same(t, b.EndCuts.End, u.members[1].lead())
}

func TestMatchComplementary_RespectsToleranceAndMinimumAngle(t *testing.T) {
	s := defaultTestSettings()
	a := withCuts(piece("A", 3000), nil, miter(45))
	b := withCuts(piece("B", 3000), miter(47), nil)
	c := withCuts(piece("C", 3000), nil, miter(1))
	d := withCuts(piece("D", 3000), miter(1), nil)

	pairs, singles := MatchComplementary([]model.Piece{a, b, c, d}, s, 12000)

	assert.Empty(t, pairs)
	assert.Len(t, singles, 4)
}

func tilted(angle, nx, nz float64) *model.EndCut {
	return &model.EndCut{AngleDeg: angle, Confidence: 1, Normal: model.Vec3{nx, 0, nz}}
}

func TestMatchComplementary_MirroredMitersDoNotPair(t *testing.T) {
	s := defaultTestSettings()
	// Both cuts lean toward +Z: end to end they leave a V notch.
	a := withCuts(piece("A", 3000), nil, tilted(45, 0.707, 0.707))
	b := withCuts(piece("B", 2000), tilted(45, -0.707, 0.707), nil)

	pairs, singles := MatchComplementary([]model.Piece{a, b}, s, 12000)

	assert.Empty(t, pairs)
	assert.Len(t, singles, 2)
}

func TestMatchComplementary_ParallelMitersPair(t *testing.T) {
	s := defaultTestSettings()
	a := withCuts(piece("A", 3000), nil, tilted(45, 0.707, 0.707))
	b := withCuts(piece("B", 2000), tilted(45, -0.707, -0.707), nil)

	pairs, singles := MatchComplementary([]model.Piece{a, b}, s, 12000)

	require.Len(t, pairs, 1)
	assert.Equal(t, "A", pairs[0].A.ID)
	assert.Equal(t, "B", pairs[0].B.ID)
	assert.Empty(t, singles)
}

func TestMatchComplementary_FlipTurnsLeanOver(t *testing.T) {
	s := defaultTestSettings()
	// Trapezoid pieces with both ends leaning the same way only share a
	// cut when the second piece is turned end for end.
	a := withCuts(piece("A", 3000), nil, tilted(45, 0.707, 0.707))
	b := withCuts(piece("B", 2000), tilted(45, -0.707, 0.707), tilted(45, 0.707, 0.707))

	pairs, _ := MatchComplementary([]model.Piece{a, b}, s, 12000)

	require.Len(t, pairs, 1)
	assert.False(t, pairs[0].FlipA)
	assert.True(t, pairs[0].FlipB)
}

func TestOpposed_UnknownLeanFallsBackToAngle(t *testing.T) {
	a := piece("A", 3000)
	b := piece("B", 3000)
	assert.True(t, opposed(a, miter(45), false, b, tilted(45, -0.707, 0.707), false))

	b.Axis = model.Vec3{}
	assert.True(t, opposed(a, tilted(45, 0.707, 0.707), false, b, tilted(45, -0.707, 0.707), false))
}

func TestMatchComplementary_SkipsPairsLongerThanStock(t *testing.T) {
	s := defaultTestSettings()
	a := withCuts(piece("A", 5000), nil, miter(45))
	b := withCuts(piece("B", 5000), miter(45), nil)

	pairs, singles := MatchComplementary([]model.Piece{a, b}, s, 6000)
	assert.Empty(t, pairs)
	assert.Len(t, singles, 2)
}

func TestSharedLength_ClampedToShorterPiece(t *testing.T) {
	s := defaultTestSettings()
	a := piece("A", 4000)
	b := piece("B", 600)
	a.ProfileDepth = 1000

	shared := sharedLength(a, b, 60, s)
	assert.InDelta(t, 300.0, shared, 1e-9)

	b.Length = 4000
	assert.InDelta(t, 1000*math.Tan(60*math.Pi/180), sharedLength(a, b, 60, s), 1e-9)
}

func TestSectionDepth_Fallbacks(t *testing.T) {
	s := defaultTestSettings()

	a := model.Piece{ProfileKey: "HEA300"}
	b := model.Piece{ProfileKey: "HEA300"}
	assert.Equal(t, 300.0, sectionDepth(a, b, s))

	a.ProfileDepth = 150
	assert.Equal(t, 150.0, sectionDepth(a, b, s))

	s.DefaultProfileDepth = 250
	assert.Equal(t, 250.0, sectionDepth(model.Piece{ProfileKey: "L50x50"}, model.Piece{}, s))
}

func TestFlush(t *testing.T) {
	s := defaultTestSettings()
	assert.True(t, flush(nil, nil, s))
	assert.True(t, flush(miter(1.5), nil, s), "below the minimum miter angle counts as square")
	assert.True(t, flush(miter(30), miter(30.8), s))
	assert.False(t, flush(miter(30), miter(32), s))
	assert.False(t, flush(miter(30), nil, s))
	assert.True(t, flush(&model.EndCut{AngleDeg: 30, Confidence: 0.1}, nil, s))
}

func TestUnitFlipReversesMembers(t *testing.T) {
	a := withCuts(piece("A", 3000), miter(10), miter(45))
	b := withCuts(piece("B", 2000), nil, miter(45))
	u := unit{members: []member{{piece: a}, {piece: b, flipped: true}}, shared: 100}

	f := u.flip()
	assert.Equal(t, "B", f.members[0].piece.ID)
	assert.False(t, f.members[0].flipped)
	assert.True(t, f.members[1].flipped)
	assert.Same(t, a.EndCuts.Start, f.trail())
	assert.Nil(t, f.lead())
	assert.InDelta(t, 4900.0, f.length(), 1e-9)
	assert.InDelta(t, 5000.0, f.pieceLength(), 1e-9)
}
