package geometry

import (
	"testing"

	"github.com/piwi3910/plateplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) model.Point2D { return model.Point2D{X: x, Y: y} }

func TestCorners_AxisAligned(t *testing.T) {
	r := model.Rect{Center: pt(10, 5), Length: 4, Width: 2, Orientation: 0}
	c := Corners(r)

	assert.InDelta(t, 8.0, c[0].X, 1e-9)
	assert.InDelta(t, 4.0, c[0].Y, 1e-9)
	assert.InDelta(t, 12.0, c[2].X, 1e-9)
	assert.InDelta(t, 6.0, c[2].Y, 1e-9)
}

func TestCorners_Rotated90(t *testing.T) {
	r := model.Rect{Center: pt(0, 0), Length: 4, Width: 2, Orientation: 90}
	c := Corners(r)

	// Length now runs along Y
	assert.InDelta(t, 1.0, c[0].X, 1e-9)
	assert.InDelta(t, -2.0, c[0].Y, 1e-9)
	assert.InDelta(t, -1.0, c[2].X, 1e-9)
	assert.InDelta(t, 2.0, c[2].Y, 1e-9)
}

func TestSegmentIntersection_Crossing(t *testing.T) {
	p, ok := SegmentIntersection(pt(0, 0), pt(2, 2), pt(0, 2), pt(2, 0))
	require.True(t, ok)
	assert.InDelta(t, 1.0, p.X, 1e-9)
	assert.InDelta(t, 1.0, p.Y, 1e-9)
}

func TestSegmentIntersection_Vertical(t *testing.T) {
	p, ok := SegmentIntersection(pt(1, -5), pt(1, 5), pt(-3, 2), pt(3, 2))
	require.True(t, ok, "vertical segment should intersect the horizontal one")
	assert.InDelta(t, 1.0, p.X, 1e-9)
	assert.InDelta(t, 2.0, p.Y, 1e-9)

	_, ok = SegmentIntersection(pt(1, -5), pt(1, 5), pt(2, -5), pt(2, 5))
	assert.False(t, ok, "parallel verticals never meet")
}

func TestSegmentIntersection_Disjoint(t *testing.T) {
	_, ok := SegmentIntersection(pt(0, 0), pt(1, 0), pt(2, -1), pt(2, 1))
	assert.False(t, ok, "segment ends before the other starts")
}

func TestSegmentIntersection_CollinearOverlap(t *testing.T) {
	p, ok := SegmentIntersection(pt(0, 0), pt(4, 0), pt(2, 0), pt(6, 0))
	require.True(t, ok)
	assert.InDelta(t, 2.0, p.X, 1e-9)

	_, ok = SegmentIntersection(pt(0, 0), pt(1, 0), pt(2, 0), pt(3, 0))
	assert.False(t, ok, "collinear but separated")
}

func TestRectanglesIntersect(t *testing.T) {
	a := model.Rect{Center: pt(0, 0), Length: 10, Width: 4}
	b := model.Rect{Center: pt(6, 0), Length: 10, Width: 4, Orientation: 45}
	c := model.Rect{Center: pt(30, 0), Length: 10, Width: 4}

	assert.True(t, RectanglesIntersect(a, b))
	assert.True(t, RectanglesIntersect(b, a), "test must be symmetric")
	assert.False(t, RectanglesIntersect(a, c))
}

func TestRectanglesIntersect_Containment(t *testing.T) {
	outer := model.Rect{Center: pt(0, 0), Length: 20, Width: 20}
	inner := model.Rect{Center: pt(1, 1), Length: 2, Width: 2, Orientation: 30}

	assert.True(t, RectanglesIntersect(outer, inner))
	assert.True(t, RectanglesIntersect(inner, outer))
}

func TestDistanceToRect(t *testing.T) {
	r := model.Rect{Center: pt(0, 0), Length: 10, Width: 4}

	assert.InDelta(t, 0.0, DistanceToRect(pt(1, 1), r), 1e-9, "inside")
	assert.InDelta(t, 3.0, DistanceToRect(pt(8, 0), r), 1e-9, "beyond the end")
	assert.InDelta(t, 5.0, DistanceToRect(pt(8, 6), r), 1e-9, "diagonal from corner")
}

func TestDistanceToRect_Rotated(t *testing.T) {
	r := model.Rect{Center: pt(0, 0), Length: 10, Width: 4, Orientation: 90}

	assert.InDelta(t, 3.0, DistanceToRect(pt(0, 8), r), 1e-9)
	assert.InDelta(t, 1.0, DistanceToRect(pt(3, 0), r), 1e-9)
}

func TestCircleIntersectsRect(t *testing.T) {
	r := model.Rect{Center: pt(0, 0), Length: 10, Width: 4}

	assert.True(t, CircleIntersectsRect(model.Circle{Center: pt(9, 0), Radius: 5}, r))
	assert.False(t, CircleIntersectsRect(model.Circle{Center: pt(10, 0), Radius: 5}, r), "touching is not overlapping")
	assert.False(t, CircleIntersectsRect(model.Circle{Center: pt(20, 0), Radius: 5}, r))
}

func TestOverlaps_Dispatch(t *testing.T) {
	area := model.Rect{Center: pt(0, 0), Length: 10, Width: 4}

	assert.True(t, Overlaps(area, model.Circle{Center: pt(0, 4), Radius: 3}))
	assert.True(t, Overlaps(area, model.Rect{Center: pt(0, 4), Length: 6, Width: 6}))
	assert.False(t, Overlaps(area, model.Rect{Center: pt(0, 40), Length: 6, Width: 6}))
}
