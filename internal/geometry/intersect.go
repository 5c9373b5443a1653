// Package geometry provides the pure 2D tests used by the conflict detector:
// rectangle corners, segment intersection, rectangle overlap and
// circle/rectangle proximity.
package geometry

import (
	"fmt"
	"math"

	"github.com/piwi3910/plateplan/internal/model"
)

// eps absorbs floating point noise in the orientation tests.
const eps = 1e-9

func cross(a, b model.Point2D) float64 { return a.X*b.Y - a.Y*b.X }
func dot(a, b model.Point2D) float64   { return a.X*b.X + a.Y*b.Y }

// Corners returns the four corners of r in counter-clockwise order.
func Corners(r model.Rect) [4]model.Point2D {
	along, across := r.Axes()
	hl := along.Scale(r.Length / 2)
	hw := across.Scale(r.Width / 2)
	return [4]model.Point2D{
		r.Center.Sub(hl).Sub(hw),
		r.Center.Add(hl).Sub(hw),
		r.Center.Add(hl).Add(hw),
		r.Center.Sub(hl).Add(hw),
	}
}

// Edges returns the four sides of r as start/end pairs.
func Edges(r model.Rect) [4][2]model.Point2D {
	c := Corners(r)
	return [4][2]model.Point2D{
		{c[0], c[1]},
		{c[1], c[2]},
		{c[2], c[3]},
		{c[3], c[0]},
	}
}

// SegmentIntersection returns a point shared by segments p1-p2 and q1-q2.
// Vertical and degenerate segments need no slope, so they are handled by the
// same parametric form; collinear overlaps return the first shared point
// along p1-p2.
func SegmentIntersection(p1, p2, q1, q2 model.Point2D) (model.Point2D, bool) {
	r := p2.Sub(p1)
	s := q2.Sub(q1)
	qp := q1.Sub(p1)
	denom := cross(r, s)

	if math.Abs(denom) < eps {
		// Parallel
		if math.Abs(cross(qp, r)) > eps || math.Abs(cross(qp, s)) > eps {
			return model.Point2D{}, false
		}
		rr := dot(r, r)
		if rr < eps {
			if onSegment(p1, q1, q2) {
				return p1, true
			}
			return model.Point2D{}, false
		}
		t0 := dot(qp, r) / rr
		t1 := t0 + dot(s, r)/rr
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		if hi < -eps || lo > 1+eps {
			return model.Point2D{}, false
		}
		return p1.Add(r.Scale(math.Max(lo, 0))), true
	}

	t := cross(qp, s) / denom
	u := cross(qp, r) / denom
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return model.Point2D{}, false
	}
	return p1.Add(r.Scale(t)), true
}

// onSegment reports whether p lies on segment a-b.
func onSegment(p, a, b model.Point2D) bool {
	if math.Abs(cross(p.Sub(a), b.Sub(a))) > eps {
		return false
	}
	return p.X >= math.Min(a.X, b.X)-eps && p.X <= math.Max(a.X, b.X)+eps &&
		p.Y >= math.Min(a.Y, b.Y)-eps && p.Y <= math.Max(a.Y, b.Y)+eps
}

// toLocal expresses p in r's frame: x along the length, y along the width.
func toLocal(p model.Point2D, r model.Rect) (float64, float64) {
	along, across := r.Axes()
	d := p.Sub(r.Center)
	return dot(d, along), dot(d, across)
}

// ContainsPoint reports whether p lies inside or on r.
func ContainsPoint(r model.Rect, p model.Point2D) bool {
	lx, ly := toLocal(p, r)
	return math.Abs(lx) <= r.Length/2+eps && math.Abs(ly) <= r.Width/2+eps
}

// RectanglesIntersect tests every edge of a against every edge of b. A
// rectangle lying wholly inside the other has no crossing edges, so corner
// containment is checked as well.
func RectanglesIntersect(a, b model.Rect) bool {
	ea, eb := Edges(a), Edges(b)
	for _, s1 := range ea {
		for _, s2 := range eb {
			if _, ok := SegmentIntersection(s1[0], s1[1], s2[0], s2[1]); ok {
				return true
			}
		}
	}
	return ContainsPoint(b, Corners(a)[0]) || ContainsPoint(a, Corners(b)[0])
}

// DistanceToRect computes the minimum distance from p to r. Returns 0 if
// the point is inside the rectangle.
func DistanceToRect(p model.Point2D, r model.Rect) float64 {
	lx, ly := toLocal(p, r)
	nearestX := math.Max(-r.Length/2, math.Min(lx, r.Length/2))
	nearestY := math.Max(-r.Width/2, math.Min(ly, r.Width/2))
	return math.Hypot(lx-nearestX, ly-nearestY)
}

// CircleIntersectsRect reports whether the disc reaches into r.
func CircleIntersectsRect(c model.Circle, r model.Rect) bool {
	return DistanceToRect(c.Center, r) < c.Radius
}

// Overlaps reports whether pickup area r touches the probe footprint s.
func Overlaps(r model.Rect, s model.Shape) bool {
	switch shape := s.(type) {
	case model.Circle:
		return CircleIntersectsRect(shape, r)
	case model.Rect:
		return RectanglesIntersect(r, shape)
	default:
		panic(fmt.Sprintf("geometry: unsupported shape %T", s))
	}
}
