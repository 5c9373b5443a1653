package model

import "math"

// Point2D represents a 2D coordinate on the plate in mm.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point2D) Add(q Point2D) Point2D { return Point2D{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point2D) Sub(q Point2D) Point2D { return Point2D{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale multiplies both coordinates by s.
func (p Point2D) Scale(s float64) Point2D { return Point2D{X: p.X * s, Y: p.Y * s} }

// Dist returns the Euclidean distance between p and q.
func (p Point2D) Dist(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Direction returns the unit vector for an angle given in degrees.
func Direction(deg float64) Point2D {
	rad := deg * math.Pi / 180.0
	return Point2D{X: math.Cos(rad), Y: math.Sin(rad)}
}

// Rect is an oriented rectangle. Length runs along Orientation (degrees),
// Width runs perpendicular to it.
type Rect struct {
	Center      Point2D `json:"center"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Orientation float64 `json:"orientation"`
}

// Axes returns the unit vectors of the rectangle's length and width axes.
func (r Rect) Axes() (along, across Point2D) {
	along = Direction(r.Orientation)
	across = Point2D{X: -along.Y, Y: along.X}
	return along, across
}

// Circle is a disc on the plate.
type Circle struct {
	Center Point2D `json:"center"`
	Radius float64 `json:"radius"`
}

// Shape is the closed set of probe footprints: Circle or Rect.
type Shape interface {
	isShape()
}

func (Circle) isShape() {}
func (Rect) isShape()   {}
