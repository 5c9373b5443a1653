package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/plateplan/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// dxfTolerance is the slack allowed on outline sizes read from a drawing, in mm.
const dxfTolerance = 0.05

// segment represents a line segment between two 2D points, used for
// chaining disconnected LINE entities into closed outlines.
type segment struct {
	start model.Point2D
	end   model.Point2D
}

// ImportDXF reads a plate layout drawing. CIRCLE entities of the circular
// magnet radius become circular probes; closed four-sided outlines (an
// LWPOLYLINE or a chain of LINEs) of the rectangular magnet size become
// rectangular probes. Anything else on the drawing is skipped.
//
// Drawings carry no target data, so every rectangular probe is a galaxy
// probe without photometry.
func ImportDXF(path string, geom model.PlateGeometry) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var circles []model.Point2D
	var outlines [][]model.Point2D
	var segments []segment
	skipped := 0

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.Circle:
			if math.Abs(e.Radius-geom.CircularRadius) > dxfTolerance {
				skipped++
				continue
			}
			circles = append(circles, model.Point2D{X: e.Center[0], Y: e.Center[1]})

		case *entity.LwPolyline:
			var pts []model.Point2D
			for _, v := range e.Vertices {
				pts = append(pts, model.Point2D{X: v[0], Y: v[1]})
			}
			outlines = append(outlines, pts)

		case *entity.Line:
			segments = append(segments, segment{
				start: model.Point2D{X: e.Start[0], Y: e.Start[1]},
				end:   model.Point2D{X: e.End[0], Y: e.End[1]},
			})

		default:
			skipped++
		}
	}

	outlines = append(outlines, chainSegments(segments, 0.01)...)

	var rects []model.Rect
	for _, o := range outlines {
		r, ok := outlineToRect(o)
		if !ok || !sameSize(r, geom) {
			skipped++
			continue
		}
		rects = append(rects, r)
	}

	if skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d shapes that are not probe outlines", skipped))
	}
	if len(circles) == 0 && len(rects) == 0 {
		result.Errors = append(result.Errors, "No probe outlines found in DXF file")
		return result
	}

	result.Probes = pairLayout(circles, rects, geom)
	result.Warnings = append(result.Warnings, "DXF layouts carry no target data")
	return result
}

// pairLayout numbers the probes found on a drawing. Each rectangle takes the
// circle PairDistance behind it as its partner and both share an index;
// unpaired shapes get indices of their own.
func pairLayout(circles []model.Point2D, rects []model.Rect, geom model.PlateGeometry) []*model.Probe {
	sort.Slice(rects, func(i, j int) bool { return lessPoint(rects[i].Center, rects[j].Center) })
	sort.Slice(circles, func(i, j int) bool { return lessPoint(circles[i], circles[j]) })

	usedCircle := make([]bool, len(circles))
	var probes []*model.Probe
	index := 0

	for _, r := range rects {
		index++
		partner := -1
		for i, c := range circles {
			if usedCircle[i] {
				continue
			}
			if math.Abs(c.Dist(r.Center)-geom.PairDistance) <= dxfTolerance {
				partner = i
				break
			}
		}

		orientation := r.Orientation
		center := r.Center
		if partner >= 0 {
			usedCircle[partner] = true
			d := r.Center.Sub(circles[partner])
			orientation = math.Atan2(d.Y, d.X) * 180 / math.Pi
			// Snap to the exact pair offset; drawings round coordinates.
			center = circles[partner].Add(model.Direction(orientation).Scale(geom.PairDistance))
			probes = append(probes, model.NewCircularProbe(index, circles[partner], orientation, geom))
		} else if model.Direction(orientation).X*r.Center.X+model.Direction(orientation).Y*r.Center.Y < 0 {
			// No partner: point the axis away from the plate center.
			orientation += 180
		}
		probes = append(probes, model.NewRectangularProbe(index, center, orientation, geom))
	}

	for i, c := range circles {
		if usedCircle[i] {
			continue
		}
		index++
		radial := math.Atan2(c.Y, c.X) * 180 / math.Pi
		probes = append(probes, model.NewCircularProbe(index, c, radial, geom))
	}
	return probes
}

func lessPoint(a, b model.Point2D) bool {
	if math.Abs(a.Y-b.Y) > dxfTolerance {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// outlineToRect recognises a four-cornered outline with right angles.
func outlineToRect(o []model.Point2D) (model.Rect, bool) {
	if len(o) != 4 {
		return model.Rect{}, false
	}
	sides := [4]float64{}
	for i := range o {
		sides[i] = o[i].Dist(o[(i+1)%4])
	}
	if math.Abs(sides[0]-sides[2]) > dxfTolerance || math.Abs(sides[1]-sides[3]) > dxfTolerance {
		return model.Rect{}, false
	}
	if math.Abs(o[0].Dist(o[2])-o[1].Dist(o[3])) > dxfTolerance {
		return model.Rect{}, false
	}

	center := model.Point2D{
		X: (o[0].X + o[1].X + o[2].X + o[3].X) / 4,
		Y: (o[0].Y + o[1].Y + o[2].Y + o[3].Y) / 4,
	}
	long, short := 0, 1
	if sides[1] > sides[0] {
		long, short = 1, 0
	}
	d := o[(long+1)%4].Sub(o[long])
	return model.Rect{
		Center:      center,
		Length:      sides[long],
		Width:       sides[short],
		Orientation: math.Atan2(d.Y, d.X) * 180 / math.Pi,
	}, true
}

func sameSize(r model.Rect, geom model.PlateGeometry) bool {
	return math.Abs(r.Length-geom.RectangularLength) <= dxfTolerance &&
		math.Abs(r.Width-geom.RectangularWidth) <= dxfTolerance
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
func chainSegments(segs []segment, tolerance float64) [][]model.Point2D {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines [][]model.Point2D

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []model.Point2D{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 3 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			chain = chain[:len(chain)-1]
			outlines = append(outlines, chain)
		}
	}

	return outlines
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b model.Point2D, tolerance float64) bool {
	return a.Dist(b) <= tolerance
}
