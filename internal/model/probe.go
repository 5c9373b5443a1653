package model

import (
	"fmt"
	"math"
)

// ProbeKind distinguishes the two magnet shapes that sit on the plate.
type ProbeKind int

const (
	Circular    ProbeKind = iota // Anchor magnet
	Rectangular                  // Carries the fiber bundle or guide marker
)

func (k ProbeKind) String() string {
	switch k {
	case Circular:
		return "circular"
	case Rectangular:
		return "rectangular"
	default:
		return fmt.Sprintf("ProbeKind(%d)", int(k))
	}
}

// Label returns the magnet label written to robot files.
func (k ProbeKind) Label() string {
	switch k {
	case Circular:
		return "circular_magnet"
	case Rectangular:
		return "rectangular_magnet"
	default:
		return "unknown_magnet"
	}
}

// MarshalText writes the kind by name in JSON output.
func (k ProbeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts any spelling known to ParseProbeKind.
func (k *ProbeKind) UnmarshalText(b []byte) error {
	kind, ok := ParseProbeKind(string(b))
	if !ok {
		return fmt.Errorf("unknown probe kind %q", b)
	}
	*k = kind
	return nil
}

// ParseProbeKind accepts the common spellings found in plate tables.
func ParseProbeKind(s string) (ProbeKind, bool) {
	switch s {
	case "circular", "circle", "c", "circular_magnet":
		return Circular, true
	case "rectangular", "rectangle", "r", "rect", "rectangular_magnet":
		return Rectangular, true
	default:
		return Circular, false
	}
}

// TargetType is what the probe's fiber looks at.
type TargetType int

const (
	TargetGalaxy       TargetType = iota // Science galaxy, gets a hexabundle
	TargetStandardStar                   // Calibration star, gets a small hexabundle
	TargetGuide                          // Guide star, never drawn from the inventory
)

func (t TargetType) String() string {
	switch t {
	case TargetGalaxy:
		return "galaxy"
	case TargetStandardStar:
		return "star"
	case TargetGuide:
		return "guide"
	default:
		return fmt.Sprintf("TargetType(%d)", int(t))
	}
}

// ParseTargetType converts a table cell into a TargetType.
func ParseTargetType(s string) (TargetType, bool) {
	switch s {
	case "galaxy", "g", "1":
		return TargetGalaxy, true
	case "star", "standard", "standard_star", "s", "0":
		return TargetStandardStar, true
	case "guide", "guide_star", "gs":
		return TargetGuide, true
	default:
		return TargetGalaxy, false
	}
}

// ProbeKey identifies a probe uniquely: paired probes share Index but not Kind.
type ProbeKey struct {
	Index int       `json:"index"`
	Kind  ProbeKind `json:"kind"`
}

func (k ProbeKey) String() string {
	return fmt.Sprintf("%s#%d", k.Kind, k.Index)
}

// Probe is one magnet position on the plate for the current tile.
type Probe struct {
	Index         int        `json:"index"`
	Kind          ProbeKind  `json:"kind"`
	Center        Point2D    `json:"center"`
	Orientation   float64    `json:"orientation"`    // Radial axis direction in degrees
	PositionAngle float64    `json:"position_angle"` // Sky position angle in degrees
	Radius        float64    `json:"radius,omitempty"`
	Length        float64    `json:"length,omitempty"`
	Width         float64    `json:"width,omitempty"`
	Target        TargetType `json:"target"`
	GalaxyID      string     `json:"galaxy_id"`

	// Photometry, read only by the allocator
	EffectiveRadius   float64 `json:"re"`
	Mass              float64 `json:"mass"`
	SurfaceBrightness float64 `json:"sb"`

	Pickups        []PickupArea `json:"pickups"`         // Currently available pickup areas
	PlacementIndex int          `json:"placement_index"` // Scheduler working value
	Unresolved     bool         `json:"unresolved"`
	Order          int          `json:"order"`
	Bundle         string       `json:"bundle"`
}

// Key returns the probe's identity.
func (p *Probe) Key() ProbeKey {
	return ProbeKey{Index: p.Index, Kind: p.Kind}
}

// Shape returns the probe's physical footprint.
func (p *Probe) Shape() Shape {
	switch p.Kind {
	case Circular:
		return Circle{Center: p.Center, Radius: p.Radius}
	case Rectangular:
		return Rect{Center: p.Center, Length: p.Length, Width: p.Width, Orientation: p.Orientation}
	default:
		panic(fmt.Sprintf("model: unknown probe kind %d", int(p.Kind)))
	}
}

// IsEligible reports whether the probe takes a bundle from the inventory.
func (p *Probe) IsEligible() bool {
	return p.Kind == Rectangular && (p.Target == TargetGalaxy || p.Target == TargetStandardStar)
}

// NewCircularProbe builds a circular probe with its initial pickup set.
func NewCircularProbe(index int, center Point2D, orientation float64, geom PlateGeometry) *Probe {
	p := &Probe{
		Index:          index,
		Kind:           Circular,
		Center:         center,
		Orientation:    orientation,
		Radius:         geom.CircularRadius,
		PlacementIndex: 1,
	}
	p.Pickups = CreatePickupAreas(p, geom)
	return p
}

// NewRectangularProbe builds a rectangular probe with its initial pickup set.
func NewRectangularProbe(index int, center Point2D, orientation float64, geom PlateGeometry) *Probe {
	p := &Probe{
		Index:          index,
		Kind:           Rectangular,
		Center:         center,
		Orientation:    orientation,
		Length:         geom.RectangularLength,
		Width:          geom.RectangularWidth,
		PlacementIndex: 1,
	}
	p.Pickups = CreatePickupAreas(p, geom)
	return p
}

// NewProbePair builds the circular anchor at center and its rectangular
// partner PairDistance further out along the orientation axis.
func NewProbePair(index int, center Point2D, orientation float64, geom PlateGeometry) (*Probe, *Probe) {
	circ := NewCircularProbe(index, center, orientation, geom)
	rectCenter := center.Add(Direction(orientation).Scale(geom.PairDistance))
	rect := NewRectangularProbe(index, rectCenter, orientation, geom)
	return circ, rect
}

// pairTolerance is the allowed deviation of paired centers in mm.
const pairTolerance = 1e-6

// ValidatePairs checks that every circular probe with a rectangular partner
// sits PairDistance away from it along the partner's orientation axis.
func ValidatePairs(probes []*Probe, geom PlateGeometry) error {
	rects := make(map[int]*Probe)
	seen := make(map[ProbeKey]bool)
	for _, p := range probes {
		if seen[p.Key()] {
			return fmt.Errorf("duplicate probe %s", p.Key())
		}
		seen[p.Key()] = true
		if p.Kind == Rectangular {
			rects[p.Index] = p
		}
	}
	for _, p := range probes {
		if p.Kind != Circular {
			continue
		}
		r, ok := rects[p.Index]
		if !ok {
			continue
		}
		offset := r.Center.Sub(p.Center)
		axis := Direction(r.Orientation)
		sideways := offset.X*axis.Y - offset.Y*axis.X
		if math.Abs(math.Hypot(offset.X, offset.Y)-geom.PairDistance) > pairTolerance || math.Abs(sideways) > pairTolerance {
			return fmt.Errorf("probe %d: circular and rectangular centers are %.4f mm apart, want %.1f along the rectangle axis",
				p.Index, p.Center.Dist(r.Center), geom.PairDistance)
		}
	}
	return nil
}
