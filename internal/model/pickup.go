package model

import "fmt"

// PickupCode tags a pickup area with the direction the gripper comes from.
type PickupCode int

const (
	TangentialRight PickupCode = iota
	TangentialLeft
	RadialInward
	RadialOutward
	Inward
	Outward
)

func (c PickupCode) String() string {
	switch c {
	case TangentialRight:
		return "tangential_right"
	case TangentialLeft:
		return "tangential_left"
	case RadialInward:
		return "radial_inward"
	case RadialOutward:
		return "radial_outward"
	case Inward:
		return "inward"
	case Outward:
		return "outward"
	default:
		return fmt.Sprintf("PickupCode(%d)", int(c))
	}
}

// Short returns the compact code used in robot files.
func (c PickupCode) Short() string {
	switch c {
	case TangentialRight:
		return "TR"
	case TangentialLeft:
		return "TL"
	case RadialInward:
		return "RI"
	case RadialOutward:
		return "RO"
	case Inward:
		return "I"
	case Outward:
		return "O"
	default:
		return "?"
	}
}

// PickupCodes returns the codes a probe kind offers, in pickup priority order.
func PickupCodes(kind ProbeKind) []PickupCode {
	switch kind {
	case Circular:
		return []PickupCode{TangentialRight, TangentialLeft, RadialOutward, RadialInward}
	case Rectangular:
		return []PickupCode{Inward, Outward}
	default:
		return nil
	}
}

// PickupArea is the zone the gripper occupies when approaching from Code.
type PickupArea struct {
	Code PickupCode `json:"code"`
	Rect Rect       `json:"rect"`
}

// approachAngle returns the direction (degrees) from the probe center
// towards the pickup area.
func approachAngle(code PickupCode, orientation float64) float64 {
	switch code {
	case TangentialRight:
		return orientation - 90
	case TangentialLeft:
		return orientation + 90
	case RadialInward, Inward:
		return orientation + 180
	case RadialOutward, Outward:
		return orientation
	default:
		panic(fmt.Sprintf("model: unknown pickup code %d", int(code)))
	}
}

// CreatePickupAreas computes the initial pickup areas of a probe. Each area
// is a GripperArmLength x GripperArmWidth rectangle touching the probe edge,
// its long side perpendicular to the approach direction.
func CreatePickupAreas(p *Probe, geom PlateGeometry) []PickupArea {
	var reach float64
	switch p.Kind {
	case Circular:
		reach = p.Radius
	case Rectangular:
		reach = p.Length / 2
	default:
		panic(fmt.Sprintf("model: unknown probe kind %d", int(p.Kind)))
	}
	offset := reach + geom.GripperArmWidth/2

	codes := PickupCodes(p.Kind)
	areas := make([]PickupArea, 0, len(codes))
	for _, code := range codes {
		phi := approachAngle(code, p.Orientation)
		areas = append(areas, PickupArea{
			Code: code,
			Rect: Rect{
				Center:      p.Center.Add(Direction(phi).Scale(offset)),
				Length:      geom.GripperArmLength,
				Width:       geom.GripperArmWidth,
				Orientation: phi + 90,
			},
		})
	}
	return areas
}

// HasPickup reports whether code is still among the probe's available areas.
func (p *Probe) HasPickup(code PickupCode) bool {
	for _, a := range p.Pickups {
		if a.Code == code {
			return true
		}
	}
	return false
}
