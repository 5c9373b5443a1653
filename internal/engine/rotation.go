package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/plateplan/internal/model"
)

// PickupAngle returns the gripper rotation used to pick a probe up from code.
func PickupAngle(code model.PickupCode) float64 {
	switch code {
	case model.TangentialRight:
		return 90
	case model.TangentialLeft:
		return 270
	case model.RadialOutward, model.Outward:
		return 180
	case model.RadialInward, model.Inward:
		return 0
	default:
		panic(fmt.Sprintf("engine: unknown pickup code %d", int(code)))
	}
}

// NormalizeAngle maps any angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 || a == 0 {
		return 0 // also clears -0
	}
	return a
}

// PutdownAngle returns the gripper rotation when putting the probe down.
func PutdownAngle(p *model.Probe, code model.PickupCode) float64 {
	switch p.Kind {
	case model.Circular:
		return NormalizeAngle(p.PositionAngle + PickupAngle(code))
	case model.Rectangular:
		relative := p.Orientation - p.PositionAngle
		return NormalizeAngle(p.PositionAngle + relative + PickupAngle(code))
	default:
		panic(fmt.Sprintf("engine: unknown probe kind %d", int(p.Kind)))
	}
}

// ChoosePickup picks the first available direction in priority order. A
// fully blocked probe is placed before its blockers, so it falls back to its
// best direction overall.
func ChoosePickup(p *model.Probe) model.PickupCode {
	codes := model.PickupCodes(p.Kind)
	for _, c := range codes {
		if p.HasPickup(c) {
			return c
		}
	}
	return codes[0]
}

// Assemble builds the output row for one probe.
func Assemble(p *model.Probe) model.PlacementRow {
	code := ChoosePickup(p)
	return model.PlacementRow{
		Kind:         p.Kind,
		Label:        p.Kind.Label(),
		X:            p.Center.X,
		Y:            p.Center.Y,
		PickupAngle:  PickupAngle(code),
		PutdownAngle: PutdownAngle(p, code),
		Order:        p.Order,
		PickupCode:   code.Short(),
		GalaxyID:     p.GalaxyID,
		Index:        p.Index,
		Bundle:       p.Bundle,
	}
}
