// Package engine plans one tile: it finds pickup-area conflicts between
// nearby probes, orders blocked probes and assembles the robot rows.
package engine

import (
	"github.com/piwi3910/plateplan/internal/geometry"
	"github.com/piwi3910/plateplan/internal/model"
)

// DetectConflicts tests every pair of probes closer than the proximity
// threshold. Each pickup area of one probe is tested against the full shape
// of the other, in both directions. Probes sharing an index belong to the
// same assembly and are never tested against each other.
//
// The probes are not modified: pickup areas are recomputed from geometry so
// the result does not depend on earlier pruning.
func DetectConflicts(probes []*model.Probe, geom model.PlateGeometry) []model.Conflict {
	threshold := geom.ProximityThreshold()

	var conflicts []model.Conflict
	for i := 0; i < len(probes); i++ {
		for j := i + 1; j < len(probes); j++ {
			a, b := probes[i], probes[j]
			if a.Index == b.Index {
				continue
			}
			if a.Center.Dist(b.Center) >= threshold {
				continue
			}
			conflicts = append(conflicts, blockedAreas(a, b, geom)...)
			conflicts = append(conflicts, blockedAreas(b, a, geom)...)
		}
	}
	return conflicts
}

// blockedAreas returns a conflict for each pickup area of blocked that the
// blocker's footprint overlaps.
func blockedAreas(blocked, blocker *model.Probe, geom model.PlateGeometry) []model.Conflict {
	shape := blocker.Shape()
	var out []model.Conflict
	for _, area := range model.CreatePickupAreas(blocked, geom) {
		if geometry.Overlaps(area.Rect, shape) {
			out = append(out, model.Conflict{
				Blocking: blocker.Key(),
				Blocked:  blocked.Key(),
				Area:     area.Code,
			})
		}
	}
	return out
}

// PruneBlocked removes every conflicted pickup area from its probe's
// available set.
func PruneBlocked(probes []*model.Probe, conflicts []model.Conflict) {
	blocked := make(map[model.ProbeKey]map[model.PickupCode]bool)
	for _, c := range conflicts {
		if blocked[c.Blocked] == nil {
			blocked[c.Blocked] = make(map[model.PickupCode]bool)
		}
		blocked[c.Blocked][c.Area] = true
	}
	for _, p := range probes {
		codes := blocked[p.Key()]
		if len(codes) == 0 {
			continue
		}
		kept := p.Pickups[:0]
		for _, a := range p.Pickups {
			if !codes[a.Code] {
				kept = append(kept, a)
			}
		}
		p.Pickups = kept
	}
}

// FullyBlocked returns the probes whose every pickup direction appears in
// the conflict list, in input order.
func FullyBlocked(probes []*model.Probe, conflicts []model.Conflict) []model.ProbeKey {
	codes := make(map[model.ProbeKey]map[model.PickupCode]bool)
	for _, c := range conflicts {
		if codes[c.Blocked] == nil {
			codes[c.Blocked] = make(map[model.PickupCode]bool)
		}
		codes[c.Blocked][c.Area] = true
	}

	var out []model.ProbeKey
	seen := make(map[model.ProbeKey]bool)
	for _, p := range probes {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		all := model.PickupCodes(p.Kind)
		if len(all) > 0 && len(codes[key]) >= len(all) {
			out = append(out, key)
		}
	}
	return out
}
