// Package allocate assigns hexabundles from the fixed inventory to the
// galaxy and standard-star probes of a tile, keeping repeat observations of
// a galaxy on the bundle it was first observed with.
package allocate

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/piwi3910/plateplan/internal/model"
)

// Allocator runs the hexabundle allocation rules for one tile at a time.
type Allocator struct {
	Settings model.AllocatorSettings
	Log      *slog.Logger
	Flags    io.Writer // Append-only flags log; may be nil
}

// New returns an Allocator with the given thresholds.
func New(settings model.AllocatorSettings) *Allocator {
	return &Allocator{Settings: settings, Log: slog.Default()}
}

// Result is the outcome of one tile's allocation.
type Result struct {
	Assignments map[int]string      // Rectangular probe index -> bundle
	Record      *model.GalaxyRecord // Record to carry into the next tile
	Flags       []string
}

// tileAllocation is the working state of a single Allocate call.
type tileAllocation struct {
	tile     model.Tile
	settings model.AllocatorSettings
	inv      *model.Inventory
	assigned map[int]string
	pinned   map[int]bool // Set by the continuity pass; never swapped
	flags    []string
}

func (ta *tileAllocation) flag(format string, args ...any) {
	ta.flags = append(ta.flags, fmt.Sprintf(format, args...))
}

func (ta *tileAllocation) give(p *model.Probe, b model.Bundle) {
	ta.assigned[p.Index] = b.ID
}

// Allocate assigns bundles to the eligible probes of a tile. The incoming
// record is not modified; the returned Result carries the updated copy.
// Probe Bundle fields are written only when allocation succeeds.
func (a *Allocator) Allocate(tile model.Tile, probes []*model.Probe, record *model.GalaxyRecord) (*Result, error) {
	log := a.Log
	if log == nil {
		log = slog.Default()
	}

	ta := &tileAllocation{
		tile:     tile,
		settings: a.Settings,
		inv:      model.NewInventory(),
		assigned: make(map[int]string),
		pinned:   make(map[int]bool),
	}

	var galaxies, stars, eligible []*model.Probe
	for _, p := range probes {
		if !p.IsEligible() {
			continue
		}
		eligible = append(eligible, p)
		if p.Target == model.TargetGalaxy {
			galaxies = append(galaxies, p)
		} else {
			stars = append(stars, p)
		}
	}

	ta.continuity(galaxies, record)
	ta.reserveStars(stars)
	ta.largeBundles(ta.unassigned(galaxies))
	ta.midBundles(ta.unassigned(galaxies))
	ta.tieBreak(galaxies)
	if err := ta.reconcile(eligible); err != nil {
		log.Error("allocation failed", slog.String("tile", tile.String()), slog.String("error", err.Error()))
		return nil, err
	}

	next := record.Clone()
	for _, g := range galaxies {
		id, ok := ta.assigned[g.Index]
		if !ok || g.GalaxyID == "" {
			continue
		}
		if _, known := next.Lookup(g.GalaxyID); !known {
			next.Set(g.GalaxyID, id)
		}
	}

	applyBundles(probes, ta.assigned)

	for _, f := range ta.flags {
		log.Warn("allocation flag", slog.String("tile", tile.String()), slog.String("flag", f))
		if a.Flags != nil {
			if _, err := fmt.Fprintf(a.Flags, "%s\t%s\n", tile, f); err != nil {
				return nil, fmt.Errorf("write flags log: %w", err)
			}
		}
	}
	log.Info("bundles allocated",
		slog.String("tile", tile.String()),
		slog.Int("eligible", len(eligible)),
		slog.Int("assigned", len(ta.assigned)),
		slog.Int("flags", len(ta.flags)))

	return &Result{Assignments: ta.assigned, Record: next, Flags: ta.flags}, nil
}

// unassigned filters probes that have no bundle yet, keeping order.
func (ta *tileAllocation) unassigned(probes []*model.Probe) []*model.Probe {
	var out []*model.Probe
	for _, p := range probes {
		if _, ok := ta.assigned[p.Index]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// continuity gives galaxies seen in earlier tiles their recorded bundle, or
// the nearest same-family bundle of at least the same size when another
// probe of this tile already holds it.
func (ta *tileAllocation) continuity(galaxies []*model.Probe, record *model.GalaxyRecord) {
	for _, g := range galaxies {
		if g.GalaxyID == "" {
			continue
		}
		prev, ok := record.Lookup(g.GalaxyID)
		if !ok || model.IsGuideBundle(prev) {
			continue
		}
		want, known := model.LookupBundle(prev)
		if !known {
			ta.flag("galaxy %s: recorded bundle %q is not in the inventory (%v), allocating afresh", g.GalaxyID, prev, ErrUnknownBundle)
			continue
		}
		if b, ok := ta.inv.Take(want.ID); ok {
			ta.give(g, b)
			ta.pinned[g.Index] = true
			continue
		}

		family := want.Family
		candidates := ta.inv.Select(func(b model.Bundle) bool {
			return b.Family == family && b.Cores >= want.Cores
		})
		if len(candidates) == 0 {
			ta.flag("galaxy %s: %s family exhausted above %d cores, escalating to %s",
				g.GalaxyID, family, want.Cores, family.Other())
			family = family.Other()
			candidates = ta.inv.Select(func(b model.Bundle) bool {
				return b.Family == family && b.Cores >= want.Cores
			})
		}
		if len(candidates) == 0 {
			ta.flag("galaxy %s: no bundle of %d cores or more left for recorded %s, deferring to priority passes",
				g.GalaxyID, want.Cores, want.ID)
			continue
		}
		b, _ := ta.inv.Take(candidates[0].ID)
		ta.give(g, b)
		ta.pinned[g.Index] = true
		ta.flag("galaxy %s: recorded bundle %s already used, assigned %s", g.GalaxyID, want.ID, b.ID)
	}
}

// reserveStars hands the smallest bundles to standard stars first.
func (ta *tileAllocation) reserveStars(stars []*model.Probe) {
	small := ta.inv.Select(func(b model.Bundle) bool { return b.Cores == model.CoresSmall })
	for _, s := range ta.unassigned(stars) {
		if len(small) == 0 {
			break
		}
		b, _ := ta.inv.Take(small[0].ID)
		small = small[1:]
		ta.give(s, b)
	}
}

// largeBundles gives every bundle above the mid size to the galaxies with
// the largest effective radius.
func (ta *tileAllocation) largeBundles(galaxies []*model.Probe) {
	ranked := append([]*model.Probe(nil), galaxies...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].EffectiveRadius != ranked[j].EffectiveRadius {
			return ranked[i].EffectiveRadius > ranked[j].EffectiveRadius
		}
		return ranked[i].Index < ranked[j].Index
	})

	large := ta.inv.Select(func(b model.Bundle) bool { return b.Cores > model.CoresMid })
	sort.SliceStable(large, func(i, j int) bool {
		return large[i].Cores > large[j].Cores
	})

	next := 0
	for next < len(ranked) && len(large) > 0 {
		if ranked[next].EffectiveRadius < ta.settings.LargeBundleMinRadius {
			break
		}
		b, _ := ta.inv.Take(large[0].ID)
		ta.give(ranked[next], b)
		large = large[1:]
		next++
	}

	if len(large) > 0 && next < len(ranked) {
		ta.flag("rare case: %d large bundles left after the radius rule (min %.2f), assigning by radius order",
			len(large), ta.settings.LargeBundleMinRadius)
		for next < len(ranked) && len(large) > 0 {
			b, _ := ta.inv.Take(large[0].ID)
			ta.give(ranked[next], b)
			large = large[1:]
			next++
		}
	}
}

// byMass sorts probes by mass ascending, index breaking ties.
func byMass(ps []*model.Probe) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Mass != ps[j].Mass {
			return ps[i].Mass < ps[j].Mass
		}
		return ps[i].Index < ps[j].Index
	})
}

// midBundles splits the 61-core bundles between the two spectrographs,
// serving low surface brightness galaxies first.
func (ta *tileAllocation) midBundles(galaxies []*model.Probe) {
	var faint, rest []*model.Probe
	for _, g := range galaxies {
		if g.SurfaceBrightness < ta.settings.SurfaceBrightnessCutoff {
			faint = append(faint, g)
		} else {
			rest = append(rest, g)
		}
	}
	byMass(faint)
	byMass(rest)
	queue := append(faint, rest...)

	pools := map[model.Spectrograph][]model.Bundle{}
	for _, fam := range []model.Spectrograph{model.AAOmega, model.Spector} {
		fam := fam
		pools[fam] = ta.inv.Select(func(b model.Bundle) bool {
			return b.Cores == model.CoresMid && b.Family == fam
		})
	}

	turn := model.AAOmega
	for _, g := range queue {
		if len(pools[turn]) == 0 {
			turn = turn.Other()
		}
		if len(pools[turn]) == 0 {
			return
		}
		b, _ := ta.inv.Take(pools[turn][0].ID)
		pools[turn] = pools[turn][1:]
		ta.give(g, b)
		turn = turn.Other()
	}
}

// tieBreak makes sure the Spector 91-core bundle I serves the lighter galaxy
// when both 91-core bundles went to galaxies in the priority passes.
func (ta *tileAllocation) tieBreak(galaxies []*model.Probe) {
	var withD, withI *model.Probe
	for _, g := range galaxies {
		if ta.pinned[g.Index] {
			continue
		}
		switch ta.assigned[g.Index] {
		case "D":
			withD = g
		case "I":
			withI = g
		}
	}
	if withD == nil || withI == nil {
		return
	}
	if withI.Mass > withD.Mass {
		ta.assigned[withD.Index], ta.assigned[withI.Index] = "I", "D"
	}
}

// reconcile repairs duplicate or missing assignments from the bundles the
// allocation did not use.
func (ta *tileAllocation) reconcile(eligible []*model.Probe) error {
	owner := make(map[string]int)
	for _, p := range eligible {
		id, ok := ta.assigned[p.Index]
		if !ok {
			continue
		}
		if first, dup := owner[id]; dup {
			ta.flag("bundle %s assigned to probes %d and %d, reassigning %d", id, first, p.Index, p.Index)
			delete(ta.assigned, p.Index)
			continue
		}
		owner[id] = p.Index
	}

	missing := func() []string {
		var ids []string
		for _, id := range model.AllBundleIDs() {
			if _, used := owner[id]; !used {
				ids = append(ids, id)
			}
		}
		return ids
	}

	for _, p := range ta.unassigned(eligible) {
		free := missing()
		if len(free) == 0 {
			ta.flag("probe %d (%s): %v, left without a bundle", p.Index, p.GalaxyID, ErrInventoryExhausted)
			continue
		}
		id := free[0]
		b, ok := ta.inv.Take(id)
		if !ok {
			return &AllocationError{
				Tile:       ta.tile.String(),
				ProbeIndex: p.Index,
				Bundle:     id,
				Reason:     "bundle missing from the allocation but not in the inventory",
			}
		}
		ta.give(p, b)
		owner[id] = p.Index
		ta.flag("probe %d (%s): unallocated after priority passes, assigned %s", p.Index, p.GalaxyID, id)
	}

	seen := make(map[string]int)
	for _, p := range eligible {
		id, ok := ta.assigned[p.Index]
		if !ok {
			continue
		}
		if first, dup := seen[id]; dup {
			return &AllocationError{
				Tile:       ta.tile.String(),
				ProbeIndex: p.Index,
				Bundle:     id,
				Reason:     fmt.Sprintf("also assigned to probe %d", first),
			}
		}
		seen[id] = p.Index
	}
	return nil
}

// applyBundles writes the final identifiers onto the probes. Guide probes
// get GS<n> in encounter order and circular probes follow their partner.
func applyBundles(probes []*model.Probe, assigned map[int]string) {
	byIndex := make(map[int]string, len(assigned))
	for k, v := range assigned {
		byIndex[k] = v
	}
	guide := 0
	for _, p := range probes {
		if p.Kind == model.Rectangular && p.Target == model.TargetGuide {
			guide++
			byIndex[p.Index] = fmt.Sprintf("GS%d", guide)
		}
	}
	for _, p := range probes {
		p.Bundle = byIndex[p.Index]
	}
}
