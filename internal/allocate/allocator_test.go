package allocate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/piwi3910/plateplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTile = model.Tile{ID: "T001", Field: "G12"}

func galaxy(idx int, id string, re, mass, sb float64) *model.Probe {
	return &model.Probe{
		Index:             idx,
		Kind:              model.Rectangular,
		Target:            model.TargetGalaxy,
		GalaxyID:          id,
		EffectiveRadius:   re,
		Mass:              mass,
		SurfaceBrightness: sb,
	}
}

func star(idx int) *model.Probe {
	return &model.Probe{Index: idx, Kind: model.Rectangular, Target: model.TargetStandardStar, GalaxyID: fmt.Sprintf("STAR%d", idx)}
}

func guide(idx int) *model.Probe {
	return &model.Probe{Index: idx, Kind: model.Rectangular, Target: model.TargetGuide}
}

// galaxies builds n galaxies with distinct, descending radii.
func galaxies(n, firstIndex int) []*model.Probe {
	var ps []*model.Probe
	for i := 0; i < n; i++ {
		idx := firstIndex + i
		ps = append(ps, galaxy(idx, fmt.Sprintf("G%d", idx), float64(30-i), float64(10+i%7), 21+float64(i%3)))
	}
	return ps
}

func newTestAllocator() *Allocator {
	return New(model.DefaultAllocatorSettings())
}

func distinctBundles(assigned map[int]string) int {
	seen := make(map[string]bool)
	for _, b := range assigned {
		seen[b] = true
	}
	return len(seen)
}

func TestAllocate_Deterministic(t *testing.T) {
	build := func() []*model.Probe {
		ps := append(galaxies(17, 1), star(18), star(19))
		return append(ps, guide(20))
	}

	first, err := newTestAllocator().Allocate(testTile, build(), model.NewGalaxyRecord())
	require.NoError(t, err)
	second, err := newTestAllocator().Allocate(testTile, build(), model.NewGalaxyRecord())
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Record.Bundles, second.Record.Bundles)
}

func TestAllocate_DistinctCountMatchesEligible(t *testing.T) {
	for _, n := range []int{1, 10, 21, 25} {
		t.Run(fmt.Sprintf("%d galaxies", n), func(t *testing.T) {
			res, err := newTestAllocator().Allocate(testTile, galaxies(n, 1), model.NewGalaxyRecord())
			require.NoError(t, err)

			want := n
			if want > 21 {
				want = 21
			}
			assert.Equal(t, want, distinctBundles(res.Assignments))
			assert.Len(t, res.Assignments, want, "every bundle is used at most once")
		})
	}
}

func TestAllocate_OverCapacityIsFlagged(t *testing.T) {
	res, err := newTestAllocator().Allocate(testTile, galaxies(23, 1), model.NewGalaxyRecord())
	require.NoError(t, err)

	exhausted := 0
	for _, f := range res.Flags {
		if strings.Contains(f, "inventory exhausted") {
			exhausted++
		}
	}
	assert.Equal(t, 2, exhausted)
}

func TestAllocate_StarsGetSmallestBundles(t *testing.T) {
	probes := append(galaxies(5, 1), star(6), star(7))

	res, err := newTestAllocator().Allocate(testTile, probes, model.NewGalaxyRecord())
	require.NoError(t, err)

	assert.Equal(t, "T", res.Assignments[6])
	assert.Equal(t, "U", res.Assignments[7])
}

func TestAllocate_LargeBundlesFollowRadius(t *testing.T) {
	probes := []*model.Probe{
		galaxy(1, "small", 2, 5, 23),
		galaxy(2, "huge1", 20, 50, 23),
		galaxy(3, "huge2", 15, 40, 23),
		galaxy(4, "large", 12, 30, 23),
		galaxy(5, "med1", 10, 10, 23), // lighter, should end up on I
		galaxy(6, "med2", 9, 20, 23),
	}

	res, err := newTestAllocator().Allocate(testTile, probes, model.NewGalaxyRecord())
	require.NoError(t, err)

	assert.Equal(t, "A", res.Assignments[2])
	assert.Equal(t, "B", res.Assignments[3])
	assert.Equal(t, "C", res.Assignments[4])
	assert.Equal(t, "I", res.Assignments[5], "I goes to the lower-mass galaxy")
	assert.Equal(t, "D", res.Assignments[6])
	b, ok := model.LookupBundle(res.Assignments[1])
	require.True(t, ok)
	assert.Equal(t, model.CoresMid, b.Cores)
}

func TestAllocate_RareCaseAssignsLargeBundlesAnyway(t *testing.T) {
	probes := galaxies(8, 1)
	for _, p := range probes {
		p.EffectiveRadius = 1.5
	}

	res, err := newTestAllocator().Allocate(testTile, probes, model.NewGalaxyRecord())
	require.NoError(t, err)

	used := make(map[string]bool)
	for _, b := range res.Assignments {
		used[b] = true
	}
	for _, id := range []string{"A", "B", "C", "D", "I"} {
		assert.True(t, used[id], "large bundle %s should still be assigned", id)
	}
	require.NotEmpty(t, res.Flags)
	assert.Contains(t, res.Flags[0], "rare case")
}

func TestAllocate_MidBundlesServeFaintGalaxiesFirst(t *testing.T) {
	alloc := newTestAllocator()
	alloc.Settings.LargeBundleMinRadius = 0

	probes := galaxies(5, 1) // take the five large bundles
	probes = append(probes,
		galaxy(6, "bright", 1, 9, 25),
		galaxy(7, "faintHeavy", 1, 11, 20),
		galaxy(8, "faintLight", 1, 10, 21),
	)

	res, err := alloc.Allocate(testTile, probes, model.NewGalaxyRecord())
	require.NoError(t, err)

	assert.Equal(t, "E", res.Assignments[8], "faint and lightest first, AAOmega pool")
	assert.Equal(t, "J", res.Assignments[7], "second pick alternates to Spector")
	assert.Equal(t, "F", res.Assignments[6])
}

func TestAllocate_ContinuityReusesRecordedBundle(t *testing.T) {
	record := model.NewGalaxyRecord()
	record.Set("G3", "K")

	res, err := newTestAllocator().Allocate(testTile, galaxies(6, 1), record)
	require.NoError(t, err)

	assert.Equal(t, "K", res.Assignments[3])
}

func TestAllocate_ContinuityWalksToNextLargerSameFamily(t *testing.T) {
	record := model.NewGalaxyRecord()
	record.Set("G3", "C")
	record.Set("G7", "C")

	probes := []*model.Probe{
		galaxy(1, "G3", 4, 10, 23),
		galaxy(2, "G7", 4, 10, 23),
		galaxy(3, "G9", 4, 10, 23),
	}

	res, err := newTestAllocator().Allocate(testTile, probes, record)
	require.NoError(t, err)

	assert.Equal(t, "C", res.Assignments[1])
	got := res.Assignments[2]
	assert.NotEqual(t, "C", got)
	b, ok := model.LookupBundle(got)
	require.True(t, ok)
	assert.Equal(t, model.AAOmega, b.Family)
	assert.Greater(t, b.Cores, model.CoresLarge)
	assert.Equal(t, "A", got)
}

func TestAllocate_ContinuityEscalatesAcrossFamilies(t *testing.T) {
	record := model.NewGalaxyRecord()
	record.Set("G1", "D")
	record.Set("G2", "D")
	record.Set("G3", "D")
	record.Set("G4", "D")
	record.Set("G5", "D")

	var flags bytes.Buffer
	alloc := newTestAllocator()
	alloc.Flags = &flags

	res, err := alloc.Allocate(testTile, galaxies(5, 1), record)
	require.NoError(t, err)

	assert.Equal(t, "D", res.Assignments[1])
	assert.Equal(t, "C", res.Assignments[2])
	assert.Equal(t, "A", res.Assignments[3])
	assert.Equal(t, "B", res.Assignments[4])
	assert.Equal(t, "I", res.Assignments[5], "AAOmega has nothing left at 91 cores or more")
	assert.Contains(t, flags.String(), "family exhausted")
	assert.Contains(t, flags.String(), testTile.String())
}

func TestAllocate_RecordUpdate(t *testing.T) {
	record := model.NewGalaxyRecord()
	record.Set("G2", "M")

	probes := append(galaxies(3, 1), star(4))
	res, err := newTestAllocator().Allocate(testTile, probes, record)
	require.NoError(t, err)

	assert.Equal(t, 1, record.Len(), "incoming record is left untouched")
	assert.Equal(t, 3, res.Record.Len(), "stars are not recorded")
	got, _ := res.Record.Lookup("G2")
	assert.Equal(t, "M", got)
	got, _ = res.Record.Lookup("G1")
	assert.Equal(t, res.Assignments[1], got)
}

func TestAllocate_GuidesAndPartners(t *testing.T) {
	circ := &model.Probe{Index: 1, Kind: model.Circular}
	rect := galaxy(1, "G1", 20, 10, 23)
	g1 := guide(2)
	g1c := &model.Probe{Index: 2, Kind: model.Circular}
	g2 := guide(3)

	probes := []*model.Probe{circ, rect, g1, g1c, g2}
	res, err := newTestAllocator().Allocate(testTile, probes, model.NewGalaxyRecord())
	require.NoError(t, err)

	assert.Equal(t, "A", rect.Bundle)
	assert.Equal(t, rect.Bundle, circ.Bundle, "paired probes share the bundle")
	assert.Equal(t, "GS1", g1.Bundle)
	assert.Equal(t, "GS1", g1c.Bundle)
	assert.Equal(t, "GS2", g2.Bundle)
	assert.NotContains(t, res.Assignments, 2, "guide probes never draw from the inventory")
}

func TestReconcile_InconsistentInventoryIsFatal(t *testing.T) {
	ta := &tileAllocation{
		tile:     testTile,
		inv:      model.NewInventory(),
		assigned: make(map[int]string),
		pinned:   make(map[int]bool),
	}
	ta.inv.Take("A") // Taken but never recorded

	err := ta.reconcile([]*model.Probe{galaxy(4, "G4", 1, 1, 1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllocation))

	var ae *AllocationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 4, ae.ProbeIndex)
	assert.Equal(t, "A", ae.Bundle)
	assert.Contains(t, err.Error(), testTile.String())
}

func TestReconcile_DuplicateIsReassigned(t *testing.T) {
	ta := &tileAllocation{
		tile:     testTile,
		inv:      model.NewInventory(),
		assigned: map[int]string{1: "E", 2: "E"},
		pinned:   make(map[int]bool),
	}
	ta.inv.Take("E")

	err := ta.reconcile([]*model.Probe{galaxy(1, "G1", 1, 1, 1), galaxy(2, "G2", 1, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, "E", ta.assigned[1])
	assert.Equal(t, "A", ta.assigned[2])
}
