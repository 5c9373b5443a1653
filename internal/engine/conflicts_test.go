package engine

import (
	"math/rand"
	"testing"

	"github.com/piwi3910/plateplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGeom = model.DefaultGeometry()

func circle(idx int, x, y float64) *model.Probe {
	return model.NewCircularProbe(idx, model.Point2D{X: x, Y: y}, 0, testGeom)
}

// facingPair places two circular probes 24 mm apart on the x axis, so the
// radial areas pointing at each other overlap the neighbour.
func facingPair() []*model.Probe {
	return []*model.Probe{circle(1, 0, 0), circle(2, 24, 0)}
}

// crossLayout surrounds a probe at the origin with four neighbours, one on
// each of its pickup directions.
func crossLayout() []*model.Probe {
	return []*model.Probe{
		circle(1, 0, 0),
		circle(2, 24, 0),
		circle(3, -24, 0),
		circle(4, 0, 24),
		circle(5, 0, -24),
	}
}

func TestDetectConflicts_FacingPair(t *testing.T) {
	probes := facingPair()

	conflicts := DetectConflicts(probes, testGeom)
	require.Len(t, conflicts, 2)

	assert.Contains(t, conflicts, model.Conflict{
		Blocking: model.ProbeKey{Index: 2, Kind: model.Circular},
		Blocked:  model.ProbeKey{Index: 1, Kind: model.Circular},
		Area:     model.RadialOutward,
	})
	assert.Contains(t, conflicts, model.Conflict{
		Blocking: model.ProbeKey{Index: 1, Kind: model.Circular},
		Blocked:  model.ProbeKey{Index: 2, Kind: model.Circular},
		Area:     model.RadialInward,
	})
}

func TestDetectConflicts_IsPure(t *testing.T) {
	probes := facingPair()
	before := len(probes[0].Pickups)

	first := DetectConflicts(probes, testGeom)
	PruneBlocked(probes, first)
	second := DetectConflicts(probes, testGeom)

	assert.Equal(t, first, second, "detection does not depend on pruning")
	assert.Equal(t, before-1, len(probes[0].Pickups))
}

func TestDetectConflicts_SameIndexIgnored(t *testing.T) {
	circ, rect := model.NewProbePair(7, model.Point2D{X: 50, Y: 50}, 45, testGeom)

	assert.Empty(t, DetectConflicts([]*model.Probe{circ, rect}, testGeom))
}

func TestDetectConflicts_FarPairsNeverConflict(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	threshold := testGeom.ProximityThreshold()

	for trial := 0; trial < 200; trial++ {
		angle := rng.Float64() * 360
		dist := threshold + rng.Float64()*100
		offset := model.Direction(angle).Scale(dist)

		kinds := []model.ProbeKind{model.Circular, model.Rectangular}
		a := newProbe(kinds[rng.Intn(2)], 1, model.Point2D{}, rng.Float64()*360)
		b := newProbe(kinds[rng.Intn(2)], 2, offset, rng.Float64()*360)

		assert.Empty(t, DetectConflicts([]*model.Probe{a, b}, testGeom),
			"trial %d: distance %.2f", trial, dist)
	}
}

func newProbe(kind model.ProbeKind, idx int, c model.Point2D, orientation float64) *model.Probe {
	if kind == model.Circular {
		return model.NewCircularProbe(idx, c, orientation, testGeom)
	}
	return model.NewRectangularProbe(idx, c, orientation, testGeom)
}

func TestDetectConflicts_RectangleNeighbour(t *testing.T) {
	// A rectangle lying right across the circle's outward area.
	circ := circle(1, 0, 0)
	rect := model.NewRectangularProbe(2, model.Point2D{X: 17, Y: 0}, 90, testGeom)

	conflicts := DetectConflicts([]*model.Probe{circ, rect}, testGeom)

	var codes []model.PickupCode
	for _, c := range conflicts {
		if c.Blocked == circ.Key() {
			codes = append(codes, c.Area)
		}
	}
	assert.Contains(t, codes, model.RadialOutward)
	assert.NotContains(t, codes, model.RadialInward)
}

func TestFullyBlocked_CrossLayout(t *testing.T) {
	probes := crossLayout()

	conflicts := DetectConflicts(probes, testGeom)
	blocked := FullyBlocked(probes, conflicts)

	require.Equal(t, []model.ProbeKey{{Index: 1, Kind: model.Circular}}, blocked)
}

func TestFullyBlocked_MatchesEmptyPickupSet(t *testing.T) {
	for name, probes := range map[string][]*model.Probe{
		"facing": facingPair(),
		"cross":  crossLayout(),
	} {
		t.Run(name, func(t *testing.T) {
			conflicts := DetectConflicts(probes, testGeom)
			PruneBlocked(probes, conflicts)
			blocked := FullyBlocked(probes, conflicts)

			isBlocked := make(map[model.ProbeKey]bool)
			for _, k := range blocked {
				isBlocked[k] = true
			}
			for _, p := range probes {
				assert.Equal(t, len(p.Pickups) == 0, isBlocked[p.Key()], "probe %s", p.Key())
			}
		})
	}
}

func TestFullyBlocked_Deduplicates(t *testing.T) {
	rect := model.NewRectangularProbe(3, model.Point2D{}, 0, testGeom)
	other := model.ProbeKey{Index: 4, Kind: model.Circular}
	conflicts := []model.Conflict{
		{Blocking: other, Blocked: rect.Key(), Area: model.Inward},
		{Blocking: other, Blocked: rect.Key(), Area: model.Inward},
		{Blocking: model.ProbeKey{Index: 5}, Blocked: rect.Key(), Area: model.Inward},
	}
	assert.Empty(t, FullyBlocked([]*model.Probe{rect}, conflicts), "one code repeated is not both codes")

	conflicts = append(conflicts, model.Conflict{Blocking: other, Blocked: rect.Key(), Area: model.Outward})
	assert.Equal(t, []model.ProbeKey{rect.Key()}, FullyBlocked([]*model.Probe{rect, rect}, conflicts))
}
