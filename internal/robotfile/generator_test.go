package robotfile

import (
	"math"
	"strings"
	"testing"

	"github.com/piwi3910/plateplan/internal/model"
)

func newTestPlan() *model.TilePlan {
	plan := model.NewTilePlan(model.Tile{ID: "T001", Field: "G12"})
	plan.Rows = []model.PlacementRow{
		{Kind: model.Circular, X: 24, Y: 0, PickupAngle: 90, PutdownAngle: 105, Order: 1, PickupCode: "TR", Index: 2, Bundle: "C"},
		{Kind: model.Rectangular, X: 51.2, Y: 0, PickupAngle: 0, PutdownAngle: 0, Order: 1, PickupCode: "I", Index: 2, Bundle: "C", GalaxyID: "G5"},
		{Kind: model.Circular, X: 0, Y: 0, PickupAngle: 180, PutdownAngle: 180, Order: 2, PickupCode: "RO", Index: 1},
		{Kind: model.Circular, X: -80, Y: 12.5, Order: 0, Index: 3},
	}
	return plan
}

func TestGenerate_PlacementCycles(t *testing.T) {
	gen := New(DefaultSettings(), "Generic")
	code := gen.Generate(newTestPlan())

	if !strings.Contains(code, "tile G12/T001") {
		t.Errorf("expected tile in header, got:\n%s", code)
	}
	if got := strings.Count(code, "M101\n"); got != 3 {
		t.Errorf("expected 3 grips, got %d", got)
	}
	if got := strings.Count(code, "M102\n"); got != 3 {
		t.Errorf("expected 3 releases, got %d", got)
	}
	if !strings.Contains(code, "M100 PC\n") {
		t.Error("expected bundle C to be loaded")
	}
	if !strings.Contains(code, "M100 P-\n") {
		t.Error("expected a placeholder for a probe without a bundle")
	}
	if !strings.Contains(code, "G0 X51.200 Y0.000\n") {
		t.Error("expected a move to the rectangular probe")
	}
	if !strings.Contains(code, "1 probes skipped") || !strings.Contains(code, "probe 3 circular at X-80.000 Y12.500") {
		t.Errorf("expected the unresolved probe to be listed, got:\n%s", code)
	}
}

func TestGenerate_OrderIsKept(t *testing.T) {
	code := New(DefaultSettings(), "Generic").Generate(newTestPlan())

	first := strings.Index(code, "probe 2 circular")
	last := strings.Index(code, "probe 1 circular")
	if first < 0 || last < 0 || first > last {
		t.Errorf("expected order 1 before order 2")
	}
}

func TestGenerate_FooterSubstitutesSafeZ(t *testing.T) {
	s := DefaultSettings()
	s.SafeZ = 35
	code := New(s, "Grbl").Generate(newTestPlan())

	if !strings.Contains(code, "G0 Z35.000\nG0 X0 Y0\nM2\n") {
		t.Errorf("expected footer with safe Z, got:\n%s", code)
	}
	if strings.Contains(code, "[SafeZ]") {
		t.Error("placeholder left in output")
	}
}

func TestGenerate_LinuxCNCComments(t *testing.T) {
	code := New(DefaultSettings(), "LinuxCNC").Generate(newTestPlan())

	if !strings.HasPrefix(code, "( plateplan robot program") {
		t.Errorf("expected parenthetical comment, got %q", strings.SplitN(code, "\n", 2)[0])
	}
	if !strings.Contains(code, "G0 A105.0000\n") {
		t.Error("expected rotation on the A axis with 4 decimals")
	}
}

func TestGetProfile_FallsBackToGeneric(t *testing.T) {
	if p := GetProfile("no-such-robot"); p.Name != "Generic" {
		t.Errorf("expected Generic, got %s", p.Name)
	}
	if !HasProfile("Grbl") || HasProfile("no-such-robot") {
		t.Error("HasProfile disagrees with the built-in list")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, name := range []string{"Generic", "Grbl", "LinuxCNC"} {
		plan := newTestPlan()
		gen := New(DefaultSettings(), name)
		prog := Parse(gen.Generate(plan), gen.Profile())

		if len(prog.Placements) != 3 {
			t.Fatalf("%s: expected 3 placements, got %d", name, len(prog.Placements))
		}
		for i, got := range prog.Placements {
			want := plan.Rows[i]
			if math.Abs(got.X-want.X) > 1e-3 || math.Abs(got.Y-want.Y) > 1e-3 {
				t.Errorf("%s: placement %d at (%.3f, %.3f), want (%.3f, %.3f)", name, i, got.X, got.Y, want.X, want.Y)
			}
			if got.PickupAngle != want.PickupAngle || got.PutdownAngle != want.PutdownAngle {
				t.Errorf("%s: placement %d angles %.1f/%.1f, want %.1f/%.1f",
					name, i, got.PickupAngle, got.PutdownAngle, want.PickupAngle, want.PutdownAngle)
			}
		}
	}
}

func TestParse_ClassifiesMoves(t *testing.T) {
	gen := New(DefaultSettings(), "Generic")
	prog := Parse(gen.Generate(newTestPlan()), gen.Profile())

	counts := map[MoveType]int{}
	for _, m := range prog.Moves {
		counts[m.Type]++
	}
	if counts[MoveDescend] != 3 {
		t.Errorf("expected 3 descents, got %d", counts[MoveDescend])
	}
	if counts[MoveRotate] < 3 {
		t.Errorf("expected at least 3 rotations, got %d", counts[MoveRotate])
	}
}

func TestParse_ReleaseWithoutGripIgnored(t *testing.T) {
	prog := Parse("G0 X10 Y10\nM102\n", GetProfile("Generic"))
	if len(prog.Placements) != 0 {
		t.Errorf("expected no placements, got %d", len(prog.Placements))
	}
	if len(prog.Moves) != 1 || prog.Moves[0].X != 10 {
		t.Errorf("unexpected moves %+v", prog.Moves)
	}
}

func TestGenerate_PickWithoutVerb(t *testing.T) {
	CustomProfiles = []Profile{{
		Name:          "Fixed",
		RapidMove:     "G0",
		FeedMove:      "G1",
		RotateAxis:    "A",
		Pick:          "M200",
		Grip:          "M8",
		Release:       "M9",
		CommentPrefix: ";",
		DecimalPlaces: 3,
	}}
	defer func() { CustomProfiles = nil }()

	code := New(DefaultSettings(), "Fixed").Generate(newTestPlan())
	if strings.Contains(code, "%!") {
		t.Errorf("format verb noise in output:\n%s", code)
	}
	if got := strings.Count(code, "M200\n"); got != 3 {
		t.Errorf("expected 3 pick commands, got %d", got)
	}
}
