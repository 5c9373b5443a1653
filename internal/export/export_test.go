package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/plateplan/internal/engine"
	"github.com/piwi3910/plateplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

var geom = model.DefaultGeometry()

// buildTestTile plans a small tile: two galaxy pairs, a star and a crowded
// cross of circular probes around the origin.
func buildTestTile(t *testing.T) ([]*model.Probe, *model.TilePlan) {
	t.Helper()

	c1, r1 := model.NewProbePair(1, model.Point2D{X: 150, Y: 0}, 0, geom)
	r1.GalaxyID, r1.EffectiveRadius, r1.Mass, r1.SurfaceBrightness = "G100", 10, 10.5, 22.0
	c2, r2 := model.NewProbePair(2, model.Point2D{X: 0, Y: 150}, 90, geom)
	r2.GalaxyID, r2.EffectiveRadius, r2.Mass, r2.SurfaceBrightness = "G200", 3, 9.1, 23.0
	c3, r3 := model.NewProbePair(3, model.Point2D{X: -150, Y: 0}, 180, geom)
	r3.Target, r3.GalaxyID = model.TargetStandardStar, "S300"

	probes := []*model.Probe{c1, r1, c2, r2, c3, r3}
	for i, at := range []model.Point2D{{X: 0, Y: 0}, {X: 24, Y: 0}, {X: -24, Y: 0}, {X: 0, Y: 24}, {X: 0, Y: -24}} {
		probes = append(probes, model.NewCircularProbe(10+i, at, 0, geom))
	}

	pl := engine.NewPlanner(geom, model.DefaultSchedulerSettings(), model.DefaultAllocatorSettings())
	plan, _, err := pl.PlanTile(model.Tile{ID: "T007", Field: "G09"}, probes, model.NewGalaxyRecord())
	require.NoError(t, err)
	return probes, plan
}

func TestWriteRobotCSV(t *testing.T) {
	_, plan := buildTestTile(t)

	var buf bytes.Buffer
	require.NoError(t, WriteRobotCSV(&buf, plan))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(plan.Rows)+1)
	assert.Equal(t, RobotHeader, records[0])

	first := records[1]
	assert.Equal(t, "circular_magnet", first[0])
	assert.Equal(t, "1", first[5], "rows are in placement order")
	assert.Equal(t, "10", first[8], "the blocked center probe goes first")
	assert.Equal(t, "0.0000", first[1])
}

func TestExportRobotCSV_Empty(t *testing.T) {
	err := ExportRobotCSV(filepath.Join(t.TempDir(), "robot.csv"), &model.TilePlan{})
	assert.Error(t, err)
}

func TestExportWorkbook(t *testing.T) {
	_, plan := buildTestTile(t)
	path := filepath.Join(t.TempDir(), "out", "tile.xlsx")

	require.NoError(t, ExportWorkbook(path, plan))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPlacements, SheetConflicts, SheetFlags}, f.GetSheetList())

	rows, err := f.GetRows(SheetPlacements)
	require.NoError(t, err)
	require.Len(t, rows, len(plan.Rows)+1)
	assert.Equal(t, "hexabundle", rows[0][9])

	conflicts, err := f.GetRows(SheetConflicts)
	require.NoError(t, err)
	assert.Len(t, conflicts, len(plan.Conflicts)+len(plan.Unresolved)+1)

	flags, err := f.GetRows(SheetFlags)
	require.NoError(t, err)
	assert.Len(t, flags, len(plan.Flags)+1)
}

func TestExportPDF(t *testing.T) {
	_, plan := buildTestTile(t)
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.pdf")
	labelled := filepath.Join(dir, "labelled.pdf")
	require.NoError(t, ExportPDF(plain, plan, false))
	require.NoError(t, ExportPDF(labelled, plan, true))

	for _, p := range []string{plain, labelled} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "%s is a PDF", p)
	}

	a, _ := os.Stat(plain)
	b, _ := os.Stat(labelled)
	assert.Greater(t, b.Size(), a.Size(), "label pages embed QR images")
}

func TestExportPDF_ManyRowsPaginates(t *testing.T) {
	plan := model.NewTilePlan(model.Tile{ID: "T1"})
	for i := 1; i <= 120; i++ {
		plan.Rows = append(plan.Rows, model.PlacementRow{Index: i, Order: 1, Kind: model.Circular, Label: "circular_magnet"})
	}
	require.NoError(t, ExportPDF(filepath.Join(t.TempDir(), "long.pdf"), plan, false))
}

func TestCollectLabelInfos(t *testing.T) {
	_, plan := buildTestTile(t)

	labels := CollectLabelInfos(plan)
	require.Len(t, labels, 3, "one label per rectangular probe")
	for _, l := range labels {
		assert.Equal(t, "G09/T007", l.Tile)
		assert.Equal(t, plan.RunID, l.RunID)
		assert.NotEmpty(t, l.Bundle)
	}
}

func TestExportLabels(t *testing.T) {
	_, plan := buildTestTile(t)
	path := filepath.Join(t.TempDir(), "labels.pdf")

	require.NoError(t, ExportLabels(path, plan))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	empty := model.NewTilePlan(model.Tile{ID: "T2"})
	assert.Error(t, ExportLabels(path, empty))
}

func TestExportDXF(t *testing.T) {
	probes, _ := buildTestTile(t)
	path := filepath.Join(t.TempDir(), "tile.dxf")

	require.NoError(t, ExportDXF(path, probes, geom, DXFOptions{Plate: true, PickupAreas: true}))

	d, err := dxf.Open(path)
	require.NoError(t, err)

	circles, lines := 0, 0
	for _, e := range d.Entities() {
		switch e.(type) {
		case *entity.Circle:
			circles++
		case *entity.Line:
			lines++
		}
	}
	// 8 circular probes and the plate edge; 3 rectangles, 8*4 + 3*2 pickup areas.
	assert.Equal(t, 9, circles)
	assert.Equal(t, 4*(3+8*4+3*2), lines)
}
