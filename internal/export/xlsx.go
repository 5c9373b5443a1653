package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/plateplan/internal/model"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetPlacements = "Placements"
	SheetConflicts  = "Conflicts"
	SheetFlags      = "Flags"
)

// ExportWorkbook writes the plan to an Excel workbook: one sheet of
// placements in robot order, one of conflicts and one of allocation flags.
func ExportWorkbook(path string, plan *model.TilePlan) error {
	if len(plan.Rows) == 0 {
		return fmt.Errorf("no placements to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetPlacements); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for _, name := range []string{SheetConflicts, SheetFlags} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(RobotHeader))
	for i, h := range RobotHeader {
		header[i] = h
	}
	rows := [][]interface{}{header}
	for _, r := range plan.Rows {
		rows = append(rows, []interface{}{
			r.Label, r.X, r.Y, r.PickupAngle, r.PutdownAngle,
			r.Order, r.PickupCode, r.GalaxyID, r.Index, r.Bundle,
		})
	}
	if err := writeSheet(f, SheetPlacements, rows, bold); err != nil {
		return err
	}

	rows = [][]interface{}{{"blocking_index", "blocking_type", "blocked_index", "blocked_type", "pickup_area"}}
	for _, c := range plan.Conflicts {
		rows = append(rows, []interface{}{
			c.Blocking.Index, c.Blocking.Kind.String(), c.Blocked.Index, c.Blocked.Kind.String(), c.Area.String(),
		})
	}
	for _, k := range plan.Unresolved {
		rows = append(rows, []interface{}{"", "", k.Index, k.Kind.String(), "unresolved"})
	}
	if err := writeSheet(f, SheetConflicts, rows, bold); err != nil {
		return err
	}

	rows = [][]interface{}{{"tile", "flag"}}
	for _, fl := range plan.Flags {
		rows = append(rows, []interface{}{plan.Tile.String(), fl})
	}
	if err := writeSheet(f, SheetFlags, rows, bold); err != nil {
		return err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       fmt.Sprintf("Tile %s", plan.Tile),
		Description: fmt.Sprintf("run %s", plan.RunID),
	}); err != nil {
		return fmt.Errorf("failed to set workbook properties: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeSheet fills sheet from A1 and styles the first row.
func writeSheet(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}
