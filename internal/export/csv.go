// Package export writes a planned tile to the files the robot and the
// observers use: robot CSV, Excel workbook, PDF placement sheet with QR
// probe labels, and a DXF of the probe geometry.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/piwi3910/plateplan/internal/model"
)

// RobotHeader is the column order of the robot CSV.
var RobotHeader = []string{
	"probe_type", "x", "y", "rotation_pickup", "rotation_putdown",
	"order", "pickup_option", "galaxy_id", "index", "hexabundle",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// robotRecord renders one row in RobotHeader order.
func robotRecord(r model.PlacementRow) []string {
	return []string{
		r.Label,
		formatFloat(r.X),
		formatFloat(r.Y),
		formatFloat(r.PickupAngle),
		formatFloat(r.PutdownAngle),
		strconv.Itoa(r.Order),
		r.PickupCode,
		r.GalaxyID,
		strconv.Itoa(r.Index),
		r.Bundle,
	}
}

// WriteRobotCSV writes the plan's rows, already sorted by placement order.
func WriteRobotCSV(w io.Writer, plan *model.TilePlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RobotHeader); err != nil {
		return err
	}
	for _, r := range plan.Rows {
		if err := cw.Write(robotRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportRobotCSV writes the robot CSV for a plan to path.
func ExportRobotCSV(path string, plan *model.TilePlan) error {
	if len(plan.Rows) == 0 {
		return fmt.Errorf("no placements to export")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create robot file: %w", err)
	}
	if err := WriteRobotCSV(f, plan); err != nil {
		f.Close()
		return fmt.Errorf("failed to write robot file: %w", err)
	}
	return f.Close()
}
