// Package importer reads probe tables for one tile from CSV and Excel files,
// and probe layouts from DXF drawings. It supports automatic delimiter
// detection and case-insensitive header aliases.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/plateplan/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Probes   []*model.Probe
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced probes without errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Probes) > 0
}

// ColumnMapping maps probe attributes to their indices in the data.
// -1 means the column is absent.
type ColumnMapping struct {
	Index         int
	Kind          int
	X             int
	Y             int
	Orientation   int
	PositionAngle int
	Target        int
	GalaxyID      int
	Re            int
	Mass          int
	SB            int
}

// positional is the column order used when a table has no header.
var positional = ColumnMapping{
	Index: 0, Kind: 1, X: 2, Y: 3, Orientation: 4, PositionAngle: 5,
	Target: 6, GalaxyID: 7, Re: 8, Mass: 9, SB: 10,
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"index":          {"index", "probe", "probe_index", "probe index", "idx", "#"},
	"kind":           {"kind", "type", "probe_type", "shape", "magnet"},
	"x":              {"x", "x_mm", "center_x", "cx"},
	"y":              {"y", "y_mm", "center_y", "cy"},
	"orientation":    {"orientation", "angle", "theta", "rotation", "rot"},
	"position_angle": {"position_angle", "position angle", "pa", "sky_pa"},
	"target":         {"target", "target_type", "class", "galaxy_or_star"},
	"galaxy_id":      {"galaxy_id", "galaxy id", "galaxy", "catid", "object", "name"},
	"re":             {"re", "r_e", "effective_radius", "effective radius"},
	"mass":           {"mass", "mstar", "stellar_mass", "logmass"},
	"sb":             {"sb", "surface_brightness", "surface brightness", "mu"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping and false if no cell matched a known alias.
func DetectColumns(row []string) (ColumnMapping, bool) {
	// A data row starts with a numeric index; values like "galaxy" in
	// later cells must not be mistaken for a header.
	if _, err := strconv.ParseFloat(getCell(row, 0), 64); err == nil {
		return positional, false
	}
	found := map[string]int{}
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			if _, taken := found[role]; taken {
				continue
			}
			for _, alias := range aliases {
				if normalized == alias {
					found[role] = i
					break
				}
			}
		}
	}
	if len(found) == 0 {
		return positional, false
	}

	col := func(role string) int {
		if i, ok := found[role]; ok {
			return i
		}
		return -1
	}
	return ColumnMapping{
		Index:         col("index"),
		Kind:          col("kind"),
		X:             col("x"),
		Y:             col("y"),
		Orientation:   col("orientation"),
		PositionAngle: col("position_angle"),
		Target:        col("target"),
		GalaxyID:      col("galaxy_id"),
		Re:            col("re"),
		Mass:          col("mass"),
		SB:            col("sb"),
	}, true
}

// missingRequired lists the required columns absent from m.
func (m ColumnMapping) missingRequired() []string {
	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{
		{"Index", m.Index}, {"Kind", m.Kind}, {"X", m.X}, {"Y", m.Y}, {"Orientation", m.Orientation},
	} {
		if c.idx == -1 {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseFloat reads an optional numeric cell; empty cells yield 0.
func parseFloat(row []string, idx int, name, rowLabel string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

// parseRow extracts a Probe from a row using the given column mapping.
// Returns the probe, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, geom model.PlateGeometry) (*model.Probe, string, string) {
	idxStr := getCell(row, mapping.Index)
	if idxStr == "" {
		return nil, fmt.Sprintf("%s: Missing index value", rowLabel), ""
	}
	index, err := strconv.Atoi(idxStr)
	if err != nil || index <= 0 {
		return nil, fmt.Sprintf("%s: Invalid index '%s'", rowLabel, idxStr), ""
	}

	kindStr := strings.ToLower(getCell(row, mapping.Kind))
	kind, ok := model.ParseProbeKind(kindStr)
	if !ok {
		return nil, fmt.Sprintf("%s: Unknown probe kind '%s'", rowLabel, kindStr), ""
	}

	var nums [7]float64
	for i, c := range []struct {
		name     string
		idx      int
		required bool
	}{
		{"x", mapping.X, true},
		{"y", mapping.Y, true},
		{"orientation", mapping.Orientation, true},
		{"position angle", mapping.PositionAngle, false},
		{"effective radius", mapping.Re, false},
		{"mass", mapping.Mass, false},
		{"surface brightness", mapping.SB, false},
	} {
		if c.required && getCell(row, c.idx) == "" {
			return nil, fmt.Sprintf("%s: Missing %s value", rowLabel, c.name), ""
		}
		v, msg := parseFloat(row, c.idx, c.name, rowLabel)
		if msg != "" {
			return nil, msg, ""
		}
		nums[i] = v
	}

	center := model.Point2D{X: nums[0], Y: nums[1]}
	var p *model.Probe
	if kind == model.Circular {
		p = model.NewCircularProbe(index, center, nums[2], geom)
	} else {
		p = model.NewRectangularProbe(index, center, nums[2], geom)
	}
	p.PositionAngle = nums[3]
	p.EffectiveRadius = nums[4]
	p.Mass = nums[5]
	p.SurfaceBrightness = nums[6]
	p.GalaxyID = getCell(row, mapping.GalaxyID)

	var warning string
	if t := strings.ToLower(getCell(row, mapping.Target)); t != "" {
		target, ok := model.ParseTargetType(t)
		if ok {
			p.Target = target
		} else {
			warning = fmt.Sprintf("%s: Unknown target '%s', defaulting to galaxy", rowLabel, t)
		}
	}

	if center.Dist(model.Point2D{}) > geom.PlateRadius {
		warning = fmt.Sprintf("%s: Probe %d lies outside the plate radius (%.1f mm)", rowLabel, index, geom.PlateRadius)
	}

	return p, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportFile picks the reader from the file extension.
func ImportFile(path string, geom model.PlateGeometry) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path, geom)
	case ".dxf":
		return ImportDXF(path, geom)
	default:
		return ImportCSV(path, geom)
	}
}

// ImportCSV imports probes from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string, geom model.PlateGeometry) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings, geom)
}

// ImportCSVFromReader imports probes from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune, geom model.PlateGeometry) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", nil, geom)
}

// ImportExcel imports probes from the first sheet of an Excel workbook.
func ImportExcel(path string, geom model.PlateGeometry) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, "Row", nil, geom)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string, geom model.PlateGeometry) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		if missing := mapping.missingRequired(); len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	seen := make(map[model.ProbeKey]string)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) || strings.HasPrefix(strings.TrimSpace(row[0]), "#") {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		p, errMsg, warning := parseRow(row, mapping, rowLabel, geom)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if first, dup := seen[p.Key()]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate %s probe %d (first on %s)", rowLabel, p.Kind, p.Index, first))
			continue
		}
		seen[p.Key()] = rowLabel

		result.Probes = append(result.Probes, p)
	}

	warnings, errs := snapPairs(result.Probes, seen, geom)
	result.Warnings = append(result.Warnings, warnings...)
	result.Errors = append(result.Errors, errs...)

	if len(result.Probes) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}

// pairSnapTolerance is how far a rectangular centre read from a table may sit
// from the exact partner position before it is rejected, in mm.
const pairSnapTolerance = 0.05

// snapPairs moves each rectangular probe onto the position PairDistance out
// from its circular partner along the rectangle axis. Tables round
// coordinates, so small offsets are corrected with a warning; larger ones
// are reported against the rectangle's row.
func snapPairs(probes []*model.Probe, rowOf map[model.ProbeKey]string, geom model.PlateGeometry) (warnings, errs []string) {
	circles := make(map[int]*model.Probe)
	for _, p := range probes {
		if p.Kind == model.Circular {
			circles[p.Index] = p
		}
	}
	for _, r := range probes {
		if r.Kind != model.Rectangular {
			continue
		}
		c, ok := circles[r.Index]
		if !ok {
			continue
		}
		want := c.Center.Add(model.Direction(r.Orientation).Scale(geom.PairDistance))
		off := r.Center.Dist(want)
		if off > pairSnapTolerance {
			errs = append(errs, fmt.Sprintf("%s: Probe %d rectangular centre is %.3f mm from the pair position (%.3f, %.3f)",
				rowOf[r.Key()], r.Index, off, want.X, want.Y))
			continue
		}
		r.Center = want
		r.Pickups = model.CreatePickupAreas(r, geom)
		if off > 1e-6 {
			warnings = append(warnings, fmt.Sprintf("%s: Probe %d rectangular centre moved %.4f mm onto its circular partner's axis",
				rowOf[r.Key()], r.Index, off))
		}
	}
	return warnings, errs
}
