package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/plateplan/internal/config"
	"github.com/piwi3910/plateplan/internal/engine"
	"github.com/piwi3910/plateplan/internal/export"
	"github.com/piwi3910/plateplan/internal/importer"
	"github.com/piwi3910/plateplan/internal/model"
	"github.com/piwi3910/plateplan/internal/robotfile"
	"github.com/piwi3910/plateplan/internal/survey"
)

// maxListedErrors caps how many import errors are shown before truncating.
const maxListedErrors = 10

// newPlanner wires a planner from the loaded configuration.
func (a *app) newPlanner() *engine.Planner {
	pl := engine.NewPlanner(a.cfg.Geometry, a.cfg.Scheduler, a.cfg.Allocator)
	pl.Log = a.log
	pl.Scheduler.Log = a.log
	pl.Allocator.Log = a.log
	return pl
}

func (a *app) store() *survey.Store {
	return survey.NewStore(a.cfg.Survey.StateDir)
}

// tileFor names the tile of a probe file: the explicit id, or the file name
// without its extension.
func tileFor(path, id, field string) model.Tile {
	if id == "" {
		base := filepath.Base(path)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return model.Tile{ID: id, Field: field}
}

// importProbes reads a probe file and prints its warnings. Any import error
// fails the tile.
func (a *app) importProbes(w io.Writer, path string) ([]*model.Probe, error) {
	res := importer.ImportFile(path, a.cfg.Geometry)
	if !a.jsonOutput {
		for _, warn := range res.Warnings {
			printWarning(w, warn)
		}
	}
	if !res.OK() {
		errs := res.Errors
		more := ""
		if len(errs) > maxListedErrors {
			more = fmt.Sprintf("\n  ... and %d more", len(errs)-maxListedErrors)
			errs = errs[:maxListedErrors]
		}
		return nil, fmt.Errorf("%s: %d import errors:\n  %s%s", path, len(res.Errors), strings.Join(errs, "\n  "), more)
	}
	a.log.Debug("probes imported", "file", path, "probes", len(res.Probes))
	return res.Probes, nil
}

// writeOutputs writes every configured format for a planned tile into dir
// and returns the written paths.
func (a *app) writeOutputs(dir string, plan *model.TilePlan, probes []*model.Probe) ([]string, error) {
	out := a.cfg.Output
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	base := filepath.Join(dir, fileStem(plan.Tile))

	var written []string
	write := func(path string, fn func(string) error) error {
		if err := fn(path); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
		written = append(written, path)
		return nil
	}

	for _, format := range config.KnownFormats {
		if !out.Wants(format) {
			continue
		}
		var err error
		switch format {
		case config.FormatCSV:
			err = write(base+"_robot.csv", func(p string) error { return export.ExportRobotCSV(p, plan) })
		case config.FormatXLSX:
			err = write(base+".xlsx", func(p string) error { return export.ExportWorkbook(p, plan) })
		case config.FormatPDF:
			withLabels := out.Wants(config.FormatLabels)
			err = write(base+".pdf", func(p string) error { return export.ExportPDF(p, plan, withLabels) })
		case config.FormatLabels:
			if out.Wants(config.FormatPDF) {
				continue // appended to the placement sheet
			}
			err = write(base+"_labels.pdf", func(p string) error { return export.ExportLabels(p, plan) })
		case config.FormatDXF:
			opts := export.DXFOptions{Plate: true, PickupAreas: out.DXFPickupAreas}
			err = write(base+".dxf", func(p string) error { return export.ExportDXF(p, probes, a.cfg.Geometry, opts) })
		case config.FormatRobot:
			gen := robotfile.New(a.cfg.Robot.Settings(), a.cfg.Robot.Profile)
			err = write(base+".nc", func(p string) error { return os.WriteFile(p, []byte(gen.Generate(plan)), 0644) })
		}
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// fileStem turns a tile into a file name prefix.
func fileStem(t model.Tile) string {
	return strings.ReplaceAll(t.String(), "/", "_")
}

// tileSummary is the JSON form of one planned tile.
type tileSummary struct {
	RunID      string           `json:"run_id"`
	Tile       string           `json:"tile"`
	Probes     int              `json:"probes"`
	Conflicts  int              `json:"conflicts"`
	Blocked    []model.ProbeKey `json:"fully_blocked"`
	Unresolved []model.ProbeKey `json:"unresolved"`
	MaxOrder   int              `json:"max_order"`
	Flags      []string         `json:"flags"`
	Outputs    []string         `json:"outputs,omitempty"`
	Skipped    bool             `json:"skipped,omitempty"`
}

func summarize(plan *model.TilePlan, probes int, outputs []string) tileSummary {
	return tileSummary{
		RunID:      plan.RunID,
		Tile:       plan.Tile.String(),
		Probes:     probes,
		Conflicts:  len(plan.Conflicts),
		Blocked:    plan.Blocked,
		Unresolved: plan.Unresolved,
		MaxOrder:   plan.MaxOrder(),
		Flags:      plan.Flags,
		Outputs:    outputs,
	}
}

// printSummary prints the human form of a planned tile.
func printSummary(w io.Writer, s tileSummary) {
	printSection(w, fmt.Sprintf("Tile %s (run %s)", s.Tile, s.RunID))
	printLabelValue(w, "Probes", s.Probes)
	printLabelValue(w, "Conflicts", s.Conflicts)
	printLabelValue(w, "Fully blocked", len(s.Blocked))
	printLabelValue(w, "Order steps", s.MaxOrder)
	for _, f := range s.Flags {
		printWarning(w, f)
	}
	if len(s.Unresolved) > 0 {
		keys := make([]string, len(s.Unresolved))
		for i, k := range s.Unresolved {
			keys[i] = k.String()
		}
		printError(w, fmt.Sprintf("%d probes unresolved: %s", len(keys), strings.Join(keys, ", ")))
	}
	for _, o := range s.Outputs {
		printDim(w, o)
	}
}
