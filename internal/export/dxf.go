package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/plateplan/internal/geometry"
	"github.com/piwi3910/plateplan/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// DXF layer names.
const (
	LayerPlate       = "PLATE"
	LayerCircular    = "CIRCULAR"
	LayerRectangular = "RECTANGULAR"
	LayerPickup      = "PICKUP"
	LayerBlocked     = "PICKUP_BLOCKED"
)

// DXFOptions selects what ExportDXF draws besides the probe outlines.
type DXFOptions struct {
	Plate       bool // Plate edge
	PickupAreas bool // Available areas on PICKUP, pruned ones on PICKUP_BLOCKED
}

// ExportDXF writes the probe footprints of a tile for checking in CAD.
// Rectangles are drawn as four LINE entities.
func ExportDXF(path string, probes []*model.Probe, geom model.PlateGeometry, opts DXFOptions) error {
	if len(probes) == 0 {
		return fmt.Errorf("no probes to export")
	}

	d := dxf.NewDrawing()
	layers := []struct {
		name string
		cl   color.ColorNumber
	}{
		{LayerPlate, color.White},
		{LayerCircular, color.Cyan},
		{LayerRectangular, color.Green},
		{LayerPickup, color.Yellow},
		{LayerBlocked, color.Red},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.cl, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", l.name, err)
		}
	}

	if opts.Plate {
		if err := d.ChangeLayer(LayerPlate); err != nil {
			return err
		}
		if _, err := d.Circle(0, 0, 0, geom.PlateRadius); err != nil {
			return fmt.Errorf("failed to draw plate: %w", err)
		}
	}

	for _, p := range probes {
		switch s := p.Shape().(type) {
		case model.Circle:
			if err := d.ChangeLayer(LayerCircular); err != nil {
				return err
			}
			if _, err := d.Circle(s.Center.X, s.Center.Y, 0, s.Radius); err != nil {
				return fmt.Errorf("failed to draw probe %s: %w", p.Key(), err)
			}
		case model.Rect:
			if err := d.ChangeLayer(LayerRectangular); err != nil {
				return err
			}
			if err := drawRect(d, s); err != nil {
				return fmt.Errorf("failed to draw probe %s: %w", p.Key(), err)
			}
		}

		if !opts.PickupAreas {
			continue
		}
		for _, a := range model.CreatePickupAreas(p, geom) {
			layer := LayerBlocked
			if p.HasPickup(a.Code) {
				layer = LayerPickup
			}
			if err := d.ChangeLayer(layer); err != nil {
				return err
			}
			if err := drawRect(d, a.Rect); err != nil {
				return fmt.Errorf("failed to draw pickup area %s of %s: %w", a.Code, p.Key(), err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

func drawRect(d *drawing.Drawing, r model.Rect) error {
	for _, e := range geometry.Edges(r) {
		if _, err := d.Line(e[0].X, e[0].Y, 0, e[1].X, e[1].Y, 0); err != nil {
			return err
		}
	}
	return nil
}
