package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/plateplan/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	rowHeight    = 5.5
)

var placementColumns = []struct {
	title string
	width float64
}{
	{"Order", 16}, {"Index", 16}, {"Probe", 36}, {"X (mm)", 24}, {"Y (mm)", 24},
	{"Pickup", 20}, {"Pick rot", 22}, {"Put rot", 22}, {"Bundle", 20}, {"Galaxy", 67},
}

// ExportPDF writes the placement sheet for a plan: the placement table in
// robot order, the conflict and flag lists, and, when withLabels is set,
// QR label pages for the rectangular probes.
func ExportPDF(path string, plan *model.TilePlan, withLabels bool) error {
	if len(plan.Rows) == 0 {
		return fmt.Errorf("no placements to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(fmt.Sprintf("Tile %s placement", plan.Tile), false)

	renderPlacementPages(pdf, plan)
	renderIssuesPage(pdf, plan)

	if withLabels {
		if labels := CollectLabelInfos(plan); len(labels) > 0 {
			if err := addLabelPages(pdf, labels); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return pdf.OutputFileAndClose(path)
}

func renderTitle(pdf *fpdf.Fpdf, title, subtitle string) float64 {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, subtitle, "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+headerHeight+6, pageWidth-marginRight, marginTop+headerHeight+6)
	return marginTop + headerHeight + 9
}

func renderTableHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	pdf.SetXY(marginLeft, y)
	for _, c := range placementColumns {
		pdf.CellFormat(c.width, rowHeight+1, c.title, "1", 0, "C", true, 0, "")
	}
	return y + rowHeight + 1
}

// renderPlacementPages writes the placement table, continuing on new pages.
func renderPlacementPages(pdf *fpdf.Fpdf, plan *model.TilePlan) {
	title := fmt.Sprintf("Tile %s: placement order", plan.Tile)
	subtitle := fmt.Sprintf("Run %s | Probes: %d | Conflicts: %d | Fully blocked: %d | Unresolved: %d",
		plan.RunID, len(plan.Rows), len(plan.Conflicts), len(plan.Blocked), len(plan.Unresolved))

	var y float64
	for i, r := range plan.Rows {
		if i == 0 || y+rowHeight > pageHeight-marginBottom {
			pdf.AddPage()
			y = renderTitle(pdf, title, subtitle)
			y = renderTableHeader(pdf, y)
		}

		order := strconv.Itoa(r.Order)
		pdf.SetFont("Helvetica", "", 8)
		fill := false
		if r.Order == 0 {
			order = "-"
			pdf.SetFillColor(255, 200, 200)
			fill = true
		} else if i%2 == 1 {
			pdf.SetFillColor(245, 245, 245)
			fill = true
		}

		cells := []string{
			order,
			strconv.Itoa(r.Index),
			r.Kind.String(),
			fmt.Sprintf("%.3f", r.X),
			fmt.Sprintf("%.3f", r.Y),
			r.PickupCode,
			fmt.Sprintf("%.1f", r.PickupAngle),
			fmt.Sprintf("%.1f", r.PutdownAngle),
			r.Bundle,
			r.GalaxyID,
		}
		pdf.SetXY(marginLeft, y)
		for j, c := range placementColumns {
			align := "C"
			if j == len(placementColumns)-1 {
				align = "L"
			}
			pdf.CellFormat(c.width, rowHeight, cells[j], "1", 0, align, fill, 0, "")
		}
		y += rowHeight
	}
}

// renderIssuesPage lists conflicts, unresolved probes and allocation flags.
func renderIssuesPage(pdf *fpdf.Fpdf, plan *model.TilePlan) {
	pdf.AddPage()
	y := renderTitle(pdf, fmt.Sprintf("Tile %s: conflicts and flags", plan.Tile), fmt.Sprintf("Run %s", plan.RunID))

	section := func(heading string, lines []string) {
		if y+14 > pageHeight-marginBottom {
			pdf.AddPage()
			y = marginTop
		}
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(100, 7, heading, "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		if len(lines) == 0 {
			lines = []string{"none"}
		}
		for _, l := range lines {
			if y+rowHeight > pageHeight-marginBottom {
				pdf.AddPage()
				y = marginTop
				pdf.SetFont("Helvetica", "", 9)
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(pageWidth-marginLeft-marginRight-5, rowHeight, l, "", 0, "L", false, 0, "")
			y += rowHeight
		}
		y += 4
	}

	var unresolved, conflicts []string
	for _, k := range plan.Unresolved {
		unresolved = append(unresolved, k.String())
	}
	for _, c := range plan.Conflicts {
		conflicts = append(conflicts, c.String())
	}

	pdf.SetTextColor(180, 0, 0)
	section("Unresolved probes", unresolved)
	pdf.SetTextColor(0, 0, 0)
	section("Conflicts", conflicts)
	section("Allocation flags", plan.Flags)
}
