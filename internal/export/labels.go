package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/plateplan/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each probe label's QR code.
type LabelInfo struct {
	Tile       string  `json:"tile"`
	RunID      string  `json:"run"`
	Index      int     `json:"index"`
	Kind       string  `json:"kind"`
	Bundle     string  `json:"hexabundle"`
	GalaxyID   string  `json:"galaxy_id,omitempty"`
	Order      int     `json:"order"`
	PickupCode string  `json:"pickup_option"`
	Putdown    float64 `json:"rotation_putdown"`
	X          float64 `json:"x_mm"`
	Y          float64 `json:"y_mm"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectLabelInfos returns one label per rectangular probe of the plan in
// placement order. Circular anchors carry no fiber and get no label.
func CollectLabelInfos(plan *model.TilePlan) []LabelInfo {
	var labels []LabelInfo
	for _, r := range plan.Rows {
		if r.Kind != model.Rectangular {
			continue
		}
		labels = append(labels, LabelInfo{
			Tile:       plan.Tile.String(),
			RunID:      plan.RunID,
			Index:      r.Index,
			Kind:       r.Kind.String(),
			Bundle:     r.Bundle,
			GalaxyID:   r.GalaxyID,
			Order:      r.Order,
			PickupCode: r.PickupCode,
			Putdown:    r.PutdownAngle,
			X:          r.X,
			Y:          r.Y,
		})
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded probe labels on a standard label
// sheet (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportLabels(path string, plan *model.TilePlan) error {
	labels := CollectLabelInfos(plan)
	if len(labels) == 0 {
		return fmt.Errorf("no rectangular probes to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	if err := addLabelPages(pdf, labels); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

// addLabelPages lays labels out on as many pages as needed.
func addLabelPages(pdf *fpdf.Fpdf, labels []LabelInfo) error {
	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPageFormat("P", pdf.GetPageSizeStr("Letter"))
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for probe %d: %w", label.Index, err)
		}
	}
	return nil
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.RunID, info.Index)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	// Probe and bundle
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	title := fmt.Sprintf("Probe %d", info.Index)
	if info.Bundle != "" {
		title += " / " + info.Bundle
	}
	pdf.CellFormat(textW, 4.5, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	galaxy := info.GalaxyID
	if pdf.GetStringWidth(galaxy) > textW {
		for len(galaxy) > 0 && pdf.GetStringWidth(galaxy+"...") > textW {
			galaxy = galaxy[:len(galaxy)-1]
		}
		galaxy += "..."
	}
	pdf.CellFormat(textW, 3.5, galaxy, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	place := fmt.Sprintf("Order %d, pick %s @ (%.1f, %.1f)", info.Order, info.PickupCode, info.X, info.Y)
	pdf.CellFormat(textW, 3, place, "", 1, "L", false, 0, "")

	if info.Order == 0 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(180, 0, 0)
		pdf.CellFormat(textW, 3, "UNRESOLVED", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}
