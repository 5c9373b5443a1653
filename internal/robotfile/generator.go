// Package robotfile writes the command program that drives the placement
// robot through one tile, and reads such programs back.
package robotfile

import (
	"fmt"
	"strings"

	"github.com/piwi3910/plateplan/internal/model"
)

// Settings controls the robot moves.
type Settings struct {
	SafeZ    float64 // travel height above the plate, mm
	PlaceZ   float64 // height at which the magnet is released
	FeedRate float64 // descent feed, mm/min
}

// DefaultSettings returns settings for the standard robot head.
func DefaultSettings() Settings {
	return Settings{SafeZ: 20, PlaceZ: 0, FeedRate: 600}
}

// Generator produces a robot program from a tile plan.
type Generator struct {
	Settings Settings
	profile  Profile
}

func New(settings Settings, profileName string) *Generator {
	return &Generator{
		Settings: settings,
		profile:  GetProfile(profileName),
	}
}

// Profile returns the dialect the generator writes.
func (g *Generator) Profile() Profile { return g.profile }

// Generate writes one placement cycle per row in placement order. Rows
// without an order were never resolved and are listed as skipped.
func (g *Generator) Generate(plan *model.TilePlan) string {
	var b strings.Builder

	var placed, skipped []model.PlacementRow
	for _, r := range plan.Rows {
		if r.Order == 0 {
			skipped = append(skipped, r)
			continue
		}
		placed = append(placed, r)
	}

	g.writeHeader(&b, plan, len(placed))
	for i, r := range placed {
		g.writePlacement(&b, r, i+1)
	}
	if len(skipped) > 0 {
		b.WriteString("\n")
		b.WriteString(g.comment(fmt.Sprintf("=== %d probes skipped, place by hand ===", len(skipped))))
		for _, r := range skipped {
			b.WriteString(g.comment(fmt.Sprintf("probe %d %s at X%s Y%s", r.Index, r.Kind, g.format(r.X), g.format(r.Y))))
		}
	}
	g.writeFooter(&b)
	return b.String()
}

func (g *Generator) writeHeader(b *strings.Builder, plan *model.TilePlan, steps int) {
	p := g.profile

	b.WriteString(g.comment(fmt.Sprintf("plateplan robot program, tile %s (run %s)", plan.Tile, plan.RunID)))
	b.WriteString(g.comment(fmt.Sprintf("Probes: %d, placements: %d, order steps: %d", len(plan.Rows), steps, plan.MaxOrder())))
	b.WriteString(g.comment(fmt.Sprintf("Safe Z: %.1fmm, feed: %.0f mm/min", g.Settings.SafeZ, g.Settings.FeedRate)))
	b.WriteString(g.comment(fmt.Sprintf("Profile: %s", p.Name)))
	b.WriteString("\n")

	for _, code := range p.StartCode {
		b.WriteString(code + "\n")
	}
	if p.Home != "" {
		b.WriteString(p.Home + "\n")
	}
	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
}

// writePlacement emits one pick-rotate-place cycle.
func (g *Generator) writePlacement(b *strings.Builder, r model.PlacementRow, n int) {
	p := g.profile

	b.WriteString("\n")
	b.WriteString(g.comment(fmt.Sprintf("--- %d: order %d, probe %d %s, bundle %s, pickup %s ---",
		n, r.Order, r.Index, r.Kind, bundleStr(r.Bundle), r.PickupCode)))

	if p.Pick != "" {
		b.WriteString(strings.Replace(p.Pick, "%s", bundleStr(r.Bundle), 1) + "\n")
	}
	b.WriteString(fmt.Sprintf("%s %s%s\n", p.RapidMove, p.RotateAxis, g.format(r.PickupAngle)))
	b.WriteString(p.Grip + "\n")

	b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(r.X), g.format(r.Y)))
	b.WriteString(fmt.Sprintf("%s %s%s\n", p.RapidMove, p.RotateAxis, g.format(r.PutdownAngle)))
	b.WriteString(fmt.Sprintf("%s Z%s F%s\n", p.FeedMove, g.format(g.Settings.PlaceZ), g.format(g.Settings.FeedRate)))
	b.WriteString(p.Release + "\n")
	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
}

func (g *Generator) writeFooter(b *strings.Builder) {
	b.WriteString("\n")
	b.WriteString(g.comment("=== Tile complete ==="))
	for _, code := range g.profile.EndCode {
		code = strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ))
		b.WriteString(code + "\n")
	}
}

// comment wraps text in the profile's comment syntax.
func (g *Generator) comment(text string) string {
	return g.profile.CommentPrefix + " " + text + g.profile.CommentSuffix + "\n"
}

// format formats a coordinate according to the profile's decimal places.
func (g *Generator) format(v float64) string {
	return fmt.Sprintf("%.*f", g.profile.DecimalPlaces, v)
}

func bundleStr(b string) string {
	if b == "" {
		return "-"
	}
	return b
}
