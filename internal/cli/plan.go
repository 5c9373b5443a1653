package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/plateplan/internal/model"
)

type planOptions struct {
	tileID string
	field  string
	outDir string
	dryRun bool
	force  bool
}

func newPlanCmd(a *app) *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan <probe-file>...",
		Short: "Plan tiles and write their robot files",
		Long: `Plan one tile per probe file (CSV, XLSX or DXF), in the order given.

Each tile reads the galaxy record left by the previous one, so galaxies
observed again keep their hexabundle. The record is saved after every
tile; tiles already in the record are skipped unless --force is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.tileID != "" && len(args) > 1 {
				return errors.New("--tile can only be used with a single probe file")
			}
			return a.runPlan(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.tileID, "tile", "", "Tile id (default: file name)")
	cmd.Flags().StringVar(&opts.field, "field", "", "Survey field of the tiles")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Output directory (default: configured output.dir)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Plan and write outputs without touching the survey state")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Replan tiles already in the record")
	return cmd
}

func (a *app) runPlan(cmd *cobra.Command, files []string, opts *planOptions) error {
	w := cmd.OutOrStdout()
	store := a.store()
	outDir := opts.outDir
	if outDir == "" {
		outDir = a.cfg.Output.Dir
	}

	var summaries []tileSummary
	for _, path := range files {
		tile := tileFor(path, opts.tileID, opts.field)

		recFile, err := store.LoadRecord()
		if err != nil {
			return err
		}
		if recFile.HasTile(tile.String()) && !opts.force {
			if !a.jsonOutput {
				printWarning(w, fmt.Sprintf("tile %s is already in the record, skipping (use --force to replan)", tile))
			}
			summaries = append(summaries, tileSummary{Tile: tile.String(), Skipped: true})
			continue
		}

		probes, err := a.importProbes(w, path)
		if err != nil {
			return err
		}

		s, err := a.planOne(tile, probes, recFile.Record(), outDir, opts.dryRun)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)
		if !a.jsonOutput {
			printSummary(w, s)
		}
	}

	if a.jsonOutput {
		return outputJSON(w, summaries)
	}
	fmt.Fprintln(w)
	printSuccess(w, fmt.Sprintf("%d tiles planned", countPlanned(summaries)))
	return nil
}

// planOne plans a single tile, writes its outputs and, unless dryRun,
// persists the record and the survey logs.
func (a *app) planOne(tile model.Tile, probes []*model.Probe, record *model.GalaxyRecord, outDir string, dryRun bool) (tileSummary, error) {
	store := a.store()
	pl := a.newPlanner()

	if !dryRun {
		logs, err := store.OpenLogs()
		if err != nil {
			return tileSummary{}, err
		}
		defer logs.Close()
		pl.ConflictLog = logs.Conflicts
		pl.Allocator.Flags = logs.Flags
	}

	plan, next, err := pl.PlanTile(tile, probes, record)
	if err != nil {
		return tileSummary{}, err
	}

	outputs, err := a.writeOutputs(outDir, plan, probes)
	if err != nil {
		return tileSummary{}, err
	}

	if !dryRun {
		if err := store.SaveRecord(next, tile); err != nil {
			return tileSummary{}, fmt.Errorf("tile %s: save record: %w", tile, err)
		}
		a.log.Info("record saved", "tile", tile.String(), "galaxies", next.Len())
	}
	return summarize(plan, len(probes), outputs), nil
}

func countPlanned(ss []tileSummary) int {
	n := 0
	for _, s := range ss {
		if !s.Skipped {
			n++
		}
	}
	return n
}
