package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/plateplan/internal/engine"
)

func newCheckCmd(a *app) *cobra.Command {
	var tileID, field string
	cmd := &cobra.Command{
		Use:   "check <probe-file>",
		Short: "Plan a tile without writing anything",
		Long: `Run conflict detection, scheduling and allocation for one tile against
the current record. Nothing is written. Exits with an error when any
probe cannot be given a placement order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			tile := tileFor(args[0], tileID, field)

			probes, err := a.importProbes(w, args[0])
			if err != nil {
				return err
			}
			recFile, err := a.store().LoadRecord()
			if err != nil {
				return err
			}

			plan, _, err := a.newPlanner().PlanTile(tile, probes, recFile.Record())
			if err != nil {
				return err
			}
			s := summarize(plan, len(probes), nil)

			if a.jsonOutput {
				if err := outputJSON(w, s); err != nil {
					return err
				}
			} else {
				printSummary(w, s)
				for _, c := range plan.Conflicts {
					printDim(w, c.String())
				}
			}

			if len(plan.Unresolved) > 0 {
				return fmt.Errorf("tile %s: %w: %d probes", tile, engine.ErrUnresolved, len(plan.Unresolved))
			}
			if !a.jsonOutput {
				fmt.Fprintln(w)
				printSuccess(w, fmt.Sprintf("tile %s can be placed in %d steps", tile, plan.MaxOrder()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tileID, "tile", "", "Tile id (default: file name)")
	cmd.Flags().StringVar(&field, "field", "", "Survey field of the tile")
	return cmd
}
