package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/plateplan/internal/survey"
)

func newRecordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Inspect, back up and restore the survey state",
	}
	cmd.AddCommand(newRecordShowCmd(a), newRecordLogsCmd(a), newRecordExportCmd(a), newRecordImportCmd(a))
	return cmd
}

func newRecordShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the galaxy record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			store := a.store()
			rec, err := store.LoadRecord()
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(w, rec)
			}

			printSection(w, "Survey record")
			printLabelValue(w, "State", store.Dir)
			printLabelValue(w, "Updated", valueOr(rec.UpdatedAt, "never"))
			printLabelValue(w, "Tiles", len(rec.Tiles))
			printLabelValue(w, "Galaxies", len(rec.Bundles))

			ids := make([]string, 0, len(rec.Bundles))
			for id := range rec.Bundles {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			if len(ids) > 0 {
				fmt.Fprintln(w)
			}
			for _, id := range ids {
				fmt.Fprintf(w, "  %-20s %s\n", id, rec.Bundles[id])
			}
			return nil
		},
	}
}

func newRecordLogsCmd(a *app) *cobra.Command {
	var tile string
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the conflicts and flags logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			store := a.store()
			conflicts, err := survey.ReadLog(store.ConflictsPath())
			if err != nil {
				return err
			}
			flags, err := survey.ReadLog(store.FlagsPath())
			if err != nil {
				return err
			}
			conflicts = filterLog(conflicts, tile)
			flags = filterLog(flags, tile)

			if a.jsonOutput {
				return outputJSON(w, map[string][]survey.LogEntry{"conflicts": conflicts, "flags": flags})
			}
			printSection(w, fmt.Sprintf("Unresolved probes (%d)", len(conflicts)))
			for _, e := range conflicts {
				fmt.Fprintf(w, "  %s  %s\n", e.Tile, strings.Join(e.Fields, " "))
			}
			printSection(w, fmt.Sprintf("Allocation flags (%d)", len(flags)))
			for _, e := range flags {
				fmt.Fprintf(w, "  %s  %s\n", e.Tile, strings.Join(e.Fields, " "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tile, "tile", "", "Only show entries of this tile")
	return cmd
}

func filterLog(entries []survey.LogEntry, tile string) []survey.LogEntry {
	if tile == "" {
		return entries
	}
	var out []survey.LogEntry
	for _, e := range entries {
		if e.Tile == tile {
			out = append(out, e)
		}
	}
	return out
}

func newRecordExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <backup-file>",
		Short: "Write the record and logs to one backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store().Export(args[0]); err != nil {
				return err
			}
			if !a.jsonOutput {
				printSuccess(cmd.OutOrStdout(), "survey state exported to "+args[0])
			}
			return nil
		},
	}
}

func newRecordImportCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import <backup-file>",
		Short: "Replace the survey state with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.store()
			b, err := survey.ReadBackup(args[0])
			if err != nil {
				return err
			}
			current, err := store.LoadRecord()
			if err != nil {
				return err
			}
			if len(current.Tiles) > 0 && !force {
				return fmt.Errorf("record at %s already holds %d tiles, use --force to replace it", store.Dir, len(current.Tiles))
			}
			if err := store.Restore(b); err != nil {
				return err
			}
			a.log.Info("survey state restored", "from", args[0], "tiles", len(b.Record.Tiles))
			if !a.jsonOutput {
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("restored %d tiles and %d galaxies", len(b.Record.Tiles), len(b.Record.Bundles)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace a non-empty record")
	return cmd
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
