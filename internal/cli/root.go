// Package cli implements the plateplan command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/piwi3910/plateplan/internal/config"
	"github.com/piwi3910/plateplan/internal/robotfile"
)

var version = "dev"

// SetVersion overrides the version reported by the CLI.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// app carries the global flags and the state loaded before any command runs.
type app struct {
	configPath string
	jsonOutput bool
	logLevel   string

	cfg config.Config
	log *slog.Logger
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "plateplan",
		Version: version,
		Short:   "Plan probe placement and hexabundle allocation for plate tiles",
		Long: `plateplan turns a tile's probe layout into a robot placement plan.

It finds where the gripper would collide with neighbouring probes, orders
the placements so every probe can still be picked up, allocates hexabundles
across the survey and writes the robot files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level (debug|info|warn|error)")

	root.AddGroup(
		&cobra.Group{ID: "planning", Title: "Planning:"},
		&cobra.Group{ID: "survey", Title: "Survey State:"},
		&cobra.Group{ID: "tooling", Title: "CLI & Tooling:"},
	)

	for _, c := range []*cobra.Command{newPlanCmd(a), newCheckCmd(a)} {
		c.GroupID = "planning"
		root.AddCommand(c)
	}
	rec := newRecordCmd(a)
	rec.GroupID = "survey"
	root.AddCommand(rec)
	for _, c := range []*cobra.Command{newConfigCmd(a), newVersionCmd()} {
		c.GroupID = "tooling"
		root.AddCommand(c)
	}
	root.SetHelpCommandGroupID("tooling")
	return root
}

// load reads the configuration and installs the logger.
func (a *app) load(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if cfg.Robot.ProfilesFile != "" {
		custom, err := robotfile.LoadProfiles(cfg.Robot.ProfilesFile)
		if err != nil {
			return fmt.Errorf("load robot profiles: %w", err)
		}
		robotfile.CustomProfiles = custom
		if !robotfile.HasProfile(cfg.Robot.Profile) {
			return fmt.Errorf("%w: unknown robot profile %q", config.ErrInvalid, cfg.Robot.Profile)
		}
	}
	a.cfg = cfg
	a.log = newLogger(stderr, cfg.LogLevel)
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the plateplan version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// Execute runs the command line.
func Execute() error {
	return NewRootCmd().Execute()
}
