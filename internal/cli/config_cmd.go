package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/plateplan/internal/config"
	"github.com/piwi3910/plateplan/internal/robotfile"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), a.cfg)
			}
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the default configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", args[0])
			}
			if err := config.Save(args[0], config.Default()); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "wrote "+args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	profiles := &cobra.Command{
		Use:   "profiles",
		Short: "List the robot controller profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(w, robotfile.ProfileNames())
			}
			for _, name := range robotfile.ProfileNames() {
				p := robotfile.GetProfile(name)
				marker := " "
				if name == a.cfg.Robot.Profile {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %-10s %s\n", marker, p.Name, p.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, profiles)
	return cmd
}
