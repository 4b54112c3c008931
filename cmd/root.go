package cmd

import (
	"github.com/spf13/cobra"

	"loadstar/internal/logger"
	"loadstar/internal/tui"
	"loadstar/internal/wizard"
)

var (
	// debug enables cyan debug output on every subcommand.
	debug bool
	// envFile overrides the default ~/.config/loadstar/env.
	envFile string
	// dryRun logs what would be done without running installers or writing files.
	dryRun bool
)

// rootCmd with no subcommand opens the interactive wizard.
var rootCmd = &cobra.Command{
	Use:           "loadstar",
	Short:         "Set up a development machine",
	Long:          "loadstar walks through identity, shell and tool choices, then installs the selection and writes the matching dotfiles.",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(dryRun)
		if err != nil {
			return err
		}
		return tui.Run(tui.Config{
			Session:  wizard.New(a.catalog),
			Host:     a.host,
			Runner:   a.probe,
			DryRun:   a.dryRun,
			Start:    a.start,
			Finished: a.record,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (default ~/.config/loadstar/env)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without changing the machine")

	rootCmd.AddCommand(installCmd, catalogCmd, statusCmd, versionCmd)
}

// Execute runs the command line. Errors are printed here, so callers only
// need to pick an exit code.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("[ERROR] %v\n", err)
		return err
	}
	return nil
}
