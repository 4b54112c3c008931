package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"loadstar/internal/config"
	"loadstar/internal/logger"
	"loadstar/internal/state"
)

var statusAll bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome of the last installation run",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings(envFile)
		if err != nil {
			return err
		}
		st, err := state.LoadState(settings.StatePath)
		if err != nil {
			return err
		}
		last, ok := st.Last()
		if !ok {
			logger.Info("[INFO] No runs recorded in %s\n", settings.StatePath)
			return nil
		}
		if statusAll {
			return writeHistory(cmd.OutOrStdout(), st.Runs)
		}
		return writeRun(cmd.OutOrStdout(), last)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "List every recorded run")
}

func runLabel(r state.RunRecord) string {
	label := r.Started.Local().Format(time.DateTime)
	switch {
	case r.DryRun:
		label += " (dry run)"
	case r.Cancelled:
		label += " (cancelled)"
	}
	return label
}

func writeRun(w io.Writer, r state.RunRecord) error {
	fmt.Fprintf(w, "Run %s, %s, took %s\n", r.ID, runLabel(r), r.Duration.Round(time.Second))
	fmt.Fprintf(w, "%d succeeded, %d skipped, %d failed, %d not attempted\n\n", r.Succeeded, r.Skipped, r.Failed, r.NotAttempted)
	t := newTable("Step", "Outcome", "Detail")
	for _, s := range r.Steps {
		t.Row(s.Title, s.Outcome, s.Detail)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeHistory(w io.Writer, runs []state.RunRecord) error {
	t := newTable("Run", "Started", "OK", "Skipped", "Failed", "Not attempted")
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		t.Row(r.ID, runLabel(r), fmt.Sprint(r.Succeeded), fmt.Sprint(r.Skipped), fmt.Sprint(r.Failed), fmt.Sprint(r.NotAttempted))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
