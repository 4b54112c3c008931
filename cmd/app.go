package cmd

import (
	"fmt"
	"time"

	"loadstar/internal/catalog"
	"loadstar/internal/command"
	"loadstar/internal/config"
	"loadstar/internal/credentials"
	"loadstar/internal/installer"
	"loadstar/internal/logger"
	"loadstar/internal/state"
	"loadstar/internal/system"
	"loadstar/internal/wizard"
)

// app is everything a run needs, assembled once per command.
type app struct {
	settings config.Settings
	catalog  *catalog.Catalog
	host     system.Info
	// probe always reaches the real host, even in a dry run, so detection
	// and preflight describe the actual machine.
	probe    command.Runner
	executor *installer.Executor
	dryRun   bool
}

func newApp(dry bool) (*app, error) {
	settings, err := config.LoadSettings(envFile)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	probe := command.Exec{}
	host := system.Detect(probe, settings.Home)
	dry = dry || settings.DryRun

	var runner command.Runner = command.Exec{}
	if dry {
		runner = command.DryRun{}
		logger.Warn("[WARN] Dry run: nothing will be installed or written\n")
	}
	return &app{
		settings: settings,
		catalog:  cat,
		host:     host,
		probe:    probe,
		dryRun:   dry,
		executor: &installer.Executor{
			Runner: runner,
			Host:   host,
			DryRun: dry,
			Credentials: &credentials.Manager{
				Runner:   runner,
				Home:     host.Home,
				OS:       host.OS,
				Hostname: host.Hostname,
				User:     host.User,
			},
			Fonts: &installer.Fonts{ReleaseURL: settings.FontURL, Dir: host.FontDir()},
		},
	}, nil
}

// start freezes snap into a plan and launches it.
func (a *app) start(snap wizard.Snapshot) (*installer.Run, error) {
	plan, err := installer.BuildPlan(a.catalog, a.host, snap, installer.Options{})
	if err != nil {
		return nil, err
	}
	if logger.DebugEnabled() {
		logger.Debug("[DEBUG] Plan %s built %s: %d steps\n", plan.ID(), plan.Created().Format(time.RFC3339), plan.Len())
		for i, st := range plan.Steps() {
			logger.Debug("[DEBUG]   %2d. %-10s %s\n", i+1, st.Kind, st.Title)
		}
	}
	return a.executor.Start(plan)
}

// record appends the finished run to the state file. A failure to record
// is reported but does not change the outcome of the run.
func (a *app) record(sum installer.Summary) {
	if err := state.Record(a.settings.StatePath, sum.Record()); err != nil {
		logger.Warn("[WARN] Could not record run: %v\n", err)
		return
	}
	logger.Debug("[DEBUG] Recorded run %s in %s\n", sum.PlanID, a.settings.StatePath)
}
