package cmd

import (
	"fmt"
	"os"
	"time"

	"loadstar/internal/installer"
	"loadstar/internal/logger"
)

// renderTick is how often the headless renderer drains the stream.
const renderTick = 100 * time.Millisecond

// render prints run's events through the logger until the stream is
// finished. The first signal on interrupts cancels after the current step,
// the second also stops the child process of the step in flight.
func render(run *installer.Run, interrupts <-chan os.Signal, tick time.Duration) installer.Summary {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	total := run.Plan().Len()
	presses := 0
	for {
		select {
		case <-interrupts:
			presses++
			if presses == 1 {
				run.Cancel()
				logger.Warn("[WARN] Cancelling after the current step; interrupt again to stop it now\n")
			} else {
				run.Interrupt()
				logger.Warn("[WARN] Stopping the current step\n")
			}
		// Ready wakes the loop as soon as events arrive; the ticker catches
		// the stream closing after the last drain.
		case <-run.Events().Ready():
		case <-ticker.C:
		}
		for _, ev := range run.Events().Drain() {
			printEvent(ev, total)
		}
		if run.Events().Finished() {
			return run.Wait()
		}
	}
}

func printEvent(ev installer.Event, total int) {
	switch ev.Kind {
	case installer.PhaseStarted:
		logger.Info("[INFO] %s\n", ev.Text)
	case installer.StepStarted:
		logger.Info("[INFO] (%d/%d) %s\n", ev.Step+1, total, ev.Title)
	case installer.StepSucceeded:
		logger.Info("[INFO] ✔ %s\n", ev.Title)
	case installer.StepSkipped:
		logger.Info("[INFO] ↷ %s\n", skipText(ev))
	case installer.StepFailed:
		logger.Error("[ERROR] ✘ %s: %v\n", ev.Title, ev.Err)
	case installer.LogLine:
		switch ev.Severity {
		case installer.SeverityError:
			logger.Error("    %s\n", ev.Text)
		case installer.SeverityWarn:
			logger.Warn("    %s\n", ev.Text)
		default:
			// Installer output is long; it is shown with --debug.
			logger.Debug("    %s\n", ev.Text)
		}
	case installer.PlanFinished:
		if ev.Summary != nil {
			printSummary(*ev.Summary)
		}
	}
}

func skipText(ev installer.Event) string {
	if ev.Detail != "" {
		return fmt.Sprintf("%s (%s: %s)", ev.Title, ev.Skip, ev.Detail)
	}
	return fmt.Sprintf("%s (%s)", ev.Title, ev.Skip)
}

func printSummary(sum installer.Summary) {
	switch {
	case sum.Cancelled:
		logger.Warn("[WARN] Cancelled: %s\n", sum)
	case sum.Failed > 0:
		logger.Warn("[WARN] Finished with failures: %s\n", sum)
		for _, r := range sum.Results {
			if r.Outcome == installer.Failed {
				logger.Error("[ERROR]   %s: %v\n", r.Title, r.Err)
			}
		}
	default:
		logger.Info("[INFO] Done: %s\n", sum)
	}
}
