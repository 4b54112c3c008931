package installer

import "loadstar/internal/state"

// Record converts the summary for the state file.
func (s Summary) Record() state.RunRecord {
	rec := state.RunRecord{
		ID:           s.PlanID,
		Started:      s.Started,
		Duration:     s.Duration,
		DryRun:       s.DryRun,
		Cancelled:    s.Cancelled,
		Succeeded:    s.Succeeded,
		Skipped:      s.Skipped,
		Failed:       s.Failed,
		NotAttempted: s.NotAttempted,
	}
	for _, r := range s.Results {
		step := state.StepRecord{ID: r.ID, Title: r.Title, Outcome: r.Outcome.String()}
		switch {
		case r.Err != nil:
			step.Detail = r.Err.Error()
		case r.Outcome == Skipped && r.Detail != "":
			step.Detail = r.Skip.String() + ": " + r.Detail
		case r.Outcome == Skipped:
			step.Detail = r.Skip.String()
		}
		rec.Steps = append(rec.Steps, step)
	}
	return rec
}
