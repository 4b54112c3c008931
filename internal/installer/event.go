package installer

import (
	"fmt"
	"time"
)

// EventKind tags an Event.
type EventKind int

const (
	PhaseStarted EventKind = iota + 1
	StepStarted
	StepSucceeded
	StepSkipped
	StepFailed
	LogLine
	PlanFinished
)

func (k EventKind) String() string {
	switch k {
	case PhaseStarted:
		return "phase-started"
	case StepStarted:
		return "step-started"
	case StepSucceeded:
		return "step-succeeded"
	case StepSkipped:
		return "step-skipped"
	case StepFailed:
		return "step-failed"
	case LogLine:
		return "log"
	case PlanFinished:
		return "plan-finished"
	}
	return "unknown"
}

// Terminal reports whether k resolves a step.
func (k EventKind) Terminal() bool {
	return k == StepSucceeded || k == StepSkipped || k == StepFailed
}

// Severity grades a LogLine.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	}
	return "info"
}

// SkipReason says why a step was skipped.
type SkipReason int

const (
	AlreadyInstalled SkipReason = iota + 1
	// Manual means the method has no command; the instructions were logged.
	Manual
	// Unchanged means an artifact already held the generated content.
	Unchanged
	// NotApplicable means a credential or font step found nothing to do.
	NotApplicable
	// DryRun means the step would have changed the host.
	DryRun
)

func (r SkipReason) String() string {
	switch r {
	case AlreadyInstalled:
		return "already installed"
	case Manual:
		return "manual install"
	case Unchanged:
		return "unchanged"
	case NotApplicable:
		return "not applicable"
	case DryRun:
		return "dry run"
	}
	return "skipped"
}

// Event is one message of a run's stream. Fields beyond Kind are set
// according to it: step events carry Step and Title, StepSkipped adds Skip
// and Detail, StepFailed adds Err, LogLine carries Text and Severity and
// PlanFinished carries Summary.
type Event struct {
	Kind EventKind
	// Seq numbers events from 1 in emission order.
	Seq  int
	Time time.Time

	Step  int // index into the plan, -1 for plan-level events
	ID    string
	Title string

	Skip   SkipReason
	Detail string
	Err    *StepError

	Text     string
	Severity Severity

	Summary *Summary
}

func (e Event) String() string {
	switch e.Kind {
	case StepStarted:
		return fmt.Sprintf("#%d %s: started", e.Step+1, e.Title)
	case StepSucceeded:
		return fmt.Sprintf("#%d %s: ok", e.Step+1, e.Title)
	case StepSkipped:
		if e.Detail != "" {
			return fmt.Sprintf("#%d %s: skipped (%s: %s)", e.Step+1, e.Title, e.Skip, e.Detail)
		}
		return fmt.Sprintf("#%d %s: skipped (%s)", e.Step+1, e.Title, e.Skip)
	case StepFailed:
		return fmt.Sprintf("#%d %s: failed: %v", e.Step+1, e.Title, e.Err)
	case LogLine:
		return e.Text
	case PlanFinished:
		if e.Summary != nil {
			return e.Summary.String()
		}
	}
	return e.Text
}

// Outcome is how a step ended.
type Outcome int

const (
	NotAttempted Outcome = iota
	Succeeded
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "not attempted"
}

// StepResult is the resolution of one step.
type StepResult struct {
	ID       string
	Title    string
	Kind     StepKind
	Outcome  Outcome
	Skip     SkipReason
	Detail   string
	Err      *StepError
	Duration time.Duration
}

// Summary is carried by PlanFinished.
type Summary struct {
	PlanID       string
	Started      time.Time
	Duration     time.Duration
	Total        int
	Succeeded    int
	Skipped      int
	Failed       int
	NotAttempted int
	// Cancelled is set when the operator cancelled or interrupted the run.
	Cancelled bool
	DryRun    bool
	Results   []StepResult
}

// Resolved is the number of steps that reached a terminal event.
func (s Summary) Resolved() int {
	return s.Succeeded + s.Skipped + s.Failed
}

func (s Summary) String() string {
	out := fmt.Sprintf("%d succeeded, %d skipped, %d failed", s.Succeeded, s.Skipped, s.Failed)
	if s.Cancelled {
		out += fmt.Sprintf(", cancelled with %d not attempted", s.NotAttempted)
	}
	return out + fmt.Sprintf(" in %s", s.Duration.Round(time.Second))
}

func summarize(results []StepResult) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Outcome {
		case Succeeded:
			s.Succeeded++
		case Skipped:
			s.Skipped++
		case Failed:
			s.Failed++
		default:
			s.NotAttempted++
		}
	}
	return s
}
