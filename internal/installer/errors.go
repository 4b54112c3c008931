package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrAlreadyRunning is returned by Start while another run is active.
	ErrAlreadyRunning = errors.New("installer: a run is already in progress")
	// ErrUnsupportedPlatform is returned by BuildPlan for an OS the catalog does not target.
	ErrUnsupportedPlatform = errors.New("installer: unsupported platform")
	// ErrInterrupted marks a step whose child process was terminated by Interrupt.
	ErrInterrupted = errors.New("installer: interrupted")
)

// ErrorKind classifies a failed step.
type ErrorKind int

const (
	// Unsupported means the entry has no install method for this host.
	Unsupported ErrorKind = iota + 1
	// ExternalCommand means a child process exited non-zero or could not start.
	ExternalCommand
	// Filesystem means a file could not be read or written.
	Filesystem
	// Prerequisite means a package manager the step needs is missing or failed to bootstrap.
	Prerequisite
	// Interrupted means the operator terminated the step.
	Interrupted
	// Internal means the step panicked.
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case Unsupported:
		return "unsupported"
	case ExternalCommand:
		return "command failed"
	case Filesystem:
		return "filesystem"
	case Prerequisite:
		return "prerequisite"
	case Interrupted:
		return "interrupted"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// StepError is the failure detail carried by a StepFailed event.
type StepError struct {
	Kind   ErrorKind
	Detail string
	// ExitCode is set for ExternalCommand failures of a process that ran.
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.Kind == ExternalCommand && e.ExitCode != 0 {
		return fmt.Sprintf("%s: exit code %d: %s", e.Kind, e.ExitCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *StepError) Unwrap() error { return e.Err }

// classify turns an error returned by a step into a StepError.
func classify(err error) *StepError {
	var se *StepError
	if errors.As(err, &se) {
		return se
	}
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, ErrInterrupted):
		return &StepError{Kind: Interrupted, Detail: "terminated by operator", Err: ErrInterrupted}
	case errors.As(err, &pathErr):
		return &StepError{Kind: Filesystem, Detail: err.Error(), Err: err}
	}
	return &StepError{Kind: ExternalCommand, Detail: err.Error(), Err: err}
}
