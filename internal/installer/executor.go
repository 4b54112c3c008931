// Package installer turns a frozen wizard snapshot into a plan and runs it
// on a single background worker.
//
// A run reports progress only through its event stream. For every step the
// stream carries StepStarted, any LogLines, then exactly one of
// StepSucceeded, StepSkipped or StepFailed, and steps appear in plan order.
// Step failures never stop the run; cancellation is observed between steps.
package installer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"loadstar/internal/catalog"
	"loadstar/internal/command"
	"loadstar/internal/credentials"
	"loadstar/internal/dotfiles"
	"loadstar/internal/system"
)

// Executor runs plans against one host, one at a time.
type Executor struct {
	Runner      command.Runner
	Credentials *credentials.Manager
	Fonts       *Fonts
	Host        system.Info
	// DryRun reports what would change without touching the host. Runner
	// should then be command.DryRun.
	DryRun bool

	mu     sync.Mutex
	active *Run
}

// Run is a plan being executed.
type Run struct {
	plan      *Plan
	events    *Stream
	cancelled atomic.Bool
	ctx       context.Context
	stop      context.CancelFunc
	done      chan struct{}
	summary   Summary
}

// Start launches plan on a new worker and returns immediately.
func (e *Executor) Start(plan *Plan) (*Run, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return nil, ErrAlreadyRunning
	}
	ctx, stop := context.WithCancel(context.Background())
	r := &Run{
		plan:   plan,
		events: newStream(),
		ctx:    ctx,
		stop:   stop,
		done:   make(chan struct{}),
	}
	e.active = r
	go e.work(r)
	return r, nil
}

// Active returns the run in progress, or nil.
func (e *Executor) Active() *Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Plan is the plan being run.
func (r *Run) Plan() *Plan { return r.plan }

// Events is the run's stream.
func (r *Run) Events() *Stream { return r.events }

// Cancel asks the worker to stop before the next step. The current step
// runs to completion.
func (r *Run) Cancel() { r.cancelled.Store(true) }

// Interrupt cancels and also terminates the current step's child process.
// That step resolves as StepFailed with kind Interrupted.
func (r *Run) Interrupt() {
	r.cancelled.Store(true)
	r.stop()
}

// Cancelled reports whether Cancel or Interrupt was called.
func (r *Run) Cancelled() bool { return r.cancelled.Load() }

// Done is closed once PlanFinished has been emitted.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its summary.
func (r *Run) Wait() Summary {
	<-r.done
	return r.summary
}

// worker holds the state of one run that changes from step to step.
type worker struct {
	e *Executor
	r *Run
	// managers tracks package managers present now, including ones
	// bootstrapped earlier in this run.
	managers map[catalog.Manager]bool
	// broken records managers whose bootstrap failed, with the reason.
	broken     map[catalog.Manager]string
	aptUpdated bool
}

func (e *Executor) work(r *Run) {
	started := time.Now()
	w := &worker{e: e, r: r, managers: map[catalog.Manager]bool{}, broken: map[catalog.Manager]string{}}
	for m, ok := range e.Host.Platform.Managers {
		w.managers[m] = ok
	}

	steps := r.plan.steps
	r.events.push(Event{Kind: PhaseStarted, Step: -1, Time: time.Now(), Text: fmt.Sprintf("Installing %d steps", len(steps))})

	results := make([]StepResult, len(steps))
	for i, st := range steps {
		results[i] = StepResult{ID: st.ID, Title: st.Title, Kind: st.Kind}
	}
	cancelled := false
	for i, st := range steps {
		if r.cancelled.Load() {
			cancelled = true
			break
		}
		results[i] = w.step(i, st)
	}

	sum := summarize(results)
	sum.PlanID = r.plan.ID()
	sum.Started = started
	sum.Duration = time.Since(started)
	// An interrupt during the last step leaves nothing unattempted but is still an abort.
	sum.Cancelled = cancelled || r.cancelled.Load()
	sum.DryRun = e.DryRun
	r.summary = sum
	r.events.push(Event{Kind: PlanFinished, Step: -1, Time: time.Now(), Summary: &sum})

	e.mu.Lock()
	e.active = nil
	e.mu.Unlock()
	r.stop()
	r.events.close()
	close(r.done)
}

// result is a step's resolution before it becomes an event.
type result struct {
	outcome Outcome
	skip    SkipReason
	detail  string
	err     *StepError
}

func succeeded() result { return result{outcome: Succeeded} }

func skippedBy(reason SkipReason, detail string) result {
	return result{outcome: Skipped, skip: reason, detail: detail}
}

func failedWith(err *StepError) result { return result{outcome: Failed, err: err} }

func (w *worker) step(i int, st Step) StepResult {
	begin := time.Now()
	w.emit(Event{Kind: StepStarted, Step: i, ID: st.ID, Title: st.Title})
	res := w.safely(i, st)

	ev := Event{Step: i, ID: st.ID, Title: st.Title}
	switch res.outcome {
	case Succeeded:
		ev.Kind = StepSucceeded
	case Skipped:
		ev.Kind, ev.Skip, ev.Detail = StepSkipped, res.skip, res.detail
	default:
		ev.Kind, ev.Err = StepFailed, res.err
	}
	w.emit(ev)
	return StepResult{
		ID:       st.ID,
		Title:    st.Title,
		Kind:     st.Kind,
		Outcome:  res.outcome,
		Skip:     res.skip,
		Detail:   res.detail,
		Err:      res.err,
		Duration: time.Since(begin),
	}
}

// safely runs one step, turning a panic into an Internal failure so the
// worker survives.
func (w *worker) safely(i int, st Step) (res result) {
	defer func() {
		if p := recover(); p != nil {
			res = failedWith(&StepError{Kind: Internal, Detail: fmt.Sprintf("panic: %v", p)})
		}
	}()
	switch st.Kind {
	case PackageStep:
		return w.installPackage(i, st)
	case BootstrapStep:
		return w.bootstrap(i, st)
	case FontStep:
		return w.installFont(i, st)
	case ArtifactStep:
		return w.writeArtifact(i, st)
	case CredentialStep:
		return w.credential(i, st)
	}
	return failedWith(&StepError{Kind: Internal, Detail: fmt.Sprintf("unknown step kind %d", st.Kind)})
}

func (w *worker) emit(ev Event) {
	ev.Time = time.Now()
	w.r.events.push(ev)
}

func (w *worker) log(i int, sev Severity, format string, a ...any) {
	w.emit(Event{Kind: LogLine, Step: i, ID: w.r.plan.steps[i].ID, Severity: sev, Text: fmt.Sprintf(format, a...)})
}

// lineSeverity grades a child process line by its markers.
func lineSeverity(line string) Severity {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "error"), strings.Contains(l, "fatal"), strings.HasPrefix(l, "e: "):
		return SeverityError
	case strings.Contains(l, "warn"), strings.HasPrefix(l, "w: "):
		return SeverityWarn
	}
	return SeverityInfo
}

// run executes c for step i, streaming its output as LogLines.
func (w *worker) run(i int, c command.Cmd) error {
	w.log(i, SeverityInfo, "$ %s", c)
	res, err := w.e.Runner.Run(w.r.ctx, c, func(_ command.Stream, line string) {
		w.log(i, lineSeverity(line), "%s", line)
	})
	if err != nil {
		if w.r.ctx.Err() != nil {
			return &StepError{Kind: Interrupted, Detail: c.Name + " terminated by operator", Err: ErrInterrupted}
		}
		return &StepError{Kind: ExternalCommand, Detail: err.Error(), Err: err}
	}
	if res.ExitCode != 0 {
		detail := strings.TrimSpace(res.LastStderr)
		if detail == "" {
			detail = c.String()
		}
		w.log(i, SeverityError, "%s exited with code %d", c.Name, res.ExitCode)
		return &StepError{Kind: ExternalCommand, ExitCode: res.ExitCode, Detail: detail}
	}
	return nil
}

func (w *worker) installPackage(i int, st Step) result {
	m := st.Method
	switch m.Kind {
	case catalog.MethodManual:
		w.log(i, SeverityWarn, "%s: %s", st.Entry.Name, m.Note)
		return skippedBy(Manual, m.Note)
	case catalog.MethodPackage, catalog.MethodScript:
	default:
		return failedWith(&StepError{
			Kind:   Unsupported,
			Detail: fmt.Sprintf("no install method for %s on %s", st.Entry.ID, w.e.Host.OS),
			Err:    catalog.ErrUnsupported,
		})
	}

	if m.Kind == catalog.MethodPackage {
		// Casks and formulae share brew; fail fast on the manager, not the entry.
		root := m.Manager.Root()
		// Bootstrap already failed earlier in this run
		if why, ok := w.broken[root]; ok {
			return failedWith(&StepError{Kind: Prerequisite, Detail: fmt.Sprintf("%s is unavailable: %s", root, why)})
		}
		// Neither on PATH at plan time nor bootstrapped
		if !w.managers[root] {
			return failedWith(&StepError{Kind: Prerequisite, Detail: fmt.Sprintf("%s is not installed", root.Program())})
		}
	}

	if probe(w.r.ctx, w.e.Runner, st.Entry, m) {
		w.log(i, SeverityInfo, "%s is already installed", st.Entry.Name)
		return skippedBy(AlreadyInstalled, "")
	}

	// Refresh apt lists once, right before the first apt install of the run.
	if m.Kind == catalog.MethodPackage && m.Manager == catalog.Apt && !w.aptUpdated {
		w.aptUpdated = true
		if err := w.run(i, privileged("apt-get", "update")); err != nil {
			se := classify(err)
			if se.Kind == Interrupted {
				return failedWith(se)
			}
			w.log(i, SeverityWarn, "apt-get update failed, continuing with cached package lists")
		}
	}

	if err := w.run(i, installCommand(m)); err != nil {
		return failedWith(classify(err))
	}
	if w.e.DryRun {
		return skippedBy(DryRun, m.String())
	}
	return succeeded()
}

func (w *worker) bootstrap(i int, st Step) result {
	m := st.Manager
	// Installed between plan time and now, e.g. by an earlier script step
	if w.e.Runner.LookPath(m.Program()) {
		w.managers[m] = true
		return skippedBy(AlreadyInstalled, "")
	}
	b, ok := bootstrapFor(m, w.e.Host.OS, w.e.Host.Home)
	if !ok {
		w.broken[m] = "no bootstrap available"
		return failedWith(&StepError{Kind: Prerequisite, Detail: fmt.Sprintf("%s cannot be installed automatically", m)})
	}
	for _, c := range b.commands {
		if err := w.run(i, c); err != nil {
			se := classify(err)
			// Later steps on this manager report Prerequisite with this reason.
			w.broken[m] = se.Error()
			return failedWith(se)
		}
		// New binaries must be visible to the steps that follow.
		if !w.e.DryRun {
			prependPath(b.bin...)
		}
	}
	// In a dry run the manager counts as present so dependent steps still echo.
	w.managers[m] = true
	if w.e.DryRun {
		return skippedBy(DryRun, "")
	}
	return succeeded()
}

func (w *worker) installFont(i int, st Step) result {
	f := w.e.Fonts
	if f == nil {
		return skippedBy(NotApplicable, "font installer not configured")
	}
	if f.Installed(st.Font) {
		return skippedBy(AlreadyInstalled, dotfiles.Target{Home: w.r.plan.home}.Display(f.Dir))
	}
	if w.e.DryRun {
		w.log(i, SeverityInfo, "dry-run: download %s Nerd Font into %s", st.Font, f.Dir)
		return skippedBy(DryRun, "")
	}
	w.log(i, SeverityInfo, "Downloading %s Nerd Font", st.Font)
	files, err := f.Install(w.r.ctx, st.Font)
	if err != nil {
		if w.r.ctx.Err() != nil {
			return failedWith(classify(ErrInterrupted))
		}
		return failedWith(classify(err))
	}
	w.log(i, SeverityInfo, "Installed %d font files into %s", len(files), f.Dir)

	if w.e.Host.OS == catalog.Linux && w.e.Runner.LookPath("fc-cache") {
		if err := w.run(i, command.New("fc-cache", "-f", f.Dir)); err != nil {
			w.log(i, SeverityWarn, "fc-cache failed; fonts appear after the next login")
		}
	}
	return succeeded()
}

func (w *worker) writeArtifact(i int, st Step) result {
	target := dotfiles.Target{Home: w.r.plan.home}
	res, err := dotfiles.Write(st.Artifact, w.e.DryRun)
	if err != nil {
		return failedWith(&StepError{Kind: Filesystem, Detail: err.Error(), Err: err})
	}
	switch res.Outcome {
	case dotfiles.Unchanged:
		return skippedBy(Unchanged, "")
	case dotfiles.Replaced:
		if w.e.DryRun {
			return skippedBy(DryRun, "would replace, backup "+target.Display(res.Backup))
		}
		w.log(i, SeverityInfo, "Previous content saved to %s", target.Display(res.Backup))
	case dotfiles.Created:
		if w.e.DryRun {
			return skippedBy(DryRun, "would create")
		}
	}
	w.log(i, SeverityInfo, "Wrote %s", target.Display(st.Artifact.Path))
	return succeeded()
}

func (w *worker) credential(i int, st Step) result {
	if w.e.Credentials == nil {
		return skippedBy(NotApplicable, "credential manager not configured")
	}
	if w.e.DryRun {
		w.log(i, SeverityInfo, "dry-run: %s", st.Credential.Title())
		return skippedBy(DryRun, "")
	}
	out, err := w.e.Credentials.Run(w.r.ctx, st.Credential, func(level credentials.Level, format string, a ...any) {
		sev := SeverityInfo
		if level == credentials.Warn {
			sev = SeverityWarn
		}
		w.log(i, sev, format, a...)
	})
	if err != nil {
		return failedWith(classify(err))
	}
	if out.Skipped {
		return skippedBy(NotApplicable, out.Reason)
	}
	return succeeded()
}
