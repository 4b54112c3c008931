package installer

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadstar/internal/catalog"
	"loadstar/internal/command"
	"loadstar/internal/command/commandtest"
	"loadstar/internal/credentials"
	"loadstar/internal/dotfiles"
	"loadstar/internal/system"
	"loadstar/internal/wizard"
)

const testCatalog = `
categories:
  - {id: shell, name: Shell}
  - {id: search, name: Search}
  - {id: container, name: Containers}
  - {id: language, name: Languages}
  - {id: editor, name: Editors}
  - {id: git, name: Git}
entries:
  - id: zsh
    name: Zsh
    category: shell
    methods:
      - {os: linux, manager: apt, package: zsh}
      - {manager: brew, package: zsh}
  - id: starship
    name: Starship
    category: shell
    methods:
      - {manager: brew, package: starship}
      - {os: linux, script: "https://starship.rs/install.sh"}
  - id: fd
    name: Fd
    category: search
    methods:
      - {os: linux, manager: apt, package: fd-find}
      - {manager: brew, package: fd}
  - id: ripgrep
    name: ripgrep
    category: search
    binary: rg
    methods:
      - {os: linux, manager: apt, package: ripgrep}
      - {manager: brew, package: ripgrep}
  - id: docker
    name: Docker
    category: container
    methods:
      - {os: linux, manager: apt, package: docker.io}
      - {os: darwin, manager: cask, package: docker}
  - id: iterm2
    name: iTerm2
    category: container
    binary: ""
    methods:
      - {os: darwin, manager: cask, package: iterm2}
  - id: tokei
    name: Tokei
    category: language
    methods:
      - {manager: cargo, package: tokei}
  - id: git-absorb
    name: git-absorb
    category: language
    methods:
      - {manager: cargo, package: git-absorb}
  - id: vscode
    name: VS Code
    category: editor
    binary: code
    methods:
      - {os: darwin, manager: cask, package: visual-studio-code}
      - {os: linux, manual: "Download the .deb from https://code.visualstudio.com/download"}
  - id: gh
    name: GitHub CLI
    category: git
    methods:
      - {manager: brew, package: gh}
      - {os: linux, manager: apt, package: gh}
`

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load([]byte(testCatalog))
	require.NoError(t, err)
	return cat
}

func linuxHost(t *testing.T, managers ...catalog.Manager) system.Info {
	t.Helper()
	p := catalog.Platform{OS: catalog.Linux, Managers: map[catalog.Manager]bool{}}
	for _, m := range managers {
		p.Managers[m] = true
	}
	return system.Info{OS: catalog.Linux, Arch: "amd64", Home: t.TempDir(), User: "jane", Hostname: "box", Platform: p}
}

// packagePlan builds a plan of package steps only, so scenarios can count
// outcomes without artifact and credential steps.
func packagePlan(t *testing.T, cat *catalog.Catalog, host system.Info, ids ...string) *Plan {
	t.Helper()
	var steps []Step
	for _, id := range ids {
		e, err := cat.Entry(id)
		require.NoError(t, err)
		st := Step{ID: "package:" + id, Kind: PackageStep, Title: e.Name, Group: e.Category, Entry: e}
		if m, err := e.MethodFor(host.Platform); err == nil {
			st.Method = m
		}
		steps = append(steps, st)
	}
	return rawPlan(host, steps...)
}

func rawPlan(host system.Info, steps ...Step) *Plan {
	return &Plan{id: ulid.MustNew(ulid.Now(), rand.Reader), created: time.Now(), steps: steps, home: host.Home}
}

func setup(t *testing.T) {
	t.Helper()
	root := isRoot
	isRoot = func() bool { return false }
	path := prependPath
	prependPath = func(...string) {}
	t.Cleanup(func() {
		isRoot = root
		prependPath = path
	})
}

// finish waits for the run and returns its summary and every event.
func finish(t *testing.T, r *Run) (Summary, []Event) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	sum := r.Wait()
	events := r.Events().Drain()
	assert.True(t, r.Events().Finished())
	return sum, events
}

// assertWellOrdered checks the stream contract: contiguous sequence
// numbers, PhaseStarted first, PlanFinished last, and for every step
// Started, its LogLines, then one terminal event, with steps in plan order.
func assertWellOrdered(t *testing.T, events []Event) {
	t.Helper()
	require.NotEmpty(t, events)
	assert.Equal(t, PhaseStarted, events[0].Kind)
	assert.Equal(t, PlanFinished, events[len(events)-1].Kind)

	open, last := -1, -1
	for n, ev := range events {
		assert.Equal(t, n+1, ev.Seq, "sequence numbers are contiguous")
		switch {
		case ev.Kind == StepStarted:
			assert.Equal(t, -1, open, "step %d started while %d open", ev.Step, open)
			assert.Equal(t, last+1, ev.Step, "steps start in plan order")
			open = ev.Step
		case ev.Kind.Terminal():
			assert.Equal(t, open, ev.Step, "terminal event for the open step")
			last, open = ev.Step, -1
		case ev.Kind == LogLine:
			assert.Equal(t, open, ev.Step, "log lines fall inside their step")
		}
	}
	assert.Equal(t, -1, open, "no step left half-started")
}

func terminal(events []Event) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Kind.Terminal() {
			out = append(out, ev)
		}
	}
	return out
}

func TestScenarioTwoInstalledOneAlreadyPresent(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	r := commandtest.New().Path("dpkg", "docker").
		Fail(1, "dpkg", "-s")

	ex := &Executor{Runner: r, Host: host}
	run, err := ex.Start(packagePlan(t, cat, host, "fd", "ripgrep", "docker"))
	require.NoError(t, err)
	sum, events := finish(t, run)

	assertWellOrdered(t, events)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	assert.False(t, sum.Cancelled)

	term := terminal(events)
	require.Len(t, term, 3)
	assert.Equal(t, StepSucceeded, term[0].Kind)
	assert.Equal(t, StepSucceeded, term[1].Kind)
	assert.Equal(t, StepSkipped, term[2].Kind)
	assert.Equal(t, AlreadyInstalled, term[2].Skip)

	assert.True(t, r.Ran("sudo", "-n", "apt-get", "install", "-y", "fd-find"))
	assert.True(t, r.Ran("sudo", "-n", "apt-get", "install", "-y", "ripgrep"))
	assert.False(t, r.Ran("sudo", "-n", "apt-get", "install", "-y", "docker.io"))

	updates := 0
	for _, l := range r.CommandLines() {
		if l == "sudo -n apt-get update" {
			updates++
		}
	}
	assert.Equal(t, 1, updates, "package lists refreshed once per run")

	last := events[len(events)-1]
	require.NotNil(t, last.Summary)
	assert.Equal(t, sum.PlanID, last.Summary.PlanID)
}

func TestProbeHitNeverRunsInstall(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	// Not on PATH, but dpkg knows the package.
	r := commandtest.New().Path("dpkg")

	run, err := (&Executor{Runner: r, Host: host}).Start(packagePlan(t, cat, host, "docker", "fd"))
	require.NoError(t, err)
	sum, _ := finish(t, run)

	assert.Equal(t, 2, sum.Skipped)
	for _, l := range r.CommandLines() {
		assert.NotContains(t, l, "apt-get install", "probe hit must not install")
	}
	assert.True(t, r.Ran("dpkg", "-s", "docker.io"))
}

func TestFailedStepDoesNotAbortPlan(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	r := commandtest.New().
		On(commandtest.Response{ExitCode: 100, Stderr: []string{"E: Unable to locate package fd-find"}}, "sudo", "-n", "apt-get", "install", "-y", "fd-find")

	run, err := (&Executor{Runner: r, Host: host}).Start(packagePlan(t, cat, host, "fd", "ripgrep"))
	require.NoError(t, err)
	sum, events := finish(t, run)
	assertWellOrdered(t, events)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Succeeded)
	res := sum.Results[0]
	assert.Equal(t, Failed, res.Outcome)
	require.NotNil(t, res.Err)
	assert.Equal(t, ExternalCommand, res.Err.Kind)
	assert.Equal(t, 100, res.Err.ExitCode)
	assert.Equal(t, "E: Unable to locate package fd-find", res.Err.Detail)

	var errLines int
	for _, ev := range events {
		if ev.Kind == LogLine && ev.Step == 0 && ev.Severity == SeverityError {
			errLines++
		}
	}
	assert.Equal(t, 2, errLines, "stderr marker line and exit status line")
}

func TestCancelBetweenSteps(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)

	runs := make(chan *Run, 1)
	r := commandtest.New().On(commandtest.Response{Hook: func(command.Cmd) {
		run := <-runs
		run.Cancel()
		runs <- run
	}}, "sudo", "-n", "apt-get", "install")

	ex := &Executor{Runner: r, Host: host}
	run, err := ex.Start(packagePlan(t, cat, host, "fd", "ripgrep", "docker"))
	require.NoError(t, err)
	runs <- run
	sum, events := finish(t, run)
	assertWellOrdered(t, events)

	assert.True(t, sum.Cancelled)
	assert.Equal(t, 1, sum.Resolved())
	assert.Equal(t, 1, sum.Succeeded, "in-flight step runs to completion")
	assert.Equal(t, 2, sum.NotAttempted)
	assert.Len(t, terminal(events), 1)
	for _, ev := range events {
		if ev.Kind == StepStarted {
			assert.Equal(t, 0, ev.Step)
		}
	}
	assert.Nil(t, ex.Active())
}

func TestInterruptTerminatesInFlightStep(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)

	runs := make(chan *Run, 1)
	r := commandtest.New().On(commandtest.Response{Hook: func(command.Cmd) {
		run := <-runs
		run.Interrupt()
		runs <- run
	}}, "sudo", "-n", "apt-get", "install")

	run, err := (&Executor{Runner: r, Host: host}).Start(packagePlan(t, cat, host, "fd", "ripgrep", "docker"))
	require.NoError(t, err)
	runs <- run
	sum, events := finish(t, run)
	assertWellOrdered(t, events)

	assert.True(t, sum.Cancelled)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.NotAttempted)
	require.NotNil(t, sum.Results[0].Err)
	assert.Equal(t, Interrupted, sum.Results[0].Err.Kind)
	assert.ErrorIs(t, sum.Results[0].Err, ErrInterrupted)
}

func TestInterruptOnLastStepCountsAsCancelled(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)

	runs := make(chan *Run, 1)
	r := commandtest.New().On(commandtest.Response{Hook: func(command.Cmd) {
		run := <-runs
		run.Interrupt()
		runs <- run
	}}, "sudo", "-n", "apt-get", "install")

	run, err := (&Executor{Runner: r, Host: host}).Start(packagePlan(t, cat, host, "fd"))
	require.NoError(t, err)
	runs <- run
	sum, _ := finish(t, run)

	assert.True(t, sum.Cancelled)
	assert.Equal(t, 1, sum.Failed)
	assert.Zero(t, sum.NotAttempted)
}

func TestUnsupportedAndManualSteps(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	r := commandtest.New()

	run, err := (&Executor{Runner: r, Host: host}).Start(packagePlan(t, cat, host, "iterm2", "vscode", "fd"))
	require.NoError(t, err)
	sum, events := finish(t, run)
	assertWellOrdered(t, events)

	require.Len(t, sum.Results, 3)
	assert.Equal(t, Failed, sum.Results[0].Outcome)
	assert.Equal(t, Unsupported, sum.Results[0].Err.Kind)
	assert.ErrorIs(t, sum.Results[0].Err, catalog.ErrUnsupported)

	assert.Equal(t, Skipped, sum.Results[1].Outcome)
	assert.Equal(t, Manual, sum.Results[1].Skip)
	var noted bool
	for _, ev := range events {
		if ev.Kind == LogLine && ev.Step == 1 && strings.Contains(ev.Text, "code.visualstudio.com") {
			noted = true
		}
	}
	assert.True(t, noted, "manual instructions are logged")

	assert.Equal(t, Succeeded, sum.Results[2].Outcome, "later steps still run")
}

func TestBootstrapInsertedOnceBeforeFirstDependent(t *testing.T) {
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	snap := wizard.Snapshot{Selected: []string{"git-absorb", "fd", "tokei"}}

	plan, err := BuildPlan(cat, host, snap, Options{})
	require.NoError(t, err)

	var ids []string
	for _, st := range plan.Steps() {
		if st.Kind == PackageStep || st.Kind == BootstrapStep {
			ids = append(ids, st.ID)
		}
	}
	assert.Equal(t, []string{"package:fd", "bootstrap:cargo", "package:tokei", "package:git-absorb"}, ids)

	host.Platform.Managers[catalog.Cargo] = true
	plan, err = BuildPlan(cat, host, snap, Options{})
	require.NoError(t, err)
	for _, st := range plan.Steps() {
		assert.NotEqual(t, BootstrapStep, st.Kind, "present managers are not bootstrapped")
	}
}

func TestBootstrapFailureFailsDependentsFast(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	r := commandtest.New().
		On(commandtest.Response{ExitCode: 1, Stderr: []string{"curl: (6) Could not resolve host: sh.rustup.rs"}}, "/bin/sh", "-c")

	plan, err := BuildPlan(cat, host, wizard.Snapshot{Selected: []string{"tokei", "git-absorb"}}, Options{})
	require.NoError(t, err)
	run, err := (&Executor{Runner: r, Host: host}).Start(plan)
	require.NoError(t, err)
	sum, events := finish(t, run)
	assertWellOrdered(t, events)

	byID := map[string]StepResult{}
	for _, res := range sum.Results {
		byID[res.ID] = res
	}
	assert.Equal(t, Failed, byID["bootstrap:cargo"].Outcome)
	assert.Equal(t, Prerequisite, byID["package:tokei"].Err.Kind)
	assert.Equal(t, Prerequisite, byID["package:git-absorb"].Err.Kind)
	assert.Contains(t, byID["package:tokei"].Err.Detail, "Could not resolve host")
	assert.False(t, r.Ran("cargo"), "dependents spawn nothing")
}

func TestBootstrapSuccessExtendsPath(t *testing.T) {
	setup(t)
	var added []string
	prependPath = func(dirs ...string) { added = append(added, dirs...) }

	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	r := commandtest.New()

	plan, err := BuildPlan(cat, host, wizard.Snapshot{Selected: []string{"tokei"}}, Options{})
	require.NoError(t, err)
	run, err := (&Executor{Runner: r, Host: host}).Start(plan)
	require.NoError(t, err)
	sum, _ := finish(t, run)

	assert.Equal(t, Succeeded, sum.Results[0].Outcome)
	assert.Equal(t, Succeeded, sum.Results[1].Outcome)
	assert.Contains(t, added, filepath.Join(host.Home, ".cargo", "bin"))
	assert.True(t, r.Ran("/bin/sh", "-c", "curl --proto '=https' --tlsv1.2 -fsSL https://sh.rustup.rs | sh -s -- -y"))
	assert.True(t, r.Ran("cargo", "install", "--locked", "tokei"))
}

func TestPanicInStepIsContained(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	r := commandtest.New().On(commandtest.Response{Hook: func(command.Cmd) { panic("boom") }}, "sudo", "-n", "apt-get", "install", "-y", "fd-find")

	run, err := (&Executor{Runner: r, Host: host}).Start(packagePlan(t, cat, host, "fd", "ripgrep"))
	require.NoError(t, err)
	sum, events := finish(t, run)
	assertWellOrdered(t, events)

	assert.Equal(t, Internal, sum.Results[0].Err.Kind)
	assert.Contains(t, sum.Results[0].Err.Detail, "boom")
	assert.Equal(t, Succeeded, sum.Results[1].Outcome)
}

func TestOneRunAtATime(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	release := make(chan struct{})
	r := commandtest.New().On(commandtest.Response{Hook: func(command.Cmd) { <-release }}, "sudo", "-n", "apt-get", "install")

	ex := &Executor{Runner: r, Host: host}
	run, err := ex.Start(packagePlan(t, cat, host, "fd"))
	require.NoError(t, err)

	_, err = ex.Start(packagePlan(t, cat, host, "ripgrep"))
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Same(t, run, ex.Active())

	close(release)
	finish(t, run)

	again, err := ex.Start(packagePlan(t, cat, host, "ripgrep"))
	require.NoError(t, err)
	finish(t, again)
}

func TestArtifactStepBackupAndUnchanged(t *testing.T) {
	setup(t)
	host := linuxHost(t)
	path := filepath.Join(host.Home, ".tmux.conf")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))
	art := dotfiles.Artifact{Name: "tmux config", Path: path, Content: []byte("new\n"), Mode: 0o644}
	step := Step{ID: "artifact:~/.tmux.conf", Kind: ArtifactStep, Title: "tmux config", Artifact: art}

	ex := &Executor{Runner: commandtest.New(), Host: host}
	run, err := ex.Start(rawPlan(host, step))
	require.NoError(t, err)
	sum, events := finish(t, run)
	assert.Equal(t, Succeeded, sum.Results[0].Outcome)
	var logged bool
	for _, ev := range events {
		if ev.Kind == LogLine && strings.Contains(ev.Text, "~/.tmux.conf"+dotfiles.BackupSuffix) {
			logged = true
		}
	}
	assert.True(t, logged, "backup location is reported")

	got, err := os.ReadFile(dotfiles.BackupPath(path))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))

	run, err = ex.Start(rawPlan(host, step))
	require.NoError(t, err)
	sum, _ = finish(t, run)
	assert.Equal(t, Skipped, sum.Results[0].Outcome)
	assert.Equal(t, Unchanged, sum.Results[0].Skip)
}

func TestArtifactFilesystemErrorIsStepLocal(t *testing.T) {
	setup(t)
	host := linuxHost(t)
	blocker := filepath.Join(host.Home, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	bad := Step{ID: "artifact:bad", Kind: ArtifactStep, Title: "bad", Artifact: dotfiles.Artifact{Path: filepath.Join(blocker, "child"), Content: []byte("x")}}
	good := Step{ID: "artifact:good", Kind: ArtifactStep, Title: "good", Artifact: dotfiles.Artifact{Path: filepath.Join(host.Home, "good"), Content: []byte("x")}}

	run, err := (&Executor{Runner: commandtest.New(), Host: host}).Start(rawPlan(host, bad, good))
	require.NoError(t, err)
	sum, _ := finish(t, run)

	assert.Equal(t, Filesystem, sum.Results[0].Err.Kind)
	assert.Equal(t, Succeeded, sum.Results[1].Outcome)
}

func TestDryRunTouchesNothing(t *testing.T) {
	setup(t)
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt)
	snap := wizard.Snapshot{
		Identity: wizard.Identity{Name: "Jane Doe", Email: "jane@x.com"},
		Shell:    wizard.ShellChoices{Shell: wizard.ShellZsh, Prompt: wizard.PromptStarship},
		Selected: []string{"fd", "tokei"},
		Flags:    wizard.Flags{GenerateSSHKey: true},
	}
	plan, err := BuildPlan(cat, host, snap, Options{})
	require.NoError(t, err)

	creds := &credentials.Manager{Runner: command.DryRun{}, Home: host.Home, OS: host.OS}
	run, err := (&Executor{Runner: command.DryRun{}, Host: host, Credentials: creds, DryRun: true}).Start(plan)
	require.NoError(t, err)
	sum, events := finish(t, run)
	assertWellOrdered(t, events)

	assert.True(t, sum.DryRun)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, sum.Total, sum.Skipped)
	for _, res := range sum.Results {
		assert.Equal(t, DryRun, res.Skip, res.ID)
	}
	entries, err := os.ReadDir(host.Home)
	require.NoError(t, err)
	assert.Empty(t, entries, "no files written")

	var echoed bool
	for _, ev := range events {
		if ev.Kind == LogLine && strings.HasPrefix(ev.Text, "dry-run: sudo -n apt-get install -y fd-find") {
			echoed = true
		}
	}
	assert.True(t, echoed)
}

func TestCredentialStepGeneratesKey(t *testing.T) {
	setup(t)
	host := linuxHost(t)
	r := commandtest.New()
	creds := &credentials.Manager{Runner: r, Home: host.Home, OS: host.OS, Hostname: "box", User: "jane"}
	step := Step{
		ID:         "credential:ssh-key",
		Kind:       CredentialStep,
		Title:      "SSH key",
		Credential: credentials.Action{Kind: credentials.SSHKey, Identity: wizard.Identity{Email: "jane@x.com"}, Generate: true},
	}
	noKey := Step{
		ID:         "credential:gpg-signing",
		Kind:       CredentialStep,
		Title:      "GPG commit signing",
		Credential: credentials.Action{Kind: credentials.GPGSigning},
	}

	run, err := (&Executor{Runner: r, Host: host, Credentials: creds}).Start(rawPlan(host, step, noKey))
	require.NoError(t, err)
	sum, _ := finish(t, run)

	assert.Equal(t, Succeeded, sum.Results[0].Outcome)
	assert.FileExists(t, filepath.Join(host.Home, ".ssh", "id_ed25519"))
	assert.Equal(t, Skipped, sum.Results[1].Outcome)
	assert.Equal(t, NotApplicable, sum.Results[1].Skip)
	assert.Equal(t, "gpg not installed", sum.Results[1].Detail)
}

func TestBuildPlanLayout(t *testing.T) {
	cat := loadTestCatalog(t)
	host := linuxHost(t, catalog.Apt, catalog.Brew)
	snap := wizard.Snapshot{
		Identity: wizard.Identity{Name: "Jane Doe", Email: "jane@x.com"},
		Shell:    wizard.ShellChoices{Shell: wizard.ShellZsh, Prompt: wizard.PromptStarship},
		Selected: []string{"gh", "docker", "fd"},
		Flags:    wizard.Flags{GenerateSSHKey: true, GPGSigning: true, InstallFonts: true},
	}
	plan, err := BuildPlan(cat, host, snap, Options{})
	require.NoError(t, err)
	assert.Len(t, plan.ID(), 26)

	var kinds []StepKind
	var ids []string
	for _, st := range plan.Steps() {
		if len(kinds) == 0 || kinds[len(kinds)-1] != st.Kind {
			kinds = append(kinds, st.Kind)
		}
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []StepKind{PackageStep, FontStep, ArtifactStep, CredentialStep}, kinds)
	assert.Equal(t, []string{"package:fd", "package:docker", "package:gh"}, ids[:3], "catalog order")
	assert.Equal(t, "font:"+DefaultFont, ids[3])
	assert.Contains(t, ids, "artifact:~/.gitconfig")
	assert.Equal(t, []string{"credential:ssh-key", "credential:ssh-agent", "credential:gpg-signing", "credential:github-cli"}, ids[len(ids)-4:])

	// Frozen: editing the returned copy leaves the plan alone.
	steps := plan.Steps()
	steps[0].Title = "changed"
	assert.Equal(t, "Fd", plan.Step(0).Title)
}

func TestBuildPlanRejectsUnsupportedOS(t *testing.T) {
	cat := loadTestCatalog(t)
	host := system.Info{OS: "windows", Arch: "amd64", Platform: catalog.Platform{OS: "windows"}}
	_, err := BuildPlan(cat, host, wizard.Snapshot{}, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestLineSeverity(t *testing.T) {
	assert.Equal(t, SeverityError, lineSeverity("E: Unable to locate package"))
	assert.Equal(t, SeverityError, lineSeverity("fatal: not a git repository"))
	assert.Equal(t, SeverityWarn, lineSeverity("Warning: already installed"))
	assert.Equal(t, SeverityInfo, lineSeverity("==> Pouring ripgrep"))
}

func TestStreamDrainIsNonBlocking(t *testing.T) {
	s := newStream()
	assert.Nil(t, s.Drain())
	s.push(Event{Kind: PhaseStarted})
	s.push(Event{Kind: LogLine, Text: "a"})
	got := s.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Seq)
	assert.Equal(t, 2, got[1].Seq)
	assert.False(t, s.Finished())
	s.close()
	s.push(Event{Kind: LogLine})
	assert.Nil(t, s.Drain(), "pushes after close are dropped")
	assert.True(t, s.Finished())
	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestSummaryRecord(t *testing.T) {
	sum := summarize([]StepResult{
		{ID: "package:fd", Title: "Fd", Outcome: Succeeded},
		{ID: "package:docker", Title: "Docker", Outcome: Skipped, Skip: AlreadyInstalled},
		{ID: "package:iterm2", Title: "iTerm2", Outcome: Failed, Err: &StepError{Kind: Unsupported, Detail: "no install method"}},
		{ID: "package:gh", Title: "GitHub CLI"},
	})
	sum.PlanID = "plan"
	sum.Cancelled = true

	rec := sum.Record()
	assert.Equal(t, "plan", rec.ID)
	assert.Equal(t, 1, rec.Succeeded)
	assert.Equal(t, 1, rec.Skipped)
	assert.Equal(t, 1, rec.Failed)
	assert.Equal(t, 1, rec.NotAttempted)
	assert.True(t, rec.Cancelled)
	require.Len(t, rec.Steps, 4)
	assert.Equal(t, "already installed", rec.Steps[1].Detail)
	assert.Equal(t, "unsupported: no install method", rec.Steps[2].Detail)
	assert.Equal(t, "not attempted", rec.Steps[3].Outcome)
}
