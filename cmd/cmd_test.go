package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	latest "github.com/tcnksm/go-latest"

	"loadstar/internal/catalog"
	"loadstar/internal/command"
	"loadstar/internal/installer"
	"loadstar/internal/logger"
	"loadstar/internal/state"
	"loadstar/internal/system"
	"loadstar/internal/wizard"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })
	return &buf
}

func dryRunApp(t *testing.T) *app {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	host := system.Info{
		OS: catalog.Linux, Arch: "amd64", Home: t.TempDir(), User: "jane", Hostname: "box",
		Platform: catalog.Platform{OS: catalog.Linux, Managers: map[catalog.Manager]bool{catalog.Apt: true}},
	}
	return &app{
		catalog:  cat,
		host:     host,
		probe:    command.DryRun{},
		dryRun:   true,
		executor: &installer.Executor{Runner: command.DryRun{}, Host: host, DryRun: true},
	}
}

func snapshot() wizard.Snapshot {
	return wizard.Snapshot{
		Identity: wizard.Identity{Name: "Jane Doe", Email: "jane@x.com"},
		Shell:    wizard.ShellChoices{Shell: wizard.ShellZsh},
		Selected: []string{"zsh", "ripgrep", "fd"},
		Flags:    wizard.Flags{GenerateSSHKey: true},
	}
}

func TestRenderDrainsUntilFinished(t *testing.T) {
	buf := captureLog(t)
	a := dryRunApp(t)
	run, err := a.start(snapshot())
	require.NoError(t, err)

	sum := render(run, nil, 5*time.Millisecond)
	assert.True(t, sum.DryRun)
	assert.Equal(t, run.Plan().Len(), sum.Total)
	assert.Equal(t, sum.Total, sum.Resolved())
	assert.Zero(t, sum.Failed)

	out := buf.String()
	assert.Contains(t, out, "(1/")
	assert.Contains(t, out, "Ripgrep (dry run")
	assert.Contains(t, out, "Done:")
	for _, home := range []string{a.host.Home} {
		entries, err := os.ReadDir(home)
		require.NoError(t, err)
		assert.Empty(t, entries, "dry run writes nothing")
	}
}

func TestStartListsPlanInDebug(t *testing.T) {
	buf := captureLog(t)
	logger.Init(true)
	t.Cleanup(func() { logger.Init(false) })

	a := dryRunApp(t)
	run, err := a.start(snapshot())
	require.NoError(t, err)
	render(run, nil, 5*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] Plan "+run.Plan().ID())
	assert.Contains(t, out, "Ripgrep")
}

func TestRenderCancelsOnInterrupt(t *testing.T) {
	captureLog(t)
	a := dryRunApp(t)
	run, err := a.start(snapshot())
	require.NoError(t, err)

	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt
	sum := render(run, interrupts, 5*time.Millisecond)
	assert.True(t, run.Cancelled())
	assert.Equal(t, sum.Total, sum.Resolved()+sum.NotAttempted)
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
		"sure":  false,
	}
	for input, want := range tests {
		var out bytes.Buffer
		got, err := confirm(strings.NewReader(input), &out)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestWriteCatalog(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	p := catalog.Platform{OS: catalog.Linux, Managers: map[catalog.Manager]bool{catalog.Apt: true}}

	var buf bytes.Buffer
	require.NoError(t, writeCatalog(&buf, cat, p, "search"))
	out := buf.String()
	assert.Contains(t, out, "ripgrep")
	assert.Contains(t, out, "apt-get install fd-find")
	assert.NotContains(t, out, "docker")
	assert.Contains(t, out, "* pre-selected")

	assert.ErrorContains(t, writeCatalog(&buf, cat, p, "nope"), "unknown category")
}

func TestWritePresets(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, writePresets(&buf, cat))
	out := buf.String()
	for _, name := range []string{"minimal", "standard", "full", "everything"} {
		assert.Contains(t, out, name)
	}
}

func TestWriteRun(t *testing.T) {
	var buf bytes.Buffer
	rec := state.RunRecord{
		ID:        "01J0000000000000000000000A",
		Started:   time.Now(),
		Duration:  42 * time.Second,
		Succeeded: 1,
		Failed:    1,
		Cancelled: true,
		Steps: []state.StepRecord{
			{Title: "Fd", Outcome: "succeeded"},
			{Title: "Docker", Outcome: "failed", Detail: "command failed: exit code 100: E: Unable to locate package"},
		},
	}
	require.NoError(t, writeRun(&buf, rec))
	out := buf.String()
	assert.Contains(t, out, "(cancelled)")
	assert.Contains(t, out, "1 succeeded, 0 skipped, 1 failed, 0 not attempted")
	assert.Contains(t, out, "exit code 100")
}

func TestPrintEventSeverities(t *testing.T) {
	buf := captureLog(t)
	printEvent(installer.Event{Kind: installer.StepFailed, Title: "Docker", Err: &installer.StepError{Kind: installer.Unsupported, Detail: "no install method"}}, 3)
	printEvent(installer.Event{Kind: installer.LogLine, Text: "verbose output", Severity: installer.SeverityInfo}, 3)
	printEvent(installer.Event{Kind: installer.LogLine, Text: "careful", Severity: installer.SeverityWarn}, 3)
	out := buf.String()
	assert.Contains(t, out, "Docker: unsupported: no install method")
	assert.NotContains(t, out, "verbose output", "info output is debug only")
	assert.Contains(t, out, "careful")
}

func TestCheckUpdate(t *testing.T) {
	buf := captureLog(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version":"1.4.0"}`))
	}))
	t.Cleanup(srv.Close)

	require.NoError(t, checkUpdate(&latest.JSON{URL: srv.URL}, "v1.2.0"))
	assert.Contains(t, buf.String(), "A new version is available: 1.4.0")

	buf.Reset()
	require.NoError(t, checkUpdate(&latest.JSON{URL: srv.URL}, "1.4.0"))
	assert.Contains(t, buf.String(), "latest version")

	buf.Reset()
	require.NoError(t, checkUpdate(&latest.JSON{URL: srv.URL}, "dev"))
	assert.Contains(t, buf.String(), "Development build")
}
