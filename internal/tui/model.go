// Package tui is the interactive front end: a bubbletea program that maps
// keys onto wizard transitions and renders a running plan's event stream.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"loadstar/internal/command"
	"loadstar/internal/installer"
	"loadstar/internal/logger"
	"loadstar/internal/system"
	"loadstar/internal/wizard"
)

// Config wires the UI to the rest of the program.
type Config struct {
	Session *wizard.Session
	Host    system.Info
	// Runner is used for the preflight checks shown on the boot screen.
	Runner command.Runner
	DryRun bool
	// Start freezes a snapshot into a plan and launches it.
	Start func(wizard.Snapshot) (*installer.Run, error)
	// Finished, if set, is called once per completed run.
	Finished func(installer.Summary)
}

// tickInterval is how often the install screen drains the stream.
const tickInterval = 80 * time.Millisecond

// Identity form fields, in tab order.
const (
	fieldName = iota
	fieldEmail
	fieldGitHub
	fieldWorkEmail
	fieldCount
)

// shellFields are the rows of the shell screen, matching wizard.Options keys.
var shellFields = []string{"shell", "prompt", "terminal", "multiplexer", "editor"}

type (
	checksMsg []system.Check
	tickMsg   time.Time
)

// installState is shared with the session's launcher, so it lives behind a
// pointer while the Model itself is passed by value.
type installState struct {
	run     *installer.Run
	lines   []string
	done    int
	failed  int
	current string
	summary *installer.Summary
	presses int
}

// Model is the bubbletea model.
type Model struct {
	cfg  Config
	s    *wizard.Session
	inst *installState

	inputs []textinput.Model
	focus  int
	setup  wizard.SetupType

	shellRow int
	cursor   int
	checks   []system.Check

	spinner  spinner.Model
	progress progress.Model
	logs     viewport.Model

	err    string
	width  int
	height int
}

// New builds the model and attaches the launcher to cfg.Session.
func New(cfg Config) Model {
	m := Model{
		cfg:      cfg,
		s:        cfg.Session,
		inst:     &installState{},
		setup:    wizard.SetupPersonal,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		progress: progress.New(progress.WithDefaultGradient()),
		logs:     viewport.New(80, 12),
		width:    80,
		height:   24,
	}

	placeholders := []string{"Jane Doe", "jane@example.com", "GitHub username (optional)", "Work email (optional)"}
	m.inputs = make([]textinput.Model, fieldCount)
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 120
		ti.Width = 40
		m.inputs[i] = ti
	}
	m.inputs[fieldName].Focus()

	inst := m.inst
	m.s.SetLauncher(func(snap wizard.Snapshot) error {
		run, err := cfg.Start(snap)
		if err != nil {
			return err
		}
		*inst = installState{run: run}
		return nil
	})
	return m
}

// Init starts the spinner, the cursor blink and the preflight checks.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.preflight())
}

func (m Model) preflight() tea.Cmd {
	if m.cfg.Runner == nil {
		return nil
	}
	cfg := m.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return checksMsg(system.Preflight(ctx, cfg.Runner, cfg.Host))
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Run takes over the terminal until the operator quits. Console logging is
// silenced meanwhile and the last summary is printed afterwards.
func Run(cfg Config) error {
	logger.SetOutput(io.Discard)
	final, err := tea.NewProgram(New(cfg), tea.WithAltScreen()).Run()
	logger.SetOutput(os.Stdout)
	if err != nil {
		return fmt.Errorf("run wizard: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.inst.summary != nil {
		logger.Info("[INFO] %s\n", fm.inst.summary)
	}
	return nil
}
