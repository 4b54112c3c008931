package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"loadstar/internal/installer"
	"loadstar/internal/wizard"
)

// Flag rows shown at the top of the dev tools screen.
const (
	flagSSH   = "flag:ssh"
	flagGPG   = "flag:gpg"
	flagFonts = "flag:fonts"
)

// presetKeys maps number keys on the apps screen to catalog presets.
var presetKeys = map[string]string{"1": "minimal", "2": "standard", "3": "full"}

// row is one line of a selection screen: a flag or a catalog entry.
type row struct {
	id       string
	label    string
	detail   string
	category string
}

// rows lists the selectable lines of the current phase.
func (m Model) rows() []row {
	var rows []row
	if m.s.Phase() == wizard.PhaseDevTools {
		rows = append(rows,
			row{id: flagSSH, label: "Generate an SSH key", detail: "ed25519, registered for github.com"},
			row{id: flagGPG, label: "Sign commits with GPG", detail: "uses an existing secret key"},
			row{id: flagFonts, label: "Install a Nerd Font", detail: installer.DefaultFont},
		)
	}
	cat := m.s.Catalog()
	for _, id := range wizard.ToolCategories[m.s.Phase()] {
		c, ok := cat.Category(id)
		if !ok {
			continue
		}
		for _, e := range cat.ByCategory(id) {
			rows = append(rows, row{id: e.ID, label: e.Name, detail: e.Description, category: c.Icon + " " + c.Name})
		}
	}
	return rows
}

func (m Model) checked(r row) bool {
	f := m.s.Flags()
	switch r.id {
	case flagSSH:
		return f.GenerateSSHKey
	case flagGPG:
		return f.GPGSigning
	case flagFonts:
		return f.InstallFonts
	}
	return m.s.IsSelected(r.id)
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.logs.Width = msg.Width - 4
		m.logs.Height = max(msg.Height-12, 4)
		m.progress.Width = min(msg.Width-4, 60)
		return m, nil
	case checksMsg:
		m.checks = msg
		return m, nil
	case tickMsg:
		return m.pump()
	case tea.KeyMsg:
		return m.key(msg)
	}

	var cmds [2]tea.Cmd
	m.spinner, cmds[0] = m.spinner.Update(msg)
	if m.s.Phase() == wizard.PhaseIdentity {
		m.inputs[m.focus], cmds[1] = m.inputs[m.focus].Update(msg)
	}
	return m, tea.Batch(cmds[:]...)
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k == "ctrl+c" {
		if m.s.Phase() == wizard.PhaseInstall {
			return m.interrupt(), nil
		}
		return m, tea.Quit
	}

	switch m.s.Phase() {
	case wizard.PhaseBoot:
		switch k {
		case "enter":
			return m.advance()
		case "q":
			return m, tea.Quit
		}
	case wizard.PhaseIdentity:
		return m.identityKey(msg)
	case wizard.PhaseShell:
		return m.shellKey(k)
	case wizard.PhaseDevTools, wizard.PhaseApps:
		return m.selectKey(k)
	case wizard.PhaseReview:
		switch k {
		case "enter":
			return m.advance()
		case "esc":
			return m.back()
		}
	case wizard.PhaseComplete:
		switch k {
		case "r":
			m.inst.summary = nil
			return m.back()
		case "q", "enter":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	from := m.s.Phase()
	if err := m.s.Advance(); err != nil {
		m.err = errorText(err)
		var ve *wizard.ValidationError
		if errors.As(err, &ve) && ve.Phase == wizard.PhaseIdentity {
			m = m.focusField(identityField(ve.Field))
		}
		return m, nil
	}
	m.err = ""
	m.cursor = 0
	if from == wizard.PhaseReview {
		return m, tea.Batch(tick(), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) back() (tea.Model, tea.Cmd) {
	if err := m.s.Back(); err != nil {
		m.err = errorText(err)
		return m, nil
	}
	m.err = ""
	m.cursor = 0
	return m, nil
}

func errorText(err error) string {
	var ve *wizard.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

func identityField(name string) int {
	switch name {
	case "email":
		return fieldEmail
	case "github":
		return fieldGitHub
	case "work_email":
		return fieldWorkEmail
	}
	return fieldName
}

func (m Model) focusField(i int) Model {
	m.inputs[m.focus].Blur()
	m.focus = (i + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
	return m
}

func (m Model) identityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return m.focusField(m.focus + 1), nil
	case "shift+tab", "up":
		return m.focusField(m.focus - 1), nil
	case "ctrl+t":
		m.setup = m.setup.Next()
		return m, nil
	case "esc":
		return m.back()
	case "enter":
		if m.focus < fieldCount-1 && m.inputs[m.focus].Value() != "" && m.inputs[m.focus+1].Value() == "" {
			return m.focusField(m.focus + 1), nil
		}
		work := strings.TrimSpace(m.inputs[fieldWorkEmail].Value())
		if err := m.s.SetIdentity(wizard.Identity{
			Name:       m.inputs[fieldName].Value(),
			Email:      m.inputs[fieldEmail].Value(),
			GitHubUser: m.inputs[fieldGitHub].Value(),
			Setup:      m.setup,
			Work:       work != "",
			WorkEmail:  work,
		}); err != nil {
			m.err = errorText(err)
			return m, nil
		}
		return m.advance()
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// shellValue reads and writes one field of ShellChoices by its Options key.
func shellValue(c *wizard.ShellChoices, field string) *string {
	switch field {
	case "shell":
		return &c.Shell
	case "prompt":
		return &c.Prompt
	case "terminal":
		return &c.Terminal
	case "multiplexer":
		return &c.Multiplexer
	}
	return &c.Editor
}

// cycle moves v through options, with "" (none) before the first option.
func cycle(options []string, v string, step int) string {
	all := append([]string{""}, options...)
	i := slices.Index(all, v)
	if i < 0 {
		i = 0
	}
	return all[(i+step+len(all))%len(all)]
}

func (m Model) shellKey(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "up", "k":
		m.shellRow = max(m.shellRow-1, 0)
	case "down", "j", "tab":
		m.shellRow = min(m.shellRow+1, len(shellFields)-1)
	case "left", "h", "right", "l", " ", "space":
		step := 1
		if k == "left" || k == "h" {
			step = -1
		}
		c := m.s.Shell()
		field := shellFields[m.shellRow]
		v := shellValue(&c, field)
		*v = cycle(wizard.Options[field], *v, step)
		if err := m.s.SetShell(c); err != nil {
			m.err = errorText(err)
			return m, nil
		}
		m.err = ""
	case "enter":
		return m.advance()
	case "esc":
		return m.back()
	}
	return m, nil
}

func (m Model) selectKey(k string) (tea.Model, tea.Cmd) {
	rows := m.rows()
	switch k {
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, len(rows)-1)
	case " ", "space", "x":
		if m.cursor < len(rows) {
			m.toggle(rows[m.cursor].id)
		}
	case "enter":
		return m.advance()
	case "esc":
		return m.back()
	default:
		if name, ok := presetKeys[k]; ok && m.s.Phase() == wizard.PhaseApps {
			if err := m.s.ApplyPreset(name); err != nil {
				m.err = errorText(err)
			} else {
				m.err = ""
			}
		}
	}
	return m, nil
}

func (m *Model) toggle(id string) {
	f := m.s.Flags()
	switch id {
	case flagSSH:
		f.GenerateSSHKey = !f.GenerateSSHKey
	case flagGPG:
		f.GPGSigning = !f.GPGSigning
	case flagFonts:
		f.InstallFonts = !f.InstallFonts
	default:
		if _, err := m.s.Toggle(id); err != nil {
			m.err = errorText(err)
		}
		return
	}
	if err := m.s.SetFlags(f); err != nil {
		m.err = errorText(err)
	}
}

// interrupt cancels on the first press and stops the running child on the second.
func (m Model) interrupt() Model {
	if m.inst.run == nil {
		return m
	}
	m.inst.presses++
	if m.inst.presses == 1 {
		m.inst.run.Cancel()
		m.inst.lines = append(m.inst.lines, warnStyle.Render("Cancelling after the current step. Press Ctrl-C again to stop it now."))
	} else {
		m.inst.run.Interrupt()
		m.inst.lines = append(m.inst.lines, warnStyle.Render("Stopping the current step."))
	}
	return m
}

// pump drains the stream. It keeps ticking until the stream is finished,
// then ends the install phase.
func (m Model) pump() (tea.Model, tea.Cmd) {
	st := m.inst
	if st.run == nil || m.s.Phase() != wizard.PhaseInstall {
		return m, nil
	}
	for _, ev := range st.run.Events().Drain() {
		st.apply(ev)
	}
	m.logs.SetContent(strings.Join(st.lines, "\n"))
	m.logs.GotoBottom()

	if !st.run.Events().Finished() {
		return m, tick()
	}
	if err := m.s.Finish(); err != nil {
		m.err = errorText(err)
	}
	if st.summary != nil && m.cfg.Finished != nil {
		m.cfg.Finished(*st.summary)
	}
	return m, nil
}

func (st *installState) apply(ev installer.Event) {
	switch ev.Kind {
	case installer.StepStarted:
		st.current = ev.Title
	case installer.StepSucceeded:
		st.done++
		st.lines = append(st.lines, okStyle.Render("✔ ")+ev.Title)
	case installer.StepSkipped:
		st.done++
		reason := ev.Skip.String()
		if ev.Detail != "" {
			reason += ": " + ev.Detail
		}
		st.lines = append(st.lines, dimStyle.Render(fmt.Sprintf("↷ %s (%s)", ev.Title, reason)))
	case installer.StepFailed:
		st.done++
		st.failed++
		st.lines = append(st.lines, errorStyle.Render("✘ ")+fmt.Sprintf("%s: %v", ev.Title, ev.Err))
	case installer.LogLine:
		switch ev.Severity {
		case installer.SeverityError:
			st.lines = append(st.lines, errorStyle.Render("  "+ev.Text))
		case installer.SeverityWarn:
			st.lines = append(st.lines, warnStyle.Render("  "+ev.Text))
		default:
			st.lines = append(st.lines, dimStyle.Render("  "+ev.Text))
		}
	case installer.PlanFinished:
		st.current = ""
		st.summary = ev.Summary
	}
}
