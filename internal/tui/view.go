package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"loadstar/internal/wizard"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
)

// View renders the current phase.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.s.Phase() {
	case wizard.PhaseBoot:
		b.WriteString(m.bootView())
	case wizard.PhaseIdentity:
		b.WriteString(m.identityView())
	case wizard.PhaseShell:
		b.WriteString(m.shellView())
	case wizard.PhaseDevTools, wizard.PhaseApps:
		b.WriteString(m.selectView())
	case wizard.PhaseReview:
		b.WriteString(m.reviewView())
	case wizard.PhaseInstall:
		b.WriteString(m.installView())
	case wizard.PhaseComplete:
		b.WriteString(m.completeView())
	}

	if m.err != "" {
		b.WriteString("\n" + errorStyle.Render("✘ "+m.err))
	}
	b.WriteString("\n" + helpStyle.Render(m.help()))
	return b.String()
}

func (m Model) header() string {
	p := m.s.Phase()
	title := titleStyle.Render("loadstar")
	if m.cfg.DryRun {
		title += " " + warnStyle.Render("[dry run]")
	}
	step := subtleStyle.Render(fmt.Sprintf("step %d of %d · %s · %s", p.Index(), len(wizard.Phases), p, p.Description()))
	return title + "  " + step
}

func (m Model) help() string {
	switch m.s.Phase() {
	case wizard.PhaseBoot:
		return "enter: begin · q: quit"
	case wizard.PhaseIdentity:
		return "tab: next field · ctrl+t: setup type · enter: continue · esc: back"
	case wizard.PhaseShell:
		return "↑/↓: field · ←/→: change · enter: continue · esc: back"
	case wizard.PhaseDevTools:
		return "↑/↓: move · space: toggle · enter: continue · esc: back"
	case wizard.PhaseApps:
		return "↑/↓: move · space: toggle · 1/2/3: minimal/standard/full · enter: continue · esc: back"
	case wizard.PhaseReview:
		return "enter: install · esc: back"
	case wizard.PhaseInstall:
		return "ctrl+c: cancel after this step · twice: stop now"
	}
	return "r: review and run again · q: quit"
}

func (m Model) bootView() string {
	var b strings.Builder
	h := m.cfg.Host
	fmt.Fprintf(&b, "Host     %s\n", h.Describe())
	fmt.Fprintf(&b, "User     %s on %s\n", h.User, h.Hostname)
	if h.Shell != "" {
		fmt.Fprintf(&b, "Shell    %s\n", h.Shell)
	}
	var managers []string
	for mgr, ok := range h.Platform.Managers {
		if ok {
			managers = append(managers, string(mgr))
		}
	}
	if len(managers) > 0 {
		fmt.Fprintf(&b, "Managers %s\n", strings.Join(sorted(managers), ", "))
	}

	b.WriteString("\n")
	if m.checks == nil {
		b.WriteString(m.spinner.View() + " running preflight checks\n")
		return b.String()
	}
	for _, c := range m.checks {
		mark := okStyle.Render("✔")
		if !c.OK {
			mark = warnStyle.Render("!")
		}
		fmt.Fprintf(&b, "%s %-14s %s\n", mark, c.Name, subtleStyle.Render(c.Detail))
	}
	return b.String()
}

func (m Model) identityView() string {
	labels := []string{"Name", "Email", "GitHub", "Work email"}
	var b strings.Builder
	for i, in := range m.inputs {
		label := fmt.Sprintf("%-11s", labels[i])
		if i == m.focus {
			label = cursorStyle.Render(label)
		}
		b.WriteString(label + " " + in.View() + "\n")
	}
	fmt.Fprintf(&b, "%-11s %s %s  %s\n", "Setup", m.setup.Icon(), m.setup, subtleStyle.Render(m.setup.Description()))
	b.WriteString(subtleStyle.Render("\nA work email applies to repositories under " + wizard.DefaultWorkDir))
	return b.String()
}

func (m Model) shellView() string {
	c := m.s.Shell()
	var b strings.Builder
	for i, field := range shellFields {
		v := *shellValue(&c, field)
		if v == "" {
			v = "none"
		}
		line := fmt.Sprintf("%-12s ‹ %s ›", field, v)
		if i == m.shellRow {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if err := c.Validate(); err != nil {
		b.WriteString("\n" + warnStyle.Render(errorText(err)))
	}
	return b.String()
}

func (m Model) selectView() string {
	rows := m.rows()
	if len(rows) == 0 {
		return subtleStyle.Render("Nothing to choose here.")
	}
	height := max(m.height-8, 5)
	start := max(0, min(m.cursor-height/2, len(rows)-height))
	end := min(start+height, len(rows))

	var b strings.Builder
	lastCategory := ""
	for i := start; i < end; i++ {
		r := rows[i]
		if r.category != "" && r.category != lastCategory {
			b.WriteString(titleStyle.Render(r.category) + "\n")
			lastCategory = r.category
		}
		box := "[ ]"
		if m.checked(r) {
			box = okStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %-22s %s", box, r.label, subtleStyle.Render(r.detail))
		if i == m.cursor {
			line = cursorStyle.Render(">") + " " + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\n%d selected", len(m.s.Selection()))
	return b.String()
}

func (m Model) reviewView() string {
	id := m.s.Identity()
	sh := m.s.Shell()
	f := m.s.Flags()

	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s> · %s %s setup\n", id.Name, id.Email, id.Setup.Icon(), id.Setup)
	if id.SplitProfile() {
		fmt.Fprintf(&b, "work: %s under %s\n", id.WorkEmail, id.WorkDir)
	}
	fmt.Fprintf(&b, "shell %s · prompt %s · terminal %s · multiplexer %s · editor %s\n",
		orNone(sh.Shell), orNone(sh.Prompt), orNone(sh.Terminal), orNone(sh.Multiplexer), orNone(sh.Editor))
	fmt.Fprintf(&b, "ssh key %s · gpg signing %s · fonts %s\n\n", onOff(f.GenerateSSHKey), onOff(f.GPGSigning), onOff(f.InstallFonts))

	var groups []string
	for _, g := range m.s.SelectionByCategory() {
		groups = append(groups, fmt.Sprintf("%s %s: %s", g.Category.Icon, g.Category.Name, strings.Join(g.IDs, ", ")))
	}
	b.WriteString(boxStyle.Render(strings.Join(groups, "\n")))
	fmt.Fprintf(&b, "\n\nAbout %d minutes.", m.s.EstimatedMinutes())
	return b.String()
}

func (m Model) installView() string {
	st := m.inst
	if st.run == nil {
		return m.spinner.View() + " starting"
	}
	total := st.run.Plan().Len()
	pct := 0.0
	if total > 0 {
		pct = float64(st.done) / float64(total)
	}
	var b strings.Builder
	b.WriteString(m.progress.ViewAs(pct))
	fmt.Fprintf(&b, "  %d/%d", st.done, total)
	if st.failed > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %d failed", st.failed)))
	}
	b.WriteString("\n")
	if st.current != "" {
		b.WriteString(m.spinner.View() + " " + st.current + "\n")
	}
	b.WriteString("\n" + m.logs.View())
	return b.String()
}

func (m Model) completeView() string {
	st := m.inst
	if st.summary == nil {
		return "Finished."
	}
	sum := st.summary
	var b strings.Builder
	switch {
	case sum.Cancelled:
		b.WriteString(warnStyle.Render("Cancelled.") + "\n")
	case sum.Failed > 0:
		b.WriteString(warnStyle.Render("Finished with failures.") + "\n")
	default:
		b.WriteString(okStyle.Render("All done.") + "\n")
	}
	b.WriteString(sum.String() + "\n")
	for _, r := range sum.Results {
		if r.Err != nil {
			fmt.Fprintf(&b, "%s %s: %v\n", errorStyle.Render("✘"), r.Title, r.Err)
		}
	}
	b.WriteString(subtleStyle.Render("\nOpen a new terminal to pick up the shell changes."))
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	slices.Sort(out)
	return out
}
