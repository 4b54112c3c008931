package dotfiles

import (
	"strings"

	"loadstar/internal/wizard"
)

// StarshipConfig renders ~/.config/starship.toml. Language and cloud modules
// are enabled only for what was selected.
func StarshipConfig(snap wizard.Snapshot) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(`
add_newline = true
command_timeout = 1000

[character]
success_symbol = "[❯](bold green)"
error_symbol = "[❯](bold red)"

[directory]
truncation_length = 3
truncate_to_repo = true

[git_branch]
symbol = " "

[git_status]
ahead = "⇡${count}"
behind = "⇣${count}"

[cmd_duration]
min_time = 2000
`)
	modules := []struct{ id, section, body string }{
		{"kubectl", "kubernetes", "disabled = false\n"},
		{"awscli", "aws", "symbol = \"aws \"\n"},
		{"terraform", "terraform", "format = \"via [$symbol$workspace]($style) \"\n"},
		{"docker", "docker_context", "only_with_files = true\n"},
		{"python", "python", "detect_extensions = [\"py\"]\n"},
		{"go", "golang", "symbol = \"go \"\n"},
		{"rustup", "rust", "symbol = \"rs \"\n"},
	}
	for _, m := range modules {
		if snap.Has(m.id) {
			b.WriteString("\n[" + m.section + "]\n" + m.body)
		}
	}
	return b.String()
}

// TmuxConfig renders ~/.tmux.conf.
func TmuxConfig(snap wizard.Snapshot) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(`
set -g default-terminal "tmux-256color"
set -ga terminal-overrides ",*256col*:Tc"
set -g mouse on
set -g history-limit 50000
set -sg escape-time 10
set -g base-index 1
setw -g pane-base-index 1
set -g renumber-windows on

unbind C-b
set -g prefix C-a
bind C-a send-prefix

bind | split-window -h -c "#{pane_current_path}"
bind - split-window -v -c "#{pane_current_path}"
bind r source-file ~/.tmux.conf \; display "config reloaded"
`)
	switch snap.Shell.Editor {
	case "neovim", "helix":
		b.WriteString("\nsetw -g mode-keys vi\nset -g focus-events on\n")
	}
	if shell := shellBinary(snap.Shell.Shell); shell != "" && snap.Shell.Shell != wizard.ShellBash {
		b.WriteString("\nset -g default-command " + shell + "\n")
	}
	return b.String()
}

// ZellijConfig renders ~/.config/zellij/config.kdl.
func ZellijConfig(snap wizard.Snapshot) string {
	var b strings.Builder
	b.WriteString("// Generated by loadstar. The previous version is kept with a " + BackupSuffix + " suffix.\n\n")
	b.WriteString(`default_layout "compact"
pane_frames false
mouse_mode true
copy_on_select true
scroll_buffer_size 50000
`)
	if shell := shellBinary(snap.Shell.Shell); shell != "" {
		b.WriteString(`default_shell "` + shell + `"` + "\n")
	}
	if editor := editorCommand(snap.Shell.Editor); editor != "" {
		b.WriteString(`scrollback_editor "` + strings.Fields(editor)[0] + `"` + "\n")
	}
	return b.String()
}

func shellBinary(shell string) string {
	if shell == wizard.ShellNushell {
		return "nu"
	}
	return shell
}

// EditorConfig renders ~/.editorconfig with sections for selected languages.
func EditorConfig(snap wizard.Snapshot) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(`
root = true

[*]
charset = utf-8
end_of_line = lf
insert_final_newline = true
trim_trailing_whitespace = true
indent_style = space
indent_size = 2

[*.md]
trim_trailing_whitespace = false

[Makefile]
indent_style = tab
`)
	if snap.Has("go") {
		b.WriteString("\n[*.go]\nindent_style = tab\nindent_size = 4\n")
	}
	if snap.Has("python") || snap.Has("uv") {
		b.WriteString("\n[*.py]\nindent_size = 4\n")
	}
	if snap.Has("rustup") {
		b.WriteString("\n[*.rs]\nindent_size = 4\n")
	}
	return b.String()
}
