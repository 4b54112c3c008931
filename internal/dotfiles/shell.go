package dotfiles

import (
	"fmt"
	"strings"

	"loadstar/internal/wizard"
)

// rcPaths is where each shell reads interactive config, relative to home.
var rcPaths = map[string]string{
	wizard.ShellZsh:     ".zshrc",
	wizard.ShellBash:    ".bashrc",
	wizard.ShellFish:    ".config/fish/config.fish",
	wizard.ShellNushell: ".config/nushell/config.nu",
}

// alias is emitted when its catalog entry is selected. Earlier rows win
// when two set the same name.
type alias struct {
	id, name, command string
}

var aliases = []alias{
	{"eza", "ls", "eza --group-directories-first"},
	{"eza", "ll", "eza -l --git --group-directories-first"},
	{"eza", "la", "eza -la --git --group-directories-first"},
	{"eza", "tree", "eza --tree"},
	{"bat", "cat", "bat --paging=never"},
	{"neovim", "vim", "nvim"},
	{"git", "g", "git"},
	{"lazygit", "lg", "lazygit"},
	{"lazydocker", "lzd", "lazydocker"},
	{"btop", "top", "btop"},
	{"bottom", "top", "btm"},
	{"procs", "ps", "procs"},
	{"dust", "du", "dust"},
	{"trash-cli", "del", "trash-put"},
	{"kubectl", "k", "kubectl"},
	{"yt-dlp", "yt", "yt-dlp"},
}

// pathEntry is prepended to PATH when its catalog entry is selected. An
// empty id means always.
type pathEntry struct {
	id, dir string
}

var pathEntries = []pathEntry{
	{"", "$HOME/.local/bin"},
	{"rustup", "$HOME/.cargo/bin"},
	{"go", "$HOME/go/bin"},
	{"bun", "$HOME/.bun/bin"},
	{"deno", "$HOME/.deno/bin"},
}

// hook is a tool's shell integration, per dialect. %s is replaced with the
// shell name where the tool takes one.
type hook struct {
	id          string
	posix, fish string
}

var hooks = []hook{
	{"mise", `eval "$(mise activate %s)"`, "mise activate fish | source"},
	{"direnv", `eval "$(direnv hook %s)"`, "direnv hook fish | source"},
	{"zoxide", `eval "$(zoxide init %s)"`, "zoxide init fish | source"},
	{"fzf", `eval "$(fzf --%s)"`, "fzf --fish | source"},
	{"atuin", `eval "$(atuin init %s)"`, "atuin init fish | source"},
}

// ShellRC renders the rc file for the chosen shell. ok is false when no
// shell was chosen.
func ShellRC(snap wizard.Snapshot) (rel, content string, ok bool) {
	shell := snap.Shell.Shell
	rel, ok = rcPaths[shell]
	if !ok {
		return "", "", false
	}
	var d dialect
	switch shell {
	case wizard.ShellFish:
		d = fishDialect{}
	case wizard.ShellNushell:
		d = nuDialect{}
	default:
		d = posixDialect{shell: shell}
	}
	return rel, renderRC(snap, d), true
}

func renderRC(snap wizard.Snapshot, d dialect) string {
	var b strings.Builder
	b.WriteString(header)

	if pre := d.preamble(); pre != "" {
		b.WriteString("\n" + pre)
	}

	b.WriteString("\n# Paths\n")
	for _, p := range pathEntries {
		if p.id == "" || snap.Has(p.id) {
			b.WriteString(d.path(p.dir) + "\n")
		}
	}

	if editor := editorCommand(snap.Shell.Editor); editor != "" {
		b.WriteString("\n# Editor\n")
		b.WriteString(d.env("EDITOR", editor) + "\n")
		b.WriteString(d.env("VISUAL", editor) + "\n")
	}

	var lines []string
	seen := map[string]bool{}
	for _, a := range aliases {
		if snap.Has(a.id) && !seen[a.name] {
			seen[a.name] = true
			lines = append(lines, d.alias(a.name, a.command))
		}
	}
	if len(lines) > 0 {
		b.WriteString("\n# Aliases\n" + strings.Join(lines, "\n") + "\n")
	}

	lines = lines[:0]
	for _, h := range hooks {
		if snap.Has(h.id) {
			if l := d.hook(h); l != "" {
				lines = append(lines, l)
			}
		}
	}
	if p := d.prompt(snap.Shell.Prompt); p != "" {
		lines = append(lines, p)
	}
	if len(lines) > 0 {
		b.WriteString("\n# Tool integration\n" + strings.Join(lines, "\n") + "\n")
	}

	b.WriteString("\n# Machine-specific settings\n" + d.local() + "\n")
	return b.String()
}

type dialect interface {
	preamble() string
	path(dir string) string
	env(name, value string) string
	alias(name, command string) string
	hook(h hook) string
	prompt(prompt string) string
	local() string
}

type posixDialect struct{ shell string }

func (d posixDialect) preamble() string {
	brew := `# Homebrew
if [ -x /opt/homebrew/bin/brew ]; then
  eval "$(/opt/homebrew/bin/brew shellenv)"
elif [ -x /usr/local/bin/brew ]; then
  eval "$(/usr/local/bin/brew shellenv)"
elif [ -x /home/linuxbrew/.linuxbrew/bin/brew ]; then
  eval "$(/home/linuxbrew/.linuxbrew/bin/brew shellenv)"
fi
`
	if d.shell == wizard.ShellZsh {
		return `# History
HISTFILE="$HOME/.zsh_history"
HISTSIZE=50000
SAVEHIST=50000
setopt share_history hist_ignore_dups hist_ignore_space

` + brew
	}
	return `# History
HISTSIZE=50000
HISTFILESIZE=50000
HISTCONTROL=ignoreboth
shopt -s histappend

` + brew
}

func (posixDialect) path(dir string) string {
	return fmt.Sprintf(`export PATH="%s:$PATH"`, dir)
}

func (posixDialect) env(name, value string) string {
	return fmt.Sprintf(`export %s="%s"`, name, value)
}

func (posixDialect) alias(name, command string) string {
	return fmt.Sprintf("alias %s='%s'", name, command)
}

func (d posixDialect) hook(h hook) string {
	if strings.Contains(h.posix, "%s") {
		return fmt.Sprintf(h.posix, d.shell)
	}
	return h.posix
}

func (d posixDialect) prompt(prompt string) string {
	switch prompt {
	case wizard.PromptStarship:
		return fmt.Sprintf(`eval "$(starship init %s)"`, d.shell)
	case wizard.PromptPowerlevel10k:
		return `for p in /opt/homebrew /usr/local /home/linuxbrew/.linuxbrew; do
  if [ -f "$p/share/powerlevel10k/powerlevel10k.zsh-theme" ]; then
    source "$p/share/powerlevel10k/powerlevel10k.zsh-theme"
    break
  fi
done
[ -f "$HOME/.p10k.zsh" ] && source "$HOME/.p10k.zsh"`
	case wizard.PromptPure:
		return `autoload -U promptinit
promptinit
prompt pure`
	case wizard.PromptMinimal:
		if d.shell == wizard.ShellZsh {
			return `PROMPT='%F{cyan}%~%f %# '`
		}
		return `PS1='\w \$ '`
	}
	return ""
}

func (d posixDialect) local() string {
	return fmt.Sprintf(`[ -f "$HOME/.%src.local" ] && source "$HOME/.%src.local"`, d.shell, d.shell)
}

type fishDialect struct{}

func (fishDialect) preamble() string {
	return `# Homebrew
for brew in /opt/homebrew/bin/brew /usr/local/bin/brew /home/linuxbrew/.linuxbrew/bin/brew
    if test -x $brew
        eval ($brew shellenv)
        break
    end
end
`
}

func (fishDialect) path(dir string) string {
	return "fish_add_path " + dir
}

func (fishDialect) env(name, value string) string {
	return fmt.Sprintf(`set -gx %s "%s"`, name, value)
}

func (fishDialect) alias(name, command string) string {
	return fmt.Sprintf("alias %s '%s'", name, command)
}

func (fishDialect) hook(h hook) string { return h.fish }

func (fishDialect) prompt(prompt string) string {
	switch prompt {
	case wizard.PromptStarship:
		return "starship init fish | source"
	case wizard.PromptMinimal:
		return "function fish_prompt; echo (prompt_pwd) '> '; end"
	}
	return ""
}

func (fishDialect) local() string {
	return "test -f ~/.config/fish/local.fish; and source ~/.config/fish/local.fish"
}

// nuDialect writes config.nu. Nushell sources only files that exist at
// parse time, so tool integrations are left to vendor autoload scripts.
type nuDialect struct{}

func (nuDialect) preamble() string {
	return "$env.config.show_banner = false\n"
}

func (nuDialect) path(dir string) string {
	dir = strings.Replace(dir, "$HOME", "($env.HOME)", 1)
	return fmt.Sprintf(`$env.PATH = ($env.PATH | prepend $"%s")`, dir)
}

func (nuDialect) env(name, value string) string {
	return fmt.Sprintf(`$env.%s = "%s"`, name, value)
}

func (nuDialect) alias(name, command string) string {
	return fmt.Sprintf("alias %s = %s", name, command)
}

func (nuDialect) hook(hook) string { return "" }

func (nuDialect) prompt(prompt string) string {
	if prompt == wizard.PromptMinimal {
		return `$env.PROMPT_COMMAND = {|| $"(pwd | path basename) " }`
	}
	return ""
}

func (nuDialect) local() string {
	return "# put machine-specific settings in $nu.default-config-dir/local.nu"
}
