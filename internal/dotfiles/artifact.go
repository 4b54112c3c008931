// Package dotfiles turns wizard answers into configuration files.
//
// Generate is pure: the same snapshot and home directory always produce
// byte-identical artifacts. Write applies one artifact to disk with the
// backup-on-change policy.
package dotfiles

import (
	"os"
	"path/filepath"
	"strings"

	"loadstar/internal/wizard"
)

// BackupSuffix is appended to a target path to name its backup. One backup
// is kept per target; each differing run replaces it.
const BackupSuffix = ".loadstar.bak"

// header starts every generated file that accepts # comments.
const header = "# Generated by loadstar. Rerunning setup regenerates this file;\n# the previous version is kept with a " + BackupSuffix + " suffix.\n"

// Artifact is one generated file.
type Artifact struct {
	// Name is a short label such as "git config".
	Name string
	// Path is absolute.
	Path    string
	Content []byte
	Mode    os.FileMode
}

// Target says where artifacts go.
type Target struct {
	Home string
}

func (t Target) path(rel string) string {
	return filepath.Join(t.Home, filepath.FromSlash(rel))
}

// Display shortens a path under home to ~/...
func (t Target) Display(p string) string {
	if t.Home != "" {
		if rel, err := filepath.Rel(t.Home, p); err == nil && !strings.HasPrefix(rel, "..") {
			return "~/" + filepath.ToSlash(rel)
		}
	}
	return p
}

// Generate builds every artifact the snapshot asks for, in a fixed order:
// git config, work git identity, shell rc, prompt theme, multiplexer config,
// editorconfig.
func Generate(snap wizard.Snapshot, t Target) []Artifact {
	var out []Artifact
	add := func(name, rel, content string) {
		out = append(out, Artifact{Name: name, Path: t.path(rel), Content: []byte(content), Mode: 0o644})
	}

	add("git config", ".gitconfig", GitConfig(snap))
	if snap.Identity.SplitProfile() {
		add("work git identity", WorkGitConfigPath, WorkGitConfig(snap.Identity))
	}
	if rel, content, ok := ShellRC(snap); ok {
		add(snap.Shell.Shell+" rc", rel, content)
	}
	if snap.Shell.Prompt == wizard.PromptStarship {
		add("starship prompt", ".config/starship.toml", StarshipConfig(snap))
	}
	switch snap.Shell.Multiplexer {
	case wizard.MultiplexerTmux:
		add("tmux config", ".tmux.conf", TmuxConfig(snap))
	case wizard.MultiplexerZellij:
		add("zellij config", ".config/zellij/config.kdl", ZellijConfig(snap))
	}
	add("editorconfig", ".editorconfig", EditorConfig(snap))
	return out
}

// editorCommand maps an editor choice to the command used for $EDITOR and
// core.editor.
func editorCommand(editor string) string {
	switch editor {
	case "neovim":
		return "nvim"
	case "helix":
		return "hx"
	case "vscode":
		return "code --wait"
	case "zed":
		return "zed --wait"
	}
	return ""
}
