package dotfiles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadstar/internal/wizard"
)

func janeSnapshot(selected ...string) wizard.Snapshot {
	return wizard.Snapshot{
		Identity: wizard.Identity{Name: "Jane Doe", Email: "jane@x.com"},
		Shell:    wizard.ShellChoices{Shell: wizard.ShellZsh, Prompt: wizard.PromptStarship},
		Selected: selected,
		Flags:    wizard.DefaultFlags(),
	}
}

// gitKeys flattens "[section]\n\tkey = value" into section.key -> value.
func gitKeys(cfg string) map[string]string {
	out := map[string]string{}
	section := ""
	for _, line := range strings.Split(cfg, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "["):
			section = strings.Trim(line, "[]")
		case strings.Contains(line, " = "):
			kv := strings.SplitN(line, " = ", 2)
			out[section+"."+kv[0]] = kv[1]
		}
	}
	return out
}

func TestGitConfigIdentityAndDelta(t *testing.T) {
	keys := gitKeys(GitConfig(janeSnapshot("git", "delta")))
	assert.Equal(t, "Jane Doe", keys["user.name"])
	assert.Equal(t, "jane@x.com", keys["user.email"])
	assert.Equal(t, "delta", keys["core.pager"])
	assert.Equal(t, "delta --color-only", keys["interactive.diffFilter"])
	assert.Equal(t, "main", keys["init.defaultBranch"])
	assert.Equal(t, "~/.gitconfig.local", keys["include.path"])
}

func TestGitConfigWithoutDeltaHasNoPager(t *testing.T) {
	keys := gitKeys(GitConfig(janeSnapshot("git")))
	_, ok := keys["core.pager"]
	assert.False(t, ok)
}

func TestGitConfigWorkSplit(t *testing.T) {
	snap := janeSnapshot()
	snap.Identity.Work = true
	snap.Identity.WorkEmail = "jane@corp.com"
	snap.Identity.WorkDir = "~/work/"
	cfg := GitConfig(snap)
	assert.Contains(t, cfg, "[includeIf \"gitdir:~/work/\"]\n\tpath = ~/.gitconfig-work\n")
	assert.Contains(t, WorkGitConfig(snap.Identity), "email = jane@corp.com")

	arts := Generate(snap, Target{Home: "/home/jane"})
	assert.Equal(t, "/home/jane/.gitconfig-work", arts[1].Path)
}

func TestGitValueQuoting(t *testing.T) {
	assert.Equal(t, "plain", gitValue("plain"))
	assert.Equal(t, `"a;b"`, gitValue("a;b"))
	assert.Equal(t, `"say \"hi\""`, gitValue(`say "hi"`))
	assert.Equal(t, `" padded"`, gitValue(" padded"))
}

func TestGenerateIsDeterministic(t *testing.T) {
	snap := janeSnapshot("git", "delta", "eza", "bat", "zoxide", "fzf", "go", "kubectl", "tmux")
	snap.Shell.Multiplexer = wizard.MultiplexerTmux
	snap.Shell.Editor = "neovim"
	a := Generate(snap, Target{Home: "/home/jane"})
	b := Generate(snap, Target{Home: "/home/jane"})
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Path, b[i].Path)
		assert.Equal(t, a[i].Content, b[i].Content, a[i].Name)
	}
}

func TestGenerateArtifactSet(t *testing.T) {
	snap := janeSnapshot()
	snap.Shell = wizard.ShellChoices{Shell: wizard.ShellFish, Prompt: wizard.PromptStarship, Multiplexer: wizard.MultiplexerZellij}
	var paths []string
	for _, a := range Generate(snap, Target{Home: "/h"}) {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{
		"/h/.gitconfig",
		"/h/.config/fish/config.fish",
		"/h/.config/starship.toml",
		"/h/.config/zellij/config.kdl",
		"/h/.editorconfig",
	}, paths)

	snap.Shell = wizard.ShellChoices{}
	assert.Len(t, Generate(snap, Target{Home: "/h"}), 2, "git config and editorconfig only")
}

func TestShellRCGatesOnSelection(t *testing.T) {
	_, rc, ok := ShellRC(janeSnapshot("eza", "zoxide"))
	require.True(t, ok)
	assert.Contains(t, rc, "alias ls='eza --group-directories-first'")
	assert.Contains(t, rc, `eval "$(zoxide init zsh)"`)
	assert.Contains(t, rc, `eval "$(starship init zsh)"`)
	assert.Contains(t, rc, `export PATH="$HOME/.local/bin:$PATH"`)
	assert.NotContains(t, rc, "bat")
	assert.NotContains(t, rc, "direnv")
	assert.NotContains(t, rc, ".cargo/bin")

	_, rc, _ = ShellRC(janeSnapshot("btop", "bottom"))
	assert.Contains(t, rc, "alias top='btop'")
	assert.NotContains(t, rc, "alias top='btm'", "first alias for a name wins")
}

func TestShellRCDialects(t *testing.T) {
	snap := janeSnapshot("eza", "direnv", "rustup")
	snap.Shell = wizard.ShellChoices{Shell: wizard.ShellFish, Prompt: wizard.PromptMinimal, Editor: "helix"}
	rel, rc, ok := ShellRC(snap)
	require.True(t, ok)
	assert.Equal(t, ".config/fish/config.fish", rel)
	assert.Contains(t, rc, "alias ls 'eza --group-directories-first'")
	assert.Contains(t, rc, "direnv hook fish | source")
	assert.Contains(t, rc, "fish_add_path $HOME/.cargo/bin")
	assert.Contains(t, rc, `set -gx EDITOR "hx"`)

	snap.Shell = wizard.ShellChoices{Shell: wizard.ShellNushell}
	rel, rc, _ = ShellRC(snap)
	assert.Equal(t, ".config/nushell/config.nu", rel)
	assert.Contains(t, rc, "alias ls = eza --group-directories-first")
	assert.NotContains(t, rc, "direnv hook")

	snap.Shell = wizard.ShellChoices{Shell: wizard.ShellBash, Prompt: wizard.PromptStarship}
	rel, rc, _ = ShellRC(snap)
	assert.Equal(t, ".bashrc", rel)
	assert.Contains(t, rc, `eval "$(direnv hook bash)"`)
	assert.Contains(t, rc, "shopt -s histappend")

	snap.Shell = wizard.ShellChoices{}
	_, _, ok = ShellRC(snap)
	assert.False(t, ok)
}

func TestToolConfigs(t *testing.T) {
	snap := janeSnapshot("kubectl", "go")
	starship := StarshipConfig(snap)
	assert.Contains(t, starship, "[kubernetes]")
	assert.Contains(t, starship, "[golang]")
	assert.NotContains(t, starship, "[aws]")

	snap.Shell.Editor = "neovim"
	snap.Shell.Shell = wizard.ShellFish
	tmux := TmuxConfig(snap)
	assert.Contains(t, tmux, "mode-keys vi")
	assert.Contains(t, tmux, "default-command fish")

	zellij := ZellijConfig(snap)
	assert.Contains(t, zellij, `default_shell "fish"`)
	assert.Contains(t, zellij, `scrollback_editor "nvim"`)

	ec := EditorConfig(snap)
	assert.Contains(t, ec, "[*.go]")
	assert.NotContains(t, ec, "[*.py]")
}

func TestWriteBackupPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ".zshrc")
	art := Artifact{Name: "zsh rc", Path: path, Content: []byte("new\n"), Mode: 0o644}

	// No file: written directly, no backup.
	res, err := Write(art, false)
	require.NoError(t, err)
	assert.Equal(t, Created, res.Outcome)
	assert.NoFileExists(t, BackupPath(path))

	// Same content: no write, no backup.
	res, err = Write(art, false)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, res.Outcome)
	assert.NoFileExists(t, BackupPath(path))

	// Differing content: old content backed up, target replaced.
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))
	res, err = Write(art, false)
	require.NoError(t, err)
	assert.Equal(t, Replaced, res.Outcome)
	assert.Equal(t, BackupPath(path), res.Backup)
	assertFile(t, BackupPath(path), "old\n")
	assertFile(t, path, "new\n")
	info, err := os.Stat(BackupPath(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "backup keeps the original mode")

	// A second differing run overwrites the single backup.
	require.NoError(t, os.WriteFile(path, []byte("older\n"), 0o644))
	_, err = Write(art, false)
	require.NoError(t, err)
	assertFile(t, BackupPath(path), "older\n")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestWriteDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".tmux.conf")
	res, err := Write(Artifact{Path: path, Content: []byte("x")}, true)
	require.NoError(t, err)
	assert.Equal(t, Created, res.Outcome)
	assert.NoFileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("y"), 0o644))
	res, err = Write(Artifact{Path: path, Content: []byte("x")}, true)
	require.NoError(t, err)
	assert.Equal(t, Replaced, res.Outcome)
	assertFile(t, path, "y")
	assert.NoFileExists(t, BackupPath(path))
}

func TestWriteFilesystemError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0o500))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })
	_, err := Write(Artifact{Path: filepath.Join(locked, "f"), Content: []byte("x")}, false)
	assert.Error(t, err)
}

func TestTargetDisplay(t *testing.T) {
	tg := Target{Home: "/home/jane"}
	assert.Equal(t, "~/.config/starship.toml", tg.Display("/home/jane/.config/starship.toml"))
	assert.Equal(t, "/etc/hosts", tg.Display("/etc/hosts"))
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}
