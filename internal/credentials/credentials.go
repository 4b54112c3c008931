// Package credentials sets up SSH keys, agent registration, GPG commit
// signing and GitHub CLI auth.
//
// Identity, defaults and the pager go into the generated ~/.gitconfig (see
// package dotfiles). Runtime-discovered git settings, the SSH URL rewrite
// and the signing key, go into ~/.gitconfig.local through `git config
// --file` so the generated file stays reproducible.
package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loadstar/internal/catalog"
	"loadstar/internal/command"
	"loadstar/internal/dotfiles"
	"loadstar/internal/wizard"
)

// Kind selects one credential action.
type Kind int

const (
	SSHKey Kind = iota + 1
	AgentRegistration
	GPGSigning
	GitHubCLI
)

func (k Kind) String() string {
	switch k {
	case SSHKey:
		return "ssh-key"
	case AgentRegistration:
		return "ssh-agent"
	case GPGSigning:
		return "gpg-signing"
	case GitHubCLI:
		return "github-cli"
	}
	return "unknown"
}

// Action is one credential step with the answers it needs.
type Action struct {
	Kind     Kind
	Identity wizard.Identity
	// Generate allows SSHKey to create a key when none exists.
	Generate bool
}

// Title is the human label for an action.
func (a Action) Title() string {
	switch a.Kind {
	case SSHKey:
		return "SSH key"
	case AgentRegistration:
		return "SSH agent / keychain"
	case GPGSigning:
		return "GPG commit signing"
	case GitHubCLI:
		return "GitHub CLI"
	}
	return a.Kind.String()
}

// Level is the severity of a message passed to Logf.
type Level int

const (
	Info Level = iota
	Warn
)

// Logf receives progress messages.
type Logf func(level Level, format string, a ...any)

// Outcome is a successful action's result. Skipped actions changed nothing.
type Outcome struct {
	Skipped bool
	Reason  string
}

func done() Outcome                 { return Outcome{} }
func skipped(reason string) Outcome { return Outcome{Skipped: true, Reason: reason} }

// Provider is the code host the SSH config and URL rewrite point at.
const Provider = "github.com"

// Manager runs credential actions against one home directory.
type Manager struct {
	Runner   command.Runner
	Home     string
	OS       string
	Hostname string
	User     string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Run dispatches a to its implementation.
func (m *Manager) Run(ctx context.Context, a Action, logf Logf) (Outcome, error) {
	if logf == nil {
		logf = func(Level, string, ...any) {}
	}
	switch a.Kind {
	case SSHKey:
		return m.EnsureSSHKey(ctx, a.Identity, a.Generate, logf)
	case AgentRegistration:
		return m.RegisterKey(ctx, logf)
	case GPGSigning:
		return m.ConfigureSigning(ctx, a.Identity, logf)
	case GitHubCLI:
		return m.GitHubAuth(ctx, logf)
	}
	return Outcome{}, fmt.Errorf("credentials: unknown action %d", a.Kind)
}

func (m *Manager) sshDir() string { return filepath.Join(m.Home, ".ssh") }

// localGitConfig is the include file for runtime git settings.
func (m *Manager) localGitConfig() string {
	return filepath.Join(m.Home, dotfiles.LocalGitConfigPath)
}

func (m *Manager) getenv(k string) string {
	if m.Getenv != nil {
		return m.Getenv(k)
	}
	return os.Getenv(k)
}

// comment is the key comment: the email, else user@host.
func (m *Manager) comment(id wizard.Identity) string {
	if id.Email != "" {
		return id.Email
	}
	return m.User + "@" + m.Hostname
}

func (m *Manager) darwin() bool { return m.OS == catalog.Darwin }

// gitConfig sets one key in ~/.gitconfig.local.
func (m *Manager) gitConfig(ctx context.Context, key, value string) error {
	cmd := command.New("git", "config", "--file", m.localGitConfig(), key, value)
	res, err := m.Runner.Run(ctx, cmd, nil)
	if err != nil {
		return fmt.Errorf("git config %s: %w", key, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git config %s: exited with code %d: %s", key, res.ExitCode, strings.TrimSpace(res.LastStderr))
	}
	return nil
}
