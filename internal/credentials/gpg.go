package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"

	"loadstar/internal/command"
	"loadstar/internal/wizard"
)

// ParseSecretKeyID extracts the long key id from `gpg --list-secret-keys
// --keyid-format=long` output, e.g. "sec   ed25519/3AA5C34371567BD2 2024-01-01 [SC]".
func ParseSecretKeyID(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		f := strings.Fields(line)
		if len(f) < 2 || (f[0] != "sec" && f[0] != "sec#") {
			continue
		}
		if _, id, ok := strings.Cut(f[1], "/"); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// ConfigureSigning points git at an existing secret key. Creating a key
// needs a passphrase, so when none exists it only says how.
func (m *Manager) ConfigureSigning(ctx context.Context, id wizard.Identity, logf Logf) (Outcome, error) {
	if !m.Runner.LookPath("gpg") {
		logf(Warn, "gpg is not installed; select gnupg to enable commit signing")
		return skipped("gpg not installed"), nil
	}

	args := []string{"--list-secret-keys", "--keyid-format=long"}
	if id.Email != "" {
		args = append(args, id.Email)
	}
	var out strings.Builder
	res, err := m.Runner.Run(ctx, command.New("gpg", args...), func(s command.Stream, line string) {
		if s == command.Stdout {
			out.WriteString(line + "\n")
		}
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("gpg: %w", err)
	}

	keyID, ok := ParseSecretKeyID(out.String())
	if res.ExitCode != 0 || !ok {
		who := id.Email
		if who == "" {
			who = "this user"
		}
		logf(Warn, "No GPG secret key for %s. Create one with `gpg --full-generate-key`, then rerun setup to enable signing.", who)
		return skipped("no GPG secret key"), nil
	}

	for _, kv := range [][2]string{
		{"user.signingkey", keyID},
		{"commit.gpgsign", "true"},
		{"tag.gpgsign", "true"},
	} {
		if err := m.gitConfig(ctx, kv[0], kv[1]); err != nil {
			return Outcome{}, err
		}
	}
	logf(Info, "Commits and tags will be signed with %s", keyID)
	return done(), nil
}

// GitHubAuth uploads the public key when the GitHub CLI is logged in.
func (m *Manager) GitHubAuth(ctx context.Context, logf Logf) (Outcome, error) {
	if !m.Runner.LookPath("gh") {
		return skipped("gh not installed"), nil
	}
	res, err := m.Runner.Run(ctx, command.New("gh", "auth", "status"), nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("gh auth status: %w", err)
	}
	if res.ExitCode != 0 {
		logf(Info, "Run `gh auth login` to connect the GitHub CLI, then `gh ssh-key add ~/.ssh/id_ed25519.pub`")
		return skipped("gh not authenticated"), nil
	}

	key, ok := m.FindKey()
	if !ok {
		return skipped("no SSH key to upload"), nil
	}
	pub := key + ".pub"
	if _, err := os.Stat(pub); err != nil {
		return skipped("no public key next to " + key), nil
	}
	title := "loadstar"
	if m.Hostname != "" {
		title += "-" + m.Hostname
	}
	res, err = m.Runner.Run(ctx, command.New("gh", "ssh-key", "add", pub, "--title", title), nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("gh ssh-key add: %w", err)
	}
	if res.ExitCode != 0 {
		if strings.Contains(res.LastStderr, "already") {
			logf(Info, "Key %s is already on GitHub", pub)
		} else {
			return Outcome{}, fmt.Errorf("gh ssh-key add exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.LastStderr))
		}
	} else {
		logf(Info, "Uploaded %s to GitHub as %q", pub, title)
	}

	res, err = m.Runner.Run(ctx, command.New("gh", "auth", "setup-git"), nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("gh auth setup-git: %w", err)
	}
	if res.ExitCode != 0 {
		logf(Warn, "gh auth setup-git exited with code %d", res.ExitCode)
	}
	return done(), nil
}
