package credentials

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/crypto/ssh"

	"loadstar/internal/command"
	"loadstar/internal/dotfiles"
	"loadstar/internal/wizard"
)

// keyNames are probed in order; the first existing private key wins.
var keyNames = []string{"id_ed25519", "id_rsa"}

// FindKey returns the path of the first conventional private key present.
func (m *Manager) FindKey() (string, bool) {
	for _, name := range keyNames {
		p := filepath.Join(m.sshDir(), name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// EnsureSSHKey finds or generates a key, points the provider's host entry
// at it and rewrites HTTPS remotes for the provider to SSH.
func (m *Manager) EnsureSSHKey(ctx context.Context, id wizard.Identity, generate bool, logf Logf) (Outcome, error) {
	key, found := m.FindKey()
	if found {
		logf(Info, "Using existing SSH key %s", key)
	} else {
		if !generate {
			return skipped("no SSH key found and generation was not requested"), nil
		}
		key = filepath.Join(m.sshDir(), "id_ed25519")
		if err := GenerateKey(key, m.comment(id)); err != nil {
			return Outcome{}, err
		}
		logf(Info, "Generated ed25519 key %s (%s)", key, m.comment(id))
	}

	if err := m.writeHostEntry(key); err != nil {
		return Outcome{}, err
	}
	logf(Info, "SSH config: Host %s -> %s", Provider, key)

	if err := m.gitConfig(ctx, "url.git@"+Provider+":.insteadOf", "https://"+Provider+"/"); err != nil {
		return Outcome{}, err
	}
	return done(), nil
}

// GenerateKey writes a new ed25519 key pair: path in OpenSSH format with
// mode 0600 and path.pub in authorized_keys format. The directory is
// created, or tightened, to 0700.
func GenerateKey(path, comment string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return fmt.Errorf("chmod %s: %w", dir, err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate ed25519 key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}
	authorized := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))) + " " + comment + "\n"

	if err := dotfiles.WriteAtomic(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return err
	}
	return dotfiles.WriteAtomic(path+".pub", []byte(authorized), 0o644)
}

// hostBlock renders the provider's Host entry.
func (m *Manager) hostBlock(key string) []string {
	lines := []string{
		"Host " + Provider,
		"  HostName " + Provider,
		"  User git",
		"  AddKeysToAgent yes",
	}
	if m.darwin() {
		lines = append(lines, "  UseKeychain yes")
	}
	return append(lines, "  IdentityFile "+key)
}

// writeHostEntry replaces the provider's Host block in ~/.ssh/config, or
// appends one, leaving every other block alone.
func (m *Manager) writeHostEntry(key string) error {
	path := filepath.Join(m.sshDir(), "config")
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	updated := UpsertHost(string(existing), Provider, m.hostBlock(key))
	if updated == string(existing) {
		return nil
	}
	return dotfiles.WriteAtomic(path, []byte(updated), 0o600)
}

// UpsertHost returns config with the block for host replaced by block, or
// with block appended if config has none. A block runs from its Host line
// to the next Host or Match line.
func UpsertHost(config, host string, block []string) string {
	lines := strings.Split(strings.TrimRight(config, "\n"), "\n")
	if config == "" {
		lines = nil
	}
	var out []string
	replaced := false
	for i := 0; i < len(lines); i++ {
		own, shared := hostPatterns(lines[i], host)
		if shared {
			// ssh takes the first IdentityFile it matches, so our block goes
			// ahead of a block that also covers other hosts.
			if !replaced {
				if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
					out = append(out, "")
				}
				out = append(out, block...)
				out = append(out, "")
				replaced = true
			}
			out = append(out, lines[i])
			continue
		}
		if !own {
			out = append(out, lines[i])
			continue
		}
		// Our own block: skip to the next Host or Match line.
		j := i + 1
		for j < len(lines) && !isSectionLine(lines[j]) {
			j++
		}
		// Keep a blank separator before the next block.
		for j > i+1 && strings.TrimSpace(lines[j-1]) == "" {
			j--
		}
		// Only the first copy survives; later duplicates are dropped.
		if !replaced {
			out = append(out, block...)
			replaced = true
		}
		i = j - 1
	}
	// No block for host yet
	if !replaced {
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, block...)
	}
	return strings.Join(out, "\n") + "\n"
}

func isSectionLine(line string) bool {
	f := strings.Fields(line)
	return len(f) > 0 && (strings.EqualFold(f[0], "host") || strings.EqualFold(f[0], "match"))
}

// hostPatterns reports whether line is a Host line for host alone (own) or
// one that lists host among other patterns (shared).
func hostPatterns(line, host string) (own, shared bool) {
	f := strings.Fields(line)
	if len(f) < 2 || !strings.EqualFold(f[0], "host") || !slices.Contains(f[1:], host) {
		return false, false
	}
	return len(f) == 2, len(f) > 2
}

// RegisterKey adds the key to the macOS keychain, or to a running agent
// elsewhere.
func (m *Manager) RegisterKey(ctx context.Context, logf Logf) (Outcome, error) {
	key, ok := m.FindKey()
	if !ok {
		return skipped("no SSH key to register"), nil
	}
	var cmd command.Cmd
	if m.darwin() {
		cmd = command.New("ssh-add", "--apple-use-keychain", key)
	} else {
		if m.getenv("SSH_AUTH_SOCK") == "" {
			logf(Info, "No ssh-agent running; AddKeysToAgent loads %s on first use", key)
			return skipped("no ssh-agent running"), nil
		}
		cmd = command.New("ssh-add", key)
	}
	res, err := m.Runner.Run(ctx, cmd, func(_ command.Stream, line string) {
		logf(Info, "%s", line)
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("ssh-add: %w", err)
	}
	if res.ExitCode != 0 {
		return Outcome{}, fmt.Errorf("ssh-add exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.LastStderr))
	}
	return done(), nil
}
