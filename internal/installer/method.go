package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"loadstar/internal/catalog"
	"loadstar/internal/command"
)

// isRoot decides whether apt needs sudo.
var isRoot = func() bool { return os.Geteuid() == 0 }

// installCommand is the child process that installs e with m.
func installCommand(m catalog.Method) command.Cmd {
	switch m.Kind {
	case catalog.MethodPackage:
		switch m.Manager {
		case catalog.Brew:
			return withEnv(command.New("brew", "install", m.Package), "HOMEBREW_NO_AUTO_UPDATE=1")
		case catalog.Cask:
			return withEnv(command.New("brew", "install", "--cask", m.Package), "HOMEBREW_NO_AUTO_UPDATE=1")
		case catalog.Apt:
			return withEnv(privileged("apt-get", "install", "-y", m.Package), "DEBIAN_FRONTEND=noninteractive")
		case catalog.Cargo:
			return command.New("cargo", "install", "--locked", m.Package)
		case catalog.Npm:
			return command.New("npm", "install", "-g", m.Package)
		case catalog.Pip:
			return command.New("pip3", "install", "--user", m.Package)
		case catalog.Go:
			pkg := m.Package
			if !strings.Contains(pkg, "@") {
				pkg += "@latest"
			}
			return command.New("go", "install", pkg)
		}
	case catalog.MethodScript:
		return scriptCommand(m.Script)
	}
	return command.Cmd{}
}

// scriptCommand pipes a remote installer to sh, or runs an inline snippet.
func scriptCommand(script string) command.Cmd {
	if !strings.HasPrefix(script, "https://") && !strings.HasPrefix(script, "http://") {
		return command.Shell(script)
	}
	sh := "sh"
	if strings.Contains(script, "rustup") {
		// rustup-init prompts unless told otherwise.
		sh = "sh -s -- -y"
	}
	return command.Shell("curl --proto '=https' --tlsv1.2 -fsSL " + script + " | " + sh)
}

func privileged(name string, args ...string) command.Cmd {
	if isRoot() {
		return command.New(name, args...)
	}
	return command.New("sudo", append([]string{"-n", name}, args...)...)
}

func withEnv(c command.Cmd, env ...string) command.Cmd {
	c.Env = append(c.Env, env...)
	return c
}

// probe reports whether e is already present: its binary on PATH, or
// failing that the package manager's own query.
func probe(ctx context.Context, r command.Runner, e catalog.Entry, m catalog.Method) bool {
	if e.Binary != "" && r.LookPath(e.Binary) {
		return true
	}
	if m.Kind != catalog.MethodPackage {
		return false
	}
	var q command.Cmd
	switch m.Manager {
	case catalog.Brew:
		q = command.New("brew", "list", "--formula", m.Package)
	case catalog.Cask:
		q = command.New("brew", "list", "--cask", m.Package)
	case catalog.Apt:
		q = command.New("dpkg", "-s", m.Package)
	case catalog.Npm:
		q = command.New("npm", "ls", "-g", m.Package)
	case catalog.Pip:
		q = command.New("pip3", "show", m.Package)
	default:
		// cargo and go installs are only visible on PATH.
		return false
	}
	if !r.LookPath(q.Name) {
		return false
	}
	res, err := r.Run(ctx, q, nil)
	return err == nil && res.ExitCode == 0
}

// bootstrap describes how to install a package manager.
type bootstrap struct {
	commands []command.Cmd
	// bin are directories the manager installs into; they are put on PATH
	// for later steps of the same run.
	bin []string
}

const homebrewInstaller = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"

func bootstrapFor(m catalog.Manager, goos, home string) (bootstrap, bool) {
	switch m {
	case catalog.Brew:
		bin := []string{"/home/linuxbrew/.linuxbrew/bin"}
		if goos == catalog.Darwin {
			bin = []string{"/opt/homebrew/bin", "/usr/local/bin"}
		}
		install := withEnv(command.Shell(`/bin/bash -c "$(curl -fsSL `+homebrewInstaller+`)"`), "NONINTERACTIVE=1")
		return bootstrap{
			commands: []command.Cmd{install, withEnv(command.New("brew", "update"), "HOMEBREW_NO_ANALYTICS=1")},
			bin:      bin,
		}, true
	case catalog.Cargo:
		return bootstrap{
			commands: []command.Cmd{scriptCommand("https://sh.rustup.rs")},
			bin:      []string{filepath.Join(home, ".cargo", "bin")},
		}, true
	}
	return bootstrap{}, false
}

// prependPath puts dirs in front of PATH for this process and its
// children. Tests replace it.
var prependPath = func(dirs ...string) {
	path := os.Getenv("PATH")
	for i := len(dirs) - 1; i >= 0; i-- {
		if !strings.Contains(":"+path+":", ":"+dirs[i]+":") {
			path = dirs[i] + ":" + path
		}
	}
	os.Setenv("PATH", path)
}
