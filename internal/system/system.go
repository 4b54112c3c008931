// Package system describes the machine being provisioned.
package system

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"

	"loadstar/internal/catalog"
	"loadstar/internal/command"
	"loadstar/internal/logger"
)

// Info is a snapshot of the host taken once at startup.
type Info struct {
	OS       string
	Arch     string
	Home     string
	User     string
	Hostname string
	// Shell is the login shell's base name, e.g. "zsh".
	Shell string
	// Distro is the Linux PRETTY_NAME, empty elsewhere.
	Distro   string
	Platform catalog.Platform
}

// osReleasePath is a variable so tests can point it elsewhere.
var osReleasePath = "/etc/os-release"

// Detect inspects the running host. home overrides the user's home
// directory when non-empty.
func Detect(r command.Runner, home string) Info {
	info := Info{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		Home: home,
	}
	if info.Home == "" {
		info.Home, _ = os.UserHomeDir()
	}
	info.User = os.Getenv("USER")
	if info.User == "" {
		info.User = filepath.Base(info.Home)
	}
	info.Hostname, _ = os.Hostname()
	info.Hostname = strings.TrimSuffix(info.Hostname, ".local")
	info.Shell = DetectShell()
	if info.OS == catalog.Linux {
		info.Distro = readDistro(osReleasePath)
	}
	info.Platform = DetectPlatform(r, info.OS)
	logger.Debug("[DEBUG] Host: os=%s arch=%s shell=%s managers=%v\n", info.OS, info.Arch, info.Shell, info.Platform.Managers)
	return info
}

// DetectPlatform probes PATH for every package manager the catalog knows.
func DetectPlatform(r command.Runner, goos string) catalog.Platform {
	p := catalog.Platform{OS: goos, Managers: map[catalog.Manager]bool{}}
	for _, m := range []catalog.Manager{catalog.Brew, catalog.Apt, catalog.Cargo, catalog.Npm, catalog.Pip, catalog.Go} {
		if r.LookPath(m.Program()) {
			p.Managers[m] = true
		}
	}
	return p
}

// DetectShell reads $SHELL and returns its base name. It falls back to
// "zsh" when SHELL is unset or unrecognized.
func DetectShell() string {
	shell := filepath.Base(os.Getenv("SHELL"))
	switch shell {
	case "zsh", "bash", "fish":
		return shell
	case "nu":
		return "nushell"
	}
	return "zsh"
}

// readDistro pulls PRETTY_NAME out of an os-release file. The format is
// shell-style KEY=value, which godotenv parses without evaluating anything.
func readDistro(path string) string {
	vals, err := godotenv.Read(path)
	if err != nil {
		return ""
	}
	if v := vals["PRETTY_NAME"]; v != "" {
		return v
	}
	return vals["NAME"]
}

// FontDir is where per-user fonts live.
func (i Info) FontDir() string {
	if i.OS == catalog.Darwin {
		return filepath.Join(i.Home, "Library", "Fonts")
	}
	return filepath.Join(i.Home, ".local", "share", "fonts")
}

// Describe is a one-line summary for banners.
func (i Info) Describe() string {
	name := i.OS
	switch i.OS {
	case catalog.Darwin:
		name = "macOS"
	case catalog.Linux:
		if i.Distro != "" {
			name = i.Distro
		} else {
			name = "Linux"
		}
	}
	return name + " (" + i.Arch + ")"
}
