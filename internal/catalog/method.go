package catalog

import (
	"fmt"
	"strings"
)

// Supported operating systems, as reported by runtime.GOOS.
const (
	Darwin = "darwin"
	Linux  = "linux"
)

// Manager names a package manager.
type Manager string

const (
	Brew  Manager = "brew"
	Cask  Manager = "cask" // brew casks, macOS only
	Apt   Manager = "apt"
	Cargo Manager = "cargo"
	Npm   Manager = "npm"
	Pip   Manager = "pip"
	Go    Manager = "go"
)

var knownManagers = map[Manager]string{
	Brew:  "brew",
	Cask:  "brew",
	Apt:   "apt-get",
	Cargo: "cargo",
	Npm:   "npm",
	Pip:   "pip3",
	Go:    "go",
}

// Program is the executable that must be on PATH for the manager to work.
func (m Manager) Program() string {
	return knownManagers[m]
}

// Bootstrappable reports whether the manager can be installed by this tool
// on the given OS when it is missing.
func (m Manager) Bootstrappable(os string) bool {
	switch m {
	case Brew:
		return os == Darwin || os == Linux
	case Cask:
		return os == Darwin
	case Cargo:
		return true
	}
	return false
}

// Root is the manager whose presence the given one depends on. Casks ride on brew.
func (m Manager) Root() Manager {
	if m == Cask {
		return Brew
	}
	return m
}

// MethodKind tags the Method variant.
type MethodKind int

const (
	MethodPackage MethodKind = iota + 1 // manager + package
	MethodScript                        // URL piped to sh, or an inline snippet
	MethodManual                        // nothing to run; Note tells the operator what to do
)

func (k MethodKind) String() string {
	switch k {
	case MethodPackage:
		return "package"
	case MethodScript:
		return "script"
	case MethodManual:
		return "manual"
	}
	return "unknown"
}

// Method is one way of installing an entry. Only the fields of its Kind are set.
type Method struct {
	Kind MethodKind
	// OS restricts the method to one operating system. Empty means any.
	OS      string
	Manager Manager
	Package string
	Script  string
	Note    string
}

// IsURL reports whether a script method points at a remote installer.
func (m Method) IsURL() bool {
	return strings.HasPrefix(m.Script, "https://") || strings.HasPrefix(m.Script, "http://")
}

// String renders the method for display, e.g. "brew install ripgrep".
func (m Method) String() string {
	switch m.Kind {
	case MethodPackage:
		switch m.Manager {
		case Brew:
			return "brew install " + m.Package
		case Cask:
			return "brew install --cask " + m.Package
		case Apt:
			return "apt-get install " + m.Package
		case Cargo:
			return "cargo install " + m.Package
		case Npm:
			return "npm install -g " + m.Package
		case Pip:
			return "pip3 install " + m.Package
		case Go:
			return "go install " + m.Package
		}
		return fmt.Sprintf("%s %s", m.Manager, m.Package)
	case MethodScript:
		if m.IsURL() {
			return "curl -fsSL " + m.Script + " | sh"
		}
		return m.Script
	case MethodManual:
		return "manual: " + m.Note
	}
	return "unknown method"
}

// Platform is the host as far as method resolution cares: an OS and the set
// of package managers found on PATH.
type Platform struct {
	OS       string
	Managers map[Manager]bool
}

// Has reports whether m (or the manager it rides on) is present.
func (p Platform) Has(m Manager) bool {
	return p.Managers[m.Root()]
}

// Supported reports whether the OS is one the catalog targets.
func (p Platform) Supported() bool {
	return p.OS == Darwin || p.OS == Linux
}
