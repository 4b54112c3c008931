package wizard

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
)

// Identity is who the machine is being set up for.
type Identity struct {
	Name       string
	Email      string
	GitHubUser string
	// Setup labels the machine on the review screen. It does not change the selection.
	Setup SetupType
	// Work splits git identity: WorkEmail applies to repositories under WorkDir.
	Work      bool
	WorkEmail string
	WorkDir   string
}

// SetupType is the kind of machine being set up.
type SetupType string

const (
	SetupPersonal SetupType = "personal"
	SetupWork     SetupType = "work"
	SetupMinimal  SetupType = "minimal"
	SetupFull     SetupType = "full"
)

// SetupTypes lists every setup type in display order.
var SetupTypes = []SetupType{SetupPersonal, SetupWork, SetupMinimal, SetupFull}

var setupInfo = map[SetupType]struct{ name, icon, description string }{
	SetupPersonal: {"Personal", "🏠", "Personal development machine"},
	SetupWork:     {"Work", "💼", "Professional setup with work-oriented tools"},
	SetupMinimal:  {"Minimal", "🍃", "Essential tools only"},
	SetupFull:     {"Full", "🚀", "Everything in the catalog"},
}

func (t SetupType) String() string { return setupInfo[t].name }

// Icon is the glyph shown next to the name.
func (t SetupType) Icon() string { return setupInfo[t].icon }

// Description is a one-line summary.
func (t SetupType) Description() string { return setupInfo[t].description }

// Next cycles through SetupTypes.
func (t SetupType) Next() SetupType {
	i := slices.Index(SetupTypes, t)
	return SetupTypes[(i+1)%len(SetupTypes)]
}

// DefaultWorkDir is used when Work is set without a WorkDir.
const DefaultWorkDir = "~/work/"

func (id Identity) normalized() Identity {
	id.Name = strings.TrimSpace(id.Name)
	id.Email = strings.TrimSpace(id.Email)
	id.GitHubUser = strings.TrimPrefix(strings.TrimSpace(id.GitHubUser), "@")
	id.WorkEmail = strings.TrimSpace(id.WorkEmail)
	id.WorkDir = strings.TrimSpace(id.WorkDir)
	id.Setup = SetupType(strings.ToLower(strings.TrimSpace(string(id.Setup))))
	if id.Setup == "" {
		id.Setup = SetupPersonal
	}
	if id.Work && id.WorkDir == "" {
		id.WorkDir = DefaultWorkDir
	}
	if id.WorkDir != "" && !strings.HasSuffix(id.WorkDir, "/") {
		id.WorkDir += "/"
	}
	return id
}

// SplitProfile reports whether a separate work email is in use.
func (id Identity) SplitProfile() bool {
	return id.Work && id.WorkEmail != "" && id.WorkEmail != id.Email
}

var githubUser = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)

// Validate checks the identity answers.
func (id Identity) Validate() error {
	if id.Name == "" {
		return &ValidationError{Phase: PhaseIdentity, Field: "name", Message: "name is required"}
	}
	if err := checkEmail(id.Email); err != nil {
		return &ValidationError{Phase: PhaseIdentity, Field: "email", Message: err.Error()}
	}
	if _, ok := setupInfo[id.Setup]; !ok && id.Setup != "" {
		return &ValidationError{Phase: PhaseIdentity, Field: "setup", Message: fmt.Sprintf("unknown setup type %q", id.Setup)}
	}
	if id.GitHubUser != "" && !githubUser.MatchString(id.GitHubUser) {
		return &ValidationError{Phase: PhaseIdentity, Field: "github", Message: fmt.Sprintf("%q is not a valid GitHub username", id.GitHubUser)}
	}
	if id.Work {
		if err := checkEmail(id.WorkEmail); err != nil {
			return &ValidationError{Phase: PhaseIdentity, Field: "work_email", Message: err.Error()}
		}
	}
	return nil
}

// checkEmail accepts an empty string or a bare address such as jane@x.com.
func checkEmail(s string) error {
	if s == "" {
		return nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return fmt.Errorf("%q is not a valid email address", s)
	}
	if at := strings.LastIndex(s, "@"); !strings.Contains(s[at+1:], ".") {
		return fmt.Errorf("%q is missing a domain", s)
	}
	return nil
}

// Shell choices. The empty string means "leave as is".
const (
	ShellZsh     = "zsh"
	ShellBash    = "bash"
	ShellFish    = "fish"
	ShellNushell = "nushell"

	PromptStarship      = "starship"
	PromptPowerlevel10k = "powerlevel10k"
	PromptPure          = "pure"
	PromptMinimal       = "minimal"

	MultiplexerTmux   = "tmux"
	MultiplexerZellij = "zellij"
)

// Options lists the accepted values of each ShellChoices field, in display order.
var Options = map[string][]string{
	"shell":       {ShellZsh, ShellBash, ShellFish, ShellNushell},
	"prompt":      {PromptStarship, PromptPowerlevel10k, PromptPure, PromptMinimal},
	"terminal":    {"wezterm", "alacritty", "kitty", "iterm2", "ghostty"},
	"multiplexer": {MultiplexerTmux, MultiplexerZellij},
	"editor":      {"neovim", "helix", "vscode", "zed"},
}

// ShellChoices is the terminal environment. Every field is optional.
type ShellChoices struct {
	Shell       string
	Prompt      string
	Terminal    string
	Multiplexer string
	Editor      string
}

// Validate checks that every field holds a known option and that zsh-only
// prompts are paired with zsh.
func (c ShellChoices) Validate() error {
	fields := []struct{ name, value string }{
		{"shell", c.Shell},
		{"prompt", c.Prompt},
		{"terminal", c.Terminal},
		{"multiplexer", c.Multiplexer},
		{"editor", c.Editor},
	}
	for _, f := range fields {
		if f.value != "" && !slices.Contains(Options[f.name], f.value) {
			return &ValidationError{Phase: PhaseShell, Field: f.name, Message: fmt.Sprintf("unknown %s %q", f.name, f.value)}
		}
	}
	if (c.Prompt == PromptPowerlevel10k || c.Prompt == PromptPure) && c.Shell != ShellZsh {
		return &ValidationError{Phase: PhaseShell, Field: "prompt", Message: c.Prompt + " requires zsh"}
	}
	return nil
}

// CatalogIDs are the catalog entries implied by the choices.
func (c ShellChoices) CatalogIDs() []string {
	var ids []string
	for _, v := range []string{c.Shell, c.Prompt, c.Terminal, c.Multiplexer, c.Editor} {
		if v != "" && v != PromptMinimal {
			ids = append(ids, v)
		}
	}
	return ids
}

// Flags are the yes/no questions asked alongside tool selection.
type Flags struct {
	GenerateSSHKey bool
	GPGSigning     bool
	InstallFonts   bool
}

// DefaultFlags: generate a key and install fonts, leave signing off.
func DefaultFlags() Flags {
	return Flags{GenerateSSHKey: true, InstallFonts: true}
}

// Snapshot is a frozen copy of a session's answers. Selected is the
// effective selection (explicit plus implied by shell choices) in catalog order.
type Snapshot struct {
	Identity Identity
	Shell    ShellChoices
	Selected []string
	Flags    Flags
}

// Has reports whether id is in the effective selection.
func (s Snapshot) Has(id string) bool {
	return slices.Contains(s.Selected, id)
}
