package installer

import (
	"crypto/rand"
	"fmt"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"loadstar/internal/catalog"
	"loadstar/internal/credentials"
	"loadstar/internal/dotfiles"
	"loadstar/internal/system"
	"loadstar/internal/wizard"
)

// StepKind tags a Step.
type StepKind int

const (
	PackageStep StepKind = iota + 1
	BootstrapStep
	FontStep
	ArtifactStep
	CredentialStep
)

func (k StepKind) String() string {
	switch k {
	case PackageStep:
		return "package"
	case BootstrapStep:
		return "bootstrap"
	case FontStep:
		return "font"
	case ArtifactStep:
		return "artifact"
	case CredentialStep:
		return "credential"
	}
	return "unknown"
}

// Step is one unit of a plan. Only the fields of its Kind are set.
type Step struct {
	ID    string
	Kind  StepKind
	Title string
	// Group is the catalog category for package steps, otherwise a fixed
	// label used for display grouping.
	Group string

	// PackageStep: the entry and the method resolved for the host. A zero
	// Method means the entry is unsupported here.
	Entry  catalog.Entry
	Method catalog.Method
	// BootstrapStep: the manager to install.
	Manager catalog.Manager

	Artifact   dotfiles.Artifact
	Credential credentials.Action
	Font       string
}

// Plan is an immutable, ordered list of steps.
type Plan struct {
	id      ulid.ULID
	created time.Time
	steps   []Step
	home    string
}

// ID identifies the plan in events and state records.
func (p *Plan) ID() string { return p.id.String() }

// Created is when the plan was frozen.
func (p *Plan) Created() time.Time { return p.created }

// Len is the number of steps.
func (p *Plan) Len() int { return len(p.steps) }

// Step returns step i.
func (p *Plan) Step(i int) Step { return p.steps[i] }

// Steps returns a copy of the steps.
func (p *Plan) Steps() []Step { return slices.Clone(p.steps) }

// Options tune plan construction.
type Options struct {
	// Font is the Nerd Font family installed when the fonts flag is set.
	Font string
}

// DefaultFont is the Nerd Font family installed by default.
const DefaultFont = "JetBrainsMono"

// Group labels for steps that are not catalog entries.
const (
	GroupPrerequisites = "prerequisites"
	GroupFonts         = "fonts"
	GroupConfig        = "config"
	GroupCredentials   = "credentials"
)

// BuildPlan freezes snap into a plan for host. Package steps come first in
// catalog order, each preceded where needed by a one-time bootstrap of its
// package manager, followed by the font, config artifact and credential
// steps.
func BuildPlan(cat *catalog.Catalog, host system.Info, snap wizard.Snapshot, opts Options) (*Plan, error) {
	if !host.Platform.Supported() {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, host.OS, host.Arch)
	}
	if opts.Font == "" {
		opts.Font = DefaultFont
	}

	ids := slices.Clone(snap.Selected)
	cat.SortIDs(ids)

	var steps []Step
	bootstrapped := map[catalog.Manager]bool{}
	for _, id := range ids {
		e, err := cat.Entry(id)
		if err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		step := Step{ID: "package:" + e.ID, Kind: PackageStep, Title: e.Name, Group: e.Category, Entry: e}
		if m, err := e.MethodFor(host.Platform); err == nil {
			step.Method = m
			if m.Kind == catalog.MethodPackage {
				root := m.Manager.Root()
				if !host.Platform.Has(root) && !bootstrapped[root] {
					bootstrapped[root] = true
					steps = append(steps, bootstrapStep(root))
				}
			}
		}
		steps = append(steps, step)
	}

	if snap.Flags.InstallFonts {
		steps = append(steps, Step{
			ID:    "font:" + opts.Font,
			Kind:  FontStep,
			Title: opts.Font + " Nerd Font",
			Group: GroupFonts,
			Font:  opts.Font,
		})
	}

	target := dotfiles.Target{Home: host.Home}
	for _, a := range dotfiles.Generate(snap, target) {
		steps = append(steps, Step{
			ID:       "artifact:" + target.Display(a.Path),
			Kind:     ArtifactStep,
			Title:    a.Name + " (" + target.Display(a.Path) + ")",
			Group:    GroupConfig,
			Artifact: a,
		})
	}

	for _, a := range credentialActions(snap) {
		steps = append(steps, Step{
			ID:         "credential:" + a.Kind.String(),
			Kind:       CredentialStep,
			Title:      a.Title(),
			Group:      GroupCredentials,
			Credential: a,
		})
	}

	return &Plan{
		id:      ulid.MustNew(ulid.Now(), rand.Reader),
		created: time.Now(),
		steps:   steps,
		home:    host.Home,
	}, nil
}

func bootstrapStep(m catalog.Manager) Step {
	title := map[catalog.Manager]string{catalog.Brew: "Homebrew", catalog.Cargo: "Rust toolchain (rustup)"}[m]
	if title == "" {
		title = string(m)
	}
	return Step{ID: "bootstrap:" + string(m), Kind: BootstrapStep, Title: title, Group: GroupPrerequisites, Manager: m}
}

func credentialActions(snap wizard.Snapshot) []credentials.Action {
	acts := []credentials.Action{
		{Kind: credentials.SSHKey, Identity: snap.Identity, Generate: snap.Flags.GenerateSSHKey},
		{Kind: credentials.AgentRegistration, Identity: snap.Identity},
	}
	if snap.Flags.GPGSigning {
		acts = append(acts, credentials.Action{Kind: credentials.GPGSigning, Identity: snap.Identity})
	}
	if snap.Has("gh") {
		acts = append(acts, credentials.Action{Kind: credentials.GitHubCLI, Identity: snap.Identity})
	}
	return acts
}
