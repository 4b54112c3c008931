// Package wizard holds the operator's answers and the phase state machine
// that collects them.
//
// A Session is owned by one goroutine, the presentation loop. The installer
// never sees it; it only receives the Snapshot frozen when Install begins.
package wizard

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"loadstar/internal/catalog"
)

var (
	// ErrNoTransition is returned when the current phase has no edge in the requested direction.
	ErrNoTransition = errors.New("wizard: no transition from this phase")
	// ErrInstallRunning is returned for any navigation while the install phase is active.
	ErrInstallRunning = errors.New("wizard: installation in progress")
	// ErrWrongPhase is returned when an edit is made outside the phase that owns it.
	ErrWrongPhase = errors.New("wizard: not editable in this phase")
	// ErrNoLauncher is returned when Review is left without a Launcher configured.
	ErrNoLauncher = errors.New("wizard: no installer attached")
)

// Launcher receives the frozen snapshot when the session enters Install. If
// it returns an error the session stays in Review.
type Launcher func(Snapshot) error

// Session is the wizard's state for one run.
type Session struct {
	cat       *catalog.Catalog
	phase     Phase
	identity  Identity
	shell     ShellChoices
	selection map[string]struct{}
	flags     Flags
	launch    Launcher
}

// New creates a session positioned at Boot with the catalog's essentials
// pre-selected and default flags.
func New(cat *catalog.Catalog) *Session {
	s := &Session{cat: cat}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.phase = PhaseBoot
	s.identity = Identity{}
	s.shell = ShellChoices{Shell: ShellZsh, Prompt: PromptStarship}
	s.flags = DefaultFlags()
	s.selection = map[string]struct{}{}
	for _, id := range s.cat.Essentials() {
		s.selection[id] = struct{}{}
	}
}

// SetLauncher attaches the function that starts installation.
func (s *Session) SetLauncher(l Launcher) { s.launch = l }

// Phase is the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Catalog returns the catalog the session selects from.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Identity returns the current identity answers.
func (s *Session) Identity() Identity { return s.identity }

// Shell returns the current shell answers.
func (s *Session) Shell() ShellChoices { return s.shell }

// Flags returns the derived flags.
func (s *Session) Flags() Flags { return s.flags }

// CanGoBack reports whether Back would succeed.
func (s *Session) CanGoBack() bool {
	return s.phase != PhaseInstall && transitions[s.phase].back != noPhase
}

// Validate runs the current phase's forward predicate without moving.
func (s *Session) Validate() error {
	if v := transitions[s.phase].validate; v != nil {
		return v(s)
	}
	return nil
}

// Advance moves to the next phase if the current one validates. Leaving
// Review freezes a Snapshot and hands it to the Launcher.
func (s *Session) Advance() error {
	if s.phase == PhaseInstall {
		return ErrInstallRunning
	}
	t := transitions[s.phase]
	if t.next == noPhase {
		return fmt.Errorf("%w: %s", ErrNoTransition, s.phase)
	}
	if t.validate != nil {
		if err := t.validate(s); err != nil {
			return err
		}
	}
	if t.next == PhaseInstall {
		if s.launch == nil {
			return ErrNoLauncher
		}
		if err := s.launch(s.Snapshot()); err != nil {
			return fmt.Errorf("wizard: start install: %w", err)
		}
	}
	s.phase = t.next
	return nil
}

// Back moves to the previous phase. It is refused while installing.
func (s *Session) Back() error {
	if s.phase == PhaseInstall {
		return ErrInstallRunning
	}
	t := transitions[s.phase]
	if t.back == noPhase {
		return fmt.Errorf("%w: %s", ErrNoTransition, s.phase)
	}
	s.phase = t.back
	return nil
}

// Finish ends the install phase, whether the plan completed or was cancelled.
func (s *Session) Finish() error {
	if s.phase != PhaseInstall {
		return fmt.Errorf("%w: finish from %s", ErrNoTransition, s.phase)
	}
	s.phase = PhaseComplete
	return nil
}

// Restart clears every answer and returns to Boot.
func (s *Session) Restart() error {
	if s.phase == PhaseInstall {
		return ErrInstallRunning
	}
	s.reset()
	return nil
}

func (s *Session) require(phases ...Phase) error {
	if slices.Contains(phases, s.phase) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
}

// SetIdentity replaces the identity answers. Only allowed in Identity.
func (s *Session) SetIdentity(id Identity) error {
	if err := s.require(PhaseIdentity); err != nil {
		return err
	}
	s.identity = id.normalized()
	return nil
}

// SetShell replaces the shell answers. Only allowed in Shell.
func (s *Session) SetShell(c ShellChoices) error {
	if err := s.require(PhaseShell); err != nil {
		return err
	}
	s.shell = c
	return nil
}

// SetFlags replaces the derived flags. Only allowed in DevTools.
func (s *Session) SetFlags(f Flags) error {
	if err := s.require(PhaseDevTools); err != nil {
		return err
	}
	s.flags = f
	return nil
}

// Toggle flips one catalog id in or out of the selection and reports
// whether it is now selected.
func (s *Session) Toggle(id string) (bool, error) {
	on := !s.IsSelected(id)
	if err := s.Select(id, on); err != nil {
		return false, err
	}
	return on, nil
}

// Select adds or removes id. Only allowed in DevTools and Apps.
func (s *Session) Select(id string, on bool) error {
	if err := s.require(PhaseDevTools, PhaseApps); err != nil {
		return err
	}
	if !s.cat.Has(id) {
		return &ValidationError{Phase: s.phase, Field: "selection", Message: fmt.Sprintf("unknown item %q", id)}
	}
	if on {
		s.selection[id] = struct{}{}
	} else {
		delete(s.selection, id)
	}
	return nil
}

// ApplyPreset replaces the selection with the preset's ids. Only allowed in Apps.
func (s *Session) ApplyPreset(name string) error {
	if err := s.require(PhaseApps); err != nil {
		return err
	}
	ids, err := s.cat.PresetIDs(name)
	if err != nil {
		return err
	}
	s.selection = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.selection[id] = struct{}{}
	}
	return nil
}

// IsSelected reports whether id was chosen explicitly.
func (s *Session) IsSelected(id string) bool {
	_, ok := s.selection[id]
	return ok
}

// Selection returns the explicitly chosen ids in catalog order.
func (s *Session) Selection() []string {
	ids := slices.Collect(maps.Keys(s.selection))
	s.cat.SortIDs(ids)
	return ids
}

// Group is the selected ids of one category, for review screens.
type Group struct {
	Category catalog.Category
	IDs      []string
}

// SelectionByCategory groups the effective selection by category, in
// category order, omitting empty categories.
func (s *Session) SelectionByCategory() []Group {
	effective := s.effective()
	var groups []Group
	for _, cat := range s.cat.Categories() {
		g := Group{Category: cat}
		for _, e := range s.cat.ByCategory(cat.ID) {
			if slices.Contains(effective, e.ID) {
				g.IDs = append(g.IDs, e.ID)
			}
		}
		if len(g.IDs) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// effective is the explicit selection plus the entries implied by shell
// choices, in catalog order.
func (s *Session) effective() []string {
	set := maps.Clone(s.selection)
	for _, id := range s.shell.CatalogIDs() {
		if s.cat.Has(id) {
			set[id] = struct{}{}
		}
	}
	ids := slices.Collect(maps.Keys(set))
	s.cat.SortIDs(ids)
	return ids
}

// EstimatedMinutes is a rough install duration for the review screen.
func (s *Session) EstimatedMinutes() int {
	return 5 + len(s.effective())
}

// Snapshot freezes the answers. The result shares nothing with the session.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Identity: s.identity,
		Shell:    s.shell,
		Selected: s.effective(),
		Flags:    s.flags,
	}
}

func (s *Session) validateIdentity() error {
	return s.identity.Validate()
}

func (s *Session) validateShell() error {
	return s.shell.Validate()
}

func (s *Session) validateSelection() error {
	for id := range s.selection {
		if !s.cat.Has(id) {
			return &ValidationError{Phase: s.phase, Field: "selection", Message: fmt.Sprintf("unknown item %q", id)}
		}
	}
	return nil
}

// ValidationError reports operator input that blocks a forward transition.
type ValidationError struct {
	Phase   Phase
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", strings.ToLower(e.Phase.String()), e.Field, e.Message)
}
