package wizard

// Phase is one screen of the wizard. Phases are strictly ordered.
type Phase int

const (
	PhaseBoot Phase = iota
	PhaseIdentity
	PhaseShell
	PhaseDevTools
	PhaseApps
	PhaseReview
	PhaseInstall
	PhaseComplete
)

// noPhase marks a missing edge in the transition table.
const noPhase Phase = -1

// Phases lists every phase in order.
var Phases = []Phase{
	PhaseBoot, PhaseIdentity, PhaseShell, PhaseDevTools,
	PhaseApps, PhaseReview, PhaseInstall, PhaseComplete,
}

var phaseInfo = map[Phase]struct{ name, description string }{
	PhaseBoot:     {"Boot", "System detection"},
	PhaseIdentity: {"Identity", "Who are you?"},
	PhaseShell:    {"Shell", "Terminal environment"},
	PhaseDevTools: {"Dev Tools", "Development essentials"},
	PhaseApps:     {"Apps", "Application selection"},
	PhaseReview:   {"Review", "Confirm your choices"},
	PhaseInstall:  {"Install", "Installing packages"},
	PhaseComplete: {"Complete", "Setup finished"},
}

func (p Phase) String() string {
	if info, ok := phaseInfo[p]; ok {
		return info.name
	}
	return "Unknown"
}

// Description is the subtitle shown under the phase name.
func (p Phase) Description() string {
	return phaseInfo[p].description
}

// Index is the 1-based position used for "step 3 of 8" displays.
func (p Phase) Index() int { return int(p) + 1 }

// transition is one row of the phase table: where Advance and Back go, and
// what must hold before leaving forward.
type transition struct {
	next     Phase
	back     Phase
	validate func(*Session) error
}

var transitions = map[Phase]transition{
	PhaseBoot:     {next: PhaseIdentity, back: noPhase},
	PhaseIdentity: {next: PhaseShell, back: PhaseBoot, validate: (*Session).validateIdentity},
	PhaseShell:    {next: PhaseDevTools, back: PhaseIdentity, validate: (*Session).validateShell},
	PhaseDevTools: {next: PhaseApps, back: PhaseShell},
	PhaseApps:     {next: PhaseReview, back: PhaseDevTools, validate: (*Session).validateSelection},
	PhaseReview:   {next: PhaseInstall, back: PhaseApps, validate: (*Session).validateSelection},
	// Install only leaves through Finish; Complete goes back to Review for a rerun.
	PhaseInstall:  {next: noPhase, back: noPhase},
	PhaseComplete: {next: noPhase, back: PhaseReview},
}

// ToolCategories maps the two selection phases to the catalog categories they show.
var ToolCategories = map[Phase][]string{
	PhaseDevTools: {"editor", "git", "language", "container", "database", "cloud", "ai"},
	PhaseApps:     {"shell", "terminal", "files", "search", "system", "network", "security", "productivity", "media"},
}
