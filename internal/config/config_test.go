package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadstar/internal/catalog"
	"loadstar/internal/wizard"
)

const sampleAnswers = `
identity:
  name: Jane Doe
  email: jane@x.com
  github: "@janedoe"
  setup: full
shell:
  shell: fish
  prompt: starship
  multiplexer: tmux
preset: minimal
add: [delta]
remove: [jq]
flags:
  gpg_signing: true
  fonts: false
`

func newSession(t *testing.T) *wizard.Session {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return wizard.New(cat)
}

func TestLoadAnswers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleAnswers), 0o644))

	a, err := LoadAnswers(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", a.Identity.Name)
	require.NotNil(t, a.Shell)
	assert.Equal(t, "fish", a.Shell.Shell)
	assert.Equal(t, []string{"delta"}, a.Add)
	assert.Nil(t, a.Flags.SSHKey)
	require.NotNil(t, a.Flags.Fonts)
	assert.False(t, *a.Flags.Fonts)
}

func TestParseAnswersRejectsUnknownKeys(t *testing.T) {
	_, err := ParseAnswers([]byte("identity:\n  nmae: Jane\n"))
	assert.ErrorContains(t, err, "nmae")
}

func TestParseAnswersEmpty(t *testing.T) {
	a, err := ParseAnswers(nil)
	require.NoError(t, err)
	assert.Nil(t, a.Shell)
}

func TestLoadAnswersMissingFile(t *testing.T) {
	_, err := LoadAnswers(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyReachesReview(t *testing.T) {
	a, err := ParseAnswers([]byte(sampleAnswers))
	require.NoError(t, err)
	s := newSession(t)

	require.NoError(t, Apply(a, s))
	assert.Equal(t, wizard.PhaseReview, s.Phase())

	assert.Equal(t, "janedoe", s.Identity().GitHubUser)
	assert.Equal(t, wizard.SetupFull, s.Identity().Setup)
	assert.Equal(t, wizard.ShellChoices{Shell: "fish", Prompt: "starship", Multiplexer: "tmux"}, s.Shell())
	assert.Equal(t, wizard.Flags{GenerateSSHKey: true, GPGSigning: true, InstallFonts: false}, s.Flags())

	snap := s.Snapshot()
	for _, id := range []string{"git", "curl", "ripgrep", "fd", "fzf", "delta", "fish", "starship", "tmux"} {
		assert.True(t, snap.Has(id), id)
	}
	assert.False(t, snap.Has("jq"))
}

func TestApplyKeepsDefaultsForOmittedSections(t *testing.T) {
	a, err := ParseAnswers([]byte("identity: {name: Jane, email: jane@x.com}\n"))
	require.NoError(t, err)
	s := newSession(t)
	essentials := s.Selection()

	require.NoError(t, Apply(a, s))
	assert.Equal(t, wizard.ShellZsh, s.Shell().Shell)
	assert.Equal(t, wizard.DefaultFlags(), s.Flags())
	assert.Equal(t, essentials, s.Selection())
}

func TestApplyValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		answers string
		phase   wizard.Phase
		field   string
	}{
		{"missing name", "identity: {email: jane@x.com}", wizard.PhaseIdentity, "name"},
		{"bad email", "identity: {name: Jane, email: not-an-email}", wizard.PhaseIdentity, "email"},
		{"prompt needs zsh", "identity: {name: Jane}\nshell: {shell: bash, prompt: pure}", wizard.PhaseShell, "prompt"},
		{"unknown item", "identity: {name: Jane}\nadd: [nope]", wizard.PhaseApps, "selection"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseAnswers([]byte(tc.answers))
			require.NoError(t, err)
			err = Apply(a, newSession(t))
			var ve *wizard.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.phase, ve.Phase)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestApplyUnknownPreset(t *testing.T) {
	a := &Answers{Identity: IdentityAnswers{Name: "Jane"}, Preset: "huge"}
	assert.ErrorIs(t, Apply(a, newSession(t)), catalog.ErrUnknownPreset)
}

func TestApplyRequiresBoot(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Advance())
	assert.ErrorContains(t, Apply(&Answers{}, s), "not Boot")
}

func TestLoadSettingsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	unset(t, EnvState, EnvFontURL, EnvDryRun)

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, home, s.Home)
	assert.Equal(t, filepath.Join(home, ".local", "state", "loadstar", "state.json"), s.StatePath)
	assert.Empty(t, s.FontURL)
	assert.False(t, s.DryRun)
}

func TestLoadSettingsFromEnvFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	unset(t, EnvState, EnvDryRun)
	// Variables already in the environment win over the file.
	t.Setenv(EnvFontURL, "http://override")

	envFile := DefaultEnvFile(home)
	require.NoError(t, os.MkdirAll(filepath.Dir(envFile), 0o755))
	require.NoError(t, os.WriteFile(envFile, []byte("LOADSTAR_STATE=/tmp/ls.json\nLOADSTAR_DRY_RUN=true\nLOADSTAR_FONT_URL=http://file\n"), 0o644))

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ls.json", s.StatePath)
	assert.True(t, s.DryRun)
	assert.Equal(t, "http://override", s.FontURL)
}

// unset clears keys for the test; godotenv never overrides a key that is
// present, even when empty.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "load env file")

	t.Setenv(EnvDryRun, "maybe")
	_, err = LoadSettings("")
	assert.ErrorContains(t, err, "not a boolean")
}
