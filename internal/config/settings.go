package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"loadstar/internal/logger"
	"loadstar/internal/state"
)

// Environment variables read by LoadSettings.
const (
	EnvHome    = "LOADSTAR_HOME"
	EnvState   = "LOADSTAR_STATE"
	EnvFontURL = "LOADSTAR_FONT_URL"
	EnvDryRun  = "LOADSTAR_DRY_RUN"
)

// Settings are the process-level knobs that are not wizard answers.
type Settings struct {
	// Home is where dotfiles, keys and fonts are written.
	Home      string
	StatePath string
	// FontURL is the GitHub release API URL for Nerd Fonts. Empty means the default.
	FontURL string
	DryRun  bool
}

// DefaultEnvFile is ~/.config/loadstar/env.
func DefaultEnvFile(home string) string {
	return filepath.Join(home, ".config", "loadstar", "env")
}

// LoadSettings loads envFile into the environment (variables already set
// win) and then reads Settings from it. With envFile empty the default file
// is tried and may be absent; a named file must exist.
func LoadSettings(envFile string) (Settings, error) {
	home, err := homeDir()
	if err != nil {
		return Settings{}, err
	}

	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile(home)
	}
	switch err := godotenv.Load(envFile); {
	case err == nil:
		logger.Debug("[DEBUG] Loaded environment from %s\n", envFile)
	case !explicit && errors.Is(err, fs.ErrNotExist):
	default:
		return Settings{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	// The env file may itself set the home override.
	if home, err = homeDir(); err != nil {
		return Settings{}, err
	}
	s := Settings{
		Home:      home,
		StatePath: os.Getenv(EnvState),
		FontURL:   os.Getenv(EnvFontURL),
	}
	if s.StatePath == "" {
		s.StatePath = state.DefaultPath(home)
	}
	if v := os.Getenv(EnvDryRun); v != "" {
		if s.DryRun, err = strconv.ParseBool(v); err != nil {
			return Settings{}, fmt.Errorf("%s: %q is not a boolean", EnvDryRun, v)
		}
	}
	return s, nil
}

func homeDir() (string, error) {
	if h := os.Getenv(EnvHome); h != "" {
		return filepath.Abs(h)
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return h, nil
}
