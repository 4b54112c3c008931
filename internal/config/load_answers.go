package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"loadstar/internal/logger"
	"loadstar/internal/wizard"
)

// LoadAnswers reads and decodes the answers file at path. Unknown keys are
// rejected so a typo does not silently fall back to a default.
func LoadAnswers(path string) (*Answers, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	return ParseAnswers(raw)
}

// ParseAnswers decodes an answers document.
func ParseAnswers(raw []byte) (*Answers, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var a Answers
	if err := dec.Decode(&a); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	return &a, nil
}

// Apply walks s from Boot to Review, filling each phase from a. Every
// forward step goes through the session's own validation, so a bad answer
// comes back as a *wizard.ValidationError naming the phase and field. On
// success s is positioned at Review, ready for the caller to begin the install.
func Apply(a *Answers, s *wizard.Session) error {
	if s.Phase() != wizard.PhaseBoot {
		return fmt.Errorf("apply answers: session is at %s, not %s", s.Phase(), wizard.PhaseBoot)
	}
	if err := s.Advance(); err != nil {
		return err
	}

	id := a.Identity
	if err := s.SetIdentity(wizard.Identity{
		Name:       id.Name,
		Email:      id.Email,
		GitHubUser: id.GitHubUser,
		Setup:      wizard.SetupType(id.Setup),
		Work:       id.Work,
		WorkEmail:  id.WorkEmail,
		WorkDir:    id.WorkDir,
	}); err != nil {
		return err
	}
	if err := s.Advance(); err != nil {
		return err
	}

	if sh := a.Shell; sh != nil {
		if err := s.SetShell(wizard.ShellChoices{
			Shell:       sh.Shell,
			Prompt:      sh.Prompt,
			Terminal:    sh.Terminal,
			Multiplexer: sh.Multiplexer,
			Editor:      sh.Editor,
		}); err != nil {
			return err
		}
	}
	if err := s.Advance(); err != nil {
		return err
	}

	flags := s.Flags()
	setFlag(&flags.GenerateSSHKey, a.Flags.SSHKey)
	setFlag(&flags.GPGSigning, a.Flags.GPGSigning)
	setFlag(&flags.InstallFonts, a.Flags.Fonts)
	if err := s.SetFlags(flags); err != nil {
		return err
	}
	if err := s.Advance(); err != nil {
		return err
	}

	if a.Preset != "" {
		if err := s.ApplyPreset(a.Preset); err != nil {
			return err
		}
		logger.Debug("[DEBUG] Applied preset %s (%d items)\n", a.Preset, len(s.Selection()))
	}
	for _, id := range a.Add {
		if err := s.Select(id, true); err != nil {
			return err
		}
	}
	for _, id := range a.Remove {
		if err := s.Select(id, false); err != nil {
			return err
		}
	}
	return s.Advance()
}

func setFlag(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
