// Package state keeps a JSON history of finished installation runs.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"loadstar/internal/logger"
)

// MaxRuns is how many runs the file keeps; older ones are dropped.
const MaxRuns = 20

// StepRecord is the outcome of one step.
type StepRecord struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// RunRecord summarizes one finished plan.
type RunRecord struct {
	ID           string        `json:"id"`
	Started      time.Time     `json:"started"`
	Duration     time.Duration `json:"duration_ns"`
	DryRun       bool          `json:"dry_run,omitempty"`
	Cancelled    bool          `json:"cancelled,omitempty"`
	Succeeded    int           `json:"succeeded"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	NotAttempted int           `json:"not_attempted"`
	Steps        []StepRecord  `json:"steps"`
}

// State is the whole file.
type State struct {
	Runs []RunRecord `json:"runs"`
}

// DefaultPath is ~/.local/state/loadstar/state.json under home.
func DefaultPath(home string) string {
	return filepath.Join(home, ".local", "state", "loadstar", "state.json")
}

// LoadState reads the file at path. A missing file is an empty state.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	return &st, nil
}

// SaveState writes st to path as indented JSON, creating the directory.
func SaveState(path string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	logger.Debug("[DEBUG] Writing state to %s (%d runs)\n", path, len(st.Runs))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Append adds r, dropping the oldest runs beyond MaxRuns.
func (s *State) Append(r RunRecord) {
	s.Runs = append(s.Runs, r)
	if n := len(s.Runs); n > MaxRuns {
		s.Runs = append([]RunRecord(nil), s.Runs[n-MaxRuns:]...)
	}
}

// Last returns the most recent run.
func (s *State) Last() (RunRecord, bool) {
	if len(s.Runs) == 0 {
		return RunRecord{}, false
	}
	return s.Runs[len(s.Runs)-1], true
}

// Record loads the file at path, appends r and saves it.
func Record(path string, r RunRecord) error {
	st, err := LoadState(path)
	if err != nil {
		// A corrupt history is replaced rather than blocking new records.
		logger.Warn("[WARN] %v; starting a new history\n", err)
		st = &State{}
	}
	st.Append(r)
	return SaveState(path, st)
}
