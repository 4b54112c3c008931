package dotfiles

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Outcome is what Write did to the target.
type Outcome int

const (
	// Created means no file existed and the artifact was written.
	Created Outcome = iota
	// Unchanged means the file already held identical content; nothing was written.
	Unchanged
	// Replaced means differing content was backed up, then overwritten.
	Replaced
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Unchanged:
		return "unchanged"
	case Replaced:
		return "replaced"
	}
	return "unknown"
}

// Result describes one Write.
type Result struct {
	Outcome Outcome
	// Backup is the backup path when Outcome is Replaced.
	Backup string
}

// BackupPath is where the previous content of path is kept.
func BackupPath(path string) string {
	return path + BackupSuffix
}

// Write applies the backup policy and writes a atomically. With dryRun set
// it only reports what would happen.
func Write(a Artifact, dryRun bool) (Result, error) {
	existing, err := os.ReadFile(a.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if dryRun {
			return Result{Outcome: Created}, nil
		}
		if err := WriteAtomic(a.Path, a.Content, a.Mode); err != nil {
			return Result{}, err
		}
		return Result{Outcome: Created}, nil
	case err != nil:
		return Result{}, fmt.Errorf("read %s: %w", a.Path, err)
	}

	if bytes.Equal(existing, a.Content) {
		return Result{Outcome: Unchanged}, nil
	}

	backup := BackupPath(a.Path)
	if dryRun {
		return Result{Outcome: Replaced, Backup: backup}, nil
	}
	mode := a.Mode
	if info, err := os.Stat(a.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := WriteAtomic(backup, existing, mode); err != nil {
		return Result{}, fmt.Errorf("backup %s: %w", a.Path, err)
	}
	if err := WriteAtomic(a.Path, a.Content, a.Mode); err != nil {
		return Result{}, err
	}
	return Result{Outcome: Replaced, Backup: backup}, nil
}

// WriteAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old file or the new one. Parent
// directories are created as needed.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	// Remove the temp file on every failure path.
	ok := false
	defer func() {
		if !ok {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	ok = true
	return nil
}
