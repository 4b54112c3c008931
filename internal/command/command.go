// Package command is the boundary to child processes. Everything that runs
// an external program goes through a Runner so tests can script the host.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"loadstar/internal/logger"
)

// Stream identifies where an output line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Cmd describes one invocation.
type Cmd struct {
	Name string
	Args []string
	// Env is appended to the current environment.
	Env []string
	Dir string
}

// New is shorthand for Cmd{Name: name, Args: args}.
func New(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

// Shell runs script through /bin/sh -c.
func Shell(script string) Cmd {
	return Cmd{Name: "/bin/sh", Args: []string{"-c", script}}
}

// String renders the command line for logs.
func (c Cmd) String() string {
	parts := append([]string{c.Name}, c.Args...)
	for i, p := range parts {
		if strings.ContainsAny(p, " \t\"'$|&;") {
			parts[i] = fmt.Sprintf("%q", p)
		}
	}
	return strings.Join(parts, " ")
}

// LineFunc receives output as it is produced, one line at a time.
type LineFunc func(stream Stream, line string)

// Result is the outcome of a finished process.
type Result struct {
	ExitCode int
	// LastStderr is the last non-empty line written to stderr.
	LastStderr string
}

// Runner starts processes and answers PATH lookups.
type Runner interface {
	// Run executes cmd, streaming its output to onLine, and waits for it to exit.
	// A non-zero exit is reported in Result, not as an error; err is set only
	// when the process could not be started or was killed through ctx.
	Run(ctx context.Context, cmd Cmd, onLine LineFunc) (Result, error)
	// LookPath reports whether name resolves to an executable.
	LookPath(name string) bool
}

// Exec runs real processes with os/exec.
type Exec struct{}

// LookPath implements Runner.
func (Exec) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run implements Runner.
func (Exec) Run(ctx context.Context, c Cmd, onLine LineFunc) (Result, error) {
	if onLine == nil {
		onLine = func(Stream, string) {}
	}
	var (
		mu         sync.Mutex
		lastStderr string
	)
	// Both writers call emit from separate copy goroutines.
	emit := func(s Stream, line string) {
		mu.Lock()
		defer mu.Unlock()
		if s == Stderr && strings.TrimSpace(line) != "" {
			lastStderr = line
		}
		onLine(s, line)
	}
	stdout := &lineWriter{stream: Stdout, emit: emit}
	stderr := &lineWriter{stream: Stderr, emit: emit}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Grandchildren may keep the pipes open after a kill.
	cmd.WaitDelay = 2 * time.Second

	logger.Debug("[DEBUG] Running command: %s\n", c)
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", c.Name, err)
	}
	err := cmd.Wait()
	stdout.flush()
	stderr.flush()

	mu.Lock()
	res := Result{LastStderr: lastStderr}
	mu.Unlock()
	if err == nil {
		return res, nil
	}
	// A background child left holding the pipes does not fail a clean exit.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		logger.Debug("[DEBUG] %s exited 0 with output still open\n", c.Name)
		return res, nil
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("%s: %w", c.Name, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// lineWriter splits written bytes into lines.
type lineWriter struct {
	stream Stream
	emit   LineFunc
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.stream, strings.TrimSuffix(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.emit(w.stream, string(w.buf))
		w.buf = nil
	}
}

// DryRun echoes commands instead of running them. Every lookup misses.
type DryRun struct{}

// LookPath implements Runner.
func (DryRun) LookPath(string) bool { return false }

// Run implements Runner.
func (DryRun) Run(_ context.Context, c Cmd, onLine LineFunc) (Result, error) {
	if onLine != nil {
		onLine(Stdout, "dry-run: "+c.String())
	}
	return Result{}, nil
}
