// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"context"
	"strings"
	"sync"

	"loadstar/internal/command"
)

// Response is what the fake answers for a matching command.
type Response struct {
	ExitCode int
	Stdout   []string
	Stderr   []string
	Err      error
	// Hook runs before the response is returned, e.g. to cancel a run
	// or to create files the real program would have created.
	Hook func(cmd command.Cmd)
}

type rule struct {
	prefix []string
	resp   Response
}

// Runner matches commands by program name plus leading arguments. The most
// specific (longest) matching rule wins; unmatched commands exit 0 silently.
type Runner struct {
	mu    sync.Mutex
	rules []rule
	paths map[string]bool
	calls []command.Cmd
}

// New returns an empty fake.
func New() *Runner {
	return &Runner{paths: map[string]bool{}}
}

// On registers resp for commands starting with name followed by args.
func (r *Runner) On(resp Response, name string, args ...string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: append([]string{name}, args...), resp: resp})
	return r
}

// Fail is shorthand for a rule exiting with code.
func (r *Runner) Fail(code int, name string, args ...string) *Runner {
	return r.On(Response{ExitCode: code}, name, args...)
}

// Path marks programs as present on PATH.
func (r *Runner) Path(names ...string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		r.paths[n] = true
	}
	return r
}

// LookPath implements command.Runner.
func (r *Runner) LookPath(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[name]
}

// Run implements command.Runner.
func (r *Runner) Run(ctx context.Context, cmd command.Cmd, onLine command.LineFunc) (command.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	resp, _ := r.match(cmd)
	r.mu.Unlock()

	if resp.Hook != nil {
		resp.Hook(cmd)
	}
	if err := ctx.Err(); err != nil {
		return command.Result{}, err
	}
	var res command.Result
	for _, l := range resp.Stdout {
		if onLine != nil {
			onLine(command.Stdout, l)
		}
	}
	for _, l := range resp.Stderr {
		if onLine != nil {
			onLine(command.Stderr, l)
		}
		if strings.TrimSpace(l) != "" {
			res.LastStderr = l
		}
	}
	res.ExitCode = resp.ExitCode
	return res, resp.Err
}

func (r *Runner) match(cmd command.Cmd) (Response, bool) {
	full := append([]string{cmd.Name}, cmd.Args...)
	best, bestLen := Response{}, -1
	for _, ru := range r.rules {
		if len(ru.prefix) > len(full) || len(ru.prefix) <= bestLen {
			continue
		}
		ok := true
		for i, p := range ru.prefix {
			if full[i] != p {
				ok = false
				break
			}
		}
		if ok {
			best, bestLen = ru.resp, len(ru.prefix)
		}
	}
	return best, bestLen >= 0
}

// Calls returns every command run so far.
func (r *Runner) Calls() []command.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.Cmd(nil), r.calls...)
}

// CommandLines renders Calls as space-joined strings.
func (r *Runner) CommandLines() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return out
}

// Ran reports whether any call starts with name followed by args.
func (r *Runner) Ran(name string, args ...string) bool {
	want := strings.Join(append([]string{name}, args...), " ")
	for _, l := range r.CommandLines() {
		if l == want || strings.HasPrefix(l, want+" ") {
			return true
		}
	}
	return false
}
