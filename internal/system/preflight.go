package system

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"loadstar/internal/catalog"
	"loadstar/internal/command"
)

// Check is the result of one preflight probe. Failed checks are warnings,
// never blockers, except Supported OS.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// dial is swapped in tests.
var dial = func(ctx context.Context, addr string) error {
	d := net.Dialer{Timeout: 3 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Preflight runs the pre-install checks against the host.
func Preflight(ctx context.Context, r command.Runner, info Info) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:   "Supported OS",
		OK:     info.Platform.Supported(),
		Detail: info.Describe(),
	})

	if err := dial(ctx, "github.com:443"); err != nil {
		checks = append(checks, Check{Name: "Internet", Detail: "cannot reach github.com: " + err.Error()})
	} else {
		checks = append(checks, Check{Name: "Internet", OK: true, Detail: "github.com reachable"})
	}

	checks = append(checks, writable(info.Home))
	checks = append(checks, diskSpace(ctx, r, info.Home))

	if r.LookPath("git") {
		checks = append(checks, Check{Name: "Git", OK: true, Detail: "git found"})
	} else {
		checks = append(checks, Check{Name: "Git", Detail: "git not found; it will be installed from the catalog"})
	}

	if info.OS == catalog.Darwin {
		if info.Platform.Has(catalog.Brew) {
			checks = append(checks, Check{Name: "Homebrew", OK: true, Detail: "brew found"})
		} else {
			checks = append(checks, Check{Name: "Homebrew", Detail: "brew not found; it will be bootstrapped"})
		}
		res, err := r.Run(ctx, command.New("xcode-select", "-p"), nil)
		if err == nil && res.ExitCode == 0 {
			checks = append(checks, Check{Name: "Xcode CLT", OK: true, Detail: "command line tools installed"})
		} else {
			checks = append(checks, Check{Name: "Xcode CLT", Detail: "run: xcode-select --install"})
		}
	}
	return checks
}

// minFreeGB is the free space below which the disk check warns.
const minFreeGB = 10

// diskSpace reads the available space on the home filesystem from df.
func diskSpace(ctx context.Context, r command.Runner, home string) Check {
	c := Check{Name: "Disk space"}
	var out []string
	res, err := r.Run(ctx, command.New("df", "-Pk", home), func(s command.Stream, line string) {
		if s == command.Stdout {
			out = append(out, line)
		}
	})
	if err != nil || res.ExitCode != 0 || len(out) < 2 {
		c.Detail = "could not read free space"
		return c
	}
	// POSIX df: Filesystem 1024-blocks Used Available Capacity Mounted-on
	f := strings.Fields(out[1])
	if len(f) < 4 {
		c.Detail = "could not read free space"
		return c
	}
	kb, err := strconv.ParseUint(f[3], 10, 64)
	if err != nil {
		c.Detail = "could not read free space"
		return c
	}
	gb := kb / (1024 * 1024)
	c.OK = gb >= minFreeGB
	c.Detail = fmt.Sprintf("%dGB available", gb)
	if !c.OK {
		c.Detail = fmt.Sprintf("only %dGB available; installs may run out of space", gb)
	}
	return c
}

func writable(home string) Check {
	c := Check{Name: "Home writable"}
	f, err := os.CreateTemp(home, ".loadstar-probe-*")
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	c.OK = true
	c.Detail = filepath.Clean(home)
	return c
}
