package logger

import (
	"io"
	"os"

	"github.com/fatih/color" // Colored console output per level
)

// Colorized printf-style functions, one per log level. They are package-level
// variables so callers write logger.Info("[INFO] ...") without carrying a
// logger value around.

// Info prints informational messages in green.
var Info func(format string, a ...any)

// Warn prints warnings in bright magenta.
var Warn func(format string, a ...any)

// Error prints errors in red.
var Error func(format string, a ...any)

// Debug prints cyan debug messages when enabled and is a no-op otherwise.
var Debug func(format string, a ...any)

var (
	out          io.Writer = os.Stdout
	debugEnabled bool
)

func init() {
	wire()
}

// Init enables or disables debug output. It is called once from the root
// command before any subcommand runs.
func Init(enableDebug bool) {
	debugEnabled = enableDebug
	wire()
}

// SetOutput redirects every level to w. The interactive UI points this at
// io.Discard while it owns the terminal.
func SetOutput(w io.Writer) {
	out = w
	wire()
}

// DebugEnabled reports whether Init turned debug output on.
func DebugEnabled() bool { return debugEnabled }

func wire() {
	w := out
	Info = bind(w, color.New(color.FgGreen))
	Warn = bind(w, color.New(color.FgHiMagenta))
	Error = bind(w, color.New(color.FgRed))
	if debugEnabled {
		Debug = bind(w, color.New(color.FgCyan))
	} else {
		Debug = func(format string, a ...any) {}
	}
}

func bind(w io.Writer, c *color.Color) func(format string, a ...any) {
	f := c.FprintfFunc()
	return func(format string, a ...any) {
		f(w, format, a...)
	}
}
