package main

import (
	"os"

	"loadstar/cmd"
)

// main hands off to the cobra command tree.
//
// loadstar provisions a development machine in one pass:
//   - an interactive wizard (or an answers file) collects identity, shell
//     choices and the tools to install from a built-in catalog
//   - the selection is frozen into a plan and run on a background worker
//     that reports every step as an event
//   - package managers are bootstrapped when missing, dotfiles are written
//     with a backup of any differing file, and SSH/GPG credentials are set up
//
// Individual steps that fail are reported and counted; they do not change
// the exit status. The process exits non-zero only when a run cannot start.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
