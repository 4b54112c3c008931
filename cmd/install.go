package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"loadstar/internal/config"
	"loadstar/internal/installer"
	"loadstar/internal/logger"
	"loadstar/internal/system"
	"loadstar/internal/wizard"
)

var (
	// answersPath is the YAML file that replaces the interactive wizard.
	answersPath string
	// assumeYes skips the confirmation prompt after the review.
	assumeYes bool
	// checkOnly runs the preflight checks.
	checkOnly bool
)

// errDeclined is returned when the operator answers no at the review prompt.
var errDeclined = errors.New("installation declined")

// installCmd runs the whole wizard from an answers file, without a UI.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install from an answers file without the interactive wizard",
	Example: `  loadstar install --answers answers.yaml --yes
  loadstar install --check`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVarP(&answersPath, "answers", "a", "", "Answers file (YAML)")
	installCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	installCmd.Flags().BoolVar(&checkOnly, "check", false, "Run preflight checks; with --answers, continue to install")
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(dryRun)
	if err != nil {
		return err
	}

	if checkOnly {
		printChecks(system.Preflight(cmd.Context(), a.probe, a.host))
		if answersPath == "" {
			return nil
		}
	}
	if answersPath == "" {
		return errors.New("--answers is required")
	}

	answers, err := config.LoadAnswers(answersPath)
	if err != nil {
		return err
	}
	session := wizard.New(a.catalog)
	if err := config.Apply(answers, session); err != nil {
		return err
	}
	printReview(session, a.host)

	if !assumeYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !ok {
			return errDeclined
		}
	}

	var run *installer.Run
	session.SetLauncher(func(snap wizard.Snapshot) error {
		run, err = a.start(snap)
		return err
	})
	if err := session.Advance(); err != nil {
		return err
	}

	interrupts := make(chan os.Signal, 2)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	sum := render(run, interrupts, renderTick)
	if err := session.Finish(); err != nil {
		return err
	}
	a.record(sum)
	// Failed steps are reported above; they do not fail the process.
	return nil
}

func printChecks(checks []system.Check) {
	logger.Info("[INFO] Preflight checks\n")
	for _, c := range checks {
		if c.OK {
			logger.Info("[INFO]   ✔ %-14s %s\n", c.Name, c.Detail)
		} else {
			logger.Warn("[WARN]   ! %-14s %s\n", c.Name, c.Detail)
		}
	}
}

func printReview(s *wizard.Session, host system.Info) {
	id := s.Identity()
	sh := s.Shell()
	logger.Info("[INFO] Installing on %s\n", host.Describe())
	logger.Info("[INFO] Identity: %s <%s> (%s setup)\n", id.Name, id.Email, id.Setup)
	if id.SplitProfile() {
		logger.Info("[INFO] Work email %s for repositories under %s\n", id.WorkEmail, id.WorkDir)
	}
	logger.Info("[INFO] Shell: %s\n", joinSet(sh.Shell, sh.Prompt, sh.Terminal, sh.Multiplexer, sh.Editor))
	for _, g := range s.SelectionByCategory() {
		logger.Info("[INFO]   %-14s %s\n", g.Category.Name, strings.Join(g.IDs, ", "))
	}
	f := s.Flags()
	logger.Info("[INFO] SSH key: %s, GPG signing: %s, fonts: %s\n", onOff(f.GenerateSSHKey), onOff(f.GPGSigning), onOff(f.InstallFonts))
	logger.Info("[INFO] Estimated time: about %d minutes\n", s.EstimatedMinutes())
}

func joinSet(values ...string) string {
	var set []string
	for _, v := range values {
		if v != "" {
			set = append(set, v)
		}
	}
	if len(set) == 0 {
		return "unchanged"
	}
	return strings.Join(set, ", ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// confirm asks on out and reads one line from in. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprint(out, "Proceed with installation? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
