package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	latest "github.com/tcnksm/go-latest"

	"loadstar/internal/logger"
)

// Version is set at build time with -ldflags "-X loadstar/cmd.Version=v1.2.3".
var Version = "dev"

const (
	repoOwner = "loadstar-sh"
	repoName  = "loadstar"
)

var checkLatest bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "loadstar %s\n", Version)
		if !checkLatest {
			return nil
		}
		return checkUpdate(&latest.GithubTag{Owner: repoOwner, Repository: repoName}, Version)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&checkLatest, "check", false, "Check GitHub for a newer release")
}

// checkUpdate compares current against the newest tag of src.
func checkUpdate(src latest.Source, current string) error {
	if current == "dev" {
		logger.Warn("[WARN] Development build; nothing to compare against\n")
		return nil
	}
	res, err := latest.Check(src, strings.TrimPrefix(current, "v"))
	if err != nil {
		return fmt.Errorf("check for updates: %w", err)
	}
	if res.Outdated {
		logger.Info("[INFO] A new version is available: %s (you have %s)\n", res.Current, current)
		logger.Info("[INFO] Download it from https://github.com/%s/%s/releases\n", repoOwner, repoName)
		return nil
	}
	logger.Info("[INFO] You are using the latest version: %s\n", current)
	return nil
}
