// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"awqprov/internal/selfupdate"

	"github.com/spf13/cobra"
)

var (
	selfupdateCheckOnly bool
	selfupdateVersion   string

	selfupdateCmd = &cobra.Command{
		Use:   "selfupdate",
		Short: "Upgrade awqprov to the latest release",
		Long: `Upgrade awqprov to the latest release.

Downloads the release archive for this platform, verifies its checksum,
and atomically replaces the running binary. Installations managed by
Homebrew or go install are left to their package managers.

Examples:
  awqprov selfupdate
  awqprov selfupdate --check
  awqprov selfupdate --version 1.2.0`,
		RunE: runSelfupdate,
	}
)

func init() {
	selfupdateCmd.Flags().BoolVar(&selfupdateCheckOnly, "check", false, "only check for an upgrade, do not apply it")
	selfupdateCmd.Flags().StringVar(&selfupdateVersion, "version", "", "upgrade to a specific version instead of the latest")
}

func runSelfupdate(cmd *cobra.Command, args []string) error {
	updater := selfupdate.NewUpdater(Version, selfupdate.WithGitHubClient(
		selfupdate.NewGitHubClient(selfupdate.WithToken(os.Getenv("GITHUB_TOKEN"))),
	))

	check, err := updater.Check(cmd.Context(), selfupdateVersion)
	if err != nil {
		return fmt.Errorf("checking for upgrade: %w", err)
	}

	if check.Message != "" {
		fmt.Println(check.Message)
	}
	if !check.UpgradeAvailable {
		return nil
	}
	if selfupdateCheckOnly {
		return nil
	}

	fmt.Printf("Downloading %s...\n", CmdStyle.Render(check.LatestVersion))
	if err := updater.Apply(cmd.Context(), check.TargetRelease); err != nil {
		return fmt.Errorf("applying upgrade: %w", err)
	}

	fmt.Printf("%s Upgraded to %s\n", SuccessStyle.Render("✓"), check.LatestVersion)
	return nil
}
