package cmd

import (
	"fmt"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// updateRepo is the GitHub owner/repo slug releases are published under,
// stamped by the release pipeline via
// -ldflags "-X qbt-janitor/cmd.updateRepo=owner/repo". Builds without it
// cannot self-update.
var updateRepo = ""

// upgradeCmd updates the binary in place from the latest release.
var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade qbt-janitor to the latest release",
	RunE:  runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	if updateRepo == "" {
		return fmt.Errorf("this build has no release repository configured, upgrade it the way it was installed")
	}

	ctx := cmd.Context()

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(updateRepo))
	if err != nil {
		return fmt.Errorf("failed to detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", updateRepo)
	}

	if latest.LessOrEqual(appVersion) {
		fmt.Printf("Current version %s is up to date\n", appVersion)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}

	fmt.Printf("Updating %s -> %s...\n", appVersion, latest.Version())
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Printf("Successfully updated to %s\n", latest.Version())
	return nil
}
