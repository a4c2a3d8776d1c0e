package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/itetools/ite5570d/internal/logging"
	"github.com/itetools/ite5570d/internal/updater"
)

const defaultRepository = "itetools/ite5570d"

// CreateUpdateCmd creates the update command: check for, apply, or roll
// back binary updates from GitHub releases.
func CreateUpdateCmd() *cobra.Command {
	var (
		checkOnly  bool
		rollback   bool
		prerelease bool
		noRestart  bool
		repository string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the daemon binary from GitHub releases",
		RunE: func(_ *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})

			svc, err := updater.NewService(updater.Options{
				Repository: repository,
				Prerelease: prerelease,
			})
			if err != nil {
				return err
			}
			if !svc.IsEnabled() {
				return fmt.Errorf("updates disabled: %s", svc.DisabledReason())
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if rollback {
				if err := svc.Rollback(ctx); err != nil {
					return err
				}
				fmt.Println("Rolled back to previous version")
				return restartUnlessDisabled(ctx, svc, noRestart)
			}

			info, err := svc.CheckForUpdate(ctx)
			if err != nil {
				return err
			}
			if !info.UpdateAvailable {
				fmt.Printf("Already up to date (%s)\n", info.CurrentVersion)
				return nil
			}
			fmt.Printf("Update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			if checkOnly {
				return nil
			}

			if err := svc.ApplyUpdate(ctx); err != nil {
				return err
			}
			fmt.Printf("Updated to %s\n", info.LatestVersion)
			return restartUnlessDisabled(ctx, svc, noRestart)
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only check whether an update exists")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Restore the previously backed up binary")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prereleases")
	cmd.Flags().BoolVar(&noRestart, "no-restart", false, "Do not restart the daemon afterwards")
	cmd.Flags().StringVar(&repository, "repository", defaultRepository, "GitHub repository slug")

	return cmd
}

func restartUnlessDisabled(ctx context.Context, svc *updater.Service, noRestart bool) error {
	if noRestart {
		fmt.Println("Restart the daemon to run the new binary")
		return nil
	}
	return svc.Restart(ctx)
}
