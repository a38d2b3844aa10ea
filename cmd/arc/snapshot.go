package main

import (
	"fmt"

	"arc-go/internal/app"

	"github.com/spf13/cobra"
)

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Copy the database to and from the configured vault",
}

var snapshotPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a snapshot of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("SnapshotPush", func(a *app.ArcApp) error {
			version, err := a.SnapshotPush(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Pushed snapshot version %d\n", version)
			return nil
		})
	},
}

var snapshotPullCmd = &cobra.Command{
	Use:   "pull FILE",
	Short: "Download the latest snapshot to FILE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("SnapshotPull", func(a *app.ArcApp) error {
			version, err := a.SnapshotPull(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Pulled snapshot version %d to %s\n", version, args[0])
			return nil
		})
	},
}

var snapshotStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the snapshot version stored in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("SnapshotStatus", func(a *app.ArcApp) error {
			version, err := a.SnapshotVersion(cmd.Context())
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Println("No snapshot stored.")
				return nil
			}
			fmt.Printf("Remote snapshot version: %d\n", version)
			return nil
		})
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotPushCmd)
	snapshotCmd.AddCommand(snapshotPullCmd)
	snapshotCmd.AddCommand(snapshotStatusCmd)
}
