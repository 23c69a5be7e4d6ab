package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the state of a conversion",
	Long: `Show the lifecycle state of a conversion: pending, done or error.

An id that never existed, already expired, or was cleaned up reports
not found — the server does not distinguish the cases.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	sr, err := status(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("id: %s\nstate: %s\n", sr.ID, sr.State)
	if sr.DownloadURL != "" {
		fmt.Printf("download: %s\n", sr.DownloadURL)
	}
	return nil
}
