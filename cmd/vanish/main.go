package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "vanish",
	Short:   "Ephemeral file conversion server",
	Long: `Vanish accepts file uploads, converts them, and keeps the result
downloadable for a bounded time window before discarding it.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-backend", "", "storage backend: local, s3 (default: local, env: VANISH_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory for the local backend (default: ./data, env: VANISH_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
