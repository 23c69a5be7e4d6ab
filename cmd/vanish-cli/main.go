package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	server string
)

var rootCmd = &cobra.Command{
	Use:     "vanish-cli",
	Version: version,
	Short:   "Client for the Vanish conversion server",
	Long: `Vanish CLI - client for the Vanish file conversion server.

A conversion is asynchronous: upload returns an id, status reports
pending/done/error, and download fetches the converted file while it is
still retained. Converted files expire a few minutes after completion.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL (default: http://localhost:5709, env: VANISH_SERVER)")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(downloadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serverURL() string {
	if server != "" {
		return server
	}
	if env := os.Getenv("VANISH_SERVER"); env != "" {
		return env
	}
	return "http://localhost:5709"
}
