package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <id> [local-path]",
	Short: "Download a converted file",
	Long: `Download the converted file for a done conversion.

Without a local path the server-suggested filename is used. Downloads are
only available while the record is retained; afterwards the server
answers not found.

Examples:
  vanish-cli download 20260830T120000-1a2b3c4d
  vanish-cli download 20260830T120000-1a2b3c4d ./out.pdf
  vanish-cli download --stdout 20260830T120000-1a2b3c4d > out.pdf`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	id := args[0]

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}

	if downloadStdout {
		_, err := download(cmd.Context(), id, os.Stdout)
		return err
	}

	// Spool to a temp file first so a failed download does not clobber an
	// existing file, and so the server-suggested name can be applied.
	tmp, err := os.CreateTemp(".", ".vanish-dl-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	filename, err := download(cmd.Context(), id, tmp)
	closeErr := tmp.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	if localPath == "" {
		if filename == "" {
			filename = id
		}
		localPath = filename
	}

	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return err
	}

	fmt.Printf("saved: %s\n", localPath)
	return nil
}
