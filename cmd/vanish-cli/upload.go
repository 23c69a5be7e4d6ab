package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	uploadContentType string
	uploadQuality     string
	uploadWait        bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <variant> <local-path>",
	Short: "Upload a file for conversion",
	Long: `Upload a file to a conversion endpoint.

The content type is derived from the file extension unless overridden; it
must match what the variant accepts or the server rejects the upload.

Examples:
  vanish-cli upload pdf ./report.pdf
  vanish-cli upload text ./notes.txt --wait
  vanish-cli upload image ./photo.jpg --content-type image/jpeg`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
	uploadCmd.Flags().StringVar(&uploadQuality, "quality", "", "conversion quality preset")
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "poll until the conversion settles")
}

func runUpload(cmd *cobra.Command, args []string) error {
	variant := args[0]
	localPath := args[1]

	ctx := cmd.Context()
	sr, err := upload(ctx, variant, localPath, uploadContentType, uploadQuality)
	if err != nil {
		return err
	}
	fmt.Printf("id: %s\nstate: %s\n", sr.ID, sr.State)

	if !uploadWait {
		return nil
	}
	return pollUntilSettled(ctx, sr.ID)
}

func pollUntilSettled(ctx context.Context, id string) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		sr, err := status(ctx, id)
		if err != nil {
			return err
		}
		if sr.State == "pending" {
			continue
		}

		fmt.Printf("state: %s\n", sr.State)
		if sr.State == "error" {
			return fmt.Errorf("conversion failed")
		}
		if sr.DownloadURL != "" {
			fmt.Printf("download: %s\n", sr.DownloadURL)
		}
		return nil
	}
}
