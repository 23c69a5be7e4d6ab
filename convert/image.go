package convert

import (
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ImageImporter wraps a JPEG or PNG image into a single-page A4 PDF using
// pdfcpu's image import.
type ImageImporter struct{}

func (ImageImporter) Convert(ctx context.Context, inputPath, outputPath string, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	imp, err := api.Import("form:A4, pos:c", types.POINTS)
	if err != nil {
		return fmt.Errorf("import image: parse import config: %w", err)
	}

	cfg := model.NewDefaultConfiguration()
	if err := api.ImportImagesFile([]string{inputPath}, outputPath, imp, cfg); err != nil {
		return fmt.Errorf("import image: %w", err)
	}
	return nil
}
