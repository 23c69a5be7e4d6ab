package convert

import (
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Optimizer rewrites a PDF through pdfcpu's optimizer, deduplicating
// resources and dropping unused objects.
type Optimizer struct{}

func (Optimizer) Convert(ctx context.Context, inputPath, outputPath string, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	if err := api.OptimizeFile(inputPath, outputPath, cfg); err != nil {
		return fmt.Errorf("optimize pdf: %w", err)
	}
	return nil
}
