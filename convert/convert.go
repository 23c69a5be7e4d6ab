// Package convert defines the conversion contract consumed by the lifecycle
// service and the built-in converters behind it. Converters are path oriented:
// they read a staged input file and produce an output file, and the caller
// owns both paths.
package convert

import (
	"context"
	"fmt"
)

// Options carries caller-supplied conversion parameters.
type Options struct {
	// Quality selects a converter-specific quality preset. Converters that
	// have no notion of quality ignore it.
	Quality string
}

// Converter transforms the file at inputPath into a new file at outputPath.
//
// A failed conversion does not guarantee the output path is absent: partial
// output may be left behind. Callers must discard the output path's contents
// on any error.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string, opts Options) error
}

// ConverterFunc adapts a plain function to the Converter interface.
type ConverterFunc func(ctx context.Context, inputPath, outputPath string, opts Options) error

func (f ConverterFunc) Convert(ctx context.Context, inputPath, outputPath string, opts Options) error {
	return f(ctx, inputPath, outputPath, opts)
}

// Variant describes one conversion endpoint: the content types it accepts,
// the container format it produces, and the converter that does the work.
type Variant struct {
	Name       string
	InputTypes []string
	// OutputType is the fixed content type of the produced container.
	OutputType string
	// OutputExt is the extension used when deriving the download filename.
	OutputExt string
	Converter  Converter
}

// Accepts reports whether the declared content type exactly matches one of
// the variant's accepted input types.
func (v Variant) Accepts(contentType string) bool {
	for _, t := range v.InputTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// Variants is a lookup table of conversion endpoints keyed by name.
type Variants map[string]Variant

// Lookup resolves a variant by name.
func (vs Variants) Lookup(name string) (Variant, bool) {
	v, ok := vs[name]
	return v, ok
}

// Validate checks every variant is fully specified.
func (vs Variants) Validate() error {
	for name, v := range vs {
		if v.Name != name {
			return fmt.Errorf("variant %q: name mismatch (%q)", name, v.Name)
		}
		if len(v.InputTypes) == 0 {
			return fmt.Errorf("variant %q: no input types", name)
		}
		if v.OutputType == "" || v.OutputExt == "" {
			return fmt.Errorf("variant %q: output format not specified", name)
		}
		if v.Converter == nil {
			return fmt.Errorf("variant %q: no converter", name)
		}
	}
	return nil
}

// Default returns the built-in variant table. All shipped variants produce a
// PDF container.
func Default() Variants {
	return Variants{
		"pdf": {
			Name:       "pdf",
			InputTypes: []string{"application/pdf"},
			OutputType: "application/pdf",
			OutputExt:  ".pdf",
			Converter:  Optimizer{},
		},
		"image": {
			Name:       "image",
			InputTypes: []string{"image/jpeg", "image/png"},
			OutputType: "application/pdf",
			OutputExt:  ".pdf",
			Converter:  ImageImporter{},
		},
		"text": {
			Name:       "text",
			InputTypes: []string{"text/plain"},
			OutputType: "application/pdf",
			OutputExt:  ".pdf",
			Converter:  TextRenderer{},
		},
	}
}
