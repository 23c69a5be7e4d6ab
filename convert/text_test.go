package convert_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rkuznets/vanish/convert"
)

func renderText(t *testing.T, r convert.TextRenderer, input string) ([]byte, error) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.pdf")
	assert.NoError(t, os.WriteFile(in, []byte(input), 0o644))

	err := r.Convert(context.Background(), in, out, convert.Options{})
	if err != nil {
		return nil, err
	}
	data, readErr := os.ReadFile(out)
	assert.NoError(t, readErr)
	return data, nil
}

func TestTextRenderer_ProducesPDF(t *testing.T) {
	pdf, err := renderText(t, convert.TextRenderer{}, "hello world\nsecond line\n")

	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")), "output must start with a PDF header")
	assert.True(t, bytes.HasSuffix(pdf, []byte("%%EOF\n")), "output must end with the EOF marker")
	assert.Contains(t, string(pdf), "/Count 1", "two short lines fit on a single page")
	assert.Contains(t, string(pdf), "(hello world) Tj")
}

func TestTextRenderer_EmptyInput(t *testing.T) {
	pdf, err := renderText(t, convert.TextRenderer{}, "")

	assert.NoError(t, err)
	assert.Contains(t, string(pdf), "/Count 1", "empty input still yields one blank page")
}

func TestTextRenderer_Paginates(t *testing.T) {
	// 61 short rows: one more than fits on a page.
	var sb strings.Builder
	for i := 0; i < 61; i++ {
		fmt.Fprintf(&sb, "row %d\n", i)
	}

	pdf, err := renderText(t, convert.TextRenderer{}, sb.String())

	assert.NoError(t, err)
	assert.Contains(t, string(pdf), "/Count 2")
	assert.Contains(t, string(pdf), "(row 60) Tj")
}

func TestTextRenderer_WrapsLongLines(t *testing.T) {
	// 100 'a' runes wrap into an 82-rune row and an 18-rune row.
	pdf, err := renderText(t, convert.TextRenderer{}, strings.Repeat("a", 100))

	assert.NoError(t, err)
	assert.Contains(t, string(pdf), "("+strings.Repeat("a", 82)+") Tj")
	assert.Contains(t, string(pdf), "("+strings.Repeat("a", 18)+") Tj")
}

func TestTextRenderer_EscapesDelimiters(t *testing.T) {
	pdf, err := renderText(t, convert.TextRenderer{}, `f(x) = \sum`)

	assert.NoError(t, err)
	assert.Contains(t, string(pdf), `(f\(x\) = \\sum) Tj`)
}

func TestTextRenderer_ReplacesNonLatin1(t *testing.T) {
	pdf, err := renderText(t, convert.TextRenderer{}, "héllo → wörld")

	assert.NoError(t, err)
	assert.Contains(t, string(pdf), "(héllo ? wörld) Tj")
}

func TestTextRenderer_RejectsOversizeInput(t *testing.T) {
	_, err := renderText(t, convert.TextRenderer{MaxBytes: 16}, "this input is longer than sixteen bytes")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestTextRenderer_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.pdf")
	assert.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := convert.TextRenderer{}.Convert(ctx, in, out, convert.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
