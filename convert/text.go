package convert

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
)

// TextRenderer renders a plain-text file into a paginated PDF. The writer is
// deliberately minimal: one monospaced font, fixed page geometry, no
// compression. pdfcpu has no text import, so the PDF objects are emitted
// directly.
type TextRenderer struct {
	// MaxBytes caps the input size; zero means the default of 4 MiB.
	MaxBytes int64
}

const (
	textPageWidth   = 595 // A4 portrait, points
	textPageHeight  = 842
	textMarginX     = 50
	textMarginTop   = 60
	textFontSize    = 10
	textLeading     = 12
	textCharsPerRow = 82
	textRowsPerPage = 60

	defaultTextMaxBytes = 4 << 20
)

func (r TextRenderer) Convert(ctx context.Context, inputPath, outputPath string, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	maxBytes := r.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultTextMaxBytes
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("render text: open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("render text: stat input: %w", err)
	}
	if info.Size() > maxBytes {
		return fmt.Errorf("render text: input exceeds %d bytes", maxBytes)
	}

	rows, err := readRows(in, textCharsPerRow)
	if err != nil {
		return fmt.Errorf("render text: read input: %w", err)
	}

	pdf := renderTextPDF(rows)

	if err := os.WriteFile(outputPath, pdf, 0o644); err != nil {
		return fmt.Errorf("render text: write output: %w", err)
	}
	return nil
}

// readRows splits the input into display rows, wrapping long lines at width
// runes and expanding tabs to four spaces.
func readRows(f *os.File, width int) ([]string, error) {
	var rows []string

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.ReplaceAll(sc.Text(), "\t", "    ")
		runes := []rune(line)
		if len(runes) == 0 {
			rows = append(rows, "")
			continue
		}
		for len(runes) > 0 {
			n := min(width, len(runes))
			rows = append(rows, string(runes[:n]))
			runes = runes[n:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		rows = []string{""}
	}
	return rows, nil
}

// renderTextPDF assembles a complete PDF document from display rows.
func renderTextPDF(rows []string) []byte {
	var contents [][]byte
	for start := 0; start < len(rows); start += textRowsPerPage {
		end := min(start+textRowsPerPage, len(rows))
		contents = append(contents, textPageContent(rows[start:end]))
	}

	pageCount := len(contents)

	// Object layout: 1 catalog, 2 pages, 3 font, then for page i:
	// 4+2i page dict, 5+2i content stream.
	objCount := 3 + 2*pageCount

	var buf bytes.Buffer
	offsets := make([]int, objCount+1)

	buf.WriteString("%PDF-1.4\n")

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	var kids []string
	for i := range pageCount {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), pageCount))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>")

	for i, content := range contents {
		pageNum := 4 + 2*i
		streamNum := pageNum + 1
		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			textPageWidth, textPageHeight, streamNum))

		offsets[streamNum] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n", streamNum, len(content))
		buf.Write(content)
		buf.WriteString("endstream\nendobj\n")
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= objCount; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		objCount+1, xrefStart)

	return buf.Bytes()
}

// textPageContent builds the content stream drawing the rows of one page.
func textPageContent(rows []string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "BT\n/F1 %d Tf\n%d TL\n%d %d Td\n",
		textFontSize, textLeading, textMarginX, textPageHeight-textMarginTop)
	for _, row := range rows {
		fmt.Fprintf(&b, "(%s) Tj\nT*\n", escapePDFString(row))
	}
	b.WriteString("ET\n")
	return b.Bytes()
}

// escapePDFString escapes PDF literal-string delimiters and maps non-Latin-1
// runes to '?', since the base font is unencoded Courier.
func escapePDFString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			if r < 0x20 || r > 0xff {
				b.WriteByte('?')
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
