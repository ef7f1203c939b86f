package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/pdfpages/internal/runner"
)

// PageBreak separates pages in extracted text, matching pdftotext.
const PageBreak = "\f"

// Pdftotext extracts the text layer with poppler:
// pdftotext -layout -enc UTF-8 -eol unix [-f N] [-l M] in.pdf -
type Pdftotext struct {
	Bin    string
	Runner runner.Runner
	Logger *slog.Logger
}

func (p Pdftotext) Name() string { return "pdftotext" }

func (p Pdftotext) Run(ctx context.Context, in TextInput) (string, error) {
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if in.First > 0 {
		args = append(args, "-f", strconv.Itoa(in.First))
	}
	if in.Last > 0 {
		args = append(args, "-l", strconv.Itoa(in.Last))
	}
	args = append(args, in.Path, "-")

	out, errb, err := p.Runner.Run(ctx, binOr(p.Bin, "pdftotext"), p.Logger, args...)
	if err != nil {
		return "", runner.Failure("pdftotext", err, errb)
	}
	return requireText(strings.TrimSuffix(string(out), PageBreak))
}

// LedongthucText extracts plain text page by page with github.com/ledongthuc/pdf.
type LedongthucText struct{}

func (LedongthucText) Name() string { return "ledongthuc-pdf" }

func (LedongthucText) Run(ctx context.Context, in TextInput) (string, error) {
	f, r, err := lpdf.Open(in.Path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	first, last := pageRange(in, r.NumPage())
	fonts := make(map[string]*lpdf.Font)
	pages := make([]string, 0, max(0, last-first+1))
	for i := first; i <= last; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		txt, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, txt)
	}
	return requireText(strings.Join(pages, PageBreak))
}

func pageRange(in TextInput, total int) (int, int) {
	first, last := 1, total
	if in.First > 0 {
		first = in.First
	}
	if in.Last > 0 {
		last = min(in.Last, total)
	}
	return first, last
}

// requireText rejects output that holds nothing but whitespace and page breaks.
func requireText(s string) (string, error) {
	if strings.TrimSpace(strings.ReplaceAll(s, PageBreak, "")) == "" {
		return "", ErrNoTextLayer
	}
	return s, nil
}
