package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	rpdf "rsc.io/pdf"

	"github.com/joseph-ayodele/pdfpages/internal/runner"
)

var errNoPages = errors.New("document reports zero pages")

// LedongthucCounter reads the page tree with github.com/ledongthuc/pdf.
type LedongthucCounter struct{}

func (LedongthucCounter) Name() string { return "ledongthuc-pdf" }

func (LedongthucCounter) Run(ctx context.Context, in CountInput) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, r, err := lpdf.Open(in.Path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return checkCount(r.NumPage())
}

// RSCCounter reads the page tree with rsc.io/pdf.
type RSCCounter struct{}

func (RSCCounter) Name() string { return "rsc-pdf" }

func (RSCCounter) Run(ctx context.Context, in CountInput) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := os.Open(in.Path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	doc, err := rpdf.NewReader(f, st.Size())
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	return checkCount(doc.NumPage())
}

// Pdfinfo shells out to poppler's pdfinfo and parses its "Pages:" line.
type Pdfinfo struct {
	Bin    string
	Runner runner.Runner
	Logger *slog.Logger
}

func (p Pdfinfo) Name() string { return "pdfinfo" }

func (p Pdfinfo) Run(ctx context.Context, in CountInput) (int, error) {
	out, errb, err := p.Runner.Run(ctx, binOr(p.Bin, "pdfinfo"), p.Logger, in.Path)
	if err != nil {
		return 0, runner.Failure("pdfinfo", err, errb)
	}
	n, err := parsePdfinfoPages(out)
	if err != nil {
		return 0, err
	}
	return checkCount(n)
}

func parsePdfinfoPages(out []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: bad page count %q", strings.TrimSpace(val))
		}
		return n, nil
	}
	return 0, errors.New("pdfinfo: no Pages line in output")
}

func checkCount(n int) (int, error) {
	if n <= 0 {
		return 0, errNoPages
	}
	return n, nil
}

func binOr(bin, def string) string {
	if bin == "" {
		return def
	}
	return bin
}
