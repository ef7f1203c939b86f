package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/runner"
)

// Magick renders with ImageMagick: magick -density DPI in.pdf[N-1] out.png
type Magick struct {
	Bin    string
	Runner runner.Runner
	Logger *slog.Logger
}

func (m Magick) Name() string { return "magick" }

func (m Magick) Run(ctx context.Context, in RenderInput) (Rendered, error) {
	return renderVia(in, func(tmpDir string) (string, error) {
		out := filepath.Join(tmpDir, "page.png")
		src := fmt.Sprintf("%s[%d]", in.Path, in.Page-1)
		_, errb, err := m.Runner.Run(ctx, binOr(m.Bin, "magick"), m.Logger,
			"-density", strconv.Itoa(in.DPI), src, out)
		if err != nil {
			return "", runner.Failure("magick", err, errb)
		}
		return out, nil
	})
}

// Pdftoppm renders with poppler: pdftoppm -r DPI -f N -l N -png -singlefile in.pdf prefix
type Pdftoppm struct {
	Bin    string
	Runner runner.Runner
	Logger *slog.Logger
}

func (p Pdftoppm) Name() string { return "pdftoppm" }

func (p Pdftoppm) Run(ctx context.Context, in RenderInput) (Rendered, error) {
	return renderVia(in, func(tmpDir string) (string, error) {
		prefix := filepath.Join(tmpDir, "page")
		page := strconv.Itoa(in.Page)
		_, errb, err := p.Runner.Run(ctx, binOr(p.Bin, "pdftoppm"), p.Logger,
			"-r", strconv.Itoa(in.DPI), "-f", page, "-l", page, "-png", "-singlefile", in.Path, prefix)
		if err != nil {
			return "", runner.Failure("pdftoppm", err, errb)
		}
		return prefix + ".png", nil
	})
}

// Mutool renders with MuPDF: mutool draw -r DPI -o out.png in.pdf N
type Mutool struct {
	Bin    string
	Runner runner.Runner
	Logger *slog.Logger
}

func (m Mutool) Name() string { return "mutool" }

func (m Mutool) Run(ctx context.Context, in RenderInput) (Rendered, error) {
	return renderVia(in, func(tmpDir string) (string, error) {
		out := filepath.Join(tmpDir, "page.png")
		_, errb, err := m.Runner.Run(ctx, binOr(m.Bin, "mutool"), m.Logger,
			"draw", "-r", strconv.Itoa(in.DPI), "-o", out, in.Path, strconv.Itoa(in.Page))
		if err != nil {
			return "", runner.Failure("mutool", err, errb)
		}
		return out, nil
	})
}

var errEmptyImage = errors.New("renderer produced no image")

// renderVia runs produce inside a private temp dir and moves the result to
// in.Output.
func renderVia(in RenderInput, produce func(tmpDir string) (string, error)) (Rendered, error) {
	tmpDir, err := os.MkdirTemp("", "pdfpages-render-*")
	if err != nil {
		return Rendered{}, err
	}
	defer os.RemoveAll(tmpDir)

	produced, err := produce(tmpDir)
	if err != nil {
		return Rendered{}, err
	}
	st, err := os.Stat(produced)
	if err != nil || st.Size() == 0 {
		return Rendered{}, errEmptyImage
	}
	if err := common.InstallFile(produced, in.Output); err != nil {
		return Rendered{}, err
	}
	return Rendered{Path: in.Output, Bytes: st.Size()}, nil
}
