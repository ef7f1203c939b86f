package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/runner"
)

// Tool is an external converter binary. Bin overrides the name looked up in PATH.
type Tool struct {
	Bin    string
	Runner runner.Runner
	Logger *slog.Logger
}

func (t Tool) run(ctx context.Context, def string, args ...string) error {
	bin := t.Bin
	if bin == "" {
		bin = def
	}
	_, errb, err := t.Runner.Run(ctx, bin, t.Logger, args...)
	if err != nil {
		return runner.Failure(def, err, errb)
	}
	return nil
}

// HeifConvert uses libheif: heif-convert in.heic out.png
type HeifConvert struct{ Tool }

func (HeifConvert) Name() string { return "heif-convert" }

func (h HeifConvert) Run(ctx context.Context, in ConvertInput) (string, error) {
	return convertVia(in, func(out string) error {
		return h.run(ctx, "heif-convert", in.Path, out)
	})
}

// MagickConvert uses ImageMagick: magick in.heic out.png
type MagickConvert struct{ Tool }

func (MagickConvert) Name() string { return "magick" }

func (m MagickConvert) Run(ctx context.Context, in ConvertInput) (string, error) {
	return convertVia(in, func(out string) error {
		return m.run(ctx, "magick", in.Path, out)
	})
}

// Sips uses the macOS image tool: sips -s format png in.heic --out out.png
type Sips struct{ Tool }

func (Sips) Name() string { return "sips" }

func (s Sips) Run(ctx context.Context, in ConvertInput) (string, error) {
	return convertVia(in, func(out string) error {
		return s.run(ctx, "sips", "-s", "format", "png", in.Path, "--out", out)
	})
}

// convertVia lets convert write into a private temp dir, then installs the
// PNG at in.Output and returns that path.
func convertVia(in ConvertInput, convert func(out string) error) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pdfpages-heic-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	out := filepath.Join(tmpDir, "image.png")
	if err := convert(out); err != nil {
		return "", err
	}
	if st, statErr := os.Stat(out); statErr != nil || st.Size() == 0 {
		return "", fmt.Errorf("HEIC conversion produced no output")
	}
	if err := common.InstallFile(out, in.Output); err != nil {
		return "", err
	}
	return in.Output, nil
}
