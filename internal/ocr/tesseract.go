package ocr

import (
	"context"
	"strconv"

	"github.com/joseph-ayodele/pdfpages/internal/runner"
)

// Tesseract runs the tesseract CLI:
// tesseract in.png stdout -l LANG [--psm N] [--tessdata-dir DIR]
type Tesseract struct{ Tool }

func (Tesseract) Name() string { return "tesseract" }

func (t Tesseract) Run(ctx context.Context, in ImageInput) (string, error) {
	bin := t.Bin
	if bin == "" {
		bin = "tesseract"
	}
	out, errb, err := t.Runner.Run(ctx, bin, t.Logger, tesseractArgs(in)...)
	if err != nil {
		return "", runner.Failure("tesseract", err, errb)
	}
	return recognized(string(out))
}

func tesseractArgs(in ImageInput) []string {
	args := []string{in.Path, "stdout", "-l", in.Lang}
	if in.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(in.PSM))
	}
	if in.TessdataDir != "" {
		args = append(args, "--tessdata-dir", in.TessdataDir)
	}
	return args
}
