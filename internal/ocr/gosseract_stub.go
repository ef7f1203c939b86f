//go:build !gosseract

package ocr

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/pdfpages/internal/fallback"
)

// Gosseract is unavailable in builds without -tags gosseract.
type Gosseract struct{}

// GosseractBuilt reports whether the in-process engine was compiled in.
const GosseractBuilt = false

func (Gosseract) Name() string { return "gosseract" }

func (Gosseract) Run(context.Context, ImageInput) (string, error) {
	return "", fallback.Unavailable(errors.New("built without gosseract support"))
}
