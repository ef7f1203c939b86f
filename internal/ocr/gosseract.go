//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract runs OCR in-process through libtesseract. It is only built with
// -tags gosseract since it needs cgo and the tesseract headers.
type Gosseract struct{}

// GosseractBuilt reports whether the in-process engine was compiled in.
const GosseractBuilt = true

func (Gosseract) Name() string { return "gosseract" }

func (Gosseract) Run(ctx context.Context, in ImageInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := gosseract.NewClient()
	defer c.Close()

	if in.TessdataDir != "" {
		if err := c.SetTessdataPrefix(in.TessdataDir); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(strings.Split(in.Lang, "+")...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if in.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(in.PSM)); err != nil {
			return "", fmt.Errorf("set page seg mode: %w", err)
		}
	}
	if err := c.SetImage(in.Path); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return recognized(text)
}
