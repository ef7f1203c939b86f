//go:build !gosseract

package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/pdfpages/internal/fallback"
)

func TestGosseract_UnavailableWithoutTag(t *testing.T) {
	_, err := Gosseract{}.Run(context.Background(), ImageInput{Path: "scan.png", Lang: "eng"})
	assert.ErrorIs(t, err, fallback.ErrUnavailable)
	assert.Equal(t, "gosseract", Gosseract{}.Name())
}
