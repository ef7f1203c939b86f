// Package ocr holds the image side of the toolkit: HEIC/HEIF conversion and
// optical character recognition, each as a set of fallback candidates.
package ocr

import (
	"errors"

	"github.com/joseph-ayodele/pdfpages/constants"
	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
)

// ConvertInput asks for a HEIC/HEIF image to be written as PNG to Output.
type ConvertInput struct {
	Path   string
	Output string
}

// ImageInput is the input of the ocr-image capability.
type ImageInput struct {
	Path        string
	Lang        string // tesseract languages, e.g. "eng" or "eng+deu"
	TessdataDir string
	PSM         int // page segmentation mode, 0 = engine default
}

var (
	ConvertHEIC = fallback.NewCapability[ConvertInput, string](constants.CapConvertHEIC, ValidateConvert)
	OCRImage    = fallback.NewCapability[ImageInput, string](constants.CapOCRImage, ValidateImage)
)

// ErrNoText is returned by OCR candidates that recognized nothing, so the
// next engine still gets a try.
var ErrNoText = errors.New("no text recognized")

// recognized normalizes raw engine output and rejects a blank result.
func recognized(raw string) (string, error) {
	text := Normalize(raw)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// ocrExtensions are the raster formats tesseract reads directly.
var ocrExtensions = []string{"png", "jpg", "jpeg", "tif", "tiff", "bmp", "gif", "webp"}

func ValidateConvert(in ConvertInput) error {
	return common.NewValidator().
		Field("path", in.Path, common.Required, common.ExistingFile, common.Extension("heic", "heif")).
		Field("output", in.Output, common.Required).
		Error()
}

func ValidateImage(in ImageInput) error {
	return common.NewValidator().
		Field("path", in.Path, common.Required, common.ExistingFile, common.Extension(ocrExtensions...)).
		Field("lang", in.Lang, common.Required).
		Field("psm", in.PSM, common.NonNegative).
		Check(in.PSM <= 13, "psm", in.PSM, "must be between 0 and 13").
		Error()
}
