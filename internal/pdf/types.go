// Package pdf provides the page-count, page-render and text-extraction
// candidates: pure Go readers first, then poppler, ImageMagick and MuPDF
// command-line tools behind a runner.Runner.
package pdf

import (
	"errors"

	"github.com/joseph-ayodele/pdfpages/constants"
	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
)

// CountInput is the input of the count-pages capability.
type CountInput struct {
	Path string
}

// RenderInput is the input of the render-page capability. Page is 1-based.
type RenderInput struct {
	Path   string
	Page   int
	DPI    int
	Output string // PNG file written on success
}

// Rendered confirms a page image was written.
type Rendered struct {
	Path  string
	Bytes int64
}

// TextInput is the input of the extract-text capability. First and Last are
// 1-based and inclusive; zero leaves the bound open.
type TextInput struct {
	Path  string
	First int
	Last  int
}

// ErrNoTextLayer is returned by text candidates when the document has no
// extractable text (typically a scan).
var ErrNoTextLayer = errors.New("no text layer")

var (
	CountPages  = fallback.NewCapability[CountInput, int](constants.CapCountPages, ValidateCount)
	RenderPage  = fallback.NewCapability[RenderInput, Rendered](constants.CapRenderPage, ValidateRender)
	ExtractText = fallback.NewCapability[TextInput, string](constants.CapExtractText, ValidateText)
)

var pdfExt = common.Extension("pdf")

func ValidateCount(in CountInput) error {
	return common.NewValidator().
		Field("path", in.Path, common.Required, common.ExistingFile, pdfExt).
		Error()
}

func ValidateRender(in RenderInput) error {
	return common.NewValidator().
		Field("path", in.Path, common.Required, common.ExistingFile, pdfExt).
		Field("page", in.Page, common.Positive).
		Field("dpi", in.DPI, common.Positive).
		Field("output", in.Output, common.Required).
		Error()
}

func ValidateText(in TextInput) error {
	return common.NewValidator().
		Field("path", in.Path, common.Required, common.ExistingFile, pdfExt).
		Field("first", in.First, common.NonNegative).
		Field("last", in.Last, common.NonNegative).
		Check(in.First == 0 || in.Last == 0 || in.First <= in.Last, "last", in.Last, "must not precede first page").
		Error()
}
