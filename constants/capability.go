package constants

// Capability names. These are the keys of the backend registry and appear in
// diagnostics, reports and the PDFPAGES_DISABLE setting.
const (
	CapCountPages  = "count-pages"
	CapRenderPage  = "render-page"
	CapExtractText = "extract-text"
	CapConvertHEIC = "convert-heic"
	CapOCRImage    = "ocr-image"
)
