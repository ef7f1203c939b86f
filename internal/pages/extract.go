package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/pdfpages/constants"
	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
	"github.com/joseph-ayodele/pdfpages/internal/ocr"
	"github.com/joseph-ayodele/pdfpages/internal/pdf"
)

// Extraction methods reported in ExtractionResult.Method.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
)

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string
	Candidates []string // candidate that produced each step, in order
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// Extractor turns a document into text: the PDF text layer when there is
// one, OCR of rendered pages for scans, OCR directly for images.
type Extractor struct {
	resolver *fallback.Resolver
	cfg      common.OCRConfig
	dpi      int
	logger   *slog.Logger
}

func NewExtractor(resolver *fallback.Resolver, cfg common.OCRConfig, dpi int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if dpi <= 0 {
		dpi = common.DefaultDPI
	}
	return &Extractor{resolver: resolver, cfg: cfg, dpi: dpi, logger: logger}
}

// Extract picks a strategy based on file extension. First and Last limit
// the pages of a PDF; they are ignored for images.
func (e *Extractor) Extract(ctx context.Context, path string, first, last int) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting extraction", "path", path, "ext", ext)

	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path, first, last)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path, ext)
	default:
		return ExtractionResult{}, common.NewAppError(common.CodeUsage,
			fmt.Sprintf("unsupported extension: %q", ext), common.ErrInvalidInput)
	}
	res.Duration = time.Since(start)
	return res, err
}

func (e *Extractor) extractPDF(ctx context.Context, path string, first, last int) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: MethodPDFText}
	text, err := fallback.Resolve(ctx, e.resolver, pdf.ExtractText, pdf.TextInput{Path: path, First: first, Last: last})
	if err == nil {
		res.Text = text.Value
		res.Pages = 1 + strings.Count(text.Value, pdf.PageBreak)
		res.Candidates = []string{text.Candidate}
		return res, nil
	}
	var all *fallback.AllCandidatesFailedError
	if !errors.As(err, &all) || all.Cancelled || !all.AnyOutcomeIs(pdf.ErrNoTextLayer) {
		return res, err
	}

	e.resolver.Diagnostics().Emit(diag.Verbose, "no text layer, falling back to OCR", "path", path)
	return e.ocrPDF(ctx, path, first, last)
}

// ocrPDF renders each page and OCRs it. Pages that fail are skipped with a
// warning; the run fails only when no page produced text.
func (e *Extractor) ocrPDF(ctx context.Context, path string, first, last int) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: MethodPDFOCR, Language: e.cfg.Lang}

	counted, err := fallback.Resolve(ctx, e.resolver, pdf.CountPages, pdf.CountInput{Path: path})
	if err != nil {
		return res, fmt.Errorf("could not determine page count for %s: %w", path, err)
	}
	first, last, err = pageRange(first, last, counted.Value)
	if err != nil {
		return res, err
	}

	tmpDir, err := os.MkdirTemp("", "pdfpages-ocr-*")
	if err != nil {
		return res, err
	}
	defer os.RemoveAll(tmpDir)

	var texts []string
	var lastErr error
	for page := first; page <= last; page++ {
		txt, cands, err := e.ocrPage(ctx, path, tmpDir, page)
		if err != nil {
			if ctx.Err() != nil {
				return res, err
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", page, err))
			lastErr = err
			texts = append(texts, "")
			continue
		}
		res.Candidates = append(res.Candidates, cands...)
		texts = append(texts, txt)
	}
	res.Pages = len(texts)
	if len(res.Warnings) == len(texts) {
		return res, lastErr
	}
	res.Text = strings.Join(texts, pdf.PageBreak)
	return res, nil
}

func (e *Extractor) ocrPage(ctx context.Context, path, tmpDir string, page int) (string, []string, error) {
	out := filepath.Join(tmpDir, fmt.Sprintf("page-%d.png", page))
	rendered, err := fallback.Resolve(ctx, e.resolver, pdf.RenderPage,
		pdf.RenderInput{Path: path, Page: page, DPI: e.dpi, Output: out})
	if err != nil {
		return "", nil, err
	}
	defer os.Remove(out)

	text, err := fallback.Resolve(ctx, e.resolver, ocr.OCRImage, e.imageInput(out))
	if err != nil {
		return "", nil, err
	}
	return text.Value, []string{rendered.Candidate, text.Candidate}, nil
}

func (e *Extractor) extractImage(ctx context.Context, path, ext string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.IMAGE, Method: MethodImageOCR, Language: e.cfg.Lang, Pages: 1}

	if constants.IsHEICExt(ext) {
		tmpDir, err := os.MkdirTemp("", "pdfpages-heic-*")
		if err != nil {
			return res, err
		}
		defer os.RemoveAll(tmpDir)

		conv, err := fallback.Resolve(ctx, e.resolver, ocr.ConvertHEIC,
			ocr.ConvertInput{Path: path, Output: filepath.Join(tmpDir, "image.png")})
		if err != nil {
			e.logger.Debug("heic conversion failed", "path", path, "error", err)
			return res, err
		}
		res.Candidates = append(res.Candidates, conv.Candidate)
		path = conv.Value
	}

	text, err := fallback.Resolve(ctx, e.resolver, ocr.OCRImage, e.imageInput(path))
	if err != nil {
		return res, err
	}
	res.Text = text.Value
	res.Candidates = append(res.Candidates, text.Candidate)
	return res, nil
}

func (e *Extractor) imageInput(path string) ocr.ImageInput {
	return ocr.ImageInput{Path: path, Lang: e.cfg.Lang, TessdataDir: e.cfg.TessdataDir, PSM: e.cfg.PSM}
}
