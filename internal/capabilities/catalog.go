// Package capabilities wires every candidate the tool ships with into a
// frozen fallback registry, in preference order.
package capabilities

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
	"github.com/joseph-ayodele/pdfpages/internal/ocr"
	"github.com/joseph-ayodele/pdfpages/internal/pdf"
	"github.com/joseph-ayodele/pdfpages/internal/runner"
)

// Tool describes the external binary behind a candidate. Pure Go
// candidates have an empty Binary.
type Tool struct {
	Capability string
	Candidate  string
	Binary     string
}

// Build registers the default candidates, minus those cfg disables, and
// freezes the registry. Every capability is declared even when all of its
// candidates are disabled.
func Build(cfg *common.Config, r runner.Runner, logger *slog.Logger) (*fallback.Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg := fallback.NewRegistry()
	t := cfg.Tools
	tool := func(bin string) ocr.Tool { return ocr.Tool{Bin: bin, Runner: r, Logger: logger} }

	err := firstErr(
		add(reg, cfg, logger, pdf.CountPages,
			pdf.LedongthucCounter{},
			pdf.RSCCounter{},
			pdf.Pdfinfo{Bin: t.Pdfinfo, Runner: r, Logger: logger},
		),
		add(reg, cfg, logger, pdf.RenderPage,
			pdf.Magick{Bin: t.Magick, Runner: r, Logger: logger},
			pdf.Pdftoppm{Bin: t.Pdftoppm, Runner: r, Logger: logger},
			pdf.Mutool{Bin: t.Mutool, Runner: r, Logger: logger},
		),
		add(reg, cfg, logger, pdf.ExtractText,
			pdf.Pdftotext{Bin: t.Pdftotext, Runner: r, Logger: logger},
			pdf.LedongthucText{},
		),
		add(reg, cfg, logger, ocr.ConvertHEIC,
			ocr.HeifConvert{Tool: tool(t.HeifConvert)},
			ocr.MagickConvert{Tool: tool(t.Magick)},
			ocr.Sips{Tool: tool(t.Sips)},
		),
		add(reg, cfg, logger, ocr.OCRImage,
			ocr.Gosseract{},
			ocr.Tesseract{Tool: tool(t.Tesseract)},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	reg.Freeze()
	return reg, nil
}

// Tools lists every candidate Build knows about with the binary it needs.
func Tools(cfg *common.Config) []Tool {
	t := cfg.Tools
	return []Tool{
		{pdf.CountPages.Name, "ledongthuc-pdf", ""},
		{pdf.CountPages.Name, "rsc-pdf", ""},
		{pdf.CountPages.Name, "pdfinfo", t.Pdfinfo},
		{pdf.RenderPage.Name, "magick", t.Magick},
		{pdf.RenderPage.Name, "pdftoppm", t.Pdftoppm},
		{pdf.RenderPage.Name, "mutool", t.Mutool},
		{pdf.ExtractText.Name, "pdftotext", t.Pdftotext},
		{pdf.ExtractText.Name, "ledongthuc-pdf", ""},
		{ocr.ConvertHEIC.Name, "heif-convert", t.HeifConvert},
		{ocr.ConvertHEIC.Name, "magick", t.Magick},
		{ocr.ConvertHEIC.Name, "sips", t.Sips},
		{ocr.OCRImage.Name, "gosseract", ""},
		{ocr.OCRImage.Name, "tesseract", t.Tesseract},
	}
}

func add[In, Out any](reg *fallback.Registry, cfg *common.Config, logger *slog.Logger, c fallback.Capability[In, Out], cands ...fallback.Candidate[In, Out]) error {
	if err := fallback.Declare(reg, c); err != nil {
		return err
	}
	for _, cand := range cands {
		if cfg.IsDisabled(c.Name, cand.Name()) {
			logger.Debug("candidate disabled", "capability", c.Name, "candidate", cand.Name())
			continue
		}
		if err := fallback.Register(reg, c, cand); err != nil {
			return err
		}
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
