package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/pages"
)

func (a *app) ocrCommand() *cobra.Command {
	var (
		lang        string
		psm         int
		first, last int
		output      string
	)
	cmd := &cobra.Command{
		Use:   "ocr FILE",
		Short: "Extract text from an image or a PDF, using OCR when there is no text layer",
		Long: `Extract text from an image (HEIC is converted to PNG first) or from a PDF.
PDFs use their text layer when they have one; scanned PDFs are rendered page by
page and OCR'd, with pages separated by form feeds.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.extractor(cmd, lang, psm).Extract(cmd.Context(), args[0], first, last)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				a.diag.Emit(diag.Info, "Warning: "+w)
			}
			a.diag.Emit(diag.Verbose, fmt.Sprintf("Extracted %d pages via %s", res.Pages, res.Method),
				"candidates", strings.Join(res.Candidates, ","), "duration_ms", res.Duration.Milliseconds())
			return a.writeText(cmd.OutOrStdout(), output, res.Text)
		},
	}
	f := cmd.Flags()
	f.StringVar(&lang, "lang", "", "tesseract language(s), e.g. eng or eng+deu (default from config)")
	f.IntVar(&psm, "psm", -1, "tesseract page segmentation mode (default from config)")
	f.IntVarP(&first, "first", "f", 0, "first page of a PDF (default 1)")
	f.IntVarP(&last, "last", "l", 0, "last page of a PDF (default last page)")
	f.StringVarP(&output, "output", "o", "", "write text to this file instead of stdout")
	return cmd
}

// extractor builds a pages.Extractor from config, with flag overrides.
func (a *app) extractor(cmd *cobra.Command, lang string, psm int) *pages.Extractor {
	cfg := a.cfg.OCR
	if lang != "" {
		cfg.Lang = lang
	}
	if cmd.Flags().Changed("psm") {
		cfg.PSM = psm
	}
	return pages.NewExtractor(a.resolver, cfg, a.cfg.Render.DPI, a.diag.Logger())
}
