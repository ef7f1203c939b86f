package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
	"github.com/joseph-ayodele/pdfpages/internal/pdf"
)

func (a *app) renderCommand() *cobra.Command {
	var (
		page, dpi int
		output    string
	)
	cmd := &cobra.Command{
		Use:   "render FILE -p PAGE -o OUT.png",
		Short: "Render a single PDF page to PNG",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dpi == 0 {
				dpi = a.cfg.Render.DPI
			}
			res, err := fallback.Resolve(cmd.Context(), a.resolver, pdf.RenderPage, pdf.RenderInput{
				Path:   args[0],
				Page:   page,
				DPI:    dpi,
				Output: output,
			})
			if err != nil {
				return err
			}
			a.diag.Emitf(diag.Info, "Rendered page %d with %s", page, res.Candidate)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.1fKB\n", res.Value.Path, float64(res.Value.Bytes)/1024)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&page, "page", "p", 1, "page number (1-based)")
	f.IntVarP(&dpi, "dpi", "d", 0, "render resolution (default from config, 400)")
	f.StringVarP(&output, "output", "o", "", "destination PNG file")
	return cmd
}
