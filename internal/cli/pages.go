package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/export"
	"github.com/joseph-ayodele/pdfpages/internal/pages"
)

func (a *app) pagesCommand() *cobra.Command {
	var (
		first, last, dpi, workers int
		outDir, reportPath        string
	)
	cmd := &cobra.Command{
		Use:   "pages FILE",
		Short: "Render every page of a PDF and print the size of each PNG",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dpi == 0 {
				dpi = a.cfg.Render.DPI
			}
			if workers == 0 {
				workers = a.cfg.Render.Workers
			}
			v := common.NewValidator().
				Field("dpi", dpi, common.Positive).
				Field("workers", workers, common.Positive).
				Field("first", first, common.NonNegative).
				Field("last", last, common.NonNegative)
			if err := v.Error(); err != nil {
				return common.NewAppError(common.CodeUsage, "invalid flags", err)
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return common.NewAppError(common.CodeIO, "create output directory", err)
				}
			}

			path := args[0]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Size of PNG file for pages in %s:\n", path)

			analyzer := pages.NewAnalyzer(a.resolver, a.diag.Logger(),
				pages.WithWorkers(workers),
				pages.WithPageTimeout(a.cfg.Render.PageTimeout),
				pages.WithProgress(func(p pages.PageResult) {
					fmt.Fprintln(out, p.Line())
					if !p.OK() {
						a.diag.Emitf(diag.Verbose, "page %d: %v", p.Page, p.Err)
					}
				}),
			)
			report, err := analyzer.Analyze(cmd.Context(), pages.Request{
				Path:   path,
				First:  first,
				Last:   last,
				DPI:    dpi,
				OutDir: outDir,
			})
			if err != nil {
				return err
			}
			if n := report.Failed(); n > 0 {
				a.diag.Emitf(diag.Info, "%d of %d pages could not be converted", n, len(report.Pages))
			}
			if reportPath != "" {
				if err := export.NewService(a.diag.Logger()).WriteFile(reportPath, report); err != nil {
					return err
				}
				a.diag.Emitf(diag.Info, "Wrote report to %s", reportPath)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&first, "first", "f", 0, "first page (default 1)")
	f.IntVarP(&last, "last", "l", 0, "last page (default last page of the document)")
	f.IntVarP(&dpi, "dpi", "d", 0, "render resolution (default from config, 400)")
	f.StringVarP(&outDir, "outdir", "O", "", "keep each rendered page as DIR/page-N.png")
	f.StringVar(&reportPath, "report", "", "write a .xlsx or .csv report of the run")
	f.IntVar(&workers, "workers", 0, "pages rendered concurrently (default from config)")
	return cmd
}
