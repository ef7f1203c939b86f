package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
	"github.com/joseph-ayodele/pdfpages/internal/ingest"
	"github.com/joseph-ayodele/pdfpages/internal/pdf"
)

func (a *app) countCommand() *cobra.Command {
	var includeHidden bool
	cmd := &cobra.Command{
		Use:   "count PATH|DIR|PATTERN...",
		Short: "Print the page count of one or more PDFs",
		Long: `Print the page count of each PDF. Arguments may be files, directories (walked
recursively for *.pdf) or doublestar patterns such as "scans/**/*.pdf".`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, stats, err := ingest.Discover(args, ingest.Options{SkipHidden: !includeHidden})
			if err != nil {
				return common.NewAppError(common.CodeUsage, "expand arguments", err)
			}
			a.diag.Emit(diag.Verbose2, "discovered inputs",
				"scanned", stats.Scanned, "matched", stats.Matched, "skipped", stats.Skipped)

			out := cmd.OutOrStdout()
			errs := make([]error, 0, len(files))
			for _, path := range files {
				res, err := fallback.Resolve(cmd.Context(), a.resolver, pdf.CountPages, pdf.CountInput{Path: path})
				if err != nil {
					if len(files) > 1 {
						reportError(cmd.ErrOrStderr(), fmt.Errorf("%s: %w", path, err))
					}
					errs = append(errs, err)
					if cmd.Context().Err() != nil {
						break
					}
					continue
				}
				fmt.Fprintf(out, "%s: %d pages\n", path, res.Value)
				a.diag.Emit(diag.Verbose2, "counted", "path", path, "candidate", res.Candidate)
			}

			failed := worst(errs)
			switch {
			case failed == nil:
				return nil
			case len(files) == 1:
				return failed
			default:
				return &countFailure{failed: len(errs), total: len(files), cause: failed}
			}
		},
	}
	cmd.Flags().BoolVar(&includeHidden, "hidden", false, "include hidden files and directories")
	return cmd
}

// countFailure summarizes a multi-file run. Per-file errors were already
// printed, so it carries the worst one only for its exit code.
type countFailure struct {
	failed, total int
	cause         error
}

func (e *countFailure) Error() string {
	return fmt.Sprintf("%d of %d files could not be counted", e.failed, e.total)
}

func (e *countFailure) Unwrap() error { return e.cause }
