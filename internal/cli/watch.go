package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/ingest"
)

func (a *app) watchCommand() *cobra.Command {
	var (
		exts     []string
		outDir   string
		debounce time.Duration
		existing bool
		lang     string
	)
	cmd := &cobra.Command{
		Use:   "watch DIR...",
		Short: "Extract text from documents as they appear in a drop folder",
		Long: `Watch one or more directories (recursively) and extract text from every
matching file created or modified there. Text is written to OUTDIR/<name>.txt,
next to the document when no --outdir is given. Runs until interrupted.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := a.diag.Logger()
			files, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
				Roots:       args,
				Exts:        exts,
				InitialScan: existing,
				Debounce:    debounce,
				Logger:      logger,
			})
			if err != nil {
				return common.NewAppError(common.CodeUsage, "watch "+strings.Join(args, ", "), err)
			}
			a.diag.Emitf(diag.Info, "Watching %s for %s", strings.Join(args, ", "), strings.Join(exts, ", "))

			extractor := a.extractor(cmd, lang, 0)
			for {
				select {
				case path, ok := <-files:
					if !ok {
						return nil
					}
					dst := textPath(path, outDir)
					res, err := extractor.Extract(ctx, path, 0, 0)
					if err != nil {
						if ctx.Err() != nil {
							return nil
						}
						reportError(cmd.ErrOrStderr(), fmt.Errorf("%s: %w", path, err))
						continue
					}
					if err := a.writeText(nil, dst, res.Text); err != nil {
						reportError(cmd.ErrOrStderr(), err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", path, dst, res.Method)
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					a.diag.Emit(diag.Verbose, "watcher error", "error", err)
				}
			}
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&exts, "exts", []string{"pdf", "png", "jpg", "jpeg", "heic"}, "extensions to pick up")
	f.StringVarP(&outDir, "outdir", "O", "", "directory for the .txt files (default next to each document)")
	f.DurationVar(&debounce, "debounce", 500*time.Millisecond, "wait this long after the last write before extracting")
	f.BoolVar(&existing, "existing", false, "also process files already present at startup")
	f.StringVar(&lang, "lang", "", "tesseract language(s) (default from config)")
	return cmd
}

// textPath is where the text extracted from path is written.
func textPath(path, outDir string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".txt"
	if outDir == "" {
		return filepath.Join(filepath.Dir(path), name)
	}
	return filepath.Join(outDir, name)
}
