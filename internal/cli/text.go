package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
	"github.com/joseph-ayodele/pdfpages/internal/pdf"
)

func (a *app) textCommand() *cobra.Command {
	var (
		first, last int
		output      string
	)
	cmd := &cobra.Command{
		Use:   "text FILE",
		Short: "Extract the text layer of a PDF",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := fallback.Resolve(cmd.Context(), a.resolver, pdf.ExtractText, pdf.TextInput{
				Path:  args[0],
				First: first,
				Last:  last,
			})
			if err != nil {
				return err
			}
			a.diag.Emitf(diag.Verbose, "Extracted %d bytes with %s", len(res.Value), res.Candidate)
			return a.writeText(cmd.OutOrStdout(), output, res.Value)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&first, "first", "f", 0, "first page (default 1)")
	f.IntVarP(&last, "last", "l", 0, "last page (default last page of the document)")
	f.StringVarP(&output, "output", "o", "", "write text to this file instead of stdout")
	return cmd
}

// writeText prints text to stdout, or replaces output atomically when set.
func (a *app) writeText(stdout io.Writer, output, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if output == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	err := common.WriteFileAtomic(output, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
	if err != nil {
		return common.NewAppError(common.CodeIO, "write "+output, err)
	}
	a.diag.Emitf(diag.Info, "Wrote %s", output)
	return nil
}
