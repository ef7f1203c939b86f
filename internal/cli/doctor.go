package cli

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfpages/internal/capabilities"
	"github.com/joseph-ayodele/pdfpages/internal/ocr"
)

// Doctor statuses.
const (
	statusBuiltin  = "built-in"
	statusNotBuilt = "not built"
	statusDisabled = "disabled"
	statusMissing  = "missing"
)

func (a *app) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "List every backend in preference order and whether it can run here",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Capability", "#", "Candidate", "Binary", "Status"})
			table.SetAutoWrapText(false)

			order := map[string]int{}
			for _, t := range capabilities.Tools(a.cfg) {
				order[t.Capability]++
				table.Append([]string{
					t.Capability,
					strconv.Itoa(order[t.Capability]),
					t.Candidate,
					t.Binary,
					a.toolStatus(t),
				})
			}
			table.Render()
			return nil
		},
	}
}

func (a *app) toolStatus(t capabilities.Tool) string {
	switch {
	case a.cfg.IsDisabled(t.Capability, t.Candidate):
		return statusDisabled
	case t.Candidate == "gosseract" && !ocr.GosseractBuilt:
		return statusNotBuilt
	case t.Binary == "":
		return statusBuiltin
	}
	path, err := a.opts.LookPath(t.Binary)
	if err != nil {
		return statusMissing
	}
	return path
}
