// Package cli implements the pdfpages command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfpages/internal/capabilities"
	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
	"github.com/joseph-ayodele/pdfpages/internal/runner"
)

// Options injects the process environment. Zero values mean the real thing.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Runner runner.Runner
	// LookPath resolves tool binaries for the doctor command.
	LookPath func(name string) (string, error)
}

// app is the state shared by subcommands once flags are parsed.
type app struct {
	opts Options

	verbose    int
	quiet      bool
	configPath string
	logFormat  string

	cfg      *common.Config
	diag     *diag.Emitter
	registry *fallback.Registry
	resolver *fallback.Resolver
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	opts = opts.withDefaults()
	root := NewRootCommand(opts)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return common.ExitOK
	}
	reportError(opts.Stderr, err)
	return common.ExitCode(err)
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Runner == nil {
		o.Runner = runner.Exec{}
	}
	if o.LookPath == nil {
		o.LookPath = runner.Lookup
	}
	return o
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	opts = opts.withDefaults()
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "pdfpages",
		Short: "Page analysis, rendering, text extraction and OCR with backend fallback",
		Long: `pdfpages runs document operations through an ordered list of interchangeable
backends (pure Go readers, poppler, ImageMagick, MuPDF, tesseract...). The first
backend that succeeds wins; when all of them fail the error lists every attempt.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              usageArgs(cobra.NoArgs),
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return common.NewAppError(common.CodeUsage, err.Error(), common.ErrInvalidInput)
	})

	pf := root.PersistentFlags()
	pf.CountVarP(&a.verbose, "verbose", "v", "increase verbosity (repeatable: -v, -vv, -vvv)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress all diagnostic output")
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.logFormat, "log-format", "", "diagnostics format: text or json")

	root.AddCommand(
		a.pagesCommand(),
		a.countCommand(),
		a.renderCommand(),
		a.textCommand(),
		a.ocrCommand(),
		a.doctorCommand(),
		a.watchCommand(),
	)
	return root
}

// setup loads configuration and builds the diagnostics emitter, the registry
// and the resolver.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := common.LoadConfig()
	if a.configPath != "" {
		if err := common.LoadFile(a.configPath, cfg); err != nil {
			return err
		}
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, err := diag.ParseFormat(cfg.Log.Format)
	if err != nil {
		return common.NewAppError(common.CodeConfig, err.Error(), common.ErrInvalidInput)
	}

	runID := uuid.NewString()
	cmd.SetContext(common.WithRunID(cmd.Context(), runID))

	a.cfg = cfg
	a.diag = diag.New(a.opts.Stderr, diag.FromFlags(a.verbose, a.quiet), format).With("run_id", runID)
	a.registry, err = capabilities.Build(cfg, a.opts.Runner, a.diag.Logger())
	if err != nil {
		return common.NewAppError(common.CodeConfig, "build backend registry", err)
	}
	a.resolver = fallback.NewResolver(a.registry, a.diag)
	a.diag.Emit(diag.Debug, "configuration loaded",
		"command", cmd.Name(), "dpi", cfg.Render.DPI, "workers", cfg.Render.Workers, "disabled", strings.Join(cfg.Disabled, ","))
	return nil
}

// reportError prints the one-line summary and, for exhausted fallbacks, one
// line per attempted backend.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var summary *countFailure
	if errors.As(err, &summary) {
		return
	}
	if detail := common.FailureDetail(err); detail != "" {
		fmt.Fprintln(w, detail)
	}
}

// usageArgs wraps a cobra positional-args validator so its failures map to
// the usage exit code.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return common.NewAppError(common.CodeUsage, err.Error(), common.ErrInvalidInput)
		}
		return nil
	}
}

// worst returns the error with the most severe exit code.
func worst(errs []error) error {
	var out error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if out == nil || common.ExitCode(err) > common.ExitCode(out) {
			out = err
		}
	}
	return out
}
