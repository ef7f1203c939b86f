// Package pages renders every page of a PDF through the fallback resolver
// and reports the size of each resulting PNG. It also drives OCR for images
// and scanned documents.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/pdfpages/internal/async"
	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/diag"
	"github.com/joseph-ayodele/pdfpages/internal/fallback"
	"github.com/joseph-ayodele/pdfpages/internal/pdf"
)

// Request selects the document, page range and rendering options.
// Zero First/Last mean the first and last page of the document.
type Request struct {
	Path   string
	First  int
	Last   int
	DPI    int
	OutDir string // when set, each rendered page is kept as OutDir/page-N.png
}

// PageResult is the outcome of rendering one page.
type PageResult struct {
	Page      int
	Bytes     int64
	Candidate string
	Output    string
	Err       error
	Duration  time.Duration
}

func (p PageResult) OK() bool { return p.Err == nil }

// KB is the PNG size in kibibytes.
func (p PageResult) KB() float64 { return float64(p.Bytes) / 1024 }

// Line formats the result the way the analyzer prints it.
func (p PageResult) Line() string {
	if !p.OK() {
		return fmt.Sprintf("Page %d: conversion failed", p.Page)
	}
	return fmt.Sprintf("Page %d: %.1fKB", p.Page, p.KB())
}

// Report summarizes an analyzer run.
type Report struct {
	RunID      string // from common.WithRunID, empty when unset
	Path       string
	TotalPages int
	CountedBy  string
	First      int
	Last       int
	DPI        int
	Pages      []PageResult
	Duration   time.Duration
}

// Failed returns the number of pages no renderer could convert.
func (r *Report) Failed() int {
	n := 0
	for _, p := range r.Pages {
		if !p.OK() {
			n++
		}
	}
	return n
}

// Analyzer renders pages concurrently but reports them in page order.
type Analyzer struct {
	resolver *fallback.Resolver
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	progress func(PageResult)
}

type Option func(*Analyzer)

func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithPageTimeout bounds the resolution of each page.
func WithPageTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithProgress registers fn to receive each page result, in page order, as
// soon as it and every page before it are done.
func WithProgress(fn func(PageResult)) Option {
	return func(a *Analyzer) { a.progress = fn }
}

func NewAnalyzer(resolver *fallback.Resolver, logger *slog.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{resolver: resolver, logger: logger, workers: 1}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze counts the pages of req.Path, then renders each page in range.
// Failing to count pages fails the whole run; a page no renderer could
// convert is reported in its PageResult and does not stop the others.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	em := a.resolver.Diagnostics()
	if req.DPI <= 0 {
		req.DPI = common.DefaultDPI
	}

	em.Emitf(diag.Debug, "Getting page count for %s", req.Path)
	counted, err := fallback.Resolve(ctx, a.resolver, pdf.CountPages, pdf.CountInput{Path: req.Path})
	if err != nil {
		return nil, fmt.Errorf("could not determine page count for %s: %w", req.Path, err)
	}
	total := counted.Value
	em.Emit(diag.Verbose, fmt.Sprintf("Page count: %d", total), "candidate", counted.Candidate)

	first, last, err := pageRange(req.First, req.Last, total)
	if err != nil {
		return nil, err
	}
	if req.Last > total {
		em.Emitf(diag.Verbose, "last page %d is past the end, stopping at %d", req.Last, total)
	}

	tmpDir, err := os.MkdirTemp("", "pdfpages-pages-*")
	if err != nil {
		return nil, common.NewAppError(common.CodeIO, "create temp dir", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			a.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	report := &Report{
		RunID:      common.RunIDFromContext(ctx),
		Path:       req.Path,
		TotalPages: total,
		CountedBy:  counted.Candidate,
		First:      first,
		Last:       last,
		DPI:        req.DPI,
		Pages:      make([]PageResult, last-first+1),
	}
	order := newOrderedSink(len(report.Pages), a.progress)

	pool := async.NewPool(ctx, func(ctx context.Context, job async.Job) error {
		res := a.renderPage(ctx, req, tmpDir, job.Page)
		i := job.Page - first
		report.Pages[i] = res
		order.done(i, res)
		return res.Err
	}, a.logger, async.WithWorkers(a.workers), async.WithJobTimeout(a.timeout))

	for page := first; page <= last; page++ {
		if err := pool.Enqueue(ctx, async.NewJob(page)); err != nil {
			break
		}
	}
	pool.Shutdown(context.Background())

	// Pages never picked up because ctx ended.
	for i := range report.Pages {
		if report.Pages[i].Page == 0 {
			res := PageResult{Page: first + i, Err: context.Cause(ctx)}
			if res.Err == nil {
				res.Err = errors.New("page was not processed")
			}
			report.Pages[i] = res
			order.done(i, res)
		}
	}

	report.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (a *Analyzer) renderPage(ctx context.Context, req Request, tmpDir string, page int) PageResult {
	em := a.resolver.Diagnostics()
	in := pdf.RenderInput{
		Path:   req.Path,
		Page:   page,
		DPI:    req.DPI,
		Output: filepath.Join(tmpDir, fmt.Sprintf("page-%d.png", page)),
	}
	rendered, err := fallback.Resolve(ctx, a.resolver, pdf.RenderPage, in)
	res := PageResult{Page: page, Candidate: rendered.Candidate, Err: err, Duration: rendered.Duration}
	if err != nil {
		return res
	}
	res.Bytes = rendered.Value.Bytes

	if req.OutDir != "" {
		dst := filepath.Join(req.OutDir, fmt.Sprintf("page-%d.png", page))
		if err := common.InstallFile(rendered.Value.Path, dst); err != nil {
			em.Emitf(diag.Info, "Could not copy page %d to %s: %v", page, dst, err)
		} else {
			res.Output = dst
			em.Emitf(diag.Info, "Copied intermediate file to %s", dst)
		}
	}
	return res
}

// pageRange applies defaults to first and last and checks them against total.
// A last page past the end is clamped.
func pageRange(first, last, total int) (int, int, error) {
	if first <= 0 {
		first = 1
	}
	if last <= 0 || last > total {
		last = total
	}
	if first > total {
		return 0, 0, common.NewAppError(common.CodeUsage,
			fmt.Sprintf("first page %d is past the end of the document (%d pages)", first, total), common.ErrInvalidInput)
	}
	if first > last {
		return 0, 0, common.NewAppError(common.CodeUsage,
			fmt.Sprintf("first page %d is after last page %d", first, last), common.ErrInvalidInput)
	}
	return first, last, nil
}

// orderedSink releases results to fn in index order.
type orderedSink struct {
	mu    sync.Mutex
	fn    func(PageResult)
	ready []*PageResult
	next  int
}

func newOrderedSink(n int, fn func(PageResult)) *orderedSink {
	return &orderedSink{fn: fn, ready: make([]*PageResult, n)}
}

func (s *orderedSink) done(i int, res PageResult) {
	if s.fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready[i] != nil {
		return
	}
	s.ready[i] = &res
	for s.next < len(s.ready) && s.ready[s.next] != nil {
		s.fn(*s.ready[s.next])
		s.next++
	}
}
