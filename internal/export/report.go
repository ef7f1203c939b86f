// Package export writes page analyzer reports as XLSX workbooks or CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pdfpages/constants"
	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/pages"
)

const (
	pagesSheet   = "Pages"
	summarySheet = "Summary"
)

var headers = []string{
	"Page",
	"Status",
	"Size (KB)",
	"Bytes",
	"Renderer",
	"Output",
	"Duration (ms)",
	"Error",
}

// Service renders reports. It holds no state besides its logger.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteFile writes r to path atomically, as XLSX or CSV depending on the
// extension.
func (s *Service) WriteFile(path string, r *pages.Report) error {
	var data []byte
	var err error
	switch ext := constants.NormalizeExt(filepath.Ext(path)); ext {
	case "xlsx":
		data, err = s.XLSX(r)
	case "csv":
		var buf bytes.Buffer
		err = s.CSV(&buf, r)
		data = buf.Bytes()
	default:
		return common.NewAppError(common.CodeUsage,
			fmt.Sprintf("report format %q not supported (want .xlsx or .csv)", ext), common.ErrInvalidInput)
	}
	if err != nil {
		return err
	}
	if err := common.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return common.NewAppError(common.CodeIO, "write report", err)
	}
	s.logger.Debug("report written", "path", path, "rows", len(r.Pages), "bytes", len(data))
	return nil
}

// XLSX returns a workbook with a Pages sheet (one row per page) and a
// Summary sheet.
func (s *Service) XLSX(r *pages.Report) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it so Pages is first and active.
	if err := f.SetSheetName("Sheet1", pagesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(pagesSheet)
	f.SetActiveSheet(idx)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(pagesSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(pagesSheet, "A1", "H1", style)
	}

	for i, p := range r.Pages {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(pagesSheet, cell, v)
		}
		write(1, p.Page)
		write(2, status(p))
		if p.OK() {
			write(3, round1(p.KB()))
			write(4, p.Bytes)
		}
		write(5, p.Candidate)
		write(6, p.Output)
		write(7, p.Duration.Milliseconds())
		write(8, errText(p))
	}

	_ = f.SetColWidth(pagesSheet, "A", "A", 8)
	_ = f.SetColWidth(pagesSheet, "B", "B", 12)
	_ = f.SetColWidth(pagesSheet, "C", "D", 12)
	_ = f.SetColWidth(pagesSheet, "E", "E", 16)
	_ = f.SetColWidth(pagesSheet, "F", "F", 48)
	_ = f.SetColWidth(pagesSheet, "G", "G", 14)
	_ = f.SetColWidth(pagesSheet, "H", "H", 60)
	if err := f.SetPanes(pagesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	for i, kv := range summary(r) {
		a, _ := excelize.CoordinatesToCellName(1, i+1)
		b, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(summarySheet, a, kv[0])
		_ = f.SetCellValue(summarySheet, b, kv[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "B", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Debug("xlsx report built", "rows", len(r.Pages), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// CSV writes the Pages sheet as CSV with a header row.
func (s *Service) CSV(w io.Writer, r *pages.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, p := range r.Pages {
		var kb, size string
		if p.OK() {
			kb = strconv.FormatFloat(p.KB(), 'f', 1, 64)
			size = strconv.FormatInt(p.Bytes, 10)
		}
		rec := []string{
			strconv.Itoa(p.Page),
			status(p),
			kb,
			size,
			p.Candidate,
			p.Output,
			strconv.FormatInt(p.Duration.Milliseconds(), 10),
			errText(p),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func summary(r *pages.Report) [][2]any {
	return [][2]any{
		{"Document", r.Path},
		{"Total pages", r.TotalPages},
		{"Counted by", r.CountedBy},
		{"Range", fmt.Sprintf("%d-%d", r.First, r.Last)},
		{"DPI", r.DPI},
		{"Failed pages", r.Failed()},
		{"Elapsed (ms)", r.Duration.Milliseconds()},
		{"Run ID", r.RunID},
	}
}

func status(p pages.PageResult) string {
	if p.OK() {
		return string(constants.OutcomeSucceeded)
	}
	return string(constants.OutcomeFailed)
}

func errText(p pages.PageResult) string {
	if p.Err == nil {
		return ""
	}
	return truncate(p.Err.Error(), 300)
}

func round1(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return f
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
