package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/pages"
)

func sampleReport() *pages.Report {
	return &pages.Report{
		RunID:      "5f0c2a9e-run",
		Path:       "/docs/scan.pdf",
		TotalPages: 3,
		CountedBy:  "rsc-pdf",
		First:      1,
		Last:       3,
		DPI:        400,
		Duration:   1500 * time.Millisecond,
		Pages: []pages.PageResult{
			{Page: 1, Bytes: 2048, Candidate: "magick", Output: "/out/page-1.png", Duration: 120 * time.Millisecond},
			{Page: 2, Err: errors.New("render-page: all 2 candidate(s) failed [magick, pdftoppm]")},
			{Page: 3, Bytes: 1536, Candidate: "pdftoppm", Duration: 80 * time.Millisecond},
		},
	}
}

func TestXLSX(t *testing.T) {
	data, err := NewService(nil).XLSX(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Pages", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Pages")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"1", "SUCCEEDED", "2", "2048", "magick", "/out/page-1.png", "120"}, rows[1])
	assert.Equal(t, "FAILED", rows[2][1])
	assert.Contains(t, rows[2][7], "all 2 candidate(s) failed")
	assert.Equal(t, "1.5", rows[3][2])

	v, err := f.GetCellValue("Summary", "B6")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	v, err = f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "1-3", v)
	v, err = f.GetCellValue("Summary", "B8")
	require.NoError(t, err)
	assert.Equal(t, "5f0c2a9e-run", v)
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewService(nil).CSV(&buf, sampleReport()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, headers, recs[0])
	assert.Equal(t, []string{"1", "SUCCEEDED", "2.0", "2048", "magick", "/out/page-1.png", "120", ""}, recs[1])
	assert.Equal(t, []string{"2", "FAILED", "", "", "", "", "0"}, recs[2][:7])
	assert.Equal(t, "1.5", recs[3][2])
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil)

	for _, name := range []string{"report.xlsx", "report.CSV"} {
		path := filepath.Join(dir, "nested", name)
		require.NoError(t, svc.WriteFile(path, sampleReport()))
		st, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, st.Size())
	}

	err := svc.WriteFile(filepath.Join(dir, "report.pdf"), sampleReport())
	assert.Equal(t, common.ExitUsage, common.ExitCode(err))
	assert.NoFileExists(t, filepath.Join(dir, "report.pdf"))

	leftovers, err := filepath.Glob(filepath.Join(dir, "nested", ".pdfpages-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
