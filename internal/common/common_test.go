package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfpages/internal/fallback"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PDFPAGES_DPI", "PDFPAGES_WORKERS", "PDFPAGES_PAGE_TIMEOUT", "PDFPAGES_DISABLE", "PDFPAGES_MAGICK", "TESSERACT_LANG", "PDFPAGES_LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	assert.Equal(t, DefaultDPI, cfg.Render.DPI)
	assert.Equal(t, 1, cfg.Render.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Render.PageTimeout)
	assert.Equal(t, "magick", cfg.Tools.Magick)
	assert.Equal(t, "eng", cfg.OCR.Lang)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Disabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("PDFPAGES_DPI", "150")
	t.Setenv("PDFPAGES_WORKERS", "4")
	t.Setenv("PDFPAGES_PAGE_TIMEOUT", "30s")
	t.Setenv("PDFPAGES_MAGICK", "/opt/im/bin/magick")
	t.Setenv("PDFPAGES_DISABLE", " mutool, ocr-image/gosseract ,,")
	t.Setenv("TESSERACT_PSM", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, 150, cfg.Render.DPI)
	assert.Equal(t, 4, cfg.Render.Workers)
	assert.Equal(t, 30*time.Second, cfg.Render.PageTimeout)
	assert.Equal(t, "/opt/im/bin/magick", cfg.Tools.Magick)
	assert.Equal(t, 0, cfg.OCR.PSM, "unparsable values fall back to the default")
	assert.Equal(t, []string{"mutool", "ocr-image/gosseract"}, cfg.Disabled)

	assert.True(t, cfg.IsDisabled("render-page", "mutool"))
	assert.True(t, cfg.IsDisabled("ocr-image", "gosseract"))
	assert.False(t, cfg.IsDisabled("ocr-image", "tesseract"))
	assert.False(t, cfg.IsDisabled("other", "gosseract"))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"dpi", func(c *Config) { c.Render.DPI = 0 }},
		{"workers", func(c *Config) { c.Render.Workers = -1 }},
		{"timeout", func(c *Config) { c.Render.PageTimeout = -time.Second }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"lang", func(c *Config) { c.OCR.Lang = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, ExitConfig, ExitCode(err))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfpages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  pdftoppm: /usr/local/bin/pdftoppm
render:
  dpi: 200
  page_timeout: 1m30s
ocr:
  lang: eng+deu
  psm: 0
log:
  format: json
disable:
  - render-page/magick
`), 0o644))

	cfg := LoadConfig()
	cfg.OCR.PSM = 6
	cfg.Disabled = []string{"mutool"}
	require.NoError(t, LoadFile(path, cfg))

	assert.Equal(t, "/usr/local/bin/pdftoppm", cfg.Tools.Pdftoppm)
	assert.Equal(t, "pdfinfo", cfg.Tools.Pdfinfo, "absent keys keep their value")
	assert.Equal(t, 200, cfg.Render.DPI)
	assert.Equal(t, 90*time.Second, cfg.Render.PageTimeout)
	assert.Equal(t, "eng+deu", cfg.OCR.Lang)
	assert.Equal(t, 0, cfg.OCR.PSM, "an explicit zero overrides")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"mutool", "render-page/magick"}, cfg.Disabled)
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "render:\n  colour: red\n"},
		{"dpi out of range", "render:\n  dpi: 0\n"},
		{"bad duration", "render:\n  page_timeout: soon\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"bad disable entry", "disable: [\"Render Page\"]\n"},
		{"wrong type", "render:\n  workers: many\n"},
		{"not yaml", "render: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := applyFile([]byte(tt.doc), LoadConfig())
			require.Error(t, err)
			var app *AppError
			require.ErrorAs(t, err, &app)
			assert.Equal(t, CodeConfig, app.Code)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), LoadConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, ExitConfig, ExitCode(err))
}

func TestLoadFileEmpty(t *testing.T) {
	cfg := LoadConfig()
	want := *cfg
	require.NoError(t, applyFile([]byte("  \n"), cfg))
	assert.Equal(t, want, *cfg)
}

func TestRunID(t *testing.T) {
	assert.Empty(t, RunIDFromContext(context.Background()))
	ctx := WithRunID(context.Background(), "run-7")
	assert.Equal(t, "run-7", RunIDFromContext(ctx))
}

func TestExitCode(t *testing.T) {
	failed := &fallback.AllCandidatesFailedError{
		Capability: "count-pages",
		Outcomes: []fallback.Outcome{
			{Candidate: "a", Kind: "FAILED", Err: errors.New("boom")},
			{Candidate: "b", Kind: "UNAVAILABLE", Err: fallback.Unavailable(errors.New("missing"))},
		},
	}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("disk on fire"), ExitFailed},
		{"all failed", fmt.Errorf("wrapped: %w", failed), ExitFailed},
		{"invalid input", &fallback.InvalidInputError{Capability: "x"}, ExitUsage},
		{"usage app error", NewAppError(CodeUsage, "bad flag", nil), ExitUsage},
		{"config app error", NewAppError(CodeConfig, "bad config", errors.New("x")), ExitConfig},
		{"io app error", NewAppError(CodeIO, "write", errors.New("x")), ExitFailed},
		{"unknown capability", &fallback.UnknownCapabilityError{Capability: "x"}, ExitConfig},
		{"no candidates", &fallback.NoCandidatesConfiguredError{Capability: "x"}, ExitConfig},
		{"validation sentinel", fmt.Errorf("%w: page", ErrInvalidInput), ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestFailureDetail(t *testing.T) {
	failed := &fallback.AllCandidatesFailedError{
		Capability: "render-page",
		Outcomes: []fallback.Outcome{
			{Candidate: "magick", Kind: "FAILED", Err: errors.New("exit status 1")},
			{Candidate: "pdftoppm", Kind: "UNAVAILABLE", Err: errors.New("not found")},
		},
	}
	detail := FailureDetail(fmt.Errorf("page 3: %w", failed))
	assert.Equal(t, "  magick: FAILED: exit status 1\n  pdftoppm: UNAVAILABLE: not found", detail)
	assert.Empty(t, FailureDetail(errors.New("other")))
}

func TestValidator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.PDF")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	pdf := Extension("pdf")
	tests := []struct {
		name  string
		value any
		rules []ValidationRule
		msg   string
	}{
		{"required empty", "  ", []ValidationRule{Required}, "is required"},
		{"required nil", nil, []ValidationRule{Required}, "is required"},
		{"missing file", filepath.Join(dir, "nope.pdf"), []ValidationRule{ExistingFile}, "does not exist"},
		{"directory", dir, []ValidationRule{ExistingFile}, "is not a regular file"},
		{"extension", filepath.Join(dir, "doc.txt"), []ValidationRule{pdf}, "must have extension pdf"},
		{"positive", 0, []ValidationRule{Positive}, "must be positive"},
		{"non negative", -1, []ValidationRule{NonNegative}, "must not be negative"},
		{"not an int", "3", []ValidationRule{Positive}, "must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator().Field("f", tt.value, tt.rules...).Error()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	t.Run("passes", func(t *testing.T) {
		v := NewValidator().
			Field("path", file, Required, ExistingFile, pdf).
			Field("page", 1, Positive).
			Field("first", 0, NonNegative)
		assert.False(t, v.HasErrors())
		assert.NoError(t, v.Error())
		assert.Empty(t, v.ErrorMessage())
	})

	t.Run("collects every failure", func(t *testing.T) {
		v := NewValidator().
			Field("page", 0, Positive).
			Check(false, "last", 1, "must not precede first page")
		require.Len(t, v.Errors(), 2)
		assert.Equal(t, `page "0" must be positive; last "1" must not precede first page`, v.ErrorMessage())
	})
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	require.NoError(t, WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	t.Run("failed write keeps the old file", func(t *testing.T) {
		err := WriteFileAtomic(path, func(w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return errors.New("encoder failed")
		})
		require.Error(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".pdfpages-"), "temp file left behind: %s", e.Name())
		}
	})
}

func TestInstallFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "out", "page-1.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))

	require.NoError(t, InstallFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.NoFileExists(t, src)

	assert.Error(t, InstallFile(filepath.Join(dir, "missing.png"), dst))
	assert.FileExists(t, dst, "a failed install leaves the destination alone")
}
