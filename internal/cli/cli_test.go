package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfpages/internal/common"
	"github.com/joseph-ayodele/pdfpages/internal/pdf/pdftest"
	"github.com/joseph-ayodele/pdfpages/internal/runner"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, fake *runner.Fake, args ...string) result {
	t.Helper()
	if fake == nil {
		fake = runner.NewFake(nil)
	}
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, Options{
		Stdout: &stdout,
		Stderr: &stderr,
		Runner: fake,
		LookPath: func(name string) (string, error) {
			return "", errors.New("not found")
		},
	})
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// writeLast answers a render command by writing size bytes to its last
// argument.
func writeLast(size int) runner.Handler {
	return func(args []string) ([]byte, []byte, error) {
		out := args[len(args)-1]
		return nil, nil, os.WriteFile(out, bytes.Repeat([]byte{'x'}, size), 0o644)
	}
}

func TestPagesPrintsSizes(t *testing.T) {
	doc := pdftest.Write(t, "one", "two", "three")
	fake := runner.NewFake(map[string]runner.Handler{"magick": writeLast(2048)})

	res := run(t, fake, "pages", doc)

	require.Equal(t, common.ExitOK, res.code, res.stderr)
	assert.Equal(t, "Size of PNG file for pages in "+doc+":\n"+
		"Page 1: 2.0KB\nPage 2: 2.0KB\nPage 3: 2.0KB\n", res.stdout)
	assert.Equal(t, 3, fake.Called("magick"))
}

func TestPagesRangeAndOutDir(t *testing.T) {
	doc := pdftest.Write(t, "one", "two", "three")
	outDir := filepath.Join(t.TempDir(), "out")
	fake := runner.NewFake(map[string]runner.Handler{"magick": writeLast(512)})

	res := run(t, fake, "pages", doc, "-f", "2", "-l", "9", "-O", outDir)

	require.Equal(t, common.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Page 2: 0.5KB\nPage 3: 0.5KB\n")
	assert.NotContains(t, res.stdout, "Page 1:")
	assert.FileExists(t, filepath.Join(outDir, "page-2.png"))
	assert.FileExists(t, filepath.Join(outDir, "page-3.png"))
	assert.Contains(t, res.stderr, "Copied intermediate file to")
}

func TestPagesConversionFailedDoesNotFailRun(t *testing.T) {
	doc := pdftest.Write(t, "one", "two")
	fake := runner.NewFake(map[string]runner.Handler{
		"magick": func([]string) ([]byte, []byte, error) {
			return nil, []byte("no delegate"), errors.New("exit status 1")
		},
	})

	res := run(t, fake, "pages", doc)

	assert.Equal(t, common.ExitOK, res.code)
	assert.Contains(t, res.stdout, "Page 1: conversion failed\nPage 2: conversion failed\n")
	assert.Contains(t, res.stderr, "2 of 2 pages could not be converted")
}

func TestPagesUncountableDocument(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("not a pdf"), 0o644))

	res := run(t, nil, "pages", doc)

	assert.Equal(t, common.ExitFailed, res.code)
	assert.Contains(t, res.stderr, "Error: could not determine page count for "+doc)
	// One line per attempted candidate.
	assert.Contains(t, res.stderr, "  ledongthuc-pdf: FAILED:")
	assert.Contains(t, res.stderr, "  rsc-pdf: FAILED:")
	assert.Contains(t, res.stderr, "  pdfinfo: UNAVAILABLE:")
}

func TestPagesReport(t *testing.T) {
	doc := pdftest.Write(t, "one", "two")
	report := filepath.Join(t.TempDir(), "report.csv")
	fake := runner.NewFake(map[string]runner.Handler{"magick": writeLast(1024)})

	res := run(t, fake, "-q", "pages", doc, "--report", report)

	require.Equal(t, common.ExitOK, res.code, res.stderr)
	assert.Empty(t, res.stderr)
	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"), string(data))
}

func TestCount(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "sub", "b.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(b), 0o755))
	require.NoError(t, os.WriteFile(a, pdftest.Build("1", "2"), 0o644))
	require.NoError(t, os.WriteFile(b, pdftest.Build("1", "2", "3"), 0o644))

	res := run(t, nil, "count", filepath.Join(dir, "**", "*.pdf"))

	require.Equal(t, common.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, a+": 2 pages\n")
	assert.Contains(t, res.stdout, b+": 3 pages\n")
}

func TestCountExitCodes(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	bad := filepath.Join(dir, "bad.pdf")
	notPDF := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(good, pdftest.Build("1"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(notPDF, []byte("hello"), 0o644))

	tests := []struct {
		name string
		args []string
		code int
		err  string
	}{
		{name: "no args", args: nil, code: common.ExitUsage},
		{name: "missing file", args: []string{filepath.Join(dir, "nope.pdf")}, code: common.ExitUsage},
		{name: "wrong extension", args: []string{notPDF}, code: common.ExitUsage, err: "must have extension"},
		{name: "all candidates failed", args: []string{bad}, code: common.ExitFailed, err: "count-pages: all 3 candidate(s) failed"},
		{name: "mixed", args: []string{good, bad}, code: common.ExitFailed, err: "1 of 2 files could not be counted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, nil, append([]string{"count"}, tt.args...)...)
			assert.Equal(t, tt.code, res.code, res.stderr)
			assert.Contains(t, res.stderr, "Error:")
			if tt.err != "" {
				assert.Contains(t, res.stderr, tt.err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	doc := pdftest.Write(t, "one", "two")
	out := filepath.Join(t.TempDir(), "p2.png")
	fake := runner.NewFake(map[string]runner.Handler{"pdftoppm": func(args []string) ([]byte, []byte, error) {
		prefix := args[len(args)-1]
		return nil, nil, os.WriteFile(prefix+".png", make([]byte, 1024), 0o644)
	}})

	res := run(t, fake, "render", doc, "-p", "2", "-o", out, "-d", "72")

	require.Equal(t, common.ExitOK, res.code, res.stderr)
	assert.Equal(t, out+": 1.0KB\n", res.stdout)
	assert.Contains(t, res.stderr, "Rendered page 2 with pdftoppm")
	assert.Equal(t, 1, fake.Called("magick"))
	assert.FileExists(t, out)
}

func TestRenderRequiresOutput(t *testing.T) {
	res := run(t, nil, "render", "doc.pdf")
	assert.Equal(t, common.ExitUsage, res.code)
}

func TestText(t *testing.T) {
	doc := pdftest.Write(t, "one", "two")
	out := filepath.Join(t.TempDir(), "doc.txt")
	fake := runner.NewFake(map[string]runner.Handler{"pdftotext": func([]string) ([]byte, []byte, error) {
		return []byte("page one\fpage two\f"), nil, nil
	}})

	res := run(t, fake, "text", doc, "-o", out)

	require.Equal(t, common.ExitOK, res.code, res.stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "page one\fpage two\n", string(data))
	assert.Empty(t, res.stdout)
}

func TestTextRejectsInvertedRange(t *testing.T) {
	doc := pdftest.Write(t, "one", "two")
	fake := runner.NewFake(map[string]runner.Handler{"pdftotext": func([]string) ([]byte, []byte, error) {
		return []byte("unreachable"), nil, nil
	}})

	res := run(t, fake, "text", doc, "-f", "2", "-l", "1")

	assert.Equal(t, common.ExitUsage, res.code)
	assert.Zero(t, fake.Called("pdftotext"))
}

func TestOCRImage(t *testing.T) {
	t.Setenv("TESSDATA_PREFIX", "")
	t.Setenv("TESSERACT_PSM", "")
	img := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o644))
	var gotArgs []string
	fake := runner.NewFake(map[string]runner.Handler{"tesseract": func(args []string) ([]byte, []byte, error) {
		gotArgs = args
		return []byte("Total   12.50\r\n\r\n\r\n"), nil, nil
	}})

	res := run(t, fake, "ocr", img, "--lang", "deu", "--psm", "6")

	require.Equal(t, common.ExitOK, res.code, res.stderr)
	assert.Equal(t, "Total 12.50\n", res.stdout)
	assert.Equal(t, []string{img, "stdout", "-l", "deu", "--psm", "6"}, gotArgs)
}

func TestOCRUnsupportedExtension(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "notes.docx")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0o644))

	res := run(t, nil, "ocr", doc)

	assert.Equal(t, common.ExitUsage, res.code)
	assert.Contains(t, res.stderr, "unsupported extension")
}

func TestDoctor(t *testing.T) {
	t.Setenv("PDFPAGES_DISABLE", "render-page/mutool")
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"doctor"}, Options{
		Stdout: &stdout,
		Stderr: &stderr,
		Runner: runner.NewFake(nil),
		LookPath: func(name string) (string, error) {
			if name == "magick" {
				return "/usr/bin/magick", nil
			}
			return "", errors.New("not found")
		},
	})

	require.Equal(t, common.ExitOK, code, stderr.String())
	lines := strings.Split(stdout.String(), "\n")
	find := func(candidate, capability string) string {
		for _, l := range lines {
			if strings.Contains(l, " "+candidate+" ") && strings.Contains(l, capability) {
				return l
			}
		}
		t.Fatalf("no row for %s/%s in:\n%s", capability, candidate, stdout.String())
		return ""
	}
	assert.Contains(t, find("ledongthuc-pdf", "count-pages"), statusBuiltin)
	assert.Contains(t, find("magick", "render-page"), "/usr/bin/magick")
	assert.Contains(t, find("pdftoppm", "render-page"), statusMissing)
	assert.Contains(t, find("mutool", "render-page"), statusDisabled)
	assert.Contains(t, find("gosseract", "ocr-image"), statusNotBuilt)
}

func TestUsageAndConfigErrors(t *testing.T) {
	badConfig := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badConfig, []byte("render:\n  dpi: -5\n"), 0o644))

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "unknown flag", args: []string{"count", "--nope"}, code: common.ExitUsage},
		{name: "unknown command", args: []string{"explode"}, code: common.ExitUsage},
		{name: "bad log format", args: []string{"--log-format", "xml", "doctor"}, code: common.ExitConfig},
		{name: "config file missing", args: []string{"--config", "/does/not/exist.yaml", "doctor"}, code: common.ExitConfig},
		{name: "config fails schema", args: []string{"--config", badConfig, "doctor"}, code: common.ExitConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, nil, tt.args...)
			assert.Equal(t, tt.code, res.code, res.stderr)
		})
	}
}

func TestQuietStillReportsErrors(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("nope"), 0o644))

	res := run(t, nil, "-q", "count", doc)

	assert.Equal(t, common.ExitFailed, res.code)
	assert.True(t, strings.HasPrefix(res.stderr, "Error: "), res.stderr)
	assert.NotContains(t, res.stderr, "INFO:")
	assert.NotContains(t, res.stderr, "VERBOSE:")
}

func TestVerboseEmitsAttempts(t *testing.T) {
	doc := pdftest.Write(t, "one")

	res := run(t, nil, "-vvv", "count", doc)

	require.Equal(t, common.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "DEBUG:")
	assert.Contains(t, res.stderr, "ledongthuc-pdf")
}

func TestTextPath(t *testing.T) {
	assert.Equal(t, filepath.Join("in", "scan.txt"), textPath(filepath.Join("in", "scan.pdf"), ""))
	assert.Equal(t, filepath.Join("out", "scan.txt"), textPath(filepath.Join("in", "scan.heic"), "out"))
}
