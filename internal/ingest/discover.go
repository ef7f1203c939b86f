// Package ingest finds input documents: glob patterns, directory walks and
// a filesystem watcher for drop folders.
package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joseph-ayodele/pdfpages/constants"
)

// DefaultExts are the extensions picked up when none are given.
var DefaultExts = []string{"pdf"}

// DirStats summarizes a discovery run.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// Options tunes Discover.
type Options struct {
	Exts       []string // lowercase, without '.'; nil means DefaultExts
	SkipHidden bool
}

// Discover expands each argument into files. An argument may be a plain
// file (kept whatever its extension), a directory (walked recursively) or a
// doublestar pattern such as "scans/**/*.pdf". Results keep argument order
// and drop duplicates. A pattern matching nothing is an error.
func Discover(args []string, opts Options) ([]string, DirStats, error) {
	exts := extSet(opts.Exts)
	var (
		out   []string
		stats DirStats
		seen  = map[string]struct{}{}
	)
	add := func(p string) {
		p = filepath.Clean(p)
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
		stats.Matched++
	}

	for _, arg := range args {
		if strings.TrimSpace(arg) == "" {
			return nil, stats, errors.New("empty path")
		}
		if st, err := os.Stat(arg); err == nil {
			if !st.IsDir() {
				stats.Scanned++
				add(arg)
				continue
			}
			if err := walk(arg, exts, opts.SkipHidden, &stats, add); err != nil {
				return nil, stats, fmt.Errorf("walk %s: %w", arg, err)
			}
			continue
		}

		if !doublestar.ValidatePattern(filepath.ToSlash(arg)) {
			return nil, stats, fmt.Errorf("bad pattern %q", arg)
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, stats, fmt.Errorf("glob %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, stats, fmt.Errorf("%s: %w", arg, os.ErrNotExist)
		}
		base, _ := doublestar.SplitPattern(filepath.ToSlash(arg))
		for _, m := range matches {
			stats.Scanned++
			if opts.SkipHidden && hiddenBelow(filepath.FromSlash(base), m) {
				stats.Skipped++
				continue
			}
			add(m)
		}
	}
	return out, stats, nil
}

func walk(root string, exts map[string]struct{}, skipHidden bool, stats *DirStats, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && skipHidden && isHidden(path) {
			stats.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !allowed(path, exts) {
			stats.Skipped++
			return nil
		}
		add(path)
		return nil
	})
}

func extSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExts
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// hiddenBelow reports whether any element of path under base is hidden.
func hiddenBelow(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return isHidden(path)
	}
	for _, elem := range strings.Split(rel, string(filepath.Separator)) {
		if elem != "." && elem != ".." && strings.HasPrefix(elem, ".") {
			return true
		}
	}
	return false
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
