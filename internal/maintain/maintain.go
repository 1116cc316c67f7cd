// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package maintain runs the notebook maintenance passes over directories:
// repair, tidy, check, and rename.
package maintain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/qmd2colab/internal/notebook"
	"github.com/pdiddy/qmd2colab/pkg/types"
)

// ErrNoDir is returned when the target directory is missing.
var ErrNoDir = errors.New("directory does not exist")

const notebookExt = ".ipynb"

// Result counts the per-file outcomes of a pass.
type Result struct {
	OK      int
	Changed int
	Failed  int
}

// Total returns the number of files processed.
func (r Result) Total() int {
	return r.OK + r.Changed + r.Failed
}

// HasFailures reports whether any file failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

func (r *Result) add(s types.FileStatus) {
	switch s {
	case types.FileOK:
		r.OK++
	case types.FileFixed, types.FileRenamed:
		r.Changed++
	case types.FileFailed:
		r.Failed++
	}
}

// FindNotebooks returns the notebooks under dir, sorted. Hidden entries and
// Jupyter checkpoint copies are skipped.
func FindNotebooks(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoDir, dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(name), notebookExt) {
			return nil
		}
		if strings.Contains(strings.ToLower(name), "checkpoint") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// rewrite is a byte-level notebook transformation.
type rewrite func(data []byte) ([]byte, bool, error)

// rewriteDir applies fn to every notebook under dir, writing back only the
// files fn changed.
func rewriteDir(ctx context.Context, dir string, w io.Writer, verb string, fn rewrite) (Result, error) {
	files, err := FindNotebooks(dir)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		result.add(rewriteFile(path, relName(dir, path), w, fn))
	}

	fmt.Fprintf(w, "\n%s summary: %d fixed, %d ok, %d failed (total: %d)\n",
		verb, result.Changed, result.OK, result.Failed, result.Total())
	return result, nil
}

func rewriteFile(path, name string, w io.Writer, fn rewrite) types.FileStatus {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.FileFailed
	}
	out, changed, err := fn(data)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.FileFailed
	}
	if !changed {
		fmt.Fprintf(w, "ok:      %s\n", name)
		return types.FileOK
	}
	if err := notebook.WriteBytes(path, out); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.FileFailed
	}
	fmt.Fprintf(w, "fixed:   %s\n", name)
	return types.FileFixed
}

// RepairDir adds missing outputs and execution_count fields to the code
// cells of every notebook under dir.
func RepairDir(ctx context.Context, dir string, w io.Writer) (Result, error) {
	return rewriteDir(ctx, dir, w, "Repair", notebook.Repair)
}

// TidyDir strips chunk option lines and rewrites R library blocks in every
// notebook under dir.
func TidyDir(ctx context.Context, dir string, opts notebook.TidyOptions, w io.Writer) (Result, error) {
	return rewriteDir(ctx, dir, w, "Tidy", func(data []byte) ([]byte, bool, error) {
		return notebook.Tidy(data, opts)
	})
}

func relName(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}
