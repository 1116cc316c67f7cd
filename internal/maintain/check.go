// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package maintain

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/qmd2colab/internal/notebook"
	"github.com/pdiddy/qmd2colab/pkg/types"
)

// CheckPaths lints each path. Directories are expanded to the notebooks
// they contain. Notebooks with error-level issues count as failed; warnings
// are printed but do not fail the file.
func CheckPaths(ctx context.Context, paths []string, w io.Writer) (Result, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return Result{}, fmt.Errorf("checking %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := FindNotebooks(p)
		if err != nil {
			return Result{}, err
		}
		files = append(files, found...)
	}

	var result Result
	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		result.add(checkFile(path, w))
	}

	fmt.Fprintf(w, "\nCheck summary: %d valid, %d invalid (total: %d)\n",
		result.OK, result.Failed, result.Total())
	return result, nil
}

func checkFile(path string, w io.Writer) types.FileStatus {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
		return types.FileFailed
	}
	report, err := notebook.Check(data)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
		return types.FileFailed
	}

	status := types.FileOK
	if report.Valid() {
		fmt.Fprintf(w, "ok:      %s (%d cells)\n", path, report.Cells)
	} else {
		status = types.FileFailed
		fmt.Fprintf(w, "failed:  %s (%d cells)\n", path, report.Cells)
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "         %s\n", issue)
	}
	return status
}
