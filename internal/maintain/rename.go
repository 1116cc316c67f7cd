package maintain

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/qmd2colab/pkg/types"
)

// RenameDir renames the files in cfg.Dir (not recursively) whose extension
// is cfg.RenameExt, replacing every cfg.RenameFrom in the name with
// cfg.RenameTo. Existing targets are never overwritten. With cfg.DryRun the
// plan is printed and nothing is renamed.
func RenameDir(ctx context.Context, cfg types.MaintenanceConfig, w io.Writer) (Result, error) {
	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrNoDir, cfg.Dir)
	}
	if cfg.RenameFrom == "" {
		return Result{}, fmt.Errorf("rename: empty search string")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), cfg.RenameExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	verb := "renamed:"
	if cfg.DryRun {
		verb = "would rename:"
	}

	var result Result
	planned := make(map[string]bool)
	for _, name := range names {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		target := strings.ReplaceAll(name, cfg.RenameFrom, cfg.RenameTo)
		if target == name {
			result.add(types.FileOK)
			continue
		}

		dst := filepath.Join(cfg.Dir, target)
		if _, err := os.Lstat(dst); err == nil || planned[target] {
			fmt.Fprintf(w, "failed:  %s (%s already exists)\n", name, target)
			result.add(types.FileFailed)
			continue
		}
		planned[target] = true

		if !cfg.DryRun {
			if err := os.Rename(filepath.Join(cfg.Dir, name), dst); err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
				result.add(types.FileFailed)
				continue
			}
		}
		fmt.Fprintf(w, "%s %s -> %s\n", verb, name, target)
		result.add(types.FileRenamed)
	}

	fmt.Fprintf(w, "\nRename summary: %d renamed, %d unchanged, %d failed (total: %d)\n",
		result.Changed, result.OK, result.Failed, result.Total())
	return result, nil
}
