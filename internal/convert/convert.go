// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives batch conversion of markup sources into notebooks:
// discovery, output naming, per-file conversion with failure isolation, and
// the conversion ledger.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/qmd2colab/internal/ledger"
	"github.com/pdiddy/qmd2colab/internal/markup"
	"github.com/pdiddy/qmd2colab/internal/notebook"
	"github.com/pdiddy/qmd2colab/pkg/types"
)

// ErrNoInputDir is returned when the input directory is missing or is not
// a directory.
var ErrNoInputDir = errors.New("input directory does not exist")

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of sources processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any source failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Batch converts every source under Config.InputDir. Ledger and Log are
// optional.
type Batch struct {
	Config  types.ConversionConfig
	Profile *notebook.Profile
	Ledger  *ledger.Store
	Log     logrus.FieldLogger
}

// Discover returns the files under dir whose extension matches one of exts
// (case-insensitive), sorted. Hidden directories are not entered.
func Discover(dir string, exts []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoInputDir, dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExt(path, exts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func matchExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// LedgerPath resolves the ledger location for cfg. The boolean is false
// when the ledger is disabled.
func LedgerPath(cfg types.ConversionConfig) (string, bool) {
	switch cfg.Ledger {
	case ledger.Disabled:
		return "", false
	case "":
		return filepath.Join(cfg.OutputDir, ledger.FileName), true
	}
	return cfg.Ledger, true
}

// OutputName returns the notebook filename for a source stem.
func OutputName(stem string, naming types.NamingScheme) string {
	if naming == types.NamingStem {
		return stem + ".ipynb"
	}
	return Slug(stem) + ".ipynb"
}

// Slug lower-cases s, drops everything but letters, digits, underscores,
// hyphens and whitespace, and joins whitespace runs with underscores. An
// empty result becomes "notebook".
func Slug(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
		default:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte('_')
		}
		space = false
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "notebook"
	}
	return out
}

// ConvertFile converts the markup at src into a notebook written to dst and
// returns the number of cells. Unterminated fences fail the document; the
// returned error then carries every *markup.FenceError found.
func ConvertFile(src, dst string, p *notebook.Profile, cfg types.ConversionConfig) (int, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return 0, fmt.Errorf("reading source: %w", err)
	}
	return convertBytes(data, src, dst, p, cfg)
}

func convertBytes(data []byte, src, dst string, p *notebook.Profile, cfg types.ConversionConfig) (int, error) {
	doc, err := markup.Parse(string(data), markup.Options{LayoutClasses: cfg.LayoutClasses})
	if err != nil {
		return 0, err
	}

	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	nb := notebook.Build(doc, p, notebook.BuildOptions{
		Name:        stem,
		Untagged:    cfg.Untagged,
		KeepOptions: cfg.KeepOptions,
	})

	if err := notebook.WriteFile(dst, nb); err != nil {
		return 0, err
	}
	return len(nb.Cells), nil
}

// Run converts all discovered sources, printing per-file status to w and
// returning a summary. Per-file failures are counted, not returned; the
// error is non-nil only for a missing input directory, an unusable output
// directory, or cancellation.
func (b *Batch) Run(ctx context.Context, w io.Writer) (BatchResult, error) {
	log := b.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := b.Config
	p := b.Profile
	if p == nil {
		p = notebook.DefaultProfile()
	}
	if cfg.Primary != "" && cfg.Primary != p.Primary {
		cp := *p
		cp.Primary = strings.ToLower(cfg.Primary)
		p = &cp
	}

	settings, err := Fingerprint(p, cfg)
	if err != nil {
		return BatchResult{}, err
	}

	started := time.Now()
	files, err := Discover(cfg.InputDir, cfg.Extensions)
	if err != nil {
		return BatchResult{}, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating output directory: %w", err)
	}
	log.WithFields(logrus.Fields{
		"input":  cfg.InputDir,
		"output": cfg.OutputDir,
		"files":  len(files),
	}).Debug("starting batch")

	var result BatchResult
	claimed := make(map[string]string)

	for _, src := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		switch b.convertOne(ctx, src, p, settings, claimed, w, log) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionUnchanged:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())

	if b.Ledger != nil {
		run := ledger.Run{
			StartedAt: started,
			InputDir:  cfg.InputDir,
			OutputDir: cfg.OutputDir,
			Converted: result.Converted,
			Skipped:   result.Skipped,
			Failed:    result.Failed,
		}
		if err := b.Ledger.RecordRun(ctx, run); err != nil {
			log.WithError(err).Warn("ledger run not recorded")
		}
	}
	return result, nil
}

func (b *Batch) convertOne(ctx context.Context, src string, p *notebook.Profile, settings string, claimed map[string]string, w io.Writer, log logrus.FieldLogger) types.ConversionStatus {
	cfg := b.Config
	name := displayName(cfg.InputDir, src)
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(cfg.OutputDir, OutputName(stem, cfg.Naming))
	key, _ := filepath.Abs(src)

	if other, ok := claimed[dst]; ok {
		fmt.Fprintf(w, "failed:  %s (output %s already written from %s)\n", name, filepath.Base(dst), other)
		return types.ConversionFailed
	}
	claimed[dst] = name

	data, err := os.ReadFile(src)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return types.ConversionFailed
	}
	rec := types.ConversionRecord{
		SourcePath:   key,
		SourceHash:   hashBytes(data),
		SettingsHash: settings,
		OutputPath:   dst,
	}

	if b.Ledger != nil && !cfg.Force {
		same, err := b.Ledger.Unchanged(ctx, rec)
		if err != nil {
			log.WithError(err).WithField("source", name).Warn("ledger lookup failed")
		}
		if same {
			fmt.Fprintf(w, "skipped: %s (unchanged)\n", name)
			return types.ConversionUnchanged
		}
	}

	cells, err := convertBytes(data, src, dst, p, cfg)
	if err != nil {
		if fences := markup.FenceErrors(err); len(fences) > 0 {
			for _, fe := range fences {
				fmt.Fprintf(w, "failed:  %s (%v)\n", name, fe)
			}
		} else {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		}
		rec.Status = types.ConversionFailed
		rec.Message = strings.ReplaceAll(err.Error(), "\n", "; ")
		b.record(ctx, rec, log)
		return types.ConversionFailed
	}

	log.WithFields(logrus.Fields{"source": name, "cells": cells}).Debug("notebook written")
	fmt.Fprintf(w, "converted: %s -> %s\n", name, filepath.Base(dst))
	rec.Status = types.ConversionDone
	rec.Cells = cells
	b.record(ctx, rec, log)
	return types.ConversionDone
}

func (b *Batch) record(ctx context.Context, rec types.ConversionRecord, log logrus.FieldLogger) {
	if b.Ledger == nil {
		return
	}
	if err := b.Ledger.Record(ctx, rec); err != nil {
		log.WithError(err).WithField("source", rec.SourcePath).Warn("ledger record failed")
	}
}

func displayName(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// Fingerprint hashes everything besides the source text that shapes a
// notebook: the effective profile and the output options of cfg. A
// conversion recorded under a different fingerprint is redone.
func Fingerprint(p *notebook.Profile, cfg types.ConversionConfig) (string, error) {
	h := sha256.New()
	if err := p.WriteYAML(h); err != nil {
		return "", fmt.Errorf("fingerprinting profile: %w", err)
	}
	fmt.Fprintf(h, "untagged=%s\nnaming=%s\nkeep_options=%t\nlayout=%s\n",
		cfg.Untagged, cfg.Naming, cfg.KeepOptions, strings.Join(cfg.LayoutClasses, ","))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
