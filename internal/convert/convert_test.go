// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/qmd2colab/internal/ledger"
	"github.com/pdiddy/qmd2colab/internal/notebook"
	"github.com/pdiddy/qmd2colab/pkg/types"
)

const sample = "# Title\n\n```{r}\nx <- 1\n```\n"

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig(t *testing.T) types.ConversionConfig {
	t.Helper()
	root := t.TempDir()
	cfg := types.DefaultConversionConfig()
	cfg.InputDir = filepath.Join(root, "src")
	cfg.OutputDir = filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	return cfg
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Kaplan Meier (R)", "kaplan_meier_r"},
		{"02-07 survival  analysis", "02-07_survival_analysis"},
		{"already_slugged", "already_slugged"},
		{"  padded  ", "padded"},
		{"Überblick Daten", "überblick_daten"},
		{"???", "notebook"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "my_doc.ipynb", OutputName("My Doc", types.NamingSlug))
	assert.Equal(t, "My Doc.ipynb", OutputName("My Doc", types.NamingStem))
}

func TestLedgerPath(t *testing.T) {
	cfg := types.ConversionConfig{OutputDir: "out"}

	path, ok := LedgerPath(cfg)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("out", ledger.FileName), path)

	cfg.Ledger = "state.db"
	path, ok = LedgerPath(cfg)
	assert.True(t, ok)
	assert.Equal(t, "state.db", path)

	cfg.Ledger = ledger.Disabled
	_, ok = LedgerPath(cfg)
	assert.False(t, ok)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "b.qmd", sample)
	writeSource(t, dir, "a.Rmd", sample)
	writeSource(t, dir, "nested/c.RMD", sample)
	writeSource(t, dir, ".quarto/hidden.qmd", sample)
	writeSource(t, dir, "notes.md", sample)

	files, err := Discover(dir, []string{".qmd", ".Rmd"})
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		rel = append(rel, displayName(dir, f))
	}
	assert.Equal(t, []string{"a.Rmd", "b.qmd", "nested/c.RMD"}, rel)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), []string{".qmd"})
	assert.ErrorIs(t, err, ErrNoInputDir)

	file := writeSource(t, t.TempDir(), "x.qmd", sample)
	_, err = Discover(file, []string{".qmd"})
	assert.ErrorIs(t, err, ErrNoInputDir)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "intro.qmd", sample)
	dst := filepath.Join(dir, "intro.ipynb")

	cells, err := ConvertFile(src, dst, notebook.DefaultProfile(), types.DefaultConversionConfig())
	require.NoError(t, err)
	assert.Equal(t, 8, cells)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	report, err := notebook.Check(data)
	require.NoError(t, err)
	assert.True(t, report.Valid(), "issues: %v", report.Issues)
	assert.Equal(t, 8, report.Cells)
}

func TestConvertFile_UnterminatedFence(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.qmd", "# T\n\n```{r}\nx <- 1\n")
	dst := filepath.Join(dir, "bad.ipynb")

	_, err := ConvertFile(src, dst, notebook.DefaultProfile(), types.DefaultConversionConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "no notebook should be written for a failed document")
}

func TestBatchRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger = ledger.Disabled
	writeSource(t, cfg.InputDir, "a.qmd", sample)
	writeSource(t, cfg.InputDir, "sub/B Part.Rmd", "Intro\n\n```{python}\nprint(1)\n```\n")
	writeSource(t, cfg.InputDir, "c.qmd", "```{r}\nx\n\n```{bash}\nls\n")

	var out bytes.Buffer
	b := &Batch{Config: cfg, Log: quietLogger()}
	result, err := b.Run(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Converted: 2, Failed: 1}, result)
	assert.True(t, result.HasFailures())
	assert.Equal(t, 3, result.Total())

	log := out.String()
	assert.Contains(t, log, "converted: a.qmd -> a.ipynb")
	assert.Contains(t, log, "converted: sub/B Part.Rmd -> b_part.ipynb")
	assert.Contains(t, log, "failed:  c.qmd (line 1, column 1")
	assert.Contains(t, log, "failed:  c.qmd (line 4, column 1")
	assert.Contains(t, log, "Batch summary: 2 converted, 0 skipped, 1 failed (total: 3)")

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "a.ipynb"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "b_part.ipynb"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "c.ipynb"))
}

func TestBatchRun_Ledger(t *testing.T) {
	cfg := testConfig(t)
	src := writeSource(t, cfg.InputDir, "a.qmd", sample)
	writeSource(t, cfg.InputDir, "bad.qmd", "```{r}\nx\n")

	path, ok := LedgerPath(cfg)
	require.True(t, ok)
	store, err := ledger.Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	run := func(force bool) (BatchResult, string) {
		var out bytes.Buffer
		c := cfg
		c.Force = force
		b := &Batch{Config: c, Ledger: store, Log: quietLogger()}
		res, err := b.Run(ctx, &out)
		require.NoError(t, err)
		return res, out.String()
	}

	first, _ := run(false)
	assert.Equal(t, BatchResult{Converted: 1, Failed: 1}, first)

	second, log := run(false)
	assert.Equal(t, BatchResult{Skipped: 1, Failed: 1}, second)
	assert.Contains(t, log, "skipped: a.qmd (unchanged)")

	forced, _ := run(true)
	assert.Equal(t, BatchResult{Converted: 1, Failed: 1}, forced)

	require.NoError(t, os.WriteFile(src, []byte(sample+"\nMore text.\n"), 0o644))
	edited, _ := run(false)
	assert.Equal(t, BatchResult{Converted: 1, Failed: 1}, edited)

	recs, err := store.List(ctx, types.ConversionFailed)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Message, "unterminated code fence")

	last, ok, err := store.LastRun(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, last.Converted)
}

func TestBatchRun_LedgerSettingsChange(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg.InputDir, "My Doc.qmd", sample)

	path, ok := LedgerPath(cfg)
	require.True(t, ok)
	store, err := ledger.Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	run := func(c types.ConversionConfig, p *notebook.Profile) BatchResult {
		b := &Batch{Config: c, Profile: p, Ledger: store, Log: quietLogger()}
		res, err := b.Run(ctx, io.Discard)
		require.NoError(t, err)
		return res
	}

	first := run(cfg, nil)
	assert.Equal(t, BatchResult{Converted: 1}, first)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "my_doc.ipynb"))

	stem := cfg
	stem.Naming = types.NamingStem
	assert.Equal(t, BatchResult{Converted: 1}, run(stem, nil), "new output name")
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "My Doc.ipynb"))
	assert.Equal(t, BatchResult{Skipped: 1}, run(stem, nil))

	noBanner := notebook.DefaultProfile()
	noBanner.Banner = nil
	assert.Equal(t, BatchResult{Converted: 1}, run(stem, noBanner), "profile changed")
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "My Doc.ipynb"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<br>")
	assert.Equal(t, BatchResult{Skipped: 1}, run(stem, noBanner))

	keep := stem
	keep.KeepOptions = true
	assert.Equal(t, BatchResult{Converted: 1}, run(keep, noBanner), "options changed")
}

func TestFingerprint(t *testing.T) {
	cfg := types.DefaultConversionConfig()
	base, err := Fingerprint(notebook.DefaultProfile(), cfg)
	require.NoError(t, err)

	again, err := Fingerprint(notebook.DefaultProfile(), cfg)
	require.NoError(t, err)
	assert.Equal(t, base, again)

	python := notebook.DefaultProfile()
	python.Primary = "python"
	other := cfg
	other.Untagged = types.UntaggedOther
	layout := cfg
	layout.LayoutClasses = []string{"layout-ncol"}

	for name, got := range map[string]struct {
		p   *notebook.Profile
		cfg types.ConversionConfig
	}{
		"primary":  {python, cfg},
		"untagged": {notebook.DefaultProfile(), other},
		"layout":   {notebook.DefaultProfile(), layout},
	} {
		t.Run(name, func(t *testing.T) {
			fp, err := Fingerprint(got.p, got.cfg)
			require.NoError(t, err)
			assert.NotEqual(t, base, fp)
		})
	}
}

func TestBatchRun_OutputCollision(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger = ledger.Disabled
	writeSource(t, cfg.InputDir, "A b.qmd", sample)
	writeSource(t, cfg.InputDir, "a_b.qmd", sample)

	var out bytes.Buffer
	result, err := (&Batch{Config: cfg, Log: quietLogger()}).Run(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Converted: 1, Failed: 1}, result)
	assert.Contains(t, out.String(), "already written from A b.qmd")
}

func TestBatchRun_PrimaryOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger = ledger.Disabled
	cfg.Primary = "python"
	writeSource(t, cfg.InputDir, "py.qmd", "```{python}\nprint(1)\n```\n")

	var out bytes.Buffer
	_, err := (&Batch{Config: cfg, Log: quietLogger()}).Run(context.Background(), &out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "py.ipynb"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Install rpy2", "setup precedes the first primary chunk")
}

func TestBatchRun_MissingInput(t *testing.T) {
	cfg := types.DefaultConversionConfig()
	cfg.InputDir = filepath.Join(t.TempDir(), "missing")
	cfg.OutputDir = t.TempDir()

	_, err := (&Batch{Config: cfg, Log: quietLogger()}).Run(context.Background(), io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInputDir))
	assert.True(t, strings.Contains(err.Error(), "missing"))
}

func TestBatchRun_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger = ledger.Disabled
	writeSource(t, cfg.InputDir, "a.qmd", sample)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := (&Batch{Config: cfg, Log: quietLogger()}).Run(ctx, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Total())
}
