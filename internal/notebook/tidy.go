// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/qmd2colab/internal/markup"
)

// TidyOptions configure Tidy.
type TidyOptions struct {
	// RLibrary is the Drive folder R packages are installed into and
	// loaded from, e.g. "drive/My Drive/R".
	RLibrary string
}

// Tidy cleans the source of every code cell: chunk option lines are
// removed, and the usual R package install and load blocks are rewritten to
// use the persistent Drive library. Only the source values of changed cells
// are rewritten.
func Tidy(data []byte, opts TidyOptions) ([]byte, bool, error) {
	cells, err := scanCells(data)
	if err != nil {
		return nil, false, err
	}
	lib := strings.TrimRight(opts.RLibrary, "/")

	var edits []edit
	for _, c := range cells {
		if c.cellType(data) != string(Code) {
			continue
		}
		m, ok := c.member("source")
		if !ok {
			continue
		}
		raw := data[m.ValueStart:m.ValueEnd]
		text, err := decodeSource(raw)
		if err != nil {
			return nil, false, fmt.Errorf("cell %d: %w", c.Index, err)
		}

		lines := strings.Split(text, "\n")
		out := tidyLines(lines, lib)
		if slicesEqual(lines, out) {
			continue
		}

		encoded, err := encodeSource(out, raw, lineIndent(data, m.KeyStart))
		if err != nil {
			return nil, false, fmt.Errorf("cell %d: %w", c.Index, err)
		}
		edits = append(edits, edit{start: m.ValueStart, end: m.ValueEnd, text: encoded})
	}

	if len(edits) == 0 {
		return data, false, nil
	}
	return applyEdits(data, edits), true, nil
}

func tidyLines(lines []string, lib string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if markup.IsOptionLine(l) {
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 || strings.TrimSpace(out[0]) != "%%R" {
		return out
	}
	out = rewriteInstallBlock(out, lib)
	out = rewriteLoadBlock(out, lib)
	return out
}

// blockWindow bounds how far past a marker comment a block may extend.
const blockWindow = 8

func rewriteInstallBlock(lines []string, lib string) []string {
	start := indexContaining(lines, 0, "Install missing packages")
	if start < 0 {
		return lines
	}
	end := -1
	for j := start + 1; j < len(lines) && j <= start+blockWindow; j++ {
		if strings.Contains(lines[j], "install.packages(new") {
			end = j
			break
		}
	}
	if end < 0 || indexContaining(lines[:end+1], start, "installed.packages(") < 0 {
		return lines
	}
	block := []string{
		lines[start],
		fmt.Sprintf("new.packages <- packages[!(packages %%in%% installed.packages(lib='%s/')[,'Package'])]", lib),
		fmt.Sprintf("if(length(new.packages)) install.packages(new.packages, lib='%s/')", lib),
	}
	return splice(lines, start, end, block)
}

func rewriteLoadBlock(lines []string, lib string) []string {
	start := indexContaining(lines, 0, "Load packages with suppressed messages")
	if start < 0 {
		return lines
	}
	end := -1
	for j := start + 1; j < len(lines) && j <= start+blockWindow; j++ {
		if strings.Contains(lines[j], "}))") {
			end = j
			break
		}
	}
	if end < 0 {
		return lines
	}
	body := strings.Join(lines[start:end+1], "\n")
	if !strings.Contains(body, "invisible(lapply") || !strings.Contains(body, "suppressPackageStartupMessages") {
		return lines
	}
	// Fold in a library path set by an earlier run.
	for start > 0 {
		prev := strings.TrimSpace(lines[start-1])
		if !strings.HasPrefix(prev, ".libPaths(") && prev != "# set library path" {
			break
		}
		start--
	}
	block := []string{
		"# set library path",
		fmt.Sprintf(".libPaths('%s')", lib),
		"# Load packages with suppressed messages",
		"invisible(lapply(packages, function(pkg) {",
		"  suppressPackageStartupMessages(library(pkg, character.only = TRUE))",
		"}))",
	}
	return splice(lines, start, end, block)
}

func indexContaining(lines []string, from int, needle string) int {
	for i := from; i < len(lines); i++ {
		if strings.Contains(lines[i], needle) {
			return i
		}
	}
	return -1
}

// splice replaces lines[start:end+1] with block.
func splice(lines []string, start, end int, block []string) []string {
	out := make([]string, 0, len(lines)-(end-start+1)+len(block))
	out = append(out, lines[:start]...)
	out = append(out, block...)
	out = append(out, lines[end+1:]...)
	return out
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// decodeSource accepts both nbformat source encodings: a single string or
// a list of line strings.
func decodeSource(raw []byte) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var parts []string
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("decoding source: %w", err)
	}
	return strings.Join(parts, ""), nil
}

// encodeSource renders lines as an nbformat source list, laid out like the
// original value: one element per line when the original spanned several
// lines, otherwise on a single line.
func encodeSource(lines []string, original []byte, keyIndent string) (string, error) {
	elems := sourceLines(lines)
	if len(elems) == 0 || (len(elems) == 1 && elems[0] == "") {
		return "[]", nil
	}
	quoted := make([]string, len(elems))
	for i, e := range elems {
		q, err := marshalString(e)
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}

	if !bytes.ContainsRune(original, '\n') {
		return "[" + strings.Join(quoted, ",") + "]", nil
	}
	indent := elementIndent(original, keyIndent)
	return "[\n" + indent + strings.Join(quoted, ",\n"+indent) + "\n" + keyIndent + "]", nil
}

// elementIndent finds the indentation of the first element inside a
// multi-line array, falling back to one space deeper than the key.
func elementIndent(original []byte, keyIndent string) string {
	i := bytes.IndexByte(original, '\n')
	if i < 0 {
		return keyIndent + " "
	}
	j := i + 1
	for j < len(original) && (original[j] == ' ' || original[j] == '\t') {
		j++
	}
	if j >= len(original) || original[j] == ']' {
		return keyIndent + " "
	}
	return string(original[i+1 : j])
}

func marshalString(s string) (string, error) {
	b, err := marshalNoEscape(s)
	return string(b), err
}
