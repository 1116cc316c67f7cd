// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notebook builds, serializes, and maintains nbformat v4 notebooks.
//
// Conversion goes through Build, which folds parsed markup segments into
// cells. The maintenance passes (Repair, Tidy, Check) work on serialized
// bytes and edit them in place so content they do not touch keeps its
// exact formatting.
package notebook

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CellType is the nbformat cell_type value.
type CellType string

const (
	Markdown CellType = "markdown"
	Code     CellType = "code"
)

// Cell is one notebook cell. Source holds logical lines without trailing
// newlines; the nbformat line endings are added when the cell is encoded.
type Cell struct {
	Type     CellType
	ID       string
	Metadata map[string]any
	Source   []string
}

// NewMarkdown returns a markdown cell holding lines.
func NewMarkdown(lines ...string) Cell {
	return Cell{Type: Markdown, Source: lines}
}

// NewCode returns a code cell holding lines.
func NewCode(lines ...string) Cell {
	return Cell{Type: Code, Source: lines}
}

// Text returns the cell source joined with newlines.
func (c Cell) Text() string {
	return strings.Join(c.Source, "\n")
}

type markdownCellJSON struct {
	CellType CellType       `json:"cell_type"`
	ID       string         `json:"id,omitempty"`
	Metadata map[string]any `json:"metadata"`
	Source   []string       `json:"source"`
}

type codeCellJSON struct {
	CellType       CellType       `json:"cell_type"`
	ID             string         `json:"id,omitempty"`
	Metadata       map[string]any `json:"metadata"`
	Source         []string       `json:"source"`
	Outputs        []any          `json:"outputs"`
	ExecutionCount *int           `json:"execution_count"`
}

// MarshalJSON encodes the cell in the shape its type requires. Code cells
// always carry an empty outputs list and a null execution_count.
func (c Cell) MarshalJSON() ([]byte, error) {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	src := sourceLines(c.Source)

	if c.Type == Code {
		return marshalNoEscape(codeCellJSON{
			CellType: Code,
			ID:       c.ID,
			Metadata: meta,
			Source:   src,
			Outputs:  []any{},
		})
	}
	return marshalNoEscape(markdownCellJSON{
		CellType: c.Type,
		ID:       c.ID,
		Metadata: meta,
		Source:   src,
	})
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// sourceLines adds the nbformat line terminators: every line except the
// last ends with "\n".
func sourceLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if i < len(lines)-1 {
			l += "\n"
		}
		out[i] = l
	}
	return out
}

// Kernelspec describes the notebook kernel.
type Kernelspec struct {
	DisplayName string `json:"display_name" yaml:"display_name"`
	Language    string `json:"language" yaml:"language"`
	Name        string `json:"name" yaml:"name"`
}

// LanguageInfo is the minimal language_info block.
type LanguageInfo struct {
	Name string `json:"name"`
}

// ColabMetadata is the Colab-specific notebook metadata.
type ColabMetadata struct {
	Name       string `json:"name,omitempty"`
	Provenance []any  `json:"provenance"`
	TOCVisible bool   `json:"toc_visible"`
}

// Metadata is the notebook-level metadata object.
type Metadata struct {
	Colab        *ColabMetadata `json:"colab,omitempty"`
	Kernelspec   Kernelspec     `json:"kernelspec"`
	LanguageInfo LanguageInfo   `json:"language_info"`
}

// Notebook is an nbformat 4.5 document.
type Notebook struct {
	Cells         []Cell   `json:"cells"`
	Metadata      Metadata `json:"metadata"`
	NBFormat      int      `json:"nbformat"`
	NBFormatMinor int      `json:"nbformat_minor"`
}

const (
	nbformatMajor = 4
	nbformatMinor = 5
)
