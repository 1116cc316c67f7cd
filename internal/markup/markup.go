// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markup parses Quarto and R-Markdown sources into an ordered
// sequence of prose spans and fenced code chunks.
//
// Parsing runs in fixed passes: front matter is split off, layout-only
// fenced divs are removed, and the remaining lines are scanned by a
// two-state machine (prose, chunk). Line numbers always refer to the
// original source so errors point at the right place.
package markup

import (
	"errors"
	"strings"
)

// Line is one source line together with its 1-based line number in the
// original document.
type Line struct {
	Num  int
	Text string
}

// SegmentKind distinguishes prose spans from code chunks.
type SegmentKind int

const (
	SegmentProse SegmentKind = iota
	SegmentChunk
)

func (k SegmentKind) String() string {
	if k == SegmentChunk {
		return "chunk"
	}
	return "prose"
}

// Chunk is a fenced code block.
type Chunk struct {
	// Engine is the lower-cased engine tag ("r", "python", "=html").
	// It is empty for an untagged fence.
	Engine string

	// InlineOptions is the text after the engine inside the fence info,
	// e.g. `label, echo=FALSE` for "```{r label, echo=FALSE}".
	InlineOptions string

	// Options holds the "#|" option lines found in the body, trimmed.
	Options []string

	// Body is the executable source with option lines removed.
	Body []string

	// Line is where the opening fence sits.
	Line int
}

// Segment is one region of a scanned document.
type Segment struct {
	Kind  SegmentKind
	Prose []Line
	Chunk *Chunk
}

// Document is the parsed form of one markup source.
type Document struct {
	Meta     FrontMatter
	Title    string
	Segments []Segment
}

// Options tune the cleaning passes applied before scanning.
type Options struct {
	// LayoutClasses names the fenced-div classes that are dropped whole.
	LayoutClasses []string
}

// Parse runs every pass over src. A non-nil error lists each unterminated
// fence; the returned Document is still populated so callers can decide
// whether a partial result is useful.
func Parse(src string, opts Options) (*Document, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	meta, body, offset := StripFrontMatter(src)
	lines := SplitLines(body, offset+1)
	lines = StripLayoutBlocks(lines, opts.LayoutClasses)

	segments, err := Scan(lines)

	title := meta.Title
	if title == "" {
		title = FirstHeading([]byte(body))
	}

	return &Document{Meta: meta, Title: title, Segments: segments}, err
}

// SplitLines splits text on newlines and numbers the lines starting at
// first. A trailing newline does not produce an empty final line.
func SplitLines(text string, first int) []Line {
	if text == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	lines := make([]Line, len(raw))
	for i, t := range raw {
		lines[i] = Line{Num: first + i, Text: t}
	}
	return lines
}

// FenceErrors extracts every *FenceError carried by err.
func FenceErrors(err error) []*FenceError {
	if err == nil {
		return nil
	}
	var out []*FenceError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, FenceErrors(e)...)
		}
		return out
	}
	var fe *FenceError
	if errors.As(err, &fe) {
		out = append(out, fe)
	}
	return out
}
