// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import (
	"errors"
	"fmt"
	"strings"
)

// FenceError reports a code fence that is never closed.
type FenceError struct {
	Line   int
	Column int
	Fence  string
}

func (e *FenceError) Error() string {
	return fmt.Sprintf("line %d, column %d: unterminated code fence %q", e.Line, e.Column, e.Fence)
}

type scanState int

const (
	inProse scanState = iota
	inChunk
)

// fence is an opening fence token.
type fence struct {
	char   byte
	size   int
	indent int
	text   string
	info   string
}

// parseFenceOpen recognises an opening fence: optional indentation, a run
// of at least three backticks or tildes, then an info string.
func parseFenceOpen(text string) (fence, bool) {
	indent := 0
	for indent < len(text) && (text[indent] == ' ' || text[indent] == '\t') {
		indent++
	}
	rest := text[indent:]
	if rest == "" || (rest[0] != '`' && rest[0] != '~') {
		return fence{}, false
	}
	ch := rest[0]
	n := 0
	for n < len(rest) && rest[n] == ch {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	info := strings.TrimSpace(rest[n:])
	if ch == '`' && strings.ContainsRune(info, '`') {
		return fence{}, false
	}
	return fence{char: ch, size: n, indent: indent, text: strings.TrimSpace(text), info: info}, true
}

// closes reports whether text is a closing fence for f: the same fence
// character, at least as many of them, and nothing else on the line. A
// fence-looking line that carries an info string never closes a chunk.
func (f fence) closes(text string) bool {
	t := strings.TrimSpace(text)
	n := 0
	for n < len(t) && t[n] == f.char {
		n++
	}
	return n >= f.size && n == len(t)
}

// body strips the opener's indentation from a chunk line when present.
func (f fence) body(text string) string {
	i := 0
	for i < f.indent && i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return text[i:]
}

// parseInfo splits a fence info string into the engine tag and the inline
// option text. "{r setup, include=FALSE}" yields ("r", "setup, include=FALSE").
func parseInfo(info string) (engine, inline string) {
	s := strings.TrimSpace(info)
	if strings.HasPrefix(s, "{") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
		s = strings.TrimSpace(s)
	}
	s = strings.TrimPrefix(s, ".")

	n := 0
	if strings.HasPrefix(s, "=") {
		n = 1
	}
	for n < len(s) && isEngineByte(s[n]) {
		n++
	}
	engine = strings.ToLower(s[:n])
	inline = strings.TrimSpace(strings.TrimLeft(s[n:], " ,\t"))
	return engine, inline
}

func isEngineByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '+' || b == '.' || b == '-':
		return true
	}
	return false
}

// IsOptionLine reports whether line is a chunk option ("#| echo: false").
func IsOptionLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#|")
}

// Scan walks lines with a two-state machine and returns alternating prose
// and chunk segments in source order.
//
// When a fence is still open at end of input, a *FenceError is recorded,
// the opener is re-read as prose, and scanning resumes on the line after
// it. All such errors are joined into the returned error.
func Scan(lines []Line) ([]Segment, error) {
	var (
		segments []Segment
		errs     []error
		prose    []Line
		chunk    *Chunk
		open     fence
		openAt   int
		state    = inProse
	)

	flushProse := func() {
		if len(prose) == 0 {
			return
		}
		if n := len(segments); n > 0 && segments[n-1].Kind == SegmentProse {
			segments[n-1].Prose = append(segments[n-1].Prose, prose...)
		} else {
			segments = append(segments, Segment{Kind: SegmentProse, Prose: prose})
		}
		prose = nil
	}

	i := 0
	for {
		for ; i < len(lines); i++ {
			ln := lines[i]
			switch state {
			case inProse:
				f, ok := parseFenceOpen(ln.Text)
				if !ok {
					prose = append(prose, ln)
					continue
				}
				flushProse()
				engine, inline := parseInfo(f.info)
				chunk = &Chunk{Engine: engine, InlineOptions: inline, Line: ln.Num}
				open, openAt, state = f, i, inChunk

			case inChunk:
				if open.closes(ln.Text) {
					segments = append(segments, Segment{Kind: SegmentChunk, Chunk: chunk})
					chunk, state = nil, inProse
					continue
				}
				text := open.body(ln.Text)
				if IsOptionLine(text) {
					chunk.Options = append(chunk.Options, strings.TrimSpace(text))
					continue
				}
				chunk.Body = append(chunk.Body, text)
			}
		}

		if state != inChunk {
			break
		}
		errs = append(errs, &FenceError{
			Line:   lines[openAt].Num,
			Column: open.indent + 1,
			Fence:  open.text,
		})
		prose = append(prose, lines[openAt])
		chunk, state = nil, inProse
		i = openAt + 1
	}
	flushProse()

	return segments, errors.Join(errs...)
}
