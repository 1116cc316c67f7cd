// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotNotebook is returned for JSON that is not an object with a cells array.
var ErrNotNotebook = errors.New("not a notebook")

// SyntaxError reports malformed JSON with a 1-based line and column.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid JSON at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func newSyntaxError(data []byte, err error) error {
	var se *json.SyntaxError
	if !errors.As(err, &se) {
		return err
	}
	// Offset counts the offending byte itself.
	pos := int(se.Offset) - 1
	if pos < 0 {
		pos = 0
	}
	if pos > len(data) {
		pos = len(data)
	}
	line := 1 + bytes.Count(data[:pos], []byte("\n"))
	col := pos - bytes.LastIndexByte(data[:pos], '\n')
	return &SyntaxError{Line: line, Column: col, Msg: se.Error()}
}

// member records byte offsets of one object member. KeyStart is the
// opening quote of the key, KeyEnd is just past its closing quote.
type member struct {
	Key        string
	KeyStart   int
	KeyEnd     int
	ValueStart int
	ValueEnd   int
}

// cellSpan records where a cell object sits in the source bytes.
type cellSpan struct {
	Index   int
	Start   int // offset of '{'
	End     int // offset of '}'
	Members []member
}

func (c cellSpan) member(key string) (member, bool) {
	for _, m := range c.Members {
		if m.Key == key {
			return m, true
		}
	}
	return member{}, false
}

// cellType decodes the cell_type member of c.
func (c cellSpan) cellType(data []byte) string {
	m, ok := c.member("cell_type")
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(data[m.ValueStart:m.ValueEnd], &s); err != nil {
		return ""
	}
	return s
}

// scanCells walks data with a token decoder and returns the position of
// every object in the top-level cells array. Non-object array elements are
// skipped.
func scanCells(data []byte) ([]cellSpan, error) {
	if !json.Valid(data) {
		var v any
		return nil, newSyntaxError(data, json.Unmarshal(data, &v))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrNotNotebook)
	}

	var (
		cells    []cellSpan
		hasCells bool
	)
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "cells" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}

		off := skip(data, int(dec.InputOffset()), ":")
		if off >= len(data) || data[off] != '[' {
			return nil, fmt.Errorf("%w: cells is not an array", ErrNotNotebook)
		}
		hasCells = true
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		for idx := 0; dec.More(); idx++ {
			start := skip(data, int(dec.InputOffset()), ",")
			if data[start] != '{' {
				if err := skipValue(dec); err != nil {
					return nil, err
				}
				continue
			}
			span, err := scanObject(dec, data, start)
			if err != nil {
				return nil, err
			}
			span.Index = idx
			cells = append(cells, span)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
	}

	if !hasCells {
		return nil, fmt.Errorf("%w: no cells array", ErrNotNotebook)
	}
	return cells, nil
}

func scanObject(dec *json.Decoder, data []byte, start int) (cellSpan, error) {
	span := cellSpan{Start: start}
	if _, err := dec.Token(); err != nil {
		return span, err
	}
	for dec.More() {
		keyStart := skip(data, int(dec.InputOffset()), ",")
		key, err := readKey(dec)
		if err != nil {
			return span, err
		}
		keyEnd := int(dec.InputOffset())
		valueStart := skip(data, keyEnd, ":")

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return span, err
		}
		span.Members = append(span.Members, member{
			Key:        key,
			KeyStart:   keyStart,
			KeyEnd:     keyEnd,
			ValueStart: valueStart,
			ValueEnd:   int(dec.InputOffset()),
		})
	}
	if _, err := dec.Token(); err != nil {
		return span, err
	}
	span.End = int(dec.InputOffset()) - 1
	return span, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// skip advances off past JSON whitespace and any of the bytes in extra.
func skip(data []byte, off int, extra string) int {
	for off < len(data) {
		b := data[off]
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' || bytes.IndexByte([]byte(extra), b) >= 0 {
			off++
			continue
		}
		break
	}
	return off
}

// edit replaces data[start:end] with text. An insertion has start == end.
type edit struct {
	start int
	end   int
	text  string
}

// applyEdits applies non-overlapping edits sorted by start offset.
func applyEdits(data []byte, edits []edit) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data))
	prev := 0
	for _, e := range edits {
		buf.Write(data[prev:e.start])
		buf.WriteString(e.text)
		prev = e.end
	}
	buf.Write(data[prev:])
	return buf.Bytes()
}

// lineIndent returns the whitespace at the start of the line holding off.
func lineIndent(data []byte, off int) string {
	start := bytes.LastIndexByte(data[:off], '\n') + 1
	end := start
	for end < off && (data[end] == ' ' || data[end] == '\t') {
		end++
	}
	return string(data[start:end])
}
