// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import "strings"

// IsHeading reports whether line is an ATX heading: after leading
// whitespace, one or more '#' followed by whitespace or end of line.
func IsHeading(line string) bool {
	t := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(t, "#") {
		return false
	}
	after := strings.TrimLeft(t, "#")
	return after == "" || after[0] == ' ' || after[0] == '\t'
}

// HeadingText returns the text of a heading line without its markers.
func HeadingText(line string) string {
	t := strings.TrimLeft(line, " \t")
	t = strings.TrimLeft(t, "#")
	return strings.TrimSpace(t)
}

// SplitProse groups a prose span into markdown blocks. Every heading line
// becomes its own block; the lines between headings form one block with
// surrounding blank lines trimmed. Option lines are dropped and blocks that
// end up empty are not emitted.
func SplitProse(lines []Line) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	flush := func() {
		if b := trimBlank(current); len(b) > 0 {
			blocks = append(blocks, b)
		}
		current = nil
	}

	for _, ln := range lines {
		text := strings.TrimRight(ln.Text, " \t")
		if IsOptionLine(text) {
			continue
		}
		if IsHeading(text) {
			flush()
			blocks = append(blocks, []string{strings.TrimLeft(text, " \t")})
			continue
		}
		current = append(current, text)
	}
	flush()
	return blocks
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return nil
	}
	return lines[start:end]
}
