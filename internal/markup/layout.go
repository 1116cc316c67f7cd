package markup

import "strings"

// StripLayoutBlocks removes fenced divs whose attribute block names one of
// classes, from the opening ":::" line through its matching close. Nested
// divs are counted so an inner close does not end the block early. An
// opener with no matching close is kept.
func StripLayoutBlocks(lines []Line, classes []string) []Line {
	if len(classes) == 0 {
		return lines
	}

	out := make([]Line, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		attrs, ok := divOpener(lines[i].Text)
		if !ok || !hasLayoutClass(attrs, classes) {
			out = append(out, lines[i])
			continue
		}
		end := matchDivClose(lines, i)
		if end < 0 {
			out = append(out, lines[i])
			continue
		}
		i = end
	}
	return out
}

// divOpener reports whether text opens a fenced div and returns its
// attribute text (without braces).
func divOpener(text string) (string, bool) {
	t := strings.TrimSpace(text)
	n := colonRun(t)
	if n < 3 {
		return "", false
	}
	rest := strings.TrimSpace(t[n:])
	if rest == "" {
		return "", false
	}
	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "{"), "}")
	return rest, true
}

func isDivClose(text string) bool {
	t := strings.TrimSpace(text)
	n := colonRun(t)
	return n >= 3 && n == len(t)
}

func colonRun(t string) int {
	n := 0
	for n < len(t) && t[n] == ':' {
		n++
	}
	return n
}

func matchDivClose(lines []Line, start int) int {
	depth := 0
	for j := start; j < len(lines); j++ {
		if _, ok := divOpener(lines[j].Text); ok {
			depth++
			continue
		}
		if isDivClose(lines[j].Text) {
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func hasLayoutClass(attrs string, classes []string) bool {
	for _, tok := range strings.Fields(attrs) {
		tok = strings.TrimPrefix(tok, ".")
		name, _, _ := strings.Cut(tok, "=")
		for _, c := range classes {
			if name == c {
				return true
			}
		}
	}
	return false
}
