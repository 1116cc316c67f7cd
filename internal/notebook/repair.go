// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import "strings"

// Repair adds the outputs and execution_count members to every code cell
// that lacks them. Inserted members reuse the cell's own separator and
// colon style; every other byte is left as it was. The boolean reports
// whether anything was added, and an unchanged notebook is returned as is.
func Repair(data []byte) ([]byte, bool, error) {
	cells, err := scanCells(data)
	if err != nil {
		return nil, false, err
	}

	var edits []edit
	for _, c := range cells {
		if c.cellType(data) != string(Code) || len(c.Members) == 0 {
			continue
		}
		var missing []string
		if _, ok := c.member("outputs"); !ok {
			missing = append(missing, `"outputs"%s[]`)
		}
		if _, ok := c.member("execution_count"); !ok {
			missing = append(missing, `"execution_count"%snull`)
		}
		if len(missing) == 0 {
			continue
		}

		last := c.Members[len(c.Members)-1]
		sep := memberSeparator(data, c)
		colon := string(data[last.KeyEnd:last.ValueStart])

		var b strings.Builder
		for _, m := range missing {
			b.WriteString(sep)
			b.WriteString(strings.Replace(m, "%s", colon, 1))
		}
		edits = append(edits, edit{start: last.ValueEnd, end: last.ValueEnd, text: b.String()})
	}

	if len(edits) == 0 {
		return data, false, nil
	}
	return applyEdits(data, edits), true, nil
}

// memberSeparator returns the text that separates members of c, including
// the comma, e.g. ",\n   ".
func memberSeparator(data []byte, c cellSpan) string {
	n := len(c.Members)
	if n >= 2 {
		return string(data[c.Members[n-2].ValueEnd:c.Members[n-1].KeyStart])
	}
	return "," + string(data[c.Start+1:c.Members[0].KeyStart])
}
