// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import (
	"strings"

	"github.com/adrg/frontmatter"
)

// FrontMatter holds the Quarto header fields the converter cares about.
// Anything else ends up in Extra.
type FrontMatter struct {
	Title    string         `yaml:"title"`
	Subtitle string         `yaml:"subtitle"`
	Extra    map[string]any `yaml:",inline"`
}

// StripFrontMatter splits the leading YAML header off src. It returns the
// decoded header, the remaining body, and the number of source lines the
// header occupied. Sources without a header, or with one that does not
// parse, come back unchanged.
func StripFrontMatter(src string) (FrontMatter, string, int) {
	var meta FrontMatter
	if !strings.HasPrefix(src, "---") {
		return meta, src, 0
	}

	body, err := frontmatter.Parse(strings.NewReader(src), &meta)
	if err != nil {
		return FrontMatter{}, src, 0
	}

	rest := string(body)
	if !strings.HasSuffix(src, rest) {
		return meta, rest, 0
	}
	header := src[:len(src)-len(rest)]
	return meta, rest, strings.Count(header, "\n")
}
